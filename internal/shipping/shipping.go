// Package shipping decodes the SHIPPING_ADDR block the gateway embeds in
// transaction status payloads.
package shipping

import (
	"encoding/xml"
	"strings"
)

// Address is the decomposed shipping address of an unconfirmed delivery.
// Street2 is optional in the source block and stays nil when absent.
type Address struct {
	Name    string
	Street  string
	Street2 *string
	Zip     string
	City    string
	Country string
}

// Block is a decoded Shipping element. Confirmed mirrors the literal
// "confirmed" attribute: anything other than "false" counts as confirmed.
type Block struct {
	Confirmed bool
	Address   Address
}

type shippingXML struct {
	XMLName   xml.Name `xml:"Shipping"`
	Confirmed string   `xml:"confirmed,attr"`
	Name      string   `xml:"Name"`
	Street    string   `xml:"Street"`
	Street2   *string  `xml:"Street2"`
	Zip       string   `xml:"Zip"`
	City      string   `xml:"City"`
	Country   struct {
		Code string `xml:"code,attr"`
	} `xml:"Country"`
}

// Decode parses a raw SHIPPING_ADDR payload.
func Decode(raw string) (*Block, error) {
	var doc shippingXML
	if err := xml.Unmarshal([]byte(strings.TrimSpace(raw)), &doc); err != nil {
		return nil, err
	}

	addr := Address{
		Name:    doc.Name,
		Street:  doc.Street,
		Street2: doc.Street2,
		Zip:     doc.Zip,
		City:    doc.City,
		Country: doc.Country.Code,
	}

	return &Block{
		Confirmed: doc.Confirmed != "false",
		Address:   addr,
	}, nil
}

// Params returns the decomposed address as gateway parameter names.
// SHIPP_STREET2 is present only when the source block carried a Street2.
func (a Address) Params() map[string]string {
	params := map[string]string{
		"SHIPP_NAME":    a.Name,
		"SHIPP_STREET":  a.Street,
		"SHIPP_ZIP":     a.Zip,
		"SHIPP_CITY":    a.City,
		"SHIPP_COUNTRY": a.Country,
	}
	if a.Street2 != nil {
		params["SHIPP_STREET2"] = *a.Street2
	}
	return params
}
