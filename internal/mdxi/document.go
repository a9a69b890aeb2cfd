// Package mdxi builds and validates the order documents submitted to the
// payment gateway.
package mdxi

import (
	"encoding/xml"

	"github.com/shopspring/decimal"
)

// Document is the hierarchical order description consumed by the gateway.
// One document is produced fresh per operation and serialized to XML before
// transmission.
type Document struct {
	XMLName xml.Name `xml:"Order"`

	Tid         string `xml:"Tid"`
	TemplateSet string `xml:"TemplateSet,omitempty"`
	// UseProfile marks a stored-profile payment.
	UseProfile bool   `xml:"UseProfile,omitempty"`
	PaymentType string `xml:"PaymentType,omitempty"`

	Price    string `xml:"Price"`
	Currency string `xml:"Currency"`

	Customer *Customer `xml:"Customer,omitempty"`

	ShoppingCart *ShoppingCart `xml:"ShoppingCart,omitempty"`
	BillingAddr  *Addr         `xml:"BillingAddr,omitempty"`
	ShippingAddr *Addr         `xml:"ShippingAddr,omitempty"`

	ExpressCheckout *ExpressCheckout `xml:"ExpressCheckout,omitempty"`

	URL *URL `xml:"URL,omitempty"`
}

// Customer carries the buyer identity attached to the order.
type Customer struct {
	ID   string `xml:"id,attr,omitempty"`
	Name string `xml:",chardata"`
}

// ShoppingCart is the order description block.
type ShoppingCart struct {
	Description string `xml:"Description,omitempty"`
}

// Addr is a billing or shipping address block.
type Addr struct {
	Mode    string  `xml:"mode,attr,omitempty"`
	Name    string  `xml:"Name,omitempty"`
	Street  string  `xml:"Street,omitempty"`
	Street2 *string `xml:"Street2,omitempty"`
	Zip     string  `xml:"Zip,omitempty"`
	City    string  `xml:"City,omitempty"`
	Country *Country `xml:"Country,omitempty"`
	Email   string  `xml:"Email,omitempty"`
}

// Country carries the ISO country code as an attribute.
type Country struct {
	Code string `xml:"code,attr"`
}

// ExpressCheckout carries the finish parameters of an Express-Checkout
// payment: the adjusted shipping cost, the adjusted total and the
// cancel/proceed token.
type ExpressCheckout struct {
	ShippingCosts string `xml:"ShippingCosts,omitempty"`
	Amount        string `xml:"Amount,omitempty"`
	Cancel        string `xml:"Cancel,omitempty"`
}

// URL is the callback URL block. Values already present are never
// overwritten by builder defaults.
type URL struct {
	Success      string `xml:"Success,omitempty"`
	Error        string `xml:"Error,omitempty"`
	Confirmation string `xml:"Confirmation,omitempty"`
}

// XML serializes the document with an XML declaration, in the compact form
// the gateway expects.
func (d *Document) XML() (string, error) {
	body, err := xml.Marshal(d)
	if err != nil {
		return "", err
	}
	return xml.Header[:len(xml.Header)-1] + string(body), nil
}

// FormatPrice renders an amount in cents as the decimal string the document
// schema expects, e.g. 1050 -> "10.50".
func FormatPrice(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
