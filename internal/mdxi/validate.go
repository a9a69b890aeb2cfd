package mdxi

import (
	"encoding/xml"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"payment-gateway/internal/payment"
)

// Validate checks a serialized order document against the structural rules
// of the gateway schema. Every violation is collected; on failure the full
// list is returned together with the offending document, never a partial
// view. Callers skip validation when an intermediary proxy performs it.
func Validate(raw string) error {
	var errs []string

	var doc Document
	if err := xml.Unmarshal([]byte(raw), &doc); err != nil {
		errs = append(errs, fmt.Sprintf("document is not well-formed: %v", err))
		return &payment.DocumentInvalidError{Errors: errs, Document: raw}
	}

	if doc.Tid == "" {
		errs = append(errs, "element 'Tid' is missing or empty")
	}
	if len(doc.Tid) > 32 {
		errs = append(errs, fmt.Sprintf("element 'Tid' exceeds 32 characters: '%s'", doc.Tid))
	}

	if doc.Price == "" {
		errs = append(errs, "element 'Price' is missing or empty")
	} else if price, err := decimal.NewFromString(doc.Price); err != nil {
		errs = append(errs, fmt.Sprintf("element 'Price' is not a decimal amount: '%s'", doc.Price))
	} else if price.IsNegative() || price.IsZero() {
		errs = append(errs, fmt.Sprintf("element 'Price' must be positive: '%s'", doc.Price))
	}

	if doc.Currency == "" {
		errs = append(errs, "element 'Currency' is missing or empty")
	} else if len(doc.Currency) != 3 {
		errs = append(errs, fmt.Sprintf("element 'Currency' must be a 3-letter ISO code: '%s'", doc.Currency))
	}

	if doc.URL != nil {
		checkURL(&errs, "Success", doc.URL.Success)
		checkURL(&errs, "Error", doc.URL.Error)
		checkURL(&errs, "Confirmation", doc.URL.Confirmation)
	}

	if ec := doc.ExpressCheckout; ec != nil {
		if ec.Cancel != "true" && ec.Cancel != "false" {
			errs = append(errs, fmt.Sprintf("element 'Cancel' must be 'true' or 'false': '%s'", ec.Cancel))
		}
		if ec.Amount == "" {
			errs = append(errs, "element 'Amount' is missing or empty")
		}
	}

	if len(errs) > 0 {
		return &payment.DocumentInvalidError{Errors: errs, Document: raw}
	}
	return nil
}

func checkURL(errs *[]string, name, value string) {
	if value == "" {
		return
	}
	u, err := url.Parse(value)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		*errs = append(*errs, fmt.Sprintf("element '%s' is not an absolute http(s) URL: '%s'", name, value))
	}
}
