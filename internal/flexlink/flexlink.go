// Package flexlink builds encrypted pay-page links for invoice payments.
// It is a sibling of the webservice channel: a fixed parameter set is
// encrypted into a checkout URL instead of being submitted as an order
// document.
package flexlink

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"payment-gateway/internal/config"
	"payment-gateway/internal/payment"
)

// Encrypter turns the assembled parameter string into the opaque token
// embedded in the pay link.
type Encrypter interface {
	Encrypt(params string) (string, error)
}

// Invoice is the parameter set of one pay link. Zero values fall back to
// the channel defaults where one exists.
type Invoice struct {
	InvoiceID   string
	Amount      decimal.Decimal
	Currency    string
	Language    string
	UserField   string
	Description string
	Mode        string

	Name    string
	Street  string
	Street2 string
	Zip     string
	City    string
	Country string
	Email   string

	SuccessURL      string
	ErrorURL        string
	ConfirmationURL string
}

// Link builds flexLINK checkout URLs for one merchant SPID.
type Link struct {
	spid   string
	system string
	enc    Encrypter
	logger *slog.Logger
	debug  bool
}

// New validates the flexLINK settings and returns a link builder.
func New(cfg config.FlexLink, enc Encrypter, logger *slog.Logger, debug bool) (*Link, error) {
	if cfg.SPID == "" {
		return nil, &payment.ConfigurationError{Setting: "flexlink.spid", Reason: "must not be empty"}
	}
	system := "www"
	if cfg.Test {
		system = "test"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Link{spid: cfg.SPID, system: system, enc: enc, logger: logger, debug: debug}, nil
}

// EncryptedParams assembles the fixed parameter set, applies the channel
// defaults and encrypts the result.
func (l *Link) EncryptedParams(inv Invoice) (string, error) {
	if inv.InvoiceID == "" {
		return "", &payment.InvalidArgumentError{Name: "invoiceId", Value: "", Reason: "must not be empty"}
	}
	if inv.Amount.IsZero() || inv.Amount.IsNegative() {
		return "", &payment.InvalidArgumentError{Name: "amount", Value: inv.Amount.String(), Reason: "not a valid amount"}
	}

	params := []struct{ name, value string }{
		{"IID", inv.InvoiceID},
		{"AMO", inv.Amount.StringFixed(2)},
		{"CUR", fallback(inv.Currency, "EUR")},
		{"LAN", fallback(inv.Language, "DE")},
		{"USR", inv.UserField},
		{"DES", fallback(inv.Description, "Rechnungsnummer:")},
		{"MOD", fallback(inv.Mode, "ReadWrite")},
		{"NAM", inv.Name},
		{"ST1", inv.Street},
		{"ST2", inv.Street2},
		{"ZIP", inv.Zip},
		{"CIT", inv.City},
		{"COU", fallback(inv.Country, "AT")},
		{"EML", inv.Email},
		{"SUC", inv.SuccessURL},
		{"ERR", inv.ErrorURL},
		{"CON", inv.ConfirmationURL},
	}

	pairs := make([]string, 0, len(params))
	for _, p := range params {
		if l.debug {
			l.logger.Debug("flexLINK parameter", "name", p.name, "value", p.value)
		}
		pairs = append(pairs, p.name+"="+p.value)
	}

	encrypted, err := l.enc.Encrypt(strings.Join(pairs, "&"))
	if err != nil {
		return "", err
	}
	if l.debug {
		l.logger.Debug("flexLINK encrypted parameters", "value", encrypted)
	}
	return encrypted, nil
}

// PayLink returns the full checkout URL for an encrypted parameter set.
func (l *Link) PayLink(encrypted string) string {
	return fmt.Sprintf("https://%s.mpay24.com/app/bin/checkout/%s/%s", l.system, l.spid, encrypted)
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
