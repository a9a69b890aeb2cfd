package mdxi

import (
	"strconv"

	"payment-gateway/internal/payment"
	"payment-gateway/internal/transaction"
)

// Defaults are the externally configured callback URLs injected into a
// document when the concrete document does not already specify them.
type Defaults struct {
	SuccessURL      string
	ErrorURL        string
	ConfirmationURL string
}

// Builder converts transactions into gateway order documents. All four
// document variants share the same construction rules.
type Builder struct {
	defaults Defaults
}

// NewBuilder creates a builder with the given default callback URLs.
func NewBuilder(defaults Defaults) *Builder {
	return &Builder{defaults: defaults}
}

// Payment builds the plain MDXI document for a direct payment.
func (b *Builder) Payment(tx *transaction.Transaction) (*Document, error) {
	doc, err := b.base(tx)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ProfileOrder builds the order document for a stored-profile payment.
func (b *Builder) ProfileOrder(tx *transaction.Transaction) (*Document, error) {
	doc, err := b.base(tx)
	if err != nil {
		return nil, err
	}
	doc.UseProfile = true
	return doc, nil
}

// ExpressCheckoutOrder builds the Express-Checkout initiation document.
func (b *Builder) ExpressCheckoutOrder(tx *transaction.Transaction) (*Document, error) {
	doc, err := b.base(tx)
	if err != nil {
		return nil, err
	}
	doc.PaymentType = "PAYPAL"
	return doc, nil
}

// FinishExpressCheckoutOrder builds the Express-Checkout finish document
// carrying the adjusted shipping cost, the adjusted total and the
// cancel/proceed token. Both amounts are in cents; cancel accepts exactly
// "true" or "false".
func (b *Builder) FinishExpressCheckoutOrder(tx *transaction.Transaction, shippingCosts, amount, cancel string) (*Document, error) {
	if cancel != "true" && cancel != "false" {
		return nil, &payment.InvalidArgumentError{
			Name:   "cancel",
			Value:  cancel,
			Reason: "the allowed values are 'true' or 'false'",
		}
	}
	shippingCents, err := strconv.ParseInt(shippingCosts, 10, 64)
	if err != nil || shippingCents < 0 {
		return nil, &payment.InvalidArgumentError{Name: "shippingCosts", Value: shippingCosts, Reason: "not a valid amount"}
	}
	amountCents, err := strconv.ParseInt(amount, 10, 64)
	if err != nil || amountCents <= 0 {
		return nil, &payment.InvalidArgumentError{Name: "amount", Value: amount, Reason: "not a valid amount"}
	}

	doc, berr := b.base(tx)
	if berr != nil {
		return nil, berr
	}
	doc.PaymentType = "PAYPAL"
	doc.Price = FormatPrice(amountCents)
	doc.ExpressCheckout = &ExpressCheckout{
		ShippingCosts: FormatPrice(shippingCents),
		Amount:        FormatPrice(amountCents),
		Cancel:        cancel,
	}
	return doc, nil
}

// base builds the parts common to every variant: identity, price, currency,
// buyer blocks and the callback URLs.
func (b *Builder) base(tx *transaction.Transaction) (*Document, error) {
	if tx == nil || tx.TID() == "" {
		return nil, &payment.MissingTransactionDataError{Field: "TID"}
	}
	price, ok := tx.Price()
	if !ok {
		return nil, &payment.MissingTransactionDataError{Field: "PRICE"}
	}

	doc := &Document{
		Tid:   tx.TID(),
		Price: FormatPrice(price),
	}

	if currency, _ := tx.Get(transaction.FieldCurrency); currency != "" {
		doc.Currency = currency
	} else {
		doc.Currency = "EUR"
	}

	if desc, _ := tx.Get(transaction.FieldOrderDesc); desc != "" {
		doc.ShoppingCart = &ShoppingCart{Description: desc}
	}

	customer, _ := tx.Get(transaction.FieldCustomer)
	customerID, _ := tx.Get(transaction.FieldCustomerID)
	if customer != "" || customerID != "" {
		doc.Customer = &Customer{ID: customerID, Name: customer}
	}

	b.ApplyURLDefaults(doc)

	return doc, nil
}

// ApplyURLDefaults fills the callback URLs from configuration. An
// explicitly set value always wins over the default.
func (b *Builder) ApplyURLDefaults(doc *Document) {
	if doc.URL == nil {
		doc.URL = &URL{}
	}
	if doc.URL.Success == "" {
		doc.URL.Success = b.defaults.SuccessURL
	}
	if doc.URL.Error == "" {
		doc.URL.Error = b.defaults.ErrorURL
	}
	if doc.URL.Confirmation == "" {
		doc.URL.Confirmation = b.defaults.ConfirmationURL
	}
}
