// Package shop is the transaction lifecycle engine: it builds and submits
// order documents, reconciles gateway status and applies confirmation
// callbacks to the merchant's transaction store.
package shop

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"payment-gateway/internal/event"
	"payment-gateway/internal/gateway"
	"payment-gateway/internal/mdxi"
	"payment-gateway/internal/payment"
	"payment-gateway/internal/transaction"
)

// Store is the merchant-side transaction persistence collaborator. It must
// serialize concurrent updates for the same tid; the engine itself keeps no
// state across invocations.
type Store interface {
	CreateTransaction(ctx context.Context) (*transaction.Transaction, error)
	GetTransaction(ctx context.Context, tid string) (*transaction.Transaction, error)
	UpdateTransaction(ctx context.Context, tid string, args map[string]string, shippingConfirmed bool) error
}

// DocumentFactory produces the order documents for the four payment
// variants.
type DocumentFactory interface {
	CreateMDXI(ctx context.Context, tx *transaction.Transaction) (*mdxi.Document, error)
	CreateProfileOrder(ctx context.Context, tid string) (*mdxi.Document, error)
	CreateExpressCheckoutOrder(ctx context.Context, tid string) (*mdxi.Document, error)
	CreateFinishExpressCheckoutOrder(ctx context.Context, tid, shippingCosts, amount, cancel string) (*mdxi.Document, error)
}

// SecretProvider retrieves the stored secret token of a transaction.
type SecretProvider interface {
	Get(ctx context.Context, tid string) (string, error)
}

// WriteLogger receives the raw request/response traffic in debug mode. It
// is a best-effort sink and must never fail the calling operation.
type WriteLogger interface {
	WriteLog(operation, info string)
}

// Publisher emits normalized status-change events after a confirmed update.
type Publisher interface {
	PublishStatusChange(ctx context.Context, change event.StatusChange) error
}

// Shop wires the engine's collaborators. Every method handles one
// request-scoped unit of work.
type Shop struct {
	gw      gateway.Client
	store   Store
	docs    DocumentFactory
	secrets SecretProvider
	log     WriteLogger
	events  Publisher
	logger  *slog.Logger
	debug   bool
}

// New creates the engine. events may be nil when no event stream is
// configured.
func New(gw gateway.Client, store Store, docs DocumentFactory, secrets SecretProvider, log WriteLogger, events Publisher, logger *slog.Logger, debug bool) *Shop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Shop{
		gw:      gw,
		store:   store,
		docs:    docs,
		secrets: secrets,
		log:     log,
		events:  events,
		logger:  logger,
		debug:   debug,
	}
}

// Pay creates a transaction, builds and validates the MDXI document and
// submits it. The response carries the redirect target for the customer.
func (s *Shop) Pay(ctx context.Context) (*gateway.PaymentResponse, error) {
	tx, err := s.store.CreateTransaction(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkTransaction(tx); err != nil {
		return nil, err
	}

	doc, err := s.docs.CreateMDXI(ctx, tx)
	if err != nil {
		return nil, err
	}
	raw, err := doc.XML()
	if err != nil {
		return nil, err
	}

	// The intermediary proxy validates documents itself.
	if !s.gw.ProxyUsed() {
		if err := mdxi.Validate(raw); err != nil {
			return nil, err
		}
	}

	res, err := s.gw.SelectPayment(ctx, raw)
	s.logRoundTrip("Pay")
	if err != nil {
		return nil, err
	}
	return res, nil
}

// PayWithProfile starts a payment against a stored customer profile.
func (s *Shop) PayWithProfile(ctx context.Context) (*gateway.PaymentResponse, error) {
	tx, err := s.store.CreateTransaction(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkTransaction(tx); err != nil {
		return nil, err
	}

	doc, err := s.docs.CreateProfileOrder(ctx, tx.TID())
	if err != nil {
		return nil, err
	}
	raw, err := doc.XML()
	if err != nil {
		return nil, err
	}

	res, err := s.gw.ProfilePayment(ctx, raw)
	s.logRoundTrip("PayWithProfile")
	if err != nil {
		return nil, err
	}
	return res, nil
}

// PayWithExpressCheckout starts a PayPal Express-Checkout payment.
func (s *Shop) PayWithExpressCheckout(ctx context.Context) (*gateway.PaymentResponse, error) {
	tx, err := s.store.CreateTransaction(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkTransaction(tx); err != nil {
		return nil, err
	}

	doc, err := s.docs.CreateExpressCheckoutOrder(ctx, tx.TID())
	if err != nil {
		return nil, err
	}
	raw, err := doc.XML()
	if err != nil {
		return nil, err
	}

	res, err := s.gw.ExpressCheckoutPayment(ctx, raw)
	s.logRoundTrip("PayWithExpressCheckout")
	if err != nil {
		return nil, err
	}
	return res, nil
}

// FinishExpressCheckoutPayment reserves, bills or cancels a payment started
// with Express Checkout. shippingCosts and amount are the adjusted values
// in cents; cancel accepts exactly "true" or "false". All argument checks
// run before any network call.
func (s *Shop) FinishExpressCheckoutPayment(ctx context.Context, tid, shippingCosts, amount, cancel string) (*gateway.PaymentResponse, error) {
	if cancel != "true" && cancel != "false" {
		return nil, &payment.InvalidArgumentError{
			Name:   "cancel",
			Value:  cancel,
			Reason: "the allowed values are 'true' or 'false'",
		}
	}

	tx, err := s.store.GetTransaction(ctx, tid)
	if err != nil {
		return nil, err
	}
	if err := checkTransaction(tx); err != nil {
		return nil, err
	}
	if tx.MPayTID() == "" {
		return nil, &payment.TransactionNotFoundError{TID: tid}
	}
	if err := checkAmount("amount", amount); err != nil {
		return nil, err
	}
	if err := checkAmount("shippingCosts", shippingCosts); err != nil {
		return nil, err
	}

	doc, err := s.docs.CreateFinishExpressCheckoutOrder(ctx, tid, shippingCosts, amount, cancel)
	if err != nil {
		return nil, err
	}
	raw, err := doc.XML()
	if err != nil {
		return nil, err
	}

	res, err := s.gw.CallbackPaypal(ctx, raw)
	s.logRoundTrip("FinishExpressCheckoutResult")
	if err != nil {
		return nil, err
	}
	return res, nil
}

// PaymentMethods lists the payment methods activated for the merchant.
func (s *Shop) PaymentMethods(ctx context.Context) (*gateway.PaymentMethodsResponse, error) {
	res, err := s.gw.ListPaymentMethods(ctx)
	s.logRoundTrip("GetPaymentMethods")
	if err != nil {
		return nil, err
	}
	return res, nil
}

// checkTransaction enforces the mandatory preconditions for any gateway
// operation: a TID of at most 32 characters and an integer PRICE.
func checkTransaction(tx *transaction.Transaction) error {
	if tx == nil || tx.TID() == "" {
		return &payment.MissingTransactionDataError{Field: "TID"}
	}
	if len(tx.TID()) > 32 {
		return &payment.InvalidArgumentError{Name: "TID", Value: tx.TID(), Reason: "must not exceed 32 characters"}
	}
	if _, ok := tx.Price(); !ok {
		return &payment.MissingTransactionDataError{Field: "PRICE"}
	}
	return nil
}

// checkAmount requires a positive integer amount in cents.
func checkAmount(name, value string) error {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return &payment.InvalidArgumentError{Name: name, Value: value, Reason: "not a valid amount"}
	}
	return nil
}

// logRoundTrip forwards the last raw request and response to the logging
// collaborator, request first, with embedded tags broken onto separate
// lines. Logging is a side effect and never influences the result.
func (s *Shop) logRoundTrip(operation string) {
	if !s.debug || s.log == nil {
		return
	}
	s.log.WriteLog(operation, "REQUEST to "+s.gw.EtpURL()+" - "+breakTags(s.gw.Request())+"\n")
	s.log.WriteLog(operation, "RESPONSE - "+breakTags(s.gw.Response())+"\n")
}

func breakTags(raw string) string {
	return strings.ReplaceAll(raw, "><", ">\n<")
}
