package shop

import (
	"context"
	"strconv"

	"payment-gateway/internal/gateway"
	"payment-gateway/internal/payment"
	"payment-gateway/internal/transaction"
)

// ClearAmount clears an amount of an authorized transaction. The amount is
// in cents; the transaction must already be known to the gateway.
func (s *Shop) ClearAmount(ctx context.Context, tid, amount string) (*gateway.ManagementResponse, error) {
	tx, mpayTID, err := s.loadAcknowledged(ctx, tid)
	if err != nil {
		return nil, err
	}
	cents, currency, err := checkClearing(tx, amount)
	if err != nil {
		return nil, err
	}

	res, err := s.gw.ManualClear(ctx, mpayTID, cents, currency)
	s.logRoundTrip("ClearAmount")
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CreditAmount credits an amount of a billed transaction back to the
// customer.
func (s *Shop) CreditAmount(ctx context.Context, tid, amount string) (*gateway.ManagementResponse, error) {
	tx, mpayTID, err := s.loadAcknowledged(ctx, tid)
	if err != nil {
		return nil, err
	}
	cents, currency, err := checkClearing(tx, amount)
	if err != nil {
		return nil, err
	}
	customer, _ := tx.Get(transaction.FieldCustomer)

	res, err := s.gw.ManualCredit(ctx, mpayTID, cents, currency, customer)
	s.logRoundTrip("CreditAmount")
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CancelTransaction reverses an authorized transaction. The reversal is
// irreversible on the gateway side; a failed call is surfaced as-is with no
// local compensation.
func (s *Shop) CancelTransaction(ctx context.Context, tid string) (*gateway.ManagementResponse, error) {
	_, mpayTID, err := s.loadAcknowledged(ctx, tid)
	if err != nil {
		return nil, err
	}

	res, err := s.gw.ManualReverse(ctx, mpayTID)
	s.logRoundTrip("CancelTransaction")
	if err != nil {
		return nil, err
	}
	return res, nil
}

// loadAcknowledged loads a transaction and requires a gateway identifier on
// record. Post-authorization operations are meaningless before the gateway
// has acknowledged the transaction at least once.
func (s *Shop) loadAcknowledged(ctx context.Context, tid string) (*transaction.Transaction, string, error) {
	tx, err := s.store.GetTransaction(ctx, tid)
	if err != nil {
		return nil, "", err
	}
	if err := checkTransaction(tx); err != nil {
		return nil, "", err
	}
	mpayTID := tx.MPayTID()
	if mpayTID == "" {
		return nil, "", &payment.TransactionNotFoundError{TID: tid}
	}
	return tx, mpayTID, nil
}

// checkClearing validates the amount and the stored currency for a clear or
// credit call.
func checkClearing(tx *transaction.Transaction, amount string) (int64, string, error) {
	cents, err := strconv.ParseInt(amount, 10, 64)
	if err != nil || cents <= 0 {
		return 0, "", &payment.InvalidArgumentError{Name: "amount", Value: amount, Reason: "not a valid amount"}
	}
	currency, _ := tx.Get(transaction.FieldCurrency)
	if len(currency) != 3 {
		return 0, "", &payment.InvalidArgumentError{Name: "currency", Value: currency, Reason: "must be a 3-letter ISO code"}
	}
	return cents, currency, nil
}
