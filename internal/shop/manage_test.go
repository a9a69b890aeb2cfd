package shop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-gateway/internal/payment"
	"payment-gateway/internal/transaction"
)

func acknowledged(t *testing.T, f *fixture) {
	t.Helper()
	f.addTransaction(t, "ORDER-1", map[transaction.Field]string{
		transaction.FieldPrice:    "1050",
		transaction.FieldCurrency: "EUR",
		transaction.FieldMPayTID:  "12345",
		transaction.FieldCustomer: "Max Mustermann",
	})
}

func TestClearAmount(t *testing.T) {
	f := newFixture(false)
	acknowledged(t, f)

	res, err := f.shop.ClearAmount(context.Background(), "ORDER-1", "1050")
	require.NoError(t, err)

	assert.Equal(t, "OK", res.Status)
	assert.Equal(t, []string{"ManualClear"}, f.gw.calls)
	assert.Equal(t, "12345", f.gw.lastMPayTID)
	assert.Equal(t, int64(1050), f.gw.lastAmount)
	assert.Equal(t, "EUR", f.gw.lastCurrency)
}

func TestCreditAmount(t *testing.T) {
	f := newFixture(false)
	acknowledged(t, f)

	res, err := f.shop.CreditAmount(context.Background(), "ORDER-1", "500")
	require.NoError(t, err)

	assert.Equal(t, "OK", res.Status)
	assert.Equal(t, []string{"ManualCredit"}, f.gw.calls)
	assert.Equal(t, int64(500), f.gw.lastAmount)
	assert.Equal(t, "Max Mustermann", f.gw.lastCustomer)
}

func TestCancelTransaction(t *testing.T) {
	f := newFixture(false)
	acknowledged(t, f)

	res, err := f.shop.CancelTransaction(context.Background(), "ORDER-1")
	require.NoError(t, err)

	assert.Equal(t, "OK", res.Status)
	assert.Equal(t, []string{"ManualReverse"}, f.gw.calls)
	assert.Equal(t, "12345", f.gw.lastMPayTID)
}

func TestClearAmount_InvalidArguments(t *testing.T) {
	tests := []struct {
		name     string
		currency string
		amount   string
		argument string
	}{
		{name: "Amount not numeric", currency: "EUR", amount: "ten", argument: "amount"},
		{name: "Amount zero", currency: "EUR", amount: "0", argument: "amount"},
		{name: "Amount negative", currency: "EUR", amount: "-500", argument: "amount"},
		{name: "Currency too long", currency: "EURO", amount: "1050", argument: "currency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(false)
			f.addTransaction(t, "ORDER-1", map[transaction.Field]string{
				transaction.FieldPrice:    "1050",
				transaction.FieldCurrency: tt.currency,
				transaction.FieldMPayTID:  "12345",
			})

			_, err := f.shop.ClearAmount(context.Background(), "ORDER-1", tt.amount)
			var invalid *payment.InvalidArgumentError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.argument, invalid.Name)
			assert.Empty(t, f.gw.calls)
		})
	}
}

func TestManagement_RequiresAcknowledged(t *testing.T) {
	f := newFixture(false)
	f.addTransaction(t, "ORDER-1", map[transaction.Field]string{
		transaction.FieldPrice:    "1050",
		transaction.FieldCurrency: "EUR",
	})

	var notFound *payment.TransactionNotFoundError

	_, err := f.shop.ClearAmount(context.Background(), "ORDER-1", "1050")
	require.ErrorAs(t, err, &notFound)

	_, err = f.shop.CreditAmount(context.Background(), "ORDER-1", "1050")
	require.ErrorAs(t, err, &notFound)

	_, err = f.shop.CancelTransaction(context.Background(), "ORDER-1")
	require.ErrorAs(t, err, &notFound)

	assert.Empty(t, f.gw.calls)
}
