// Package secret derives and retrieves the per-transaction token that
// authenticates confirmation callbacks.
package secret

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"payment-gateway/internal/payment"
	"payment-gateway/internal/transaction"
)

// TransactionGetter loads a stored transaction by its merchant identifier.
type TransactionGetter interface {
	GetTransaction(ctx context.Context, tid string) (*transaction.Transaction, error)
}

// Provider derives secrets as an HMAC over the transaction identity and
// creation time. The merchant key never crosses the wire, so the token is
// not guessable from public request parameters.
type Provider struct {
	key   []byte
	store TransactionGetter
}

// NewProvider creates a provider with the merchant's secret key.
func NewProvider(key string, store TransactionGetter) (*Provider, error) {
	if key == "" {
		return nil, &payment.ConfigurationError{Setting: "secret-key", Reason: "must not be empty"}
	}
	return &Provider{key: []byte(key), store: store}, nil
}

// Create derives the secret token for a transaction from its id, amount,
// currency and creation timestamp.
func (p *Provider) Create(tid, amount, currency string, createdAt time.Time) string {
	mac := hmac.New(sha256.New, p.key)
	fmt.Fprintf(mac, "%s|%s|%s|%d", tid, amount, currency, createdAt.Unix())
	return hex.EncodeToString(mac.Sum(nil))
}

// Get returns the stored secret for a transaction.
func (p *Provider) Get(ctx context.Context, tid string) (string, error) {
	tx, err := p.store.GetTransaction(ctx, tid)
	if err != nil {
		return "", err
	}
	return tx.Get(transaction.FieldSecret)
}

// Equal compares a caller-supplied token against the stored secret in
// constant time.
func Equal(token, stored string) bool {
	return hmac.Equal([]byte(token), []byte(stored))
}
