package shop

import (
	"context"

	"payment-gateway/internal/mdxi"
	"payment-gateway/internal/transaction"
)

// BuilderFactory is the default DocumentFactory: it loads transactions from
// the store and delegates to the order document builder.
type BuilderFactory struct {
	builder *mdxi.Builder
	store   Store
}

// NewBuilderFactory creates a factory over the given builder and store.
func NewBuilderFactory(builder *mdxi.Builder, store Store) *BuilderFactory {
	return &BuilderFactory{builder: builder, store: store}
}

// CreateMDXI builds the plain payment document for a transaction.
func (f *BuilderFactory) CreateMDXI(_ context.Context, tx *transaction.Transaction) (*mdxi.Document, error) {
	return f.builder.Payment(tx)
}

// CreateProfileOrder builds the stored-profile order document.
func (f *BuilderFactory) CreateProfileOrder(ctx context.Context, tid string) (*mdxi.Document, error) {
	tx, err := f.store.GetTransaction(ctx, tid)
	if err != nil {
		return nil, err
	}
	return f.builder.ProfileOrder(tx)
}

// CreateExpressCheckoutOrder builds the Express-Checkout initiation
// document.
func (f *BuilderFactory) CreateExpressCheckoutOrder(ctx context.Context, tid string) (*mdxi.Document, error) {
	tx, err := f.store.GetTransaction(ctx, tid)
	if err != nil {
		return nil, err
	}
	return f.builder.ExpressCheckoutOrder(tx)
}

// CreateFinishExpressCheckoutOrder builds the Express-Checkout finish
// document with the adjusted amounts.
func (f *BuilderFactory) CreateFinishExpressCheckoutOrder(ctx context.Context, tid, shippingCosts, amount, cancel string) (*mdxi.Document, error) {
	tx, err := f.store.GetTransaction(ctx, tid)
	if err != nil {
		return nil, err
	}
	return f.builder.FinishExpressCheckoutOrder(tx, shippingCosts, amount, cancel)
}
