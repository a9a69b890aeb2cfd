package db

import "time"

// TransactionEntity is the stored form of one payment transaction. Gateway
// fields stay text; Extra keeps status attributes with no column of their
// own.
type TransactionEntity struct {
	TID           string
	Secret        string
	Status        *string
	MPayTID       *string
	ApprCode      *string
	PType         *string
	Brand         *string
	Price         int64
	Currency      string
	Operation     *string
	Language      *string
	UserField     *string
	OrderDesc     *string
	Customer      *string
	CustomerEmail *string
	CustomerID    *string
	ProfileStatus *string
	FilterStatus  *string
	TStatus       *string

	ShippName    *string
	ShippStreet  *string
	ShippStreet2 *string
	ShippZip     *string
	ShippCity    *string
	ShippCountry *string

	ShippingConfirmed bool
	Extra             map[string]string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
