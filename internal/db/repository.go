package db

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"payment-gateway/internal/payment"
	"payment-gateway/internal/transaction"
)

// ErrNotFound is returned when no transaction exists for a tid.
var ErrNotFound = errors.New("transaction not found")

// ErrNoCheckout is returned when CreateTransaction is called on the bare
// repository; payment initiation goes through Checkout.
var ErrNoCheckout = errors.New("no checkout parameters bound")

const allColumns = `tid, secret, status, mpaytid, appr_code, p_type, brand, price, currency,
	operation, language, user_field, orderdesc, customer, customer_email, customer_id,
	profile_status, filter_status, tstatus,
	shipp_name, shipp_street, shipp_street2, shipp_zip, shipp_city, shipp_country,
	shipping_confirmed, extra, created_at, updated_at`

// TransactionRepository stores payment transactions in Postgres. Updates
// for one tid run under a row lock, so concurrent confirmations are
// serialized and replays are idempotent.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// CreateTransaction on the bare repository always fails: creation needs
// checkout parameters, see Checkout.
func (r *TransactionRepository) CreateTransaction(ctx context.Context) (*transaction.Transaction, error) {
	return nil, ErrNoCheckout
}

// GetTransaction loads a transaction by its merchant identifier.
func (r *TransactionRepository) GetTransaction(ctx context.Context, tid string) (*transaction.Transaction, error) {
	entity, err := r.selectByTID(ctx, r.pool, tid, false)
	if err != nil {
		return nil, err
	}
	return toTransaction(entity), nil
}

// UpdateTransaction applies a confirmation's normalized field set. The row
// is locked for the duration of the write; applying the same field set
// twice leaves the row unchanged.
func (r *TransactionRepository) UpdateTransaction(ctx context.Context, tid string, args map[string]string, shippingConfirmed bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer tx.Rollback(ctx)

	entity, err := r.selectByTID(ctx, tx, tid, true)
	if err != nil {
		return err
	}

	applyArgs(entity, args)
	entity.ShippingConfirmed = shippingConfirmed
	entity.UpdatedAt = time.Now().UTC()

	query := `UPDATE payment_transaction SET
		status = $2, mpaytid = $3, appr_code = $4, p_type = $5, brand = $6, price = $7,
		currency = $8, operation = $9, language = $10, user_field = $11, orderdesc = $12,
		customer = $13, customer_email = $14, customer_id = $15, profile_status = $16,
		filter_status = $17, tstatus = $18,
		shipp_name = $19, shipp_street = $20, shipp_street2 = $21, shipp_zip = $22,
		shipp_city = $23, shipp_country = $24,
		shipping_confirmed = $25, extra = $26, updated_at = $27
		WHERE tid = $1`
	_, err = tx.Exec(ctx, query,
		entity.TID, entity.Status, entity.MPayTID, entity.ApprCode, entity.PType,
		entity.Brand, entity.Price, entity.Currency, entity.Operation, entity.Language,
		entity.UserField, entity.OrderDesc, entity.Customer, entity.CustomerEmail,
		entity.CustomerID, entity.ProfileStatus, entity.FilterStatus, entity.TStatus,
		entity.ShippName, entity.ShippStreet, entity.ShippStreet2, entity.ShippZip,
		entity.ShippCity, entity.ShippCountry,
		entity.ShippingConfirmed, entity.Extra, entity.UpdatedAt)
	if err != nil {
		return errors.Wrapf(err, "updating transaction %s", tid)
	}

	return errors.Wrap(tx.Commit(ctx), "committing transaction")
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *TransactionRepository) selectByTID(ctx context.Context, q querier, tid string, forUpdate bool) (*TransactionEntity, error) {
	query := `SELECT ` + allColumns + ` FROM payment_transaction WHERE tid = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var e TransactionEntity
	err := q.QueryRow(ctx, query, tid).Scan(
		&e.TID, &e.Secret, &e.Status, &e.MPayTID, &e.ApprCode, &e.PType, &e.Brand,
		&e.Price, &e.Currency, &e.Operation, &e.Language, &e.UserField, &e.OrderDesc,
		&e.Customer, &e.CustomerEmail, &e.CustomerID, &e.ProfileStatus, &e.FilterStatus,
		&e.TStatus, &e.ShippName, &e.ShippStreet, &e.ShippStreet2, &e.ShippZip,
		&e.ShippCity, &e.ShippCountry, &e.ShippingConfirmed, &e.Extra, &e.CreatedAt,
		&e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "tid %s", tid)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "loading transaction %s", tid)
	}
	return &e, nil
}

// CheckoutParams are the merchant-side order values bound to one checkout
// attempt. Price is the amount in cents.
type CheckoutParams struct {
	Price         string
	Currency      string
	Language      string
	OrderDesc     string
	Customer      string
	CustomerEmail string
	CustomerID    string
	UserField     string
}

// SecretCreator derives a transaction's secret token at creation time.
type SecretCreator interface {
	Create(tid, amount, currency string, createdAt time.Time) string
}

// CheckoutStore binds checkout parameters to the repository, yielding a
// request-scoped store whose CreateTransaction persists a fresh
// transaction for the current checkout attempt.
type CheckoutStore struct {
	*TransactionRepository
	params  CheckoutParams
	secrets SecretCreator
}

// Checkout binds order parameters for one checkout attempt.
func (r *TransactionRepository) Checkout(params CheckoutParams, secrets SecretCreator) *CheckoutStore {
	return &CheckoutStore{TransactionRepository: r, params: params, secrets: secrets}
}

// CreateTransaction persists and returns a new transaction with a
// generated 32-character identifier and a freshly derived secret.
func (c *CheckoutStore) CreateTransaction(ctx context.Context) (*transaction.Transaction, error) {
	price, err := strconv.ParseInt(c.params.Price, 10, 64)
	if err != nil || price <= 0 {
		return nil, &payment.InvalidArgumentError{Name: "amount", Value: c.params.Price, Reason: "not a valid amount"}
	}
	currency := c.params.Currency
	if currency == "" {
		currency = "EUR"
	}
	if len(currency) != 3 {
		return nil, &payment.InvalidArgumentError{Name: "currency", Value: currency, Reason: "must be a 3-letter ISO code"}
	}

	tid := strings.ReplaceAll(uuid.New().String(), "-", "")
	now := time.Now().UTC()

	entity := &TransactionEntity{
		TID:               tid,
		Secret:            c.secrets.Create(tid, c.params.Price, currency, now),
		Price:             price,
		Currency:          currency,
		Language:          optional(c.params.Language),
		UserField:         optional(c.params.UserField),
		OrderDesc:         optional(c.params.OrderDesc),
		Customer:          optional(c.params.Customer),
		CustomerEmail:     optional(c.params.CustomerEmail),
		CustomerID:        optional(c.params.CustomerID),
		ShippingConfirmed: true,
		Extra:             map[string]string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	query := `INSERT INTO payment_transaction
		(tid, secret, price, currency, language, user_field, orderdesc, customer,
		 customer_email, customer_id, shipping_confirmed, extra, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err = c.pool.Exec(ctx, query,
		entity.TID, entity.Secret, entity.Price, entity.Currency, entity.Language,
		entity.UserField, entity.OrderDesc, entity.Customer, entity.CustomerEmail,
		entity.CustomerID, entity.ShippingConfirmed, entity.Extra, entity.CreatedAt,
		entity.UpdatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "creating transaction")
	}

	return toTransaction(entity), nil
}

// fieldColumns maps gateway parameter names to entity fields.
func applyArgs(e *TransactionEntity, args map[string]string) {
	for name, value := range args {
		v := value
		switch name {
		case "STATUS":
			e.Status = &v
		case "MPAYTID":
			e.MPayTID = &v
		case "APPR_CODE":
			e.ApprCode = &v
		case "P_TYPE":
			e.PType = &v
		case "BRAND":
			e.Brand = &v
		case "PRICE":
			if cents, err := strconv.ParseInt(v, 10, 64); err == nil {
				e.Price = cents
			} else {
				e.Extra[name] = v
			}
		case "CURRENCY":
			e.Currency = v
		case "OPERATION":
			e.Operation = &v
		case "LANGUAGE":
			e.Language = &v
		case "USER_FIELD":
			e.UserField = &v
		case "ORDERDESC":
			e.OrderDesc = &v
		case "CUSTOMER":
			e.Customer = &v
		case "CUSTOMER_EMAIL":
			e.CustomerEmail = &v
		case "CUSTOMER_ID":
			e.CustomerID = &v
		case "PROFILE_STATUS":
			e.ProfileStatus = &v
		case "FILTER_STATUS":
			e.FilterStatus = &v
		case "TSTATUS":
			e.TStatus = &v
		case "SHIPP_NAME":
			e.ShippName = &v
		case "SHIPP_STREET":
			e.ShippStreet = &v
		case "SHIPP_STREET2":
			e.ShippStreet2 = &v
		case "SHIPP_ZIP":
			e.ShippZip = &v
		case "SHIPP_CITY":
			e.ShippCity = &v
		case "SHIPP_COUNTRY":
			e.ShippCountry = &v
		default:
			if e.Extra == nil {
				e.Extra = map[string]string{}
			}
			e.Extra[name] = v
		}
	}
}

func toTransaction(e *TransactionEntity) *transaction.Transaction {
	tx := transaction.New(e.TID)
	tx.Set(transaction.FieldSecret, e.Secret)
	tx.Set(transaction.FieldPrice, strconv.FormatInt(e.Price, 10))
	tx.Set(transaction.FieldCurrency, e.Currency)

	set := func(f transaction.Field, v *string) {
		if v != nil {
			tx.Set(f, *v)
		}
	}
	set(transaction.FieldStatus, e.Status)
	set(transaction.FieldMPayTID, e.MPayTID)
	set(transaction.FieldApprCode, e.ApprCode)
	set(transaction.FieldPType, e.PType)
	set(transaction.FieldBrand, e.Brand)
	set(transaction.FieldOperation, e.Operation)
	set(transaction.FieldLanguage, e.Language)
	set(transaction.FieldUserField, e.UserField)
	set(transaction.FieldOrderDesc, e.OrderDesc)
	set(transaction.FieldCustomer, e.Customer)
	set(transaction.FieldCustomerEmail, e.CustomerEmail)
	set(transaction.FieldCustomerID, e.CustomerID)
	set(transaction.FieldProfileStatus, e.ProfileStatus)
	set(transaction.FieldFilterStatus, e.FilterStatus)
	set(transaction.FieldTStatus, e.TStatus)
	return tx
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
