package transaction

import (
	"fmt"
	"strconv"
)

// Field is one of the recognized transaction properties. Access to anything
// outside this set fails with an UnknownFieldError.
type Field string

const (
	FieldSecret        Field = "SECRET"
	FieldTID           Field = "TID"
	FieldStatus        Field = "STATUS"
	FieldMPayTID       Field = "MPAYTID"
	FieldApprCode      Field = "APPR_CODE"
	FieldPType         Field = "P_TYPE"
	FieldBrand         Field = "BRAND"
	FieldPrice         Field = "PRICE"
	FieldCurrency      Field = "CURRENCY"
	FieldOperation     Field = "OPERATION"
	FieldLanguage      Field = "LANGUAGE"
	FieldUserField     Field = "USER_FIELD"
	FieldOrderDesc     Field = "ORDERDESC"
	FieldCustomer      Field = "CUSTOMER"
	FieldCustomerEmail Field = "CUSTOMER_EMAIL"
	FieldCustomerID    Field = "CUSTOMER_ID"
	FieldProfileStatus Field = "PROFILE_STATUS"
	FieldFilterStatus  Field = "FILTER_STATUS"
	FieldTStatus       Field = "TSTATUS"
)

// Fields lists every recognized transaction property.
var Fields = []Field{
	FieldSecret, FieldTID, FieldStatus, FieldMPayTID, FieldApprCode,
	FieldPType, FieldBrand, FieldPrice, FieldCurrency, FieldOperation,
	FieldLanguage, FieldUserField, FieldOrderDesc, FieldCustomer,
	FieldCustomerEmail, FieldCustomerID, FieldProfileStatus,
	FieldFilterStatus, FieldTStatus,
}

var allowed = func() map[Field]struct{} {
	m := make(map[Field]struct{}, len(Fields))
	for _, f := range Fields {
		m[f] = struct{}{}
	}
	return m
}()

// UnknownFieldError indicates access to a transaction property outside the
// fixed whitelist. It is a programmer error, not a data error.
type UnknownFieldError struct {
	Field Field
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("the transaction property %s is not defined", e.Field)
}

// Transaction is a restricted key/value record for one payment attempt.
// PRICE is the integer amount multiplied by 100; MPAYTID is empty until the
// gateway first acknowledges the transaction.
type Transaction struct {
	values map[Field]string
}

// New creates a transaction with the given merchant identifier.
func New(tid string) *Transaction {
	t := &Transaction{values: make(map[Field]string)}
	t.values[FieldTID] = tid
	return t
}

// Get returns the value of a recognized property, or the empty string when
// the property has not been set. Callers treat an absent value and a
// false-equivalent value identically.
func (t *Transaction) Get(f Field) (string, error) {
	if _, ok := allowed[f]; !ok {
		return "", &UnknownFieldError{Field: f}
	}
	return t.values[f], nil
}

// Set assigns a recognized property.
func (t *Transaction) Set(f Field, value string) error {
	if _, ok := allowed[f]; !ok {
		return &UnknownFieldError{Field: f}
	}
	t.values[f] = value
	return nil
}

// TID returns the merchant transaction identifier.
func (t *Transaction) TID() string {
	return t.values[FieldTID]
}

// MPayTID returns the gateway identifier, or the empty string when the
// gateway has not acknowledged the transaction yet.
func (t *Transaction) MPayTID() string {
	return t.values[FieldMPayTID]
}

// Price returns the amount in cents and whether it parses as an integer.
func (t *Transaction) Price() (int64, bool) {
	v, ok := t.values[FieldPrice]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Values returns a copy of every set property.
func (t *Transaction) Values() map[Field]string {
	out := make(map[Field]string, len(t.values))
	for f, v := range t.values {
		out[f] = v
	}
	return out
}
