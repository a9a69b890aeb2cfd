package payment

import (
	"fmt"
	"strings"
)

// ConfigurationError indicates malformed merchant credentials or proxy
// settings. It is fatal at construction time.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", e.Setting, e.Reason)
}

// MissingTransactionDataError indicates a transaction without the mandatory
// TID or PRICE before a gateway operation.
type MissingTransactionDataError struct {
	Field string
}

func (e *MissingTransactionDataError) Error() string {
	return fmt.Sprintf("transaction must contain %s", e.Field)
}

// InvalidArgumentError indicates a malformed amount, currency or cancel flag.
type InvalidArgumentError struct {
	Name   string
	Value  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s '%s': %s", e.Name, e.Value, e.Reason)
}

// DocumentInvalidError carries every structural error collected while
// validating an order document, together with the offending document.
type DocumentInvalidError struct {
	Errors   []string
	Document string
}

func (e *DocumentInvalidError) Error() string {
	return fmt.Sprintf("order document is not valid: %s\n%s", strings.Join(e.Errors, "; "), e.Document)
}

// TransactionNotFoundError indicates that no gateway identifier is on record
// for a transaction, so a post-authorization operation cannot be routed.
type TransactionNotFoundError struct {
	TID string
}

func (e *TransactionNotFoundError) Error() string {
	return fmt.Sprintf("transaction '%s' is not known to the gateway", e.TID)
}
