package gateway

import (
	"net/url"
	"sort"
	"strings"
)

// PaymentResponse is the gateway's answer to a payment initiation. Location
// is the redirect target for the customer when the gateway accepted the
// order.
type PaymentResponse struct {
	Status     string
	ReturnCode string
	Location   string
	ErrText    string
}

// Ok reports whether the gateway accepted the request.
func (r *PaymentResponse) Ok() bool {
	return r.Status == "OK"
}

// StatusResponse is the flat attribute mapping returned by a transaction
// status query, plus the fields derived during reconciliation.
// ShippingConfirmed is always meaningful: it defaults to true and is only
// cleared when the status payload carries an unconfirmed shipping block.
type StatusResponse struct {
	Status            string
	ReturnCode        string
	ShippingConfirmed bool

	params map[string]string
}

// NewStatusResponse builds a status result from raw gateway parameters.
func NewStatusResponse(params map[string]string) *StatusResponse {
	r := &StatusResponse{
		Status:            params["STATUS"],
		ReturnCode:        params["RETURNCODE"],
		ShippingConfirmed: true,
		params:            make(map[string]string, len(params)),
	}
	for k, v := range params {
		r.params[k] = v
	}
	return r
}

// GetParam returns a single status attribute, empty when absent.
func (r *StatusResponse) GetParam(name string) string {
	return r.params[name]
}

// SetParam injects or overrides a status attribute.
func (r *StatusResponse) SetParam(name, value string) {
	r.params[name] = value
}

// Params returns a copy of all status attributes.
func (r *StatusResponse) Params() map[string]string {
	out := make(map[string]string, len(r.params))
	for k, v := range r.params {
		out[k] = v
	}
	return out
}

// ParamNames returns the attribute names in stable order.
func (r *StatusResponse) ParamNames() []string {
	names := make([]string, 0, len(r.params))
	for k := range r.params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ManagementResponse is the gateway's answer to a manual clear, credit or
// reverse.
type ManagementResponse struct {
	Status     string
	ReturnCode string
	MPayTID    string
}

// PaymentMethod is one payment method activated for the merchant.
type PaymentMethod struct {
	PType string
	Brand string
}

// PaymentMethodsResponse lists the payment methods activated for the
// merchant account.
type PaymentMethodsResponse struct {
	Status     string
	ReturnCode string
	Methods    []PaymentMethod
}

// parseBody decodes the gateway's query-encoded response body.
func parseBody(body string) (map[string]string, error) {
	values, err := url.ParseQuery(strings.TrimSpace(body))
	if err != nil {
		return nil, err
	}
	params := make(map[string]string, len(values))
	for k := range values {
		params[k] = values.Get(k)
	}
	return params, nil
}
