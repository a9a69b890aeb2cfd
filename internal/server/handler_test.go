package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-gateway/internal/db"
	"payment-gateway/internal/gateway"
	"payment-gateway/internal/payment"
)

type fakeCheckout struct {
	params db.CheckoutParams
	resp   *gateway.PaymentResponse
	err    error
}

func (c *fakeCheckout) Pay(context.Context) (*gateway.PaymentResponse, error) {
	return c.resp, c.err
}

func (c *fakeCheckout) PayWithProfile(context.Context) (*gateway.PaymentResponse, error) {
	return c.resp, c.err
}

func (c *fakeCheckout) PayWithExpressCheckout(context.Context) (*gateway.PaymentResponse, error) {
	return c.resp, c.err
}

type fakeEngine struct {
	confirmErr  error
	confirmTID  string
	confirmArgs map[string]string

	statusResp *gateway.StatusResponse
	finishErr  error
	mgmtResp   *gateway.ManagementResponse
	mgmtErr    error
	methods    *gateway.PaymentMethodsResponse
}

func (e *fakeEngine) Confirm(_ context.Context, tid string, args map[string]string) error {
	e.confirmTID = tid
	e.confirmArgs = args
	return e.confirmErr
}

func (e *fakeEngine) TransactionStatus(context.Context, string) (*gateway.StatusResponse, error) {
	return e.statusResp, nil
}

func (e *fakeEngine) FinishExpressCheckoutPayment(_ context.Context, _, _, _, _ string) (*gateway.PaymentResponse, error) {
	if e.finishErr != nil {
		return nil, e.finishErr
	}
	return &gateway.PaymentResponse{Status: "OK", ReturnCode: "OK"}, nil
}

func (e *fakeEngine) ClearAmount(context.Context, string, string) (*gateway.ManagementResponse, error) {
	return e.mgmtResp, e.mgmtErr
}

func (e *fakeEngine) CreditAmount(context.Context, string, string) (*gateway.ManagementResponse, error) {
	return e.mgmtResp, e.mgmtErr
}

func (e *fakeEngine) CancelTransaction(context.Context, string) (*gateway.ManagementResponse, error) {
	return e.mgmtResp, e.mgmtErr
}

func (e *fakeEngine) PaymentMethods(context.Context) (*gateway.PaymentMethodsResponse, error) {
	return e.methods, nil
}

func newTestServer(engine *fakeEngine, checkout *fakeCheckout) *httptest.Server {
	start := func(params db.CheckoutParams) Checkout {
		checkout.params = params
		return checkout
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := http.NewServeMux()
	NewHandler(engine, start, logger).Register(mux)
	return httptest.NewServer(mux)
}

func TestConfirmation_AlwaysAnswersOK(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "Success"},
		{name: "Engine error", err: assert.AnError},
		{name: "Unknown transaction", err: &payment.TransactionNotFoundError{TID: "no-such-tid"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{confirmErr: tt.err}
			srv := newTestServer(engine, &fakeCheckout{})
			defer srv.Close()

			resp, err := http.Get(srv.URL + "/confirmation?tid=ORDER-1&token=s3cret&STATUS=BILLED")
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "OK", string(body))
			assert.Equal(t, "ORDER-1", engine.confirmTID)
			assert.Equal(t, "s3cret", engine.confirmArgs["token"])
			assert.Equal(t, "BILLED", engine.confirmArgs["STATUS"])
		})
	}
}

func TestPay(t *testing.T) {
	checkout := &fakeCheckout{resp: &gateway.PaymentResponse{
		Status:     "OK",
		ReturnCode: "REDIRECT",
		Location:   "https://test.mpay24.com/app/bin/checkout/4711",
	}}
	srv := newTestServer(&fakeEngine{}, checkout)
	defer srv.Close()

	body := `{"amount":"1050","currency":"EUR","customer":"Max Mustermann"}`
	resp, err := http.Post(srv.URL+"/payments", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1050", checkout.params.Price)
	assert.Equal(t, "EUR", checkout.params.Currency)
	assert.Equal(t, "Max Mustermann", checkout.params.Customer)

	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "OK", result["status"])
	assert.Equal(t, "https://test.mpay24.com/app/bin/checkout/4711", result["location"])
}

func TestPay_InvalidBody(t *testing.T) {
	srv := newTestServer(&fakeEngine{}, &fakeCheckout{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/payments", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPay_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "Invalid argument", err: &payment.InvalidArgumentError{Name: "amount"}, status: http.StatusBadRequest},
		{name: "Missing data", err: &payment.MissingTransactionDataError{Field: "PRICE"}, status: http.StatusBadRequest},
		{name: "Invalid document", err: &payment.DocumentInvalidError{Errors: []string{"bad"}}, status: http.StatusBadRequest},
		{name: "Not found", err: &payment.TransactionNotFoundError{TID: "x"}, status: http.StatusNotFound},
		{name: "Store miss", err: db.ErrNotFound, status: http.StatusNotFound},
		{name: "Unclassified", err: assert.AnError, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakeEngine{}, &fakeCheckout{err: tt.err})
			defer srv.Close()

			resp, err := http.Post(srv.URL+"/payments", "application/json", strings.NewReader(`{"amount":"1050"}`))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestFinishExpressCheckout(t *testing.T) {
	srv := newTestServer(&fakeEngine{}, &fakeCheckout{})
	defer srv.Close()

	body := `{"tid":"ORDER-1","shippingCosts":"250","amount":"1300","cancel":"false"}`
	resp, err := http.Post(srv.URL+"/payments/express-checkout/finish", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatus(t *testing.T) {
	engine := &fakeEngine{statusResp: gateway.NewStatusResponse(map[string]string{
		"STATUS":  "OK",
		"TSTATUS": "BILLED",
	})}
	srv := newTestServer(engine, &fakeCheckout{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/payments/ORDER-1/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Status            string            `json:"status"`
		ShippingConfirmed bool              `json:"shippingConfirmed"`
		Params            map[string]string `json:"params"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "OK", result.Status)
	assert.True(t, result.ShippingConfirmed)
	assert.Equal(t, "BILLED", result.Params["TSTATUS"])
}

func TestClear(t *testing.T) {
	engine := &fakeEngine{mgmtResp: &gateway.ManagementResponse{Status: "OK", ReturnCode: "OK", MPayTID: "12345"}}
	srv := newTestServer(engine, &fakeCheckout{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/payments/ORDER-1/clear", "application/json", strings.NewReader(`{"amount":"1050"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "12345", result["mpaytid"])
}

func TestCancel_NotAcknowledged(t *testing.T) {
	engine := &fakeEngine{mgmtErr: &payment.TransactionNotFoundError{TID: "ORDER-1"}}
	srv := newTestServer(engine, &fakeCheckout{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/payments/ORDER-1/cancel", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPaymentMethods(t *testing.T) {
	engine := &fakeEngine{methods: &gateway.PaymentMethodsResponse{
		Status:  "OK",
		Methods: []gateway.PaymentMethod{{PType: "CC", Brand: "VISA"}},
	}}
	srv := newTestServer(engine, &fakeCheckout{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/payment-methods")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Status  string              `json:"status"`
		Methods []map[string]string `json:"methods"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Len(t, result.Methods, 1)
	assert.Equal(t, "VISA", result.Methods[0]["brand"])
}
