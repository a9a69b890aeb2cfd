// Package gateway implements the client facade for the payment gateway's
// webservice channel.
package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/pkg/errors"

	"payment-gateway/internal/payment"
)

const (
	testEtpURL = "https://test.mpay24.com/app/bin/etpproxy"
	liveEtpURL = "https://www.mpay24.com/app/bin/etpproxy"

	defaultTimeoutMs = 10_000
)

// StatusQuery selects the identifier for a transaction status request.
// Exactly one of MPayTID and TID must be set per call.
type StatusQuery struct {
	MPayTID string
	TID     string
}

// Client is the request surface of the payment gateway. Request and
// Response expose the last raw wire traffic so callers can forward it to
// their logging collaborator in debug mode.
type Client interface {
	SelectPayment(ctx context.Context, mdxi string) (*PaymentResponse, error)
	ProfilePayment(ctx context.Context, order string) (*PaymentResponse, error)
	ExpressCheckoutPayment(ctx context.Context, order string) (*PaymentResponse, error)
	CallbackPaypal(ctx context.Context, order string) (*PaymentResponse, error)
	TransactionStatus(ctx context.Context, q StatusQuery) (*StatusResponse, error)
	ManualClear(ctx context.Context, mpayTID string, amount int64, currency string) (*ManagementResponse, error)
	ManualCredit(ctx context.Context, mpayTID string, amount int64, currency, customer string) (*ManagementResponse, error)
	ManualReverse(ctx context.Context, mpayTID string) (*ManagementResponse, error)
	ListPaymentMethods(ctx context.Context) (*PaymentMethodsResponse, error)

	EtpURL() string
	Request() string
	Response() string
	ProxyUsed() bool
}

// Config carries the merchant credentials and transport settings.
type Config struct {
	// MerchantID is the 5-digit account number: test accounts start with 9,
	// live accounts with 7.
	MerchantID   string
	SOAPPassword string
	Test         bool
	ProxyHost    string
	ProxyPort    string
	TimeoutMs    int
}

var merchantIDPattern = regexp.MustCompile(`^[79][0-9]{4}$`)

// HTTPClient talks to the gateway over HTTPS with query-encoded operation
// envelopes.
type HTTPClient struct {
	cfg    Config
	etpURL string
	client *http.Client

	mu           sync.Mutex
	lastRequest  string
	lastResponse string
}

// NewClient validates the merchant credentials and proxy settings and
// returns a ready client. Malformed settings are fatal here, before any
// operation is attempted.
func NewClient(cfg Config) (*HTTPClient, error) {
	if !merchantIDPattern.MatchString(cfg.MerchantID) {
		return nil, &payment.ConfigurationError{
			Setting: "merchant-id",
			Reason:  fmt.Sprintf("'%s' must be a 5-digit number starting with 7 or 9", cfg.MerchantID),
		}
	}
	if cfg.SOAPPassword == "" {
		return nil, &payment.ConfigurationError{Setting: "soap-password", Reason: "must not be empty"}
	}
	if (cfg.ProxyHost == "") != (cfg.ProxyPort == "") {
		return nil, &payment.ConfigurationError{Setting: "proxy", Reason: "proxy host and port must be set together"}
	}
	if cfg.ProxyPort != "" {
		if _, err := strconv.Atoi(cfg.ProxyPort); err != nil || len(cfg.ProxyPort) != 4 {
			return nil, &payment.ConfigurationError{
				Setting: "proxy-port",
				Reason:  fmt.Sprintf("'%s' must be a 4-digit number", cfg.ProxyPort),
			}
		}
	}

	timeout := cfg.TimeoutMs
	if timeout <= 0 {
		timeout = defaultTimeoutMs
	}

	httpClient := &http.Client{Timeout: time.Duration(timeout) * time.Millisecond}
	if cfg.ProxyHost != "" {
		proxyURL := &url.URL{Scheme: "http", Host: cfg.ProxyHost + ":" + cfg.ProxyPort}
		httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}

	etpURL := liveEtpURL
	if cfg.Test {
		etpURL = testEtpURL
	}

	return &HTTPClient{cfg: cfg, etpURL: etpURL, client: httpClient}, nil
}

// SelectPayment submits a plain MDXI document for a direct payment.
func (c *HTTPClient) SelectPayment(ctx context.Context, mdxi string) (*PaymentResponse, error) {
	return c.payment(ctx, "SELECTPAYMENT", url.Values{"MDXI": {mdxi}})
}

// ProfilePayment submits an order document for a stored-profile payment.
func (c *HTTPClient) ProfilePayment(ctx context.Context, order string) (*PaymentResponse, error) {
	return c.payment(ctx, "PROFILEPAYMENT", url.Values{"ORDER": {order}})
}

// ExpressCheckoutPayment submits an Express-Checkout initiation document.
func (c *HTTPClient) ExpressCheckoutPayment(ctx context.Context, order string) (*PaymentResponse, error) {
	return c.payment(ctx, "EXPRESSCHECKOUTPAYMENT", url.Values{"ORDER": {order}})
}

// CallbackPaypal submits an Express-Checkout finish document.
func (c *HTTPClient) CallbackPaypal(ctx context.Context, order string) (*PaymentResponse, error) {
	return c.payment(ctx, "CALLBACKPAYPAL", url.Values{"ORDER": {order}})
}

func (c *HTTPClient) payment(ctx context.Context, operation string, params url.Values) (*PaymentResponse, error) {
	body, err := c.call(ctx, operation, params)
	if err != nil {
		return nil, err
	}
	return &PaymentResponse{
		Status:     body["STATUS"],
		ReturnCode: body["RETURNCODE"],
		Location:   body["LOCATION"],
		ErrText:    body["ERRTEXT"],
	}, nil
}

// TransactionStatus queries the authoritative transaction state by exactly
// one of the two identifiers.
func (c *HTTPClient) TransactionStatus(ctx context.Context, q StatusQuery) (*StatusResponse, error) {
	if (q.MPayTID == "") == (q.TID == "") {
		return nil, &payment.InvalidArgumentError{
			Name:   "status query",
			Value:  fmt.Sprintf("MPAYTID='%s' TID='%s'", q.MPayTID, q.TID),
			Reason: "exactly one identifier must be supplied",
		}
	}

	params := url.Values{}
	if q.MPayTID != "" {
		params.Set("MPAYTID", q.MPayTID)
	} else {
		params.Set("TID", q.TID)
	}

	body, err := c.call(ctx, "TRANSACTIONSTATUS", params)
	if err != nil {
		return nil, err
	}
	return NewStatusResponse(body), nil
}

// ManualClear clears an amount of an authorized transaction.
func (c *HTTPClient) ManualClear(ctx context.Context, mpayTID string, amount int64, currency string) (*ManagementResponse, error) {
	return c.management(ctx, "MANUALCLEAR", url.Values{
		"MPAYTID":  {mpayTID},
		"AMOUNT":   {strconv.FormatInt(amount, 10)},
		"CURRENCY": {currency},
	})
}

// ManualCredit credits an amount of a billed transaction.
func (c *HTTPClient) ManualCredit(ctx context.Context, mpayTID string, amount int64, currency, customer string) (*ManagementResponse, error) {
	return c.management(ctx, "MANUALCREDIT", url.Values{
		"MPAYTID":  {mpayTID},
		"AMOUNT":   {strconv.FormatInt(amount, 10)},
		"CURRENCY": {currency},
		"CUSTOMER": {customer},
	})
}

// ManualReverse cancels an authorized transaction.
func (c *HTTPClient) ManualReverse(ctx context.Context, mpayTID string) (*ManagementResponse, error) {
	return c.management(ctx, "MANUALREVERSE", url.Values{"MPAYTID": {mpayTID}})
}

func (c *HTTPClient) management(ctx context.Context, operation string, params url.Values) (*ManagementResponse, error) {
	body, err := c.call(ctx, operation, params)
	if err != nil {
		return nil, err
	}
	return &ManagementResponse{
		Status:     body["STATUS"],
		ReturnCode: body["RETURNCODE"],
		MPayTID:    body["MPAYTID"],
	}, nil
}

// ListPaymentMethods lists the payment methods activated for the merchant.
func (c *HTTPClient) ListPaymentMethods(ctx context.Context) (*PaymentMethodsResponse, error) {
	body, err := c.call(ctx, "LISTPAYMENTMETHODS", url.Values{})
	if err != nil {
		return nil, err
	}

	resp := &PaymentMethodsResponse{
		Status:     body["STATUS"],
		ReturnCode: body["RETURNCODE"],
	}
	count, _ := strconv.Atoi(body["ALL"])
	for i := 1; i <= count; i++ {
		resp.Methods = append(resp.Methods, PaymentMethod{
			PType: body[fmt.Sprintf("P_TYPE_%d", i)],
			Brand: body[fmt.Sprintf("BRAND_%d", i)],
		})
	}
	return resp, nil
}

// call posts one operation envelope and keeps the raw request and response
// for later retrieval.
func (c *HTTPClient) call(ctx context.Context, operation string, params url.Values) (map[string]string, error) {
	form := url.Values{}
	for k, vs := range params {
		form[k] = vs
	}
	form.Set("OPERATION", operation)
	form.Set("MERCHANTID", c.cfg.MerchantID)
	form.Set("PASSWORD", c.cfg.SOAPPassword)

	encoded := form.Encode()

	c.mu.Lock()
	c.lastRequest = encoded
	c.lastResponse = ""
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.etpURL, strings.NewReader(encoded))
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s request", operation)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		counter(operation, "transport_error").Inc()
		return nil, errors.Wrapf(err, "calling %s", operation)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		counter(operation, "read_error").Inc()
		return nil, errors.Wrapf(err, "reading %s response", operation)
	}

	c.mu.Lock()
	c.lastResponse = string(raw)
	c.mu.Unlock()

	if resp.StatusCode != http.StatusOK {
		counter(operation, "http_error").Inc()
		return nil, errors.Errorf("%s answered with status %s", operation, resp.Status)
	}

	body, err := parseBody(string(raw))
	if err != nil {
		counter(operation, "parse_error").Inc()
		return nil, errors.Wrapf(err, "parsing %s response", operation)
	}

	counter(operation, "success").Inc()
	return body, nil
}

func counter(operation, result string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`gateway_request_total{operation=%q,result=%q}`, operation, result))
}

// EtpURL returns the webservice endpoint in use.
func (c *HTTPClient) EtpURL() string {
	return c.etpURL
}

var passwordPattern = regexp.MustCompile(`PASSWORD=[^&]*`)

// Request returns the last raw outbound request with the webservice
// password redacted.
func (c *HTTPClient) Request() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return passwordPattern.ReplaceAllString(c.lastRequest, "PASSWORD=<redacted>")
}

// Response returns the last raw inbound response body.
func (c *HTTPClient) Response() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResponse
}

// ProxyUsed reports whether requests run through an intermediary proxy. The
// proxy validates submitted documents itself, so callers skip local schema
// validation in that case.
func (c *HTTPClient) ProxyUsed() bool {
	return c.cfg.ProxyHost != ""
}
