// Package server exposes the merchant-facing payment API and the gateway's
// confirmation callback endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"payment-gateway/internal/db"
	"payment-gateway/internal/gateway"
	"payment-gateway/internal/logging"
	"payment-gateway/internal/payment"
	"payment-gateway/internal/transaction"

	"github.com/google/uuid"
)

// Checkout is one request-scoped payment attempt.
type Checkout interface {
	Pay(ctx context.Context) (*gateway.PaymentResponse, error)
	PayWithProfile(ctx context.Context) (*gateway.PaymentResponse, error)
	PayWithExpressCheckout(ctx context.Context) (*gateway.PaymentResponse, error)
}

// Engine is the transaction lifecycle engine consumed by the non-checkout
// endpoints.
type Engine interface {
	Confirm(ctx context.Context, tid string, args map[string]string) error
	TransactionStatus(ctx context.Context, tid string) (*gateway.StatusResponse, error)
	FinishExpressCheckoutPayment(ctx context.Context, tid, shippingCosts, amount, cancel string) (*gateway.PaymentResponse, error)
	ClearAmount(ctx context.Context, tid, amount string) (*gateway.ManagementResponse, error)
	CreditAmount(ctx context.Context, tid, amount string) (*gateway.ManagementResponse, error)
	CancelTransaction(ctx context.Context, tid string) (*gateway.ManagementResponse, error)
	PaymentMethods(ctx context.Context) (*gateway.PaymentMethodsResponse, error)
}

// StartCheckout builds a request-scoped checkout for the given order
// parameters.
type StartCheckout func(params db.CheckoutParams) Checkout

// Handler serves the payment endpoints.
type Handler struct {
	engine Engine
	start  StartCheckout
	logger *slog.Logger
}

func NewHandler(engine Engine, start StartCheckout, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, start: start, logger: logger}
}

// Register attaches all routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /confirmation", h.confirmation)
	mux.HandleFunc("POST /payments", h.pay)
	mux.HandleFunc("POST /payments/profile", h.payWithProfile)
	mux.HandleFunc("POST /payments/express-checkout", h.payWithExpressCheckout)
	mux.HandleFunc("POST /payments/express-checkout/finish", h.finishExpressCheckout)
	mux.HandleFunc("GET /payments/{tid}/status", h.status)
	mux.HandleFunc("POST /payments/{tid}/clear", h.clear)
	mux.HandleFunc("POST /payments/{tid}/credit", h.credit)
	mux.HandleFunc("POST /payments/{tid}/cancel", h.cancel)
	mux.HandleFunc("GET /payment-methods", h.paymentMethods)
}

// confirmation receives the gateway's asynchronous callback. The response
// is always 200 "OK": the endpoint must not reveal via its behavior whether
// a tid exists or a token matched.
func (h *Handler) confirmation(w http.ResponseWriter, r *http.Request) {
	ctx := logging.AppendCtx(r.Context(), slog.String("runId", uuid.New().String()))

	query := r.URL.Query()
	tid := query.Get("tid")
	args := make(map[string]string, len(query))
	for name := range query {
		args[name] = query.Get(name)
	}

	if err := h.engine.Confirm(ctx, tid, args); err != nil {
		h.logger.ErrorContext(ctx, "Error handling confirmation", "tid", tid, "error", err)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

type payRequest struct {
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Language      string `json:"language"`
	OrderDesc     string `json:"orderDesc"`
	Customer      string `json:"customer"`
	CustomerEmail string `json:"customerEmail"`
	CustomerID    string `json:"customerId"`
	UserField     string `json:"userField"`
}

func (p payRequest) checkoutParams() db.CheckoutParams {
	return db.CheckoutParams{
		Price:         p.Amount,
		Currency:      p.Currency,
		Language:      p.Language,
		OrderDesc:     p.OrderDesc,
		Customer:      p.Customer,
		CustomerEmail: p.CustomerEmail,
		CustomerID:    p.CustomerID,
		UserField:     p.UserField,
	}
}

type paymentResult struct {
	Status     string `json:"status"`
	ReturnCode string `json:"returnCode,omitempty"`
	Location   string `json:"location,omitempty"`
	ErrText    string `json:"errText,omitempty"`
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	h.startPayment(w, r, func(ctx context.Context, c Checkout) (*gateway.PaymentResponse, error) {
		return c.Pay(ctx)
	})
}

func (h *Handler) payWithProfile(w http.ResponseWriter, r *http.Request) {
	h.startPayment(w, r, func(ctx context.Context, c Checkout) (*gateway.PaymentResponse, error) {
		return c.PayWithProfile(ctx)
	})
}

func (h *Handler) payWithExpressCheckout(w http.ResponseWriter, r *http.Request) {
	h.startPayment(w, r, func(ctx context.Context, c Checkout) (*gateway.PaymentResponse, error) {
		return c.PayWithExpressCheckout(ctx)
	})
}

func (h *Handler) startPayment(w http.ResponseWriter, r *http.Request, run func(context.Context, Checkout) (*gateway.PaymentResponse, error)) {
	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := run(r.Context(), h.start(req.checkoutParams()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, paymentResult{
		Status:     res.Status,
		ReturnCode: res.ReturnCode,
		Location:   res.Location,
		ErrText:    res.ErrText,
	})
}

type finishRequest struct {
	TID           string `json:"tid"`
	ShippingCosts string `json:"shippingCosts"`
	Amount        string `json:"amount"`
	Cancel        string `json:"cancel"`
}

func (h *Handler) finishExpressCheckout(w http.ResponseWriter, r *http.Request) {
	var req finishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.engine.FinishExpressCheckoutPayment(r.Context(), req.TID, req.ShippingCosts, req.Amount, req.Cancel)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, paymentResult{
		Status:     res.Status,
		ReturnCode: res.ReturnCode,
		Location:   res.Location,
		ErrText:    res.ErrText,
	})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.TransactionStatus(r.Context(), r.PathValue("tid"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, map[string]any{
		"status":            res.Status,
		"shippingConfirmed": res.ShippingConfirmed,
		"params":            res.Params(),
	})
}

type amountRequest struct {
	Amount string `json:"amount"`
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	h.manage(w, r, h.engine.ClearAmount)
}

func (h *Handler) credit(w http.ResponseWriter, r *http.Request) {
	h.manage(w, r, h.engine.CreditAmount)
}

func (h *Handler) manage(w http.ResponseWriter, r *http.Request, run func(context.Context, string, string) (*gateway.ManagementResponse, error)) {
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := run(r.Context(), r.PathValue("tid"), req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, map[string]string{
		"status":     res.Status,
		"returnCode": res.ReturnCode,
		"mpaytid":    res.MPayTID,
	})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.CancelTransaction(r.Context(), r.PathValue("tid"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, map[string]string{
		"status":     res.Status,
		"returnCode": res.ReturnCode,
		"mpaytid":    res.MPayTID,
	})
}

func (h *Handler) paymentMethods(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.PaymentMethods(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	methods := make([]map[string]string, 0, len(res.Methods))
	for _, m := range res.Methods {
		methods = append(methods, map[string]string{"pType": m.PType, "brand": m.Brand})
	}
	h.writeJSON(w, map[string]any{"status": res.Status, "methods": methods})
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Error encoding response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	http.Error(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	var invalidArg *payment.InvalidArgumentError
	var missingData *payment.MissingTransactionDataError
	var badDoc *payment.DocumentInvalidError
	var notFound *payment.TransactionNotFoundError
	var unknownField *transaction.UnknownFieldError

	switch {
	case errors.As(err, &invalidArg), errors.As(err, &missingData),
		errors.As(err, &badDoc), errors.As(err, &unknownField):
		return http.StatusBadRequest
	case errors.As(err, &notFound), errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
