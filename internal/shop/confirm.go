package shop

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"payment-gateway/internal/event"
	"payment-gateway/internal/gateway"
	"payment-gateway/internal/secret"
	"payment-gateway/internal/shipping"
)

var (
	confirmStatusErrorCounter   = metrics.GetOrCreateCounter(`confirmation_total{result="status_error"}`)
	confirmTokenMismatchCounter = metrics.GetOrCreateCounter(`confirmation_total{result="token_mismatch"}`)
	confirmUpdatedCounter       = metrics.GetOrCreateCounter(`confirmation_total{result="updated"}`)
	confirmShippingCounter      = metrics.GetOrCreateCounter(`confirmation_total{result="shipping_pending"}`)
)

// Confirm applies an asynchronous gateway confirmation to the local
// transaction state. The callback arguments are never trusted on their own:
// the authoritative status always comes from a fresh gateway query. A token
// mismatch drops the update silently so the endpoint's behavior never
// reveals whether a tid exists.
func (s *Shop) Confirm(ctx context.Context, tid string, args map[string]string) error {
	if s.debug && s.log != nil {
		s.log.WriteLog("Confirmation for transaction '"+tid+"'", dumpParams(args)+"\n")
	}

	status, err := s.TransactionStatus(ctx, tid)
	if err != nil {
		confirmStatusErrorCounter.Inc()
		return err
	}

	if s.debug && s.log != nil {
		s.log.WriteLog("Status for transaction "+tid+":", dumpParams(status.Params())+"\n")
	}

	stored, err := s.secrets.Get(ctx, tid)
	if err != nil {
		return err
	}
	if stored == "" || !secret.Equal(args["token"], stored) {
		confirmTokenMismatchCounter.Inc()
		return nil
	}

	if err := s.store.UpdateTransaction(ctx, tid, status.Params(), status.ShippingConfirmed); err != nil {
		return err
	}
	if status.ShippingConfirmed {
		confirmUpdatedCounter.Inc()
	} else {
		confirmShippingCounter.Inc()
	}

	s.publishStatusChange(ctx, tid, status)
	return nil
}

// TransactionStatus queries the gateway for the authoritative transaction
// state and normalizes the result. When the stored gateway identifier is
// absent or non-numeric the query degrades to the merchant TID, so a
// confirmation arriving before the gateway identifier was persisted still
// reconciles. Both paths yield the same result shape.
func (s *Shop) TransactionStatus(ctx context.Context, tid string) (*gateway.StatusResponse, error) {
	tx, err := s.store.GetTransaction(ctx, tid)
	if err != nil {
		return nil, err
	}
	if err := checkTransaction(tx); err != nil {
		return nil, err
	}

	query := gateway.StatusQuery{TID: tid}
	operation := "TidTransactionStatus"
	if mpayTID := tx.MPayTID(); isNumeric(mpayTID) {
		query = gateway.StatusQuery{MPayTID: mpayTID}
		operation = "mPAYTidTransactionStatus"
	}

	res, err := s.gw.TransactionStatus(ctx, query)
	s.logRoundTrip(operation)
	if err != nil {
		return nil, err
	}

	s.normalizeShipping(res)
	return res, nil
}

// normalizeShipping derives the shippingConfirmed flag and, for an
// unconfirmed address, the decomposed shipping fields. Without a shipping
// block the delivery counts as confirmed.
func (s *Shop) normalizeShipping(res *gateway.StatusResponse) {
	res.ShippingConfirmed = true

	raw := res.GetParam("SHIPPING_ADDR")
	if raw == "" {
		return
	}

	block, err := shipping.Decode(raw)
	if err != nil {
		s.logger.Warn("ignoring malformed shipping block", "error", err)
		return
	}
	if block.Confirmed {
		return
	}

	res.ShippingConfirmed = false
	for name, value := range block.Address.Params() {
		res.SetParam(name, value)
	}
}

func (s *Shop) publishStatusChange(ctx context.Context, tid string, status *gateway.StatusResponse) {
	if s.events == nil {
		return
	}
	change := event.StatusChange{
		TID:               tid,
		MPayTID:           status.GetParam("MPAYTID"),
		Status:            status.GetParam("STATUS"),
		Price:             status.GetParam("PRICE"),
		Currency:          status.GetParam("CURRENCY"),
		ShippingConfirmed: status.ShippingConfirmed,
		OccurredAt:        time.Now(),
	}
	if err := s.events.PublishStatusChange(ctx, change); err != nil {
		s.logger.Error("publishing status change", "tid", tid, "error", err)
	}
}

func isNumeric(v string) bool {
	if v == "" {
		return false
	}
	_, err := strconv.ParseInt(v, 10, 64)
	return err == nil
}

// dumpParams renders an argument mapping as "name = value" lines in stable
// order, for the operation log.
func dumpParams(args map[string]string) string {
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteString(" = ")
		b.WriteString(args[name])
		b.WriteString("\n")
	}
	return b.String()
}
