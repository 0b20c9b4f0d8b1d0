package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Moustapha1997/paytech-webhook-server/internal/observability/metrics"
	"github.com/Moustapha1997/paytech-webhook-server/internal/paytech"
	"github.com/Moustapha1997/paytech-webhook-server/internal/reservations"
	"github.com/Moustapha1997/paytech-webhook-server/pkg/logging"
)

// IPN bodies are small; anything past this is not a provider callback.
const maxBodyBytes = 1 << 20

// Outcome labels reported to metrics.
const (
	outcomeConfirmed    = "confirmed"
	outcomeIgnored      = "ignored"
	outcomeMalformed    = "malformed"
	outcomeUnauthorized = "unauthorized"
	outcomeNotFound     = "not_found"
	outcomeError        = "error"
)

type reservationConfirmer interface {
	Confirm(ctx context.Context, n *paytech.Notification, cf *paytech.CustomField) error
}

// Handler processes PayTech IPN callbacks: normalize, filter, authenticate,
// then transition the reservation.
type Handler struct {
	auth      *paytech.Authenticator
	confirmer reservationConfirmer
	metrics   *metrics.WebhookMetrics
	logger    *logging.Logger
}

// NewHandler wires the webhook pipeline.
func NewHandler(auth *paytech.Authenticator, confirmer reservationConfirmer, m *metrics.WebhookMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		auth:      auth,
		confirmer: confirmer,
		metrics:   m,
		logger:    logger,
	}
}

// HandleIPN is the POST /webhook/ipn endpoint.
func (h *Handler) HandleIPN(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.finish(start, "", outcomeMalformed)
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid payload"})
		return
	}

	n, cf, err := paytech.ParseNotification(r.Header.Get("Content-Type"), body)
	if err != nil {
		h.logger.WithStage("normalize").Warn("failed to normalize notification", "error", err)
		h.finish(start, "", outcomeMalformed)
		switch {
		case errors.Is(err, paytech.ErrInvalidCustomField):
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid custom_field format"})
		default:
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid payload"})
		}
		return
	}

	log := h.logger.With("ref_command", cf.RefCommand, "event_type", n.TypeEvent)
	log.Info("ipn received", "env", n.Env, "payment_method", n.PaymentMethod)

	if !n.IsSaleComplete() {
		log.Info("ignoring non-sale event")
		h.finish(start, n.TypeEvent, outcomeIgnored)
		writeJSON(w, http.StatusOK, map[string]any{"status": "ignored"})
		return
	}

	if err := h.auth.Verify(n); err != nil {
		log.Warn("signature verification failed")
		h.finish(start, n.TypeEvent, outcomeUnauthorized)
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid signature"})
		return
	}

	if err := h.confirmer.Confirm(r.Context(), n, cf); err != nil {
		switch {
		case errors.Is(err, reservations.ErrNotFound):
			log.Warn("no pending reservation for notification")
			h.finish(start, n.TypeEvent, outcomeNotFound)
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "Reservation not found"})
		case errors.Is(err, reservations.ErrInsertFailed):
			log.Error("failed to persist confirmed reservation", "error", err)
			h.finish(start, n.TypeEvent, outcomeError)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Insert failed"})
		default:
			log.Error("webhook processing failed", "error", err)
			h.finish(start, n.TypeEvent, outcomeError)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Webhook processing failed"})
		}
		return
	}

	log.Info("reservation confirmed")
	h.finish(start, n.TypeEvent, outcomeConfirmed)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Health is the liveness probe, always healthy.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
}

func (h *Handler) finish(start time.Time, eventType, outcome string) {
	if eventType == "" {
		eventType = "unknown"
	}
	h.metrics.ObserveIPN(eventType, outcome)
	h.metrics.ObserveDuration(outcome, time.Since(start).Seconds())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
