package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/solatis/ntfyrelay/internal/core/db"
	"github.com/solatis/ntfyrelay/internal/core/delivery"
	"github.com/solatis/ntfyrelay/internal/core/metrics"
	"github.com/solatis/ntfyrelay/internal/relay"
	"github.com/solatis/ntfyrelay/internal/types"
)

// DiscardMessage is returned to the webhook caller when filters reject an event.
const DiscardMessage = "Filters not matched"

// Sender delivers a rendered notification. Implemented by *delivery.Client.
type Sender interface {
	Send(ctx context.Context, topic, title, message string) (delivery.Result, error)
}

// Recorder persists one processed request. Implemented by *db.HistoryStore.
type Recorder interface {
	Record(ctx context.Context, d db.Delivery) error
}

// response is the JSON body of every webhook reply.
type response struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

// WebhookHandler receives events, runs them through the relay core and
// forwards what the topic's rules allow.
type WebhookHandler struct {
	registry *relay.Registry
	sender   Sender
	metrics  *metrics.Metrics
	history  Recorder
	logger   *slog.Logger
	maxBody  int64
}

// Option configures optional WebhookHandler collaborators.
type Option func(*WebhookHandler)

// WithMetrics enables request counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *WebhookHandler) { h.metrics = m }
}

// WithHistory records every processed request.
func WithHistory(r Recorder) Option {
	return func(h *WebhookHandler) { h.history = r }
}

// WithLogger replaces slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *WebhookHandler) { h.logger = l }
}

// WithMaxBody overrides types.MaxPayloadSize.
func WithMaxBody(n int64) Option {
	return func(h *WebhookHandler) { h.maxBody = n }
}

// NewWebhookHandler creates a handler for registry that delivers through sender.
func NewWebhookHandler(registry *relay.Registry, sender Sender, opts ...Option) (*WebhookHandler, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if sender == nil {
		return nil, fmt.Errorf("sender cannot be nil")
	}

	h := &WebhookHandler{
		registry: registry,
		sender:   sender,
		logger:   slog.Default(),
		maxBody:  types.MaxPayloadSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// ServeHTTP handles POST /webhook/{topic}.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	topicName := r.PathValue("topic")
	id := types.NewDeliveryID()
	logger := h.logger.With("topic", topicName, "delivery_id", id)
	w.Header().Set("X-Delivery-Id", string(id))

	h.metrics.RecordRequest(topicName)

	event, err := h.readEvent(r)
	if err != nil {
		reason := "invalid"
		if errors.Is(err, types.ErrPayloadTooLarge) {
			reason = "too_large"
		}
		h.metrics.RecordBadRequest(reason)
		logger.Warn("rejected webhook body", "error", err)
		writeJSON(w, http.StatusBadRequest, response{Message: err.Error()})
		return
	}

	outcome := relay.Process(event, h.registry.Topic(topicName))
	h.metrics.RecordOutcome(topicName, outcome.Action.String())

	record := db.Delivery{
		ID:     id,
		Topic:  topicName,
		Action: outcome.Action.String(),
		Reason: outcome.Reason,
	}

	if !outcome.Forwarded() {
		logger.Debug("event discarded", "reason", outcome.Reason)
		h.record(r.Context(), logger, record)
		writeJSON(w, http.StatusOK, response{Message: DiscardMessage})
		return
	}

	result, err := h.sender.Send(r.Context(), topicName, outcome.Title, outcome.Message)
	record.StatusCode = result.StatusCode
	record.DurationMs = result.Duration.Milliseconds()

	var statusErr *delivery.StatusError
	switch {
	case err == nil:
		h.metrics.RecordDelivery(topicName, metrics.StatusDelivered, result.Duration)
		logger.Info("notification delivered", "group", outcome.Group, "status", result.StatusCode, "duration", result.Duration)
		h.record(r.Context(), logger, record)
		writeJSON(w, http.StatusOK, response{Success: true})

	case errors.As(err, &statusErr):
		h.metrics.RecordDelivery(topicName, metrics.StatusRejected, result.Duration)
		record.Reason = err.Error()
		logger.Error("notification rejected", "status", statusErr.StatusCode, "error", err)
		h.record(r.Context(), logger, record)
		writeJSON(w, http.StatusBadGateway, response{StatusCode: statusErr.StatusCode})

	default:
		h.metrics.RecordDelivery(topicName, metrics.StatusFailed, result.Duration)
		record.Reason = err.Error()
		logger.Error("notification delivery failed", "error", err)
		h.record(r.Context(), logger, record)
		writeJSON(w, http.StatusBadGateway, response{Message: err.Error()})
	}
}

// readEvent reads at most maxBody bytes and decodes a JSON object.
func (h *WebhookHandler) readEvent(r *http.Request) (types.Event, error) {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(body)) > h.maxBody {
		return nil, fmt.Errorf("%w: limit is %d bytes", types.ErrPayloadTooLarge, h.maxBody)
	}
	return types.DecodeEvent(body)
}

// record stores d; failures are logged and never change the response.
func (h *WebhookHandler) record(ctx context.Context, logger *slog.Logger, d db.Delivery) {
	if h.history == nil {
		return
	}
	// Keep recording when the caller hangs up
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := h.history.Record(ctx, d); err != nil {
		logger.Warn("failed to record delivery history", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
