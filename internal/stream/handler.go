package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/walletdesk/bitget-relay/internal/model"
)

// SSE event names per domain event kind.
const (
	eventSnapshot = "snapshot"
	eventUpdate   = "update"
	eventOrders   = "orders"
	eventPrice    = "price"
	eventWallet   = "wallet"
)

// ErrUnauthorized is returned by TokenVerifier implementations for tokens
// that fail verification.
var ErrUnauthorized = errors.New("unauthorized")

// TokenVerifier resolves a bearer token to a user ID. Token issuance and
// verification live outside this process.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// Registrar is the consumer side of the event dispatcher.
type Registrar interface {
	Register(userID string, sink chan<- model.Event) uuid.UUID
	Unregister(id uuid.UUID)
}

// OnOpenFunc runs after a consumer is registered and before any event is
// written. It gives the caller a hook to bring up venue sessions for the
// user; an error aborts the stream with a 502.
type OnOpenFunc func(ctx context.Context, userID string) error

// Handler serves GET requests as long-lived SSE streams.
type Handler struct {
	verifier TokenVerifier
	registry Registrar
	onOpen   OnOpenFunc
	logger   *slog.Logger

	pingInterval time.Duration
	bufferSize   int
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithPingInterval sets the keepalive comment cadence.
func WithPingInterval(d time.Duration) HandlerOption {
	return func(h *Handler) { h.pingInterval = d }
}

// WithBufferSize sets the per-consumer event buffer. Events beyond a full
// buffer are dropped by the dispatcher, not queued.
func WithBufferSize(n int) HandlerOption {
	return func(h *Handler) { h.bufferSize = n }
}

// WithOnOpen sets the post-registration hook.
func WithOnOpen(fn OnOpenFunc) HandlerOption {
	return func(h *Handler) { h.onOpen = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = logger }
}

// NewHandler builds an SSE handler bound to a verifier and a dispatcher.
func NewHandler(verifier TokenVerifier, registry Registrar, opts ...HandlerOption) *Handler {
	h := &Handler{
		verifier:     verifier,
		registry:     registry,
		logger:       slog.Default(),
		pingInterval: 25 * time.Second,
		bufferSize:   256,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token := bearerToken(r)
	if token == "" {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	userID, err := h.verifier.Verify(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sink := make(chan model.Event, h.bufferSize)
	id := h.registry.Register(userID, sink)
	defer h.registry.Unregister(id)

	if h.onOpen != nil {
		if err := h.onOpen(r.Context(), userID); err != nil {
			h.logger.Error("stream open hook failed", "user", userID, "error", err)
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
			return
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	h.logger.Info("stream opened", "user", userID, "consumer", id)
	defer h.logger.Info("stream closed", "user", userID, "consumer", id)

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()

		case ev := <-sink:
			if err := writeEvent(w, ev); err != nil {
				h.logger.Warn("stream write failed", "user", userID, "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

// writeEvent serializes one domain event as a named SSE message.
func writeEvent(w http.ResponseWriter, ev model.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventName(ev.Kind()), payload)
	return err
}

func eventName(k model.Kind) string {
	switch k {
	case model.KindAccountSnapshot:
		return eventSnapshot
	case model.KindAccountUpdate:
		return eventUpdate
	case model.KindOrdersSnapshot, model.KindOrdersUpdate:
		return eventOrders
	case model.KindTicker:
		return eventPrice
	case model.KindWalletView:
		return eventWallet
	}
	return string(k)
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
