package dispatch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/walletdesk/bitget-relay/internal/model"
)

// Reconciler applies account/orders truth to durable storage. Failures are
// the reconciler's to log; dispatch never blocks fan-out on them.
type Reconciler interface {
	Apply(ctx context.Context, ev model.Event)
}

// Stats contains dispatcher counters.
type Stats struct {
	Emitted    int64
	Delivered  int64
	Dropped    int64
	Reconciled int64
}

// consumer is one registered downstream sink.
type consumer struct {
	id     uuid.UUID
	userID string
	sink   chan<- model.Event
}

// Dispatcher fans events out to per-user consumers. Safe for concurrent use
// by session read loops and the HTTP-facing stream layer.
type Dispatcher struct {
	logger     *slog.Logger
	reconciler Reconciler

	mu        sync.RWMutex
	consumers map[uuid.UUID]consumer
	byUser    map[string]map[uuid.UUID]struct{}
	stats     Stats
}

// New creates a Dispatcher. reconciler may be nil when no durable store is
// wired (streamtest).
func New(reconciler Reconciler, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		logger:     logger,
		reconciler: reconciler,
		consumers:  make(map[uuid.UUID]consumer),
		byUser:     make(map[string]map[uuid.UUID]struct{}),
	}
}

// Register attaches a consumer sink for one user and returns its ID.
// Many consumers may share a userID (multiple open streams for one user).
func (d *Dispatcher) Register(userID string, sink chan<- model.Event) uuid.UUID {
	id := uuid.New()

	d.mu.Lock()
	d.consumers[id] = consumer{id: id, userID: userID, sink: sink}
	set, ok := d.byUser[userID]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		d.byUser[userID] = set
	}
	set[id] = struct{}{}
	d.mu.Unlock()

	d.logger.Debug("consumer registered", "user", userID, "consumer", id)
	return id
}

// Unregister detaches a consumer. Safe to call for unknown IDs. Detaching
// never affects the underlying sessions.
func (d *Dispatcher) Unregister(id uuid.UUID) {
	d.mu.Lock()
	c, ok := d.consumers[id]
	if ok {
		delete(d.consumers, id)
		if set, ok := d.byUser[c.userID]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(d.byUser, c.userID)
			}
		}
	}
	d.mu.Unlock()

	if ok {
		d.logger.Debug("consumer unregistered", "user", c.userID, "consumer", id)
	}
}

// ConsumerCount returns the number of consumers attached for a user.
func (d *Dispatcher) ConsumerCount(userID string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byUser[userID])
}

// Emit routes one event: fan-out to the user's consumers, then forward
// account/orders truth to reconciliation. Events for a session are emitted
// from that session's read loop, so per-session order is preserved.
func (d *Dispatcher) Emit(ctx context.Context, ev model.Event) {
	d.Fanout(ev)

	if d.reconciler != nil && model.IsAccountTruth(ev) {
		d.reconciler.Apply(ctx, ev)
		d.mu.Lock()
		d.stats.Reconciled++
		d.mu.Unlock()
	}
}

// Fanout pushes an event to the user's consumers without reconciliation.
// Used for republished wallet views, which must not re-enter the store.
func (d *Dispatcher) Fanout(ev model.Event) {
	d.mu.RLock()
	ids := d.byUser[ev.User()]
	sinks := make([]consumer, 0, len(ids))
	for id := range ids {
		sinks = append(sinks, d.consumers[id])
	}
	d.mu.RUnlock()

	var delivered, dropped int64
	for _, c := range sinks {
		select {
		case c.sink <- ev:
			delivered++
		default:
			dropped++
			d.logger.Warn("consumer sink full, dropping event",
				"user", ev.User(),
				"consumer", c.id,
				"kind", ev.Kind(),
			)
		}
	}

	d.mu.Lock()
	d.stats.Emitted++
	d.stats.Delivered += delivered
	d.stats.Dropped += dropped
	d.mu.Unlock()
}

// Stats returns current counters.
func (d *Dispatcher) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stats
}
