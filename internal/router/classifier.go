package router

import (
	"log/slog"
	"sync"
	"time"

	"github.com/walletdesk/bitget-relay/internal/model"
	"github.com/walletdesk/bitget-relay/internal/wire"
)

// accountPhase tracks snapshot-vs-update semantics for the account channel.
// The first account payload after a fresh login is authoritative state;
// everything after it is an incremental delta until the next reconnect.
type accountPhase int

const (
	awaitingSnapshot accountPhase = iota
	streaming
)

// Stats contains classifier counters.
type Stats struct {
	Received         int64
	Classified       int64
	ParseErrors      int64
	ValidationErrors int64
	Unknown          int64
}

// Classifier turns decoded frames from one session into typed domain
// events for one user. Each session owns its own Classifier instance.
type Classifier struct {
	userID string
	logger *slog.Logger

	mu    sync.Mutex
	phase accountPhase
	stats Stats
}

// New creates a Classifier for one user's session.
func New(userID string, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		userID: userID,
		logger: logger,
		phase:  awaitingSnapshot,
	}
}

// ResetAccountPhase re-arms first-payload-is-snapshot tracking. The session
// calls this on every transition into Authenticating.
func (c *Classifier) ResetAccountPhase() {
	c.mu.Lock()
	c.phase = awaitingSnapshot
	c.mu.Unlock()
}

// Stats returns current counters.
func (c *Classifier) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Classify validates a data frame and emits the matching domain event.
// Returns false when the frame produced no event (dropped or unknown);
// the session continues either way.
func (c *Classifier) Classify(f wire.Frame, receivedAt time.Time) (model.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Received++

	switch f.Arg.Channel {
	case wire.ChannelAccount:
		return c.classifyAccount(f, receivedAt)
	case wire.ChannelOrders:
		return c.classifyOrders(f, receivedAt)
	case wire.ChannelTicker:
		return c.classifyTicker(f, receivedAt)
	}

	c.stats.Unknown++
	c.logger.Debug("skipping unknown channel", "channel", f.Arg.Channel)
	return nil, false
}

func (c *Classifier) classifyAccount(f wire.Frame, receivedAt time.Time) (model.Event, bool) {
	elems, err := f.DataElements()
	if err != nil {
		c.stats.ParseErrors++
		c.logger.Warn("dropping account frame", "error", err)
		return nil, false
	}

	if c.phase == awaitingSnapshot {
		// First observation is authoritative, replace semantics.
		c.phase = streaming

		coins := make([]model.Coin, 0, len(elems))
		for i, elem := range elems {
			coin, err := parseCoin(elem)
			if err != nil {
				c.stats.ValidationErrors++
				c.logger.Warn("dropping account snapshot element",
					"index", i,
					"error", err,
				)
				continue
			}
			coins = append(coins, coin)
		}

		c.stats.Classified++
		return model.AccountSnapshot{UserID: c.userID, Coins: coins, ReceivedAt: receivedAt}, true
	}

	if len(elems) == 0 {
		c.stats.ValidationErrors++
		c.logger.Warn("dropping empty account update")
		return nil, false
	}
	coin, err := parseCoin(elems[0])
	if err != nil {
		c.stats.ValidationErrors++
		c.logger.Warn("dropping account update", "error", err)
		return nil, false
	}

	c.stats.Classified++
	return model.AccountUpdate{UserID: c.userID, Coin: coin, ReceivedAt: receivedAt}, true
}

func (c *Classifier) classifyOrders(f wire.Frame, receivedAt time.Time) (model.Event, bool) {
	elems, err := f.DataElements()
	if err != nil {
		c.stats.ParseErrors++
		c.logger.Warn("dropping orders frame", "error", err)
		return nil, false
	}

	switch f.Action {
	case wire.ActionSnapshot:
		orders := make([]model.Order, 0, len(elems))
		for i, elem := range elems {
			order, err := parseOrder(elem)
			if err != nil {
				c.stats.ValidationErrors++
				c.logger.Warn("dropping orders snapshot element",
					"index", i,
					"error", err,
				)
				continue
			}
			orders = append(orders, order)
		}

		c.stats.Classified++
		return model.OrdersSnapshot{UserID: c.userID, Orders: orders, ReceivedAt: receivedAt}, true

	case wire.ActionUpdate:
		if len(elems) == 0 {
			c.stats.ValidationErrors++
			c.logger.Warn("dropping empty orders update")
			return nil, false
		}
		order, err := parseOrder(elems[0])
		if err != nil {
			c.stats.ValidationErrors++
			c.logger.Warn("dropping orders update", "error", err)
			return nil, false
		}

		c.stats.Classified++
		return model.OrdersUpdate{UserID: c.userID, Order: order, ReceivedAt: receivedAt}, true
	}

	c.stats.Unknown++
	c.logger.Debug("skipping orders action", "action", f.Action)
	return nil, false
}

func (c *Classifier) classifyTicker(f wire.Frame, receivedAt time.Time) (model.Event, bool) {
	elems, err := f.DataElements()
	if err != nil {
		c.stats.ParseErrors++
		c.logger.Warn("dropping ticker frame", "error", err)
		return nil, false
	}
	if len(elems) == 0 {
		c.stats.Unknown++
		return nil, false
	}

	quote, err := parseTicker(elems[0])
	if err != nil {
		c.stats.ValidationErrors++
		c.logger.Warn("dropping ticker", "error", err)
		return nil, false
	}

	c.stats.Classified++
	return model.Ticker{UserID: c.userID, Quote: quote, ReceivedAt: receivedAt}, true
}
