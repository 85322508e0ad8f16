package subs

import (
	"sort"
	"strings"
	"sync"

	"github.com/walletdesk/bitget-relay/internal/wire"
)

// SpotInstType is the instrument type for all spot channels.
const SpotInstType = "SPOT"

// Spec is a request to receive one class of venue data.
// Identity is (Channel, InstID|Coin); specs are immutable once created.
type Spec struct {
	Channel  string // account, orders, or ticker
	InstType string
	InstID   string // required for ticker
	Coin     string // required for account
	Private  bool
}

// Key returns the spec's identity.
func (s Spec) Key() string {
	id := s.InstID
	if id == "" {
		id = s.Coin
	}
	return s.Channel + ":" + id
}

// Arg converts the spec to its wire form.
func (s Spec) Arg() wire.SubscribeArg {
	return wire.SubscribeArg{
		Channel:  s.Channel,
		InstType: s.InstType,
		InstID:   s.InstID,
		Coin:     s.Coin,
	}
}

// AccountSpec is the private account-balance channel.
func AccountSpec() Spec {
	return Spec{Channel: wire.ChannelAccount, InstType: SpotInstType, Coin: "default", Private: true}
}

// OrdersSpec is the private order-events channel.
func OrdersSpec() Spec {
	return Spec{Channel: wire.ChannelOrders, InstType: SpotInstType, InstID: "default", Private: true}
}

// TickerSpec is the public ticker channel for one instrument.
func TickerSpec(instID string) Spec {
	return Spec{Channel: wire.ChannelTicker, InstType: SpotInstType, InstID: Normalize(instID)}
}

// Normalize folds an instrument ID to the venue's canonical casing.
func Normalize(instID string) string {
	return strings.ToUpper(strings.TrimSpace(instID))
}

// TickerArg builds the wire arg for one ticker instrument.
func TickerArg(instID string) wire.SubscribeArg {
	return TickerSpec(instID).Arg()
}

// Registry partitions a user's subscriptions into a fixed private set and a
// mutable public ticker set. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	private []Spec
	tickers map[string]struct{}
}

// NewRegistry builds a registry from the initial channel specs. Ticker specs
// land in the mutable public set; everything marked private is fixed.
func NewRegistry(specs []Spec) *Registry {
	r := &Registry{tickers: make(map[string]struct{})}
	seen := make(map[string]struct{})

	for _, s := range specs {
		if s.Channel == wire.ChannelTicker && !s.Private {
			if s.InstID != "" {
				r.tickers[Normalize(s.InstID)] = struct{}{}
			}
			continue
		}
		if _, dup := seen[s.Key()]; dup {
			continue
		}
		seen[s.Key()] = struct{}{}
		r.private = append(r.private, s)
	}
	return r
}

// HasPrivate reports whether any private channel is requested.
func (r *Registry) HasPrivate() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.private) > 0
}

// HasTickers reports whether any public ticker is requested.
func (r *Registry) HasTickers() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tickers) > 0
}

// AddTicker adds an instrument to the public set. Returns the canonical ID
// and whether it was newly added (false means the call was a no-op).
func (r *Registry) AddTicker(instID string) (string, bool) {
	id := Normalize(instID)
	if id == "" {
		return id, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickers[id]; ok {
		return id, false
	}
	r.tickers[id] = struct{}{}
	return id, true
}

// RemoveTicker removes an instrument from the public set. Returns the
// canonical ID and whether it was present.
func (r *Registry) RemoveTicker(instID string) (string, bool) {
	id := Normalize(instID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickers[id]; !ok {
		return id, false
	}
	delete(r.tickers, id)
	return id, true
}

// HasTicker reports whether an instrument is in the public set.
func (r *Registry) HasTicker(instID string) bool {
	id := Normalize(instID)
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tickers[id]
	return ok
}

// Tickers returns the public instrument IDs in sorted order.
func (r *Registry) Tickers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.tickers))
	for id := range r.tickers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PrivateArgs returns the subscribe args for the fixed private set.
func (r *Registry) PrivateArgs() []wire.SubscribeArg {
	r.mu.RLock()
	defer r.mu.RUnlock()

	args := make([]wire.SubscribeArg, 0, len(r.private))
	for _, s := range r.private {
		args = append(args, s.Arg())
	}
	return args
}

// PublicArgs returns the subscribe args for the current public ticker set.
func (r *Registry) PublicArgs() []wire.SubscribeArg {
	args := make([]wire.SubscribeArg, 0)
	for _, id := range r.Tickers() {
		args = append(args, TickerArg(id))
	}
	return args
}
