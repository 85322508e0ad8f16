package model

import "time"

// Kind identifies the variant of a domain event.
type Kind string

const (
	KindAccountSnapshot Kind = "account_snapshot"
	KindAccountUpdate   Kind = "account_update"
	KindOrdersSnapshot  Kind = "orders_snapshot"
	KindOrdersUpdate    Kind = "orders_update"
	KindTicker          Kind = "ticker"
	KindWalletView      Kind = "wallet_view"
)

// Event is a validated, typed representation of one inbound venue message
// (or a republished wallet view), tagged with the owning user.
type Event interface {
	Kind() Kind
	User() string
}

// AccountSnapshot is the full account balance state after a fresh login.
type AccountSnapshot struct {
	UserID     string
	Coins      []Coin
	ReceivedAt time.Time
}

func (e AccountSnapshot) Kind() Kind   { return KindAccountSnapshot }
func (e AccountSnapshot) User() string { return e.UserID }

// AccountUpdate is one incremental balance delta.
type AccountUpdate struct {
	UserID     string
	Coin       Coin
	ReceivedAt time.Time
}

func (e AccountUpdate) Kind() Kind   { return KindAccountUpdate }
func (e AccountUpdate) User() string { return e.UserID }

// OrdersSnapshot is the full open-orders state after a fresh login.
type OrdersSnapshot struct {
	UserID     string
	Orders     []Order
	ReceivedAt time.Time
}

func (e OrdersSnapshot) Kind() Kind   { return KindOrdersSnapshot }
func (e OrdersSnapshot) User() string { return e.UserID }

// OrdersUpdate is one incremental order change.
type OrdersUpdate struct {
	UserID     string
	Order      Order
	ReceivedAt time.Time
}

func (e OrdersUpdate) Kind() Kind   { return KindOrdersUpdate }
func (e OrdersUpdate) User() string { return e.UserID }

// Ticker is one public ticker quote.
type Ticker struct {
	UserID     string
	Quote      TickerQuote
	ReceivedAt time.Time
}

func (e Ticker) Kind() Kind   { return KindTicker }
func (e Ticker) User() string { return e.UserID }

// WalletView is the durable wallet state re-read after reconciliation.
// It is republished to consumers but never re-enters reconciliation.
type WalletView struct {
	UserID string
	Rows   []WalletRow
}

func (e WalletView) Kind() Kind   { return KindWalletView }
func (e WalletView) User() string { return e.UserID }

// IsAccountTruth reports whether the event carries account or order state
// that must be reconciled into durable storage.
func IsAccountTruth(e Event) bool {
	switch e.Kind() {
	case KindAccountSnapshot, KindAccountUpdate, KindOrdersSnapshot, KindOrdersUpdate:
		return true
	}
	return false
}
