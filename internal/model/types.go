package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coin is one account-balance entry from the venue's account channel.
type Coin struct {
	Coin           string          // Asset symbol (e.g., "BTC")
	Available      decimal.Decimal // Freely spendable balance
	Frozen         decimal.Decimal // Frozen by open orders
	Locked         decimal.Decimal // Locked (staking, transfers)
	LimitAvailable decimal.Decimal // Available within venue limits
	UpdatedAt      time.Time       // Venue update time
}

// FeeEntry is one element of an order's fee breakdown.
type FeeEntry struct {
	FeeCoin string `json:"feeCoin"`
	Fee     string `json:"fee"`
}

// Order is one order event from the venue's orders channel.
// Monetary fields stay as the venue's decimal strings at this layer.
type Order struct {
	InstID           string     `json:"instId"`
	OrderID          string     `json:"orderId"`
	ClientOID        string     `json:"clientOid"`
	Size             string     `json:"size"`
	NewSize          string     `json:"newSize"`
	Notional         string     `json:"notional"`
	OrderType        string     `json:"orderType"`
	Force            string     `json:"force"`
	Side             string     `json:"side"`
	FillPrice        string     `json:"fillPrice"`
	TradeID          string     `json:"tradeId"`
	BaseVolume       string     `json:"baseVolume"`
	FillTime         string     `json:"fillTime"`
	FillFee          string     `json:"fillFee"`
	FillFeeCoin      string     `json:"fillFeeCoin"`
	TradeScope       string     `json:"tradeScope"`
	AccBaseVolume    string     `json:"accBaseVolume"`
	PriceAvg         string     `json:"priceAvg"`
	Status           string     `json:"status"`
	CTime            string     `json:"cTime"`
	UTime            string     `json:"uTime"`
	STPMode          string     `json:"stpMode"`
	FeeDetail        []FeeEntry `json:"feeDetail"`
	EnterPointSource string     `json:"enterPointSource"`
}

// TickerQuote is one quote from the venue's public ticker channel.
type TickerQuote struct {
	InstID       string `json:"instId"`
	LastPr       string `json:"lastPr"`
	Open24h      string `json:"open24h"`
	High24h      string `json:"high24h"`
	Low24h       string `json:"low24h"`
	Change24h    string `json:"change24h"`
	BidPr        string `json:"bidPr"`
	AskPr        string `json:"askPr"`
	BidSz        string `json:"bidSz"`
	AskSz        string `json:"askSz"`
	BaseVolume   string `json:"baseVolume"`
	QuoteVolume  string `json:"quoteVolume"`
	OpenUTC      string `json:"openUtc"`
	ChangeUTC24h string `json:"changeUtc24h"`
	TS           string `json:"ts"`
}

// WalletRow is one persisted wallet-balance row, keyed by (user, token).
type WalletRow struct {
	ID             uuid.UUID
	UserID         string
	TokenID        uuid.UUID
	Token          string // Asset symbol, denormalized for ordering
	Available      decimal.Decimal
	Frozen         decimal.Decimal
	Locked         decimal.Decimal
	LimitAvailable decimal.Decimal
	UpdatedAt      time.Time
}
