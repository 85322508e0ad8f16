package router

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/walletdesk/bitget-relay/internal/model"
)

// Required fields per payload element. Every declared field must be present;
// monetary fields stay decimal strings on the wire and are parsed to
// decimals, never floats.
var (
	coinFields = []string{
		"coin", "available", "frozen", "locked", "limitAvailable", "uTime",
	}

	orderFields = []string{
		"instId", "orderId", "clientOid", "size", "newSize", "notional",
		"orderType", "force", "side", "fillPrice", "tradeId", "baseVolume",
		"fillTime", "fillFee", "fillFeeCoin", "tradeScope", "accBaseVolume",
		"priceAvg", "status", "cTime", "uTime", "stpMode", "feeDetail",
		"enterPointSource",
	}

	tickerFields = []string{
		"instId", "lastPr", "open24h", "high24h", "low24h", "change24h",
		"bidPr", "askPr", "bidSz", "askSz", "baseVolume", "quoteVolume",
		"openUtc", "changeUtc24h", "ts",
	}
)

// requireFields checks that every declared key is present in the element.
func requireFields(raw json.RawMessage, fields []string) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Errorf("element is not an object: %w", err)
	}
	for _, f := range fields {
		if _, ok := obj[f]; !ok {
			return fmt.Errorf("missing field %q", f)
		}
	}
	return nil
}

// wireCoin is the account channel's element shape.
type wireCoin struct {
	Coin           string `json:"coin"`
	Available      string `json:"available"`
	Frozen         string `json:"frozen"`
	Locked         string `json:"locked"`
	LimitAvailable string `json:"limitAvailable"`
	UTime          string `json:"uTime"`
}

func parseCoin(raw json.RawMessage) (model.Coin, error) {
	if err := requireFields(raw, coinFields); err != nil {
		return model.Coin{}, err
	}

	var wc wireCoin
	if err := json.Unmarshal(raw, &wc); err != nil {
		return model.Coin{}, fmt.Errorf("decode coin: %w", err)
	}
	if wc.Coin == "" {
		return model.Coin{}, fmt.Errorf("empty coin symbol")
	}

	available, err := decimal.NewFromString(wc.Available)
	if err != nil {
		return model.Coin{}, fmt.Errorf("available %q: %w", wc.Available, err)
	}
	frozen, err := decimal.NewFromString(wc.Frozen)
	if err != nil {
		return model.Coin{}, fmt.Errorf("frozen %q: %w", wc.Frozen, err)
	}
	locked, err := decimal.NewFromString(wc.Locked)
	if err != nil {
		return model.Coin{}, fmt.Errorf("locked %q: %w", wc.Locked, err)
	}
	limitAvailable, err := decimal.NewFromString(wc.LimitAvailable)
	if err != nil {
		return model.Coin{}, fmt.Errorf("limitAvailable %q: %w", wc.LimitAvailable, err)
	}

	updatedAt, err := parseMillis(wc.UTime)
	if err != nil {
		return model.Coin{}, fmt.Errorf("uTime %q: %w", wc.UTime, err)
	}

	return model.Coin{
		Coin:           wc.Coin,
		Available:      available,
		Frozen:         frozen,
		Locked:         locked,
		LimitAvailable: limitAvailable,
		UpdatedAt:      updatedAt,
	}, nil
}

func parseOrder(raw json.RawMessage) (model.Order, error) {
	if err := requireFields(raw, orderFields); err != nil {
		return model.Order{}, err
	}

	var o model.Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return model.Order{}, fmt.Errorf("decode order: %w", err)
	}
	if o.OrderID == "" {
		return model.Order{}, fmt.Errorf("empty orderId")
	}
	return o, nil
}

func parseTicker(raw json.RawMessage) (model.TickerQuote, error) {
	if err := requireFields(raw, tickerFields); err != nil {
		return model.TickerQuote{}, err
	}

	var q model.TickerQuote
	if err := json.Unmarshal(raw, &q); err != nil {
		return model.TickerQuote{}, fmt.Errorf("decode ticker: %w", err)
	}
	if q.InstID == "" {
		return model.TickerQuote{}, fmt.Errorf("empty instId")
	}
	return q, nil
}

// parseMillis converts a unix-millisecond string to UTC time.
func parseMillis(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
