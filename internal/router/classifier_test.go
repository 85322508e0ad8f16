package router

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/walletdesk/bitget-relay/internal/model"
	"github.com/walletdesk/bitget-relay/internal/wire"
)

func coinJSON(symbol, available string) string {
	return fmt.Sprintf(
		`{"coin":%q,"available":%q,"frozen":"0","locked":"0","limitAvailable":%q,"uTime":"1700000000000"}`,
		symbol, available, available,
	)
}

func orderJSON(orderID string) string {
	fields := map[string]any{
		"instId": "BTCUSDT", "orderId": orderID, "clientOid": "c1",
		"size": "1", "newSize": "1", "notional": "100", "orderType": "limit",
		"force": "gtc", "side": "buy", "fillPrice": "0", "tradeId": "",
		"baseVolume": "0", "fillTime": "0", "fillFee": "0", "fillFeeCoin": "",
		"tradeScope": "", "accBaseVolume": "0", "priceAvg": "0",
		"status": "live", "cTime": "1700000000000", "uTime": "1700000000000",
		"stpMode": "none", "feeDetail": []any{}, "enterPointSource": "api",
	}
	data, _ := json.Marshal(fields)
	return string(data)
}

func tickerJSON(instID string) string {
	fields := map[string]any{
		"instId": instID, "lastPr": "65000", "open24h": "64000",
		"high24h": "66000", "low24h": "63000", "change24h": "0.015",
		"bidPr": "64999", "askPr": "65001", "bidSz": "1", "askSz": "1",
		"baseVolume": "1000", "quoteVolume": "65000000",
		"openUtc": "64100", "changeUtc24h": "0.014", "ts": "1700000000000",
	}
	data, _ := json.Marshal(fields)
	return string(data)
}

func accountFrame(t *testing.T, action string, elems ...string) wire.Frame {
	t.Helper()
	raw := fmt.Sprintf(
		`{"action":%q,"arg":{"channel":"account","instType":"SPOT","coin":"default"},"data":[%s]}`,
		action, join(elems),
	)
	f, err := wire.Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode test frame: %v", err)
	}
	return f
}

func ordersFrame(t *testing.T, action string, elems ...string) wire.Frame {
	t.Helper()
	raw := fmt.Sprintf(
		`{"action":%q,"arg":{"channel":"orders","instType":"SPOT","instId":"default"},"data":[%s]}`,
		action, join(elems),
	)
	f, err := wire.Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode test frame: %v", err)
	}
	return f
}

func tickerFrame(t *testing.T, elems ...string) wire.Frame {
	t.Helper()
	raw := fmt.Sprintf(
		`{"action":"snapshot","arg":{"channel":"ticker","instType":"SPOT","instId":"BTCUSDT"},"data":[%s]}`,
		join(elems),
	)
	f, err := wire.Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode test frame: %v", err)
	}
	return f
}

func join(elems []string) string {
	out := ""
	for i, e := range elems {
		if i > 0 {
			out += ","
		}
		out += e
	}
	return out
}

func TestClassify_FirstAccountPayloadIsSnapshot(t *testing.T) {
	c := New("user-1", nil)
	now := time.Now()

	// Two login cycles, each with two account payloads. The second cycle's
	// first payload claims to be an update; the phase still wins.
	for cycle := 0; cycle < 2; cycle++ {
		c.ResetAccountPhase()

		firstAction := "snapshot"
		if cycle == 1 {
			firstAction = "update"
		}
		ev, ok := c.Classify(accountFrame(t, firstAction, coinJSON("BTC", "1.5")), now)
		if !ok {
			t.Fatalf("cycle %d: first account payload dropped", cycle)
		}
		if ev.Kind() != model.KindAccountSnapshot {
			t.Errorf("cycle %d: first payload kind = %q, want snapshot", cycle, ev.Kind())
		}

		ev, ok = c.Classify(accountFrame(t, "update", coinJSON("BTC", "2.0")), now)
		if !ok {
			t.Fatalf("cycle %d: second account payload dropped", cycle)
		}
		if ev.Kind() != model.KindAccountUpdate {
			t.Errorf("cycle %d: second payload kind = %q, want update", cycle, ev.Kind())
		}
	}
}

func TestClassify_AccountSnapshotSiblingsSurvive(t *testing.T) {
	c := New("user-1", nil)

	ev, ok := c.Classify(accountFrame(t, "snapshot",
		coinJSON("BTC", "1"),
		`{"coin":"ETH","available":"2"}`, // missing declared fields
		coinJSON("SOL", "3"),
	), time.Now())
	if !ok {
		t.Fatal("snapshot with one bad element dropped entirely")
	}

	snap, isSnap := ev.(model.AccountSnapshot)
	if !isSnap {
		t.Fatalf("event type = %T, want AccountSnapshot", ev)
	}
	if len(snap.Coins) != 2 {
		t.Fatalf("len(Coins) = %d, want 2 survivors", len(snap.Coins))
	}
	if snap.Coins[0].Coin != "BTC" || snap.Coins[1].Coin != "SOL" {
		t.Errorf("survivors = %s, %s; want BTC, SOL", snap.Coins[0].Coin, snap.Coins[1].Coin)
	}

	stats := c.Stats()
	if stats.ValidationErrors != 1 {
		t.Errorf("ValidationErrors = %d, want 1", stats.ValidationErrors)
	}
}

func TestClassify_AccountDecimal(t *testing.T) {
	c := New("user-1", nil)

	ev, ok := c.Classify(accountFrame(t, "snapshot", coinJSON("BTC", "0.1")), time.Now())
	if !ok {
		t.Fatal("snapshot dropped")
	}
	snap := ev.(model.AccountSnapshot)

	// 0.1 must survive exactly, not as a binary float approximation.
	if snap.Coins[0].Available.String() != "0.1" {
		t.Errorf("Available = %s, want 0.1", snap.Coins[0].Available)
	}
	if snap.Coins[0].UpdatedAt.UnixMilli() != 1700000000000 {
		t.Errorf("UpdatedAt = %v", snap.Coins[0].UpdatedAt)
	}
}

func TestClassify_AccountUpdateBadElementDropped(t *testing.T) {
	c := New("user-1", nil)
	c.Classify(accountFrame(t, "snapshot", coinJSON("BTC", "1")), time.Now())

	if _, ok := c.Classify(accountFrame(t, "update", `{"coin":"BTC"}`), time.Now()); ok {
		t.Error("invalid update classified, want drop")
	}
	if _, ok := c.Classify(accountFrame(t, "update"), time.Now()); ok {
		t.Error("empty update classified, want drop")
	}
}

func TestClassify_OrdersSnapshotAndUpdate(t *testing.T) {
	c := New("user-1", nil)

	ev, ok := c.Classify(ordersFrame(t, "snapshot", orderJSON("o1"), orderJSON("o2")), time.Now())
	if !ok {
		t.Fatal("orders snapshot dropped")
	}
	snap, isSnap := ev.(model.OrdersSnapshot)
	if !isSnap {
		t.Fatalf("event type = %T, want OrdersSnapshot", ev)
	}
	if len(snap.Orders) != 2 {
		t.Errorf("len(Orders) = %d, want 2", len(snap.Orders))
	}

	ev, ok = c.Classify(ordersFrame(t, "update", orderJSON("o3")), time.Now())
	if !ok {
		t.Fatal("orders update dropped")
	}
	upd, isUpd := ev.(model.OrdersUpdate)
	if !isUpd {
		t.Fatalf("event type = %T, want OrdersUpdate", ev)
	}
	if upd.Order.OrderID != "o3" {
		t.Errorf("OrderID = %q, want o3", upd.Order.OrderID)
	}
}

func TestClassify_OrdersSnapshotSiblingsSurvive(t *testing.T) {
	c := New("user-1", nil)

	ev, ok := c.Classify(ordersFrame(t, "snapshot",
		orderJSON("o1"),
		`{"orderId":"o2"}`,
		orderJSON("o3"),
	), time.Now())
	if !ok {
		t.Fatal("orders snapshot dropped")
	}
	if got := len(ev.(model.OrdersSnapshot).Orders); got != 2 {
		t.Errorf("len(Orders) = %d, want 2 survivors", got)
	}
}

func TestClassify_Ticker(t *testing.T) {
	c := New("user-1", nil)

	ev, ok := c.Classify(tickerFrame(t, tickerJSON("BTCUSDT")), time.Now())
	if !ok {
		t.Fatal("ticker dropped")
	}
	tick, isTick := ev.(model.Ticker)
	if !isTick {
		t.Fatalf("event type = %T, want Ticker", ev)
	}
	if tick.Quote.InstID != "BTCUSDT" || tick.Quote.LastPr != "65000" {
		t.Errorf("Quote = %+v", tick.Quote)
	}

	// Empty data produces nothing.
	if _, ok := c.Classify(tickerFrame(t), time.Now()); ok {
		t.Error("empty ticker frame classified, want drop")
	}
}

func TestClassify_UnknownChannel(t *testing.T) {
	c := New("user-1", nil)

	f, err := wire.Decode([]byte(`{"arg":{"channel":"candles"},"data":[{}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Classify(f, time.Now()); ok {
		t.Error("unknown channel classified, want drop")
	}
	if c.Stats().Unknown != 1 {
		t.Errorf("Unknown = %d, want 1", c.Stats().Unknown)
	}
}

func TestClassify_EventsCarryUser(t *testing.T) {
	c := New("user-42", nil)

	ev, ok := c.Classify(tickerFrame(t, tickerJSON("ETHUSDT")), time.Now())
	if !ok {
		t.Fatal("ticker dropped")
	}
	if ev.User() != "user-42" {
		t.Errorf("User() = %q, want user-42", ev.User())
	}
}
