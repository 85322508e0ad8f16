package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/walletdesk/bitget-relay/internal/model"
)

// fakeStore implements StoreAPI in memory.
type fakeStore struct {
	mu       sync.Mutex
	tokens   map[string]uuid.UUID
	rows     map[string]map[uuid.UUID]model.WalletRow // userID → tokenID → row
	failList bool
	failCoin string // UpsertToken fails for this ticker
	upserts  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tokens: make(map[string]uuid.UUID),
		rows:   make(map[string]map[uuid.UUID]model.WalletRow),
	}
}

func (f *fakeStore) UpsertToken(ctx context.Context, ticker string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ticker == f.failCoin {
		return uuid.Nil, errors.New("token upsert failed")
	}
	id, ok := f.tokens[ticker]
	if !ok {
		id = uuid.New()
		f.tokens[ticker] = id
	}
	return id, nil
}

func (f *fakeStore) UpsertWalletCoin(ctx context.Context, userID string, tokenID uuid.UUID, coin model.Coin) (model.WalletRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++

	byToken, ok := f.rows[userID]
	if !ok {
		byToken = make(map[uuid.UUID]model.WalletRow)
		f.rows[userID] = byToken
	}
	row := model.WalletRow{
		ID:             uuid.New(),
		UserID:         userID,
		TokenID:        tokenID,
		Token:          coin.Coin,
		Available:      coin.Available,
		Frozen:         coin.Frozen,
		Locked:         coin.Locked,
		LimitAvailable: coin.LimitAvailable,
		UpdatedAt:      coin.UpdatedAt,
	}
	byToken[tokenID] = row
	return row, nil
}

func (f *fakeStore) ListWallet(ctx context.Context, userID string) ([]model.WalletRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList {
		return nil, errors.New("list failed")
	}
	var out []model.WalletRow
	for _, row := range f.rows[userID] {
		out = append(out, row)
	}
	return out, nil
}

func coin(symbol, available string) model.Coin {
	return model.Coin{
		Coin:      symbol,
		Available: decimal.RequireFromString(available),
		UpdatedAt: time.Now().UTC(),
	}
}

func TestReconciler_SnapshotUpsertsAllCoins(t *testing.T) {
	store := newFakeStore()

	var published []model.WalletRow
	rec := NewReconciler(store, func(userID string, rows []model.WalletRow) {
		published = rows
	}, nil)

	rec.Apply(context.Background(), model.AccountSnapshot{
		UserID: "user-1",
		Coins:  []model.Coin{coin("BTC", "1.5"), coin("ETH", "10")},
	})

	if store.upserts != 2 {
		t.Errorf("upserts = %d, want 2", store.upserts)
	}
	if len(published) != 2 {
		t.Errorf("published rows = %d, want 2", len(published))
	}
}

func TestReconciler_UpdateIsIdempotent(t *testing.T) {
	store := newFakeStore()
	rec := NewReconciler(store, nil, nil)

	// Applying the same update twice must converge to one row.
	for i := 0; i < 2; i++ {
		rec.Apply(context.Background(), model.AccountUpdate{
			UserID: "user-1",
			Coin:   coin("BTC", "2.0"),
		})
	}

	rows, err := store.ListWallet(context.Background(), "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Available.String() != "2" {
		t.Errorf("Available = %s, want 2", rows[0].Available)
	}
}

func TestReconciler_TokenFailureSkipsCoinOnly(t *testing.T) {
	store := newFakeStore()
	store.failCoin = "ETH"

	var published []model.WalletRow
	rec := NewReconciler(store, func(userID string, rows []model.WalletRow) {
		published = rows
	}, nil)

	rec.Apply(context.Background(), model.AccountSnapshot{
		UserID: "user-1",
		Coins:  []model.Coin{coin("BTC", "1"), coin("ETH", "2"), coin("SOL", "3")},
	})

	// ETH failed, BTC and SOL still landed and the view was republished.
	if store.upserts != 2 {
		t.Errorf("upserts = %d, want 2", store.upserts)
	}
	if len(published) != 2 {
		t.Errorf("published rows = %d, want 2", len(published))
	}
}

func TestReconciler_ListFailureSkipsRepublish(t *testing.T) {
	store := newFakeStore()
	store.failList = true

	calls := 0
	rec := NewReconciler(store, func(userID string, rows []model.WalletRow) {
		calls++
	}, nil)

	rec.Apply(context.Background(), model.AccountUpdate{UserID: "user-1", Coin: coin("BTC", "1")})

	if calls != 0 {
		t.Errorf("publish calls = %d, want 0 on list failure", calls)
	}
	// The upsert itself still happened.
	if store.upserts != 1 {
		t.Errorf("upserts = %d, want 1", store.upserts)
	}
}

func TestReconciler_OrdersAreNotPersisted(t *testing.T) {
	store := newFakeStore()
	calls := 0
	rec := NewReconciler(store, func(string, []model.WalletRow) { calls++ }, nil)

	rec.Apply(context.Background(), model.OrdersSnapshot{UserID: "user-1"})
	rec.Apply(context.Background(), model.OrdersUpdate{UserID: "user-1"})

	if store.upserts != 0 || calls != 0 {
		t.Errorf("upserts = %d, publishes = %d; want 0, 0", store.upserts, calls)
	}
}

func TestTickerIDs(t *testing.T) {
	rows := []model.WalletRow{
		{Token: "BTC"},
		{Token: "USDT"}, // quote asset skipped
		{Token: "ETH"},
		{Token: "BTC"}, // duplicate skipped
		{Token: ""},
	}

	got := TickerIDs(rows)
	want := []string{"BTCUSDT", "ETHUSDT"}
	if len(got) != len(want) {
		t.Fatalf("TickerIDs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TickerIDs[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
