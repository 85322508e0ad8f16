package wallet

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/walletdesk/bitget-relay/internal/model"
)

// StoreAPI is the persistence contract the reconciler consumes.
type StoreAPI interface {
	UpsertToken(ctx context.Context, ticker string) (uuid.UUID, error)
	UpsertWalletCoin(ctx context.Context, userID string, tokenID uuid.UUID, coin model.Coin) (model.WalletRow, error)
	ListWallet(ctx context.Context, userID string) ([]model.WalletRow, error)
}

// Publisher receives the re-read wallet view after each reconciliation.
type Publisher func(userID string, rows []model.WalletRow)

// Reconciler applies account truth to the Store and republishes the
// resulting wallet view. It implements dispatch.Reconciler.
type Reconciler struct {
	store   StoreAPI
	publish Publisher
	logger  *slog.Logger
}

// NewReconciler creates a Reconciler. publish may be nil.
func NewReconciler(store StoreAPI, publish Publisher, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, publish: publish, logger: logger}
}

// Apply upserts an account event into storage. Errors are logged; the event
// has already been fanned out, so the user still sees fresh data even when
// the durable write failed.
func (r *Reconciler) Apply(ctx context.Context, ev model.Event) {
	switch e := ev.(type) {
	case model.AccountSnapshot:
		for _, coin := range e.Coins {
			r.applyCoin(ctx, e.UserID, coin)
		}
		r.republish(ctx, e.UserID)

	case model.AccountUpdate:
		r.applyCoin(ctx, e.UserID, e.Coin)
		r.republish(ctx, e.UserID)

	case model.OrdersSnapshot, model.OrdersUpdate:
		// Orders are fanned out live but have no durable contract.
		r.logger.Debug("orders event observed", "user", ev.User(), "kind", ev.Kind())
	}
}

// applyCoin runs the lookup-or-create + upsert sequence for one balance.
// The two statements are not transactionally atomic (accepted risk).
func (r *Reconciler) applyCoin(ctx context.Context, userID string, coin model.Coin) {
	tokenID, err := r.store.UpsertToken(ctx, coin.Coin)
	if err != nil {
		r.logger.Error("upsert token failed", "user", userID, "coin", coin.Coin, "error", err)
		return
	}

	if _, err := r.store.UpsertWalletCoin(ctx, userID, tokenID, coin); err != nil {
		r.logger.Error("upsert wallet coin failed", "user", userID, "coin", coin.Coin, "error", err)
	}
}

func (r *Reconciler) republish(ctx context.Context, userID string) {
	if r.publish == nil {
		return
	}

	rows, err := r.store.ListWallet(ctx, userID)
	if err != nil {
		r.logger.Error("list wallet failed", "user", userID, "error", err)
		return
	}
	r.publish(userID, rows)
}
