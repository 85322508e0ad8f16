package wallet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/walletdesk/bitget-relay/internal/auth"
	"github.com/walletdesk/bitget-relay/internal/model"
)

// Store persists tokens and wallet-coin rows in Postgres.
type Store struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a Store on an existing pool.
func NewStore(db *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// UpsertToken looks up or creates the token row for an asset ticker.
func (s *Store) UpsertToken(ctx context.Context, ticker string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx, `
		INSERT INTO tokens (id, name, ticker)
		VALUES ($1, $2, $2)
		ON CONFLICT (ticker) DO UPDATE SET updated_at = now()
		RETURNING id`,
		uuid.New(), ticker,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert token %s: %w", ticker, err)
	}
	return id, nil
}

// UpsertWalletCoin writes one balance observation, keyed by (user, token).
func (s *Store) UpsertWalletCoin(ctx context.Context, userID string, tokenID uuid.UUID, coin model.Coin) (model.WalletRow, error) {
	var row model.WalletRow
	err := s.db.QueryRow(ctx, `
		INSERT INTO wallet_coins
			(id, user_id, token_id, token, available, frozen, locked, limit_available, u_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, token_id) DO UPDATE SET
			available       = EXCLUDED.available,
			frozen          = EXCLUDED.frozen,
			locked          = EXCLUDED.locked,
			limit_available = EXCLUDED.limit_available,
			u_time          = EXCLUDED.u_time,
			updated_at      = now()
		RETURNING id, user_id, token_id, token, available, frozen, locked, limit_available, u_time`,
		uuid.New(), userID, tokenID, coin.Coin,
		coin.Available, coin.Frozen, coin.Locked, coin.LimitAvailable, coin.UpdatedAt,
	).Scan(
		&row.ID, &row.UserID, &row.TokenID, &row.Token,
		&row.Available, &row.Frozen, &row.Locked, &row.LimitAvailable, &row.UpdatedAt,
	)
	if err != nil {
		return model.WalletRow{}, fmt.Errorf("upsert wallet coin %s/%s: %w", userID, coin.Coin, err)
	}
	return row, nil
}

// ListWallet returns a user's wallet rows ordered by token symbol.
func (s *Store) ListWallet(ctx context.Context, userID string) ([]model.WalletRow, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, token_id, token, available, frozen, locked, limit_available, u_time
		FROM wallet_coins
		WHERE user_id = $1
		ORDER BY token`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list wallet %s: %w", userID, err)
	}
	defer rows.Close()

	var out []model.WalletRow
	for rows.Next() {
		var r model.WalletRow
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.TokenID, &r.Token,
			&r.Available, &r.Frozen, &r.Locked, &r.LimitAvailable, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan wallet row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet rows: %w", err)
	}
	return out, nil
}

// UserIDByStreamToken resolves a bearer token to its user. Tokens are
// stored as SHA-256 hex digests; issuance lives outside this process.
func (s *Store) UserIDByStreamToken(ctx context.Context, token string) (string, error) {
	digest := sha256.Sum256([]byte(token))

	var userID string
	err := s.db.QueryRow(ctx, `
		SELECT user_id
		FROM stream_tokens
		WHERE token_hash = $1 AND (expires_at IS NULL OR expires_at > now())`,
		hex.EncodeToString(digest[:]),
	).Scan(&userID)
	if err != nil {
		return "", fmt.Errorf("lookup stream token: %w", err)
	}
	return userID, nil
}

// GetCredentials reads a user's encrypted venue credentials. Decryption is
// the caller's job via auth.Cipher.
func (s *Store) GetCredentials(ctx context.Context, userID string) (auth.EncryptedCredentials, error) {
	var enc auth.EncryptedCredentials
	err := s.db.QueryRow(ctx, `
		SELECT api_key, api_secret, passphrase
		FROM user_credentials
		WHERE user_id = $1`,
		userID,
	).Scan(&enc.APIKey, &enc.Secret, &enc.Passphrase)
	if err != nil {
		return auth.EncryptedCredentials{}, fmt.Errorf("get credentials %s: %w", userID, err)
	}
	return enc, nil
}
