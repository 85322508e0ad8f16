package wallet

import "github.com/walletdesk/bitget-relay/internal/model"

// quoteAsset is the quote currency ticker instruments are derived against.
const quoteAsset = "USDT"

// TickerIDs derives the public ticker instrument IDs for a wallet listing,
// one per held token quoted in USDT. The quote asset itself is skipped.
// Computed once at stream-open time; mid-session additions go through
// Manager.SubscribeTicker explicitly.
func TickerIDs(rows []model.WalletRow) []string {
	ids := make([]string, 0, len(rows))
	seen := make(map[string]struct{})

	for _, row := range rows {
		if row.Token == "" || row.Token == quoteAsset {
			continue
		}
		id := row.Token + quoteAsset
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
