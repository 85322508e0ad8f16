package rest

import (
	"context"
	"fmt"
	"net/url"

	"github.com/walletdesk/bitget-relay/internal/auth"
)

// EarnAsset is one entry of the earn account's holdings for a coin.
type EarnAsset struct {
	Coin            string `json:"coin"`
	AvailableAmount string `json:"availableAmount"`
	FrozenAmount    string `json:"frozenAmount"`
	Amount          string `json:"amount"`
	ProductType     string `json:"productType"`
}

// GetEarnAssets fetches the earn account assets for one coin. Amounts stay
// decimal strings; callers decide how to interpret them.
func (c *Client) GetEarnAssets(ctx context.Context, creds auth.Credentials, coin string) ([]EarnAsset, error) {
	path := "/api/v2/earn/account/assets?coin=" + url.QueryEscape(coin)

	var assets []EarnAsset
	if err := c.get(ctx, creds, path, &assets); err != nil {
		return nil, fmt.Errorf("get earn assets: %w", err)
	}

	return assets, nil
}
