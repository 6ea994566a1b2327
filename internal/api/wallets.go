package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// GetWallets lists the user's wallets. A user with no wallets gets an empty
// slice; the server reports that case as 404.
func (c *Client) GetWallets(ctx context.Context) ([]Wallet, error) {
	var wallets []Wallet
	if err := c.get(ctx, "/wallet/all", &wallets); err != nil {
		if errors.Is(err, ErrNotFound) {
			return []Wallet{}, nil
		}
		return nil, fmt.Errorf("fetching wallets: %w", err)
	}
	return wallets, nil
}

func (c *Client) GetWallet(ctx context.Context, id int) (*Wallet, error) {
	var w Wallet
	if err := c.get(ctx, fmt.Sprintf("/wallet/%d", id), &w); err != nil {
		return nil, fmt.Errorf("fetching wallet %d: %w", id, err)
	}
	return &w, nil
}

func (c *Client) GetWalletTypes(ctx context.Context) ([]WalletType, error) {
	var types []WalletType
	if err := c.get(ctx, "/wallet/types", &types); err != nil {
		return nil, fmt.Errorf("fetching wallet types: %w", err)
	}
	return types, nil
}

// CreateWallet opens a wallet funded from the user's balance.
func (c *Client) CreateWallet(ctx context.Context, req CreateWalletRequest) error {
	if err := c.send(ctx, http.MethodPost, "/wallet", req); err != nil {
		return fmt.Errorf("creating %s wallet: %w", req.Type, err)
	}
	return nil
}

// UpdateWallet tops up or cashes out a wallet. operation is WalletTopUp or
// WalletCashOut.
func (c *Client) UpdateWallet(ctx context.Context, id int, operation string, amounts []WalletAmount) (*Wallet, error) {
	if operation != WalletTopUp && operation != WalletCashOut {
		return nil, fmt.Errorf("unknown wallet operation %q", operation)
	}
	var w Wallet
	path := fmt.Sprintf("/wallet/update/%d/%s", id, operation)
	if _, err := c.do(ctx, http.MethodPut, path, nil, UpdateWalletRequest{CurrencyAmount: amounts}, &w); err != nil {
		return nil, fmt.Errorf("updating wallet %d: %w", id, err)
	}
	return &w, nil
}
