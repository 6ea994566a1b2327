package api

import (
	"context"
	"fmt"
	"net/http"
)

// GetBalances lists the user's balances, one per currency.
func (c *Client) GetBalances(ctx context.Context) ([]Balance, error) {
	var balances []Balance
	if err := c.get(ctx, "/balances", &balances); err != nil {
		return nil, fmt.Errorf("fetching balances: %w", err)
	}
	return balances, nil
}

func (c *Client) GetBalance(ctx context.Context, id int) (*Balance, error) {
	var b Balance
	if err := c.get(ctx, fmt.Sprintf("/balances/%d", id), &b); err != nil {
		return nil, fmt.Errorf("fetching balance %d: %w", id, err)
	}
	return &b, nil
}

// GetBalanceHistory lists deposits, withdrawals and exchanges on a balance.
func (c *Client) GetBalanceHistory(ctx context.Context, id int) ([]BalanceHistory, error) {
	var history []BalanceHistory
	if err := c.get(ctx, fmt.Sprintf("/balances/history/%d", id), &history); err != nil {
		return nil, fmt.Errorf("fetching history for balance %d: %w", id, err)
	}
	return history, nil
}

// GetBalanceCurrencies lists the currency codes the user holds.
func (c *Client) GetBalanceCurrencies(ctx context.Context) ([]string, error) {
	var rows []struct {
		Currency string `json:"currency"`
	}
	if err := c.get(ctx, "/balances/currencies", &rows); err != nil {
		return nil, fmt.Errorf("fetching balance currencies: %w", err)
	}
	codes := make([]string, 0, len(rows))
	for _, r := range rows {
		codes = append(codes, r.Currency)
	}
	return codes, nil
}

func (c *Client) Deposit(ctx context.Context, amount float64, currency string) (*Balance, error) {
	return c.moveFunds(ctx, "/balances/deposit", amount, currency)
}

func (c *Client) Withdraw(ctx context.Context, amount float64, currency string) (*Balance, error) {
	return c.moveFunds(ctx, "/balances/withdraw", amount, currency)
}

func (c *Client) moveFunds(ctx context.Context, path string, amount float64, currency string) (*Balance, error) {
	var b Balance
	req := AmountRequest{Amount: amount, Currency: currency}
	if _, err := c.do(ctx, http.MethodPost, path, nil, req, &b); err != nil {
		return nil, fmt.Errorf("posting %s %.2f %s: %w", path, amount, currency, err)
	}
	return &b, nil
}

// ExchangeCurrency converts part of a balance into another currency.
func (c *Client) ExchangeCurrency(ctx context.Context, fromAmount float64, toCurrency string) error {
	req := ExchangeRequest{FromAmount: fromAmount, ToCurrency: toCurrency}
	if err := c.send(ctx, http.MethodPatch, "/balances/currency-exchange", req); err != nil {
		return fmt.Errorf("exchanging to %s: %w", toCurrency, err)
	}
	return nil
}

// PreviewExchange asks the server to price an exchange without executing it.
func (c *Client) PreviewExchange(ctx context.Context, req PreviewExchangeRequest) (*PreviewExchangeResponse, error) {
	var resp PreviewExchangeResponse
	if _, err := c.do(ctx, http.MethodPost, "/balances/preview-exchange", nil, req, &resp); err != nil {
		return nil, fmt.Errorf("previewing exchange: %w", err)
	}
	return &resp, nil
}
