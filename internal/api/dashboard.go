package api

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

const maxConcurrent = 3

// Dashboard is everything the home view shows, fetched in one go.
type Dashboard struct {
	Balances      []Balance
	Wallets       []Wallet
	Beneficiaries []Beneficiary
	// Errors holds per-section failures that did not abort the fetch.
	Errors map[string]error
}

// GetDashboard fetches balances, wallets and beneficiaries concurrently.
// Only an unauthorized response fails the whole call; other section errors
// are reported in Dashboard.Errors so the rest can still render.
func (c *Client) GetDashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{Errors: map[string]error{}}
	var (
		balErr, walErr, benErr error
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	g.Go(func() error {
		d.Balances, balErr = c.GetBalances(ctx)
		return fatal(balErr)
	})
	g.Go(func() error {
		d.Wallets, walErr = c.GetWallets(ctx)
		return fatal(walErr)
	})
	g.Go(func() error {
		d.Beneficiaries, benErr = c.GetBeneficiaries(ctx)
		return fatal(benErr)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	for name, err := range map[string]error{"balances": balErr, "wallets": walErr, "beneficiaries": benErr} {
		if err != nil {
			d.Errors[name] = err
		}
	}
	return d, nil
}

func fatal(err error) error {
	if errors.Is(err, ErrUnauthorized) {
		return err
	}
	return nil
}
