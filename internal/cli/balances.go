package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fragmede/purse/internal/api"
	"github.com/fragmede/purse/internal/cache"
	"github.com/fragmede/purse/internal/currency"
	"github.com/fragmede/purse/internal/format"
	"github.com/fragmede/purse/internal/session"
)

// NewBalancesCommand prints the user's balances, served from the listing
// cache while it is fresh.
func NewBalancesCommand(rootOpts *RootOptions) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:           "balances",
		Short:         "List balances",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			if !e.store.IsLoggedIn() {
				return fmt.Errorf("%w, run purse login", session.ErrNotLoggedIn)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			balances, stale, err := loadBalances(ctx, e, refresh)
			if err != nil {
				return err
			}
			renderBalances(cmd.OutOrStdout(), balances)
			if stale {
				fmt.Fprintln(cmd.ErrOrStderr(), "(offline, showing cached balances)")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "skip the cache")

	return cmd
}

func loadBalances(ctx context.Context, e *env, refresh bool) ([]api.Balance, bool, error) {
	owner := e.store.Profile().Username
	var cached []api.Balance
	found, fresh, err := e.db.GetListing(owner, cache.KindBalances, e.cfg.BalanceTTL, &cached)
	if err != nil {
		e.log.Warn("reading cached balances", zap.Error(err))
	}
	if found && fresh && !refresh {
		return cached, false, nil
	}

	balances, err := e.client.GetBalances(ctx)
	if err != nil {
		if found && !errors.Is(err, api.ErrUnauthorized) {
			return cached, true, nil
		}
		if errors.Is(err, api.ErrUnauthorized) {
			return nil, false, errors.New("session expired, run purse login")
		}
		return nil, false, fmt.Errorf("loading balances: %s", api.Message(err))
	}
	if err := e.db.PutListing(owner, cache.KindBalances, balances); err != nil {
		e.log.Warn("caching balances", zap.Error(err))
	}
	return balances, false, nil
}

func renderBalances(w io.Writer, balances []api.Balance) {
	if len(balances) == 0 {
		fmt.Fprintln(w, "No balances yet.")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "CURRENCY", "BALANCE", "UPDATED")
	for _, b := range balances {
		t.Row(strconv.Itoa(b.ID), format.CurrencyName(b.Currency), format.Money(b.Balance, ""), format.Date(b.UpdatedAt))
	}
	fmt.Fprintln(w, t.Render())
}

// NewConvertCommand prices a conversion locally from the rate table.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "convert AMOUNT FROM TO",
		Short:         "Quote a currency conversion",
		Example:       "  purse convert 100 USD SGD",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil || amount <= 0 {
				return fmt.Errorf("invalid amount %q", args[0])
			}
			q, err := currency.NewQuote(amount, args[1], args[2])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s = %s\n", format.Money(q.Amount, q.From), format.Money(q.Converted, q.To))
			fmt.Fprintf(out, "Rate:     1 %s = %s %s\n", q.From, strconv.FormatFloat(q.Rate, 'f', -1, 64), q.To)
			fmt.Fprintf(out, "Fee:      %s\n", format.Money(q.Fee, q.To))
			fmt.Fprintf(out, "Received: %s\n", format.Money(q.Received, q.To))
			return nil
		},
	}
}
