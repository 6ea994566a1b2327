package listview

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/purse/internal/api"
	"github.com/fragmede/purse/internal/cache"
	"github.com/fragmede/purse/internal/config"
	"github.com/fragmede/purse/internal/format"
	"github.com/fragmede/purse/internal/router"
	"github.com/fragmede/purse/internal/ui/messages"
)

// Form ids opened from list views.
const (
	FormDeposit           = "deposit"
	FormWithdraw          = "withdraw"
	FormExchange          = "exchange"
	FormAddBeneficiary    = "add-beneficiary"
	FormRemoveBeneficiary = "remove-beneficiary"
	FormTopUp             = "topup"
	FormCashOut           = "cashout"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282")).Padding(0, 2)
	staleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0C060"))
)

// Kind selects what the list shows.
type Kind int

const (
	Home Kind = iota
	Balances
	Wallets
	Beneficiaries
)

func (k Kind) String() string {
	switch k {
	case Home:
		return "Dashboard"
	case Balances:
		return "Balances"
	case Wallets:
		return "Wallets"
	case Beneficiaries:
		return "Beneficiaries"
	}
	return "Purse"
}

// Model is the list view shared by the dashboard, balances, wallets and
// beneficiaries routes.
type Model struct {
	list    list.Model
	kind    Kind
	owner   string
	client  *api.Client
	cache   *cache.DB
	cfg     config.Config
	header  string
	stale   bool
	loading bool
	width   int
	height  int
}

func New(cfg config.Config, client *api.Client, db *cache.DB) Model {
	l := list.New(nil, Delegate{}, 0, 0)
	l.Title = "Purse"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)

	return Model{
		list:   l,
		client: client,
		cache:  db,
		cfg:    cfg,
	}
}

// Show switches the list to kind for owner and starts loading it.
func (m *Model) Show(kind Kind, owner string) tea.Cmd {
	if kind != m.kind || owner != m.owner {
		m.list.SetItems(nil)
		m.header = ""
	}
	m.kind = kind
	m.owner = owner
	m.loading = true
	m.list.Title = kind.String() + " (loading...)"
	return m.load(false)
}

// Refresh reloads the current list, bypassing the cache.
func (m *Model) Refresh() tea.Cmd {
	m.loading = true
	m.list.Title = m.kind.String() + " (refreshing...)"
	return m.load(true)
}

func (m Model) Kind() Kind          { return m.kind }
func (m Model) Loading() bool       { return m.loading }
func (m Model) Items() []list.Item  { return m.list.Items() }
func (m Model) Filtering() bool     { return m.list.FilterState() == list.Filtering }
func (m Model) Selected() list.Item { return m.list.SelectedItem() }

// SetSize updates the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.list.SetSize(w, h-m.headerHeight())
}

func (m Model) headerHeight() int {
	if m.header == "" {
		return 0
	}
	return lipgloss.Height(m.header) + 1
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.DashboardLoadedMsg:
		if m.kind != Home {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "Error: " + describe(msg.Err)
			return m, nil
		}
		m.stale = msg.Stale
		m.header = dashboardHeader(msg.Dashboard)
		m.SetSize(m.width, m.height)
		m.setItems(rows(balanceItems(msg.Dashboard.Balances)))
		return m, nil

	case messages.BalancesLoadedMsg:
		if m.kind != Balances {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "Error: " + describe(msg.Err)
			return m, nil
		}
		m.stale = msg.Stale
		m.setItems(rows(balanceItems(msg.Balances)))
		return m, nil

	case messages.WalletsLoadedMsg:
		if m.kind != Wallets {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "Error: " + describe(msg.Err)
			return m, nil
		}
		m.stale = msg.Stale
		items := make([]list.Item, len(msg.Wallets))
		for i, w := range msg.Wallets {
			items[i] = WalletItem{Wallet: w}
		}
		m.setItems(items)
		return m, nil

	case messages.BeneficiariesLoadedMsg:
		if m.kind != Beneficiaries {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "Error: " + describe(msg.Err)
			return m, nil
		}
		m.stale = msg.Stale
		m.setItems(rows(beneficiaryItems(msg.Beneficiaries)))
		return m, nil

	case messages.FormResultMsg:
		if msg.Form == FormRemoveBeneficiary {
			if msg.Err != nil {
				return m, status("Remove failed: "+describe(msg.Err), true)
			}
			return m, tea.Batch(status(msg.Status, false), m.Refresh())
		}

	case tea.KeyMsg:
		if m.Filtering() {
			break
		}
		if cmd, ok := m.handleKey(msg.String()); ok {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(k string) (tea.Cmd, bool) {
	switch k {
	case "r", "ctrl+r":
		return m.Refresh(), true
	}

	switch item := m.list.SelectedItem().(type) {
	case BalanceItem:
		switch k {
		case "enter":
			return navigate(router.Balance, map[string]string{"id": strconv.Itoa(item.ID)}), true
		case "d":
			return openForm(FormDeposit, map[string]string{"currency": item.Currency}), true
		case "w":
			return openForm(FormWithdraw, map[string]string{"currency": item.Currency}), true
		case "x":
			return openForm(FormExchange, map[string]string{"currency": item.Currency}), true
		}
	case WalletItem:
		id := map[string]string{"id": strconv.Itoa(item.ID)}
		switch k {
		case "t":
			return openForm(FormTopUp, id), true
		case "c":
			return openForm(FormCashOut, id), true
		}
	case BeneficiaryItem:
		switch k {
		case "enter":
			return navigate(router.Transfer, map[string]string{
				"country_code": item.MobileCountryCode,
				"mobile":       item.MobileNumber,
			}), true
		case "D":
			return m.removeBeneficiary(item), true
		}
	}

	switch {
	case k == "a" && m.kind == Beneficiaries:
		return openForm(FormAddBeneficiary, nil), true
	case k == "d" && (m.kind == Balances || m.kind == Home):
		return openForm(FormDeposit, nil), true
	}
	return nil, false
}

func (m Model) removeBeneficiary(item BeneficiaryItem) tea.Cmd {
	client, db, owner := m.client, m.cache, m.owner
	return func() tea.Msg {
		err := client.UpdateBeneficiary(context.Background(), item.BeneficiaryID, true)
		if err == nil {
			db.InvalidateListing(owner, cache.KindBeneficiaries)
		}
		return messages.FormResultMsg{
			Form:   FormRemoveBeneficiary,
			Status: "Removed " + item.Title(),
			Err:    err,
		}
	}
}

func (m *Model) setItems(items []list.Item) {
	m.list.SetItems(items)
	m.list.Title = m.kind.String()
	if m.stale {
		m.list.Title += staleStyle.Render(" (offline copy)")
	}
	if len(items) == 0 {
		m.list.Title += " (none)"
	}
}

func (m Model) View() string {
	if m.header == "" {
		return m.list.View()
	}
	return headerStyle.Render(m.header) + "\n" + m.list.View()
}

func (m Model) load(force bool) tea.Cmd {
	client, db, cfg, owner := m.client, m.cache, m.cfg, m.owner

	switch m.kind {
	case Home:
		return func() tea.Msg {
			return loadDashboard(client, db, owner)
		}
	case Balances:
		return func() tea.Msg {
			v, stale, err := cached(db, owner, cache.KindBalances, cfg.BalanceTTL, force, client.GetBalances)
			return messages.BalancesLoadedMsg{Balances: v, Stale: stale, Err: err}
		}
	case Wallets:
		return func() tea.Msg {
			v, stale, err := cached(db, owner, cache.KindWallets, cfg.WalletTTL, force, client.GetWallets)
			return messages.WalletsLoadedMsg{Wallets: v, Stale: stale, Err: err}
		}
	case Beneficiaries:
		return func() tea.Msg {
			v, stale, err := cached(db, owner, cache.KindBeneficiaries, cfg.BeneficiaryTTL, force, client.GetBeneficiaries)
			return messages.BeneficiariesLoadedMsg{Beneficiaries: v, Stale: stale, Err: err}
		}
	}
	return nil
}

// cached serves a fresh cached listing, otherwise fetches and stores it.
// When the fetch fails for any reason other than an expired session, the
// last cached copy is returned marked stale.
func cached[T any](db *cache.DB, owner, kind string, ttl time.Duration, force bool, fetch func(context.Context) (T, error)) (T, bool, error) {
	var saved T
	found, fresh, _ := db.GetListing(owner, kind, ttl, &saved)
	if found && fresh && !force {
		return saved, false, nil
	}

	v, err := fetch(context.Background())
	if err != nil {
		if found && !errors.Is(err, api.ErrUnauthorized) {
			return saved, true, nil
		}
		var zero T
		return zero, false, err
	}
	db.PutListing(owner, kind, v)
	return v, false, nil
}

func loadDashboard(client *api.Client, db *cache.DB, owner string) messages.DashboardLoadedMsg {
	d, err := client.GetDashboard(context.Background())
	if err != nil {
		return messages.DashboardLoadedMsg{Err: err}
	}

	stale := false
	if d.Errors["balances"] != nil {
		var saved []api.Balance
		if found, _, _ := db.GetListing(owner, cache.KindBalances, 0, &saved); found {
			d.Balances = saved
			stale = true
		}
	} else {
		db.PutListing(owner, cache.KindBalances, d.Balances)
	}
	if d.Errors["wallets"] == nil {
		db.PutListing(owner, cache.KindWallets, d.Wallets)
	}
	if d.Errors["beneficiaries"] == nil {
		db.PutListing(owner, cache.KindBeneficiaries, d.Beneficiaries)
	}
	return messages.DashboardLoadedMsg{Dashboard: d, Stale: stale}
}

func dashboardHeader(d *api.Dashboard) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s balances · %s wallets · %s beneficiaries",
		format.Count(len(d.Balances)), format.Count(len(d.Wallets)), format.Count(len(beneficiaryItems(d.Beneficiaries))))
	for _, name := range []string{"balances", "wallets", "beneficiaries"} {
		if err := d.Errors[name]; err != nil {
			fmt.Fprintf(&sb, "\n%s unavailable: %s", name, describe(err))
		}
	}
	return sb.String()
}

func rows[T list.Item](items []T) []list.Item {
	out := make([]list.Item, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

func describe(err error) string {
	if msg := api.Message(err); msg != "" {
		return msg
	}
	return err.Error()
}

func navigate(route router.Name, params map[string]string) tea.Cmd {
	return func() tea.Msg { return messages.NavigateMsg{Route: route, Params: params} }
}

func openForm(id string, params map[string]string) tea.Cmd {
	return func() tea.Msg { return messages.OpenFormMsg{Form: id, Params: params} }
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg { return messages.StatusMsg{Text: text, IsError: isErr} }
}
