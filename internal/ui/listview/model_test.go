package listview

import (
	"context"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fragmede/purse/internal/api"
	"github.com/fragmede/purse/internal/apitest"
	"github.com/fragmede/purse/internal/cache"
	"github.com/fragmede/purse/internal/config"
	"github.com/fragmede/purse/internal/router"
	"github.com/fragmede/purse/internal/session"
	"github.com/fragmede/purse/internal/ui/messages"
)

type fixture struct {
	srv   *apitest.Server
	model Model
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := apitest.New(t)
	u := &apitest.User{Password: "hunter2", SkipMFA: true}
	u.Email = "alice@example.com"
	u.Username = "alice"
	u.Balances = []api.Balance{
		{ID: 1, Balance: 100, Currency: "SGD"},
		{ID: 2, Balance: 20.5, Currency: "USD"},
	}
	u.Beneficiaries = []api.Beneficiary{
		{BeneficiaryID: 7, Username: "bob", MobileCountryCode: "+65", MobileNumber: "81112222", IsActive: 1},
		{BeneficiaryID: 8, Username: "carol", IsDeleted: 1},
	}
	srv.AddUser(u)

	db, err := cache.Open(filepath.Join(t.TempDir(), "purse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store, err := session.NewStore(db.Session(), zap.NewNop())
	require.NoError(t, err)

	client := api.NewClient(api.Options{BaseURL: srv.BaseURL(), Tokens: store})
	_, err = client.Login(context.Background(), "alice@example.com", "hunter2")
	require.NoError(t, err)

	m := New(config.Default(), client, db)
	m.SetSize(80, 24)
	return &fixture{srv: srv, model: m}
}

// show switches kind and applies the load result.
func (f *fixture) show(t *testing.T, kind Kind) {
	t.Helper()
	cmd := f.model.Show(kind, "alice")
	require.NotNil(t, cmd)
	f.model, _ = f.model.Update(cmd())
}

func TestBalancesLoadAndCache(t *testing.T) {
	f := newFixture(t)

	f.show(t, Balances)
	assert.False(t, f.model.Loading())
	require.Len(t, f.model.Items(), 2)
	assert.Equal(t, 1, f.srv.Hits("/balances"))

	f.show(t, Balances)
	assert.Equal(t, 1, f.srv.Hits("/balances"), "fresh cache avoids a second request")

	f.model, _ = f.model.Update(f.model.Refresh()())
	assert.Equal(t, 2, f.srv.Hits("/balances"))
}

func TestStaleCopyWhenServerUnreachable(t *testing.T) {
	f := newFixture(t)
	f.show(t, Balances)

	f.srv.Close()
	msg := f.model.Refresh()()
	loaded, ok := msg.(messages.BalancesLoadedMsg)
	require.True(t, ok, "got %T", msg)
	assert.NoError(t, loaded.Err)
	assert.True(t, loaded.Stale)
	assert.Len(t, loaded.Balances, 2)
}

func TestDeletedBeneficiariesHidden(t *testing.T) {
	f := newFixture(t)
	f.show(t, Beneficiaries)

	items := f.model.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].(BeneficiaryItem).BeneficiaryID)
}

func TestBalanceKeys(t *testing.T) {
	f := newFixture(t)
	f.show(t, Balances)

	_, cmd := f.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.NavigateMsg{Route: router.Balance, Params: map[string]string{"id": "1"}}, cmd())

	_, cmd = f.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.OpenFormMsg{Form: FormExchange, Params: map[string]string{"currency": "SGD"}}, cmd())
}

func TestBeneficiaryEnterOpensTransfer(t *testing.T) {
	f := newFixture(t)
	f.show(t, Beneficiaries)

	_, cmd := f.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.NavigateMsg{
		Route:  router.Transfer,
		Params: map[string]string{"country_code": "+65", "mobile": "81112222"},
	}, cmd())

	_, cmd = f.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.OpenFormMsg{Form: FormAddBeneficiary}, cmd())
}

func TestDashboardHeader(t *testing.T) {
	f := newFixture(t)
	f.show(t, Home)

	view := f.model.View()
	assert.Contains(t, view, "2 balances")
	assert.Contains(t, view, "1 beneficiaries")
	assert.Len(t, f.model.Items(), 2)
}

func TestLoadResultForOtherKindIgnored(t *testing.T) {
	f := newFixture(t)
	f.show(t, Wallets)

	f.model, _ = f.model.Update(messages.BalancesLoadedMsg{Balances: []api.Balance{{ID: 9}}})
	assert.Empty(t, f.model.Items())
}
