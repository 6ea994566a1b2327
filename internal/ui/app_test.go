package ui

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fragmede/purse/internal/api"
	"github.com/fragmede/purse/internal/apitest"
	"github.com/fragmede/purse/internal/cache"
	"github.com/fragmede/purse/internal/config"
	"github.com/fragmede/purse/internal/monitor"
	"github.com/fragmede/purse/internal/router"
	"github.com/fragmede/purse/internal/session"
	"github.com/fragmede/purse/internal/ui/messages"
)

type harness struct {
	srv    *apitest.Server
	app    *App
	client *api.Client
	store  *session.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := apitest.New(t)
	u := &apitest.User{Password: "hunter2", SkipMFA: true}
	u.FirstName = "Alice"
	u.Email = "alice@example.com"
	u.Username = "alice"
	u.Balances = []api.Balance{{ID: 1, Balance: 10, Currency: "SGD"}}
	srv.AddUser(u)

	db, err := cache.Open(filepath.Join(t.TempDir(), "purse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store, err := session.NewStore(db.Session(), zap.NewNop())
	require.NoError(t, err)

	cfg := config.Default()
	cfg.APIURL = srv.BaseURL()
	client := api.NewClient(api.Options{BaseURL: srv.BaseURL(), Timeout: 5 * time.Second, Tokens: store})
	mon := monitor.New(client, db, time.Hour, cfg.PageSize, zap.NewNop())
	t.Cleanup(mon.Stop)

	app := NewApp(Deps{Config: cfg, Client: client, Cache: db, Session: store, Monitor: mon})
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return &harness{srv: srv, app: app, client: client, store: store}
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	resp, err := h.client.Login(context.Background(), "alice@example.com", "hunter2")
	require.NoError(t, err)
	require.NoError(t, h.store.Login(resp.Profile()))
}

// send delivers msg and, when the reply is a guard decision, applies it.
func (h *harness) send(t *testing.T, msg tea.Msg) {
	t.Helper()
	_, cmd := h.app.Update(msg)
	if cmd == nil {
		return
	}
	if res, ok := cmd().(messages.GuardResultMsg); ok {
		h.app.Update(res)
	}
}

func guardResult(t *testing.T, cmd tea.Cmd) messages.GuardResultMsg {
	t.Helper()
	require.NotNil(t, cmd)
	res, ok := cmd().(messages.GuardResultMsg)
	require.True(t, ok)
	return res
}

func TestSignedOutStartGoesToLogin(t *testing.T) {
	h := newHarness(t)

	res := guardResult(t, h.app.Init())
	assert.Equal(t, router.DenyLogin, res.Decision.Outcome)
	h.app.Update(res)
	assert.Equal(t, router.Login, h.app.Active())
	assert.Equal(t, 0, h.srv.Hits("/users/me"), "no revalidation without a local session")
}

func TestSignedInStartShowsDashboard(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	h.app.Update(guardResult(t, h.app.Init()))
	assert.Equal(t, router.Home, h.app.Active())
	assert.Equal(t, 1, h.srv.Hits("/users/me"))
	assert.True(t, h.app.live)
}

func TestStartPathOpensMatchedRoute(t *testing.T) {
	h := newHarness(t)
	h.app.start = "/password-reset/tok123"

	h.app.Update(guardResult(t, h.app.Init()))
	assert.Equal(t, router.PasswordReset, h.app.Active())
	assert.Equal(t, "tok123", h.app.params["token"])
}

func TestStartPathIsGuarded(t *testing.T) {
	h := newHarness(t)
	h.app.start = "/balances/1"

	h.app.Update(guardResult(t, h.app.Init()))
	assert.Equal(t, router.Login, h.app.Active(), "protected start path still needs a session")

	h = newHarness(t)
	h.signIn(t)
	h.app.start = "/balances/1"
	h.app.Update(guardResult(t, h.app.Init()))
	assert.Equal(t, router.Balance, h.app.Active())
	assert.Equal(t, "1", h.app.params["id"])
}

func TestUnknownStartPathFallsBackToHome(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.app.start = "/nowhere"

	h.app.Update(guardResult(t, h.app.Init()))
	assert.Equal(t, router.Home, h.app.Active())
}

func TestStaleDecisionDropped(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.send(t, guardResult(t, h.app.Init()))
	require.Equal(t, router.Home, h.app.Active())

	_, first := h.app.Update(messages.NavigateMsg{Route: router.Wallets})
	_, second := h.app.Update(messages.NavigateMsg{Route: router.Balances})

	firstRes := guardResult(t, first)
	secondRes := guardResult(t, second)

	h.app.Update(firstRes)
	assert.Equal(t, router.Home, h.app.Active(), "superseded transition must not apply")

	h.app.Update(secondRes)
	assert.Equal(t, router.Balances, h.app.Active())
}

func TestExpiredSessionDeniedOnNavigation(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.send(t, guardResult(t, h.app.Init()))
	require.True(t, h.app.live)

	h.srv.ExpireSessions()
	h.send(t, messages.NavigateMsg{Route: router.Balances})

	assert.Equal(t, router.Login, h.app.Active())
	assert.False(t, h.store.IsLoggedIn())
	assert.False(t, h.app.live)
}

func TestLoginPageRedirectsLiveSession(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	h.send(t, messages.NavigateMsg{Route: router.Login})
	assert.Equal(t, router.Home, h.app.Active())
}

func TestLoggedInMsgStartsSession(t *testing.T) {
	h := newHarness(t)
	h.send(t, guardResult(t, h.app.Init()))
	require.Equal(t, router.Login, h.app.Active())

	h.signIn(t)
	h.send(t, messages.LoggedInMsg{Profile: h.store.Profile()})
	assert.Equal(t, router.Home, h.app.Active())
	assert.True(t, h.app.live)
	assert.Contains(t, h.app.View(), "Alice")
}

func TestUnauthorizedOnProtectedRouteReturnsToLogin(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.send(t, guardResult(t, h.app.Init()))
	require.Equal(t, router.Home, h.app.Active())

	require.NoError(t, h.store.Logout())
	h.send(t, messages.UnauthorizedMsg{})
	assert.Equal(t, router.Login, h.app.Active())
	assert.Contains(t, h.app.statusBar.Status(), "Session expired")
}

func TestUnauthorizedOnPublicRouteStays(t *testing.T) {
	h := newHarness(t)
	h.send(t, messages.NavigateMsg{Route: router.SignUp})
	require.Equal(t, router.SignUp, h.app.Active())

	_, cmd := h.app.Update(messages.UnauthorizedMsg{})
	assert.Nil(t, cmd)
	assert.Equal(t, router.SignUp, h.app.Active())
}

func TestBackWalksHistory(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.send(t, guardResult(t, h.app.Init()))

	h.send(t, messages.NavigateMsg{Route: router.UserProfile})
	require.Equal(t, router.UserProfile, h.app.Active())

	h.send(t, messages.GoBackMsg{})
	assert.Equal(t, router.Home, h.app.Active())
}

func TestTabKeysSwitchRoutes(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.send(t, guardResult(t, h.app.Init()))

	h.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	assert.Equal(t, router.Balances, h.app.Active())
	assert.Empty(t, h.app.history, "tabs reset history")
}

func TestOpenFormOverlay(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.send(t, guardResult(t, h.app.Init()))

	h.app.Update(messages.OpenFormMsg{Form: "deposit", Params: map[string]string{"currency": "SGD"}})
	require.NotNil(t, h.app.overlay)
	assert.Equal(t, "deposit", h.app.overlay.ID())

	h.app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, h.app.overlay)
}
