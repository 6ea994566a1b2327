package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/purse/internal/api"
	"github.com/fragmede/purse/internal/apitest"
)

type tokenBox struct {
	mu  sync.Mutex
	tok string
}

func (b *tokenBox) CSRFToken() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tok
}

func (b *tokenBox) StoreCSRFToken(tok string) {
	b.mu.Lock()
	b.tok = tok
	b.mu.Unlock()
}

type memKV struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemKV() *memKV { return &memKV{m: map[string]string{}} }

func (kv *memKV) Get(key string) (string, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	v, ok := kv.m[key]
	return v, ok, nil
}

func (kv *memKV) Set(key, value string) error {
	kv.mu.Lock()
	kv.m[key] = value
	kv.mu.Unlock()
	return nil
}

func (kv *memKV) Delete(key string) error {
	kv.mu.Lock()
	delete(kv.m, key)
	kv.mu.Unlock()
	return nil
}

type harness struct {
	srv          *apitest.Server
	client       *api.Client
	tokens       *tokenBox
	unauthorized *int32
	jar          http.CookieJar
}

func newHarness(t *testing.T, srv *apitest.Server, jar http.CookieJar) *harness {
	t.Helper()
	h := &harness{srv: srv, tokens: &tokenBox{}, unauthorized: new(int32), jar: jar}
	h.client = api.NewClient(api.Options{
		BaseURL:        srv.BaseURL(),
		Timeout:        5 * time.Second,
		Tokens:         h.tokens,
		Jar:            jar,
		OnUnauthorized: func() { atomic.AddInt32(h.unauthorized, 1) },
	})
	return h
}

func alice() *apitest.User {
	u := &apitest.User{Password: "hunter2", SkipMFA: true}
	u.FirstName = "Alice"
	u.LastName = "Tan"
	u.Email = "alice@example.com"
	u.Username = "alice"
	u.MobileCountryCode = "+65"
	u.MobileNumber = "91234567"
	return u
}

func TestLoginStoresTokenAndSendsItOnMutations(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(alice())
	h := newHarness(t, srv, nil)
	ctx := context.Background()

	resp, err := h.client.Login(ctx, "alice@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Username)
	assert.False(t, resp.NeedsMFA())

	tok := h.tokens.CSRFToken()
	require.NotEmpty(t, tok)

	require.NoError(t, h.client.UpdateProfile(ctx, api.UpdateProfileRequest{
		Username:     "alice2",
		Email:        "alice@example.com",
		MobileNumber: "91234567",
	}))
	assert.Equal(t, tok, srv.LastCSRF("/users/profile"))
	assert.Empty(t, srv.LastCSRF("/login"), "no token is held before login")
	assert.Equal(t, int32(0), atomic.LoadInt32(h.unauthorized))
}

func TestUnauthorizedInvokesHookOnceAndStillFails(t *testing.T) {
	srv := apitest.New(t)
	h := newHarness(t, srv, nil)

	err := h.client.Me(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrUnauthorized))
	assert.Equal(t, http.StatusUnauthorized, api.StatusCode(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(h.unauthorized))
}

func TestMutationWithoutTokenIsRejected(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(alice())
	h := newHarness(t, srv, nil)
	ctx := context.Background()

	_, err := h.client.Login(ctx, "alice@example.com", "hunter2")
	require.NoError(t, err)
	h.tokens.StoreCSRFToken("")

	err = h.client.CreateBeneficiary(ctx, "+65", "90000000")
	require.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, int32(1), atomic.LoadInt32(h.unauthorized))
}

func TestNonAuthErrorsHaveNoSideEffects(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(alice())
	h := newHarness(t, srv, nil)
	ctx := context.Background()

	_, err := h.client.Login(ctx, "alice@example.com", "hunter2")
	require.NoError(t, err)
	tok := h.tokens.CSRFToken()

	srv.SetMeStatus(http.StatusInternalServerError)
	status, err := h.client.SessionStatus(ctx)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, tok, h.tokens.CSRFToken())
	assert.Equal(t, int32(0), atomic.LoadInt32(h.unauthorized))

	srv.SetMeStatus(0)
	status, err = h.client.SessionStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
}

func TestServerMessageIsSurfaced(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(alice())
	h := newHarness(t, srv, nil)

	_, err := h.client.Login(context.Background(), "alice@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Incorrect username/password. Please try again.", api.Message(err))
}

func TestRevalidationRefreshesToken(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(alice())
	srv.SetRotateTokens(true)
	h := newHarness(t, srv, nil)
	ctx := context.Background()

	_, err := h.client.Login(ctx, "alice@example.com", "hunter2")
	require.NoError(t, err)
	first := h.tokens.CSRFToken()

	require.NoError(t, h.client.Me(ctx))
	second := h.tokens.CSRFToken()
	assert.NotEqual(t, first, second)
	assert.Equal(t, first, srv.LastCSRF("/users/me"), "request carries the token held at dispatch")

	require.NoError(t, h.client.CreateTransaction(ctx, api.CreateTransactionRequest{
		SenderWalletID: 1, SourceCurrency: "SGD", SourceAmount: 10, BeneficiaryMobileNumber: "90000000",
	}))
	assert.Equal(t, second, srv.LastCSRF("/transaction"))
}

func TestMFASetupCompletesLogin(t *testing.T) {
	srv := apitest.New(t)
	u := alice()
	u.SkipMFA = false
	srv.AddUser(u)
	h := newHarness(t, srv, nil)
	ctx := context.Background()

	resp, err := h.client.Login(ctx, u.Email, u.Password)
	require.NoError(t, err)
	require.True(t, resp.NeedsMFASetup())
	require.NotEmpty(t, resp.MFAConfig.URL)

	code, err := totp.GenerateCode(resp.MFAConfig.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, h.client.ConfigureMFA(ctx, u.Email, resp.MFAConfig.Secret, code))
	require.NoError(t, h.client.Me(ctx))

	// second login verifies against the enrolled secret
	h2 := newHarness(t, srv, nil)
	resp, err = h2.client.Login(ctx, u.Email, u.Password)
	require.NoError(t, err)
	assert.True(t, resp.IsMFAConfigured)
	assert.False(t, resp.NeedsMFASetup())
	assert.True(t, resp.NeedsMFA())
	code, err = totp.GenerateCode(srv.EnrolledSecret(u.Email), time.Now())
	require.NoError(t, err)
	require.NoError(t, h2.client.VerifyMFA(ctx, u.Email, code))
	require.NoError(t, h2.client.Me(ctx))
}

func TestTransactionsPagination(t *testing.T) {
	srv := apitest.New(t)
	u := alice()
	for i := 0; i < 12; i++ {
		u.Transactions = append(u.Transactions, api.Transaction{SourceAmount: float64(i + 1), SourceCurrency: "SGD"})
	}
	srv.AddUser(u)
	h := newHarness(t, srv, nil)
	ctx := context.Background()
	_, err := h.client.Login(ctx, u.Email, u.Password)
	require.NoError(t, err)

	page, err := h.client.GetTransactions(ctx, 2, 5)
	require.NoError(t, err)
	assert.Len(t, page.Transactions, 5)
	assert.Equal(t, api.Page{
		Page: 2, PageSize: 5, TotalRecords: 12, TotalPages: 3,
		HasNextPage: true, HasPreviousPage: true,
	}, page.Page)

	page, err = h.client.GetTransactions(ctx, 3, 5)
	require.NoError(t, err)
	assert.Len(t, page.Transactions, 2)
	assert.False(t, page.Page.HasNextPage)
}

func TestEmptyListingsAreNotErrors(t *testing.T) {
	srv := apitest.New(t)
	u := alice()
	u.Balances = []api.Balance{{ID: 1, Balance: 250, Currency: "SGD"}}
	srv.AddUser(u)
	h := newHarness(t, srv, nil)
	ctx := context.Background()
	_, err := h.client.Login(ctx, u.Email, u.Password)
	require.NoError(t, err)

	page, err := h.client.GetTransactions(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Transactions)

	wallets, err := h.client.GetWallets(ctx)
	require.NoError(t, err)
	assert.Empty(t, wallets)

	d, err := h.client.GetDashboard(ctx)
	require.NoError(t, err)
	assert.Len(t, d.Balances, 1)
	assert.Empty(t, d.Wallets)
	assert.Empty(t, d.Errors)
}

func TestDashboardFailsOnUnauthorized(t *testing.T) {
	srv := apitest.New(t)
	h := newHarness(t, srv, nil)

	_, err := h.client.GetDashboard(context.Background())
	require.ErrorIs(t, err, api.ErrUnauthorized)
	assert.GreaterOrEqual(t, atomic.LoadInt32(h.unauthorized), int32(1))
}

func TestJarSurvivesRestart(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(alice())
	kv := newMemKV()
	ctx := context.Background()

	jar, err := api.NewJar(kv, nil)
	require.NoError(t, err)
	h := newHarness(t, srv, jar)
	_, err = h.client.Login(ctx, "alice@example.com", "hunter2")
	require.NoError(t, err)

	_, ok, _ := kv.Get(api.KeyCookies)
	require.True(t, ok)

	restored, err := api.NewJar(kv, nil)
	require.NoError(t, err)
	h2 := newHarness(t, srv, restored)
	require.NoError(t, h2.client.Me(ctx))
	assert.NotEmpty(t, h2.tokens.CSRFToken(), "revalidation hands the token back after a restart")

	restored.Clear()
	_, ok, _ = kv.Get(api.KeyCookies)
	assert.False(t, ok)
	require.ErrorIs(t, h2.client.Me(ctx), api.ErrUnauthorized)
}

func TestLogoutExpiresCookie(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(alice())
	kv := newMemKV()
	jar, err := api.NewJar(kv, nil)
	require.NoError(t, err)
	h := newHarness(t, srv, jar)
	ctx := context.Background()

	_, err = h.client.Login(ctx, "alice@example.com", "hunter2")
	require.NoError(t, err)
	require.NoError(t, h.client.Logout(ctx))

	restored, err := api.NewJar(kv, nil)
	require.NoError(t, err)
	h2 := newHarness(t, srv, restored)
	require.ErrorIs(t, h2.client.Me(ctx), api.ErrUnauthorized)
}

func TestUnauthorizedCookieDoesNotSurviveClear(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "stale", Path: "/"})
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Unauthorized"}`))
	}))
	t.Cleanup(srv.Close)

	kv := newMemKV()
	jar, err := api.NewJar(kv, nil)
	require.NoError(t, err)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: "sid", Value: "live", Path: "/"}})
	require.Len(t, jar.Cookies(u), 1)

	cleared := 0
	client := api.NewClient(api.Options{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
		Tokens:  &tokenBox{},
		Jar:     jar,
		OnUnauthorized: func() {
			cleared++
			jar.Clear()
		},
	})

	require.ErrorIs(t, client.Me(context.Background()), api.ErrUnauthorized)
	assert.Equal(t, 1, cleared)
	assert.Empty(t, jar.Cookies(u))
	_, ok, _ := kv.Get(api.KeyCookies)
	assert.False(t, ok, "no cookie is written back after the clear")

	restored, err := api.NewJar(kv, nil)
	require.NoError(t, err)
	assert.Empty(t, restored.Cookies(u))
}
