package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/purse/internal/api"
	"github.com/fragmede/purse/internal/apitest"
	"github.com/fragmede/purse/internal/session"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"login", "logout", "whoami", "balances", "convert"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestRootCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("api-url"))
	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
}

func TestOpenPathMustMatchRoute(t *testing.T) {
	assert.NoError(t, checkOpenPath(""))
	assert.NoError(t, checkOpenPath("/password-reset/abc"))
	assert.NoError(t, checkOpenPath("/balances/3"))

	err := checkOpenPath("/nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown path "/nope"`)
	assert.Contains(t, err.Error(), "/password-reset/:token")

	_, err = run(t, "", "--open", "/nope")
	assert.Error(t, err)
}

func TestLoginRequiresEmail(t *testing.T) {
	cmd := NewRootCommand()
	login, _, err := cmd.Find([]string{"login"})
	require.NoError(t, err)
	flag := login.Flags().Lookup("email")
	require.NotNil(t, flag)
	assert.Equal(t, []string{"true"}, flag.Annotations["cobra_annotation_bash_completion_one_required_flag"])
}

func TestConvert(t *testing.T) {
	out, err := run(t, "", "convert", "100", "usd", "SGD")
	require.NoError(t, err)
	assert.Contains(t, out, "100.00 USD = 135.00 SGD")
	assert.Contains(t, out, "1 USD = 1.35 SGD")
	assert.Contains(t, out, "Fee:")
}

func TestConvertRejectsBadInput(t *testing.T) {
	_, err := run(t, "", "convert", "abc", "USD", "SGD")
	assert.Error(t, err)

	_, err = run(t, "", "convert", "10", "USD", "XXX1")
	assert.Error(t, err)

	_, err = run(t, "", "convert", "10", "USD")
	assert.Error(t, err)
}

func TestLoginWhoamiBalancesLogout(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(alice())
	t.Setenv("PURSE_CACHE_DIR", t.TempDir())

	out, err := run(t, "hunter2\n", "--api-url", srv.BaseURL(), "login", "--email", "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as")

	out, err = run(t, "", "--api-url", srv.BaseURL(), "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "alice@example.com")
	assert.Contains(t, out, "Session: active")

	out, err = run(t, "", "--api-url", srv.BaseURL(), "balances")
	require.NoError(t, err)
	assert.Contains(t, out, "SGD")
	assert.Contains(t, out, "1,250.50")
	assert.Equal(t, 1, srv.Hits("/balances"))

	// Second call is served from the listing cache.
	_, err = run(t, "", "--api-url", srv.BaseURL(), "balances")
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Hits("/balances"))

	out, err = run(t, "", "--api-url", srv.BaseURL(), "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")
	assert.NotEmpty(t, srv.LastCSRF("/logout"), "logout must carry a freshly fetched token")

	out, err = run(t, "", "--api-url", srv.BaseURL(), "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in")
}

func TestLoginWithSecondFactor(t *testing.T) {
	const secret = "JBSWY3DPEHPK3PXP"
	srv := apitest.New(t)
	u := alice()
	u.SkipMFA = false
	u.MFASecret = secret
	srv.AddUser(u)
	t.Setenv("PURSE_CACHE_DIR", t.TempDir())

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	out, err := run(t, "hunter2\n"+code+"\n", "--api-url", srv.BaseURL(), "login", "--email", "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Code: ")
	assert.Contains(t, out, "Signed in as")
	assert.Equal(t, 1, srv.Hits("/verify-mfa"))
}

func TestLoginWrongPassword(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(alice())
	t.Setenv("PURSE_CACHE_DIR", t.TempDir())

	_, err := run(t, "nope\n", "--api-url", srv.BaseURL(), "login", "--email", "alice@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect username/password")
}

func TestBalancesNeedsSession(t *testing.T) {
	srv := apitest.New(t)
	t.Setenv("PURSE_CACHE_DIR", t.TempDir())

	_, err := run(t, "", "--api-url", srv.BaseURL(), "balances")
	assert.ErrorIs(t, err, session.ErrNotLoggedIn)
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func alice() *apitest.User {
	u := &apitest.User{Password: "hunter2", SkipMFA: true}
	u.FirstName = "Alice"
	u.LastName = "Tan"
	u.Email = "alice@example.com"
	u.Username = "alice"
	u.MobileCountryCode = "+65"
	u.MobileNumber = "91234567"
	u.Balances = []api.Balance{{ID: 1, Balance: 1250.5, Currency: "SGD", UpdatedAt: "2024-03-01T10:00:00Z"}}
	return u
}
