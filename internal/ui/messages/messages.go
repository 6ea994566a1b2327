package messages

import (
	"github.com/fragmede/purse/internal/api"
	"github.com/fragmede/purse/internal/router"
	"github.com/fragmede/purse/internal/session"
)

// View transition messages.
type (
	// NavigateMsg asks the app to move to a route. The guard decides whether
	// it may.
	NavigateMsg struct {
		Route  router.Name
		Params map[string]string
	}
	GoBackMsg struct{}

	// GuardResultMsg carries the guard's decision for a transition.
	GuardResultMsg struct {
		Ticket   router.Ticket
		Decision router.Decision
		Params   map[string]string
		// Back pops the history on success; Reset clears it.
		Back  bool
		Reset bool
	}

	// UnauthorizedMsg is sent after any 401; the session is already cleared.
	UnauthorizedMsg struct{}

	OpenFormMsg struct {
		Form   string
		Params map[string]string
	}
	CloseFormMsg struct{}
	ShowHelpMsg  struct{}
	LogoutMsg    struct{}
)

// Data messages.
type (
	SessionRestoredMsg struct {
		Profile session.Profile
	}

	LoginResultMsg struct {
		Email string
		Resp  *api.LoginResponse
		Err   error
	}

	// LoggedInMsg is sent once the password and any second factor checked
	// out and the session store holds the profile.
	LoggedInMsg struct {
		Profile session.Profile
	}

	LoggedOutMsg struct {
		Err error
	}

	DashboardLoadedMsg struct {
		Dashboard *api.Dashboard
		Stale     bool
		Err       error
	}

	BalancesLoadedMsg struct {
		Balances []api.Balance
		Stale    bool
		Err      error
	}

	WalletsLoadedMsg struct {
		Wallets []api.Wallet
		Stale   bool
		Err     error
	}

	BeneficiariesLoadedMsg struct {
		Beneficiaries []api.Beneficiary
		Stale         bool
		Err           error
	}

	BalanceLoadedMsg struct {
		BalanceID int
		Balance   *api.Balance
		History   []api.BalanceHistory
		Err       error
	}

	TransactionsLoadedMsg struct {
		Page *api.TransactionPage
		Err  error
	}

	// FormResultMsg reports the outcome of a submitted form.
	FormResultMsg struct {
		Form   string
		Status string
		Err    error
	}

	NewNotificationMsg struct {
		UnreadCount int
	}

	StatusMsg struct {
		Text    string
		IsError bool
	}
)
