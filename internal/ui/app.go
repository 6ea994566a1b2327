package ui

import (
	"context"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/fragmede/purse/internal/api"
	"github.com/fragmede/purse/internal/cache"
	"github.com/fragmede/purse/internal/config"
	"github.com/fragmede/purse/internal/monitor"
	"github.com/fragmede/purse/internal/router"
	"github.com/fragmede/purse/internal/session"
	"github.com/fragmede/purse/internal/ui/balanceview"
	"github.com/fragmede/purse/internal/ui/form"
	"github.com/fragmede/purse/internal/ui/listview"
	"github.com/fragmede/purse/internal/ui/login"
	"github.com/fragmede/purse/internal/ui/messages"
	"github.com/fragmede/purse/internal/ui/notifications"
	"github.com/fragmede/purse/internal/ui/statusbar"
	"github.com/fragmede/purse/internal/ui/txfeed"
	"github.com/fragmede/purse/internal/ui/userprofile"
)

// Deps wires the app to the rest of the program.
type Deps struct {
	Config  config.Config
	Client  *api.Client
	Cache   *cache.DB
	Session *session.Store
	Jar     *api.Jar
	Monitor *monitor.Monitor
	Log     *zap.Logger

	// StartPath is an app path such as /password-reset/abc to open instead
	// of the dashboard.
	StartPath string
}

type entry struct {
	route  router.Name
	params map[string]string
}

// App is the root Bubble Tea model.
type App struct {
	// View state
	active  router.Name
	params  map[string]string
	history []entry
	help    bool
	errText string
	live    bool // a signed-in session is on screen and the monitor runs

	// Child models
	list          listview.Model
	balance       balanceview.Model
	feed          txfeed.Model
	loginForm     login.Model
	page          form.Model
	overlay       *form.Model
	notifications notifications.Model
	profile       userprofile.Model
	statusBar     statusbar.Model

	// Shared state
	cfg     config.Config
	client  *api.Client
	cache   *cache.DB
	session *session.Store
	jar     *api.Jar
	monitor *monitor.Monitor
	nav     *router.Navigator
	forms   formDeps
	log     *zap.Logger
	start   string

	width  int
	height int

	// For passing program reference to monitor
	sender monitor.Sender
}

// NewApp creates the root application model.
func NewApp(d Deps) *App {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	guard := router.NewGuard(d.Session, d.Client, d.Log.Named("guard"))
	return &App{
		list:          listview.New(d.Config, d.Client, d.Cache),
		feed:          txfeed.New(d.Client, d.Config.PageSize),
		notifications: notifications.New(d.Cache),
		statusBar:     statusbar.New(),
		cfg:           d.Config,
		client:        d.Client,
		cache:         d.Cache,
		session:       d.Session,
		jar:           d.Jar,
		monitor:       d.Monitor,
		nav:           router.NewNavigator(guard),
		forms:         formDeps{client: d.Client, store: d.Session, cache: d.Cache},
		log:           d.Log,
		start:         d.StartPath,
	}
}

// SetProgram stores the program the background monitor reports to.
func (a *App) SetProgram(s monitor.Sender) {
	a.sender = s
}

// Active returns the route on screen.
func (a *App) Active() router.Name { return a.active }

// Init asks for the dashboard; the guard sends a signed-out user to login.
func (a *App) Init() tea.Cmd {
	if a.start != "" {
		if r, params, ok := router.Match(a.start); ok {
			return a.navigateTo(r.Name, params, false, true)
		}
		a.log.Warn("unknown start path, opening home", zap.String("path", a.start))
	}
	return a.navigateTo(router.Home, nil, false, true)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.statusBar.SetSize(msg.Width)
		a.resize()
		return a, nil

	case tea.KeyMsg:
		if cmd, handled := a.handleKey(msg); handled {
			return a, cmd
		}
		if a.overlay != nil {
			f, cmd := a.overlay.Update(msg)
			a.overlay = &f
			return a, cmd
		}

	// View transitions.
	case messages.NavigateMsg:
		return a, a.navigateTo(msg.Route, msg.Params, false, statusbar.TabIndex(msg.Route) >= 0)

	case messages.GoBackMsg:
		return a, a.goBack()

	case messages.GuardResultMsg:
		return a, a.applyDecision(msg)

	case messages.OpenFormMsg:
		spec, ok := a.forms.buildForm(msg.Form, msg.Params)
		if !ok {
			a.statusBar.SetError("unknown form " + msg.Form)
			return a, nil
		}
		f := form.New(spec)
		f.SetSize(a.width, a.contentHeight())
		a.overlay = &f
		return a, textinput.Blink

	case messages.CloseFormMsg:
		a.overlay = nil
		return a, nil

	case messages.ShowHelpMsg:
		a.help = !a.help
		return a, nil

	case messages.LogoutMsg:
		a.statusBar.SetStatus("Signing out...")
		return a, a.logout()

	// Session lifecycle.
	case messages.LoggedInMsg:
		a.startSession(msg.Profile)
		a.statusBar.SetStatus("Welcome, " + msg.Profile.DisplayName())
		return a, a.navigateTo(router.Home, nil, false, true)

	case messages.LoggedOutMsg:
		a.endSession()
		if msg.Err != nil {
			a.statusBar.SetError("Signed out locally: " + api.Message(msg.Err))
		} else {
			a.statusBar.SetStatus("Signed out")
		}
		return a, a.navigateTo(router.Login, nil, false, true)

	case messages.UnauthorizedMsg:
		wasLive := a.live
		a.endSession()
		if route, ok := router.Lookup(a.active); ok && !route.Public {
			if wasLive {
				a.statusBar.SetError("Session expired, please sign in again")
			}
			return a, a.navigateTo(router.Login, nil, false, true)
		}
		return a, nil

	// Data loaded for views that may no longer be on screen.
	case messages.DashboardLoadedMsg, messages.BalancesLoadedMsg,
		messages.WalletsLoadedMsg, messages.BeneficiariesLoadedMsg:
		var cmd tea.Cmd
		a.list, cmd = a.list.Update(msg)
		return a, cmd

	case messages.BalanceLoadedMsg:
		var cmd tea.Cmd
		a.balance, cmd = a.balance.Update(msg)
		return a, cmd

	case messages.TransactionsLoadedMsg:
		var cmd tea.Cmd
		a.feed, cmd = a.feed.Update(msg)
		return a, cmd

	case messages.FormResultMsg:
		return a, a.formResult(msg)

	case messages.NewNotificationMsg:
		a.statusBar.SetUnread(msg.UnreadCount)
		if a.active == router.Notifications {
			a.notifications, _ = a.notifications.Update(msg)
		}
		return a, nil

	case messages.StatusMsg:
		if msg.IsError {
			a.statusBar.SetError(msg.Text)
		} else {
			a.statusBar.SetStatus(msg.Text)
		}
		return a, nil
	}

	cmds = append(cmds, a.updateActive(msg))

	var cmd tea.Cmd
	a.statusBar, cmd = a.statusBar.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// handleKey processes global keys. handled is false when the key belongs
// to the overlay or the active view.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		a.monitor.Stop()
		return tea.Quit, true
	}

	if a.overlay != nil {
		if key.Matches(msg, Keys.Back) && !a.overlay.Submitting() {
			a.overlay = nil
			return nil, true
		}
		return nil, false
	}

	if a.help {
		a.help = false
		return nil, true
	}

	if a.typing() {
		if key.Matches(msg, Keys.Back) && !(a.active == router.Login && a.loginForm.AwaitingCode()) {
			return a.goBack(), true
		}
		return nil, false
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		if len(a.history) == 0 {
			a.monitor.Stop()
			return tea.Quit, true
		}
		return a.goBack(), true
	case key.Matches(msg, Keys.Back):
		return a.goBack(), true
	case key.Matches(msg, Keys.Help):
		a.help = true
		return nil, true
	}

	if a.active == router.Error {
		switch msg.String() {
		case "enter", "r":
			return a.navigateTo(router.Home, nil, false, true), true
		}
	}

	if !a.live {
		return nil, false
	}

	switch {
	case key.Matches(msg, Keys.Tab1):
		return a.switchTab(0), true
	case key.Matches(msg, Keys.Tab2):
		return a.switchTab(1), true
	case key.Matches(msg, Keys.Tab3):
		return a.switchTab(2), true
	case key.Matches(msg, Keys.Tab4):
		return a.switchTab(3), true
	case key.Matches(msg, Keys.Tab5):
		return a.switchTab(4), true
	case key.Matches(msg, Keys.Tab6):
		return a.switchTab(5), true
	case key.Matches(msg, Keys.Tab7):
		return a.switchTab(6), true
	case key.Matches(msg, Keys.NextTab):
		return a.stepTab(1), true
	case key.Matches(msg, Keys.PrevTab):
		return a.stepTab(-1), true
	case key.Matches(msg, Keys.Notify):
		return a.navigateTo(router.Notifications, nil, false, false), true
	case key.Matches(msg, Keys.Profile):
		return a.navigateTo(router.UserProfile, nil, false, false), true
	case key.Matches(msg, Keys.Settings):
		return a.navigateTo(router.Settings, nil, false, false), true
	case key.Matches(msg, Keys.ChangePasswd):
		return func() tea.Msg { return messages.OpenFormMsg{Form: FormChangePassword} }, true
	case key.Matches(msg, Keys.Logout):
		return func() tea.Msg { return messages.LogoutMsg{} }, true
	case msg.String() == "o":
		return a.openInBrowser(), true
	}
	return nil, false
}

// typing reports whether keystrokes should go to a text input.
func (a *App) typing() bool {
	switch a.active {
	case router.Login, router.SignUp, router.ForgotPassword, router.PasswordReset,
		router.Settings, router.Transfer:
		return true
	case router.Home, router.Balances, router.Wallets, router.Beneficiary:
		return a.list.Filtering()
	}
	return false
}

// navigateTo starts a guarded transition. The decision arrives later as a
// GuardResultMsg; starting another transition first makes it stale.
func (a *App) navigateTo(route router.Name, params map[string]string, back, reset bool) tea.Cmd {
	t := a.nav.Begin(context.Background(), route)
	nav := a.nav
	return func() tea.Msg {
		return messages.GuardResultMsg{
			Ticket:   t,
			Decision: nav.Run(t),
			Params:   params,
			Back:     back,
			Reset:    reset,
		}
	}
}

func (a *App) applyDecision(msg messages.GuardResultMsg) tea.Cmd {
	if !a.nav.Current(msg.Ticket) {
		a.log.Debug("dropping stale navigation", zap.String("target", string(msg.Ticket.Target)))
		return nil
	}
	a.nav.Done(msg.Ticket)

	d := msg.Decision
	if a.live && !a.session.IsLoggedIn() {
		a.endSession()
	}

	switch d.Outcome {
	case router.Cancelled:
		return nil
	case router.Allow:
		switch {
		case msg.Reset:
			a.history = nil
		case msg.Back:
			if n := len(a.history); n > 0 {
				a.history = a.history[:n-1]
			}
		case a.active != "" && a.active != d.Route && a.active != router.Error:
			a.history = append(a.history, entry{route: a.active, params: a.params})
		}
		return a.enter(d.Route, msg.Params)
	case router.Redirect:
		a.history = nil
		return a.enter(d.Route, nil)
	case router.DenyLogin:
		a.history = nil
		return a.enter(router.Login, nil)
	case router.DenyError:
		a.errText = "Something went wrong"
		if d.Err != nil {
			a.errText = api.Message(d.Err)
		}
		return a.enter(router.Error, nil)
	}
	return nil
}

// enter puts route on screen and starts whatever loading it needs.
func (a *App) enter(route router.Name, params map[string]string) tea.Cmd {
	if r, ok := router.Lookup(route); ok && !r.Public && !a.live && a.session.IsLoggedIn() {
		a.startSession(a.session.Profile())
	}

	a.active = route
	a.params = params
	a.overlay = nil
	a.help = false
	a.statusBar.SetActive(route)
	owner := a.session.Profile().Username
	w, h := a.width, a.contentHeight()

	switch route {
	case router.Login:
		a.loginForm = login.New(a.client, a.session)
		a.loginForm.SetSize(w, h)
		return textinput.Blink
	case router.SignUp, router.ForgotPassword, router.PasswordReset, router.Settings, router.Transfer:
		spec, _ := a.forms.buildForm(string(route), params)
		a.page = form.New(spec)
		a.page.SetSize(w, h)
		return textinput.Blink
	case router.Home:
		return a.showList(listview.Home, owner)
	case router.Balances:
		return a.showList(listview.Balances, owner)
	case router.Wallets:
		return a.showList(listview.Wallets, owner)
	case router.Beneficiary:
		return a.showList(listview.Beneficiaries, owner)
	case router.Balance:
		id, err := strconv.Atoi(params["id"])
		if err != nil {
			a.errText = "No such balance"
			a.active = router.Error
			return nil
		}
		a.balance = balanceview.New(id, a.client)
		a.balance.SetSize(w, h)
		return a.balance.Init()
	case router.Transactions:
		a.feed.SetUser(owner)
		a.feed.SetSize(w, h)
		var cmd tea.Cmd
		a.feed, cmd = a.feed.Load(1)
		return cmd
	case router.UserProfile:
		a.profile = userprofile.New(a.session.Profile(), a.client)
		a.profile.SetSize(w, h)
		return a.profile.Init()
	case router.Notifications:
		a.notifications.Load(owner)
		a.notifications.SetSize(w, h)
		return nil
	}
	return nil
}

func (a *App) showList(kind listview.Kind, owner string) tea.Cmd {
	cmd := a.list.Show(kind, owner)
	a.list.SetSize(a.width, a.contentHeight())
	return cmd
}

func (a *App) updateActive(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.active {
	case router.Login:
		a.loginForm, cmd = a.loginForm.Update(msg)
	case router.SignUp, router.ForgotPassword, router.PasswordReset, router.Settings, router.Transfer:
		a.page, cmd = a.page.Update(msg)
	case router.Home, router.Balances, router.Wallets, router.Beneficiary:
		a.list, cmd = a.list.Update(msg)
	case router.Balance:
		a.balance, cmd = a.balance.Update(msg)
	case router.Transactions:
		a.feed, cmd = a.feed.Update(msg)
	case router.UserProfile:
		a.profile, cmd = a.profile.Update(msg)
	case router.Notifications:
		a.notifications, cmd = a.notifications.Update(msg)
	}
	return cmd
}

func (a *App) formResult(msg messages.FormResultMsg) tea.Cmd {
	if msg.Form == listview.FormRemoveBeneficiary {
		var cmd tea.Cmd
		a.list, cmd = a.list.Update(msg)
		return cmd
	}

	if a.overlay != nil && a.overlay.ID() == msg.Form {
		if msg.Err != nil {
			f, cmd := a.overlay.Update(msg)
			a.overlay = &f
			return cmd
		}
		a.overlay = nil
		a.statusBar.SetStatus(msg.Status)
		switch a.active {
		case router.Home, router.Balances, router.Wallets, router.Beneficiary:
			return a.list.Refresh()
		case router.Balance:
			var cmd tea.Cmd
			a.balance, cmd = a.balance.Update(msg)
			return cmd
		}
		return nil
	}

	if a.page.ID() != msg.Form {
		return nil
	}
	var cmd tea.Cmd
	a.page, cmd = a.page.Update(msg)
	if msg.Err != nil {
		return cmd
	}
	a.statusBar.SetStatus(msg.Status)
	switch msg.Form {
	case FormSignUp, FormPasswordReset:
		return a.navigateTo(router.Login, nil, false, true)
	case FormSettings:
		a.statusBar.SetUser(a.session.Profile().DisplayName())
	}
	return cmd
}

// startSession shows the user as signed in and starts the transfer monitor.
func (a *App) startSession(p session.Profile) {
	a.live = true
	a.statusBar.SetUser(p.DisplayName())
	a.statusBar.SetUnread(a.cache.UnreadNotificationCount(p.Username))
	if a.sender != nil {
		a.monitor.Start(a.sender, p.Username)
	}
}

func (a *App) endSession() {
	a.live = false
	a.monitor.Stop()
	a.statusBar.SetUser("")
	a.statusBar.SetUnread(0)
	a.history = nil
}

func (a *App) logout() tea.Cmd {
	client, store, jar, db := a.client, a.session, a.jar, a.cache
	owner := store.Profile().Username
	log := a.log
	return func() tea.Msg {
		err := client.Logout(context.Background())
		if err != nil {
			log.Warn("server logout failed", zap.Error(err))
		}
		if lerr := store.Logout(); lerr != nil {
			log.Warn("clearing session", zap.Error(lerr))
		}
		if jar != nil {
			jar.Clear()
		}
		db.ClearListings(owner)
		return messages.LoggedOutMsg{Err: err}
	}
}

func (a *App) goBack() tea.Cmd {
	if len(a.history) == 0 {
		if a.active != router.Home && a.live {
			return a.navigateTo(router.Home, nil, false, true)
		}
		return nil
	}
	prev := a.history[len(a.history)-1]
	return a.navigateTo(prev.route, prev.params, true, false)
}

func (a *App) switchTab(i int) tea.Cmd {
	route, ok := statusbar.TabRoute(i)
	if !ok {
		return nil
	}
	return a.navigateTo(route, nil, false, true)
}

func (a *App) stepTab(delta int) tea.Cmd {
	n := len(statusbar.Tabs)
	i := statusbar.TabIndex(a.active)
	if i < 0 {
		return a.switchTab(0)
	}
	return a.switchTab(((i+delta)%n + n) % n)
}

func (a *App) openInBrowser() tea.Cmd {
	var args []string
	switch a.active {
	case router.Balance:
		args = append(args, a.params["id"])
	case router.PasswordReset:
		args = append(args, a.params["token"])
	}
	url := a.cfg.AppURL + router.PathFor(a.active, args...)
	go openBrowser(url)
	return func() tea.Msg { return messages.StatusMsg{Text: "Opening: " + url} }
}

func (a *App) contentHeight() int {
	return a.height - 1 // Reserve 1 line for status bar.
}

func (a *App) resize() {
	w, h := a.width, a.contentHeight()
	a.list.SetSize(w, h)
	a.feed.SetSize(w, h)
	switch a.active {
	case router.Login:
		a.loginForm.SetSize(w, h)
	case router.SignUp, router.ForgotPassword, router.PasswordReset, router.Settings, router.Transfer:
		a.page.SetSize(w, h)
	case router.Balance:
		a.balance.SetSize(w, h)
	case router.UserProfile:
		a.profile.SetSize(w, h)
	case router.Notifications:
		a.notifications.SetSize(w, h)
	}
	if a.overlay != nil {
		a.overlay.SetSize(w, h)
	}
}

func (a *App) View() string {
	var content string
	switch {
	case a.help:
		content = a.helpView()
	case a.overlay != nil:
		content = a.overlay.View()
	default:
		content = a.activeView()
	}
	content = lipgloss.NewStyle().Height(a.contentHeight()).MaxHeight(a.contentHeight()).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, content, a.statusBar.View())
}

func (a *App) activeView() string {
	switch a.active {
	case router.Login:
		return a.loginForm.View()
	case router.SignUp, router.ForgotPassword, router.PasswordReset, router.Settings, router.Transfer:
		return a.page.View()
	case router.Home, router.Balances, router.Wallets, router.Beneficiary:
		return a.list.View()
	case router.Balance:
		return a.balance.View()
	case router.Transactions:
		return a.feed.View()
	case router.UserProfile:
		return a.profile.View()
	case router.Notifications:
		return a.notifications.View()
	case router.Error:
		body := HeaderStyle.Render("Error") + "\n" + ErrorStyle.Render(a.errText) + "\n\n" +
			MetaStyle.Render("enter retry · esc back · q quit")
		return lipgloss.Place(a.width, a.contentHeight(), lipgloss.Center, lipgloss.Center, body)
	}
	return MetaStyle.Render("  Loading...")
}

func (a *App) helpView() string {
	bindings := []key.Binding{
		Keys.Tab1, Keys.Tab2, Keys.Tab3, Keys.Tab4, Keys.Tab5, Keys.Tab6, Keys.Tab7,
		Keys.NextTab, Keys.Enter, Keys.Back, Keys.Refresh, Keys.Filter,
		Keys.Deposit, Keys.Withdraw, Keys.Exchange, Keys.TopUp, Keys.AddBenef, Keys.RemoveBenef,
		Keys.NextPage, Keys.PrevPage, Keys.Notify, Keys.Profile, Keys.Settings,
		Keys.ChangePasswd, Keys.Logout, Keys.Submit, Keys.Quit,
	}
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render("Keys"))
	sb.WriteString("\n")
	for _, b := range bindings {
		h := b.Help()
		sb.WriteString("  " + HelpKeyStyle.Render(h.Key) + " " + h.Desc + "\n")
	}
	sb.WriteString("\n" + MetaStyle.Render("  any key to close"))
	return sb.String()
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		return
	}
	cmd.Run()
}
