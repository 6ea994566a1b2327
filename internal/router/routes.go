package router

import "strings"

// Name identifies a route.
type Name string

const (
	Login          Name = "login"
	SignUp         Name = "signup"
	ForgotPassword Name = "forgot-password"
	PasswordReset  Name = "password-reset"
	Error          Name = "error"
	Home           Name = "home"
	UserProfile    Name = "profile"
	Settings       Name = "settings"
	Balances       Name = "balances"
	Balance        Name = "balance"
	Transactions   Name = "transactions"
	Beneficiary    Name = "beneficiary"
	Transfer       Name = "transfer"
	Wallets        Name = "wallets"
	Notifications  Name = "notifications"
)

// Route describes a navigable destination. Public routes are reachable
// without a session.
type Route struct {
	Name   Name
	Path   string
	Public bool
}

var routes = []Route{
	{Name: Login, Path: "/login", Public: true},
	{Name: SignUp, Path: "/signup", Public: true},
	{Name: ForgotPassword, Path: "/forgot-password", Public: true},
	{Name: PasswordReset, Path: "/password-reset/:token", Public: true},
	{Name: Error, Path: "/error", Public: true},
	{Name: Home, Path: "/home"},
	{Name: UserProfile, Path: "/profile"},
	{Name: Settings, Path: "/settings"},
	{Name: Balances, Path: "/balances"},
	{Name: Balance, Path: "/balances/:id"},
	{Name: Transactions, Path: "/transactions"},
	{Name: Beneficiary, Path: "/beneficiary"},
	{Name: Transfer, Path: "/transfer"},
	{Name: Wallets, Path: "/wallets"},
	{Name: Notifications, Path: "/notifications"},
}

var byName = func() map[Name]Route {
	m := make(map[Name]Route, len(routes))
	for _, r := range routes {
		m[r.Name] = r
	}
	return m
}()

// Lookup returns the route registered under name.
func Lookup(name Name) (Route, bool) {
	r, ok := byName[name]
	return r, ok
}

// Routes returns a copy of the route table.
func Routes() []Route {
	return append([]Route(nil), routes...)
}

// Match finds the route whose path pattern matches path and returns the
// values of its ":param" segments.
func Match(path string) (Route, map[string]string, bool) {
	segs := split(path)
	for _, r := range routes {
		pat := split(r.Path)
		if len(pat) != len(segs) {
			continue
		}
		params := map[string]string{}
		ok := true
		for i, p := range pat {
			switch {
			case strings.HasPrefix(p, ":"):
				params[p[1:]] = segs[i]
			case p != segs[i]:
				ok = false
			}
			if !ok {
				break
			}
		}
		if ok {
			return r, params, true
		}
	}
	return Route{}, nil, false
}

// PathFor renders the route's path, filling ":param" segments in order.
func PathFor(name Name, params ...string) string {
	r, ok := byName[name]
	if !ok {
		return ""
	}
	pat := split(r.Path)
	for i, p := range pat {
		if strings.HasPrefix(p, ":") && len(params) > 0 {
			pat[i] = params[0]
			params = params[1:]
		}
	}
	return "/" + strings.Join(pat, "/")
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
