package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit          key.Binding
	Back          key.Binding
	Help          key.Binding
	Enter         key.Binding
	Refresh       key.Binding
	Logout        key.Binding
	Notify        key.Binding
	Profile       key.Binding
	Settings      key.Binding
	Deposit       key.Binding
	Withdraw      key.Binding
	Exchange      key.Binding
	AddBenef      key.Binding
	RemoveBenef   key.Binding
	TopUp         key.Binding
	Up            key.Binding
	Down          key.Binding
	NextPage      key.Binding
	PrevPage      key.Binding
	Tab1          key.Binding
	Tab2          key.Binding
	Tab3          key.Binding
	Tab4          key.Binding
	Tab5          key.Binding
	Tab6          key.Binding
	Tab7          key.Binding
	NextTab       key.Binding
	PrevTab       key.Binding
	Submit        key.Binding
	Filter        key.Binding
	ChangePasswd  key.Binding
	SignUp        key.Binding
	ForgotPasswd  key.Binding
	ResetPassword key.Binding
}

var Keys = KeyMap{
	Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Back:          key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Help:          key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Enter:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Refresh:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Logout:        key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "log out")),
	Notify:        key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "notifications")),
	Profile:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "profile")),
	Settings:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "settings")),
	Deposit:       key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "deposit")),
	Withdraw:      key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "withdraw")),
	Exchange:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "exchange")),
	AddBenef:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	RemoveBenef:   key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "remove")),
	TopUp:         key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "top up")),
	Up:            key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/up", "up")),
	Down:          key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/down", "down")),
	NextPage:      key.NewBinding(key.WithKeys("]", "pgdown"), key.WithHelp("]", "next page")),
	PrevPage:      key.NewBinding(key.WithKeys("[", "pgup"), key.WithHelp("[", "prev page")),
	Tab1:          key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "home")),
	Tab2:          key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "balances")),
	Tab3:          key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "wallets")),
	Tab4:          key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "transactions")),
	Tab5:          key.NewBinding(key.WithKeys("5"), key.WithHelp("5", "beneficiaries")),
	Tab6:          key.NewBinding(key.WithKeys("6"), key.WithHelp("6", "transfer")),
	Tab7:          key.NewBinding(key.WithKeys("7"), key.WithHelp("7", "notifications")),
	NextTab:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
	PrevTab:       key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
	Submit:        key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "submit")),
	Filter:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
	ChangePasswd:  key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "change password")),
	SignUp:        key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "sign up")),
	ForgotPasswd:  key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("ctrl+f", "forgot password")),
	ResetPassword: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset with token")),
}
