package ui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"strconv"
	"strings"

	"github.com/fragmede/purse/internal/api"
	"github.com/fragmede/purse/internal/cache"
	"github.com/fragmede/purse/internal/currency"
	"github.com/fragmede/purse/internal/format"
	"github.com/fragmede/purse/internal/session"
	"github.com/fragmede/purse/internal/ui/form"
	"github.com/fragmede/purse/internal/ui/listview"
)

// Form ids not owned by a list view.
const (
	FormSignUp         = "signup"
	FormForgotPassword = "forgot-password"
	FormPasswordReset  = "password-reset"
	FormSettings       = "settings"
	FormChangePassword = "change-password"
	FormTransfer       = "transfer"
)

// formDeps is what the form builders close over.
type formDeps struct {
	client *api.Client
	store  *session.Store
	cache  *cache.DB
}

func (d formDeps) owner() string {
	return d.store.Profile().Username
}

func (d formDeps) invalidate(kinds ...string) {
	owner := d.owner()
	for _, k := range kinds {
		d.cache.InvalidateListing(owner, k)
	}
}

// buildForm returns the form spec for id. ok is false for unknown ids.
func (d formDeps) buildForm(id string, params map[string]string) (form.Spec, bool) {
	switch id {
	case FormSignUp:
		return d.signUp(), true
	case FormForgotPassword:
		return d.forgotPassword(), true
	case FormPasswordReset:
		return d.passwordReset(params["token"]), true
	case FormSettings:
		return d.settings(), true
	case FormChangePassword:
		return d.changePassword(), true
	case FormTransfer:
		return d.transfer(params), true
	case listview.FormDeposit:
		return d.moveFunds(id, params["currency"]), true
	case listview.FormWithdraw:
		return d.moveFunds(id, params["currency"]), true
	case listview.FormExchange:
		return d.exchange(params["currency"]), true
	case listview.FormAddBeneficiary:
		return d.addBeneficiary(), true
	case listview.FormTopUp, listview.FormCashOut:
		return d.wallet(id, params["id"]), true
	}
	return form.Spec{}, false
}

func (d formDeps) signUp() form.Spec {
	client := d.client
	return form.Spec{
		ID:    FormSignUp,
		Title: "Create an account",
		Fields: []form.Field{
			{Key: "first", Label: "First name"},
			{Key: "last", Label: "Last name"},
			{Key: "username", Label: "Username", Required: true, CharLimit: 32},
			{Key: "email", Label: "Email", Required: true, Validate: validEmail},
			{Key: "mobile", Label: "Mobile number", Required: true, Validate: digits},
			{Key: "password", Label: "Password", Required: true, Secret: true, Validate: strongEnough},
		},
		Submit: func(ctx context.Context, v form.Values) (string, error) {
			err := client.SignUp(ctx, api.SignUpRequest{
				FirstName:    optional(v["first"]),
				LastName:     optional(v["last"]),
				Username:     v["username"],
				Email:        v["email"],
				Password:     v["password"],
				MobileNumber: v["mobile"],
			})
			if err != nil {
				return "", err
			}
			return "Account created. Sign in to continue.", nil
		},
	}
}

func (d formDeps) forgotPassword() form.Spec {
	client := d.client
	return form.Spec{
		ID:    FormForgotPassword,
		Title: "Reset your password",
		Fields: []form.Field{
			{Key: "email", Label: "Email", Required: true, Validate: validEmail},
		},
		Submit: func(ctx context.Context, v form.Values) (string, error) {
			if err := client.SendPasswordResetEmail(ctx, v["email"]); err != nil {
				return "", err
			}
			return "If the address is registered a reset link is on its way.", nil
		},
	}
}

func (d formDeps) passwordReset(token string) form.Spec {
	client := d.client
	return form.Spec{
		ID:    FormPasswordReset,
		Title: "Choose a new password",
		Fields: []form.Field{
			{Key: "token", Label: "Reset token", Value: token, Required: true},
			{Key: "password", Label: "New password", Required: true, Secret: true, Validate: strongEnough},
			{Key: "confirm", Label: "Confirm", Required: true, Secret: true},
		},
		Submit: func(ctx context.Context, v form.Values) (string, error) {
			if v["password"] != v["confirm"] {
				return "", errors.New("passwords do not match")
			}
			if err := client.ResetPassword(ctx, v["token"], v["password"]); err != nil {
				return "", err
			}
			return "Password changed. Sign in with the new one.", nil
		},
	}
}

func (d formDeps) settings() form.Spec {
	client, store := d.client, d.store
	p := store.Profile()
	return form.Spec{
		ID:    FormSettings,
		Title: "Profile settings",
		Fields: []form.Field{
			{Key: "first", Label: "First name", Value: p.FirstName},
			{Key: "last", Label: "Last name", Value: p.LastName},
			{Key: "username", Label: "Username", Value: p.Username, Required: true},
			{Key: "email", Label: "Email", Value: p.Email, Required: true, Validate: validEmail},
			{Key: "mobile", Label: "Mobile number", Value: p.MobileNumber, Required: true, Validate: digits},
		},
		Submit: func(ctx context.Context, v form.Values) (string, error) {
			err := client.UpdateProfile(ctx, api.UpdateProfileRequest{
				FirstName:    optional(v["first"]),
				LastName:     optional(v["last"]),
				Username:     v["username"],
				Email:        v["email"],
				MobileNumber: v["mobile"],
			})
			if err != nil {
				return "", err
			}
			updated := store.Profile()
			updated.FirstName = v["first"]
			updated.LastName = v["last"]
			updated.Username = v["username"]
			updated.Email = v["email"]
			updated.MobileNumber = v["mobile"]
			if err := store.SaveProfile(updated); err != nil {
				return "", err
			}
			return "Profile updated.", nil
		},
	}
}

func (d formDeps) changePassword() form.Spec {
	client := d.client
	return form.Spec{
		ID:    FormChangePassword,
		Title: "Change password",
		Fields: []form.Field{
			{Key: "current", Label: "Current password", Required: true, Secret: true},
			{Key: "new", Label: "New password", Required: true, Secret: true, Validate: strongEnough},
			{Key: "confirm", Label: "Confirm", Required: true, Secret: true},
		},
		Submit: func(ctx context.Context, v form.Values) (string, error) {
			if v["new"] != v["confirm"] {
				return "", errors.New("passwords do not match")
			}
			if err := client.ChangePassword(ctx, v["current"], v["new"]); err != nil {
				return "", err
			}
			return "Password changed.", nil
		},
	}
}

func (d formDeps) moveFunds(id, code string) form.Spec {
	title, verb := "Deposit", "Deposited"
	if id == listview.FormWithdraw {
		title, verb = "Withdraw", "Withdrew"
	}
	return form.Spec{
		ID:    id,
		Title: title,
		Fields: []form.Field{
			{Key: "amount", Label: "Amount", Required: true, Validate: positiveAmount},
			{Key: "currency", Label: "Currency", Value: code, Required: true, CharLimit: 3, Validate: knownCurrency},
		},
		Submit: func(ctx context.Context, v form.Values) (string, error) {
			amount, _ := parseAmount(v["amount"])
			cur, _ := currency.Normalize(v["currency"])
			move := d.client.Deposit
			if id == listview.FormWithdraw {
				move = d.client.Withdraw
			}
			b, err := move(ctx, amount, cur)
			if err != nil {
				return "", err
			}
			d.invalidate(cache.KindBalances)
			return fmt.Sprintf("%s %s. Balance is now %s.", verb, format.Money(amount, cur), format.Money(b.Balance, b.Currency)), nil
		},
	}
}

func (d formDeps) exchange(from string) form.Spec {
	return form.Spec{
		ID:    listview.FormExchange,
		Title: "Exchange currency",
		Fields: []form.Field{
			{Key: "amount", Label: "Amount", Required: true, Validate: positiveAmount},
			{Key: "from", Label: "From", Value: from, Required: true, CharLimit: 3, Validate: knownCurrency},
			{Key: "to", Label: "To", Required: true, CharLimit: 3, Validate: knownCurrency},
		},
		Preview: func(v form.Values) string {
			amount, err := parseAmount(v["amount"])
			if err != nil || v["from"] == "" || len(v["to"]) < 3 {
				return ""
			}
			q, err := currency.NewQuote(amount, v["from"], v["to"])
			if err != nil {
				return err.Error()
			}
			return fmt.Sprintf("≈ %s (rate %.4f, fee %s)", format.Money(q.Received, q.To), q.Rate, format.Money(q.Fee, q.To))
		},
		Submit: func(ctx context.Context, v form.Values) (string, error) {
			amount, _ := parseAmount(v["amount"])
			if _, err := currency.Rate(v["from"], v["to"]); err != nil {
				return "", err
			}
			to, _ := currency.Normalize(v["to"])
			if err := d.client.ExchangeCurrency(ctx, amount, to); err != nil {
				return "", err
			}
			d.invalidate(cache.KindBalances)
			return "Exchanged " + format.Money(amount, v["from"]) + " into " + to + ".", nil
		},
	}
}

func (d formDeps) addBeneficiary() form.Spec {
	return form.Spec{
		ID:    listview.FormAddBeneficiary,
		Title: "Add beneficiary",
		Fields: []form.Field{
			{Key: "country_code", Label: "Country code", Value: "+65", Required: true, CharLimit: 5},
			{Key: "mobile", Label: "Mobile number", Required: true, Validate: digits},
		},
		Submit: func(ctx context.Context, v form.Values) (string, error) {
			if err := d.client.CreateBeneficiary(ctx, v["country_code"], v["mobile"]); err != nil {
				return "", err
			}
			d.invalidate(cache.KindBeneficiaries)
			return "Beneficiary added.", nil
		},
	}
}

func (d formDeps) wallet(id, walletID string) form.Spec {
	title, op := "Top up wallet", api.WalletTopUp
	if id == listview.FormCashOut {
		title, op = "Cash out wallet", api.WalletCashOut
	}
	return form.Spec{
		ID:    id,
		Title: title + " #" + walletID,
		Fields: []form.Field{
			{Key: "amount", Label: "Amount", Required: true, Validate: positiveAmount},
			{Key: "currency", Label: "Currency", Required: true, CharLimit: 3, Validate: knownCurrency},
		},
		Submit: func(ctx context.Context, v form.Values) (string, error) {
			wid, err := strconv.Atoi(walletID)
			if err != nil {
				return "", fmt.Errorf("invalid wallet id %q", walletID)
			}
			amount, _ := parseAmount(v["amount"])
			cur, _ := currency.Normalize(v["currency"])
			if _, err := d.client.UpdateWallet(ctx, wid, op, []api.WalletAmount{{WalletID: wid, Amount: amount, Currency: cur}}); err != nil {
				return "", err
			}
			d.invalidate(cache.KindWallets, cache.KindBalances)
			return title + ": " + format.Money(amount, cur) + ".", nil
		},
	}
}

func (d formDeps) transfer(params map[string]string) form.Spec {
	cc := params["country_code"]
	if cc == "" {
		cc = "+65"
	}
	return form.Spec{
		ID:    FormTransfer,
		Title: "Send money",
		Fields: []form.Field{
			{Key: "country_code", Label: "Country code", Value: cc, Required: true, CharLimit: 5},
			{Key: "mobile", Label: "Recipient mobile", Value: params["mobile"], Required: true, Validate: digits},
			{Key: "wallet", Label: "From wallet id", Value: params["wallet"], Required: true, Validate: digits},
			{Key: "amount", Label: "Amount", Required: true, Validate: positiveAmount},
			{Key: "currency", Label: "Currency", Value: params["currency"], Required: true, CharLimit: 3, Validate: knownCurrency},
		},
		Submit: func(ctx context.Context, v form.Values) (string, error) {
			wid, _ := strconv.Atoi(v["wallet"])
			amount, _ := parseAmount(v["amount"])
			cur, _ := currency.Normalize(v["currency"])
			err := d.client.CreateTransaction(ctx, api.CreateTransactionRequest{
				SenderWalletID:               wid,
				SourceCurrency:               cur,
				SourceAmount:                 amount,
				BeneficiaryMobileCountryCode: v["country_code"],
				BeneficiaryMobileNumber:      v["mobile"],
			})
			if err != nil {
				return "", err
			}
			d.invalidate(cache.KindTransactions, cache.KindWallets, cache.KindBalances)
			return "Sent " + format.Money(amount, cur) + " to " + v["country_code"] + " " + v["mobile"] + ".", nil
		},
	}
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("not a number")
	}
	return v, nil
}

func positiveAmount(s string) error {
	v, err := parseAmount(s)
	if err != nil {
		return err
	}
	if v <= 0 {
		return errors.New("must be greater than zero")
	}
	return nil
}

func knownCurrency(s string) error {
	_, err := currency.Normalize(s)
	return err
}

func validEmail(s string) error {
	if _, err := mail.ParseAddress(s); err != nil {
		return errors.New("not a valid address")
	}
	return nil
}

func digits(s string) error {
	for _, r := range s {
		if r < '0' || r > '9' {
			return errors.New("digits only")
		}
	}
	return nil
}

func strongEnough(s string) error {
	if len(s) < 8 {
		return errors.New("at least 8 characters")
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
