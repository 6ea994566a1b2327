package listview

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fragmede/purse/internal/api"
	"github.com/fragmede/purse/internal/format"
)

var titleCase = cases.Title(language.English)

// BalanceItem wraps a balance for the bubbles list.
type BalanceItem struct {
	api.Balance
}

func (b BalanceItem) Title() string  { return format.CurrencyName(b.Currency) }
func (b BalanceItem) Figure() string { return format.Money(b.Balance.Balance, b.Currency) }
func (b BalanceItem) Badge() string  { return "BAL" }
func (b BalanceItem) Dimmed() bool   { return b.Balance.Balance == 0 }

func (b BalanceItem) Details() []string {
	d := []string{fmt.Sprintf("balance #%d", b.ID)}
	if b.UpdatedAt != "" {
		d = append(d, "updated "+format.TimeAgo(b.UpdatedAt))
	}
	if b.CreatedAt != "" {
		d = append(d, "opened "+format.Date(b.CreatedAt))
	}
	return d
}

func (b BalanceItem) FilterValue() string { return b.Currency }

// WalletItem wraps a wallet.
type WalletItem struct {
	api.Wallet
}

func (w WalletItem) Title() string {
	if w.WalletType == "" {
		return fmt.Sprintf("Wallet #%d", w.ID)
	}
	return fmt.Sprintf("%s wallet #%d", titleCase.String(w.WalletType), w.ID)
}

// Figure is the single holding, or how many currencies the wallet holds.
func (w WalletItem) Figure() string {
	switch len(w.CurrencyAmount) {
	case 0:
		return "empty"
	case 1:
		a := w.CurrencyAmount[0]
		return format.Money(a.Amount, a.Currency)
	}
	return format.Count(len(w.CurrencyAmount)) + " currencies"
}

func (w WalletItem) Badge() string { return "WAL" }
func (w WalletItem) Dimmed() bool  { return len(w.CurrencyAmount) == 0 }

func (w WalletItem) Details() []string {
	var d []string
	switch len(w.CurrencyAmount) {
	case 0:
		d = append(d, "no funds yet")
	case 1:
		d = append(d, format.CurrencyName(w.CurrencyAmount[0].Currency))
	default:
		for _, a := range w.CurrencyAmount {
			d = append(d, format.Money(a.Amount, a.Currency))
		}
	}
	if w.CreatedAt != "" {
		d = append(d, "opened "+format.Date(w.CreatedAt))
	}
	return d
}

func (w WalletItem) FilterValue() string { return w.WalletType }

// BeneficiaryItem wraps a saved recipient.
type BeneficiaryItem struct {
	api.Beneficiary
}

func (b BeneficiaryItem) Title() string {
	name := strings.TrimSpace(b.FirstName + " " + b.LastName)
	if name == "" {
		name = b.Username
	}
	return name
}

func (b BeneficiaryItem) Figure() string {
	if b.IsActive == 0 {
		return "inactive"
	}
	return b.Mobile()
}

func (b BeneficiaryItem) Badge() string { return "BEN" }
func (b BeneficiaryItem) Dimmed() bool  { return b.IsActive == 0 }

func (b BeneficiaryItem) Details() []string {
	var d []string
	if b.Username != "" {
		d = append(d, "@"+b.Username)
	}
	if b.IsActive == 0 {
		d = append(d, b.Mobile())
	}
	return append(d, b.Email)
}

func (b BeneficiaryItem) FilterValue() string {
	return b.FirstName + " " + b.LastName + " " + b.Username
}

func balanceItems(bs []api.Balance) []BalanceItem {
	items := make([]BalanceItem, len(bs))
	for i, b := range bs {
		items[i] = BalanceItem{Balance: b}
	}
	return items
}

// Active beneficiaries only; soft-deleted ones stay on the server.
func beneficiaryItems(bs []api.Beneficiary) []BeneficiaryItem {
	items := make([]BeneficiaryItem, 0, len(bs))
	for _, b := range bs {
		if b.IsDeleted != 0 {
			continue
		}
		items = append(items, BeneficiaryItem{Beneficiary: b})
	}
	return items
}
