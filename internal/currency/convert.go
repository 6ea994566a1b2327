// Package currency converts amounts between the currencies the wallet
// supports using a fixed rate table.
package currency

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
)

var (
	// ErrUnknownCurrency is returned for codes that are not ISO 4217.
	ErrUnknownCurrency = errors.New("unknown currency")
	// ErrUnsupportedPair is returned when the rate table has no entry for a pair.
	ErrUnsupportedPair = errors.New("unsupported currency pair")
)

type pair struct{ from, to string }

var rates = map[pair]float64{
	{"USD", "SGD"}: 1.35,
	{"USD", "EUR"}: 0.92,
	{"SGD", "USD"}: 0.74,
	{"SGD", "EUR"}: 0.68,
	{"EUR", "USD"}: 1.09,
	{"EUR", "SGD"}: 1.47,
}

// Supported lists the currency codes that appear in the rate table.
func Supported() []string {
	return []string{"EUR", "SGD", "USD"}
}

// Normalize upper-cases and validates an ISO 4217 code.
func Normalize(code string) (string, error) {
	u, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return u.String(), nil
}

// Rate returns the multiplier from one currency to another. Identical codes
// have rate 1 whether or not they are in the table or in ISO 4217.
func Rate(from, to string) (float64, error) {
	if code := strings.TrimSpace(from); code != "" && strings.EqualFold(code, strings.TrimSpace(to)) {
		return 1, nil
	}
	f, err := Normalize(from)
	if err != nil {
		return 0, err
	}
	t, err := Normalize(to)
	if err != nil {
		return 0, err
	}
	if f == t {
		return 1, nil
	}
	r, ok := rates[pair{f, t}]
	if !ok {
		return 0, fmt.Errorf("%w: %s to %s", ErrUnsupportedPair, f, t)
	}
	return r, nil
}

// Convert converts amount from one currency to another. Negative and
// non-finite amounts convert to 0.
func Convert(amount float64, from, to string) (float64, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, nil
	}
	r, err := Rate(from, to)
	if err != nil {
		return 0, err
	}
	if r == 1 {
		return amount, nil
	}
	return amount * r, nil
}

// ConvertString parses amount and converts it. A non-numeric amount
// converts to 0.
func ConvertString(amount, from, to string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
	if err != nil {
		return 0, nil
	}
	return Convert(v, from, to)
}
