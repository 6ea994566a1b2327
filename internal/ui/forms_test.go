package ui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/purse/internal/api"
	"github.com/fragmede/purse/internal/cache"
	"github.com/fragmede/purse/internal/ui/form"
	"github.com/fragmede/purse/internal/ui/listview"
)

func TestValidators(t *testing.T) {
	assert.NoError(t, positiveAmount("1,250.50"))
	assert.Error(t, positiveAmount("0"))
	assert.Error(t, positiveAmount("-3"))
	assert.Error(t, positiveAmount("NaN"))
	assert.Error(t, positiveAmount("ten"))

	assert.NoError(t, knownCurrency("sgd"))
	assert.Error(t, knownCurrency("S$"))

	assert.NoError(t, validEmail("alice@example.com"))
	assert.Error(t, validEmail("alice"))

	assert.NoError(t, digits("91234567"))
	assert.Error(t, digits("+6591234567"))

	assert.Error(t, strongEnough("short"))
	assert.NoError(t, strongEnough("long enough"))

	assert.Nil(t, optional(""))
	assert.Equal(t, "x", *optional("x"))
}

func TestBuildFormKnowsEveryOpenedForm(t *testing.T) {
	d := newHarness(t).app.forms
	for _, id := range []string{
		FormSignUp, FormForgotPassword, FormPasswordReset, FormSettings, FormChangePassword, FormTransfer,
		listview.FormDeposit, listview.FormWithdraw, listview.FormExchange,
		listview.FormAddBeneficiary, listview.FormTopUp, listview.FormCashOut,
	} {
		spec, ok := d.buildForm(id, nil)
		require.True(t, ok, id)
		assert.Equal(t, id, spec.ID)
	}
	_, ok := d.buildForm("nope", nil)
	assert.False(t, ok)
}

func TestExchangePreview(t *testing.T) {
	var d formDeps
	spec := d.exchange("USD")

	assert.Empty(t, spec.Preview(form.Values{"amount": "100", "from": "USD", "to": "S"}))
	line := spec.Preview(form.Values{"amount": "100", "from": "USD", "to": "SGD"})
	assert.Contains(t, line, "SGD")
	assert.Contains(t, line, "rate 1.3500")
}

func TestDepositSubmitInvalidatesBalances(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	d := h.app.forms

	require.NoError(t, d.cache.PutListing("alice", cache.KindBalances, []api.Balance{{ID: 1, Balance: 10, Currency: "SGD"}}))

	spec, ok := d.buildForm(listview.FormDeposit, map[string]string{"currency": "SGD"})
	require.True(t, ok)
	status, err := spec.Submit(context.Background(), form.Values{"amount": "5", "currency": "sgd"})
	require.NoError(t, err)
	assert.Equal(t, "Deposited 5.00 SGD. Balance is now 15.00 SGD.", status)
	assert.NotEmpty(t, h.srv.LastCSRF("/balances/deposit"))

	var saved []api.Balance
	found, _, err := d.cache.GetListing("alice", cache.KindBalances, 0, &saved)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExchangeRejectsUnlistedPair(t *testing.T) {
	var d formDeps
	spec := d.exchange("USD")
	_, err := spec.Submit(context.Background(), form.Values{"amount": "5", "from": "USD", "to": "JPY"})
	assert.Error(t, err)
}
