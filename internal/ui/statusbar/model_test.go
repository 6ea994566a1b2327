package statusbar

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fragmede/purse/internal/router"
)

func TestTabRouteAndIndexAgree(t *testing.T) {
	for i := range Tabs {
		route, ok := TabRoute(i)
		assert.True(t, ok)
		assert.Equal(t, i, TabIndex(route))
	}

	_, ok := TabRoute(len(Tabs))
	assert.False(t, ok)
	_, ok = TabRoute(-1)
	assert.False(t, ok)
	assert.Equal(t, -1, TabIndex(router.Login))
}

func TestTabsHiddenWhenSignedOut(t *testing.T) {
	m := New()
	m.SetSize(200)

	assert.NotContains(t, m.View(), "Balances")
	assert.Contains(t, m.View(), "not signed in")

	m.SetUser("Alice Tan")
	m.SetActive(router.Balances)
	view := m.View()
	assert.Contains(t, view, "Balances")
	assert.Contains(t, view, "Alice Tan")
}

func TestStatusAndUnread(t *testing.T) {
	m := New()
	m.SetSize(200)
	m.SetUser("alice")

	m.SetUnread(3)
	m.SetError("network down")
	m.SetOffline(true)

	view := m.View()
	assert.Contains(t, view, " 3 ")
	assert.Contains(t, view, "network down")
	assert.Contains(t, view, "OFFLINE")
	assert.Equal(t, 3, m.Unread())

	m.SetStatus("Deposited")
	assert.Equal(t, "Deposited", m.Status())
}
