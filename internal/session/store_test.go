package session

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/purse/internal/cache"
)

type memStorage struct {
	data   map[string]string
	failOn string
}

func newMemStorage() *memStorage {
	return &memStorage{data: map[string]string{}}
}

func (m *memStorage) Get(key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStorage) Set(key, value string) error {
	if key == m.failOn {
		return errors.New("disk full")
	}
	m.data[key] = value
	return nil
}

func (m *memStorage) Delete(key string) error {
	delete(m.data, key)
	return nil
}

var alice = Profile{
	FirstName:         "Alice",
	LastName:          "Tan",
	Email:             "alice@example.com",
	Username:          "alicetan",
	MobileCountryCode: "+65",
	MobileNumber:      "91234567",
}

func TestNewStoreDefaults(t *testing.T) {
	s, err := NewStore(newMemStorage(), nil)
	require.NoError(t, err)
	assert.False(t, s.IsLoggedIn())
	assert.Equal(t, Profile{}, s.Profile())
	assert.Empty(t, s.CSRFToken())
}

func TestLoginPersistsProfile(t *testing.T) {
	storage := newMemStorage()
	s, err := NewStore(storage, nil)
	require.NoError(t, err)

	require.NoError(t, s.Login(alice))
	assert.True(t, s.IsLoggedIn())
	assert.Equal(t, alice, s.Profile())

	assert.Equal(t, "true", storage.data[KeyIsLoggedIn])
	var stored Profile
	require.NoError(t, json.Unmarshal([]byte(storage.data[KeyUser]), &stored))
	assert.Equal(t, alice, stored)
}

func TestLogoutResetsRegardlessOfState(t *testing.T) {
	for _, loggedIn := range []bool{true, false} {
		storage := newMemStorage()
		s, err := NewStore(storage, nil)
		require.NoError(t, err)
		if loggedIn {
			require.NoError(t, s.Login(alice))
		}

		require.NoError(t, s.Logout())
		assert.False(t, s.IsLoggedIn())
		assert.Equal(t, Profile{}, s.Profile())
		assert.Equal(t, "false", storage.data[KeyIsLoggedIn])
		_, ok := storage.data[KeyUser]
		assert.False(t, ok, "logged out session keeps no stored profile")
	}
}

func TestSaveProfileKeepsFlag(t *testing.T) {
	storage := newMemStorage()
	s, err := NewStore(storage, nil)
	require.NoError(t, err)
	require.NoError(t, s.Login(alice))

	edited := alice
	edited.MobileNumber = "98765432"
	require.NoError(t, s.SaveProfile(edited))
	assert.True(t, s.IsLoggedIn())
	assert.Equal(t, edited, s.Profile())
	assert.Contains(t, storage.data[KeyUser], "98765432")
}

func TestSaveProfileWhileLoggedOutStoresNothing(t *testing.T) {
	storage := newMemStorage()
	s, err := NewStore(storage, nil)
	require.NoError(t, err)

	require.NoError(t, s.SaveProfile(alice))
	assert.False(t, s.IsLoggedIn())
	_, ok := storage.data[KeyUser]
	assert.False(t, ok)
}

func TestCSRFTokenIsVolatile(t *testing.T) {
	storage := newMemStorage()
	s, err := NewStore(storage, nil)
	require.NoError(t, err)
	require.NoError(t, s.Login(alice))

	s.StoreCSRFToken("tok-1")
	s.StoreCSRFToken("tok-2")
	assert.Equal(t, "tok-2", s.CSRFToken())
	for _, v := range storage.data {
		assert.NotContains(t, v, "tok-2")
	}

	reloaded, err := NewStore(storage, nil)
	require.NoError(t, err)
	assert.True(t, reloaded.IsLoggedIn())
	assert.Equal(t, alice, reloaded.Profile())
	assert.Empty(t, reloaded.CSRFToken())
}

func TestNewStoreIgnoresCorruptProfile(t *testing.T) {
	storage := newMemStorage()
	storage.data[KeyUser] = "{not json"
	storage.data[KeyIsLoggedIn] = "false"

	s, err := NewStore(storage, nil)
	require.NoError(t, err)
	assert.Equal(t, Profile{}, s.Profile())
	assert.False(t, s.IsLoggedIn())
}

func TestPersistErrorSurfaces(t *testing.T) {
	storage := newMemStorage()
	storage.failOn = KeyUser
	s, err := NewStore(storage, nil)
	require.NoError(t, err)

	err = s.Login(alice)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, s.IsLoggedIn())
	assert.Equal(t, Profile{}, s.Profile())
	_, stored := storage.data[KeyUser]
	assert.False(t, stored)
	assert.NotEqual(t, "true", storage.data[KeyIsLoggedIn])
}

func TestFailedFlagWriteKeepsPreviousSession(t *testing.T) {
	storage := newMemStorage()
	s, err := NewStore(storage, nil)
	require.NoError(t, err)

	storage.failOn = KeyIsLoggedIn
	require.Error(t, s.Login(alice))
	assert.False(t, s.IsLoggedIn())
	_, stored := storage.data[KeyUser]
	assert.False(t, stored, "profile written before the failing flag write is removed again")

	storage.failOn = ""
	require.NoError(t, s.Login(alice))
	storage.failOn = KeyIsLoggedIn
	require.Error(t, s.Logout())
	assert.True(t, s.IsLoggedIn())
	assert.Equal(t, alice, s.Profile())
	assert.Equal(t, "true", storage.data[KeyIsLoggedIn])

	storage.failOn = KeyUser
	changed := alice
	changed.FirstName = "Alicia"
	require.Error(t, s.SaveProfile(changed))
	assert.Equal(t, alice, s.Profile())

	reloaded, err := NewStore(storage, nil)
	require.NoError(t, err)
	assert.True(t, reloaded.IsLoggedIn())
	assert.Equal(t, alice, reloaded.Profile())
}

func TestStoreOverSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "purse.db")
	db, err := cache.Open(path)
	require.NoError(t, err)

	s, err := NewStore(db.Session(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Login(alice))
	require.NoError(t, db.Close())

	db, err = cache.Open(path)
	require.NoError(t, err)
	defer db.Close()
	s, err = NewStore(db.Session(), nil)
	require.NoError(t, err)
	assert.True(t, s.IsLoggedIn())
	assert.Equal(t, alice, s.Profile())
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Alice Tan", alice.DisplayName())
	assert.Equal(t, "Alice", Profile{FirstName: "Alice", Username: "a"}.DisplayName())
	assert.Equal(t, "a", Profile{Username: "a"}.DisplayName())
}
