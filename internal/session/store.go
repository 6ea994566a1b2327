package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Durable storage keys.
const (
	KeyUser       = "user"
	KeyIsLoggedIn = "isLoggedIn"
)

// ErrNotLoggedIn is returned by operations that need an authenticated session.
var ErrNotLoggedIn = errors.New("not logged in")

// Profile is the signed-in user's details as returned by the API.
type Profile struct {
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Email             string `json:"email"`
	Username          string `json:"username"`
	MobileCountryCode string `json:"mobileCountryCode"`
	MobileNumber      string `json:"mobileNumber"`
}

// DisplayName prefers the full name and falls back to the username.
func (p Profile) DisplayName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	default:
		return p.Username
	}
}

// Storage is the durable key/value store the session is mirrored to.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Store holds the current profile, the logged-in flag and the anti-forgery
// token. Profile and flag are written through to Storage on every mutation;
// the token lives in memory only.
type Store struct {
	mu         sync.RWMutex
	storage    Storage
	log        *zap.Logger
	profile    Profile
	isLoggedIn bool
	csrfToken  string
}

// NewStore hydrates a store from storage. Missing keys keep their defaults.
func NewStore(storage Storage, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{storage: storage, log: log}

	raw, ok, err := storage.Get(KeyUser)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", KeyUser, err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &s.profile); err != nil {
			log.Warn("discarding unreadable stored profile", zap.Error(err))
			s.profile = Profile{}
		}
	}

	flag, ok, err := storage.Get(KeyIsLoggedIn)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", KeyIsLoggedIn, err)
	}
	s.isLoggedIn = ok && flag == "true"

	log.Debug("session hydrated", zap.Bool("logged_in", s.isLoggedIn))
	return s, nil
}

// Login replaces the profile and marks the session as authenticated.
func (s *Store) Login(p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(p, true); err != nil {
		return err
	}
	s.log.Info("session logged in", zap.String("username", p.Username))
	return nil
}

// Logout resets the profile, clears the flag and removes the stored profile.
// The flag itself is still written, as "false".
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasLoggedIn := s.isLoggedIn
	if err := s.commit(Profile{}, false); err != nil {
		return err
	}
	if wasLoggedIn {
		s.log.Info("session logged out")
	}
	return nil
}

// SaveProfile updates the profile without touching the logged-in flag.
func (s *Store) SaveProfile(p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(p, s.isLoggedIn)
}

// StoreCSRFToken overwrites the in-memory anti-forgery token.
func (s *Store) StoreCSRFToken(token string) {
	s.mu.Lock()
	s.csrfToken = token
	s.mu.Unlock()
}

// CSRFToken returns the current anti-forgery token, or "".
func (s *Store) CSRFToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.csrfToken
}

// Profile returns a copy of the current profile.
func (s *Store) Profile() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// IsLoggedIn reports the locally cached logged-in flag.
func (s *Store) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoggedIn
}

// commit writes the new state to storage and only then adopts it in memory.
// A failed write leaves memory unchanged and puts the previous state back
// in storage. Callers hold s.mu.
func (s *Store) commit(p Profile, loggedIn bool) error {
	if err := s.persist(p, loggedIn); err != nil {
		if rerr := s.persist(s.profile, s.isLoggedIn); rerr != nil {
			s.log.Error("restoring stored session", zap.Error(rerr))
		}
		return err
	}
	s.profile = p
	s.isLoggedIn = loggedIn
	return nil
}

// persist mirrors profile and flag to storage. A logged-out session never
// leaves a profile behind.
func (s *Store) persist(p Profile, loggedIn bool) error {
	if loggedIn {
		raw, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding profile: %w", err)
		}
		if err := s.storage.Set(KeyUser, string(raw)); err != nil {
			return fmt.Errorf("writing %s: %w", KeyUser, err)
		}
		if err := s.storage.Set(KeyIsLoggedIn, "true"); err != nil {
			return fmt.Errorf("writing %s: %w", KeyIsLoggedIn, err)
		}
		return nil
	}

	if err := s.storage.Delete(KeyUser); err != nil {
		return fmt.Errorf("deleting %s: %w", KeyUser, err)
	}
	if err := s.storage.Set(KeyIsLoggedIn, "false"); err != nil {
		return fmt.Errorf("writing %s: %w", KeyIsLoggedIn, err)
	}
	return nil
}
