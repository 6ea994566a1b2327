package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// KeyCookies is the storage key holding the persisted cookies.
const KeyCookies = "cookies"

// KV is the durable key/value store the cookie jar writes through to.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

type savedCookie struct {
	URL      string    `json:"url"`
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain"`
	Path     string    `json:"path"`
	Expires  time.Time `json:"expires"`
	Secure   bool      `json:"secure"`
	HttpOnly bool      `json:"http_only"`
}

// Jar is a cookie jar that survives restarts, standing in for the browser's
// cookie store. Every SetCookies is written through to storage.
type Jar struct {
	mu      sync.Mutex
	jar     *cookiejar.Jar
	storage KV
	saved   map[string]savedCookie
	log     *zap.Logger
}

// NewJar restores persisted cookies from storage. Expired cookies are dropped.
func NewJar(storage KV, log *zap.Logger) (*Jar, error) {
	if log == nil {
		log = zap.NewNop()
	}
	j := &Jar{storage: storage, saved: map[string]savedCookie{}, log: log}
	j.jar = newCookieJar()

	raw, ok, err := storage.Get(KeyCookies)
	if err != nil {
		return nil, fmt.Errorf("reading cookies: %w", err)
	}
	if !ok {
		return j, nil
	}

	var saved []savedCookie
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		log.Warn("discarding unreadable stored cookies", zap.Error(err))
		return j, nil
	}
	now := time.Now()
	for _, sc := range saved {
		if !sc.Expires.IsZero() && sc.Expires.Before(now) {
			continue
		}
		u, err := url.Parse(sc.URL)
		if err != nil {
			continue
		}
		j.jar.SetCookies(u, []*http.Cookie{sc.cookie()})
		j.saved[cookieKey(sc)] = sc
	}
	return j, nil
}

func newCookieJar() *cookiejar.Jar {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return jar
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar.SetCookies(u, cookies)

	now := time.Now()
	origin := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}).String()
	for _, c := range cookies {
		sc := savedCookie{
			URL:      origin,
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
		if c.MaxAge > 0 {
			sc.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		expired := c.MaxAge < 0 || (!sc.Expires.IsZero() && sc.Expires.Before(now))
		if expired {
			delete(j.saved, cookieKey(sc))
			continue
		}
		j.saved[cookieKey(sc)] = sc
	}
	j.persist()
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// Clear forgets every cookie, in memory and in storage.
func (j *Jar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar = newCookieJar()
	j.saved = map[string]savedCookie{}
	if err := j.storage.Delete(KeyCookies); err != nil {
		j.log.Warn("deleting stored cookies", zap.Error(err))
	}
}

// persist writes the tracked cookies. Callers hold j.mu.
func (j *Jar) persist() {
	list := make([]savedCookie, 0, len(j.saved))
	for _, sc := range j.saved {
		list = append(list, sc)
	}
	raw, err := json.Marshal(list)
	if err != nil {
		j.log.Warn("encoding cookies", zap.Error(err))
		return
	}
	if err := j.storage.Set(KeyCookies, string(raw)); err != nil {
		j.log.Warn("writing cookies", zap.Error(err))
	}
}

func (sc savedCookie) cookie() *http.Cookie {
	return &http.Cookie{
		Name:     sc.Name,
		Value:    sc.Value,
		Domain:   sc.Domain,
		Path:     sc.Path,
		Expires:  sc.Expires,
		Secure:   sc.Secure,
		HttpOnly: sc.HttpOnly,
	}
}

func cookieKey(sc savedCookie) string {
	return sc.URL + "|" + sc.Domain + "|" + sc.Path + "|" + sc.Name
}
