package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
	userAgent      = "purse/1.0"
)

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Tokens holds the anti-forgery token. Required.
	Tokens TokenStore
	// Jar carries the credential cookie. nil uses an in-memory jar.
	Jar http.CookieJar
	// OnUnauthorized runs after any 401 response, before the error reaches
	// the caller.
	OnUnauthorized func()
	// Transport is the underlying round tripper. nil uses http.DefaultTransport.
	Transport http.RoundTripper
	Log       *zap.Logger
}

// Client is the wallet API client. Every request carries cookies, a JSON
// content type and, when one is held, the anti-forgery token.
type Client struct {
	http *http.Client
	base string
	log  *zap.Logger
}

// NewClient creates a new wallet API client.
func NewClient(opts Options) *Client {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	next := opts.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	jar := opts.Jar
	if jar == nil {
		jar = newCookieJar()
	}

	return &Client{
		http: &http.Client{
			Timeout: timeout,
			Jar:     jar,
			Transport: &interceptor{
				next:           next,
				tokens:         opts.Tokens,
				onUnauthorized: opts.OnUnauthorized,
				log:            log,
			},
		},
		base: strings.TrimRight(opts.BaseURL, "/"),
		log:  log,
	}
}

// do sends a JSON request and decodes a JSON response into dst when dst is
// non-nil. Non-2xx responses come back as *StatusError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dst interface{}) (http.Header, error) {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request for %s: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.Header, statusError(resp, method, path)
	}

	if dst != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			return resp.Header, fmt.Errorf("decoding response from %s: %w", path, err)
		}
	}
	return resp.Header, nil
}

func statusError(resp *http.Response, method, path string) error {
	se := &StatusError{Status: resp.StatusCode, Method: method, Path: path}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		se.Message = payload.Message
	}
	return se
}

func (c *Client) get(ctx context.Context, path string, dst interface{}) error {
	_, err := c.do(ctx, http.MethodGet, path, nil, nil, dst)
	return err
}

func (c *Client) send(ctx context.Context, method, path string, body interface{}) error {
	_, err := c.do(ctx, method, path, nil, body, nil)
	return err
}
