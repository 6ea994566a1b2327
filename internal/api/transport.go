package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Header names shared with the server.
const (
	HeaderCSRFToken = "X-CSRF-Token"
	HeaderRequestID = "X-Request-ID"
)

// TokenStore holds the anti-forgery token between requests.
type TokenStore interface {
	CSRFToken() string
	StoreCSRFToken(token string)
}

// interceptor wraps every round trip: it attaches the anti-forgery token held
// at dispatch time, picks up a refreshed token from successful responses and
// reports 401s. It never turns a response into an error or swallows one.
type interceptor struct {
	next           http.RoundTripper
	tokens         TokenStore
	onUnauthorized func()
	log            *zap.Logger
}

func (t *interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if tok := t.tokens.CSRFToken(); tok != "" {
		req.Header.Set(HeaderCSRFToken, tok)
	}
	reqID := req.Header.Get(HeaderRequestID)
	if reqID == "" {
		reqID = uuid.NewString()
		req.Header.Set(HeaderRequestID, reqID)
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.String("request_id", reqID),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		t.log.Warn("request failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	fields = append(fields, zap.Int("status", resp.StatusCode))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if tok := resp.Header.Get(HeaderCSRFToken); tok != "" {
			t.tokens.StoreCSRFToken(tok)
		}
		t.log.Debug("request", fields...)
	case resp.StatusCode == http.StatusUnauthorized:
		t.log.Info("unauthorized response, clearing session", fields...)
		// The client hands Set-Cookie to its jar after RoundTrip returns,
		// which would undo a jar cleared by the hook.
		resp.Header.Del("Set-Cookie")
		if t.onUnauthorized != nil {
			t.onUnauthorized()
		}
	default:
		t.log.Info("request", fields...)
	}
	return resp, nil
}
