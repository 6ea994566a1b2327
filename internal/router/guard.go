// Package router decides whether a view transition may proceed. Every
// transition passes through Guard.Check, which consults the local session
// flag and, when that flag claims a session, revalidates it with the server.
package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Outcome is the verdict on a requested transition.
type Outcome int

const (
	// Allow lets the transition proceed to the requested route.
	Allow Outcome = iota
	// Redirect sends an already signed-in user away from the login view.
	Redirect
	// DenyLogin sends the user to the login view.
	DenyLogin
	// DenyError sends the user to the error view.
	DenyError
	// Cancelled means the check was superseded before it finished.
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	case DenyLogin:
		return "deny-login"
	case DenyError:
		return "deny-error"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Decision is the result of a guard check. Route is where navigation ends
// up; Err is the revalidation failure behind a denial, if any.
type Decision struct {
	Outcome Outcome
	Route   Name
	Err     error
}

// Session is the part of the session store the guard reads and clears.
type Session interface {
	IsLoggedIn() bool
	Logout() error
}

// Revalidator asks the server whether the session is still valid. A
// transport failure reports status 0.
type Revalidator interface {
	SessionStatus(ctx context.Context) (int, error)
}

// Guard checks transitions against the session.
type Guard struct {
	session Session
	api     Revalidator
	log     *zap.Logger
}

func NewGuard(session Session, api Revalidator, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{session: session, api: api, log: log}
}

// Check decides the transition to target. It blocks on at most one
// revalidation request.
func (g *Guard) Check(ctx context.Context, target Name) Decision {
	d := g.check(ctx, target)
	g.log.Debug("guard",
		zap.String("target", string(target)),
		zap.Stringer("outcome", d.Outcome),
		zap.String("route", string(d.Route)),
		zap.Error(d.Err),
	)
	return d
}

func (g *Guard) check(ctx context.Context, target Name) Decision {
	route, ok := Lookup(target)
	if !ok {
		return Decision{Outcome: DenyError, Route: Error, Err: fmt.Errorf("unknown route %q", target)}
	}

	if route.Public {
		if target != Login || !g.session.IsLoggedIn() {
			return Decision{Outcome: Allow, Route: target}
		}
		status, err := g.api.SessionStatus(ctx)
		if err == nil && status == http.StatusOK {
			return Decision{Outcome: Redirect, Route: Home}
		}
		if cancelled(ctx, err) {
			return Decision{Outcome: Cancelled, Route: target, Err: err}
		}
		g.clear()
		return Decision{Outcome: Allow, Route: Login}
	}

	if !g.session.IsLoggedIn() {
		return Decision{Outcome: DenyLogin, Route: Login}
	}
	status, err := g.api.SessionStatus(ctx)
	switch {
	case err == nil && status == http.StatusOK:
		return Decision{Outcome: Allow, Route: target}
	case cancelled(ctx, err):
		return Decision{Outcome: Cancelled, Route: target, Err: err}
	case status == http.StatusUnauthorized:
		g.clear()
		return Decision{Outcome: DenyLogin, Route: Login, Err: err}
	default:
		g.clear()
		if err == nil {
			err = fmt.Errorf("unexpected status %d", status)
		}
		return Decision{Outcome: DenyError, Route: Error, Err: err}
	}
}

// clear drops the local session so the logged-in flag is false and no
// profile is left behind.
func (g *Guard) clear() {
	if err := g.session.Logout(); err != nil {
		g.log.Warn("clearing session", zap.Error(err))
	}
}

func cancelled(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}
