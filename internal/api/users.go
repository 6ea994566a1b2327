package api

import (
	"context"
	"fmt"
	"net/http"
)

// Login checks the user's password. On success the server sets the session
// cookie and issues an anti-forgery token; the response says whether a
// second factor is still required.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if _, err := c.do(ctx, http.MethodPost, "/login", nil, LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	return &resp, nil
}

// Logout ends the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.send(ctx, http.MethodPost, "/logout", struct{}{}); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}

// Me revalidates the session. The server answers with an empty body and a
// fresh anti-forgery token.
func (c *Client) Me(ctx context.Context) error {
	return c.get(ctx, "/users/me", nil)
}

// SessionStatus revalidates the session and reports the HTTP status. A
// transport failure yields status 0 and the error.
func (c *Client) SessionStatus(ctx context.Context) (int, error) {
	err := c.Me(ctx)
	if err == nil {
		return http.StatusOK, nil
	}
	return StatusCode(err), err
}

// SignUp registers a new account.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) error {
	if err := c.send(ctx, http.MethodPost, "/signup", req); err != nil {
		return fmt.Errorf("signing up: %w", err)
	}
	return nil
}

// UpdateProfile replaces the signed-in user's details.
func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) error {
	if err := c.send(ctx, http.MethodPut, "/users/profile", req); err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return nil
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	req := ChangePasswordRequest{CurrentPassword: current, NewPassword: next}
	if err := c.send(ctx, http.MethodPatch, "/change-password", req); err != nil {
		return fmt.Errorf("changing password: %w", err)
	}
	return nil
}

func (c *Client) SendPasswordResetEmail(ctx context.Context, email string) error {
	req := struct {
		Email string `json:"email"`
	}{email}
	if err := c.send(ctx, http.MethodPost, "/password-reset/send", req); err != nil {
		return fmt.Errorf("requesting password reset: %w", err)
	}
	return nil
}

func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	req := PasswordResetRequest{Token: token, Password: password}
	if err := c.send(ctx, http.MethodPatch, "/password-reset/reset", req); err != nil {
		return fmt.Errorf("resetting password: %w", err)
	}
	return nil
}

// ConfigureMFA enrols the TOTP secret issued at login and completes the login.
func (c *Client) ConfigureMFA(ctx context.Context, email, secret, code string) error {
	req := ConfigureMFARequest{Email: email, Secret: secret, MFACode: code}
	if err := c.send(ctx, http.MethodPost, "/configure-mfa", req); err != nil {
		return fmt.Errorf("configuring mfa: %w", err)
	}
	return nil
}

// VerifyMFA checks a TOTP code for an enrolled account and completes the login.
func (c *Client) VerifyMFA(ctx context.Context, email, code string) error {
	req := VerifyMFARequest{Email: email, MFACode: code}
	if err := c.send(ctx, http.MethodPost, "/verify-mfa", req); err != nil {
		return fmt.Errorf("verifying mfa: %w", err)
	}
	return nil
}
