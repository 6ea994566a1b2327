package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pquerna/otp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fragmede/purse/internal/api"
)

// NewLoginCommand signs in without the TUI. The password and any one-time
// code are read line by line from stdin.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:           "login",
		Short:         "Sign in and store the session",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()
			return runLogin(cmd.Context(), e, email, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runLogin(ctx context.Context, e *env, email string, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	lines := bufio.NewScanner(in)
	prompt := func(label string) (string, error) {
		fmt.Fprint(out, label)
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimSpace(lines.Text()), nil
	}

	password, err := prompt("Password: ")
	if err != nil {
		return err
	}
	resp, err := e.client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %s", api.Message(err))
	}
	if resp.Email == "" {
		resp.Email = email
	}

	switch {
	case resp.NeedsMFASetup():
		fmt.Fprintln(out, "Two-factor authentication is not set up yet.")
		if key, err := otp.NewKeyFromURL(resp.MFAConfig.URL); err == nil {
			fmt.Fprintf(out, "Issuer:  %s\nAccount: %s\n", key.Issuer(), key.AccountName())
		}
		fmt.Fprintf(out, "Secret:  %s\n", resp.MFAConfig.Secret)
		code, err := prompt("Code from your authenticator app: ")
		if err != nil {
			return err
		}
		if err := e.client.ConfigureMFA(ctx, resp.Email, resp.MFAConfig.Secret, code); err != nil {
			return fmt.Errorf("mfa setup: %s", api.Message(err))
		}
	case resp.NeedsMFA():
		code, err := prompt("Code: ")
		if err != nil {
			return err
		}
		if err := e.client.VerifyMFA(ctx, resp.Email, code); err != nil {
			return fmt.Errorf("mfa: %s", api.Message(err))
		}
	}

	profile := resp.Profile()
	if err := e.store.Login(profile); err != nil {
		return err
	}
	e.log.Info("signed in", zap.String("user", profile.Username))
	fmt.Fprintf(out, "Signed in as %s\n", profile.DisplayName())
	return nil
}

// NewLogoutCommand ends the session on the server and forgets it locally.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "logout",
		Short:         "Sign out and clear the stored session",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out := cmd.OutOrStdout()
			if !e.store.IsLoggedIn() {
				fmt.Fprintln(out, "Not signed in")
				return nil
			}

			// The CSRF token lives in memory only; a fresh process has to
			// fetch one before the logout request will be accepted.
			if _, err := e.client.SessionStatus(ctx); err != nil && !errors.Is(err, api.ErrUnauthorized) {
				e.log.Warn("refreshing csrf token", zap.Error(err))
			}
			var remote error
			if e.store.IsLoggedIn() {
				remote = e.client.Logout(ctx)
			}
			owner := e.store.Profile().Username
			if err := e.store.Logout(); err != nil {
				return err
			}
			e.jar.Clear()
			if owner != "" {
				if err := e.db.ClearListings(owner); err != nil {
					e.log.Warn("clearing cached listings", zap.Error(err))
				}
			}
			if remote != nil && !errors.Is(remote, api.ErrUnauthorized) {
				fmt.Fprintf(cmd.ErrOrStderr(), "server logout failed: %s\n", api.Message(remote))
			}
			fmt.Fprintln(out, "Signed out")
			return nil
		},
	}
}

// NewWhoamiCommand prints the stored profile and whether the server still
// accepts the session.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "whoami",
		Short:         "Show the signed-in user",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			if !e.store.IsLoggedIn() {
				fmt.Fprintln(out, "Not signed in")
				return nil
			}
			p := e.store.Profile()
			fmt.Fprintf(out, "%s (%s)\n", p.DisplayName(), p.Email)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			code, err := e.client.SessionStatus(ctx)
			switch {
			case code == http.StatusOK:
				fmt.Fprintln(out, "Session: active")
			case errors.Is(err, api.ErrUnauthorized):
				fmt.Fprintln(out, "Session: expired, run purse login")
			case err != nil:
				fmt.Fprintf(out, "Session: unknown (%s)\n", api.Message(err))
			}
			return nil
		},
	}
}
