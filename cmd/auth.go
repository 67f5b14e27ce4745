package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/cinefeed/internal/auth"
	"github.com/desertthunder/cinefeed/internal/routes"
	"github.com/desertthunder/cinefeed/internal/shared"
	"github.com/urfave/cli/v3"
)

// SessionStatus is the JSON shape printed by `auth status --json`.
type SessionStatus struct {
	Authenticated bool      `json:"authenticated"`
	Verified      bool      `json:"verified"`
	Email         string    `json:"email,omitempty"`
	DisplayName   string    `json:"display_name,omitempty"`
	Provider      string    `json:"provider,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitzero"`
	Error         string    `json:"error,omitempty"`
}

// gateway builds an auth gateway whose navigations are recorded in the returned history.
func (r *Runner) gateway() (*auth.Gateway, *routes.History, error) {
	history := routes.NewHistory(routes.Root)
	gw, err := r.newGateway(history, r.output)
	if err != nil {
		return nil, nil, err
	}
	return gw, history, nil
}

// AuthRegister creates an account. The new account is signed out and must log in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	gw, history, err := r.gateway()
	if err != nil {
		return err
	}

	if err := gw.Register(ctx, cmd.String("email"), cmd.String("password"), cmd.String("name")); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	r.logger.Debug("registration complete", "route", history.Current())
	r.writePlain("✓ Account created for %s\n", cmd.String("email"))
	return r.writePlain("Run 'cinefeed auth login' to sign in.\n")
}

// AuthLogin signs in with email and password.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	gw, history, err := r.gateway()
	if err != nil {
		return err
	}

	if err := gw.Login(ctx, cmd.String("email"), cmd.String("password")); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return r.signedIn(gw, history)
}

// AuthGoogle signs in with Google through the system browser and a local callback server.
func (r *Runner) AuthGoogle(ctx context.Context, cmd *cli.Command) error {
	gw, history, err := r.gateway()
	if err != nil {
		return err
	}

	if err := gw.LoginWithFederatedProvider(ctx); err != nil {
		if errors.Is(err, shared.ErrAuthCancelled) || errors.Is(err, shared.ErrMissingCredentials) {
			return err
		}
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return r.signedIn(gw, history)
}

func (r *Runner) signedIn(gw *auth.Gateway, history *routes.History) error {
	session, err := gw.Current()
	if err != nil {
		return err
	}
	r.logger.Debug("signed in", "route", history.Current())
	return r.writePlain("✓ Signed in as %s\n", session.Label())
}

// AuthLogout ends the current session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	gw, _, err := r.gateway()
	if err != nil {
		return err
	}

	if !routes.Authenticated(gw) {
		return r.writePlain("Not signed in.\n")
	}
	if err := gw.Logout(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus prints the current session and checks its token with the identity provider.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	gw, _, err := r.gateway()
	if err != nil {
		return err
	}

	status := SessionStatus{}
	session, err := gw.Current()
	if err == nil {
		status.Authenticated = true
		status.Email = session.Email()
		status.DisplayName = session.DisplayName()
		status.Provider = session.ProviderID()
		status.ExpiresAt = session.ExpiresAt()

		if _, err := gw.Verify(ctx); err != nil {
			r.logger.Warn("session rejected", "error", err)
			status.Error = err.Error()
		} else {
			status.Verified = true
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	if !status.Authenticated {
		return r.writePlain("Authentication: ✗ Not signed in\n")
	}

	r.writePlain("Authentication: ✓ Signed in\n")
	r.writePlain("User: %s\n", session.Label())
	r.writePlain("Provider: %s\n", status.Provider)
	if !status.ExpiresAt.IsZero() {
		r.writePlain("Expires: %s\n", status.ExpiresAt.Format(time.RFC3339))
	}
	if status.Verified {
		return r.writePlain("Token: ✓ Accepted\n")
	}
	return r.writePlain("Token: ✗ %s\n", status.Error)
}
