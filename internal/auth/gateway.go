package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cinefeed/internal/models"
	"github.com/desertthunder/cinefeed/internal/routes"
	"github.com/desertthunder/cinefeed/internal/services"
	"github.com/desertthunder/cinefeed/internal/shared"
)

// SessionStore persists the single active session.
type SessionStore interface {
	Save(session *models.Session) error
	Current() (*models.Session, error)
	Clear() error
}

// FederatedSignIn obtains an id token from a third-party provider, typically through the system browser.
type FederatedSignIn interface {
	SignIn(ctx context.Context) (idToken string, err error)
}

// GatewayOpts contains the collaborators of a [Gateway].
type GatewayOpts struct {
	Provider  services.IdentityProvider
	Store     SessionStore
	Navigator routes.Navigator
	Federated FederatedSignIn
	Logger    *log.Logger
	Now       func() time.Time
}

// Gateway wraps the identity provider's account operations and issues navigations.
//
// Every failure is terminal for the call: it is logged and returned, never retried.
type Gateway struct {
	provider  services.IdentityProvider
	store     SessionStore
	nav       routes.Navigator
	federated FederatedSignIn
	logger    *log.Logger
	now       func() time.Time

	mu      sync.Mutex
	current *models.Session
}

var _ routes.SessionAccessor = (*Gateway)(nil)

// NewGateway creates a gateway. A nil navigator discards navigations.
func NewGateway(opts GatewayOpts) *Gateway {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Navigator == nil {
		opts.Navigator = routes.NavigatorFunc(func(routes.Route) {})
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Gateway{
		provider:  opts.Provider,
		store:     opts.Store,
		nav:       opts.Navigator,
		federated: opts.Federated,
		logger:    shared.WithLogger(opts.Logger, "component", "auth"),
		now:       opts.Now,
	}
}

// Register creates an account, sets its display name when missing, then signs out and navigates to the login view.
//
// Empty fields abort with [shared.ErrInvalidInput] before the provider is called.
func (g *Gateway) Register(ctx context.Context, email, password, displayName string) error {
	email = strings.TrimSpace(email)
	displayName = strings.TrimSpace(displayName)

	switch {
	case displayName == "":
		return fmt.Errorf("%w: name is required", shared.ErrInvalidInput)
	case strings.TrimSpace(password) == "":
		return fmt.Errorf("%w: password is required", shared.ErrInvalidInput)
	case email == "":
		return fmt.Errorf("%w: email is required", shared.ErrInvalidInput)
	}

	account, err := g.provider.SignUp(ctx, email, password)
	if err != nil {
		g.logger.Error("registration failed", "email", email, "error", err)
		return err
	}

	if account.DisplayName == "" {
		if _, err := g.provider.UpdateProfile(ctx, account.IDToken, displayName); err != nil {
			g.logger.Warn("failed to set display name", "user", account.LocalID, "error", err)
		}
	}

	g.logger.Info("account created", "user", account.LocalID)
	if err := g.signOut(); err != nil {
		g.logger.Warn("failed to clear session after registration", "error", err)
	}
	g.nav.Navigate(routes.Login)
	return nil
}

// Login signs in with email and password, persists the session and navigates to the catalog.
func (g *Gateway) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", shared.ErrInvalidInput)
	}

	account, err := g.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		g.logger.Error("login failed", "email", email, "error", err)
		return err
	}

	return g.establish(account)
}

// LoginWithFederatedProvider runs the Google sign-in and exchanges its id token for a session.
//
// A cancelled or timed out sign-in leaves the session unchanged.
func (g *Gateway) LoginWithFederatedProvider(ctx context.Context) error {
	if g.federated == nil {
		return fmt.Errorf("%w: google sign-in is not configured", shared.ErrMissingCredentials)
	}

	idToken, err := g.federated.SignIn(ctx)
	if err != nil {
		g.logger.Error("federated sign-in failed", "error", err)
		return err
	}

	account, err := g.provider.SignInWithIdp(ctx, services.ProviderGoogle, idToken)
	if err != nil {
		g.logger.Error("federated sign-in rejected", "error", err)
		return err
	}

	return g.establish(account)
}

// Logout destroys the session, then navigates to the login view.
//
// The in-memory session is always cleared; a store failure is logged and returned after navigating.
func (g *Gateway) Logout(ctx context.Context) error {
	err := g.signOut()
	if err != nil {
		g.logger.Error("failed to clear persisted session", "error", err)
	} else {
		g.logger.Info("signed out")
	}
	g.nav.Navigate(routes.Login)
	return err
}

// Current returns the active session, loading it from the store on first use.
func (g *Gateway) Current() (*models.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current != nil {
		return g.current, nil
	}
	if g.store == nil {
		return nil, shared.ErrNotAuthenticated
	}

	session, err := g.store.Current()
	if err != nil {
		return nil, err
	}
	g.current = session
	return session, nil
}

// Verify asks the identity provider whether the active session's token is still accepted.
func (g *Gateway) Verify(ctx context.Context) (*services.Account, error) {
	session, err := g.Current()
	if err != nil {
		return nil, err
	}
	if session.Expired(g.now()) {
		return nil, fmt.Errorf("%w: session expired at %s", shared.ErrNotAuthenticated, session.ExpiresAt().Format(time.RFC3339))
	}
	return g.provider.Lookup(ctx, session.IDToken())
}

func (g *Gateway) establish(account *services.Account) error {
	session := account.Session(g.now())

	if g.store != nil {
		if err := g.store.Save(session); err != nil {
			g.logger.Error("failed to persist session", "error", err)
			return fmt.Errorf("failed to persist session: %w", err)
		}
	}

	g.mu.Lock()
	g.current = session
	g.mu.Unlock()

	g.logger.Info("signed in", "user", account.LocalID, "provider", account.ProviderID)
	g.nav.Navigate(routes.Catalog)
	return nil
}

// signOut clears the in-memory session and the persisted one.
func (g *Gateway) signOut() error {
	g.mu.Lock()
	g.current = nil
	g.mu.Unlock()

	if g.store == nil {
		return nil
	}
	if err := g.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
