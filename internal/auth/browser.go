package auth

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cinefeed/internal/server"
	"github.com/desertthunder/cinefeed/internal/services"
	"github.com/desertthunder/cinefeed/internal/shared"
)

// DefaultSignInTimeout bounds how long the browser sign-in waits for the callback.
const DefaultSignInTimeout = 2 * time.Minute

// BrowserFlow is the federated sign-in "popup": a local callback server plus the system browser.
type BrowserFlow struct {
	oauth   *services.GoogleOAuth
	addr    string
	timeout time.Duration
	open    func(url string) error
	out     io.Writer
	logger  *log.Logger
}

// NewBrowserFlow creates a browser sign-in serving its callback on addr (host:port of the redirect URI).
//
// Progress messages are written to out; nil discards them.
func NewBrowserFlow(oauth *services.GoogleOAuth, addr string, out io.Writer, logger *log.Logger) *BrowserFlow {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &BrowserFlow{
		oauth:   oauth,
		addr:    addr,
		timeout: DefaultSignInTimeout,
		open:    shared.OpenBrowser,
		out:     out,
		logger:  logger,
	}
}

// WithTimeout overrides the callback timeout.
func (b *BrowserFlow) WithTimeout(d time.Duration) *BrowserFlow {
	b.timeout = d
	return b
}

// WithOpener overrides how the consent URL is opened.
func (b *BrowserFlow) WithOpener(open func(url string) error) *BrowserFlow {
	b.open = open
	return b
}

// SignIn opens the consent page and waits for the callback, returning the Google id token.
//
// Cancelling ctx reports [shared.ErrAuthCancelled]; the timeout reports [shared.ErrTimeout].
func (b *BrowserFlow) SignIn(ctx context.Context) (string, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}

	handler := server.NewOAuthHandler(b.oauth.Config(), state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(b.logger))
	router.Handler(handler)

	srv, err := server.Listen(b.addr, router)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer func() {
		if err := srv.Shutdown(); err != nil {
			b.logger.Warn("error shutting down callback server", "error", err)
		}
	}()
	b.logger.Info("started sign-in callback server", "addr", srv.Addr())

	authURL := b.oauth.AuthURL(state)
	fmt.Fprintln(b.out, "→ Opening browser for Google sign-in...")
	if err := b.open(authURL); err != nil {
		b.logger.Warn("failed to open browser automatically", "error", err)
		fmt.Fprintf(b.out, "⚠ Could not open browser automatically.\nPlease open this URL in your browser:\n%s\n\n", authURL)
	}
	fmt.Fprintf(b.out, "→ Waiting for authorization (%s timeout)...\n", b.timeout)

	timeout := time.NewTimer(b.timeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-srv.Errors():
		return "", fmt.Errorf("callback server error: %w", err)
	case <-timeout.C:
		return "", fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, b.timeout)
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", shared.ErrAuthCancelled, ctx.Err())
	}

	if err := result.Error(); err != nil {
		return "", fmt.Errorf("authorization failed: %w", err)
	}

	return services.IDToken(result.Token)
}
