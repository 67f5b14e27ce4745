package auth

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/cinefeed/internal/services"
	"github.com/desertthunder/cinefeed/internal/shared"
	tu "github.com/desertthunder/cinefeed/internal/testing"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func TestBrowserFlow(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600,"id_token":"google-id"}`))
	}))
	defer tokenSrv.Close()

	newOAuth := func(t *testing.T) *services.GoogleOAuth {
		g, err := services.NewGoogleOAuth(map[string]string{"client_id": "c", "client_secret": "s"})
		if err != nil {
			t.Fatalf("failed to create oauth: %v", err)
		}
		g.SetEndpoint(tokenSrv.URL+"/auth", tokenSrv.URL+"/token")
		return g
	}

	// browser simulates the user approving consent by following the redirect.
	browser := func(addr string, params func(state string) string) func(string) error {
		return func(authURL string) error {
			u, err := url.Parse(authURL)
			if err != nil {
				return err
			}
			resp, err := http.Get("http://" + addr + "/callback?" + params(u.Query().Get("state")))
			if err != nil {
				return err
			}
			return resp.Body.Close()
		}
	}

	t.Run("Returns Id Token", func(t *testing.T) {
		addr := freeAddr(t)
		flow := NewBrowserFlow(newOAuth(t), addr, nil, shared.NewLogger(io.Discard)).
			WithOpener(browser(addr, func(state string) string { return "state=" + state + "&code=ok" }))

		idToken, err := flow.SignIn(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if idToken != "google-id" {
			t.Errorf("expected google-id, got %s", idToken)
		}
	})

	t.Run("Consent Denied", func(t *testing.T) {
		addr := freeAddr(t)
		flow := NewBrowserFlow(newOAuth(t), addr, nil, shared.NewLogger(io.Discard)).
			WithOpener(browser(addr, func(state string) string { return "state=" + state + "&error=access_denied" }))

		if _, err := flow.SignIn(context.Background()); !errors.Is(err, shared.ErrAuthCancelled) {
			t.Errorf("expected ErrAuthCancelled, got %v", err)
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		var out strings.Builder
		flow := NewBrowserFlow(newOAuth(t), freeAddr(t), &out, shared.NewLogger(io.Discard)).
			WithTimeout(50 * time.Millisecond).
			WithOpener(func(string) error { return tu.ErrMock })

		if _, err := flow.SignIn(context.Background()); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
		if !strings.Contains(out.String(), "Please open this URL") {
			t.Errorf("expected manual URL fallback, got %q", out.String())
		}
	})

	t.Run("Context Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		flow := NewBrowserFlow(newOAuth(t), freeAddr(t), nil, shared.NewLogger(io.Discard)).
			WithOpener(func(string) error { cancel(); return nil })

		if _, err := flow.SignIn(ctx); !errors.Is(err, shared.ErrAuthCancelled) {
			t.Errorf("expected ErrAuthCancelled, got %v", err)
		}
	})
}
