package routes

import (
	"strings"
	"sync"

	"github.com/desertthunder/cinefeed/internal/models"
)

// Route is a client-side navigation target.
type Route string

const (
	Root     Route = "/"
	Login    Route = "/login"
	Register Route = "/register"
	Catalog  Route = "/catalog"
	NotFound Route = "/notfound"
)

// All lists the routes that render a view.
var All = []Route{Login, Register, Catalog, NotFound}

// String returns the path.
func (r Route) String() string { return string(r) }

// Gated reports whether the route requires an active session.
func (r Route) Gated() bool { return r == Catalog }

// SessionAccessor is the single read path to the current session.
type SessionAccessor interface {
	Current() (*models.Session, error)
}

// SessionFunc adapts a function to [SessionAccessor].
type SessionFunc func() (*models.Session, error)

func (f SessionFunc) Current() (*models.Session, error) { return f() }

// Normalize cleans a user supplied path: surrounding space, missing leading slash,
// trailing slashes, query string and case are ignored.
func Normalize(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = "/" + strings.Trim(strings.ToLower(path), "/")
	return path
}

// Match maps a path onto a known route without applying the guard.
// The root redirects to [Login]; unknown paths redirect to [NotFound].
func Match(path string) Route {
	switch p := Route(Normalize(path)); p {
	case Root:
		return Login
	case Login, Register, Catalog, NotFound:
		return p
	default:
		return NotFound
	}
}

// Resolve returns the route to render for path after redirects and the session guard.
//
// A gated route without an active session resolves to [Login].
func Resolve(path string, sessions SessionAccessor) Route {
	route := Match(path)
	if !route.Gated() {
		return route
	}
	if !Authenticated(sessions) {
		return Login
	}
	return route
}

// Authenticated reports whether sessions yields an active session.
func Authenticated(sessions SessionAccessor) bool {
	if sessions == nil {
		return false
	}
	session, err := sessions.Current()
	return err == nil && session != nil
}

// Navigator performs a navigation.
type Navigator interface {
	Navigate(route Route)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(Route)

func (f NavigatorFunc) Navigate(route Route) { f(route) }

// History is a [Navigator] that records every navigation.
type History struct {
	mu      sync.Mutex
	entries []Route
}

// NewHistory creates a history starting at start.
func NewHistory(start Route) *History {
	return &History{entries: []Route{start}}
}

// Navigate appends route.
func (h *History) Navigate(route Route) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, route)
}

// Current returns the latest route, or [Root] when empty.
func (h *History) Current() Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return Root
	}
	return h.entries[len(h.entries)-1]
}

// Entries returns a copy of the recorded navigations.
func (h *History) Entries() []Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Route(nil), h.entries...)
}
