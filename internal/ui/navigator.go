package ui

import (
	"sync"

	"github.com/desertthunder/cinefeed/internal/routes"
)

var _ routes.Navigator = (*Navigator)(nil)

// Navigator collects navigations issued while a command runs off the UI loop.
//
// The model applies the latest one when the command's result message arrives.
type Navigator struct {
	mu      sync.Mutex
	pending []routes.Route
}

func NewNavigator() *Navigator {
	return &Navigator{}
}

func (n *Navigator) Navigate(route routes.Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending = append(n.pending, route)
}

// take returns the latest pending navigation and clears the queue.
func (n *Navigator) take() (routes.Route, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.pending) == 0 {
		return "", false
	}
	route := n.pending[len(n.pending)-1]
	n.pending = nil
	return route, true
}
