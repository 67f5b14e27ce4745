package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	next     key.Binding
	submit   key.Binding
	back     key.Binding
	google   key.Binding
	register key.Binding
	trailer  key.Binding
	filter   key.Binding
	open     key.Binding
	reload   key.Binding
	logout   key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		next:     key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		google:   key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "google")),
		register: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "register")),
		trailer:  key.NewBinding(key.WithKeys("t", "enter"), key.WithHelp("t", "trailer")),
		filter:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "category")),
		open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open in browser")),
		reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		logout:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "logout")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.trailer, k.filter},
		{k.next, k.submit, k.google, k.register},
		{k.back, k.reload, k.logout, k.quit},
	}
}
