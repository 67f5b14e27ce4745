package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cinefeed/internal/catalog"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgAuthDone MsgKind = iota
	MsgFeedMounted
	MsgPageLoaded
	MsgTrailerResolved
	MsgLoggedOut
)

// authDoneMsg is the constructor for [MsgAuthDone]
func authDoneMsg(err error) Msg {
	return Msg{kind: MsgAuthDone, data: err}
}

// feedMountedMsg is the constructor for [MsgFeedMounted]
func feedMountedMsg(err error) Msg {
	return Msg{kind: MsgFeedMounted, data: err}
}

// pageLoadedMsg is the constructor for [MsgPageLoaded]
func pageLoadedMsg(err error) Msg {
	return Msg{kind: MsgPageLoaded, data: err}
}

// trailerResolvedMsg is the constructor for [MsgTrailerResolved]
func trailerResolvedMsg(trailer catalog.Trailer, err error) Msg {
	return Msg{
		kind: MsgTrailerResolved,
		data: struct {
			trailer catalog.Trailer
			err     error
		}{trailer, err},
	}
}

// loggedOutMsg is the constructor for [MsgLoggedOut]
func loggedOutMsg(err error) Msg {
	return Msg{kind: MsgLoggedOut, data: err}
}

func (m Msg) err() error {
	if err, ok := m.data.(error); ok {
		return err
	}
	return nil
}
