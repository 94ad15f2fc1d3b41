package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tallyho/internal/models"
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
	MsgAccountsFetched MsgKind = iota
	MsgItemsFetched
	MsgItemsChanged
)

type accountsResult struct {
	users []*models.User
	err   error
}

type itemsResult struct {
	items []string
	err   error
}

type changeResult struct {
	status string
	err    error
}

// accountsFetchedMsg is the constructor for [MsgAccountsFetched]
func accountsFetchedMsg(users []*models.User, err error) Msg {
	return Msg{kind: MsgAccountsFetched, data: accountsResult{users, err}}
}

// itemsFetchedMsg is the constructor for [MsgItemsFetched]
func itemsFetchedMsg(items []string, err error) Msg {
	return Msg{kind: MsgItemsFetched, data: itemsResult{items, err}}
}

// itemsChangedMsg is the constructor for [MsgItemsChanged]
func itemsChangedMsg(status string, err error) Msg {
	return Msg{kind: MsgItemsChanged, data: changeResult{status, err}}
}
