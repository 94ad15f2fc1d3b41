package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/tallyho/internal/models"
)

var (
	_ list.Item = accountItem{}
	_ list.Item = entryItem{}
)

// accountItem wraps [models.User] to implement [list.Item].
type accountItem struct {
	user *models.User
}

func (i accountItem) FilterValue() string { return i.user.Name() }
func (i accountItem) Title() string       { return i.user.Name() }
func (i accountItem) Description() string {
	return fmt.Sprintf("%s • %d items", i.user.Provider(), len(i.user.Items()))
}

// entryItem is one to-do entry at a 1-based position.
type entryItem struct {
	position int
	text     string
}

func (i entryItem) FilterValue() string { return i.text }
func (i entryItem) Title() string       { return i.text }
func (i entryItem) Description() string { return fmt.Sprintf("#%d", i.position) }

func newList(items []list.Item, title string, width, height int) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = title
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)
	return l
}
