package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tallyho/internal/models"
	"github.com/desertthunder/tallyho/internal/services"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	AccountListView ViewState = iota
	ItemListView
	AddItemView
)

// AccountLister lists accounts matching criteria.
type AccountLister interface {
	List(ctx context.Context, criteria map[string]any) ([]*models.User, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	accounts    AccountLister
	lists       *services.ListService
	width       int
	height      int
	accountList list.Model
	itemList    list.Model
	input       textinput.Model
	selected    *models.User
	status      string
	err         error
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, accounts AccountLister, lists *services.ListService) *Model {
	input := textinput.New()
	input.Placeholder = "New Item"
	input.CharLimit = 256
	input.Prompt = styles.prompt.Render("+ ")

	return &Model{
		ctx:         ctx,
		view:        AccountListView,
		accounts:    accounts,
		lists:       lists,
		accountList: newList(nil, "Accounts", 0, 0),
		itemList:    newList(nil, "Items", 0, 0),
		input:       input,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init initializes the TUI by fetching accounts.
func (m *Model) Init() tea.Cmd {
	return m.fetchAccounts()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.accountList.SetSize(m.listSize())
		m.itemList.SetSize(m.listSize())
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case AccountListView:
			return m.handleAccountKeys(msg)
		case ItemListView:
			return m.handleItemKeys(msg)
		case AddItemView:
			return m.handleInputKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgAccountsFetched:
		res := msg.data.(accountsResult)
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		items := make([]list.Item, len(res.users))
		for i, u := range res.users {
			items[i] = accountItem{user: u}
		}
		w, h := m.listSize()
		m.accountList = newList(items, "Accounts", w, h)
		m.err = nil
		return m, nil

	case MsgItemsFetched:
		res := msg.data.(itemsResult)
		if m.selected == nil {
			return m, nil
		}
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		cursor := m.itemList.Index()
		items := make([]list.Item, len(res.items))
		for i, text := range res.items {
			items[i] = entryItem{position: i + 1, text: text}
		}
		w, h := m.listSize()
		m.itemList = newList(items, fmt.Sprintf("%s's list", m.selected.Name()), w, h)
		if cursor < len(items) {
			m.itemList.Select(cursor)
		}
		m.err = nil
		return m, nil

	case MsgItemsChanged:
		res := msg.data.(changeResult)
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.status = res.status
		return m, m.fetchItems()
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress esc to go back, q to quit", m.err))
	}

	switch m.view {
	case AccountListView:
		return m.renderAccounts()
	case ItemListView:
		return m.renderItems()
	case AddItemView:
		return m.renderInput()
	default:
		return ""
	}
}

func (m *Model) handleAccountKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.accountList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.err = nil
		return m, nil
	case key.Matches(msg, m.keys.reload):
		return m, m.fetchAccounts()
	case key.Matches(msg, m.keys.enter):
		if acct, ok := m.accountList.SelectedItem().(accountItem); ok {
			m.selected = acct.user
			m.view = ItemListView
			m.status = ""
			return m, m.fetchItems()
		}
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleItemKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.itemList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = AccountListView
		m.selected = nil
		m.err = nil
		return m, m.fetchAccounts()
	case key.Matches(msg, m.keys.reload):
		return m, m.fetchItems()
	case key.Matches(msg, m.keys.add):
		m.view = AddItemView
		m.input.Reset()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.del):
		if entry, ok := m.itemList.SelectedItem().(entryItem); ok {
			return m, m.removeItem(entry.text)
		}
		return m, nil
	}

	return m.updateLists(msg)
}

// handleInputKeys only quits on ctrl+c so "q" can be typed.
func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.input.Blur()
		m.view = ItemListView
		return m, nil
	case "enter":
		text := m.input.Value()
		m.input.Blur()
		m.view = ItemListView
		return m, m.addItem(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case AccountListView:
		m.accountList, cmd = m.accountList.Update(msg)
	case ItemListView:
		m.itemList, cmd = m.itemList.Update(msg)
	}
	return m, cmd
}

func (m *Model) listSize() (int, int) {
	return max(m.width-4, 0), max(m.height-8, 0)
}

func (m *Model) fetchAccounts() tea.Cmd {
	return func() tea.Msg {
		users, err := m.accounts.List(m.ctx, nil)
		return accountsFetchedMsg(users, err)
	}
}

func (m *Model) fetchItems() tea.Cmd {
	user := m.selected
	return func() tea.Msg {
		items, err := m.lists.View(m.ctx, user)
		return itemsFetchedMsg(items, err)
	}
}

func (m *Model) addItem(text string) tea.Cmd {
	user := m.selected
	return func() tea.Msg {
		err := m.lists.AddItem(m.ctx, user, text)
		return itemsChangedMsg(fmt.Sprintf("added %q", text), err)
	}
}

func (m *Model) removeItem(text string) tea.Cmd {
	user := m.selected
	return func() tea.Msg {
		err := m.lists.RemoveItem(m.ctx, user, text)
		return itemsChangedMsg(fmt.Sprintf("deleted every %q", text), err)
	}
}

func (m *Model) renderAccounts() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.reload, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.accountList.View(), helpView)
}

func (m *Model) renderItems() string {
	helpKeys := []key.Binding{m.keys.add, m.keys.del, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	status := ""
	if m.status != "" {
		status = "\n" + styles.ok.Render(m.status)
	}
	return fmt.Sprintf("%s%s\n\n%s", m.itemList.View(), status, helpView)
}

func (m *Model) renderInput() string {
	title := styles.title.Render(fmt.Sprintf("Add an item to %s's list", m.selected.Name()))
	hint := styles.help.Render("enter to save • esc to cancel")
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.input.View(), hint)
}
