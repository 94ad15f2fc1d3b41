package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tallyho/internal/models"
	"github.com/desertthunder/tallyho/internal/repositories"
	"github.com/desertthunder/tallyho/internal/services"
	"github.com/desertthunder/tallyho/internal/shared"
	tu "github.com/desertthunder/tallyho/internal/testing"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()

	repo := repositories.NewUserRepository(tu.NewTestDB(t))
	if err := repo.Create(context.Background(), models.NewLocalUser(0, "alice", "hash")); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	m := NewModel(context.Background(), repo, services.NewListService(repo, shared.NewLogger(io.Discard)))
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	run(m, m.Init())
	return m
}

// run executes cmd and feeds every resulting store message back into the model.
func run(m *Model, cmd tea.Cmd) {
	for cmd != nil {
		msg, ok := cmd().(Msg)
		if !ok {
			return
		}
		_, cmd = m.Update(msg)
	}
}

func press(m *Model, k string) tea.Cmd {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	_, cmd := m.Update(msg)
	return cmd
}

func entries(m *Model) []string {
	var out []string
	for _, item := range m.itemList.Items() {
		out = append(out, item.(entryItem).text)
	}
	return out
}

func TestModel(t *testing.T) {
	t.Run("Account List", func(t *testing.T) {
		m := newTestModel(t)

		if m.view != AccountListView {
			t.Fatalf("expected account view, got %d", m.view)
		}
		if n := len(m.accountList.Items()); n != 1 {
			t.Fatalf("expected 1 account, got %d", n)
		}
		if !strings.Contains(m.View(), "alice") {
			t.Errorf("expected alice in view, got %q", m.View())
		}
	})

	t.Run("Item Workflow", func(t *testing.T) {
		m := newTestModel(t)

		run(m, press(m, "enter"))
		if m.view != ItemListView {
			t.Fatalf("expected item view, got %d", m.view)
		}
		if got := entries(m); len(got) != 3 || got[0] != services.OnboardingItems[0] {
			t.Fatalf("expected onboarding items, got %v", got)
		}

		press(m, "a")
		if m.view != AddItemView {
			t.Fatalf("expected input view, got %d", m.view)
		}

		press(m, "quit milk")
		if m.view != AddItemView {
			t.Fatalf("typing q should not leave the input, got view %d", m.view)
		}

		run(m, press(m, "enter"))
		got := entries(m)
		if len(got) != 4 || got[3] != "quit milk" {
			t.Fatalf("expected item appended, got %v", got)
		}
		if !strings.Contains(m.View(), "added") {
			t.Errorf("expected status line, got %q", m.View())
		}

		m.itemList.Select(3)
		run(m, press(m, "d"))
		if got := entries(m); len(got) != 3 {
			t.Errorf("expected item removed, got %v", got)
		}

		run(m, press(m, "esc"))
		if m.view != AccountListView {
			t.Errorf("expected account view after esc, got %d", m.view)
		}
	})

	t.Run("Cancel Input", func(t *testing.T) {
		m := newTestModel(t)
		run(m, press(m, "enter"))

		press(m, "a")
		press(m, "never")
		run(m, press(m, "esc"))

		if m.view != ItemListView {
			t.Fatalf("expected item view, got %d", m.view)
		}
		if got := entries(m); len(got) != 3 {
			t.Errorf("expected unchanged list, got %v", got)
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m := newTestModel(t)

		cmd := press(m, "q")
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})

	t.Run("Store Error", func(t *testing.T) {
		m := newTestModel(t)

		m.Update(accountsFetchedMsg(nil, errors.New("database is locked")))
		if !strings.Contains(m.View(), "database is locked") {
			t.Errorf("expected error in view, got %q", m.View())
		}

		press(m, "esc")
		if m.err != nil {
			t.Error("expected esc to clear the error")
		}
	})
}
