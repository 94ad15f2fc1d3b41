package services

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tallyho/internal/models"
	"github.com/desertthunder/tallyho/internal/shared"
)

// OnboardingItems seed a list the first time it is viewed empty.
var OnboardingItems = []string{
	"Welcome to the ToDo-List!",
	"Hit the + button to add a new item.",
	"<-- Hit this to delete an item.",
}

// ListService manages the items owned by one account at a time.
type ListService struct {
	items  ItemStore
	logger *log.Logger
}

// NewListService creates a [ListService] backed by store.
func NewListService(store ItemStore, logger *log.Logger) *ListService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ListService{items: store, logger: shared.WithLogger(logger, "component", "list")}
}

// View returns the user's items, seeding [OnboardingItems] when the list is empty.
//
// Seeding only writes when the stored list is still empty, so concurrent first views seed once.
func (s *ListService) View(ctx context.Context, user *models.User) ([]string, error) {
	items, err := s.items.Items(ctx, user.ID())
	if err != nil {
		return nil, err
	}

	if len(items) == 0 {
		seeded, err := s.items.SeedIfEmpty(ctx, user.ID(), OnboardingItems)
		if err != nil {
			return nil, err
		}
		if seeded {
			s.logger.Debug("seeded onboarding items", "user_id", user.ID())
		}

		if items, err = s.items.Items(ctx, user.ID()); err != nil {
			return nil, err
		}
	}

	return items, nil
}

// AddItem appends text to the user's list. Blank text is ignored.
//
// Invalid UTF-8 is replaced with U+FFFD so the stored entry equals the one [ListService.View] returns.
func (s *ListService) AddItem(ctx context.Context, user *models.User, text string) error {
	if shared.IsBlank(text) {
		return nil
	}
	return s.items.AppendItem(ctx, user.ID(), validText(text))
}

// RemoveItem deletes every entry equal to text. No match is not an error.
func (s *ListService) RemoveItem(ctx context.Context, user *models.User, text string) error {
	return s.items.PullItem(ctx, user.ID(), validText(text))
}

func validText(text string) string {
	return strings.ToValidUTF8(text, "\uFFFD")
}
