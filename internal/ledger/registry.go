package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"contas/internal/core"
)

// CardRegistry manages the card catalog. Names are unique ignoring case so
// "Nubank" and "nubank" cannot coexist.
type CardRegistry struct {
	store CardStore
	newID func() string
}

func NewCardRegistry(store CardStore) *CardRegistry {
	return &CardRegistry{store: store, newID: uuid.NewString}
}

func (r *CardRegistry) Add(ctx context.Context, name string, dueDay int) (core.Card, error) {
	card := core.Card{Name: strings.TrimSpace(name), DueDay: dueDay}
	if err := card.Validate(); err != nil {
		return core.Card{}, err
	}

	existing, err := r.store.ListCards(ctx)
	if err != nil {
		return core.Card{}, fmt.Errorf("list cards: %w", err)
	}
	for _, c := range existing {
		if strings.EqualFold(c.Name, card.Name) {
			return core.Card{}, fmt.Errorf("card %q: %w", card.Name, core.ErrDuplicateName)
		}
	}

	card.ID = r.newID()
	if err := r.store.InsertCard(ctx, card); err != nil {
		return core.Card{}, fmt.Errorf("insert card: %w", err)
	}
	return card, nil
}

func (r *CardRegistry) List(ctx context.Context) ([]core.Card, error) {
	cards, err := r.store.ListCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cards, nil
}

// Remove deletes a card. A card still referenced by transactions cannot be
// removed; the caller has to reassign or delete those records first.
func (r *CardRegistry) Remove(ctx context.Context, id string) error {
	n, err := r.store.CountTransactionsByCard(ctx, id)
	if err != nil {
		return fmt.Errorf("count card transactions: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("card %s has %d transactions: %w", id, n, core.ErrCardInUse)
	}
	if err := r.store.DeleteCard(ctx, id); err != nil {
		return fmt.Errorf("delete card %s: %w", id, err)
	}
	return nil
}

// CategoryRegistry manages the category catalog with the same
// case-insensitive uniqueness rule as cards.
type CategoryRegistry struct {
	store CategoryStore
	newID func() string
}

func NewCategoryRegistry(store CategoryStore) *CategoryRegistry {
	return &CategoryRegistry{store: store, newID: uuid.NewString}
}

func (r *CategoryRegistry) Add(ctx context.Context, name string) (core.Category, error) {
	cat := core.Category{Name: strings.TrimSpace(name)}
	if err := cat.Validate(); err != nil {
		return core.Category{}, err
	}

	existing, err := r.store.ListCategories(ctx)
	if err != nil {
		return core.Category{}, fmt.Errorf("list categories: %w", err)
	}
	for _, c := range existing {
		if strings.EqualFold(c.Name, cat.Name) {
			return core.Category{}, fmt.Errorf("category %q: %w", cat.Name, core.ErrDuplicateName)
		}
	}

	cat.ID = r.newID()
	if err := r.store.InsertCategory(ctx, cat); err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return cat, nil
}

func (r *CategoryRegistry) List(ctx context.Context) ([]core.Category, error) {
	cats, err := r.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (r *CategoryRegistry) Remove(ctx context.Context, id string) error {
	if err := r.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return nil
}

// ConfigStore exposes the singleton settings row.
type ConfigStore struct {
	store SettingsStore
}

func NewConfigStore(store SettingsStore) *ConfigStore {
	return &ConfigStore{store: store}
}

func (c *ConfigStore) Get(ctx context.Context) (core.Settings, error) {
	s, err := c.store.GetSettings(ctx)
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

// SetMonthlyGoal updates the spending goal. A zero goal disables goal
// tracking on the dashboard.
func (c *ConfigStore) SetMonthlyGoal(ctx context.Context, goal core.Money) error {
	if goal.Cents < 0 {
		return fmt.Errorf("%w: goal must not be negative", core.ErrInvalidInput)
	}
	s, err := c.store.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("get settings: %w", err)
	}
	s.MonthlyGoal = goal
	if err := c.store.UpdateSettings(ctx, s); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}
