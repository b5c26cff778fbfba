package watchlist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
	"github.com/mohamedkhairy/stock-advisor/internal/store"
)

// Manager owns watchlist groups and their member instruments. All state
// lives in the backing store; the manager adds validation and identity.
type Manager struct {
	store store.WatchlistStore
	now   func() time.Time
}

// NewManager creates a watchlist manager on the given store.
func NewManager(s store.WatchlistStore) *Manager {
	return &Manager{store: s, now: time.Now}
}

// CreateGroup creates a new named group.
func (m *Manager) CreateGroup(ctx context.Context, name string) (*models.WatchGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("create group: name cannot be empty")
	}

	now := m.now()
	group := &models.WatchGroup{
		ID:        uuid.NewString(),
		Name:      name,
		Items:     []models.WatchItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.SaveGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	return group, nil
}

// ListGroups returns all groups.
func (m *Manager) ListGroups(ctx context.Context) ([]*models.WatchGroup, error) {
	return m.store.ListGroups(ctx)
}

// GetGroup returns one group by id.
func (m *Manager) GetGroup(ctx context.Context, id string) (*models.WatchGroup, error) {
	return m.store.GetGroup(ctx, id)
}

// DeleteGroup removes a group and its members.
func (m *Manager) DeleteGroup(ctx context.Context, id string) error {
	return m.store.DeleteGroup(ctx, id)
}

// AddStock adds an instrument to a group. Adding a symbol already present
// updates its note instead of duplicating it.
func (m *Manager) AddStock(ctx context.Context, groupID, symbol, name, note string) (*models.WatchGroup, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("add stock: %w", models.ErrInvalidSymbol)
	}

	group, err := m.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("add stock: %w", err)
	}

	updated := false
	for i := range group.Items {
		if group.Items[i].Symbol == symbol {
			group.Items[i].Note = note
			if name != "" {
				group.Items[i].Name = name
			}
			updated = true
			break
		}
	}
	if !updated {
		group.Items = append(group.Items, models.WatchItem{
			Symbol:  symbol,
			Name:    name,
			Note:    note,
			AddedAt: m.now(),
		})
	}
	group.UpdatedAt = m.now()

	if err := m.store.SaveGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("add stock: %w", err)
	}
	return group, nil
}

// RemoveStock removes an instrument from a group. Removing a symbol not in
// the group is a no-op.
func (m *Manager) RemoveStock(ctx context.Context, groupID, symbol string) (*models.WatchGroup, error) {
	group, err := m.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("remove stock: %w", err)
	}

	for i := range group.Items {
		if group.Items[i].Symbol == symbol {
			group.Items = append(group.Items[:i], group.Items[i+1:]...)
			group.UpdatedAt = m.now()
			if err := m.store.SaveGroup(ctx, group); err != nil {
				return nil, fmt.Errorf("remove stock: %w", err)
			}
			break
		}
	}
	return group, nil
}

// Symbols returns the member symbols of a group, in insertion order.
func (m *Manager) Symbols(ctx context.Context, groupID string) ([]string, error) {
	group, err := m.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(group.Items))
	for _, item := range group.Items {
		symbols = append(symbols, item.Symbol)
	}
	return symbols, nil
}
