package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/myatthu/stallkeeper/internal/core/domain"
)

// memStore is an in-memory stand-in for the MySQL adapter with the same
// conditional-decrement semantics, guarded by a mutex so concurrency tests
// are meaningful.
type memStore struct {
	mu    sync.Mutex
	items map[string]*domain.Item
	sales map[string]domain.Sale
	logs  []domain.ActivityEntry
	users map[string]domain.User
}

func newMemStore() *memStore {
	return &memStore{
		items: make(map[string]*domain.Item),
		sales: make(map[string]domain.Sale),
		users: make(map[string]domain.User),
	}
}

func (m *memStore) CreateItem(ctx context.Context, item domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = &item
	return nil
}

func (m *memStore) UpdateItem(ctx context.Context, item domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.items[item.ID]
	if !ok || existing.UserID != item.UserID {
		return domain.ErrNotFound
	}
	m.items[item.ID] = &item
	return nil
}

func (m *memStore) DeleteItem(ctx context.Context, userID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok || item.UserID != userID {
		return domain.ErrNotFound
	}
	delete(m.items, itemID)
	return nil
}

func (m *memStore) GetItem(ctx context.Context, userID, itemID string) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok || item.UserID != userID {
		return nil, nil
	}
	copied := *item
	return &copied, nil
}

func (m *memStore) ListItems(ctx context.Context, userID string, category domain.Category, includeDepleted bool) ([]domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []domain.Item
	for _, item := range m.items {
		if item.UserID != userID {
			continue
		}
		if category != "" && item.Category != category {
			continue
		}
		if !includeDepleted && item.Status != domain.ItemStatusActive {
			continue
		}
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (m *memStore) RecordSale(ctx context.Context, userID, itemID string, quantity int) (*domain.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok || item.UserID != userID {
		return nil, domain.ErrNotFound
	}
	if item.Quantity < quantity {
		return nil, domain.ErrInsufficientStock
	}

	item.Quantity -= quantity
	item.Status = domain.StatusForQuantity(item.Quantity)

	sale := domain.Sale{
		ID:              uuid.NewString(),
		UserID:          userID,
		ItemID:          itemID,
		ItemName:        item.Name,
		QuantityReduced: quantity,
		Earned:          item.Price.Mul(decimal.NewFromInt(int64(quantity))),
		Category:        item.Category,
		Timestamp:       time.Now(),
	}
	m.sales[sale.ID] = sale
	return &sale, nil
}

func (m *memStore) RestoreSale(ctx context.Context, userID, saleID string) (*domain.RestoreResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sale, ok := m.sales[saleID]
	if !ok || sale.UserID != userID {
		return nil, domain.ErrNotFound
	}

	restored := m.restoreLocked(sale)
	delete(m.sales, saleID)
	return &domain.RestoreResult{Sale: sale, Restored: restored}, nil
}

func (m *memStore) RestoreCategory(ctx context.Context, userID string, category domain.Category) (*domain.ResetSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary := domain.ResetSummary{Category: category}
	for id, sale := range m.sales {
		if sale.UserID != userID || sale.Category != category {
			continue
		}
		if m.restoreLocked(sale) {
			summary.UnitsRestored += sale.QuantityReduced
		} else {
			summary.Skipped++
		}
		delete(m.sales, id)
		summary.SalesRemoved++
	}
	return &summary, nil
}

func (m *memStore) restoreLocked(sale domain.Sale) bool {
	if sale.ItemID != "" {
		item, ok := m.items[sale.ItemID]
		if !ok || item.UserID != sale.UserID {
			return false
		}
		item.Quantity += sale.QuantityReduced
		item.Status = domain.ItemStatusActive
		return true
	}
	for _, item := range m.items {
		if item.UserID == sale.UserID && item.Name == sale.ItemName && item.Category == sale.Category {
			item.Quantity += sale.QuantityReduced
			item.Status = domain.ItemStatusActive
			return true
		}
	}
	return false
}

func (m *memStore) ListSales(ctx context.Context, userID string) ([]domain.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sales []domain.Sale
	for _, sale := range m.sales {
		if sale.UserID == userID {
			sales = append(sales, sale)
		}
	}
	sort.Slice(sales, func(i, j int) bool { return sales[i].Timestamp.After(sales[j].Timestamp) })
	return sales, nil
}

func (m *memStore) EarningsByCategory(ctx context.Context, userID string) ([]domain.CategoryEarnings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byCategory := make(map[domain.Category]*domain.CategoryEarnings)
	for _, sale := range m.sales {
		if sale.UserID != userID {
			continue
		}
		e, ok := byCategory[sale.Category]
		if !ok {
			e = &domain.CategoryEarnings{Category: sale.Category}
			byCategory[sale.Category] = e
		}
		e.Sales++
		e.Units += sale.QuantityReduced
		e.Total = e.Total.Add(sale.Earned)
	}
	var earnings []domain.CategoryEarnings
	for _, e := range byCategory {
		earnings = append(earnings, *e)
	}
	sort.Slice(earnings, func(i, j int) bool { return earnings[i].Category < earnings[j].Category })
	return earnings, nil
}

func (m *memStore) AppendActivity(ctx context.Context, entry domain.ActivityEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, entry)
	return nil
}

func (m *memStore) ListActivities(ctx context.Context, userID string) ([]domain.ActivityEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []domain.ActivityEntry
	for _, entry := range m.logs {
		if entry.UserID == userID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Timestamp.After(entries[j].Timestamp) })
	return entries, nil
}

func (m *memStore) ResetActivities(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []domain.ActivityEntry
	var removed int64
	for _, entry := range m.logs {
		if entry.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	m.logs = kept
	return removed, nil
}

func (m *memStore) CreateUser(ctx context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user.Email]; exists {
		return domain.ErrEmailTaken
	}
	m.users[user.Email] = user
	return nil
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[email]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// Mock CacheRepository
type mockCache struct {
	mu       sync.Mutex
	keys     map[string]bool
	sessions map[string]string
}

func newMockCache() *mockCache {
	return &mockCache{
		keys:     make(map[string]bool),
		sessions: make(map[string]string),
	}
}

func (c *mockCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys[key] {
		return false, nil
	}
	c.keys[key] = true
	return true, nil
}

func (c *mockCache) StoreSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[sessionID] = userID
	return nil
}

func (c *mockCache) SessionUser(ctx context.Context, sessionID string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	userID, ok := c.sessions[sessionID]
	return userID, ok, nil
}

func (c *mockCache) DeleteSession(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, sessionID)
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// drainActivities persists queued audit entries like the writer pool does
// in main, so tests can assert on recorded activity.
func drainActivities(activity *ActivityService, store *memStore) {
	go func() {
		for entry := range activity.Queue() {
			store.AppendActivity(context.Background(), entry)
		}
	}()
}
