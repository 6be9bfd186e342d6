package port

import (
	"context"

	"github.com/myatthu/stallkeeper/internal/core/domain"
)

type InventoryRepository interface {
	// CreateItem persists a new inventory item
	CreateItem(ctx context.Context, item domain.Item) error

	// UpdateItem overwrites the mutable fields of an owned item
	UpdateItem(ctx context.Context, item domain.Item) error

	// DeleteItem removes an owned item; its sale rows persist independently
	DeleteItem(ctx context.Context, userID, itemID string) error

	// GetItem retrieves an owned item by ID
	GetItem(ctx context.Context, userID, itemID string) (*domain.Item, error)

	// ListItems returns owned items, newest first, optionally filtered by
	// category; depleted items are excluded unless includeDepleted is set
	ListItems(ctx context.Context, userID string, category domain.Category, includeDepleted bool) ([]domain.Item, error)
}

type SaleRepository interface {
	// RecordSale atomically decrements stock and inserts the sale row with
	// its earned snapshot; the decrement is conditional on quantity >= amount
	RecordSale(ctx context.Context, userID, itemID string, quantity int) (*domain.Sale, error)

	// RestoreSale re-credits stock for one sale and removes the sale row as
	// a single unit; a missing item downgrades the restore to a skip
	RestoreSale(ctx context.Context, userID, saleID string) (*domain.RestoreResult, error)

	// RestoreCategory undoes every sale in a category: all restores happen
	// before any sale row is deleted, in one transaction
	RestoreCategory(ctx context.Context, userID string, category domain.Category) (*domain.ResetSummary, error)

	// ListSales returns owned sales, newest first
	ListSales(ctx context.Context, userID string) ([]domain.Sale, error)

	// EarningsByCategory aggregates owned sales per category
	EarningsByCategory(ctx context.Context, userID string) ([]domain.CategoryEarnings, error)
}

type ActivityRepository interface {
	// AppendActivity inserts one audit trail row
	AppendActivity(ctx context.Context, entry domain.ActivityEntry) error

	// ListActivities returns the owner's audit trail, newest first
	ListActivities(ctx context.Context, userID string) ([]domain.ActivityEntry, error)

	// ResetActivities deletes the owner's entire audit trail
	ResetActivities(ctx context.Context, userID string) (int64, error)
}

type UserRepository interface {
	// CreateUser persists a new account
	CreateUser(ctx context.Context, user domain.User) error

	// GetUserByEmail retrieves an account by email, nil if absent
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}
