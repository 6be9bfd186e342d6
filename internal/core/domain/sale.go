package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale records a single stock reduction and the revenue it generated.
// Earned is a snapshot taken at sale time; later price edits never change it.
type Sale struct {
	ID              string
	UserID          string
	ItemID          string // empty on legacy rows recorded before ids were stored
	ItemName        string
	QuantityReduced int
	Earned          decimal.Decimal
	Category        Category
	Timestamp       time.Time
}

// RestoreResult reports the outcome of undoing one sale. Restored is false
// when the sold item could no longer be resolved; the sale row is still
// removed in that case.
type RestoreResult struct {
	Sale     Sale
	Restored bool
}

// ResetSummary reports the outcome of undoing every sale in a category.
type ResetSummary struct {
	Category      Category
	SalesRemoved  int
	UnitsRestored int
	Skipped       int
}

// CategoryEarnings aggregates sales per category for the earnings view.
type CategoryEarnings struct {
	Category Category
	Sales    int
	Units    int
	Total    decimal.Decimal
}
