package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryChicken Category = "chicken"
	CategoryPork    Category = "pork"
	CategoryBeef    Category = "beef"
	CategoryFish    Category = "fish"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryChicken, CategoryPork, CategoryBeef, CategoryFish:
		return true
	}
	return false
}

type ItemStatus string

const (
	ItemStatusActive   ItemStatus = "active"
	ItemStatusDepleted ItemStatus = "depleted"
)

// Item is a stocked product. Depleted items keep their row (status flips
// to depleted) so a later undo can resolve them by id and resurrect them.
type Item struct {
	ID        string
	UserID    string
	Name      string
	Quantity  int
	Price     decimal.Decimal
	Category  Category
	ImageURL  string
	Status    ItemStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StatusForQuantity keeps the quantity/status invariant: zero stock means depleted.
func StatusForQuantity(quantity int) ItemStatus {
	if quantity == 0 {
		return ItemStatusDepleted
	}
	return ItemStatusActive
}
