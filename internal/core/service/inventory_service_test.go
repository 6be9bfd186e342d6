package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/myatthu/stallkeeper/internal/core/domain"
)

func newInventoryFixture() (*memStore, *InventoryService, *ActivityService) {
	store := newMemStore()
	activity := NewActivityService(store, 100, testLogger())
	drainActivities(activity, store)
	svc := NewInventoryService(store, activity, testLogger())
	return store, svc, activity
}

func TestCreateItem_Valid(t *testing.T) {
	store, svc, activity := newInventoryFixture()
	defer activity.Close()

	item, err := svc.CreateItem(context.Background(), testUser, ItemInput{
		Name:     "Fried Chicken",
		Quantity: 10,
		Price:    decimal.NewFromInt(50),
		Category: domain.CategoryChicken,
	})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	if item.ID == "" {
		t.Error("expected generated item ID")
	}
	if item.Status != domain.ItemStatusActive {
		t.Errorf("expected active status, got %s", item.Status)
	}

	stored, _ := store.GetItem(context.Background(), testUser, item.ID)
	if stored == nil || stored.Name != "Fried Chicken" {
		t.Errorf("item not persisted: %+v", stored)
	}
}

func TestCreateItem_ZeroQuantityIsDepleted(t *testing.T) {
	_, svc, activity := newInventoryFixture()
	defer activity.Close()

	item, err := svc.CreateItem(context.Background(), testUser, ItemInput{
		Name:     "Pork Belly",
		Quantity: 0,
		Price:    decimal.NewFromInt(90),
		Category: domain.CategoryPork,
	})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if item.Status != domain.ItemStatusDepleted {
		t.Errorf("expected depleted status for zero stock, got %s", item.Status)
	}
}

func TestCreateItem_Validation(t *testing.T) {
	store, svc, activity := newInventoryFixture()
	defer activity.Close()

	cases := []struct {
		name  string
		input ItemInput
	}{
		{"empty name", ItemInput{Quantity: 1, Price: decimal.NewFromInt(10), Category: domain.CategoryBeef}},
		{"bad category", ItemInput{Name: "Lamb Chop", Quantity: 1, Price: decimal.NewFromInt(10), Category: "lamb"}},
		{"negative quantity", ItemInput{Name: "Beef", Quantity: -1, Price: decimal.NewFromInt(10), Category: domain.CategoryBeef}},
		{"negative price", ItemInput{Name: "Beef", Quantity: 1, Price: decimal.NewFromInt(-10), Category: domain.CategoryBeef}},
		{"bad image url", ItemInput{Name: "Beef", Quantity: 1, Price: decimal.NewFromInt(10), Category: domain.CategoryBeef, ImageURL: "not-a-url"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateItem(context.Background(), testUser, tc.input)
			if !errors.Is(err, ErrInvalidItem) {
				t.Errorf("expected ErrInvalidItem, got: %v", err)
			}
		})
	}

	items, _ := store.ListItems(context.Background(), testUser, "", true)
	if len(items) != 0 {
		t.Errorf("expected no partial writes, got %d items", len(items))
	}
}

func TestUpdateItem_ChangesFieldsAndStatus(t *testing.T) {
	store, svc, activity := newInventoryFixture()
	defer activity.Close()

	created, err := svc.CreateItem(context.Background(), testUser, ItemInput{
		Name:     "Fried Fish",
		Quantity: 5,
		Price:    decimal.NewFromInt(40),
		Category: domain.CategoryFish,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := svc.UpdateItem(context.Background(), testUser, created.ID, ItemInput{
		Name:     "Grilled Fish",
		Quantity: 0,
		Price:    decimal.NewFromInt(45),
		Category: domain.CategoryFish,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if updated.Name != "Grilled Fish" {
		t.Errorf("expected renamed item, got %s", updated.Name)
	}
	if updated.Status != domain.ItemStatusDepleted {
		t.Errorf("expected depleted after zeroing stock, got %s", updated.Status)
	}

	stored, _ := store.GetItem(context.Background(), testUser, created.ID)
	if stored.Price.StringFixed(2) != "45.00" {
		t.Errorf("expected price 45.00, got %s", stored.Price.StringFixed(2))
	}
}

func TestUpdateItem_NotFound(t *testing.T) {
	_, svc, activity := newInventoryFixture()
	defer activity.Close()

	_, err := svc.UpdateItem(context.Background(), testUser, "missing", ItemInput{
		Name:     "Ghost",
		Quantity: 1,
		Price:    decimal.NewFromInt(1),
		Category: domain.CategoryPork,
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestDeleteItem(t *testing.T) {
	store, svc, activity := newInventoryFixture()
	defer activity.Close()

	created, err := svc.CreateItem(context.Background(), testUser, ItemInput{
		Name:     "Beef Skewer",
		Quantity: 3,
		Price:    decimal.NewFromInt(60),
		Category: domain.CategoryBeef,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.DeleteItem(context.Background(), testUser, created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	stored, _ := store.GetItem(context.Background(), testUser, created.ID)
	if stored != nil {
		t.Error("expected item removed")
	}

	if err := svc.DeleteItem(context.Background(), testUser, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got: %v", err)
	}
}

func TestDeleteItem_OtherOwner(t *testing.T) {
	_, svc, activity := newInventoryFixture()
	defer activity.Close()

	created, err := svc.CreateItem(context.Background(), testUser, ItemInput{
		Name:     "Pork Rib",
		Quantity: 2,
		Price:    decimal.NewFromInt(70),
		Category: domain.CategoryPork,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.DeleteItem(context.Background(), "user-2", created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign owner, got: %v", err)
	}
}

func TestListItems_UnknownCategory(t *testing.T) {
	_, svc, activity := newInventoryFixture()
	defer activity.Close()

	_, err := svc.ListItems(context.Background(), testUser, "lamb", false)
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got: %v", err)
	}
}
