package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/myatthu/stallkeeper/internal/core/domain"
	"github.com/myatthu/stallkeeper/internal/port"
)

var ErrInvalidItem = errors.New("invalid item")

var validate = validator.New()

// ItemInput carries the user-editable fields of an inventory item.
type ItemInput struct {
	Name     string          `validate:"required"`
	Quantity int             `validate:"gte=0"`
	Price    decimal.Decimal `validate:"-"`
	Category domain.Category `validate:"required,oneof=chicken pork beef fish"`
	ImageURL string          `validate:"omitempty,url"`
}

func (in ItemInput) check() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidItem)
	}
	return nil
}

type InventoryService struct {
	repo     port.InventoryRepository
	activity *ActivityService
	logger   *logrus.Logger
}

func NewInventoryService(repo port.InventoryRepository, activity *ActivityService, logger *logrus.Logger) *InventoryService {
	return &InventoryService{
		repo:     repo,
		activity: activity,
		logger:   logger,
	}
}

func (s *InventoryService) CreateItem(ctx context.Context, userID string, in ItemInput) (*domain.Item, error) {
	if err := in.check(); err != nil {
		return nil, err
	}

	item := domain.Item{
		ID:       uuid.NewString(),
		UserID:   userID,
		Name:     in.Name,
		Quantity: in.Quantity,
		Price:    in.Price,
		Category: in.Category,
		ImageURL: in.ImageURL,
		Status:   domain.StatusForQuantity(in.Quantity),
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	s.activity.Record(domain.ActivityEntry{
		UserID:  userID,
		Action:  domain.ActionItemAdded,
		Details: fmt.Sprintf("Added new item: %s", item.Name),
	})

	return &item, nil
}

func (s *InventoryService) UpdateItem(ctx context.Context, userID, itemID string, in ItemInput) (*domain.Item, error) {
	if err := in.check(); err != nil {
		return nil, err
	}

	item, err := s.repo.GetItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	item.Name = in.Name
	item.Quantity = in.Quantity
	item.Price = in.Price
	item.Category = in.Category
	item.ImageURL = in.ImageURL
	item.Status = domain.StatusForQuantity(in.Quantity)

	if err := s.repo.UpdateItem(ctx, *item); err != nil {
		return nil, err
	}

	s.activity.Record(domain.ActivityEntry{
		UserID:  userID,
		Action:  domain.ActionItemUpdated,
		Details: fmt.Sprintf("Updated item: %s", item.Name),
	})

	return item, nil
}

func (s *InventoryService) DeleteItem(ctx context.Context, userID, itemID string) error {
	item, err := s.repo.GetItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}

	if err := s.repo.DeleteItem(ctx, userID, itemID); err != nil {
		return err
	}

	s.activity.Record(domain.ActivityEntry{
		UserID:  userID,
		Action:  domain.ActionItemDeleted,
		Details: fmt.Sprintf("Deleted item: %s", item.Name),
	})

	return nil
}

func (s *InventoryService) GetItem(ctx context.Context, userID, itemID string) (*domain.Item, error) {
	item, err := s.repo.GetItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *InventoryService) ListItems(ctx context.Context, userID string, category domain.Category, includeDepleted bool) ([]domain.Item, error) {
	if category != "" && !category.Valid() {
		return nil, ErrUnknownCategory
	}
	return s.repo.ListItems(ctx, userID, category, includeDepleted)
}
