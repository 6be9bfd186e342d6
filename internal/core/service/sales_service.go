package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"

	"github.com/myatthu/stallkeeper/internal/core/domain"
	"github.com/myatthu/stallkeeper/internal/port"
)

var (
	ErrDuplicateRequest = errors.New("duplicate request")
	ErrInvalidAmount    = errors.New("sale amount must be at least 1")
	ErrMissingRequestID = errors.New("missing request id")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrResetBusy        = errors.New("category reset already in progress")
)

const resetLockTTL = 10 * time.Second

type SalesService struct {
	repo     port.SaleRepository
	cache    port.CacheRepository
	locker   *redislock.Client
	activity *ActivityService
	logger   *logrus.Logger
}

// NewSalesService wires the reconciliation workflow. locker may be nil, in
// which case category resets run unserialized.
func NewSalesService(repo port.SaleRepository, cache port.CacheRepository, locker *redislock.Client, activity *ActivityService, logger *logrus.Logger) *SalesService {
	return &SalesService{
		repo:     repo,
		cache:    cache,
		locker:   locker,
		activity: activity,
		logger:   logger,
	}
}

// Sell reduces an item's stock by amount and records the sale with its
// earned snapshot. The request id is claimed before any write so a retried
// request cannot double-record.
func (s *SalesService) Sell(ctx context.Context, userID, itemID, requestID string, amount int) (*domain.Sale, error) {
	if amount < 1 {
		return nil, ErrInvalidAmount
	}
	if requestID == "" {
		return nil, ErrMissingRequestID
	}

	idempotencyKey := fmt.Sprintf("sell:%s:%s", userID, requestID)

	ok, err := s.cache.SetIdempotency(ctx, idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return nil, ErrDuplicateRequest
	}

	sale, err := s.repo.RecordSale(ctx, userID, itemID, amount)
	if err != nil {
		return nil, err
	}

	s.activity.Record(domain.ActivityEntry{
		UserID:  userID,
		Action:  domain.ActionSaleRecorded,
		Details: fmt.Sprintf("Sold %d %s for %s", sale.QuantityReduced, sale.ItemName, sale.Earned.StringFixed(2)),
	})

	return sale, nil
}

// UndoSale restores the sold quantity to the matching item and removes the
// sale row. A sale whose item no longer exists is still removed; the
// skipped restore is logged and reported rather than failing the undo.
func (s *SalesService) UndoSale(ctx context.Context, userID, saleID string) (*domain.RestoreResult, error) {
	result, err := s.repo.RestoreSale(ctx, userID, saleID)
	if err != nil {
		return nil, err
	}

	if result.Restored {
		s.activity.Record(domain.ActivityEntry{
			UserID:  userID,
			Action:  domain.ActionSaleReversed,
			Details: fmt.Sprintf("Reversed sale of %d %s, stock restored", result.Sale.QuantityReduced, result.Sale.ItemName),
		})
	} else {
		s.logger.WithFields(logrus.Fields{
			"userID": userID,
			"saleID": saleID,
			"item":   result.Sale.ItemName,
		}).Warn("undo could not resolve item, restore skipped")
		s.activity.Record(domain.ActivityEntry{
			UserID:  userID,
			Action:  domain.ActionRestoreSkipped,
			Details: fmt.Sprintf("Removed sale of %d %s, item no longer exists so stock was not restored", result.Sale.QuantityReduced, result.Sale.ItemName),
		})
	}

	return result, nil
}

// ResetCategory undoes every sale in a category, restoring inventory for
// each before deleting any sale row. Concurrent resets of the same
// (user, category) pair are serialized by a redis lock.
func (s *SalesService) ResetCategory(ctx context.Context, userID string, category domain.Category) (*domain.ResetSummary, error) {
	if !category.Valid() {
		return nil, ErrUnknownCategory
	}

	if s.locker != nil {
		lock, err := s.locker.Obtain(ctx, fmt.Sprintf("reset:%s:%s", userID, category), resetLockTTL, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, ErrResetBusy
		}
		if err != nil {
			return nil, fmt.Errorf("obtain reset lock: %w", err)
		}
		defer lock.Release(ctx)
	}

	summary, err := s.repo.RestoreCategory(ctx, userID, category)
	if err != nil {
		return nil, err
	}

	if summary.Skipped > 0 {
		s.logger.WithFields(logrus.Fields{
			"userID":   userID,
			"category": category,
			"skipped":  summary.Skipped,
		}).Warn("category reset skipped restores for missing items")
	}

	s.activity.Record(domain.ActivityEntry{
		UserID: userID,
		Action: domain.ActionSalesReset,
		Details: fmt.Sprintf("Reset %s sales: removed %d sales, restored %d units, skipped %d",
			category, summary.SalesRemoved, summary.UnitsRestored, summary.Skipped),
	})

	return summary, nil
}

func (s *SalesService) ListSales(ctx context.Context, userID string) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx, userID)
}

func (s *SalesService) Earnings(ctx context.Context, userID string) ([]domain.CategoryEarnings, error) {
	return s.repo.EarningsByCategory(ctx, userID)
}
