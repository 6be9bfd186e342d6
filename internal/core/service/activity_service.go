package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/myatthu/stallkeeper/internal/core/domain"
	"github.com/myatthu/stallkeeper/internal/port"
)

// ActivityService is the audit trail writer. Entries are enqueued without
// blocking the mutating request and persisted by a background worker pool;
// the log is an audit trail, not part of the stock/sales invariant.
type ActivityService struct {
	repo   port.ActivityRepository
	queue  chan domain.ActivityEntry
	logger *logrus.Logger
}

func NewActivityService(repo port.ActivityRepository, queueSize int, logger *logrus.Logger) *ActivityService {
	return &ActivityService{
		repo:   repo,
		queue:  make(chan domain.ActivityEntry, queueSize),
		logger: logger,
	}
}

// Record enqueues an audit entry, stamping id and timestamp. A full queue
// drops the entry with a warning rather than stalling the caller.
func (s *ActivityService) Record(entry domain.ActivityEntry) {
	entry.ID = uuid.NewString()
	entry.Timestamp = time.Now().UTC()

	select {
	case s.queue <- entry:
	default:
		s.logger.WithFields(logrus.Fields{
			"userID": entry.UserID,
			"action": entry.Action,
		}).Warn("activity queue full, dropping entry")
	}
}

func (s *ActivityService) Queue() <-chan domain.ActivityEntry {
	return s.queue
}

func (s *ActivityService) Close() {
	close(s.queue)
}

func (s *ActivityService) List(ctx context.Context, userID string) ([]domain.ActivityEntry, error) {
	return s.repo.ListActivities(ctx, userID)
}

func (s *ActivityService) Reset(ctx context.Context, userID string) (int64, error) {
	return s.repo.ResetActivities(ctx, userID)
}
