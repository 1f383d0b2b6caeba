package services

import (
	"context"
	"time"

	"github.com/nicuwatch/nicudash/internal/domain/alarm"
	"github.com/nicuwatch/nicudash/internal/pkg/errors"
	"github.com/nicuwatch/nicudash/internal/pkg/logger"
	"github.com/nicuwatch/nicudash/internal/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// AlarmQueryService implements alarm.QueryService
type AlarmQueryService struct {
	repo   alarm.Repository
	logger *logger.Logger
}

// NewAlarmQueryService creates a new alarm query service
func NewAlarmQueryService(repo alarm.Repository, log *logger.Logger) alarm.QueryService {
	return &AlarmQueryService{
		repo:   repo,
		logger: log,
	}
}

// List returns one page of the feed with per-severity counts for the status filter.
// The page read and the grouped count are independent and run concurrently.
func (s *AlarmQueryService) List(ctx context.Context, actor *alarm.Actor, q alarm.ListQuery) (*alarm.ListResult, error) {
	if actor == nil {
		return nil, errors.Unauthenticated("Authentication required")
	}
	q = q.Normalize()
	start := time.Now()

	var (
		items  []*alarm.FeedItem
		total  int64
		counts map[alarm.Type]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, total, err = s.repo.List(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.repo.CountByType(gctx, q.Status)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"status": q.Status,
			"type":   q.Type,
		}).ErrorWithErr(err, "Failed to query alarm feed")
		return nil, err
	}

	metrics.RecordFeedQuery(time.Since(start))

	if items == nil {
		items = []*alarm.FeedItem{}
	}
	return &alarm.ListResult{
		Items:  items,
		Total:  total,
		Limit:  q.Limit,
		Offset: q.Offset(),
		Counts: alarm.SeverityCounts{
			Critical: counts[alarm.TypeCritical],
			Warning:  counts[alarm.TypeWarning],
			Advisory: counts[alarm.TypeAdvisory],
		},
	}, nil
}
