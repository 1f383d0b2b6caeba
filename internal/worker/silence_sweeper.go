package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nicuwatch/nicudash/internal/domain/alarm"
	"github.com/nicuwatch/nicudash/internal/pkg/logger"
	"github.com/robfig/cron/v3"
)

// SilenceSweeper periodically returns silenced alarms whose silence elapsed to active
type SilenceSweeper struct {
	processor alarm.ActionProcessor
	schedule  string
	timeout   time.Duration
	logger    *logger.Logger
	now       func() time.Time

	mu        sync.Mutex
	scheduler *cron.Cron
	cancel    context.CancelFunc
}

// NewSilenceSweeper creates a sweeper running on a cron schedule such as "@every 15s"
func NewSilenceSweeper(processor alarm.ActionProcessor, schedule string, timeout time.Duration, log *logger.Logger) *SilenceSweeper {
	return &SilenceSweeper{
		processor: processor,
		schedule:  schedule,
		timeout:   timeout,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start schedules the sweep. Overlapping runs are skipped.
func (s *SilenceSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler != nil {
		return fmt.Errorf("silence sweeper is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := scheduler.AddFunc(s.schedule, func() { s.Sweep(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	scheduler.Start()
	s.scheduler = scheduler
	s.cancel = cancel

	s.logger.With("schedule", s.schedule).Info("Silence sweeper started")
	return nil
}

// Stop cancels in-flight sweeps and waits for them to return
func (s *SilenceSweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler == nil {
		return
	}
	s.cancel()
	<-s.scheduler.Stop().Done()
	s.scheduler = nil
	s.logger.Info("Silence sweeper stopped")
}

// Sweep runs one expiry pass and returns the number of alarms reactivated
func (s *SilenceSweeper) Sweep(ctx context.Context) int {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	n, err := s.processor.ExpireSilences(ctx, s.now())
	if err != nil {
		s.logger.ErrorWithErr(err, "Silence sweep failed")
		return 0
	}
	if n > 0 {
		s.logger.With("reactivated", n).Info("Expired alarm silences")
	}
	return n
}
