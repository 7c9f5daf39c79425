package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Purger is satisfied by *repo.TaskRepo.
type Purger interface {
	PurgeIdempotencyKeys(ctx context.Context, before time.Time) (int64, error)
}

// Sweeper periodically drops idempotency keys older than the retention.
type Sweeper struct {
	purger    Purger
	logger    *zap.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	wg        sync.WaitGroup
	stop      chan struct{}
	once      sync.Once
}

func NewSweeper(purger Purger, logger *zap.Logger, interval, retention time.Duration) *Sweeper {
	return &Sweeper{
		purger:    purger,
		logger:    logger,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		stop:      make(chan struct{}),
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting idempotency sweeper",
		zap.Duration("interval", s.interval),
		zap.Duration("retention", s.retention),
	)

	s.wg.Add(1)
	go s.run(ctx)
}

func (s *Sweeper) Stop() {
	s.once.Do(func() {
		s.logger.Info("Stopping idempotency sweeper...")
		close(s.stop)
		s.wg.Wait()
		s.logger.Info("Idempotency sweeper stopped")
	})
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("sweep error", zap.Error(err))
			}
		}
	}
}

// Sweep выполняет один проход и возвращает число удаленных ключей.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := s.purger.PurgeIdempotencyKeys(ctx, s.now().Add(-s.retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Purged idempotency keys", zap.Int64("count", n))
	}
	return n, nil
}
