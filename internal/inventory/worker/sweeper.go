package worker

import (
	"context"
	"log/slog"
	"time"

	"bloodbank/pkg/requestcontext"
)

// Expirer retires units whose expiry date has been reached.
type Expirer interface {
	ExpireDue(ctx context.Context) (int, error)
}

// sweeperActor is recorded as the actor on audit events the sweep emits.
const sweeperActor = "expiry-sweeper"

// Sweeper periodically moves available units past their expiry date to
// expired. One sweep runs immediately on start so a restarted instance does
// not wait a full interval.
type Sweeper struct {
	expirer  Expirer
	interval time.Duration
	logger   *slog.Logger
	clock    func() time.Time
}

type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Sweeper) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewSweeper(expirer Expirer, interval time.Duration, opts ...Option) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	s := &Sweeper{
		expirer:  expirer,
		interval: interval,
		logger:   slog.Default(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps until ctx is cancelled. Sweep failures are logged and retried
// on the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "expiry sweeper started", "interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		s.SweepOnce(ctx)
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "expiry sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SweepOnce runs a single sweep with a fixed clock reading for the batch.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}
	start := time.Now()
	sweepCtx := requestcontext.WithTime(ctx, s.clock())
	sweepCtx = requestcontext.WithActorID(sweepCtx, sweeperActor)

	n, err := s.expirer.ExpireDue(sweepCtx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.ErrorContext(ctx, "expiry sweep failed",
				"expired", n,
				"error", err,
			)
		}
		return n
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "expired blood units",
			"expired", n,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return n
}
