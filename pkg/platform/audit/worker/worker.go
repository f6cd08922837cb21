package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bloodbank/internal/platform/kafka"
	"bloodbank/pkg/platform/audit/outbox"
)

// Producer delivers outbox entries to the broker.
type Producer interface {
	Produce(ctx context.Context, msgs ...kafka.Message) error
}

const (
	defaultBatchSize    = 100
	defaultPollInterval = time.Second
)

// Worker relays pending outbox entries to Kafka. Delivery is at-least-once:
// an entry is marked published only after the broker acknowledged it, so a
// crash between the two steps re-sends it. Consumers dedupe on the payload id.
type Worker struct {
	store    outbox.Store
	producer Producer
	topic    string
	batch    int
	interval time.Duration
	logger   *slog.Logger
	clock    func() time.Time
}

type Option func(*Worker)

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batch = n
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithClock(clock func() time.Time) Option {
	return func(w *Worker) {
		if clock != nil {
			w.clock = clock
		}
	}
}

func NewWorker(store outbox.Store, producer Producer, topic string, opts ...Option) *Worker {
	w := &Worker{
		store:    store,
		producer: producer,
		topic:    topic,
		batch:    defaultBatchSize,
		interval: defaultPollInterval,
		logger:   slog.Default(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls until ctx is cancelled. Relay errors are logged and retried on the
// next tick.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "outbox relay failed", "error", err)
			}
		}
	}
}

// RelayOnce publishes up to one batch and returns how many entries were sent.
func (w *Worker) RelayOnce(ctx context.Context) (int, error) {
	entries, err := w.store.Pending(ctx, w.batch)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}
	msgs := make([]kafka.Message, 0, len(entries))
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		msgs = append(msgs, kafka.Message{
			Topic: w.topic,
			Key:   []byte(e.AggregateID),
			Value: e.Payload,
			Headers: map[string]string{
				"event_type":     e.EventType,
				"aggregate_type": e.AggregateType,
				"outbox_id":      e.ID.String(),
			},
		})
		ids = append(ids, e.ID)
	}
	if err := w.producer.Produce(ctx, msgs...); err != nil {
		return 0, err
	}
	if err := w.store.MarkPublished(ctx, ids, w.clock()); err != nil {
		return 0, err
	}
	w.logger.DebugContext(ctx, "outbox entries relayed", "count", len(entries))
	return len(entries), nil
}
