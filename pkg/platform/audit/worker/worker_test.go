package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodbank/internal/platform/kafka"
	audit "bloodbank/pkg/platform/audit"
	"bloodbank/pkg/platform/audit/store/memory"
)

type recordingProducer struct {
	mu   sync.Mutex
	sent []kafka.Message
	err  error
}

func (p *recordingProducer) Produce(_ context.Context, msgs ...kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, msgs...)
	return nil
}

func (p *recordingProducer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func appendEvents(t *testing.T, store *memory.InMemoryStore, unitID string, n int) {
	t.Helper()
	for range n {
		require.NoError(t, store.Append(context.Background(), audit.Event{
			Action:    string(audit.EventUnitRegistered),
			UnitID:    unitID,
			Timestamp: time.Now(),
		}))
	}
}

func TestRelayOnce_PublishesAndMarks(t *testing.T) {
	store := memory.NewInMemoryStore()
	producer := &recordingProducer{}
	w := NewWorker(store, producer, "bloodbank.audit")

	unitID := uuid.NewString()
	appendEvents(t, store, unitID, 3)

	n, err := w.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, producer.sent, 3)
	assert.Equal(t, "bloodbank.audit", producer.sent[0].Topic)
	assert.Equal(t, unitID, string(producer.sent[0].Key))
	assert.Equal(t, string(audit.EventUnitRegistered), producer.sent[0].Headers["event_type"])

	pending, err := store.Pending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	n, err = w.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRelayOnce_RespectsBatchSize(t *testing.T) {
	store := memory.NewInMemoryStore()
	producer := &recordingProducer{}
	w := NewWorker(store, producer, "t", WithBatchSize(2))
	appendEvents(t, store, uuid.NewString(), 5)

	n, err := w.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	pending, err := store.Pending(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, pending, 3)
}

func TestRelayOnce_ProducerFailureKeepsEntriesPending(t *testing.T) {
	store := memory.NewInMemoryStore()
	producer := &recordingProducer{err: errors.New("broker down")}
	w := NewWorker(store, producer, "t")
	appendEvents(t, store, uuid.NewString(), 2)

	_, err := w.RelayOnce(context.Background())
	require.Error(t, err)

	pending, err := store.Pending(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestRun_StopsOnCancel(t *testing.T) {
	store := memory.NewInMemoryStore()
	producer := &recordingProducer{}
	w := NewWorker(store, producer, "t", WithPollInterval(5*time.Millisecond))
	appendEvents(t, store, uuid.NewString(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return producer.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
