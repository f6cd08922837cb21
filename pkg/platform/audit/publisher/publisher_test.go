package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "bloodbank/pkg/platform/audit"
	"bloodbank/pkg/platform/audit/store/memory"
	"bloodbank/pkg/requestcontext"
)

type failingStore struct{ err error }

func (f failingStore) Append(context.Context, audit.Event) error { return f.err }

func TestPublisher_Emit(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	unitID := uuid.NewString()
	err := pub.Emit(context.Background(), audit.Event{
		Action: string(audit.EventUnitRegistered),
		UnitID: unitID,
	})
	require.NoError(t, err)

	events, err := store.ListByUnit(context.Background(), unitID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventUnitRegistered), events[0].Action)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
}

func TestPublisher_RequiresAction(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore())
	err := pub.Emit(context.Background(), audit.Event{UnitID: uuid.NewString()})
	require.Error(t, err)
}

func TestPublisher_FillsFromRequestContext(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	fixed := time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), fixed)
	ctx = requestcontext.WithRequestID(ctx, "req-123")
	ctx = requestcontext.WithActorID(ctx, "expiry-sweeper")

	unitID := uuid.NewString()
	require.NoError(t, pub.Emit(ctx, audit.Event{Action: string(audit.EventUnitExpired), UnitID: unitID}))

	events, err := store.ListByUnit(ctx, unitID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, fixed.Equal(events[0].Timestamp))
	assert.Equal(t, "req-123", events[0].RequestID)
	assert.Equal(t, "expiry-sweeper", events[0].ActorID)
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	customTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	unitID := uuid.NewString()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		Action:    string(audit.EventUnitUsed),
		UnitID:    unitID,
		Timestamp: customTime,
	}))

	events, err := store.ListByUnit(context.Background(), unitID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestPublisher_FailsClosed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	storeErr := errors.New("outbox unavailable")
	pub := NewPublisher(failingStore{err: storeErr}, WithMetrics(m))

	err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventUnitRegistered)})
	require.ErrorIs(t, err, storeErr)
	assert.InDelta(t, 1, testutil.ToFloat64(m.persistFailures), 0)
}

func TestPublisher_OrderPreserved(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	unitID := uuid.NewString()

	actions := []audit.AuditEvent{audit.EventUnitRegistered, audit.EventUnitQuantityAdjusted, audit.EventUnitUsed}
	for _, a := range actions {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: string(a), UnitID: unitID}))
	}

	events, err := store.ListByUnit(context.Background(), unitID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, a := range actions {
		assert.Equal(t, string(a), events[i].Action)
	}

	pending, err := store.Pending(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, pending, 3)
}
