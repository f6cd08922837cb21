package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	audit "bloodbank/pkg/platform/audit"
	"bloodbank/pkg/platform/audit/outbox"
)

// InMemoryStore keeps audit events and their outbox entries in process. It
// lets the relay worker run against Kafka without Postgres.
type InMemoryStore struct {
	mu      sync.RWMutex
	events  []audit.Event
	entries []outbox.Entry
	clock   func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{clock: time.Now}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.entries = nil
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	entry, err := outbox.NewEntry(event, s.clock())
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	s.entries = append(s.entries, entry)
	return nil
}

// ListByUnit returns events for one blood unit in emission order.
func (s *InMemoryStore) ListByUnit(_ context.Context, unitID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.UnitID == unitID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}

// Pending returns unpublished entries, oldest first.
func (s *InMemoryStore) Pending(_ context.Context, limit int) ([]outbox.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []outbox.Entry
	for _, e := range s.entries {
		if e.PublishedAt != nil {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, ids []uuid.UUID, at time.Time) error {
	want := make(map[uuid.UUID]struct{}, len(ids))
	for _, entryID := range ids {
		want[entryID] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if _, ok := want[s.entries[i].ID]; ok && s.entries[i].PublishedAt == nil {
			published := at
			s.entries[i].PublishedAt = &published
		}
	}
	return nil
}
