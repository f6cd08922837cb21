package unit

import (
	"context"
	"sort"
	"sync"
	"time"

	"bloodbank/internal/inventory/models"
	id "bloodbank/pkg/domain"
	"bloodbank/pkg/platform/sentinel"
)

// Clock returns the current time; stores stamp CreatedAt/UpdatedAt with it.
type Clock func() time.Time

// InMemory keeps units in a map with a secondary index on holder, mirroring
// the (facility, blood group) indexes of the SQL stores. Units are stored by
// value so callers never alias store state.
type InMemory struct {
	mu       sync.RWMutex
	units    map[id.BloodUnitID]models.BloodUnit
	byHolder map[models.Holder]map[id.BloodUnitID]struct{}
	clock    Clock
}

type InMemoryOption func(*InMemory)

// WithMemoryClock overrides the timestamp source.
func WithMemoryClock(clock Clock) InMemoryOption {
	return func(s *InMemory) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewInMemory(opts ...InMemoryOption) *InMemory {
	s := &InMemory{
		units:    make(map[id.BloodUnitID]models.BloodUnit),
		byHolder: make(map[models.Holder]map[id.BloodUnitID]struct{}),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create inserts a new unit and stamps its timestamps.
func (s *InMemory) Create(_ context.Context, u *models.BloodUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.units[u.ID]; exists {
		return sentinel.ErrConflict
	}
	now := s.clock()
	u.CreatedAt = now
	u.UpdatedAt = now
	s.units[u.ID] = *u
	s.index(u)
	return nil
}

// Update replaces a unit. The write is rejected with ErrConflict when the
// stored UpdatedAt differs from the caller's copy, which means someone else
// wrote the unit since it was read.
func (s *InMemory) Update(_ context.Context, u *models.BloodUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.units[u.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !existing.UpdatedAt.Equal(u.UpdatedAt) {
		return sentinel.ErrConflict
	}
	if !existing.Holder.Equal(u.Holder) {
		s.unindex(&existing)
	}
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = s.clock()
	s.units[u.ID] = *u
	s.index(u)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, unitID id.BloodUnitID) (*models.BloodUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.units[unitID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &u, nil
}

// ListByHolder returns the holder's units, optionally narrowed to one group,
// ordered by expiry so the soonest-expiring stock comes first.
func (s *InMemory) ListByHolder(_ context.Context, holder models.Holder, group *models.BloodGroup) ([]*models.BloodUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.BloodUnit
	for unitID := range s.byHolder[holder] {
		u := s.units[unitID]
		if group != nil && u.BloodGroup != *group {
			continue
		}
		out = append(out, &u)
	}
	sortByExpiry(out)
	return out, nil
}

// ListExpiringBefore returns units in status whose expiry is at or before the cutoff.
func (s *InMemory) ListExpiringBefore(_ context.Context, cutoff time.Time, status models.Status) ([]*models.BloodUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.BloodUnit
	for _, u := range s.units {
		if u.Status != status || u.ExpiryDate.After(cutoff) {
			continue
		}
		u := u
		out = append(out, &u)
	}
	sortByExpiry(out)
	return out, nil
}

// SumAvailableByHolder totals available quantity per blood group for a holder.
func (s *InMemory) SumAvailableByHolder(_ context.Context, holder models.Holder) (map[models.BloodGroup]models.Quantity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	totals := make(map[models.BloodGroup]models.Quantity)
	for unitID := range s.byHolder[holder] {
		u := s.units[unitID]
		if u.IsAvailable() {
			totals[u.BloodGroup] += u.Quantity
		}
	}
	return totals, nil
}

func (s *InMemory) index(u *models.BloodUnit) {
	set, ok := s.byHolder[u.Holder]
	if !ok {
		set = make(map[id.BloodUnitID]struct{})
		s.byHolder[u.Holder] = set
	}
	set[u.ID] = struct{}{}
}

func (s *InMemory) unindex(u *models.BloodUnit) {
	if set, ok := s.byHolder[u.Holder]; ok {
		delete(set, u.ID)
		if len(set) == 0 {
			delete(s.byHolder, u.Holder)
		}
	}
}

func sortByExpiry(units []*models.BloodUnit) {
	sort.SliceStable(units, func(i, j int) bool {
		if units[i].ExpiryDate.Equal(units[j].ExpiryDate) {
			return units[i].ID.String() < units[j].ID.String()
		}
		return units[i].ExpiryDate.Before(units[j].ExpiryDate)
	})
}
