package appointments

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps slots in process memory. Used for demo deployments
// without a database and throughout the test suite.
type MemoryStore struct {
	mu    sync.RWMutex
	slots []Slot
	loc   *time.Location
	now   func() time.Time
}

// NewMemoryStore creates a store seeded with the given slots.
func NewMemoryStore(slots []Slot, loc *time.Location) *MemoryStore {
	if loc == nil {
		loc = time.UTC
	}
	s := &MemoryStore{
		slots: append([]Slot(nil), slots...),
		loc:   loc,
		now:   time.Now,
	}
	return s
}

// WithClock overrides the store's notion of now. Test hook.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// ListAvailableToday returns today's open slots ordered by time ascending.
func (s *MemoryStore) ListAvailableToday(ctx context.Context, limit int) ([]Slot, error) {
	if limit <= 0 {
		return nil, nil
	}
	today := s.now().In(s.loc).Format(DateLayout)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Slot
	for _, slot := range s.slots {
		if slot.Available && slot.Date == today {
			out = append(out, slot)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkUnavailable books the slot matching key, if it is still open.
func (s *MemoryStore) MarkUnavailable(ctx context.Context, key SlotKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i := range s.slots {
		if s.slots[i].Key() != key {
			continue
		}
		found = true
		if s.slots[i].Available {
			s.slots[i].Available = false
			return nil
		}
	}
	if found {
		return ErrSlotTaken
	}
	return ErrSlotNotFound
}
