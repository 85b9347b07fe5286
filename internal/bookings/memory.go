package bookings

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryStore is a map-backed Store used by tests and local development.
type InMemoryStore struct {
	mu       sync.RWMutex
	bookings map[string]*Booking
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{bookings: make(map[string]*Booking)}
}

// Create stores the booking and stamps its timestamps.
func (s *InMemoryStore) Create(ctx context.Context, b *Booking) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	s.mu.Lock()
	cp := *b
	s.bookings[b.ID] = &cp
	s.mu.Unlock()
	return nil
}

// GetByID retrieves a booking by id.
func (s *InMemoryStore) GetByID(ctx context.Context, id string) (*Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

// List returns bookings matching the filter, ordered by creation time.
func (s *InMemoryStore) List(ctx context.Context, f ListFilter) ([]*Booking, error) {
	s.mu.RLock()
	out := []*Booking{}
	for _, b := range s.bookings {
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if f.Sort == "asc" {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateStatus writes a new status and returns the updated booking.
func (s *InMemoryStore) UpdateStatus(ctx context.Context, id string, status Status) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = time.Now().UTC()
	cp := *b
	return &cp, nil
}

// Delete removes a booking.
func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[id]; !ok {
		return ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

// Len reports how many bookings are stored.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bookings)
}

var _ Store = (*InMemoryStore)(nil)
