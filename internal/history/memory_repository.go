package history

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// Used when no database is configured and in tests.
type InMemoryRepository struct {
	mu        sync.RWMutex
	snapshots []*Snapshot
}

// NewInMemoryRepository creates a new in-memory snapshot repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Save stores a copy of the snapshot.
func (r *InMemoryRepository) Save(_ context.Context, s *Snapshot) error {
	if s == nil || s.ID == "" {
		return ErrInvalidSnapshot
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *s
	r.snapshots = append(r.snapshots, &cpy)
	return nil
}

// ListByLocation returns copies of matching snapshots, newest first.
func (r *InMemoryRepository) ListByLocation(_ context.Context, lat, lon float64, limit int) ([]*Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*Snapshot
	for _, s := range r.snapshots {
		if s.SameLocation(lat, lon) {
			cpy := *s
			matches = append(matches, &cpy)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].RecordedAt.After(matches[j].RecordedAt)
	})

	if limit = ClampLimit(limit); len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}
