package history

import "context"

// Repository defines the interface for snapshot persistence.
type Repository interface {
	// Save stores a snapshot. The ID must be set.
	Save(ctx context.Context, s *Snapshot) error

	// ListByLocation returns the newest snapshots recorded within
	// GridTolerance of lat/lon, newest first.
	ListByLocation(ctx context.Context, lat, lon float64, limit int) ([]*Snapshot, error)
}
