package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqidash/aqidash/internal/history"
)

func TestInMemoryRepository_Save(t *testing.T) {
	repo := history.NewInMemoryRepository()

	assert.ErrorIs(t, repo.Save(context.Background(), nil), history.ErrInvalidSnapshot)
	assert.ErrorIs(t, repo.Save(context.Background(), &history.Snapshot{}), history.ErrInvalidSnapshot)

	snap := &history.Snapshot{ID: "a", Lat: 1, Lon: 1, AQI: 10}
	require.NoError(t, repo.Save(context.Background(), snap))

	snap.AQI = 999
	got, err := repo.ListByLocation(context.Background(), 1, 1, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 10, got[0].AQI, "stored snapshot is a copy")
}

func TestInMemoryRepository_ListByLocation_Grid(t *testing.T) {
	repo := history.NewInMemoryRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(context.Background(), &history.Snapshot{ID: "near", Lat: 52.3700, Lon: 4.8950, RecordedAt: base}))
	require.NoError(t, repo.Save(context.Background(), &history.Snapshot{ID: "edge", Lat: 52.3745, Lon: 4.8950, RecordedAt: base.Add(time.Hour)}))
	require.NoError(t, repo.Save(context.Background(), &history.Snapshot{ID: "far", Lat: 52.3800, Lon: 4.8950, RecordedAt: base.Add(2 * time.Hour)}))

	got, err := repo.ListByLocation(context.Background(), 52.37, 4.895, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "edge", got[0].ID)
	assert.Equal(t, "near", got[1].ID)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, history.DefaultListLimit, history.ClampLimit(0))
	assert.Equal(t, history.DefaultListLimit, history.ClampLimit(-3))
	assert.Equal(t, 7, history.ClampLimit(7))
	assert.Equal(t, history.MaxListLimit, history.ClampLimit(10_000))
}
