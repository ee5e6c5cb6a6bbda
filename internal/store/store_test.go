package store

import (
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skywatch-data/stereotrack/internal/geom"
	"github.com/skywatch-data/stereotrack/internal/motion"
	"github.com/skywatch-data/stereotrack/internal/track"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreImplementsArchive(t *testing.T) {
	var _ track.Archive = (*Store)(nil)
}

func TestRecordAndCountDetections(t *testing.T) {
	s := openTestStore(t)
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	d := motion.Detection{
		Camera:    "left",
		Center:    motion.PixelPoint{X: 320.5, Y: 240},
		Bounds:    motion.Rect{X: 318, Y: 238, W: 5, H: 4},
		Area:      17,
		Timestamp: ts,
		Accepted:  true,
	}
	require.NoError(t, s.RecordDetection("sess-1", d))
	require.NoError(t, s.RecordDetection("sess-1", d))
	d.Camera = "right"
	require.NoError(t, s.RecordDetection("sess-1", d))

	n, err := s.DetectionCount("sess-1", "left")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.DetectionCount("sess-1", "right")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.DetectionCount("sess-2", "left")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecordAndQueryTriangulations(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		p := track.TriangulatedPoint{
			Position: geom.FusedPoint{
				Position:   r3.Vector{X: float64(i), Y: 2, Z: 2},
				Confidence: 0.9,
				Pairs:      1,
			},
			Set: track.SynchronizedSet{
				"left":  {Camera: "left"},
				"right": {Camera: "right"},
			},
			ComputedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, s.RecordTriangulation("sess-1", p))
	}

	rows, err := s.RecentTriangulations("sess-1", 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Newest first.
	assert.Equal(t, float64(2), rows[0].X)
	assert.Equal(t, float64(1), rows[1].X)
	assert.Equal(t, 2, rows[0].Cameras)
	assert.Equal(t, 1, rows[0].Pairs)
	assert.InDelta(t, 0.9, rows[0].Confidence, 1e-12)
	assert.Equal(t, base.Add(2*time.Second).UnixNano(), rows[0].ComputedAt.UnixNano())

	rows, err = s.RecentTriangulations("sess-2", 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
