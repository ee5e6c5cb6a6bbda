package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skywatch-data/stereotrack/internal/motion"
	"github.com/skywatch-data/stereotrack/internal/replay"
)

func TestBlobEdgeInsideArtifactBand(t *testing.T) {
	for _, name := range []string{"mosquito", "bird", "aircraft", "custom"} {
		profile, err := motion.ProfileByName(name)
		require.NoError(t, err)

		edge := blobEdge(profile)
		area := edge * edge
		assert.GreaterOrEqual(t, area, profile.ArtifactMinArea, name)
		assert.LessOrEqual(t, area, profile.ArtifactMaxArea, name)
	}
}

func TestPacedSourceStopsOnCancel(t *testing.T) {
	src, err := replay.NewSyntheticSource(replay.SyntheticConfig{
		Width:         16,
		Height:        16,
		BlobSize:      2,
		FrameInterval: time.Millisecond,
		Start:         time.Now(),
	}, nil)
	require.NoError(t, err)

	paced := &pacedSource{src: src, interval: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = paced.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
