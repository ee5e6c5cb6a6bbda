package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileByName(t *testing.T) {
	for _, name := range []string{"mosquito", "bird", "aircraft", "custom"} {
		cfg, err := ProfileByName(name)
		require.NoError(t, err, name)
		assert.NoError(t, cfg.Validate(), name)
	}

	_, err := ProfileByName("whale")
	assert.Error(t, err)
}

func TestProfilesAreSelfConsistent(t *testing.T) {
	profiles := map[string]Config{
		"mosquito": MosquitoProfile(),
		"bird":     BirdProfile(),
		"aircraft": AircraftProfile(),
		"custom":   CustomProfile(),
	}
	for name, cfg := range profiles {
		// The artifact band sits inside the raw band on every profile.
		assert.GreaterOrEqual(t, cfg.ArtifactMinArea, cfg.MinArea, name)
		assert.LessOrEqual(t, cfg.ArtifactMaxArea, cfg.MaxArea, name)
		assert.Equal(t, DefaultWarmupFrames, cfg.WarmupFrames, name)
		assert.Equal(t, DefaultLogCapacity, cfg.LogCapacity, name)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.FrameWidth = 0 }},
		{"negative height", func(c *Config) { c.FrameHeight = -1 }},
		{"zero frame rate", func(c *Config) { c.FrameRate = 0 }},
		{"zero min area", func(c *Config) { c.MinArea = 0 }},
		{"inverted raw band", func(c *Config) { c.MinArea = 100; c.MaxArea = 10 }},
		{"inverted artifact band", func(c *Config) { c.ArtifactMinArea = 100; c.ArtifactMaxArea = 10 }},
		{"negative movement", func(c *Config) { c.MinMovement = -1 }},
		{"negative speed", func(c *Config) { c.MinSpeed = -1 }},
		{"negative warmup", func(c *Config) { c.WarmupFrames = -1 }},
		{"zero update fraction", func(c *Config) { c.UpdateFraction = 0 }},
		{"update fraction above one", func(c *Config) { c.UpdateFraction = 1.5 }},
		{"zero log capacity", func(c *Config) { c.LogCapacity = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := CustomProfile()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, CustomProfile().Validate())
}
