package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClockNowAndSince(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(base)

	assert.Equal(t, base, c.Now())
	assert.Equal(t, time.Minute, c.Since(base.Add(-time.Minute)))

	c.Advance(30 * time.Second)
	assert.Equal(t, base.Add(30*time.Second), c.Now())

	c.Set(base.Add(time.Hour))
	assert.Equal(t, base.Add(time.Hour), c.Now())
}

func TestMockClockSleepRecordsWithoutBlocking(t *testing.T) {
	c := NewMockClock(time.Now())

	done := make(chan struct{})
	go func() {
		c.Sleep(time.Hour)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("mock Sleep blocked")
	}

	require.Equal(t, []time.Duration{time.Hour}, c.Sleeps())
}

func TestMockTickerFiresOnAdvance(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(base)
	ticker := c.NewTicker(time.Second)
	defer ticker.Stop()

	select {
	case <-ticker.C():
		t.Fatal("ticker fired before the clock moved")
	default:
	}

	c.Advance(time.Second)
	select {
	case ts := <-ticker.C():
		assert.Equal(t, base.Add(time.Second), ts)
	default:
		t.Fatal("ticker did not fire after a full interval")
	}

	// A multi-interval advance delivers what the 1-slot channel can hold and
	// keeps the schedule aligned.
	c.Advance(3 * time.Second)
	select {
	case <-ticker.C():
	default:
		t.Fatal("ticker did not fire after a multi-interval advance")
	}
}

func TestMockTickerStop(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(base)
	ticker := c.NewTicker(time.Second)
	ticker.Stop()

	c.Advance(5 * time.Second)
	select {
	case <-ticker.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestRealClock(t *testing.T) {
	var c Clock = RealClock{}
	before := time.Now()
	now := c.Now()
	assert.False(t, now.Before(before))
	assert.GreaterOrEqual(t, c.Since(before), time.Duration(0))

	ticker := c.NewTicker(time.Millisecond)
	defer ticker.Stop()
	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker never fired")
	}
}
