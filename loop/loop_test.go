package loop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var immediate = ClockFunc(func(ctx context.Context) error { return nil })

func TestRunStopsOnErrStop(t *testing.T) {
	frames := 0
	err := Run(context.Background(), immediate, func(context.Context) error {
		frames++
		if frames == 5 {
			return ErrStop
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, frames)
}

func TestRunReturnsFrameError(t *testing.T) {
	boom := errors.New("boom")
	err := Run(context.Background(), immediate, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestRunEndsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	frames := 0
	err := Run(ctx, immediate, func(context.Context) error {
		frames++
		if frames == 3 {
			cancel()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, frames)
}

func TestRunWrapsClockError(t *testing.T) {
	broken := errors.New("context lost")
	clock := ClockFunc(func(context.Context) error { return broken })
	err := Run(context.Background(), clock, func(context.Context) error {
		t.Fatal("frame should not run")
		return nil
	})
	assert.ErrorIs(t, err, broken)
}

func TestFPSCounter(t *testing.T) {
	var c FPSCounter
	start := time.Unix(100, 0)
	for i := 0; i < 30; i++ {
		assert.False(t, c.Frame(start.Add(time.Duration(i)*10*time.Millisecond)))
	}
	assert.True(t, c.Frame(start.Add(time.Second)))
	assert.Equal(t, 31, c.FPS())
}
