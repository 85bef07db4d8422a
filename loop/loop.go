package loop

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrStop may be returned by a frame function to end Run without an error.
var ErrStop = errors.New("stop render loop")

// FrameClock paces the loop. Wait blocks until the next frame may start.
type FrameClock interface {
	Wait(ctx context.Context) error
}

// FrameFunc renders one frame.
type FrameFunc func(ctx context.Context) error

// Run calls frame once per clock tick until ctx is cancelled, the clock fails
// or frame returns an error. ErrStop and cancellation end the loop with a nil
// error.
func Run(ctx context.Context, clock FrameClock, frame FrameFunc) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if err := clock.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("frame clock: %w", err)
		}
		if err := frame(ctx); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
}

// ClockFunc adapts a function to FrameClock.
type ClockFunc func(ctx context.Context) error

func (f ClockFunc) Wait(ctx context.Context) error {
	return f(ctx)
}

// FPSCounter counts frames over one-second windows.
type FPSCounter struct {
	frames int
	last   time.Time
	fps    int
}

// Frame records a frame at now and reports whether the FPS value changed
// window.
func (c *FPSCounter) Frame(now time.Time) bool {
	if c.last.IsZero() {
		c.last = now
	}
	c.frames++
	if now.Sub(c.last) >= time.Second {
		c.fps = c.frames
		c.frames = 0
		c.last = now
		return true
	}
	return false
}

// FPS is the frame count of the last completed window.
func (c *FPSCounter) FPS() int {
	return c.fps
}
