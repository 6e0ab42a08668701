// Package video encodes captured frames into an H.264 MP4.
//
// Two backends share one contract. StreamBackend pipes raw frames into a
// hardware encoder as they arrive. BatchBackend writes numbered JPEG stills
// and transcodes them with libx264 once capture is done.
package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"time"
)

var (
	// ErrHardwareUnavailable means no hardware H.264 encoder could be set up.
	ErrHardwareUnavailable = errors.New("hardware encoder unavailable")
	// ErrFrameOrder means a frame arrived out of sequence.
	ErrFrameOrder = errors.New("frame out of order")
)

// Params configure a backend for one job.
type Params struct {
	Width, Height int
	FPS           int
	BitsPerSecond int
	TotalFrames   int
	ScratchDir    string
}

func (p Params) validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", p.Width, p.Height)
	}
	if p.FPS <= 0 {
		return fmt.Errorf("invalid frame rate %d", p.FPS)
	}
	if p.ScratchDir == "" {
		return errors.New("scratch dir is required")
	}
	return nil
}

// Backend turns a sequence of frames into an MP4 byte buffer.
type Backend interface {
	Name() string
	Begin(ctx context.Context, p Params) error
	// Accept takes ownership of img. frameIndex must count up from zero
	// without gaps; keyframe is set on one-second boundaries.
	Accept(ctx context.Context, img image.Image, frameIndex int, keyframe bool) error
	Finalize(ctx context.Context) ([]byte, error)
	// Close releases processes and files. It is safe after Finalize and
	// safe to call more than once.
	Close() error
}

// Stamp is the timing of one frame, in microseconds.
type Stamp struct {
	Index    int
	PTS      float64
	Duration float64
	Keyframe bool
}

// FrameClock assigns timestamps to a strictly sequential frame stream.
type FrameClock struct {
	fps  int
	next int
}

// NewFrameClock returns a clock for fps frames per second.
func NewFrameClock(fps int) *FrameClock {
	return &FrameClock{fps: fps}
}

// IsKeyframe reports whether frame index starts a new second.
func IsKeyframe(index, fps int) bool {
	return fps > 0 && index%fps == 0
}

// Stamp accepts the next frame index.
func (c *FrameClock) Stamp(index int) (Stamp, error) {
	if index != c.next {
		return Stamp{}, fmt.Errorf("%w: got %d, want %d", ErrFrameOrder, index, c.next)
	}
	c.next++
	d := 1e6 / float64(c.fps)
	return Stamp{
		Index:    index,
		PTS:      float64(index) * d,
		Duration: d,
		Keyframe: IsKeyframe(index, c.fps),
	}, nil
}

// Count is the number of frames stamped so far.
func (c *FrameClock) Count() int { return c.next }

// Elapsed is the nominal playback duration of the stamped frames.
func (c *FrameClock) Elapsed() time.Duration {
	if c.fps <= 0 {
		return 0
	}
	return time.Duration(math.Round(float64(c.next) * float64(time.Second) / float64(c.fps)))
}
