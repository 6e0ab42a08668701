// Package surface turns a slide at a point in time into pixels.
//
// A Renderer separates applying a timeline instant (Commit) from reading
// the result back (Snapshot). Commit returns only once the frame is fully
// drawn, so a Snapshot taken after a successful Commit always reflects it.
package surface

import (
	"context"
	"errors"
	"image"

	"github.com/ivlev/story2video/internal/story"
)

// ErrNotCommitted is returned by Snapshot before the first successful Commit.
var ErrNotCommitted = errors.New("surface: no frame committed")

// Frame identifies one instant of the timeline.
type Frame struct {
	Slide      *story.Slide
	SlideIndex int
	TimeMs     float64 // since slide start
}

// Renderer is a capture surface.
type Renderer interface {
	// Commit applies f and returns when it is visually complete.
	Commit(ctx context.Context, f Frame) error
	// Snapshot returns the last committed frame. The image belongs to the
	// caller and may be handed back with system.PutImage.
	Snapshot(ctx context.Context) (image.Image, error)
}
