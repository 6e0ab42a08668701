package story

import (
	"errors"
	"fmt"
	"math"

	"github.com/ivlev/story2video/internal/animation"
)

// ErrInvalid marks documents that cannot be rendered.
var ErrInvalid = errors.New("invalid story")

// MaxElementScale bounds an element's width and height as a multiple of the
// canvas side it is measured against.
const MaxElementScale = 4

// Validate checks the invariants the renderer relies on.
func (s *Story) Validate() error {
	canvas := s.Canvas
	if canvas.Width <= 0 || canvas.Height <= 0 {
		canvas = Canvas{Width: DefaultCanvasWidth, Height: DefaultCanvasHeight}
	}
	if err := validateAudio(s.Audio); err != nil {
		return fmt.Errorf("%w: story audio: %v", ErrInvalid, err)
	}
	for i, sl := range s.Slides {
		if err := validateAudio(sl.Audio); err != nil {
			return fmt.Errorf("%w: slide %d (%s) audio: %v", ErrInvalid, i, sl.ID, err)
		}
		if !(sl.Duration > 0) || math.IsInf(sl.Duration, 0) {
			return fmt.Errorf("%w: slide %d (%s): duration must be positive and finite, got %v", ErrInvalid, i, sl.ID, sl.Duration)
		}
		for j, el := range sl.Elements {
			if el.Type == "" {
				return fmt.Errorf("%w: slide %d element %d: missing type", ErrInvalid, i, j)
			}
			if el.Timings != nil && (el.Timings.Start < 0 || el.Timings.Duration < 0) {
				return fmt.Errorf("%w: slide %d element %s: negative timings", ErrInvalid, i, el.ID)
			}
			if err := validateStyle(el.Style, canvas); err != nil {
				return fmt.Errorf("%w: slide %d element %s: %v", ErrInvalid, i, el.ID, err)
			}
			if el.Animation == nil {
				continue
			}
			for _, a := range []*animation.Animation{el.Animation.Enter, el.Animation.Loop} {
				if err := validateAnimation(a); err != nil {
					return fmt.Errorf("%w: slide %d element %s: %v", ErrInvalid, i, el.ID, err)
				}
			}
			if l := el.Animation.Loop; l != nil && l.Kind != "" && l.Kind != animation.None && !l.Kind.IsLoop() {
				return fmt.Errorf("%w: slide %d element %s: %s cannot loop", ErrInvalid, i, el.ID, l.Kind)
			}
		}
	}
	return nil
}

func validateAnimation(a *animation.Animation) error {
	if a == nil || a.Kind == "" || a.Kind == animation.None {
		return nil
	}
	if !a.Kind.Known() {
		return fmt.Errorf("unknown animation %q", a.Kind)
	}
	if !(a.Duration > 0) {
		return fmt.Errorf("animation %s: duration must be positive", a.Kind)
	}
	if a.Delay < 0 {
		return fmt.Errorf("animation %s: negative delay", a.Kind)
	}
	if a.Easing != "" && !a.Easing.Known() {
		return fmt.Errorf("animation %s: unknown easing %q", a.Kind, a.Easing)
	}
	return nil
}

func validateStyle(st Style, canvas Canvas) error {
	for _, v := range []float64{st.X, st.Y, st.Width, st.Height, st.Rotation, st.FontSize, st.BorderRadius} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("style values must be finite")
		}
	}
	if st.Width < 0 || st.Height < 0 {
		return fmt.Errorf("negative size %vx%v", st.Width, st.Height)
	}
	if st.Width > MaxElementScale*float64(canvas.Width) || st.Height > MaxElementScale*float64(canvas.Height) {
		return fmt.Errorf("size %vx%v exceeds %dx the %dx%d canvas", st.Width, st.Height, MaxElementScale, canvas.Width, canvas.Height)
	}
	return nil
}

func validateAudio(a *Audio) error {
	if a == nil || a.Volume == nil {
		return nil
	}
	if v := *a.Volume; !(v >= 0) || math.IsInf(v, 0) {
		return fmt.Errorf("volume must be finite and non-negative, got %v", v)
	}
	return nil
}
