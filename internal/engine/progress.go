package engine

import (
	"fmt"
	"math"
)

// Progress is reported to the caller while a job runs.
type Progress struct {
	Percent    int // 0-100, never decreases within a job
	Status     string
	SlideIndex int // story index of the slide being captured
	State      State
}

// ProgressFunc receives progress updates on the render goroutine.
type ProgressFunc func(Progress)

type progressTracker struct {
	fn   ProgressFunc
	best int
}

func (p *progressTracker) report(percent int, status string, slide int, state State) {
	if p.fn == nil {
		return
	}
	percent = max(0, min(100, percent))
	if percent < p.best {
		percent = p.best
	}
	p.best = percent
	p.fn(Progress{Percent: percent, Status: status, SlideIndex: slide, State: state})
}

func framePercent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

func frameStatus(slide, slides, frame, frames int) string {
	return fmt.Sprintf("Slide %d/%d, frame %d/%d", slide, slides, frame, frames)
}
