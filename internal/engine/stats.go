package engine

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ivlev/story2video/internal/system"
)

// Stats are the timings of one finished job.
type Stats struct {
	JobID        string
	BuildVersion string
	Title        string
	Backend      string
	FellBack     bool
	Frames       int
	Total        time.Duration
	Capture      time.Duration
	Finalize     time.Duration
	Mux          time.Duration
	Host         system.HostStats
}

// EffectiveFPS is frames captured per wall-clock second of capture.
func (s Stats) EffectiveFPS() float64 {
	if s.Capture <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Capture.Seconds()
}

// WriteReport prints the performance report block.
func (s Stats) WriteReport(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Job: %s\n"+
			"Backend: %s (fallback: %t)\n"+
			"Frames: %d\n"+
			"Total Time: %.2fs\n"+
			"Capture: %.2fs\n"+
			"Finalize: %.2fs\n"+
			"Audio Mux: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"Host: %d cores / %d threads, %.1f%% memory used\n"+
			"----------------------------\n",
		s.BuildVersion, s.JobID, s.Backend, s.FellBack, s.Frames,
		s.Total.Seconds(), s.Capture.Seconds(), s.Finalize.Seconds(), s.Mux.Seconds(),
		s.EffectiveFPS(),
		s.Host.PhysicalCores, s.Host.LogicalCores, s.Host.MemoryUsed,
	)
	return err
}

// AppendBenchmark appends a one-line summary to path.
func (s Stats) AppendBenchmark(path string, now time.Time) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f, "[%s] Build: %s | Story: %s | Backend: %s | Frames: %d | Total: %.2fs | Capture: %.2fs | Finalize: %.2fs | FPS: %.2f\n",
		now.Format("2006-01-02 15:04:05"),
		s.BuildVersion, s.Title, s.Backend, s.Frames,
		s.Total.Seconds(), s.Capture.Seconds(), s.Finalize.Seconds(), s.EffectiveFPS(),
	)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
