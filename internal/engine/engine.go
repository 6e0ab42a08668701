// Package engine runs render jobs: it walks a story's timeline frame by
// frame, captures each instant from a surface and feeds an encoding backend,
// falling back from the hardware backend to the software one at most once.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/ivlev/story2video/internal/audio"
	"github.com/ivlev/story2video/internal/config"
	"github.com/ivlev/story2video/internal/metrics"
	"github.com/ivlev/story2video/internal/story"
	"github.com/ivlev/story2video/internal/surface"
	"github.com/ivlev/story2video/internal/system"
	"github.com/ivlev/story2video/internal/textutil"
	"github.com/ivlev/story2video/internal/video"
)

var (
	// ErrEmptyScope means the export selects no renderable slide.
	ErrEmptyScope = errors.New("export scope contains no slides")
	// ErrNoSurface means no capture surface was supplied.
	ErrNoSurface = errors.New("no render surface")
	// ErrBusy means another job is still running on this orchestrator.
	ErrBusy = errors.New("a render job is already in progress")
)

// BackendFactory builds a fresh backend for one attempt.
type BackendFactory func() video.Backend

// Orchestrator runs one render job at a time.
type Orchestrator struct {
	// Hardware is tried first when set. Software is the fallback and is
	// required.
	Hardware BackendFactory
	Software BackendFactory

	// Audio is optional; without it every export is video-only.
	Audio *audio.Integrator

	// SettleDelay is waited between Commit and Snapshot.
	SettleDelay time.Duration
	ScratchRoot string

	// VerifyWith, when set, is the ffprobe binary used to check the
	// encoded duration. A mismatch is logged, not fatal.
	VerifyWith string

	OnProgress ProgressFunc
	Log        *zap.Logger

	// StatsOut and BenchmarkLog receive the performance report when set.
	StatsOut     io.Writer
	BenchmarkLog string
	BuildVersion string

	mu sync.Mutex

	histMu  sync.Mutex
	history []State
}

// Result is a finished export.
type Result struct {
	JobID      string
	Data       []byte
	Filename   string
	Backend    string
	FellBack   bool
	Frames     int
	Duration   time.Duration // nominal playback length
	AudioMuxed bool
	Stats      Stats
}

// History returns the states the last finished job passed through. It is
// safe to call while a job is running.
func (o *Orchestrator) History() []State {
	o.histMu.Lock()
	defer o.histMu.Unlock()
	return append([]State(nil), o.history...)
}

func (o *Orchestrator) setHistory(h []State) {
	o.histMu.Lock()
	o.history = h
	o.histMu.Unlock()
}

// Filename derives the download name for a story export.
func Filename(title string, res config.Resolution) string {
	return fmt.Sprintf("%s_%s.mp4", textutil.SlugOr(title, textutil.FallbackSlug), res)
}

type attempt struct {
	name    string
	factory BackendFactory
}

func (o *Orchestrator) attempts() []attempt {
	var list []attempt
	if o.Hardware != nil {
		list = append(list, attempt{"hardware", o.Hardware})
	}
	return append(list, attempt{"software", o.Software})
}

// scope is the resolved slice of slides an export covers.
type scope struct {
	slides []story.Slide
	offset int // story index of slides[0]
	frames int
}

func resolveScope(st *story.Story, s config.ExportSettings) (scope, error) {
	if st == nil || len(st.Slides) == 0 {
		return scope{}, ErrEmptyScope
	}
	current := -1
	if s.Scope == config.ScopeCurrent {
		current = s.CurrentSlide
	}
	slides, err := st.Select(current)
	if err != nil {
		return scope{}, fmt.Errorf("%w: %v", ErrEmptyScope, err)
	}
	sc := scope{slides: slides, offset: max(0, current), frames: story.FrameCount(slides, s.FPS)}
	if sc.frames == 0 {
		return scope{}, ErrEmptyScope
	}
	return sc, nil
}

// Render exports st to an MP4 using settings, capturing frames from surf.
func (o *Orchestrator) Render(ctx context.Context, st *story.Story, settings config.ExportSettings, surf surface.Renderer) (*Result, error) {
	if !o.mu.TryLock() {
		return nil, ErrBusy
	}
	defer o.mu.Unlock()

	start := time.Now()
	m := newMachine()
	defer func() { o.setHistory(m.history) }()

	res, err := o.run(ctx, m, st, settings, surf)

	outcome := metrics.OutcomeSucceeded
	switch {
	case err == nil:
		res.Stats.Total = time.Since(start)
		metrics.JobDuration.Observe(res.Stats.Total.Seconds())
		o.writeStats(res.Stats)
	case ctx.Err() != nil:
		outcome = metrics.OutcomeCanceled
	default:
		outcome = metrics.OutcomeFailed
	}
	metrics.JobsTotal.WithLabelValues(outcome).Inc()

	if err != nil {
		m.fail()
		if outcome == metrics.OutcomeCanceled {
			o.logger().Info("render canceled", zap.Error(err))
		} else {
			o.logger().Error("render failed", zap.Error(err))
		}
		return nil, err
	}
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, m *machine, st *story.Story, settings config.ExportSettings, surf surface.Renderer) (*Result, error) {
	log := o.logger()
	m.to(Preparing)

	if o.Software == nil {
		return nil, errors.New("engine: software backend is not configured")
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("export settings: %w", err)
	}
	if st != nil {
		if err := st.Validate(); err != nil {
			return nil, err
		}
	}
	sc, err := resolveScope(st, settings)
	if err != nil {
		return nil, err
	}
	if surf == nil {
		return nil, ErrNoSurface
	}

	job, err := newJob(o.ScratchRoot, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := job.Close(); err != nil {
			job.log.Warn("scratch cleanup failed", zap.Error(err))
		}
	}()
	log = job.log

	width, height := settings.Size()
	params := video.Params{
		Width:         width,
		Height:        height,
		FPS:           settings.FPS,
		BitsPerSecond: settings.BitsPerSecond(),
		TotalFrames:   sc.frames,
		ScratchDir:    job.Dir,
	}

	log.Info("render started",
		zap.String("title", st.Title),
		zap.Int("slides", len(sc.slides)),
		zap.Int("frames", sc.frames),
		zap.String("resolution", string(settings.Resolution)),
		zap.Int("fps", settings.FPS))

	progress := &progressTracker{fn: o.OnProgress}
	progress.report(0, "Preparing", sc.offset, Preparing)

	stats := Stats{JobID: job.ID, BuildVersion: o.BuildVersion, Title: st.Title, Frames: sc.frames}
	var data []byte
	var used string

	for i, a := range o.attempts() {
		if i > 0 {
			if !m.canFallBack() {
				break
			}
			m.to(Preparing)
			stats.FellBack = true
			metrics.BackendFallbacksTotal.Inc()
			progress.report(0, "Retrying with "+a.name+" encoder", sc.offset, Preparing)
		}

		alog := log.With(zap.String("backend", a.name))
		var timing attemptTiming
		data, timing, err = o.attempt(ctx, m, job, a, params, sc, surf, progress, alog)
		if err == nil {
			used = a.name
			stats.Capture, stats.Finalize = timing.capture, timing.finalize
			break
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("render canceled: %w", context.Cause(ctx))
		}

		alog.Warn("backend attempt failed", zap.Error(err))
		if err := m.to(BackendFailed); err != nil {
			return nil, err
		}
	}
	if used == "" {
		return nil, fmt.Errorf("every backend failed: %w", err)
	}

	if o.VerifyWith != "" {
		o.verify(ctx, job, data, sc.frames, settings.FPS, log)
	}

	muxed := false
	if settings.IncludeAudio && o.Audio != nil {
		if src, ok := audio.Resolve(st, sc.slides); ok {
			m.to(MuxingAudio)
			progress.report(100, "Adding audio", sc.offset+len(sc.slides)-1, MuxingAudio)
			muxStart := time.Now()
			data, muxed = o.Audio.Integrate(ctx, job.Dir, data, src)
			stats.Mux = time.Since(muxStart)
		} else {
			metrics.AudioMuxTotal.WithLabelValues(metrics.AudioSkipped).Inc()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render canceled: %w", context.Cause(ctx))
	}

	m.to(Succeeded)
	progress.report(100, "Done", sc.offset+len(sc.slides)-1, Succeeded)

	stats.Backend = used
	if hs, err := system.ReadHostStats(ctx); err == nil {
		stats.Host = hs
	}

	res := &Result{
		JobID:      job.ID,
		Data:       data,
		Filename:   Filename(st.Title, settings.Resolution),
		Backend:    used,
		FellBack:   stats.FellBack,
		Frames:     sc.frames,
		Duration:   time.Duration(float64(sc.frames) / float64(settings.FPS) * float64(time.Second)),
		AudioMuxed: muxed,
		Stats:      stats,
	}
	log.Info("render finished",
		zap.String("backend", used),
		zap.Bool("fallback", stats.FellBack),
		zap.Bool("audio", muxed),
		zap.Int("bytes", len(data)),
		zap.String("filename", res.Filename))
	return res, nil
}

type attemptTiming struct {
	capture, finalize time.Duration
}

// attempt runs capture and finalize on one fresh backend, from frame 0.
func (o *Orchestrator) attempt(
	ctx context.Context,
	m *machine,
	job *RenderJob,
	a attempt,
	params video.Params,
	sc scope,
	surf surface.Renderer,
	progress *progressTracker,
	log *zap.Logger,
) ([]byte, attemptTiming, error) {
	var timing attemptTiming

	backend := a.factory()
	if backend == nil {
		return nil, timing, fmt.Errorf("%s backend factory returned nil", a.name)
	}
	if err := job.use(backend); err != nil {
		log.Debug("previous backend did not close cleanly", zap.Error(err))
	}
	if err := backend.Begin(ctx, params); err != nil {
		return nil, timing, fmt.Errorf("begin %s: %w", a.name, err)
	}

	if err := m.to(CapturingFrames); err != nil {
		return nil, timing, err
	}
	captureStart := time.Now()
	frames := metrics.FramesTotal.WithLabelValues(a.name)

	global := 0
	for si := range sc.slides {
		slide := &sc.slides[si]
		slideIndex := sc.offset + si
		n := slide.FrameCount(params.FPS)

		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return nil, timing, err
			}

			img, err := o.capture(ctx, surf, surface.Frame{
				Slide:      slide,
				SlideIndex: slideIndex,
				TimeMs:     float64(i) / float64(params.FPS) * 1000,
			}, params.Width, params.Height)
			if err != nil {
				return nil, timing, fmt.Errorf("capture slide %d frame %d: %w", slideIndex, i, err)
			}

			if err := backend.Accept(ctx, img, global, video.IsKeyframe(global, params.FPS)); err != nil {
				return nil, timing, fmt.Errorf("encode frame %d: %w", global, err)
			}
			frames.Inc()
			global++

			if ce := log.Check(zap.DebugLevel, "frame captured"); ce != nil {
				ce.Write(zap.Int("slide", slideIndex), zap.Int("frame", global-1))
			}
			progress.report(framePercent(global, params.TotalFrames),
				frameStatus(si+1, len(sc.slides), i+1, n), slideIndex, CapturingFrames)
		}
	}
	timing.capture = time.Since(captureStart)

	if err := m.to(Finalizing); err != nil {
		return nil, timing, err
	}
	finalizeStart := time.Now()
	data, err := backend.Finalize(ctx)
	if err != nil {
		return nil, timing, fmt.Errorf("finalize %s: %w", a.name, err)
	}
	timing.finalize = time.Since(finalizeStart)
	return data, timing, nil
}

// capture commits f, waits for the surface to settle and snapshots it at
// the output size.
func (o *Orchestrator) capture(ctx context.Context, surf surface.Renderer, f surface.Frame, width, height int) (image.Image, error) {
	if err := surf.Commit(ctx, f); err != nil {
		return nil, err
	}
	if o.SettleDelay > 0 {
		t := time.NewTimer(o.SettleDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	img, err := surf.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return fitFrame(img, width, height), nil
}

// fitFrame rescales img to width x height when the surface renders at a
// different size.
func fitFrame(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	dst := system.GetImage(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Rect, img, b, draw.Src, nil)
	if rgba, ok := img.(*image.RGBA); ok {
		system.PutImage(rgba)
	}
	return dst
}

func (o *Orchestrator) verify(ctx context.Context, job *RenderJob, data []byte, frames, fps int, log *zap.Logger) {
	path := filepath.Join(job.Dir, "verify.mp4")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warn("could not stage output for verification", zap.Error(err))
		return
	}
	defer os.Remove(path)
	if err := video.VerifyDuration(ctx, o.VerifyWith, path, frames, fps); err != nil {
		log.Warn("encoded duration check failed", zap.Error(err))
	}
}

func (o *Orchestrator) writeStats(s Stats) {
	if o.StatsOut != nil {
		if err := s.WriteReport(o.StatsOut); err != nil {
			o.logger().Warn("could not write performance report", zap.Error(err))
		}
	}
	if o.BenchmarkLog != "" {
		if err := s.AppendBenchmark(o.BenchmarkLog, time.Now()); err != nil {
			o.logger().Warn("could not write benchmark log", zap.String("path", o.BenchmarkLog), zap.Error(err))
		}
	}
}

func (o *Orchestrator) logger() *zap.Logger {
	if o.Log == nil {
		return zap.NewNop()
	}
	return o.Log
}
