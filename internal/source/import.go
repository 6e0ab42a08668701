package source

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/story2video/internal/story"
)

// DefaultPageDuration is the per-slide length when no total is given.
const DefaultPageDuration = 5.0

// ImportOptions control how pages become slides.
type ImportOptions struct {
	Title string
	// AssetDir receives one PNG per page. Slide backgrounds reference the
	// files relative to BaseDir.
	AssetDir string
	BaseDir  string
	DPI      int
	Workers  int

	// PageDuration is used for every slide unless TotalDuration is set,
	// in which case the total is split with Durations (Vary) or evenly.
	PageDuration  float64
	TotalDuration float64
	Vary          bool
	Seed          int64

	// AudioPath, when set, becomes the story soundtrack.
	AudioPath string

	Log *zap.Logger
}

// Import rasterizes every page of src into opts.AssetDir and returns a story
// with one image-background slide per page.
func Import(ctx context.Context, src Source, opts ImportOptions) (*story.Story, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	n := src.PageCount()
	if n == 0 {
		return nil, fmt.Errorf("source has no pages")
	}
	if err := os.MkdirAll(opts.AssetDir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}

	durations, err := pageDurations(opts, n)
	if err != nil {
		return nil, err
	}

	names := make([]string, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, opts.Workers))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := src.RenderPage(i, opts.DPI)
			if err != nil {
				return fmt.Errorf("render page %d: %w", i+1, err)
			}
			name := filepath.Join(opts.AssetDir, fmt.Sprintf("page_%03d.png", i+1))
			if err := writePNG(name, img); err != nil {
				return err
			}
			names[i] = name
			log.Debug("page rendered", zap.Int("page", i+1), zap.String("path", name))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	st := &story.Story{
		Title:  opts.Title,
		Canvas: story.Canvas{Width: story.DefaultCanvasWidth, Height: story.DefaultCanvasHeight},
		Slides: make([]story.Slide, n),
	}
	for i := range st.Slides {
		st.Slides[i] = story.Slide{
			ID:       fmt.Sprintf("page-%d", i+1),
			Duration: durations[i],
			Background: story.Background{
				Type:  story.BackgroundImage,
				Value: relativeTo(opts.BaseDir, names[i]),
			},
		}
	}
	if opts.AudioPath != "" {
		st.Audio = &story.Audio{URL: relativeTo(opts.BaseDir, opts.AudioPath)}
	}

	log.Info("pages imported", zap.Int("pages", n), zap.Float64("duration", story.TotalDuration(st.Slides)))
	return st, nil
}

func pageDurations(opts ImportOptions, n int) ([]float64, error) {
	switch {
	case opts.TotalDuration > 0 && opts.Vary:
		// a page should stay readable for at least a second
		return Durations(opts.TotalDuration, n, 1, opts.Seed), nil
	case opts.TotalDuration > 0:
		return Even(opts.TotalDuration, n), nil
	case opts.PageDuration < 0:
		return nil, fmt.Errorf("page duration must be positive, got %v", opts.PageDuration)
	}
	d := opts.PageDuration
	if d == 0 {
		d = DefaultPageDuration
	}
	return Even(d*float64(n), n), nil
}

// TitleFromPath derives a story title from an input file or directory name.
func TitleFromPath(path string) string {
	base := filepath.Base(filepath.Clean(path))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.NewReplacer("_", " ", "-", " ").Replace(base)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func relativeTo(base, path string) string {
	if base == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
