package video

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/story2video/internal/system"
)

const framePattern = "frame_%06d.jpg"

// BatchBackend writes every frame as a numbered JPEG and assembles them with
// libx264 in Finalize. Slower than streaming, but it only needs a stock
// ffmpeg build.
type BatchBackend struct {
	FFmpegPath   string
	Workers      int
	JPEGQuality  int
	CRF          int
	FrameCounter bool
	Log          *zap.Logger

	params    Params
	dir       string
	clock     *FrameClock
	keyframes []int

	group *errgroup.Group
	gctx  context.Context
	done  bool
}

func (b *BatchBackend) Name() string { return "software" }

func (b *BatchBackend) Begin(ctx context.Context, p Params) error {
	if err := p.validate(); err != nil {
		return err
	}
	b.params = p
	b.clock = NewFrameClock(p.FPS)
	b.keyframes = b.keyframes[:0]
	b.done = false

	b.dir = filepath.Join(p.ScratchDir, "frames")
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("create frame dir: %w", err)
	}

	workers := b.Workers
	if workers <= 0 {
		workers = system.DefaultWorkers(ctx, p.Width*p.Height*4)
	}
	b.group, b.gctx = errgroup.WithContext(ctx)
	b.group.SetLimit(workers)

	b.logger().Debug("software encoder started", zap.Int("workers", workers), zap.String("dir", b.dir))
	return nil
}

func (b *BatchBackend) Accept(ctx context.Context, img image.Image, frameIndex int, keyframe bool) error {
	if b.group == nil || b.done {
		recycle(img)
		return errors.New("software encoder not running")
	}
	if err := ctx.Err(); err != nil {
		recycle(img)
		return err
	}
	if err := b.gctx.Err(); err != nil {
		recycle(img)
		return fmt.Errorf("frame writer failed: %w", context.Cause(b.gctx))
	}
	stamp, err := b.clock.Stamp(frameIndex)
	if err != nil {
		recycle(img)
		return err
	}
	if keyframe {
		b.keyframes = append(b.keyframes, stamp.Index)
	}

	path := filepath.Join(b.dir, fmt.Sprintf(framePattern, frameIndex))
	quality := b.jpegQuality()
	b.group.Go(func() error {
		defer recycle(img)
		return writeJPEG(path, img, quality)
	})
	return nil
}

func writeJPEG(path string, img image.Image, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (b *BatchBackend) Finalize(ctx context.Context) ([]byte, error) {
	if b.group == nil || b.done {
		return nil, errors.New("software encoder not running")
	}
	b.done = true
	if err := b.group.Wait(); err != nil {
		return nil, fmt.Errorf("write frames: %w", err)
	}
	if b.clock.Count() == 0 {
		return nil, errors.New("no frames were encoded")
	}

	out := filepath.Join(b.params.ScratchDir, "batch.mp4")
	args := b.buildArgs(out)
	b.logger().Debug("transcoding stills", zap.Int("frames", b.clock.Count()), zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, b.ffmpeg(), args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg transcode: %w: %s", err, strings.TrimSpace(string(output)))
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read transcoded video: %w", err)
	}
	return data, nil
}

func (b *BatchBackend) buildArgs(out string) []string {
	fps := strconv.Itoa(b.params.FPS)
	filters := FilterChain{}.Scale(b.params.Width, b.params.Height).EvenDimensions()
	if b.FrameCounter {
		filters = filters.FrameCounter()
	}

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-framerate", fps,
		"-start_number", "0",
		"-i", filepath.Join(b.dir, framePattern),
		"-vf", filters.String(),
		"-c:v", system.SoftwareEncoder,
	}
	args = append(args, encoderArgs(system.SoftwareEncoder, b.params.BitsPerSecond, b.crf())...)
	if len(b.keyframes) > 0 {
		args = append(args, "-force_key_frames", keyframeTimes(b.keyframes, b.params.FPS))
	}
	args = append(args,
		"-pix_fmt", "yuv420p",
		"-r", fps,
		"-t", strconv.FormatFloat(b.clock.Elapsed().Seconds(), 'f', -1, 64),
		"-movflags", "+faststart",
		"-an",
		out,
	)
	return args
}

// Close waits for in-flight writers and removes the stills.
func (b *BatchBackend) Close() error {
	if b.group != nil && !b.done {
		b.done = true
		_ = b.group.Wait()
	}
	if b.dir == "" {
		return nil
	}
	err := os.RemoveAll(b.dir)
	b.dir = ""
	return err
}

func (b *BatchBackend) jpegQuality() int {
	if b.JPEGQuality <= 0 || b.JPEGQuality > 100 {
		return 92
	}
	return b.JPEGQuality
}

func (b *BatchBackend) crf() int {
	if b.CRF <= 0 {
		return 23
	}
	return b.CRF
}

func (b *BatchBackend) ffmpeg() string {
	if b.FFmpegPath == "" {
		return "ffmpeg"
	}
	return b.FFmpegPath
}

func (b *BatchBackend) logger() *zap.Logger {
	if b.Log == nil {
		return zap.NewNop()
	}
	return b.Log
}
