package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/story2video/internal/system"
)

// StreamBackend feeds raw RGBA frames to ffmpeg over stdin and encodes them
// with a hardware H.264 encoder as they arrive.
type StreamBackend struct {
	FFmpegPath   string
	Encoder      string // detected when empty
	FrameCounter bool
	Log          *zap.Logger

	params  Params
	encoder string
	clock   *FrameClock
	outPath string

	cancel context.CancelFunc
	stdin  io.WriteCloser
	group  *errgroup.Group
	stderr bytes.Buffer
	done   bool
}

func (b *StreamBackend) Name() string { return "hardware" }

func (b *StreamBackend) Begin(ctx context.Context, p Params) error {
	if err := p.validate(); err != nil {
		return err
	}
	b.params = p
	b.clock = NewFrameClock(p.FPS)

	b.encoder = b.Encoder
	if b.encoder == "" {
		b.encoder = system.GetBestH264Encoder(ctx, b.ffmpeg())
	}
	if b.encoder == system.SoftwareEncoder {
		return fmt.Errorf("%w: ffmpeg offers no hardware H.264 encoder", ErrHardwareUnavailable)
	}

	b.outPath = filepath.Join(p.ScratchDir, "stream.mp4")
	args := b.buildArgs()

	procCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(procCtx, b.ffmpeg(), args...)
	cmd.Stderr = &b.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("%w: start ffmpeg: %v", ErrHardwareUnavailable, err)
	}

	b.cancel = cancel
	b.stdin = stdin
	b.group = &errgroup.Group{}
	b.group.Go(func() error {
		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("ffmpeg %s: %w: %s", b.encoder, err, strings.TrimSpace(b.stderr.String()))
		}
		return nil
	})

	b.logger().Debug("hardware encoder started",
		zap.String("encoder", b.encoder),
		zap.Strings("args", args))
	return nil
}

func (b *StreamBackend) buildArgs() []string {
	p := b.params
	filters := FilterChain{}.EvenDimensions()
	if b.FrameCounter {
		filters = filters.FrameCounter()
	}
	filters = filters.Format("yuv420p")

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", strconv.Itoa(p.FPS),
		"-i", "-",
		"-vf", filters.String(),
		"-c:v", b.encoder,
	}
	args = append(args, encoderArgs(b.encoder, p.BitsPerSecond, 0)...)
	args = append(args,
		"-g", strconv.Itoa(p.FPS),
		"-force_key_frames", keyframeExpr(p.FPS),
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-an",
		b.outPath,
	)
	return args
}

func (b *StreamBackend) Accept(ctx context.Context, img image.Image, frameIndex int, keyframe bool) error {
	defer recycle(img)

	if b.stdin == nil || b.done {
		return errors.New("hardware encoder not running")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	stamp, err := b.clock.Stamp(frameIndex)
	if err != nil {
		return err
	}
	if keyframe != stamp.Keyframe {
		return fmt.Errorf("keyframe hint %v for frame %d disagrees with %d fps cadence", keyframe, frameIndex, b.params.FPS)
	}
	if got := img.Bounds(); got.Dx() != b.params.Width || got.Dy() != b.params.Height {
		return fmt.Errorf("frame %d is %dx%d, encoder expects %dx%d", frameIndex, got.Dx(), got.Dy(), b.params.Width, b.params.Height)
	}
	if err := writeRawRGBA(b.stdin, img); err != nil {
		return fmt.Errorf("write frame %d: %w", frameIndex, err)
	}
	return nil
}

func (b *StreamBackend) Finalize(ctx context.Context) ([]byte, error) {
	if b.stdin == nil || b.done {
		return nil, errors.New("hardware encoder not running")
	}
	b.done = true
	if err := b.stdin.Close(); err != nil {
		return nil, fmt.Errorf("close encoder input: %w", err)
	}
	if err := b.group.Wait(); err != nil {
		return nil, err
	}
	if b.clock.Count() == 0 {
		return nil, errors.New("no frames were encoded")
	}
	data, err := os.ReadFile(b.outPath)
	if err != nil {
		return nil, fmt.Errorf("read encoded stream: %w", err)
	}
	return data, nil
}

func (b *StreamBackend) Close() error {
	if b.cancel == nil {
		return nil
	}
	if !b.done {
		b.done = true
		b.stdin.Close()
		b.cancel()
		_ = b.group.Wait()
	}
	b.cancel()
	b.cancel = nil
	return nil
}

func (b *StreamBackend) ffmpeg() string {
	if b.FFmpegPath == "" {
		return "ffmpeg"
	}
	return b.FFmpegPath
}

func (b *StreamBackend) logger() *zap.Logger {
	if b.Log == nil {
		return zap.NewNop()
	}
	return b.Log
}

// writeRawRGBA writes img as tightly packed RGBA rows.
func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Rect, img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}

// recycle hands pooled frame buffers back once a backend is done with them.
func recycle(img image.Image) {
	if rgba, ok := img.(*image.RGBA); ok {
		system.PutImage(rgba)
	}
}
