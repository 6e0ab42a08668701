package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Muxer combines a finished video with a soundtrack using ffmpeg.
type Muxer struct {
	FFmpegPath string
	Bitrate    string // AAC bitrate, 192k when empty
}

// Mux copies the video stream untouched and re-encodes audio to AAC. The
// track loops if it is shorter than the video and is cut where the video
// ends. Intermediate files in dir are removed before returning.
func (m *Muxer) Mux(ctx context.Context, dir string, video, audio []byte, src Source) ([]byte, error) {
	videoPath := filepath.Join(dir, "mux_video.mp4")
	audioPath := filepath.Join(dir, "mux_audio"+src.Ext())
	outPath := filepath.Join(dir, "mux_out.mp4")
	defer func() {
		os.Remove(videoPath)
		os.Remove(audioPath)
		os.Remove(outPath)
	}()

	if err := os.WriteFile(videoPath, video, 0o644); err != nil {
		return nil, fmt.Errorf("write video: %w", err)
	}
	if err := os.WriteFile(audioPath, audio, 0o644); err != nil {
		return nil, fmt.Errorf("write audio: %w", err)
	}

	cmd := exec.CommandContext(ctx, m.ffmpeg(), m.buildArgs(videoPath, audioPath, outPath, src.Volume)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg mux: %w: %s", err, strings.TrimSpace(string(out)))
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read muxed output: %w", err)
	}
	return data, nil
}

func (m *Muxer) buildArgs(videoPath, audioPath, outPath string, volume float64) []string {
	bitrate := m.Bitrate
	if bitrate == "" {
		bitrate = "192k"
	}
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", videoPath,
		"-stream_loop", "-1", "-i", audioPath,
		"-map", "0:v:0", "-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac", "-b:a", bitrate,
	}
	if volume >= 0 && volume != 1 {
		args = append(args, "-af", "volume="+strconv.FormatFloat(volume, 'f', -1, 64))
	}
	return append(args, "-shortest", "-movflags", "+faststart", outPath)
}

func (m *Muxer) ffmpeg() string {
	if m.FFmpegPath == "" {
		return "ffmpeg"
	}
	return m.FFmpegPath
}
