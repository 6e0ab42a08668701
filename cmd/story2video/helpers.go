package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivlev/story2video/internal/audio"
	"github.com/ivlev/story2video/internal/config"
	"github.com/ivlev/story2video/internal/engine"
	"github.com/ivlev/story2video/internal/story"
	"github.com/ivlev/story2video/internal/system"
	"github.com/ivlev/story2video/internal/video"
)

const (
	storyInputDir = "input/stories"
	outputDir     = "output"
)

// exportFlags override the configured export defaults for one command.
type exportFlags struct {
	resolution string
	fps        int
	bitrate    string
	slide      int
	noAudio    bool
}

func (f *exportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.resolution, "resolution", "r", "", "Output resolution: 720p, 1080p, 4k")
	cmd.Flags().IntVar(&f.fps, "fps", 0, "Frame rate: 24, 30, 60")
	cmd.Flags().StringVarP(&f.bitrate, "bitrate", "b", "", "Bitrate preset: low, medium, high")
	cmd.Flags().IntVar(&f.slide, "slide", -1, "Export only this slide (0-based) instead of the whole story")
	cmd.Flags().BoolVar(&f.noAudio, "no-audio", false, "Export without a soundtrack")
}

func (f *exportFlags) settings(cfg *config.Config) (config.ExportSettings, error) {
	s, err := cfg.ExportSettings()
	if err != nil {
		return s, err
	}
	if f.resolution != "" {
		s.Resolution = config.Resolution(strings.ToLower(f.resolution))
	}
	if f.fps != 0 {
		s.FPS = f.fps
	}
	if f.bitrate != "" {
		s.Bitrate = config.Bitrate(strings.ToLower(f.bitrate))
	}
	if f.slide >= 0 {
		s.Scope = config.ScopeCurrent
		s.CurrentSlide = f.slide
	}
	if f.noAudio {
		s.IncludeAudio = false
	}
	return s, s.Validate()
}

// loadStory reads the story at path, or the newest story under
// input/stories when path is empty.
func loadStory(path string) (*story.Story, string, error) {
	if path == "" {
		latest, err := system.FindLatestFile(storyInputDir, system.StoryExtensions...)
		if err != nil {
			return nil, "", fmt.Errorf("%w; put a story file into %s/ or pass its path", err, storyInputDir)
		}
		path = latest
		fmt.Printf("[*] Selected story: %s\n", path)
	}
	st, err := story.Load(path)
	if err != nil {
		return nil, "", err
	}
	return st, path, nil
}

// newOrchestrator wires backends, audio and reporting from configuration.
func newOrchestrator(ctx context.Context, cfg *config.Config, baseDir string, frameCounter bool, log *zap.Logger) *engine.Orchestrator {
	rc := cfg.Render
	o := &engine.Orchestrator{
		Software: func() video.Backend {
			return &video.BatchBackend{
				FFmpegPath:   rc.FFmpegPath,
				Workers:      rc.Workers,
				JPEGQuality:  rc.JPEGQuality,
				CRF:          rc.CRF,
				FrameCounter: frameCounter,
				Log:          log,
			}
		},
		Audio: &audio.Integrator{
			Fetcher: &audio.Fetcher{Timeout: cfg.Audio.FetchTimeout, BaseDir: baseDir},
			Muxer:   &audio.Muxer{FFmpegPath: rc.FFmpegPath, Bitrate: cfg.Audio.Bitrate},
			Log:     log,
		},
		SettleDelay:  rc.SettleDelay,
		ScratchRoot:  rc.ScratchDir,
		Log:          log,
		BuildVersion: cfg.BuildVersion,
	}
	if rc.VerifyOutput {
		o.VerifyWith = rc.FFprobePath
	}
	if cfg.ShowStats {
		o.StatsOut = os.Stdout
		o.BenchmarkLog = "benchmark.log"
	}

	if !rc.SoftwareOnly {
		encoder := rc.VideoEncoder
		if encoder == "" {
			encoder = system.GetBestH264Encoder(ctx, rc.FFmpegPath)
		}
		if encoder != system.SoftwareEncoder {
			fmt.Printf("[*] Hardware acceleration detected: %s\n", encoder)
			o.Hardware = func() video.Backend {
				return &video.StreamBackend{
					FFmpegPath:   rc.FFmpegPath,
					Encoder:      encoder,
					FrameCounter: frameCounter,
					Log:          log,
				}
			}
		}
	}
	return o
}

func defaultOutput(name string) string {
	return filepath.Join(outputDir, name)
}
