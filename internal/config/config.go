package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/ivlev/story2video/internal/logger"
)

// Config is the application configuration, read from an optional YAML file
// with STORY2VIDEO_* environment overrides.
type Config struct {
	Log       logger.Config `yaml:"log"`
	Export    ExportConfig  `yaml:"export"`
	Render    RenderConfig  `yaml:"render"`
	Audio     AudioConfig   `yaml:"audio"`
	Metrics   MetricsConfig `yaml:"metrics"`
	ShowStats bool          `yaml:"show_stats" env:"STORY2VIDEO_SHOW_STATS"`

	BuildVersion string `yaml:"-"`
}

// ExportConfig holds defaults for the per-job export settings.
type ExportConfig struct {
	Resolution string `yaml:"resolution" env:"STORY2VIDEO_RESOLUTION" env-default:"1080p"`
	FPS        int    `yaml:"fps" env:"STORY2VIDEO_FPS" env-default:"30"`
	Bitrate    string `yaml:"bitrate" env:"STORY2VIDEO_BITRATE" env-default:"medium"`
	NoAudio    bool   `yaml:"no_audio" env:"STORY2VIDEO_NO_AUDIO"`
}

// RenderConfig controls frame capture and encoding.
type RenderConfig struct {
	FFmpegPath   string        `yaml:"ffmpeg_path" env:"STORY2VIDEO_FFMPEG" env-default:"ffmpeg"`
	FFprobePath  string        `yaml:"ffprobe_path" env:"STORY2VIDEO_FFPROBE" env-default:"ffprobe"`
	VideoEncoder string        `yaml:"video_encoder" env:"STORY2VIDEO_ENCODER"` // auto-detected when empty
	SoftwareOnly bool          `yaml:"software_only" env:"STORY2VIDEO_SOFTWARE_ONLY"`
	SettleDelay  time.Duration `yaml:"settle_delay" env:"STORY2VIDEO_SETTLE_DELAY" env-default:"0s"`
	Workers      int           `yaml:"workers" env:"STORY2VIDEO_WORKERS"` // host-derived when 0
	ScratchDir   string        `yaml:"scratch_dir" env:"STORY2VIDEO_SCRATCH_DIR"`
	JPEGQuality  int           `yaml:"jpeg_quality" env:"STORY2VIDEO_JPEG_QUALITY" env-default:"92"`
	CRF          int           `yaml:"crf" env:"STORY2VIDEO_CRF" env-default:"23"`
	VerifyOutput bool          `yaml:"verify_output" env:"STORY2VIDEO_VERIFY_OUTPUT"`
}

// AudioConfig controls soundtrack fetching and muxing.
type AudioConfig struct {
	FetchTimeout time.Duration `yaml:"fetch_timeout" env:"STORY2VIDEO_AUDIO_TIMEOUT" env-default:"15s"`
	Bitrate      string        `yaml:"bitrate" env:"STORY2VIDEO_AUDIO_BITRATE" env-default:"192k"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr" env:"STORY2VIDEO_METRICS_ADDR"`
}

// Load reads path when it exists and falls back to the environment alone.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
			return &cfg, cfg.Validate()
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config from env: %w", err)
	}
	return &cfg, cfg.Validate()
}

// Validate checks ranges cleanenv cannot express.
func (c *Config) Validate() error {
	if _, err := c.ExportSettings(); err != nil {
		return err
	}
	if c.Render.Workers < 0 {
		return fmt.Errorf("render.workers must not be negative")
	}
	if c.Render.JPEGQuality < 1 || c.Render.JPEGQuality > 100 {
		return fmt.Errorf("render.jpeg_quality must be within 1-100, got %d", c.Render.JPEGQuality)
	}
	if c.Render.CRF < 0 || c.Render.CRF > 51 {
		return fmt.Errorf("render.crf must be within 0-51, got %d", c.Render.CRF)
	}
	if c.Audio.FetchTimeout <= 0 {
		return fmt.Errorf("audio.fetch_timeout must be positive")
	}
	return nil
}

// ExportSettings turns the configured defaults into all-slides settings.
func (c *Config) ExportSettings() (ExportSettings, error) {
	s := ExportSettings{
		Resolution:   Resolution(c.Export.Resolution),
		FPS:          c.Export.FPS,
		Bitrate:      Bitrate(c.Export.Bitrate),
		Scope:        ScopeAll,
		IncludeAudio: !c.Export.NoAudio,
	}
	if err := s.Validate(); err != nil {
		return ExportSettings{}, fmt.Errorf("export: %w", err)
	}
	return s, nil
}
