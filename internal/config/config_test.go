package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "show_stats: true\nrender:\n  workers: 3\n"))
	require.NoError(t, err)

	assert.True(t, cfg.ShowStats)
	assert.Equal(t, 3, cfg.Render.Workers)
	assert.Equal(t, "ffmpeg", cfg.Render.FFmpegPath)
	assert.Equal(t, 92, cfg.Render.JPEGQuality)
	assert.Equal(t, 23, cfg.Render.CRF)
	assert.Equal(t, 15*time.Second, cfg.Audio.FetchTimeout)
	assert.Equal(t, "192k", cfg.Audio.Bitrate)
	assert.Equal(t, "info", cfg.Log.Level)

	s, err := cfg.ExportSettings()
	require.NoError(t, err)
	assert.Equal(t, DefaultExportSettings(), s)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("STORY2VIDEO_FPS", "60")
	t.Setenv("STORY2VIDEO_RESOLUTION", "720p")
	t.Setenv("STORY2VIDEO_NO_AUDIO", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	s, err := cfg.ExportSettings()
	require.NoError(t, err)
	assert.Equal(t, 60, s.FPS)
	assert.Equal(t, Res720p, s.Resolution)
	assert.False(t, s.IncludeAudio)
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load(writeConfig(t, "export:\n  fps: 25\n"))
	assert.ErrorContains(t, err, "frame rate")

	_, err = Load(writeConfig(t, "render:\n  crf: 80\n"))
	assert.ErrorContains(t, err, "crf")
}

func TestPresets(t *testing.T) {
	tests := []struct {
		res  Resolution
		w, h int
	}{
		{Res720p, 720, 1280},
		{Res1080p, 1080, 1920},
		{Res4K, 2160, 3840},
	}
	for _, tt := range tests {
		w, h, ok := tt.res.Dimensions()
		assert.True(t, ok)
		assert.Equal(t, tt.w, w, tt.res)
		assert.Equal(t, tt.h, h, tt.res)
	}

	_, _, ok := Resolution("8k").Dimensions()
	assert.False(t, ok)

	low, _ := BitrateLow.BitsPerSecond()
	med, _ := BitrateMedium.BitsPerSecond()
	high, _ := BitrateHigh.BitsPerSecond()
	assert.Equal(t, []int{2_500_000, 5_000_000, 8_000_000}, []int{low, med, high})
}

func TestExportSettingsValidate(t *testing.T) {
	ok := DefaultExportSettings()
	require.NoError(t, ok.Validate())

	w, h := ok.Size()
	assert.Equal(t, 1080, w)
	assert.Equal(t, 1920, h)
	assert.Equal(t, 5_000_000, ok.BitsPerSecond())

	current := ok
	current.Scope = ScopeCurrent
	current.CurrentSlide = 2
	assert.NoError(t, current.Validate())

	bad := []func(*ExportSettings){
		func(s *ExportSettings) { s.Resolution = "480p" },
		func(s *ExportSettings) { s.FPS = 25 },
		func(s *ExportSettings) { s.Bitrate = "ultra" },
		func(s *ExportSettings) { s.Scope = "some" },
		func(s *ExportSettings) { s.Scope = ScopeCurrent; s.CurrentSlide = -1 },
	}
	for i, mutate := range bad {
		s := DefaultExportSettings()
		mutate(&s)
		assert.Error(t, s.Validate(), "case %d", i)
	}
}
