package config

import (
	"fmt"
	"slices"
)

// Resolution is one of the fixed output presets.
type Resolution string

const (
	Res720p  Resolution = "720p"
	Res1080p Resolution = "1080p"
	Res4K    Resolution = "4k"
)

// Bitrate is one of the fixed video bitrate presets.
type Bitrate string

const (
	BitrateLow    Bitrate = "low"
	BitrateMedium Bitrate = "medium"
	BitrateHigh   Bitrate = "high"
)

// Scope selects which slides an export covers.
type Scope string

const (
	ScopeCurrent Scope = "current"
	ScopeAll     Scope = "all"
)

// FrameRates are the supported output frame rates.
var FrameRates = []int{24, 30, 60}

var resolutions = map[Resolution][2]int{
	Res720p:  {720, 1280},
	Res1080p: {1080, 1920},
	Res4K:    {2160, 3840},
}

var bitrates = map[Bitrate]int{
	BitrateLow:    2_500_000,
	BitrateMedium: 5_000_000,
	BitrateHigh:   8_000_000,
}

// Dimensions returns the pixel size of the preset.
func (r Resolution) Dimensions() (width, height int, ok bool) {
	d, ok := resolutions[r]
	return d[0], d[1], ok
}

// BitsPerSecond returns the preset's target bitrate.
func (b Bitrate) BitsPerSecond() (int, bool) {
	v, ok := bitrates[b]
	return v, ok
}

// ExportSettings are the per-job output choices.
type ExportSettings struct {
	Resolution   Resolution
	FPS          int
	Bitrate      Bitrate
	Scope        Scope
	CurrentSlide int // index used when Scope is ScopeCurrent
	IncludeAudio bool
}

// DefaultExportSettings returns 1080p, 30 fps, medium bitrate, all slides with audio.
func DefaultExportSettings() ExportSettings {
	return ExportSettings{
		Resolution:   Res1080p,
		FPS:          30,
		Bitrate:      BitrateMedium,
		Scope:        ScopeAll,
		IncludeAudio: true,
	}
}

// Validate rejects values outside the fixed enumerations.
func (s ExportSettings) Validate() error {
	if _, _, ok := s.Resolution.Dimensions(); !ok {
		return fmt.Errorf("unsupported resolution %q", s.Resolution)
	}
	if !slices.Contains(FrameRates, s.FPS) {
		return fmt.Errorf("unsupported frame rate %d (want one of %v)", s.FPS, FrameRates)
	}
	if _, ok := s.Bitrate.BitsPerSecond(); !ok {
		return fmt.Errorf("unsupported bitrate %q", s.Bitrate)
	}
	switch s.Scope {
	case ScopeAll:
	case ScopeCurrent:
		if s.CurrentSlide < 0 {
			return fmt.Errorf("negative current slide %d", s.CurrentSlide)
		}
	default:
		return fmt.Errorf("unsupported scope %q", s.Scope)
	}
	return nil
}

// Size returns the output pixel dimensions.
func (s ExportSettings) Size() (width, height int) {
	width, height, _ = s.Resolution.Dimensions()
	return width, height
}

// BitsPerSecond returns the output bitrate.
func (s ExportSettings) BitsPerSecond() int {
	v, _ := s.Bitrate.BitsPerSecond()
	return v
}
