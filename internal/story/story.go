// Package story holds the declarative document a render job consumes:
// ordered slides of positioned, animated elements plus optional audio.
package story

import (
	"fmt"
	"math"

	"github.com/ivlev/story2video/internal/animation"
)

// Default design canvas, in the units element styles are expressed in.
const (
	DefaultCanvasWidth  = 1080
	DefaultCanvasHeight = 1920
)

// Story is a complete document.
type Story struct {
	ID       string            `yaml:"id"`
	Title    string            `yaml:"title"`
	Canvas   Canvas            `yaml:"canvas,omitempty"`
	Slides   []Slide           `yaml:"slides"`
	Audio    *Audio            `yaml:"audio,omitempty"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
}

// Canvas is the design-space size element coordinates refer to.
type Canvas struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Slide is one screen of the story.
type Slide struct {
	ID         string     `yaml:"id"`
	Duration   float64    `yaml:"duration"` // seconds
	Background Background `yaml:"background"`
	Elements   []Element  `yaml:"elements,omitempty"`
	Audio      *Audio     `yaml:"audio,omitempty"`
	// Transition only matters to interactive playback.
	Transition string `yaml:"transition,omitempty"`
}

// Background types.
const (
	BackgroundColor    = "color"
	BackgroundImage    = "image"
	BackgroundVideo    = "video"
	BackgroundGradient = "gradient"
)

// Background describes the slide backdrop. Value is a color for "color", a
// file path for "image" and "video". Gradients use Colors and Angle.
type Background struct {
	Type   string   `yaml:"type"`
	Value  string   `yaml:"value,omitempty"`
	Colors []string `yaml:"colors,omitempty"`
	Angle  float64  `yaml:"angle,omitempty"` // degrees, 180 = top to bottom
}

// ElementType tags what an element draws.
type ElementType string

const (
	ElementText   ElementType = "text"
	ElementImage  ElementType = "image"
	ElementShape  ElementType = "shape"
	ElementButton ElementType = "button"
	ElementQRCode ElementType = "qrcode"
)

// Element is a positioned item on a slide.
type Element struct {
	ID        string             `yaml:"id"`
	Type      ElementType        `yaml:"type"`
	Content   string             `yaml:"content,omitempty"`
	Src       string             `yaml:"src,omitempty"`
	Style     Style              `yaml:"style"`
	Timings   *animation.Timings `yaml:"timings,omitempty"`
	Animation *animation.Track   `yaml:"animation,omitempty"`
}

// Style is the element's box and paint.
type Style struct {
	X               float64  `yaml:"x"`
	Y               float64  `yaml:"y"`
	Width           float64  `yaml:"width"`
	Height          float64  `yaml:"height"`
	Rotation        float64  `yaml:"rotation,omitempty"`
	Opacity         *float64 `yaml:"opacity,omitempty"`
	ZIndex          int      `yaml:"zIndex,omitempty"`
	Color           string   `yaml:"color,omitempty"`
	BackgroundColor string   `yaml:"backgroundColor,omitempty"`
	FontSize        float64  `yaml:"fontSize,omitempty"`
	TextAlign       string   `yaml:"textAlign,omitempty"`
	BorderRadius    float64  `yaml:"borderRadius,omitempty"`
	Shape           string   `yaml:"shape,omitempty"` // rect, circle
}

// Alpha returns the style opacity, defaulting to fully opaque.
func (s Style) Alpha() float64 {
	if s.Opacity == nil {
		return 1
	}
	return math.Max(0, math.Min(1, *s.Opacity))
}

// Audio references a track by URL or local path. A nil Volume plays the
// track at full level and zero mutes it.
type Audio struct {
	URL    string   `yaml:"url"`
	Volume *float64 `yaml:"volume,omitempty"`
}

// Gain returns the track volume, defaulting to 1.
func (a Audio) Gain() float64 {
	if a.Volume == nil {
		return 1
	}
	return math.Max(0, *a.Volume)
}

// FrameCount returns how many frames the slide spans at fps.
func (s Slide) FrameCount(fps int) int {
	return frames(s.Duration, fps)
}

// FrameCount returns the number of frames the slides span at fps, summed
// slide by slide.
func FrameCount(slides []Slide, fps int) int {
	total := 0
	for _, s := range slides {
		total += s.FrameCount(fps)
	}
	return total
}

// Select returns the slides an export covers: every slide when current is
// negative, otherwise only slide current.
func (s *Story) Select(current int) ([]Slide, error) {
	if current < 0 {
		return s.Slides, nil
	}
	if current >= len(s.Slides) {
		return nil, fmt.Errorf("slide %d out of range (%d slides)", current, len(s.Slides))
	}
	return s.Slides[current : current+1], nil
}

// TotalDuration is the summed duration of slides in seconds.
func TotalDuration(slides []Slide) float64 {
	sum := 0.0
	for _, s := range slides {
		sum += s.Duration
	}
	return sum
}

// frames is ceil(seconds*fps), tolerant of float noise such as 0.1*30.
func frames(seconds float64, fps int) int {
	if seconds <= 0 || fps <= 0 {
		return 0
	}
	return int(math.Ceil(seconds*float64(fps) - 1e-9))
}
