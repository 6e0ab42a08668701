package story

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/story2video/internal/animation"
)

const sampleYAML = `
id: s1
title: Launch Day
slides:
  - id: intro
    duration: 5
    background: {type: color, value: "#101820"}
    elements:
      - id: headline
        type: text
        content: Hello
        style: {x: 100, y: 200, width: 800, height: 120, fontSize: 64, color: "#ffffff", zIndex: 2}
        timings: {start: 250, duration: 0}
        animation:
          enter: {type: fadeInUp, duration: 600, delay: 100, easing: ease-out}
          loop: {type: pulse, duration: 1200, delay: 0, easing: linear}
  - id: outro
    duration: 2.5
    audio: {url: "https://cdn.example.com/outro.mp3"}
`

const sampleJSON = `{
  "id": "s2",
  "title": "JSON story",
  "audio": {"url": "file:///tmp/bg.mp3"},
  "slides": [
    {"id": "a", "duration": 1, "background": {"type": "gradient", "colors": ["#ff0000", "#0000ff"], "angle": 90},
     "elements": [{"id": "e", "type": "shape", "style": {"x": 0, "y": 0, "width": 10, "height": 10, "opacity": 0.5}}]}
  ]
}`

func TestParseYAML(t *testing.T) {
	st, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "Launch Day", st.Title)
	require.Len(t, st.Slides, 2)
	assert.Equal(t, Canvas{Width: DefaultCanvasWidth, Height: DefaultCanvasHeight}, st.Canvas)

	el := st.Slides[0].Elements[0]
	assert.Equal(t, ElementText, el.Type)
	assert.Equal(t, 2, el.Style.ZIndex)
	assert.Equal(t, 1.0, el.Style.Alpha())
	require.NotNil(t, el.Animation)
	assert.Equal(t, animation.FadeInUp, el.Animation.Enter.Kind)
	assert.Equal(t, animation.EaseOut, el.Animation.Enter.Easing)
	assert.Equal(t, animation.Pulse, el.Animation.Loop.Kind)
	assert.Equal(t, 250.0, el.Timings.Start)

	assert.Equal(t, BackgroundColor, st.Slides[1].Background.Type, "default background type")
	assert.Equal(t, "https://cdn.example.com/outro.mp3", st.Slides[1].Audio.URL)
}

func TestParseJSON(t *testing.T) {
	st, err := Parse([]byte(sampleJSON))
	require.NoError(t, err)

	assert.Equal(t, "file:///tmp/bg.mp3", st.Audio.URL)
	assert.Equal(t, []string{"#ff0000", "#0000ff"}, st.Slides[0].Background.Colors)
	assert.Equal(t, 0.5, st.Slides[0].Elements[0].Style.Alpha())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"zero duration", `slides: [{id: a, duration: 0}]`},
		{"missing element type", `slides: [{id: a, duration: 1, elements: [{id: e}]}]`},
		{"unknown animation", `slides: [{id: a, duration: 1, elements: [{id: e, type: text, animation: {enter: {type: spin, duration: 10}}}]}]`},
		{"zero animation duration", `slides: [{id: a, duration: 1, elements: [{id: e, type: text, animation: {enter: {type: fadeIn, duration: 0}}}]}]`},
		{"negative delay", `slides: [{id: a, duration: 1, elements: [{id: e, type: text, animation: {loop: {type: pulse, duration: 10, delay: -1}}}]}]`},
		{"unknown easing", `slides: [{id: a, duration: 1, elements: [{id: e, type: text, animation: {enter: {type: fadeIn, duration: 10, easing: bouncy}}}]}]`},
		{"negative timings", `slides: [{id: a, duration: 1, elements: [{id: e, type: text, timings: {start: -5}}]}]`},
		{"infinite duration", `slides: [{id: a, duration: .inf}]`},
		{"oversized element", `slides: [{id: a, duration: 1, elements: [{id: e, type: shape, style: {width: 1e12, height: 10}}]}]`},
		{"taller than canvas allows", `{canvas: {width: 100, height: 100}, slides: [{id: a, duration: 1, elements: [{id: e, type: shape, style: {width: 10, height: 401}}]}]}`},
		{"negative size", `slides: [{id: a, duration: 1, elements: [{id: e, type: shape, style: {width: -1, height: 10}}]}]`},
		{"non-finite position", `slides: [{id: a, duration: 1, elements: [{id: e, type: shape, style: {x: .nan, width: 10, height: 10}}]}]`},
		{"negative volume", `{audio: {url: a.mp3, volume: -0.5}, slides: [{id: a, duration: 1}]}`},
		{"entrance used as loop", `slides: [{id: a, duration: 1, elements: [{id: e, type: text, animation: {loop: {type: fadeIn, duration: 10}}}]}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}
}

func TestValidateAcceptsLargeOffCanvasElements(t *testing.T) {
	_, err := Parse([]byte(`slides: [{id: a, duration: 1, elements: [{id: e, type: shape, style: {x: -200, y: -50, width: 4320, height: 7680}, animation: {loop: {type: rotate, duration: 1000}}}]}]`))
	assert.NoError(t, err)
}

func TestAudioGain(t *testing.T) {
	st, err := Parse([]byte(`{audio: {url: a.mp3, volume: 0}, slides: [{id: a, duration: 1, audio: {url: b.mp3}}]}`))
	require.NoError(t, err)
	require.NotNil(t, st.Audio.Volume)
	assert.Equal(t, 0.0, st.Audio.Gain(), "explicit zero mutes")
	assert.Equal(t, 1.0, st.Slides[0].Audio.Gain())
}

func TestNoneAnimationNeedsNoDuration(t *testing.T) {
	_, err := Parse([]byte(`slides: [{id: a, duration: 1, elements: [{id: e, type: text, animation: {enter: {type: none}}}]}]`))
	assert.NoError(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "story.yaml")
	require.NoError(t, Save(st, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, st, loaded)
}

func TestFrameCounts(t *testing.T) {
	slides := []Slide{{Duration: 5}, {Duration: 2.5}, {Duration: 0.1}}

	assert.Equal(t, 150, slides[0].FrameCount(30))
	assert.Equal(t, 75, slides[1].FrameCount(30))
	assert.Equal(t, 3, slides[2].FrameCount(30), "0.1*30 must not round up to 4")
	assert.Equal(t, 228, FrameCount(slides, 30))
	assert.Equal(t, 60, Slide{Duration: 2.5}.FrameCount(24))
	assert.Equal(t, 1, Slide{Duration: 0.01}.FrameCount(24))
	assert.InDelta(t, 7.6, TotalDuration(slides), 1e-9)
}

func TestSelect(t *testing.T) {
	st := &Story{Slides: []Slide{{ID: "a"}, {ID: "b"}, {ID: "c"}}}

	all, err := st.Select(-1)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	one, err := st.Select(1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "b", one[0].ID)

	_, err = st.Select(3)
	assert.Error(t, err)
}
