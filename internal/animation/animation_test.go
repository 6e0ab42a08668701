package animation

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressBounds(t *testing.T) {
	windows := []struct{ delay, duration float64 }{
		{0, 500}, {200, 500}, {1000, 1}, {0, 0.5}, {50, 3000},
	}
	times := []float64{-1000, -1, 0, 1, 199, 200, 449.99, 450, 699, 700, 701, 1e9, math.Inf(1), math.Inf(-1), math.NaN()}

	for _, w := range windows {
		for _, ts := range times {
			p := Progress(ts, w.delay, w.duration)
			assert.GreaterOrEqual(t, p, 0.0, "t=%v window=%v", ts, w)
			assert.LessOrEqual(t, p, 1.0, "t=%v window=%v", ts, w)
		}
	}
}

func TestProgressWindowEdges(t *testing.T) {
	const delay, duration = 200.0, 500.0

	for _, ts := range []float64{0, 50, 199, 199.999} {
		assert.Equal(t, 0.0, Progress(ts, delay, duration), "before delay at %v", ts)
	}
	for _, ts := range []float64{700, 700.001, 900, 1e6} {
		assert.Equal(t, 1.0, Progress(ts, delay, duration), "after window at %v", ts)
	}
	assert.Equal(t, 0.5, Progress(450, 200, 500))
	assert.Equal(t, 0.0, Progress(200, 200, 500))
}

func TestProgressNonPositiveDurationCompletes(t *testing.T) {
	assert.Equal(t, 1.0, Progress(0, 100, 0))
	assert.Equal(t, 1.0, Progress(0, 0, -5))
}

func TestEaseEndpoints(t *testing.T) {
	for _, e := range Easings {
		t.Run(string(e), func(t *testing.T) {
			assert.Equal(t, 0.0, Ease(0, e))
			assert.Equal(t, 1.0, Ease(1, e))
			for _, in := range []float64{-10, -0.5, 0.1, 0.3, 0.5, 0.9, 1.5, 100, math.Inf(1), math.Inf(-1), math.NaN()} {
				out := Ease(in, e)
				assert.False(t, math.IsNaN(out) || math.IsInf(out, 0), "ease(%v)=%v", in, out)
			}
			assert.Equal(t, 0.0, Ease(-3, e), "clamped below")
			assert.Equal(t, 1.0, Ease(7, e), "clamped above")
		})
	}
}

func TestEaseCurves(t *testing.T) {
	assert.Equal(t, 0.5, Ease(0.5, Linear))
	assert.Equal(t, 0.37, Ease(0.37, Linear))
	assert.InDelta(t, 0.25, Ease(0.5, EaseIn), 1e-12)
	assert.InDelta(t, 0.75, Ease(0.5, EaseOut), 1e-12)
	assert.InDelta(t, 0.08, Ease(0.2, EaseInOut), 1e-12)
	assert.InDelta(t, 0.92, Ease(0.8, EaseDefault), 1e-12)
	assert.Equal(t, 0.5, Ease(0.5, Easing("unknown")))
	// spring overshoots before settling
	assert.Greater(t, Ease(0.2, Spring), 1.0)
}

func TestComputeStateNone(t *testing.T) {
	for _, ts := range []float64{-100, 0, 250, 1e7} {
		s := ComputeState(ts, Animation{Kind: None}, nil)
		assert.Equal(t, State{Opacity: 1, Transform: "none", Visible: true}, s)
	}
}

func TestComputeStateFadeInScenario(t *testing.T) {
	a := Animation{Kind: FadeIn, Duration: 500, Delay: 0, Easing: Linear}

	s := ComputeState(250, a, nil)
	assert.Equal(t, State{Opacity: 0.5, Transform: "none", Visible: true}, s)
}

func TestEntranceHiddenBeforeDelay(t *testing.T) {
	for _, k := range Kinds {
		if !k.IsEntrance() {
			continue
		}
		t.Run(string(k), func(t *testing.T) {
			a := Animation{Kind: k, Duration: 400, Delay: 300, Easing: Spring}
			s := ComputeState(100, a, &Timings{Start: 50})
			assert.False(t, s.Visible)
			assert.Equal(t, 0.0, s.Opacity)

			// element timing start shifts the window
			s = ComputeState(320, a, &Timings{Start: 50})
			assert.False(t, s.Visible)
			s = ComputeState(360, a, &Timings{Start: 50})
			assert.True(t, s.Visible)
		})
	}
}

func TestAllKindsProduceWellFormedState(t *testing.T) {
	for _, k := range Kinds {
		for _, e := range Easings {
			a := Animation{Kind: k, Duration: 1000, Delay: 0, Easing: e}
			for ms := 0.0; ms <= 1000; ms += 25 {
				s := ComputeState(ms, a, nil)
				assert.False(t, math.IsNaN(s.Opacity) || math.IsInf(s.Opacity, 0), "%s/%s at %v", k, e, ms)
				require.NotEmpty(t, s.Transform)
				assert.True(t,
					s.Transform == "none" ||
						strings.HasPrefix(s.Transform, "translate") ||
						strings.HasPrefix(s.Transform, "scale") ||
						strings.HasPrefix(s.Transform, "rotate"),
					"%s: %q", k, s.Transform)
			}
		}
	}
}

func TestFamilies(t *testing.T) {
	for ms := 0.0; ms <= 1000; ms += 50 {
		for _, k := range []Kind{FadeIn, FadeOut, FadeInUp, FadeInDown} {
			s := ComputeState(ms, Animation{Kind: k, Duration: 1000, Easing: EaseInOut}, nil)
			assert.GreaterOrEqual(t, s.Opacity, 0.0)
			assert.LessOrEqual(t, s.Opacity, 1.0)
		}
		for _, k := range []Kind{SlideInLeft, SlideInRight, SlideInUp, SlideInDown} {
			a := Animation{Kind: k, Duration: 1000, Easing: Linear}
			s := ComputeState(ms, a, nil)
			if ms == 0 {
				continue // hidden initial state
			}
			assert.Equal(t, 1.0, s.Opacity, "%s", k)
			assert.True(t, strings.HasPrefix(s.Transform, "translate"), "%s: %q", k, s.Transform)
		}
		for _, k := range []Kind{ScaleIn, ScaleOut, ZoomIn, BounceIn, Pulse} {
			if ms == 0 && k.IsEntrance() {
				continue
			}
			s := ComputeState(ms, Animation{Kind: k, Duration: 1000, Easing: Linear}, nil)
			assert.True(t, strings.HasPrefix(s.Transform, "scale("), "%s: %q", k, s.Transform)
		}
	}
}

func TestTransformFormulas(t *testing.T) {
	lin := func(k Kind) Animation { return Animation{Kind: k, Duration: 1000, Easing: Linear} }

	assert.Equal(t, "translateY(15px)", ComputeState(500, lin(FadeInUp), nil).Transform)
	assert.Equal(t, "translateY(-15px)", ComputeState(500, lin(FadeInDown), nil).Transform)
	assert.Equal(t, "translateX(-50%)", ComputeState(500, lin(SlideInLeft), nil).Transform)
	assert.Equal(t, "translateX(50%)", ComputeState(500, lin(SlideInRight), nil).Transform)
	assert.Equal(t, "translateX(0%)", ComputeState(1000, lin(SlideInRight), nil).Transform)
	assert.Equal(t, "scale(0.75)", ComputeState(500, lin(ScaleIn), nil).Transform)
	assert.Equal(t, "scale(1.25)", ComputeState(500, lin(ScaleOut), nil).Transform)
	assert.Equal(t, "rotate(-90deg)", ComputeState(500, lin(RotateIn), nil).Transform)
	assert.Equal(t, "rotate(180deg)", ComputeState(500, lin(Rotate), nil).Transform)
	assert.Equal(t, "none", ComputeState(500, lin(Typewriter), nil).Transform)

	b := ComputeState(400, lin(BounceIn), nil)
	assert.InDelta(t, 0.6, b.Opacity, 1e-12)

	f := ComputeState(250, lin(Float), nil)
	assert.Equal(t, "translateY(10px)", f.Transform)
}

func TestRenderStateMatchesState(t *testing.T) {
	for _, k := range Kinds {
		a := Animation{Kind: k, Duration: 800, Delay: 100, Easing: EaseOut}
		for ms := 0.0; ms <= 1000; ms += 37 {
			s := ComputeState(ms, a, nil)
			r := ComputeRenderState(ms, a, nil)
			assert.Equal(t, s.Opacity, r.Opacity, "%s at %v", k, ms)
			assert.Equal(t, s.Visible, r.Visible, "%s at %v", k, ms)
			assert.GreaterOrEqual(t, r.Scale, minRasterScale)
		}
	}

	r := ComputeRenderState(500, Animation{Kind: SlideInUp, Duration: 1000, Easing: Linear}, nil)
	assert.Equal(t, Percent, r.OffsetUnit)
	assert.Equal(t, 50.0, r.OffsetY)

	z := ComputeRenderState(1, Animation{Kind: ZoomIn, Duration: 1e9, Easing: Linear}, nil)
	assert.Equal(t, minRasterScale, z.Scale)
}

func TestComputeStateDeterministic(t *testing.T) {
	a := Animation{Kind: BounceIn, Duration: 733, Delay: 41, Easing: Spring}
	tm := &Timings{Start: 120, Duration: 2000}
	for ms := 0.0; ms < 1500; ms += 13.7 {
		first := ComputeState(ms, a, tm)
		second := ComputeState(ms, a, tm)
		assert.Equal(t, math.Float64bits(first.Opacity), math.Float64bits(second.Opacity))
		assert.Equal(t, first, second)
	}
}

func TestComputeTrack(t *testing.T) {
	tr := Track{
		Enter: &Animation{Kind: FadeIn, Duration: 500, Easing: Linear},
		Loop:  &Animation{Kind: Rotate, Duration: 1000, Easing: Linear},
	}

	s, _ := ComputeTrack(0, tr, nil)
	assert.False(t, s.Visible)

	s, _ = ComputeTrack(250, tr, nil)
	assert.Equal(t, 0.5, s.Opacity)
	assert.Equal(t, "none", s.Transform)

	s, r := ComputeTrack(750, tr, nil)
	assert.Equal(t, "rotate(90deg)", s.Transform)
	assert.Equal(t, 90.0, r.Rotation)

	s, _ = ComputeTrack(1750, tr, nil)
	assert.Equal(t, "rotate(90deg)", s.Transform, "loop repeats every period")

	out := Track{
		Enter: &Animation{Kind: FadeOut, Duration: 200, Easing: Linear},
		Loop:  &Animation{Kind: Pulse, Duration: 1000, Easing: Linear},
	}
	s, _ = ComputeTrack(900, out, nil)
	assert.Equal(t, 0.0, s.Opacity, "loop must not resurrect a faded-out element")

	s, _ = ComputeTrack(300, Track{}, nil)
	assert.Equal(t, State{Opacity: 1, Transform: "none", Visible: true}, s)
}

func TestReveal(t *testing.T) {
	a := &Animation{Kind: Typewriter, Duration: 1000, Easing: Linear}
	assert.Equal(t, 0.0, Reveal(0, a, nil))
	assert.Equal(t, 0.5, Reveal(500, a, nil))
	assert.Equal(t, 1.0, Reveal(5000, a, nil))
	assert.Equal(t, 1.0, Reveal(0, &Animation{Kind: FadeIn, Duration: 10}, nil))
	assert.Equal(t, 1.0, Reveal(0, nil, nil))
}

func TestTimingsContains(t *testing.T) {
	var open *Timings
	assert.True(t, open.Contains(5))

	w := &Timings{Start: 100, Duration: 200}
	assert.False(t, w.Contains(99))
	assert.True(t, w.Contains(100))
	assert.True(t, w.Contains(299))
	assert.False(t, w.Contains(300))

	assert.True(t, (&Timings{Start: 10}).Contains(1e6))
}
