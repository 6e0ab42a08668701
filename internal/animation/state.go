package animation

import (
	"math"
	"strconv"
)

// minRasterScale keeps decomposed scale factors away from zero so raster
// backends never compute a degenerate destination size.
const minRasterScale = 0.01

// State is the composable form of an element's visual state: a CSS-style
// transform descriptor plus opacity and visibility.
type State struct {
	Opacity   float64
	Transform string
	Visible   bool
}

// RenderState is the decomposed form of the same state, for capture backends
// that apply offset, scale and rotation separately.
type RenderState struct {
	Opacity    float64
	Visible    bool
	OffsetX    float64
	OffsetY    float64
	OffsetUnit Unit
	Scale      float64
	Rotation   float64 // degrees, clockwise
}

// ComputeState returns the visual state of an element animated by a at time
// t (ms since slide start). timings may be nil.
func ComputeState(t float64, a Animation, timings *Timings) State {
	return evaluate(t, a, timings).state()
}

// ComputeRenderState is ComputeState in decomposed form.
func ComputeRenderState(t float64, a Animation, timings *Timings) RenderState {
	return evaluate(t, a, timings).render()
}

// ComputeTrack evaluates an enter+loop track at time t and returns both
// representations. The enter animation governs until it completes; then the
// loop repeats with period loop.Duration. A loop never re-shows an element
// whose enter animation ended hidden.
func ComputeTrack(t float64, tr Track, timings *Timings) (State, RenderState) {
	p := trackPose(t, tr, timings)
	return p.state(), p.render()
}

// Reveal returns the fraction of text a typewriter animation has revealed at
// time t. Any other kind reveals everything.
func Reveal(t float64, a *Animation, timings *Timings) float64 {
	if a == nil || a.Kind != Typewriter {
		return 1
	}
	return Ease(Progress(t, a.Delay+startOf(timings), a.Duration), a.Easing)
}

func evaluate(t float64, a Animation, timings *Timings) pose {
	if a.Kind == None || a.Kind == "" {
		return identity()
	}
	linear := Progress(t, a.Delay+startOf(timings), a.Duration)
	// Easing curves such as spring are non-zero right after 0, so entrances
	// are pinned hidden on the raw progress.
	if linear == 0 && a.Kind.IsEntrance() {
		return hidden()
	}
	return poseFor(a.Kind, Ease(linear, a.Easing))
}

func trackPose(t float64, tr Track, timings *Timings) pose {
	origin := startOf(timings)
	hasLoop := tr.Loop != nil && tr.Loop.Kind != None && tr.Loop.Kind != ""

	if tr.Enter != nil && tr.Enter.Kind != None && tr.Enter.Kind != "" {
		enter := evaluate(t, *tr.Enter, timings)
		origin += tr.Enter.Delay + math.Max(tr.Enter.Duration, 0)
		if !hasLoop || t < origin || !enter.visible || enter.opacity == 0 {
			return enter
		}
	}
	if !hasLoop {
		return identity()
	}

	origin += tr.Loop.Delay
	if t < origin || !(tr.Loop.Duration > 0) {
		return identity()
	}
	phase := math.Mod(t-origin, tr.Loop.Duration) / tr.Loop.Duration
	return poseFor(tr.Loop.Kind, Ease(phase, tr.Loop.Easing))
}

func startOf(timings *Timings) float64 {
	if timings == nil {
		return 0
	}
	return timings.Start
}

func (p pose) state() State {
	return State{
		Opacity:   p.opacity,
		Transform: p.transform(),
		Visible:   p.visible,
	}
}

func (p pose) render() RenderState {
	return RenderState{
		Opacity:    p.opacity,
		Visible:    p.visible,
		OffsetX:    p.offsetX,
		OffsetY:    p.offsetY,
		OffsetUnit: p.unit,
		Scale:      math.Max(p.scale, minRasterScale),
		Rotation:   p.rotation,
	}
}

func (p pose) transform() string {
	unit := "px"
	if p.unit == Percent {
		unit = "%"
	}
	switch p.axis {
	case AxisTranslateX:
		return "translateX(" + formatNumber(p.offsetX) + unit + ")"
	case AxisTranslateY:
		return "translateY(" + formatNumber(p.offsetY) + unit + ")"
	case AxisScale:
		return "scale(" + formatNumber(p.scale) + ")"
	case AxisRotate:
		return "rotate(" + formatNumber(p.rotation) + "deg)"
	default:
		return "none"
	}
}

func formatNumber(v float64) string {
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
