// Package animation computes the visual state of a slide element at an
// arbitrary instant. Every function here is pure: the same inputs always
// produce bit-identical outputs, and nothing is cached between calls.
package animation

// Kind names one of the fixed animation presets.
type Kind string

const (
	None Kind = "none"

	FadeIn     Kind = "fadeIn"
	FadeOut    Kind = "fadeOut"
	FadeInUp   Kind = "fadeInUp"
	FadeInDown Kind = "fadeInDown"

	SlideInLeft  Kind = "slideInLeft"
	SlideInRight Kind = "slideInRight"
	SlideInUp    Kind = "slideInUp"
	SlideInDown  Kind = "slideInDown"

	ScaleIn  Kind = "scaleIn"
	ScaleOut Kind = "scaleOut"
	ZoomIn   Kind = "zoomIn"
	BounceIn Kind = "bounceIn"

	RotateIn Kind = "rotateIn"
	Rotate   Kind = "rotate"

	Pulse  Kind = "pulse"
	Shake  Kind = "shake"
	Float  Kind = "float"
	Bounce Kind = "bounce"

	Typewriter Kind = "typewriter"
)

// Kinds lists every preset in declaration order.
var Kinds = []Kind{
	None,
	FadeIn, FadeOut, FadeInUp, FadeInDown,
	SlideInLeft, SlideInRight, SlideInUp, SlideInDown,
	ScaleIn, ScaleOut, ZoomIn, BounceIn,
	RotateIn, Rotate,
	Pulse, Shake, Float, Bounce,
	Typewriter,
}

// Easing names one of the supported timing curves.
type Easing string

const (
	Linear      Easing = "linear"
	EaseDefault Easing = "ease"
	EaseIn      Easing = "ease-in"
	EaseOut     Easing = "ease-out"
	EaseInOut   Easing = "ease-in-out"
	Spring      Easing = "spring"
)

// Easings lists every supported easing curve.
var Easings = []Easing{Linear, EaseDefault, EaseIn, EaseOut, EaseInOut, Spring}

// Animation describes a single preset applied to an element.
// Duration and Delay are in milliseconds.
type Animation struct {
	Kind     Kind    `yaml:"type"`
	Duration float64 `yaml:"duration"`
	Delay    float64 `yaml:"delay"`
	Easing   Easing  `yaml:"easing"`
}

// Track pairs an element's one-shot enter animation with an optional
// repeating loop animation.
type Track struct {
	Enter *Animation `yaml:"enter,omitempty"`
	Loop  *Animation `yaml:"loop,omitempty"`
}

// Timings is the per-element visibility window relative to slide start, in
// milliseconds. A zero Duration means the element stays until the slide ends.
type Timings struct {
	Start    float64 `yaml:"start"`
	Duration float64 `yaml:"duration"`
}

// Contains reports whether t (ms since slide start) falls inside the window.
func (w *Timings) Contains(t float64) bool {
	if w == nil {
		return true
	}
	if t < w.Start {
		return false
	}
	return w.Duration <= 0 || t < w.Start+w.Duration
}

// Known reports whether k is one of the presets.
func (k Kind) Known() bool {
	for _, v := range Kinds {
		if v == k {
			return true
		}
	}
	return false
}

// Known reports whether e is one of the supported curves.
func (e Easing) Known() bool {
	for _, v := range Easings {
		if v == e {
			return true
		}
	}
	return false
}

// IsEntrance reports whether the kind must start fully hidden before its
// delay has elapsed.
func (k Kind) IsEntrance() bool {
	switch k {
	case FadeIn, FadeInUp, FadeInDown,
		SlideInLeft, SlideInRight, SlideInUp, SlideInDown,
		ScaleIn, ZoomIn, BounceIn,
		RotateIn:
		return true
	}
	return false
}

// IsLoop reports whether the kind is meant to repeat.
func (k Kind) IsLoop() bool {
	switch k {
	case Rotate, Pulse, Shake, Float, Bounce:
		return true
	}
	return false
}
