package animation

import "math"

// Progress returns the normalized position of currentTime inside the window
// [delay, delay+duration). All values are milliseconds. The result is always
// in [0, 1]; a non-positive duration completes instantly.
func Progress(currentTime, delay, duration float64) float64 {
	if !(duration > 0) {
		return 1
	}
	t := currentTime
	if !(t > 0) {
		t = 0
	}
	if t < delay {
		return 0
	}
	if t >= delay+duration {
		return 1
	}
	return clamp01((t - delay) / duration)
}

// Ease remaps linear progress through the named curve. Input outside [0, 1]
// is clamped first; unknown curves behave as linear.
func Ease(p float64, e Easing) float64 {
	t := clamp01(p)
	switch e {
	case EaseIn:
		return t * t
	case EaseOut:
		return 1 - (1-t)*(1-t)
	case EaseDefault, EaseInOut:
		if t < 0.5 {
			return 2 * t * t
		}
		return 1 - 2*(1-t)*(1-t)
	case Spring:
		return spring(t)
	default:
		return t
	}
}

// spring is a damped exponential sinusoid that overshoots and settles on 1.
func spring(t float64) float64 {
	if t == 0 {
		return 0
	}
	if t == 1 {
		return 1
	}
	c4 := (2 * math.Pi) / 3
	return math.Pow(2, -10*t)*math.Sin((10*t-0.75)*c4) + 1
}

// clamp01 bounds v to [0, 1] and maps NaN to 0.
func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// lerp performs linear interpolation between a and b.
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
