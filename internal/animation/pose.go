package animation

import "math"

// Axis identifies the single transform component a preset animates.
type Axis int

const (
	AxisNone Axis = iota
	AxisTranslateX
	AxisTranslateY
	AxisScale
	AxisRotate
)

// Unit is the unit of a translation offset.
type Unit int

const (
	Pixel Unit = iota
	// Percent offsets are relative to the element's own box, as in CSS translate.
	Percent
)

// pose is the shared intermediate both output representations are derived
// from. It is never exposed, so the two forms cannot drift apart.
type pose struct {
	opacity  float64
	visible  bool
	axis     Axis
	offsetX  float64
	offsetY  float64
	unit     Unit
	scale    float64
	rotation float64
}

func identity() pose {
	return pose{opacity: 1, visible: true, scale: 1}
}

func hidden() pose {
	return pose{opacity: 0, visible: false, scale: 1}
}

// poseFor evaluates the preset at eased progress p.
func poseFor(k Kind, p float64) pose {
	s := identity()
	switch k {
	case FadeIn:
		s.opacity = p
	case FadeOut:
		s.opacity = 1 - p
	case FadeInUp:
		s.opacity = p
		s.axis, s.offsetY = AxisTranslateY, (1-p)*30
	case FadeInDown:
		s.opacity = p
		s.axis, s.offsetY = AxisTranslateY, -(1-p)*30

	case SlideInLeft:
		s.axis, s.unit, s.offsetX = AxisTranslateX, Percent, -(1-p)*100
	case SlideInRight:
		s.axis, s.unit, s.offsetX = AxisTranslateX, Percent, (1-p)*100
	case SlideInUp:
		s.axis, s.unit, s.offsetY = AxisTranslateY, Percent, (1-p)*100
	case SlideInDown:
		s.axis, s.unit, s.offsetY = AxisTranslateY, Percent, -(1-p)*100

	case ScaleIn:
		s.opacity = p
		s.axis, s.scale = AxisScale, lerp(0.5, 1, p)
	case ScaleOut:
		s.opacity = 1 - p
		s.axis, s.scale = AxisScale, 1+0.5*p
	case ZoomIn:
		s.opacity = p
		s.axis, s.scale = AxisScale, p
	case BounceIn:
		s.opacity = math.Min(1, 1.5*p)
		s.axis, s.scale = AxisScale, p+math.Sin(p*math.Pi*2.5)*(1-p)*0.3

	case RotateIn:
		s.opacity = p
		s.axis, s.rotation = AxisRotate, (1-p)*-180
	case Rotate:
		s.axis, s.rotation = AxisRotate, p*360

	case Bounce:
		s.axis, s.offsetY = AxisTranslateY, -math.Abs(math.Sin(p*math.Pi*3))*(1-p)*20
	case Pulse:
		s.axis, s.scale = AxisScale, 1+math.Sin(p*2*math.Pi)*0.1
	case Shake:
		s.axis, s.offsetX = AxisTranslateX, math.Sin(p*math.Pi*8)*5*(1-p)
	case Float:
		s.axis, s.offsetY = AxisTranslateY, math.Sin(p*2*math.Pi)*10
	}
	return s
}
