package surface

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// fillRoundedRect paints c over the whole of dst, rounding corners by radius.
func fillRoundedRect(dst *image.RGBA, radius float64, c color.NRGBA) {
	b := dst.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	radius = math.Min(radius, math.Min(w, h)/2)
	if radius <= 0 {
		draw.Draw(dst, b, image.NewUniform(c), image.Point{}, draw.Over)
		return
	}
	fillMasked(dst, c, func(x, y float64) bool {
		cx := math.Max(radius, math.Min(w-radius, x))
		cy := math.Max(radius, math.Min(h-radius, y))
		dx, dy := x-cx, y-cy
		return dx*dx+dy*dy <= radius*radius
	})
}

// fillEllipse paints the ellipse inscribed in dst.
func fillEllipse(dst *image.RGBA, c color.NRGBA) {
	b := dst.Bounds()
	rx, ry := float64(b.Dx())/2, float64(b.Dy())/2
	if rx <= 0 || ry <= 0 {
		return
	}
	fillMasked(dst, c, func(x, y float64) bool {
		dx, dy := (x-rx)/rx, (y-ry)/ry
		return dx*dx+dy*dy <= 1
	})
}

// fillMasked composites c over every pixel whose center satisfies inside,
// with coordinates relative to dst's origin.
func fillMasked(dst *image.RGBA, c color.NRGBA, inside func(x, y float64) bool) {
	b := dst.Bounds()
	src := image.NewUniform(c)
	mask := image.NewAlpha(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if inside(float64(x-b.Min.X)+0.5, float64(y-b.Min.Y)+0.5) {
				mask.SetAlpha(x, y, color.Alpha{A: 255})
			}
		}
	}
	draw.DrawMask(dst, b, src, image.Point{}, mask, b.Min, draw.Over)
}

// fadeLayer scales every channel of a premultiplied layer by alpha.
func fadeLayer(layer *image.RGBA, alpha float64) {
	if alpha >= 1 {
		return
	}
	a := uint32(math.Round(alpha * 256))
	for i := range layer.Pix {
		layer.Pix[i] = uint8(uint32(layer.Pix[i]) * a >> 8)
	}
}

// placement describes where a layer lands on the frame.
type placement struct {
	centerX, centerY float64 // destination center
	scale            float64
	rotation         float64 // degrees, clockwise
}

// composite draws layer onto dst so that its center lands on p.center,
// scaled and rotated about that center.
func composite(dst *image.RGBA, layer *image.RGBA, p placement) {
	w, h := float64(layer.Bounds().Dx()), float64(layer.Bounds().Dy())

	if p.rotation == 0 && p.scale == 1 {
		at := image.Pt(int(math.Round(p.centerX-w/2)), int(math.Round(p.centerY-h/2)))
		draw.Draw(dst, layer.Bounds().Add(at), layer, image.Point{}, draw.Over)
		return
	}

	theta := p.rotation * math.Pi / 180
	sin, cos := math.Sincos(theta)
	a, b := p.scale*cos, -p.scale*sin
	d, e := p.scale*sin, p.scale*cos
	m := f64.Aff3{
		a, b, p.centerX - a*w/2 - b*h/2,
		d, e, p.centerY - d*w/2 - e*h/2,
	}
	draw.BiLinear.Transform(dst, m, layer, layer.Bounds(), draw.Over, nil)
}

// coverScale draws src over the whole of dst, cropping to keep its aspect.
func coverScale(dst *image.RGBA, src image.Image) {
	db, sb := dst.Bounds(), src.Bounds()
	if sb.Empty() || db.Empty() {
		return
	}
	scale := math.Max(float64(db.Dx())/float64(sb.Dx()), float64(db.Dy())/float64(sb.Dy()))
	cw := int(math.Round(float64(db.Dx()) / scale))
	ch := int(math.Round(float64(db.Dy()) / scale))
	x0 := sb.Min.X + (sb.Dx()-cw)/2
	y0 := sb.Min.Y + (sb.Dy()-ch)/2
	draw.CatmullRom.Scale(dst, db, src, image.Rect(x0, y0, x0+cw, y0+ch), draw.Over, nil)
}

// containScale draws src centered in dst, letterboxed to keep its aspect.
func containScale(dst *image.RGBA, src image.Image) {
	db, sb := dst.Bounds(), src.Bounds()
	if sb.Empty() || db.Empty() {
		return
	}
	scale := math.Min(float64(db.Dx())/float64(sb.Dx()), float64(db.Dy())/float64(sb.Dy()))
	w := int(math.Round(float64(sb.Dx()) * scale))
	h := int(math.Round(float64(sb.Dy()) * scale))
	x0 := db.Min.X + (db.Dx()-w)/2
	y0 := db.Min.Y + (db.Dy()-h)/2
	draw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+w, y0+h), src, sb, draw.Over, nil)
}
