package surface

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/ivlev/story2video/internal/animation"
	"github.com/ivlev/story2video/internal/story"
	"github.com/ivlev/story2video/internal/system"
)

var (
	defaultBackground = color.NRGBA{0, 0, 0, 255}
	defaultText       = color.NRGBA{255, 255, 255, 255}
	defaultFill       = color.NRGBA{59, 130, 246, 255}
)

// Raster is an in-process Renderer drawing slides with x/image.
// It is not safe for concurrent use.
type Raster struct {
	width, height int
	canvas        story.Canvas
	sx, sy        float64

	assets *Assets
	faces  faceCache
	qr     map[qrKey]image.Image
	log    *zap.Logger

	back      *image.RGBA
	committed bool

	bgSlide *story.Slide
	bg      *image.RGBA
}

type qrKey struct {
	content string
	size    int
	fg, bg  color.NRGBA
}

// NewRaster returns a Raster producing width x height frames from a story
// designed on canvas.
func NewRaster(width, height int, canvas story.Canvas, assets *Assets, log *zap.Logger) *Raster {
	if canvas.Width <= 0 || canvas.Height <= 0 {
		canvas = story.Canvas{Width: story.DefaultCanvasWidth, Height: story.DefaultCanvasHeight}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if assets == nil {
		assets = NewAssets("", log)
	}
	return &Raster{
		width:  width,
		height: height,
		canvas: canvas,
		sx:     float64(width) / float64(canvas.Width),
		sy:     float64(height) / float64(canvas.Height),
		assets: assets,
		qr:     make(map[qrKey]image.Image),
		log:    log,
		back:   image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Size returns the output frame dimensions.
func (r *Raster) Size() (int, int) { return r.width, r.height }

// Commit draws the slide at f.TimeMs into the back buffer.
func (r *Raster) Commit(ctx context.Context, f Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.Slide == nil {
		return errors.New("surface: commit without a slide")
	}

	r.committed = false
	copy(r.back.Pix, r.background(f.Slide).Pix)

	for _, el := range zOrder(f.Slide.Elements) {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.drawElement(el, f.TimeMs)
	}

	r.committed = true
	return nil
}

// Snapshot copies the back buffer into a pooled image.
func (r *Raster) Snapshot(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !r.committed {
		return nil, ErrNotCommitted
	}
	img := system.GetImage(r.back.Rect)
	copy(img.Pix, r.back.Pix)
	return img, nil
}

// Close releases cached font faces.
func (r *Raster) Close() error {
	r.faces.close()
	return nil
}

func zOrder(elements []story.Element) []*story.Element {
	out := make([]*story.Element, len(elements))
	for i := range elements {
		out[i] = &elements[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Style.ZIndex < out[j].Style.ZIndex
	})
	return out
}

// background renders the slide backdrop once per slide and reuses it.
func (r *Raster) background(s *story.Slide) *image.RGBA {
	if r.bg != nil && r.bgSlide == s {
		return r.bg
	}
	if r.bg == nil {
		r.bg = image.NewRGBA(r.back.Rect)
	}
	r.bgSlide = s

	bg := s.Background
	switch bg.Type {
	case story.BackgroundGradient:
		r.paintGradient(bg)
	case story.BackgroundImage:
		draw.Draw(r.bg, r.bg.Rect, image.NewUniform(colorOr(firstColor(bg), defaultBackground)), image.Point{}, draw.Src)
		if img, err := r.assets.Image(bg.Value); err == nil {
			coverScale(r.bg, img)
		}
	case story.BackgroundVideo:
		// Video backdrops are drawn as their poster color.
		draw.Draw(r.bg, r.bg.Rect, image.NewUniform(colorOr(firstColor(bg), defaultBackground)), image.Point{}, draw.Src)
	default:
		draw.Draw(r.bg, r.bg.Rect, image.NewUniform(colorOr(bg.Value, defaultBackground)), image.Point{}, draw.Src)
	}
	return r.bg
}

func firstColor(bg story.Background) string {
	if len(bg.Colors) > 0 {
		return bg.Colors[0]
	}
	return ""
}

// paintGradient draws a linear gradient. Angle follows CSS: 0 points up,
// 90 to the right, 180 (the default) down.
func (r *Raster) paintGradient(bg story.Background) {
	stops := make([]color.NRGBA, 0, len(bg.Colors))
	for _, c := range bg.Colors {
		stops = append(stops, colorOr(c, defaultBackground))
	}
	switch len(stops) {
	case 0:
		stops = []color.NRGBA{defaultBackground, defaultBackground}
	case 1:
		stops = append(stops, stops[0])
	}

	angle := bg.Angle
	if angle == 0 && bg.Colors != nil {
		angle = 180
	}
	sin, cos := math.Sincos(angle * math.Pi / 180)
	dx, dy := sin, -cos
	w, h := float64(r.width), float64(r.height)
	span := math.Abs(w*dx) + math.Abs(h*dy)
	if span == 0 {
		span = 1
	}

	for y := 0; y < r.height; y++ {
		for x := 0; x < r.width; x++ {
			t := ((float64(x)+0.5-w/2)*dx+(float64(y)+0.5-h/2)*dy)/span + 0.5
			t = math.Max(0, math.Min(1, t))
			pos := t * float64(len(stops)-1)
			i := min(int(pos), len(stops)-2)
			c := mix(stops[i], stops[i+1], pos-float64(i))
			off := r.bg.PixOffset(x, y)
			a := uint32(c.A)
			r.bg.Pix[off+0] = uint8(uint32(c.R) * a / 255)
			r.bg.Pix[off+1] = uint8(uint32(c.G) * a / 255)
			r.bg.Pix[off+2] = uint8(uint32(c.B) * a / 255)
			r.bg.Pix[off+3] = c.A
		}
	}
}

func (r *Raster) drawElement(el *story.Element, t float64) {
	if !el.Timings.Contains(t) {
		return
	}

	var track animation.Track
	if el.Animation != nil {
		track = *el.Animation
	}
	_, rs := animation.ComputeTrack(t, track, el.Timings)
	alpha := el.Style.Alpha() * rs.Opacity
	if !rs.Visible || alpha <= 0 {
		return
	}

	fw, fh := math.Ceil(el.Style.Width*r.sx), math.Ceil(el.Style.Height*r.sy)
	if !(fw > 0 && fh > 0) {
		return
	}
	if fw > story.MaxElementScale*float64(r.back.Rect.Dx()) || fh > story.MaxElementScale*float64(r.back.Rect.Dy()) {
		r.log.Debug("element too large to draw", zap.String("id", el.ID), zap.Float64("width", el.Style.Width), zap.Float64("height", el.Style.Height))
		return
	}
	w, h := int(fw), int(fh)

	layer := image.NewRGBA(image.Rect(0, 0, w, h))
	if !r.paintElement(layer, el, animation.Reveal(t, track.Enter, el.Timings)) {
		return
	}
	fadeLayer(layer, alpha)

	offX, offY := rs.OffsetX*r.sx, rs.OffsetY*r.sy
	if rs.OffsetUnit == animation.Percent {
		offX = rs.OffsetX / 100 * float64(w)
		offY = rs.OffsetY / 100 * float64(h)
	}

	composite(r.back, layer, placement{
		centerX:  el.Style.X*r.sx + float64(w)/2 + offX,
		centerY:  el.Style.Y*r.sy + float64(h)/2 + offY,
		scale:    rs.Scale,
		rotation: el.Style.Rotation + rs.Rotation,
	})
}

// paintElement draws el's content into layer and reports whether anything
// was drawn.
func (r *Raster) paintElement(layer *image.RGBA, el *story.Element, reveal float64) bool {
	st := el.Style
	switch el.Type {
	case story.ElementText:
		if st.BackgroundColor != "" {
			fillRoundedRect(layer, st.BorderRadius*r.sx, colorOr(st.BackgroundColor, defaultFill))
		}
		r.paintText(layer, el.Content, st, reveal, false)
	case story.ElementButton:
		fillRoundedRect(layer, st.BorderRadius*r.sx, colorOr(st.BackgroundColor, defaultFill))
		if st.TextAlign == "" {
			st.TextAlign = "center"
		}
		r.paintText(layer, el.Content, st, reveal, true)
	case story.ElementShape:
		fill := colorOr(st.BackgroundColor, colorOr(st.Color, defaultFill))
		if st.Shape == "circle" || st.Shape == "ellipse" {
			fillEllipse(layer, fill)
		} else {
			fillRoundedRect(layer, st.BorderRadius*r.sx, fill)
		}
	case story.ElementImage:
		img, err := r.assets.Image(el.Src)
		if err != nil {
			return false
		}
		coverScale(layer, img)
	case story.ElementQRCode:
		img := r.qrImage(el, min(layer.Rect.Dx(), layer.Rect.Dy()))
		if img == nil {
			return false
		}
		containScale(layer, img)
	default:
		r.log.Debug("skipping element of unknown type", zap.String("id", el.ID), zap.String("type", string(el.Type)))
		return false
	}
	return true
}

func (r *Raster) paintText(layer *image.RGBA, text string, st story.Style, reveal float64, vcenter bool) {
	size := st.FontSize
	if size <= 0 {
		size = defaultFontSize
	}
	face := r.faces.face(size * r.sy)
	lines := wrapText(face, text, layer.Rect.Dx())
	if reveal < 1 {
		lines = truncateRunes(lines, int(math.Floor(reveal*float64(runeCount(lines)))))
	}
	drawText(layer, face, lines, st.TextAlign, colorOr(st.Color, defaultText), vcenter)
}

func (r *Raster) qrImage(el *story.Element, size int) image.Image {
	if el.Content == "" || size <= 0 {
		return nil
	}
	key := qrKey{
		content: el.Content,
		size:    size,
		fg:      colorOr(el.Style.Color, color.NRGBA{0, 0, 0, 255}),
		bg:      colorOr(el.Style.BackgroundColor, color.NRGBA{255, 255, 255, 255}),
	}
	if img, ok := r.qr[key]; ok {
		return img
	}

	q, err := qrcode.New(el.Content, qrcode.Medium)
	if err != nil {
		r.log.Warn("qr code not encodable", zap.String("id", el.ID), zap.Error(err))
		r.qr[key] = nil
		return nil
	}
	q.DisableBorder = true
	q.ForegroundColor = key.fg
	q.BackgroundColor = key.bg
	img := q.Image(size)
	r.qr[key] = img
	return img
}
