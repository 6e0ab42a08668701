package surface

import (
	"image"
	"image/color"
	"math"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const defaultFontSize = 32.0

// faceCache hands out Go Regular faces by pixel size. Faces are not safe for
// concurrent use, so the cache belongs to one Raster.
type faceCache struct {
	once  sync.Once
	font  *opentype.Font
	faces map[int]font.Face
}

func (c *faceCache) face(px float64) font.Face {
	c.once.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err == nil {
			c.font = f
		}
		c.faces = make(map[int]font.Face)
	})
	if c.font == nil {
		return basicfont.Face7x13
	}

	size := max(1, int(math.Round(px)))
	if f, ok := c.faces[size]; ok {
		return f
	}
	f, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	c.faces[size] = f
	return f
}

func (c *faceCache) close() {
	for _, f := range c.faces {
		f.Close()
	}
	c.faces = make(map[int]font.Face)
}

// wrapText breaks text into lines no wider than maxWidth, honoring explicit
// newlines. A single word wider than maxWidth gets a line of its own.
func wrapText(face font.Face, text string, maxWidth int) []string {
	limit := fixed.I(max(1, maxWidth))
	space := font.MeasureString(face, " ")

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		width := font.MeasureString(face, line)
		for _, w := range words[1:] {
			ww := font.MeasureString(face, w)
			if width+space+ww > limit {
				lines = append(lines, line)
				line, width = w, ww
				continue
			}
			line += " " + w
			width += space + ww
		}
		lines = append(lines, line)
	}
	return lines
}

// truncateRunes keeps the first n runes of the laid-out lines, so a
// typewriter reveal never reflows text as it grows.
func truncateRunes(lines []string, n int) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if n <= 0 {
			break
		}
		r := []rune(l)
		if len(r) > n {
			out = append(out, string(r[:n]))
			break
		}
		out = append(out, l)
		n -= len(r)
	}
	return out
}

func runeCount(lines []string) int {
	n := 0
	for _, l := range lines {
		n += len([]rune(l))
	}
	return n
}

// drawText lays lines out inside dst's bounds, top-aligned, with the given
// horizontal alignment (left, center, right).
func drawText(dst *image.RGBA, face font.Face, lines []string, align string, c color.Color, vcenter bool) {
	b := dst.Bounds()
	m := face.Metrics()
	lineHeight := m.Height.Ceil()
	if lineHeight <= 0 {
		lineHeight = (m.Ascent + m.Descent).Ceil()
	}

	y := b.Min.Y + m.Ascent.Ceil()
	if vcenter {
		block := lineHeight * len(lines)
		y = b.Min.Y + (b.Dy()-block)/2 + m.Ascent.Ceil()
	}

	d := &font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face}
	for _, line := range lines {
		w := d.MeasureString(line).Ceil()
		x := b.Min.X
		switch align {
		case "center":
			x += (b.Dx() - w) / 2
		case "right":
			x += b.Dx() - w
		}
		d.Dot = fixed.P(x, y)
		d.DrawString(line)
		y += lineHeight
	}
}
