package barcode

import (
	"image"
	"image/color"
)

// BitMatrix is a grid of modules; true is a dark module
type BitMatrix struct {
	width  int
	height int
	bits   []bool
}

func NewBitMatrix(width, height int) *BitMatrix {
	return &BitMatrix{width: width, height: height, bits: make([]bool, width*height)}
}

func (m *BitMatrix) Width() int  { return m.width }
func (m *BitMatrix) Height() int { return m.height }

func (m *BitMatrix) Get(x, y int) bool {
	return m.bits[y*m.width+x]
}

func (m *BitMatrix) Set(x, y int, v bool) {
	m.bits[y*m.width+x] = v
}

// matrixFromRows copies a row-major [][]bool, as returned by go-qrcode's Bitmap
func matrixFromRows(rows [][]bool) *BitMatrix {
	if len(rows) == 0 {
		return NewBitMatrix(0, 0)
	}
	m := NewBitMatrix(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, v := range row {
			if x < m.width {
				m.Set(x, y, v)
			}
		}
	}
	return m
}

// matrixFromImage reads an encoder image drawn at one pixel per module.
// With singleRow only the first row is read, which is all a linear symbol carries.
func matrixFromImage(img image.Image, singleRow bool) *BitMatrix {
	b := img.Bounds()
	h := b.Dy()
	if singleRow && h > 1 {
		h = 1
	}
	m := NewBitMatrix(b.Dx(), h)
	for y := 0; y < h; y++ {
		for x := 0; x < b.Dx(); x++ {
			m.Set(x, y, isDark(img.At(b.Min.X+x, b.Min.Y+y)))
		}
	}
	return m
}

func isDark(c color.Color) bool {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return false
	}
	lum := (299*r + 587*g + 114*b) / 1000
	return lum < 0x8000
}

type renderOptions struct {
	width  int
	height int
	margin int
	fg     color.Color
	bg     color.Color
}

// render scales the matrix by the largest integer module size that fits the
// requested area (grown to the native size plus margin when smaller) and centres it.
func (m *BitMatrix) render(o renderOptions) *image.Paletted {
	fullW := m.width + 2*o.margin
	fullH := m.height + 2*o.margin
	outW := max(o.width, fullW)
	outH := max(o.height, fullH)
	multiple := max(min(outW/max(fullW, 1), outH/max(fullH, 1)), 1)
	left := (outW - m.width*multiple) / 2
	top := (outH - m.height*multiple) / 2

	img := newCanvas(outW, outH, o)
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if m.Get(x, y) {
				fillRect(img, left+x*multiple, top+y*multiple, multiple, multiple)
			}
		}
	}
	return img
}

// renderLinear stretches the first row over the full height; only the width is scaled.
func (m *BitMatrix) renderLinear(o renderOptions) *image.Paletted {
	fullW := m.width + 2*o.margin
	outW := max(o.width, fullW)
	outH := max(o.height, 1)
	multiple := max(outW/max(fullW, 1), 1)
	left := (outW - m.width*multiple) / 2

	img := newCanvas(outW, outH, o)
	for x := 0; x < m.width; x++ {
		if m.Get(x, 0) {
			fillRect(img, left+x*multiple, 0, multiple, outH)
		}
	}
	return img
}

// newCanvas returns a two-colour image filled with the background (palette index 0)
func newCanvas(w, h int, o renderOptions) *image.Paletted {
	return image.NewPaletted(image.Rect(0, 0, w, h), color.Palette{o.bg, o.fg})
}

func fillRect(img *image.Paletted, x0, y0, w, h int) {
	for y := y0; y < y0+h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := x0; x < x0+w; x++ {
			row[x] = 1
		}
	}
}
