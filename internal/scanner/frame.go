package scanner

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"sync"

	// decoders for uploaded frames
	_ "image/jpeg"
	_ "image/png"
)

// Frame is one camera image plus the clockwise rotation that makes it upright
type Frame struct {
	Image           image.Image
	RotationDegrees int
}

// DefaultMaxFramePixels bounds the decoded size of a frame (4096x4096)
const DefaultMaxFramePixels = 4096 * 4096

// ErrFrameTooLarge is returned for frames whose declared dimensions exceed the pixel limit
var ErrFrameTooLarge = errors.New("scanner: frame too large")

// DecodeFrame reads a PNG or JPEG frame. The header is checked against
// maxPixels before any pixel data is decoded; maxPixels <= 0 uses
// DefaultMaxFramePixels.
func DecodeFrame(data []byte, rotationDegrees int, maxPixels int) (Frame, error) {
	rotation, err := normalizeRotation(rotationDegrees)
	if err != nil {
		return Frame{}, err
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxFramePixels
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return Frame{}, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrFrameTooLarge, cfg.Width, cfg.Height, maxPixels)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	return Frame{Image: img, RotationDegrees: rotation}, nil
}

func normalizeRotation(degrees int) (int, error) {
	d := ((degrees % 360) + 360) % 360
	if d%90 != 0 {
		return 0, fmt.Errorf("rotation must be a multiple of 90 degrees, got %d", degrees)
	}
	return d, nil
}

// Upright returns the frame rotated clockwise by RotationDegrees
func (f Frame) Upright() image.Image {
	rotation, err := normalizeRotation(f.RotationDegrees)
	if err != nil || rotation == 0 {
		return f.Image
	}

	src := f.Image
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	var dst *image.RGBA
	if rotation == 180 {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
	}
	db := dst.Bounds()
	for dy := 0; dy < db.Dy(); dy++ {
		for dx := 0; dx < db.Dx(); dx++ {
			var sx, sy int
			switch rotation {
			case 90:
				sx, sy = dy, h-1-dx
			case 180:
				sx, sy = w-1-dx, h-1-dy
			case 270:
				sx, sy = w-1-dy, dx
			}
			dst.Set(dx, dy, src.At(b.Min.X+sx, b.Min.Y+sy))
		}
	}
	return dst
}

// frameSlot holds at most one pending frame; a newer frame replaces an unanalysed one
type frameSlot struct {
	mu    sync.Mutex
	frame *Frame
	ready chan struct{}
}

func newFrameSlot() *frameSlot {
	return &frameSlot{ready: make(chan struct{}, 1)}
}

// put stores f and reports whether a pending frame was dropped
func (s *frameSlot) put(f Frame) bool {
	s.mu.Lock()
	replaced := s.frame != nil
	s.frame = &f
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
	return replaced
}

func (s *frameSlot) take() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return Frame{}, false
	}
	f := *s.frame
	s.frame = nil
	return f, true
}

// clear drops any pending frame
func (s *frameSlot) clear() {
	s.mu.Lock()
	s.frame = nil
	s.mu.Unlock()
}
