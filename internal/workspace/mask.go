package workspace

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"slices"
)

// Brush size limits for the object-removal mask.
const (
	MinBrushSize     = 5
	MaxBrushSize     = 100
	DefaultBrushSize = 30
)

// MaxMaskPixels bounds the mask surface; a larger rendered size is rejected.
const MaxMaskPixels = 100_000_000

// Point is a pointer position relative to the mask surface's top-left corner.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one freehand line drawn with a round brush.
type Stroke struct {
	Width  float64 `json:"width"`
	Points []Point `json:"points"`
}

// Mask is the drawable overlay used by the object-removal tool. Strokes are kept
// as records rather than a baked raster; Render produces the raster on demand.
//
// Mask values are immutable: every method returns a new Mask and never writes
// into slices shared with the receiver, so earlier states stay valid.
type Mask struct {
	Width   int      `json:"width"`
	Height  int      `json:"height"`
	Strokes []Stroke `json:"strokes"`
	Drawing bool     `json:"drawing"`
}

// Ready reports whether the surface has been sized to the rendered image.
func (m Mask) Ready() bool {
	return m.Width > 0 && m.Height > 0
}

// Resize matches the surface to the image's on-screen size. Resizing to a
// different size discards all strokes, as resizing a canvas does.
func (m Mask) Resize(width, height int) Mask {
	if width == m.Width && height == m.Height {
		return m
	}
	return Mask{Width: max(width, 0), Height: max(height, 0)}
}

// Begin starts a new stroke at p. It is ignored until the surface is sized.
func (m Mask) Begin(p Point, width int) Mask {
	if !m.Ready() {
		return m
	}
	strokes := slices.Clip(m.Strokes)
	m.Strokes = append(strokes, Stroke{Width: float64(width), Points: []Point{p}})
	m.Drawing = true
	return m
}

// Extend draws a segment from the previous point of the active stroke to p.
func (m Mask) Extend(p Point) Mask {
	if !m.Drawing || len(m.Strokes) == 0 {
		return m
	}
	strokes := slices.Clone(m.Strokes)
	last := &strokes[len(strokes)-1]
	last.Points = append(slices.Clip(last.Points), p)
	m.Strokes = strokes
	return m
}

// End finishes the active stroke, if any.
func (m Mask) End() Mask {
	m.Drawing = false
	return m
}

// Clear removes every stroke but keeps the surface size.
func (m Mask) Clear() Mask {
	return Mask{Width: m.Width, Height: m.Height}
}

// Undo removes the most recent stroke.
func (m Mask) Undo() Mask {
	if len(m.Strokes) == 0 {
		return m
	}
	m.Strokes = slices.Clip(m.Strokes[:len(m.Strokes)-1])
	m.Drawing = false
	return m
}

// Empty reports whether nothing has been painted. A stroke with a single
// point paints nothing.
func (m Mask) Empty() bool {
	for _, s := range m.Strokes {
		if len(s.Points) > 1 {
			return false
		}
	}
	return true
}

// Render rasterises the strokes onto an opaque black surface of the mask's
// size. Painted pixels are white and mark the region to remove.
func (m Mask) Render() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for _, s := range m.Strokes {
		for i := 1; i < len(s.Points); i++ {
			paintSegment(img, s.Points[i-1], s.Points[i], s.Width/2)
		}
	}
	return img
}

// PNG encodes the rendered mask.
func (m Mask) PNG() ([]byte, error) {
	if !m.Ready() {
		return nil, ErrNoMask
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, m.Render()); err != nil {
		return nil, fmt.Errorf("failed to encode mask: %w", err)
	}
	return buf.Bytes(), nil
}

// paintSegment fills every pixel whose centre lies within radius of the
// segment a-b. That is a round-capped line, and consecutive segments sharing
// an endpoint give round joins.
func paintSegment(img *image.Gray, a, b Point, radius float64) {
	bounds := image.Rect(
		int(math.Floor(min(a.X, b.X)-radius)),
		int(math.Floor(min(a.Y, b.Y)-radius)),
		int(math.Ceil(max(a.X, b.X)+radius))+1,
		int(math.Ceil(max(a.Y, b.Y)+radius))+1,
	).Intersect(img.Bounds())

	white := color.Gray{Y: 255}
	r2 := radius * radius
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if segmentDistSq(Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}, a, b) <= r2 {
				img.SetGray(x, y, white)
			}
		}
	}
}

func segmentDistSq(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	t := 0.0
	if lenSq > 0 {
		t = ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
		t = max(0, min(1, t))
	}
	cx, cy := a.X+t*dx-p.X, a.Y+t*dy-p.Y
	return cx*cx + cy*cy
}
