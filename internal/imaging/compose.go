package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/fpang/gemini-studio/internal/workspace"
	"golang.org/x/image/draw"
)

// Compose renders the before/after comparison at the given divider position
// (0-100, percent of the width from the left). The result occupies the region
// left of the divider and the source the region right of it. The result is
// scaled to the source's size when the two differ.
func Compose(source, result image.Image, position float64) *image.RGBA {
	sb := source.Bounds()
	w, h := sb.Dx(), sb.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Copy(dst, image.Point{}, source, sb, draw.Src, nil)

	if math.IsNaN(position) {
		position = workspace.DefaultComparatorPosition
	}
	position = math.Max(0, math.Min(100, position))
	split := int(math.Round(float64(w) * position / 100))
	if split == 0 {
		return dst
	}

	after := result
	if rb := result.Bounds(); rb.Dx() != w || rb.Dy() != h {
		after = Resize(result, w, h)
	}
	ab := after.Bounds()
	draw.Copy(dst, image.Point{}, after, image.Rect(ab.Min.X, ab.Min.Y, ab.Min.X+split, ab.Max.Y), draw.Src, nil)
	return dst
}

// ComposeBytes decodes both images, composes them at position, downscales to
// maxDimension and returns a PNG.
func ComposeBytes(source, result []byte, position float64, maxDimension int) ([]byte, error) {
	before, err := Decode(source)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	after, err := Decode(result)
	if err != nil {
		return nil, fmt.Errorf("result: %w", err)
	}
	return EncodePNG(Thumbnail(Compose(before, after, position), maxDimension))
}
