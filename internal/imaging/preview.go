package imaging

import (
	"image"
	"image/color"
	"math"

	imgproc "github.com/disintegration/imaging"
	"github.com/fpang/gemini-studio/internal/workspace"
)

// Preview renders the live adjustment preview of img: brightness, then
// contrast, then saturation, with the CSS filter-effect definitions and
// clamping after each step. The other sliders only shape the instruction sent
// to the model and have no local preview.
func Preview(img image.Image, adj workspace.Adjustments) *image.NRGBA {
	return imgproc.AdjustFunc(img, newFilter(adj).apply)
}

// PreviewBytes decodes data, downscales it to maxDimension and returns the
// adjusted preview as JPEG.
func PreviewBytes(data []byte, adj workspace.Adjustments, maxDimension int) ([]byte, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return EncodeJPEG(Preview(Thumbnail(img, maxDimension), adj))
}

// filter holds the three factors; a factor of exactly 1 skips its stage.
type filter struct {
	brightness, contrast, saturate float64
}

func newFilter(adj workspace.Adjustments) filter {
	return filter{
		brightness: float64(adj.Brightness) / 100,
		contrast:   float64(adj.Contrast) / 100,
		saturate:   float64(adj.Saturation) / 100,
	}
}

func (f filter) apply(c color.NRGBA) color.NRGBA {
	if f.brightness == 1 && f.contrast == 1 && f.saturate == 1 {
		return c
	}
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	bl := float64(c.B) / 255

	// brightness: linear transfer, slope b
	if b := f.brightness; b != 1 {
		r, g, bl = clamp01(r*b), clamp01(g*b), clamp01(bl*b)
	}

	// contrast: slope k, intercept 0.5-0.5k
	if k := f.contrast; k != 1 {
		icpt := 0.5 - 0.5*k
		r, g, bl = clamp01(r*k+icpt), clamp01(g*k+icpt), clamp01(bl*k+icpt)
	}

	// saturate: luminance-preserving matrix
	if s := f.saturate; s != 1 {
		r, g, bl = (0.213+0.787*s)*r+(0.715-0.715*s)*g+(0.072-0.072*s)*bl,
			(0.213-0.213*s)*r+(0.715+0.285*s)*g+(0.072-0.072*s)*bl,
			(0.213-0.213*s)*r+(0.715-0.715*s)*g+(0.072+0.928*s)*bl
	}

	return color.NRGBA{R: to8(r), G: to8(g), B: to8(bl), A: c.A}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func to8(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}
