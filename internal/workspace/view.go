package workspace

// View transform limits and steps.
const (
	MinScale        = 1.0
	MaxScale        = 10.0
	ZoomSensitivity = 0.001
	ZoomStep        = 1.2
)

// PrimaryButton is the pointer button that starts a pan.
const PrimaryButton = 0

// ViewTransform is the display-only zoom and pan applied to the image. It never
// affects the bytes sent to the transformation service.
type ViewTransform struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"x"`
	OffsetY float64 `json:"y"`
}

// IdentityView is the unzoomed, unpanned transform.
func IdentityView() ViewTransform {
	return ViewTransform{Scale: MinScale}
}

func clampScale(s float64) float64 {
	return max(MinScale, min(MaxScale, s))
}

// Wheel zooms proportionally to the current scale so that linear wheel input
// feels exponential. Negative deltaY zooms in.
func (v ViewTransform) Wheel(deltaY float64) ViewTransform {
	delta := -deltaY * ZoomSensitivity
	v.Scale = clampScale(v.Scale + delta*v.Scale)
	return v
}

// ZoomIn multiplies the scale by ZoomStep.
func (v ViewTransform) ZoomIn() ViewTransform {
	v.Scale = clampScale(v.Scale * ZoomStep)
	return v
}

// ZoomOut divides the scale by ZoomStep.
func (v ViewTransform) ZoomOut() ViewTransform {
	v.Scale = clampScale(v.Scale / ZoomStep)
	return v
}

// CanPan reports whether the image is zoomed in far enough to be dragged.
func (v ViewTransform) CanPan() bool {
	return v.Scale > MinScale
}

// PanGesture records where a drag started and the offset at that moment.
type PanGesture struct {
	StartX   float64 `json:"startX"`
	StartY   float64 `json:"startY"`
	InitialX float64 `json:"initialX"`
	InitialY float64 `json:"initialY"`
}

// BeginPan starts a drag at the pointer position. It returns nil when the
// button is not the primary one or the view is not zoomed in.
func (v ViewTransform) BeginPan(button int, x, y float64) *PanGesture {
	if button != PrimaryButton || !v.CanPan() {
		return nil
	}
	return &PanGesture{StartX: x, StartY: y, InitialX: v.OffsetX, InitialY: v.OffsetY}
}

// Move sets the offset to the gesture's initial offset plus the pointer's
// displacement from the start position.
func (g PanGesture) Move(v ViewTransform, x, y float64) ViewTransform {
	v.OffsetX = g.InitialX + (x - g.StartX)
	v.OffsetY = g.InitialY + (y - g.StartY)
	return v
}
