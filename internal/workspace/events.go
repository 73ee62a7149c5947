package workspace

import (
	"fmt"
	"math"
)

// Event is an input to Reduce.
type Event interface {
	isEvent()
}

// Uploaded replaces the source image and resets every transient field.
type Uploaded struct {
	Image Image
	Info  ImageInfo
}

// ToolSelected switches the active editing mode.
type ToolSelected struct{ Kind ToolKind }

// PromptChanged edits the enhance prompt.
type PromptChanged struct{ Text string }

// AdjustmentChanged moves one slider. It only applies while the adjust tool is active.
type AdjustmentChanged struct {
	Param Param
	Value int
}

// AdjustmentsReset snaps every slider back to neutral.
type AdjustmentsReset struct{}

// BrushSizeChanged sets the width used by strokes started afterwards.
type BrushSizeChanged struct{ Size int }

// ImageRendered reports the on-screen size of the displayed image.
type ImageRendered struct{ Width, Height int }

// MaskPointerDown starts a stroke on the mask surface.
type MaskPointerDown struct{ X, Y float64 }

// MaskPointerMoved extends the active stroke.
type MaskPointerMoved struct{ X, Y float64 }

// MaskPointerUp ends the active stroke. Leaving the surface ends it too.
type MaskPointerUp struct{}

// MaskCleared erases all strokes.
type MaskCleared struct{}

// MaskUndo removes the last stroke.
type MaskUndo struct{}

// Wheel zooms by a wheel delta.
type Wheel struct{ DeltaY float64 }

// ZoomedIn zooms in one step.
type ZoomedIn struct{}

// ZoomedOut zooms out one step.
type ZoomedOut struct{}

// ViewReset restores the identity transform.
type ViewReset struct{}

// PointerDown may start a pan.
type PointerDown struct {
	Button int
	X, Y   float64
}

// PointerMoved continues an active pan.
type PointerMoved struct{ X, Y float64 }

// PointerReleased ends an active pan.
type PointerReleased struct{}

// ComparatorMoved moves the before/after split.
type ComparatorMoved struct{ Position float64 }

// ApplyStarted marks a transformation request as in flight.
type ApplyStarted struct{ Generation uint64 }

// ApplySucceeded delivers the transformed image bytes.
type ApplySucceeded struct {
	Generation uint64
	Data       []byte
}

// ApplyFailed delivers a human-readable failure message.
type ApplyFailed struct {
	Generation uint64
	Message    string
}

// ApplyRejected records a precondition failure. No request was sent.
type ApplyRejected struct{ Err error }

func (Uploaded) isEvent()          {}
func (ToolSelected) isEvent()      {}
func (PromptChanged) isEvent()     {}
func (AdjustmentChanged) isEvent() {}
func (AdjustmentsReset) isEvent()  {}
func (BrushSizeChanged) isEvent()  {}
func (ImageRendered) isEvent()     {}
func (MaskPointerDown) isEvent()   {}
func (MaskPointerMoved) isEvent()  {}
func (MaskPointerUp) isEvent()     {}
func (MaskCleared) isEvent()       {}
func (MaskUndo) isEvent()          {}
func (Wheel) isEvent()             {}
func (ZoomedIn) isEvent()          {}
func (ZoomedOut) isEvent()         {}
func (ViewReset) isEvent()         {}
func (PointerDown) isEvent()       {}
func (PointerMoved) isEvent()      {}
func (PointerReleased) isEvent()   {}
func (ComparatorMoved) isEvent()   {}
func (ApplyStarted) isEvent()      {}
func (ApplySucceeded) isEvent()    {}
func (ApplyFailed) isEvent()       {}
func (ApplyRejected) isEvent()     {}

// Validate reports whether e carries values the workspace accepts. Reduce
// ignores invalid events; callers that need an error call Validate first.
func Validate(e Event) error {
	switch e := e.(type) {
	case AdjustmentChanged:
		_, err := NeutralAdjustments().With(e.Param, e.Value)
		return err
	case BrushSizeChanged:
		if e.Size < MinBrushSize || e.Size > MaxBrushSize {
			return fmt.Errorf("brush size must be between %d and %d: %w", MinBrushSize, MaxBrushSize, ErrOutOfRange)
		}
	case ToolSelected:
		_, err := ParseToolKind(string(e.Kind))
		return err
	case ImageRendered:
		if e.Width < 0 || e.Height < 0 {
			return fmt.Errorf("rendered size must not be negative: %w", ErrOutOfRange)
		}
		if int64(e.Width)*int64(e.Height) > MaxMaskPixels {
			return fmt.Errorf("rendered size %dx%d exceeds %d pixels: %w", e.Width, e.Height, MaxMaskPixels, ErrOutOfRange)
		}
	case ComparatorMoved:
		return finite(e.Position)
	case Wheel:
		return finite(e.DeltaY)
	case PointerDown:
		return finite(e.X, e.Y)
	case PointerMoved:
		return finite(e.X, e.Y)
	case MaskPointerDown:
		return finite(e.X, e.Y)
	case MaskPointerMoved:
		return finite(e.X, e.Y)
	}
	return nil
}

func finite(vs ...float64) error {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("coordinate must be a finite number: %w", ErrOutOfRange)
		}
	}
	return nil
}
