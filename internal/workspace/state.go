// Package workspace implements the image-editing workspace: view transform,
// tool state, mask surface, before/after comparator and the apply lifecycle.
//
// All transitions go through Reduce, a pure function of (State, Event). The
// Controller serialises events for one workspace and runs the asynchronous
// transformation call between the ApplyStarted and ApplySucceeded/ApplyFailed
// events.
package workspace

// DefaultPrompt is the enhance prompt a fresh workspace starts with.
const DefaultPrompt = "Make this image more vibrant and cinematic."

// Image is an opaque image buffer with its declared MIME type.
type Image struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mimeType"`
}

// ImageInfo describes an uploaded image. It is informational only.
type ImageInfo struct {
	Name     string            `json:"name,omitempty"`
	Width    int               `json:"width"`
	Height   int               `json:"height"`
	Size     int               `json:"size"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Size is an on-screen pixel size.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// State is the whole workspace. It is replaced wholesale on upload and
// otherwise changed only by Reduce.
type State struct {
	// Generation increases with every upload. Apply requests carry the
	// generation they were issued against.
	Generation uint64

	Source     *Image
	SourceInfo ImageInfo
	Result     *Image

	Tool      Tool
	Prompt    string
	BrushSize int

	// Display is the rendered size of the source image; the mask surface follows it.
	Display Size

	View ViewTransform
	Pan  *PanGesture

	Comparator Comparator

	Processing bool
	// Pending is the generation of the in-flight request while Processing.
	Pending uint64
	Error   string
}

// New returns an empty workspace as it is when first mounted.
func New() State {
	return State{
		Tool:       EnhanceTool{},
		Prompt:     DefaultPrompt,
		BrushSize:  DefaultBrushSize,
		View:       IdentityView(),
		Comparator: NewComparator(),
	}
}

// HasResult reports whether a transformed image is available.
func (s State) HasResult() bool {
	return s.Result != nil
}

// CanApply reports whether the apply action is enabled: an image is loaded
// and no request is in flight. Mode-specific checks happen in PrepareApply.
func (s State) CanApply() bool {
	return s.Source != nil && !s.Processing
}

// ShowComparator reports whether the before/after slider is visible.
func (s State) ShowComparator() bool {
	return s.Result != nil && !s.Processing
}

// Mask returns the mask surface when the object-removal tool is active.
func (s State) Mask() (Mask, bool) {
	if t, ok := s.Tool.(RemoveObjectTool); ok {
		return t.Mask, true
	}
	return Mask{}, false
}

// Adjustments returns the slider values, which are neutral unless the adjust tool is active.
func (s State) Adjustments() Adjustments {
	if t, ok := s.Tool.(AdjustTool); ok {
		return t.Adjustments
	}
	return NeutralAdjustments()
}

// ApplyLabel is the caption of the apply button.
func (s State) ApplyLabel() string {
	kind := s.Tool.Kind()
	if s.Processing {
		switch kind {
		case ToolRemoveObject:
			return "Removing..."
		case ToolAdjust:
			return "Applying..."
		default:
			return "Enhancing..."
		}
	}
	switch kind {
	case ToolAutoEnhance:
		return "Auto Enhance"
	case ToolRemoveObject:
		return "Remove Object"
	case ToolAdjust:
		return "Apply Adjustments"
	default:
		return "Enhance"
	}
}
