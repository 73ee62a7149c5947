package workspace

import (
	"strings"
	"unicode"
)

// Reduce returns the state that results from applying e to s. It never
// mutates s, so a sequence of events can be replayed from New() to reproduce
// any state.
func Reduce(s State, e Event) State {
	if Validate(e) != nil {
		return s
	}

	switch e := e.(type) {
	case Uploaded:
		return upload(s, e)

	case ToolSelected:
		if s.Tool.Kind() != e.Kind {
			s.Tool = newTool(e.Kind, s.Display)
		}

	case PromptChanged:
		s.Prompt = e.Text

	case AdjustmentChanged:
		if t, ok := s.Tool.(AdjustTool); ok {
			t.Adjustments, _ = t.Adjustments.With(e.Param, e.Value)
			s.Tool = t
		}

	case AdjustmentsReset:
		if _, ok := s.Tool.(AdjustTool); ok {
			s.Tool = AdjustTool{Adjustments: NeutralAdjustments()}
		}

	case BrushSizeChanged:
		s.BrushSize = e.Size

	case ImageRendered:
		s.Display = Size{Width: e.Width, Height: e.Height}
		s = withMask(s, func(m Mask) Mask { return m.Resize(e.Width, e.Height) })

	case MaskPointerDown:
		s = withMask(s, func(m Mask) Mask { return m.Begin(Point{X: e.X, Y: e.Y}, s.BrushSize) })

	case MaskPointerMoved:
		s = withMask(s, func(m Mask) Mask { return m.Extend(Point{X: e.X, Y: e.Y}) })

	case MaskPointerUp:
		s = withMask(s, Mask.End)

	case MaskCleared:
		s = withMask(s, Mask.Clear)

	case MaskUndo:
		s = withMask(s, Mask.Undo)

	case Wheel:
		s.View = s.View.Wheel(e.DeltaY)
		s.Pan = keepPan(s)

	case ZoomedIn:
		s.View = s.View.ZoomIn()

	case ZoomedOut:
		s.View = s.View.ZoomOut()
		s.Pan = keepPan(s)

	case ViewReset:
		s.View = IdentityView()
		s.Pan = nil

	case PointerDown:
		s.Pan = s.View.BeginPan(e.Button, e.X, e.Y)

	case PointerMoved:
		if s.Pan != nil && s.View.CanPan() {
			s.View = s.Pan.Move(s.View, e.X, e.Y)
		}

	case PointerReleased:
		s.Pan = nil

	case ComparatorMoved:
		if s.Result != nil {
			s.Comparator = s.Comparator.Move(e.Position)
		}

	case ApplyStarted:
		s.Result = nil
		s.Error = ""
		s.Comparator = NewComparator()
		s.Processing = true
		s.Pending = e.Generation

	case ApplySucceeded:
		if !settle(&s, e.Generation) {
			return s
		}
		s.Result = &Image{Data: e.Data, MIMEType: s.Source.MIMEType}
		s.Comparator = NewComparator()
		s.Error = ""

	case ApplyFailed:
		if !settle(&s, e.Generation) {
			return s
		}
		s.Error = e.Message

	case ApplyRejected:
		if e.Err != nil {
			s.Error = sentence(e.Err.Error())
		}
	}

	return s
}

// upload re-initialises the workspace around a new source image. The active
// tool and the user's prompt and brush size survive; everything derived from
// the previous image does not. An outstanding request keeps the workspace
// busy until it settles so that only one request is ever in flight.
func upload(prev State, e Uploaded) State {
	s := New()
	s.Generation = prev.Generation + 1
	img := e.Image
	s.Source = &img
	s.SourceInfo = e.Info
	s.Tool = newTool(prev.Tool.Kind(), Size{})
	s.Prompt = prev.Prompt
	s.BrushSize = prev.BrushSize
	s.Processing = prev.Processing
	s.Pending = prev.Pending
	return s
}

// keepPan ends a drag once the view is back at the minimum scale.
func keepPan(s State) *PanGesture {
	if !s.View.CanPan() {
		return nil
	}
	return s.Pan
}

// settle clears the processing flag for a finished request and reports whether
// the response belongs to the current image. Responses issued against an
// earlier upload are dropped.
func settle(s *State, generation uint64) bool {
	if s.Processing && s.Pending == generation {
		s.Processing = false
		s.Pending = 0
	}
	return generation == s.Generation && s.Source != nil
}

func withMask(s State, fn func(Mask) Mask) State {
	if t, ok := s.Tool.(RemoveObjectTool); ok {
		t.Mask = fn(t.Mask)
		s.Tool = t
	}
	return s
}

// sentence turns an error string into a user-facing message.
func sentence(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return msg
	}
	r := []rune(msg)
	r[0] = unicode.ToUpper(r[0])
	if !strings.HasSuffix(msg, ".") {
		r = append(r, '.')
	}
	return string(r)
}
