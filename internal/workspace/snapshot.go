package workspace

// Snapshot is the client-facing view of a State. Image bytes are served
// separately; the snapshot only says which images exist.
type Snapshot struct {
	Generation uint64          `json:"generation"`
	HasSource  bool            `json:"hasSource"`
	Source     *ImageInfo      `json:"source,omitempty"`
	SourceMIME string          `json:"sourceMimeType,omitempty"`
	HasResult  bool            `json:"hasResult"`
	ResultMIME string          `json:"resultMimeType,omitempty"`
	Tool       Tool            `json:"tool"`
	Prompt     string          `json:"prompt"`
	BrushSize  int             `json:"brushSize"`
	Display    Size            `json:"display"`
	View       ViewTransform   `json:"view"`
	Panning    bool            `json:"panning"`
	Comparator *ComparatorView `json:"comparator,omitempty"`
	Processing bool            `json:"processing"`
	Error      string          `json:"error,omitempty"`
	CanApply   bool            `json:"canApply"`
	ApplyLabel string          `json:"applyLabel"`
	Hint       string          `json:"hint,omitempty"`
}

// ComparatorView is the comparator plus its derived label visibility.
type ComparatorView struct {
	Position   float64 `json:"position"`
	ShowAfter  bool    `json:"showAfter"`
	ShowBefore bool    `json:"showBefore"`
}

// Snapshot renders s for clients.
func (s State) Snapshot() Snapshot {
	snap := Snapshot{
		Generation: s.Generation,
		HasSource:  s.Source != nil,
		HasResult:  s.Result != nil,
		Tool:       s.Tool,
		Prompt:     s.Prompt,
		BrushSize:  s.BrushSize,
		Display:    s.Display,
		View:       s.View,
		Panning:    s.Pan != nil,
		Processing: s.Processing,
		Error:      s.Error,
		CanApply:   s.CanApply(),
		ApplyLabel: s.ApplyLabel(),
	}
	if s.Source != nil {
		info := s.SourceInfo
		snap.Source = &info
		snap.SourceMIME = s.Source.MIMEType
	}
	if s.Result != nil {
		snap.ResultMIME = s.Result.MIMEType
	}
	if s.ShowComparator() {
		snap.Comparator = &ComparatorView{
			Position:   s.Comparator.Position,
			ShowAfter:  s.Comparator.ShowAfterLabel(),
			ShowBefore: s.Comparator.ShowBeforeLabel(),
		}
	}
	if s.Tool.Kind() == ToolRemoveObject && s.Source != nil && s.Result == nil {
		snap.Hint = "Draw mask to remove object"
	}
	return snap
}
