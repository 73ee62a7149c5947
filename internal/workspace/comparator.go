package workspace

// DefaultComparatorPosition splits the before/after view in half.
const DefaultComparatorPosition = 50.0

// Label visibility thresholds keep the labels clear of the boundary handle.
const (
	afterLabelMin  = 10.0
	beforeLabelMax = 90.0
)

// Comparator is the before/after reveal slider. The transformed image is shown
// left of Position percent; the original remains visible to the right.
type Comparator struct {
	Position float64 `json:"position"`
}

// NewComparator returns a comparator at the default split.
func NewComparator() Comparator {
	return Comparator{Position: DefaultComparatorPosition}
}

// Move sets the split position, clamped to [0,100].
func (c Comparator) Move(position float64) Comparator {
	c.Position = max(0, min(100, position))
	return c
}

// ShowAfterLabel reports whether the "After" label is visible.
func (c Comparator) ShowAfterLabel() bool {
	return c.Position > afterLabelMin
}

// ShowBeforeLabel reports whether the "Before" label is visible.
func (c Comparator) ShowBeforeLabel() bool {
	return c.Position < beforeLabelMax
}
