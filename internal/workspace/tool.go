package workspace

import (
	"encoding/json"
	"fmt"
)

// ToolKind names one of the four mutually exclusive editing modes.
type ToolKind string

const (
	ToolEnhance      ToolKind = "enhance"
	ToolAutoEnhance  ToolKind = "auto"
	ToolRemoveObject ToolKind = "remove"
	ToolAdjust       ToolKind = "adjust"
)

// ParseToolKind validates a tool name coming from a client.
func ParseToolKind(s string) (ToolKind, error) {
	switch k := ToolKind(s); k {
	case ToolEnhance, ToolAutoEnhance, ToolRemoveObject, ToolAdjust:
		return k, nil
	}
	return "", fmt.Errorf("unknown tool %q: must be enhance, auto, remove or adjust", s)
}

// Tool is the active editing mode together with the parameters only that mode
// owns. Mask strokes exist only inside RemoveObjectTool and non-neutral
// adjustments only inside AdjustTool, so leaving a mode discards them.
type Tool interface {
	Kind() ToolKind
	isTool()
}

// EnhanceTool sends the user's prompt verbatim.
type EnhanceTool struct{}

// AutoEnhanceTool lets the service choose its own enhancement.
type AutoEnhanceTool struct{}

// RemoveObjectTool erases the region painted on its mask.
type RemoveObjectTool struct {
	Mask Mask
}

// AdjustTool derives an instruction from the manual sliders.
type AdjustTool struct {
	Adjustments Adjustments
}

func (EnhanceTool) Kind() ToolKind      { return ToolEnhance }
func (AutoEnhanceTool) Kind() ToolKind  { return ToolAutoEnhance }
func (RemoveObjectTool) Kind() ToolKind { return ToolRemoveObject }
func (AdjustTool) Kind() ToolKind       { return ToolAdjust }

func (EnhanceTool) isTool()      {}
func (AutoEnhanceTool) isTool()  {}
func (RemoveObjectTool) isTool() {}
func (AdjustTool) isTool()       {}

// newTool returns kind in its initial configuration. A new RemoveObjectTool's
// mask is sized to the image's rendered size so the overlay stays aligned with
// the image it covers.
func newTool(kind ToolKind, display Size) Tool {
	switch kind {
	case ToolAutoEnhance:
		return AutoEnhanceTool{}
	case ToolRemoveObject:
		return RemoveObjectTool{Mask: Mask{}.Resize(display.Width, display.Height)}
	case ToolAdjust:
		return AdjustTool{Adjustments: NeutralAdjustments()}
	default:
		return EnhanceTool{}
	}
}

// MarshalJSON flattens the variant into {"kind": ..., <mode fields>}.
func (t RemoveObjectTool) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind ToolKind `json:"kind"`
		Mask Mask     `json:"mask"`
	}{t.Kind(), t.Mask})
}

// MarshalJSON flattens the variant into {"kind": ..., <mode fields>}.
func (t AdjustTool) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind              ToolKind    `json:"kind"`
		Adjustments       Adjustments `json:"adjustments"`
		TemperatureOffset int         `json:"temperatureOffset"`
	}{t.Kind(), t.Adjustments, t.Adjustments.TemperatureOffset()})
}

func (t EnhanceTool) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind ToolKind `json:"kind"`
	}{t.Kind()})
}

func (t AutoEnhanceTool) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind ToolKind `json:"kind"`
	}{t.Kind()})
}
