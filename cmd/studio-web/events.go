package main

import (
	"fmt"

	"github.com/fpang/gemini-studio/internal/workspace"
)

// eventRequest is the JSON form of a workspace event. Type selects the event;
// only the fields that event uses are read.
type eventRequest struct {
	Type     string  `json:"type"`
	Tool     string  `json:"tool,omitempty"`
	Text     string  `json:"text,omitempty"`
	Param    string  `json:"param,omitempty"`
	Value    int     `json:"value,omitempty"`
	Size     int     `json:"size,omitempty"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	DeltaY   float64 `json:"deltaY,omitempty"`
	Button   int     `json:"button,omitempty"`
	Position float64 `json:"position,omitempty"`
}

// Event type names accepted on the wire.
const (
	evTool        = "tool"
	evPrompt      = "prompt"
	evAdjust      = "adjust"
	evAdjustReset = "adjustReset"
	evBrushSize   = "brushSize"
	evRendered    = "rendered"
	evMaskDown    = "maskDown"
	evMaskMove    = "maskMove"
	evMaskUp      = "maskUp"
	evMaskClear   = "maskClear"
	evMaskUndo    = "maskUndo"
	evWheel       = "wheel"
	evZoomIn      = "zoomIn"
	evZoomOut     = "zoomOut"
	evViewReset   = "viewReset"
	evPanStart    = "panStart"
	evPanMove     = "panMove"
	evPanEnd      = "panEnd"
	evComparator  = "comparator"
)

func (r eventRequest) event() (workspace.Event, error) {
	switch r.Type {
	case evTool:
		kind, err := workspace.ParseToolKind(r.Tool)
		if err != nil {
			return nil, err
		}
		return workspace.ToolSelected{Kind: kind}, nil
	case evPrompt:
		return workspace.PromptChanged{Text: r.Text}, nil
	case evAdjust:
		return workspace.AdjustmentChanged{Param: workspace.Param(r.Param), Value: r.Value}, nil
	case evAdjustReset:
		return workspace.AdjustmentsReset{}, nil
	case evBrushSize:
		return workspace.BrushSizeChanged{Size: r.Size}, nil
	case evRendered:
		return workspace.ImageRendered{Width: r.Width, Height: r.Height}, nil
	case evMaskDown:
		return workspace.MaskPointerDown{X: r.X, Y: r.Y}, nil
	case evMaskMove:
		return workspace.MaskPointerMoved{X: r.X, Y: r.Y}, nil
	case evMaskUp:
		return workspace.MaskPointerUp{}, nil
	case evMaskClear:
		return workspace.MaskCleared{}, nil
	case evMaskUndo:
		return workspace.MaskUndo{}, nil
	case evWheel:
		return workspace.Wheel{DeltaY: r.DeltaY}, nil
	case evZoomIn:
		return workspace.ZoomedIn{}, nil
	case evZoomOut:
		return workspace.ZoomedOut{}, nil
	case evViewReset:
		return workspace.ViewReset{}, nil
	case evPanStart:
		return workspace.PointerDown{Button: r.Button, X: r.X, Y: r.Y}, nil
	case evPanMove:
		return workspace.PointerMoved{X: r.X, Y: r.Y}, nil
	case evPanEnd:
		return workspace.PointerReleased{}, nil
	case evComparator:
		return workspace.ComparatorMoved{Position: r.Position}, nil
	case "":
		return nil, fmt.Errorf("event type is required")
	default:
		return nil, fmt.Errorf("unknown event type %q", r.Type)
	}
}
