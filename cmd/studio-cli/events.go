package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fpang/gemini-studio/internal/workspace"
)

func enhanceEvents(prompt string) []workspace.Event {
	return []workspace.Event{
		workspace.ToolSelected{Kind: workspace.ToolEnhance},
		workspace.PromptChanged{Text: prompt},
	}
}

func autoEvents() []workspace.Event {
	return []workspace.Event{workspace.ToolSelected{Kind: workspace.ToolAutoEnhance}}
}

// adjustEvents moves each slider in values, in instruction order.
func adjustEvents(values map[workspace.Param]int) []workspace.Event {
	events := []workspace.Event{workspace.ToolSelected{Kind: workspace.ToolAdjust}}
	for _, p := range workspace.Params {
		if v, ok := values[p]; ok {
			events = append(events, workspace.AdjustmentChanged{Param: p, Value: v})
		}
	}
	return events
}

// removeEvents sizes the mask surface to width x height and draws every stroke
// as a pointer down, moves and up. A stroke with its own width changes the
// brush for that stroke and the ones after it.
func removeEvents(width, height int, strokes []workspace.Stroke) []workspace.Event {
	events := []workspace.Event{
		workspace.ImageRendered{Width: width, Height: height},
		workspace.ToolSelected{Kind: workspace.ToolRemoveObject},
	}
	for _, s := range strokes {
		if len(s.Points) == 0 {
			continue
		}
		if s.Width > 0 {
			events = append(events, workspace.BrushSizeChanged{Size: int(s.Width)})
		}
		first := s.Points[0]
		events = append(events, workspace.MaskPointerDown{X: first.X, Y: first.Y})
		for _, p := range s.Points[1:] {
			events = append(events, workspace.MaskPointerMoved{X: p.X, Y: p.Y})
		}
		events = append(events, workspace.MaskPointerUp{})
	}
	return events
}

// parseStroke reads "x1,y1 x2,y2 ..." into points.
func parseStroke(s string) ([]workspace.Point, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return nil, fmt.Errorf("stroke %q needs at least two points", s)
	}
	points := make([]workspace.Point, 0, len(fields))
	for _, f := range fields {
		xs, ys, ok := strings.Cut(f, ",")
		if !ok {
			return nil, fmt.Errorf("point %q must be x,y", f)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", f, err)
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", f, err)
		}
		points = append(points, workspace.Point{X: x, Y: y})
	}
	return points, nil
}

// loadStrokeFile decodes a saved mask: {"width", "height", "strokes": [{"width", "points": [{"x","y"}]}]}.
func loadStrokeFile(r io.Reader) (workspace.Mask, error) {
	var m workspace.Mask
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return workspace.Mask{}, fmt.Errorf("invalid stroke file: %w", err)
	}
	if !m.Ready() {
		return workspace.Mask{}, fmt.Errorf("stroke file must set a positive width and height")
	}
	if err := workspace.Validate(workspace.ImageRendered{Width: m.Width, Height: m.Height}); err != nil {
		return workspace.Mask{}, fmt.Errorf("stroke file: %w", err)
	}
	return m, nil
}

// parseSize reads "WxH".
func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q must be WIDTHxHEIGHT", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("size %q: invalid width", s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("size %q: invalid height", s)
	}
	if err := workspace.Validate(workspace.ImageRendered{Width: w, Height: h}); err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	return w, h, nil
}
