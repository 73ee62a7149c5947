package workspace

import (
	"bytes"
	"errors"
	"image/png"
	"testing"
)

func drawLine(m Mask, width int, from, to Point) Mask {
	m = m.Begin(from, width)
	m = m.Extend(Point{X: (from.X + to.X) / 2, Y: (from.Y + to.Y) / 2})
	m = m.Extend(to)
	return m.End()
}

func TestMaskIgnoresDrawingUntilSized(t *testing.T) {
	m := Mask{}.Begin(Point{X: 1, Y: 1}, 10).Extend(Point{X: 5, Y: 5})
	if len(m.Strokes) != 0 {
		t.Errorf("unsized mask recorded %d strokes", len(m.Strokes))
	}
	if _, err := m.PNG(); !errors.Is(err, ErrNoMask) {
		t.Errorf("PNG() on unsized mask error = %v, want ErrNoMask", err)
	}
}

func TestMaskStrokesAccumulate(t *testing.T) {
	m := Mask{}.Resize(100, 80)
	m = drawLine(m, 10, Point{X: 10, Y: 10}, Point{X: 50, Y: 10})
	m = drawLine(m, 20, Point{X: 10, Y: 60}, Point{X: 90, Y: 60})

	if len(m.Strokes) != 2 {
		t.Fatalf("expected 2 strokes, got %d", len(m.Strokes))
	}
	if m.Strokes[0].Width != 10 || m.Strokes[1].Width != 20 {
		t.Errorf("stroke widths = %v, %v; want 10, 20", m.Strokes[0].Width, m.Strokes[1].Width)
	}
	if len(m.Strokes[0].Points) != 3 {
		t.Errorf("first stroke has %d points, want 3", len(m.Strokes[0].Points))
	}
	if m.Drawing {
		t.Error("mask still drawing after End")
	}
}

func TestMaskMoveWithoutStrokeIsIgnored(t *testing.T) {
	m := Mask{}.Resize(50, 50).Extend(Point{X: 10, Y: 10})
	if len(m.Strokes) != 0 {
		t.Errorf("move without pointer down recorded strokes: %v", m.Strokes)
	}
}

func TestMaskIsImmutable(t *testing.T) {
	base := Mask{}.Resize(50, 50).Begin(Point{X: 1, Y: 1}, 10)
	a := base.Extend(Point{X: 10, Y: 10})
	b := base.Extend(Point{X: 40, Y: 40})

	if len(base.Strokes[0].Points) != 1 {
		t.Errorf("base mutated: %v", base.Strokes[0].Points)
	}
	if a.Strokes[0].Points[1] != (Point{X: 10, Y: 10}) {
		t.Errorf("branch a = %v", a.Strokes[0].Points)
	}
	if b.Strokes[0].Points[1] != (Point{X: 40, Y: 40}) {
		t.Errorf("branch b = %v", b.Strokes[0].Points)
	}
}

func TestMaskUndoAndClear(t *testing.T) {
	m := Mask{}.Resize(100, 100)
	m = drawLine(m, 10, Point{X: 10, Y: 10}, Point{X: 50, Y: 10})
	m = drawLine(m, 10, Point{X: 10, Y: 60}, Point{X: 50, Y: 60})

	undone := m.Undo()
	if len(undone.Strokes) != 1 || undone.Strokes[0].Points[0] != (Point{X: 10, Y: 10}) {
		t.Errorf("Undo removed the wrong stroke: %v", undone.Strokes)
	}

	cleared := m.Clear()
	if len(cleared.Strokes) != 0 {
		t.Errorf("Clear left %d strokes", len(cleared.Strokes))
	}
	if cleared.Width != 100 || cleared.Height != 100 {
		t.Errorf("Clear changed size to %dx%d", cleared.Width, cleared.Height)
	}
}

func TestMaskResizeClearsStrokes(t *testing.T) {
	m := drawLine(Mask{}.Resize(100, 100), 10, Point{X: 10, Y: 10}, Point{X: 50, Y: 10})

	same := m.Resize(100, 100)
	if len(same.Strokes) != 1 {
		t.Error("resizing to the same size should keep strokes")
	}
	resized := m.Resize(200, 150)
	if len(resized.Strokes) != 0 {
		t.Error("resizing to a new size should clear strokes")
	}
}

func TestMaskRender(t *testing.T) {
	m := drawLine(Mask{}.Resize(100, 60), 10, Point{X: 20, Y: 30}, Point{X: 80, Y: 30})
	img := m.Render()

	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 60 {
		t.Fatalf("render size = %dx%d, want 100x60", b.Dx(), b.Dy())
	}

	tests := []struct {
		name  string
		x, y  int
		white bool
	}{
		{"on the line", 50, 30, true},
		{"within radius", 50, 33, true},
		{"round cap", 16, 30, true},
		{"beyond cap", 10, 30, false},
		{"outside radius", 50, 40, false},
		{"corner", 0, 0, false},
	}
	for _, tt := range tests {
		got := img.GrayAt(tt.x, tt.y).Y == 255
		if got != tt.white {
			t.Errorf("%s: pixel (%d,%d) white = %v, want %v", tt.name, tt.x, tt.y, got, tt.white)
		}
	}
}

func TestMaskSinglePointPaintsNothing(t *testing.T) {
	m := Mask{}.Resize(40, 40).Begin(Point{X: 20, Y: 20}, 30).End()
	if !m.Empty() {
		t.Error("single-point stroke should leave the mask empty")
	}
	if img := m.Render(); img.GrayAt(20, 20).Y != 0 {
		t.Error("single-point stroke painted a pixel")
	}
}

func TestMaskPNG(t *testing.T) {
	m := drawLine(Mask{}.Resize(64, 48), 8, Point{X: 0, Y: 0}, Point{X: 64, Y: 48})
	data, err := m.PNG()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("mask is not a valid PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("PNG size = %dx%d, want 64x48", b.Dx(), b.Dy())
	}
}

func TestMaskStrokeOutsideSurfaceIsClipped(t *testing.T) {
	m := drawLine(Mask{}.Resize(20, 20), 10, Point{X: -50, Y: 10}, Point{X: 70, Y: 10})
	img := m.Render()
	if img.GrayAt(10, 10).Y != 255 {
		t.Error("expected the visible part of the stroke to be painted")
	}
}
