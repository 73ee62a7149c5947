package bundle

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/fpang/gemini-studio/internal/workspace"
)

func replay(events ...workspace.Event) workspace.State {
	s := workspace.New()
	for _, e := range events {
		s = workspace.Reduce(s, e)
	}
	return s
}

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("invalid ZIP: %v", err)
	}
	files := make(map[string][]byte)
	for _, f := range zr.File {
		if f.Method != MethodZstd {
			t.Errorf("%s method = %d, want zstd", f.Name, f.Method)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		files[f.Name] = body
	}
	return files
}

func names(files map[string][]byte) []string {
	out := make([]string, 0, len(files))
	for n := range files {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func TestWriteRequiresSource(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, workspace.New(), time.Now()); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("Write() error = %v, want ErrNothingToExport", err)
	}
}

func TestWriteSourceOnly(t *testing.T) {
	s := replay(workspace.Uploaded{Image: workspace.Image{Data: []byte("jpeg-bytes"), MIMEType: "image/jpeg"}})

	var buf bytes.Buffer
	if err := Write(&buf, s, time.Unix(1700000000, 0)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	files := readZip(t, buf.Bytes())

	if got := names(files); len(got) != 2 || got[0] != "source.jpeg" || got[1] != SnapshotName {
		t.Fatalf("entries = %v", got)
	}
	if string(files["source.jpeg"]) != "jpeg-bytes" {
		t.Errorf("source = %q", files["source.jpeg"])
	}

	var snap map[string]any
	if err := json.Unmarshal(files[SnapshotName], &snap); err != nil {
		t.Fatalf("snapshot is not JSON: %v", err)
	}
	if snap["hasSource"] != true || snap["hasResult"] != false {
		t.Errorf("snapshot = %v", snap)
	}
}

func TestWriteResultAndMask(t *testing.T) {
	s := replay(
		workspace.Uploaded{Image: workspace.Image{Data: []byte("src"), MIMEType: "image/png"}},
		workspace.ImageRendered{Width: 40, Height: 30},
		workspace.ToolSelected{Kind: workspace.ToolRemoveObject},
		workspace.MaskPointerDown{X: 5, Y: 5},
		workspace.MaskPointerMoved{X: 20, Y: 20},
		workspace.MaskPointerUp{},
		workspace.ApplyStarted{Generation: 1},
		workspace.ApplySucceeded{Generation: 1, Data: []byte("out")},
	)
	if !s.HasResult() {
		t.Fatalf("setup: expected result, state = %+v", s)
	}

	var buf bytes.Buffer
	if err := Write(&buf, s, time.Now()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	files := readZip(t, buf.Bytes())

	want := []string{MaskName, "result.png", "source.png", SnapshotName}
	got := names(files)
	if len(got) != len(want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entries = %v, want %v", got, want)
			break
		}
	}
	if string(files["result.png"]) != "out" {
		t.Errorf("result = %q", files["result.png"])
	}
	if !bytes.HasPrefix(files[MaskName], []byte("\x89PNG")) {
		t.Error("mask entry is not a PNG")
	}
}

func TestFilename(t *testing.T) {
	if got := Filename(time.UnixMilli(1700000000123)); got != "gemini-studio-workspace-1700000000123.zip" {
		t.Errorf("Filename() = %q", got)
	}
}
