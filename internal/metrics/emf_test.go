package metrics

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })
	return &buf
}

func TestNew_ServiceDimension(t *testing.T) {
	SetService("studio-web")
	t.Cleanup(func() { SetService("") })

	r := New("TestNamespace")
	if r.namespace != "TestNamespace" {
		t.Errorf("expected namespace TestNamespace, got %s", r.namespace)
	}
	if r.dimensions["Service"] != "studio-web" {
		t.Errorf("expected Service dimension studio-web, got %s", r.dimensions["Service"])
	}
}

func TestRecorder_FlushOutput(t *testing.T) {
	buf := capture(t)

	rec := New(Namespace)
	rec.Dimension("Operation", "enhance")
	rec.Metric("LatencyMs", 1234.5, UnitMilliseconds)
	rec.Metric("CallCount", 1, UnitCount)
	rec.Property("workspaceId", "abc-123")
	rec.Flush()

	output := buf.String()

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(output), &doc); err != nil {
		t.Fatalf("failed to parse EMF output as JSON: %v\nOutput: %s", err, output)
	}

	awsDir, ok := doc["_aws"]
	if !ok {
		t.Fatal("missing _aws directive in EMF output")
	}
	awsMap, ok := awsDir.(map[string]interface{})
	if !ok {
		t.Fatal("_aws directive is not a map")
	}
	if _, ok := awsMap["Timestamp"]; !ok {
		t.Error("missing Timestamp in _aws directive")
	}

	cwArr, ok := awsMap["CloudWatchMetrics"].([]interface{})
	if !ok || len(cwArr) == 0 {
		t.Fatal("CloudWatchMetrics should be a non-empty array")
	}
	cw := cwArr[0].(map[string]interface{})
	if cw["Namespace"] != "GeminiStudio" {
		t.Errorf("expected namespace GeminiStudio, got %v", cw["Namespace"])
	}

	if doc["Operation"] != "enhance" {
		t.Errorf("expected Operation=enhance, got %v", doc["Operation"])
	}
	if doc["LatencyMs"] != 1234.5 {
		t.Errorf("expected LatencyMs=1234.5, got %v", doc["LatencyMs"])
	}
	if doc["CallCount"] != float64(1) {
		t.Errorf("expected CallCount=1, got %v", doc["CallCount"])
	}
	if doc["workspaceId"] != "abc-123" {
		t.Errorf("expected workspaceId=abc-123, got %v", doc["workspaceId"])
	}
}

func TestRecorder_FlushEmpty(t *testing.T) {
	buf := capture(t)

	New("Test").Flush() // No metrics, no output

	if buf.Len() != 0 {
		t.Errorf("expected no output for empty recorder, got: %s", buf.String())
	}
}

func TestRecorder_Count(t *testing.T) {
	rec := New("Test")
	rec.Count("Errors")

	if v, ok := rec.values["Errors"]; !ok || v != float64(1) {
		t.Errorf("expected Errors=1, got %v", v)
	}
	if m, ok := rec.metrics["Errors"]; !ok || m.Unit != UnitCount {
		t.Errorf("expected unit Count, got %v", m.Unit)
	}
}

func TestRecorder_Chaining(t *testing.T) {
	rec := New("Test").
		Dimension("Op", "test").
		Metric("Duration", 100, UnitMilliseconds).
		Count("Calls").
		Property("id", "xyz")

	if rec.dimensions["Op"] != "test" {
		t.Error("chaining Dimension failed")
	}
	if rec.values["Duration"] != float64(100) {
		t.Error("chaining Metric failed")
	}
	if rec.values["Calls"] != float64(1) {
		t.Error("chaining Count failed")
	}
	if rec.properties["id"] != "xyz" {
		t.Error("chaining Property failed")
	}
}

func TestRecorder_FlushSortedDimensions(t *testing.T) {
	buf := capture(t)

	New("Test").
		Dimension("Zone", "b").
		Dimension("Operation", "remove").
		Count("Calls").
		Flush()

	var doc struct {
		AWS struct {
			CloudWatchMetrics []struct {
				Dimensions [][]string
			}
		} `json:"_aws"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	dims := doc.AWS.CloudWatchMetrics[0].Dimensions[0]
	if len(dims) != 2 || dims[0] != "Operation" || dims[1] != "Zone" {
		t.Errorf("dimensions = %v, want [Operation Zone]", dims)
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.jsonl")
	closeFn, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	New("Test").Count("Calls").Flush()
	New("Test").Count("Calls").Flush()
	if err := closeFn(); err != nil {
		t.Fatalf("close error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "\n"); n != 2 {
		t.Errorf("file has %d lines, want 2", n)
	}
}

func TestOpenOff(t *testing.T) {
	closeFn, err := Open("off")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer closeFn()

	mu.Lock()
	w := out
	mu.Unlock()
	if w != io.Discard {
		t.Errorf("output = %T, want io.Discard", w)
	}
}

func TestOpenBadPath(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing", "metrics.jsonl")); err == nil {
		t.Error("Open() error = nil for a missing directory")
	}
}
