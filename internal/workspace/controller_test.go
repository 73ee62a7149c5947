package workspace

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type enhanceCall struct {
	mime        string
	instruction *string
}

type fakeTransformer struct {
	mu      sync.Mutex
	enhance []enhanceCall
	removes [][]byte
	result  []byte
	err     error
	block   chan struct{}
	started chan struct{}
}

func (f *fakeTransformer) wait() {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeTransformer) Enhance(ctx context.Context, image []byte, mimeType string, instruction *string) ([]byte, error) {
	f.mu.Lock()
	f.enhance = append(f.enhance, enhanceCall{mime: mimeType, instruction: instruction})
	f.mu.Unlock()
	f.wait()
	return f.result, f.err
}

func (f *fakeTransformer) RemoveObject(ctx context.Context, image []byte, mimeType string, mask []byte) ([]byte, error) {
	f.mu.Lock()
	f.removes = append(f.removes, mask)
	f.mu.Unlock()
	f.wait()
	return f.result, f.err
}

func (f *fakeTransformer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.enhance) + len(f.removes)
}

func newUploaded(t *testing.T, svc Transformer) *Controller {
	t.Helper()
	c := NewController(svc)
	c.Upload(testImage(), ImageInfo{Width: 10, Height: 10})
	return c
}

func TestApplyWithoutImageRejected(t *testing.T) {
	svc := &fakeTransformer{result: []byte("x")}
	c := NewController(svc)

	s, err := c.Apply(context.Background())
	if !errors.Is(err, ErrNoImage) {
		t.Errorf("error = %v, want ErrNoImage", err)
	}
	if s.Error != "Please upload an image first." {
		t.Errorf("state error = %q", s.Error)
	}
	if svc.calls() != 0 {
		t.Error("request issued without an image")
	}
}

func TestApplyEnhanceEmptyPromptRejected(t *testing.T) {
	svc := &fakeTransformer{result: []byte("x")}
	c := newUploaded(t, svc)
	c.Dispatch(PromptChanged{Text: "   "})

	_, err := c.Apply(context.Background())
	if !errors.Is(err, ErrEmptyPrompt) {
		t.Errorf("error = %v, want ErrEmptyPrompt", err)
	}
	if svc.calls() != 0 {
		t.Error("request issued with an empty prompt")
	}
}

func TestApplyAdjustNeutralRejected(t *testing.T) {
	svc := &fakeTransformer{result: []byte("x")}
	c := newUploaded(t, svc)
	c.Dispatch(ToolSelected{Kind: ToolAdjust})

	s, err := c.Apply(context.Background())
	if !errors.Is(err, ErrNoAdjustments) {
		t.Errorf("error = %v, want ErrNoAdjustments", err)
	}
	if svc.calls() != 0 {
		t.Error("request issued with neutral adjustments")
	}
	if s.Processing {
		t.Error("rejected apply left the workspace processing")
	}
}

func TestApplyRemoveObjectRequiresSurface(t *testing.T) {
	svc := &fakeTransformer{result: []byte("x")}
	c := newUploaded(t, svc)
	c.Dispatch(ToolSelected{Kind: ToolRemoveObject})

	if _, err := c.Apply(context.Background()); !errors.Is(err, ErrNoMask) {
		t.Errorf("error = %v, want ErrNoMask", err)
	}
	if svc.calls() != 0 {
		t.Error("request issued without a mask surface")
	}
}

func TestApplyEnhanceSendsPrompt(t *testing.T) {
	svc := &fakeTransformer{result: []byte("enhanced")}
	c := newUploaded(t, svc)
	c.Dispatch(PromptChanged{Text: "make it pop"})
	c.Dispatch(ComparatorMoved{Position: 10})

	s, err := c.Apply(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(svc.enhance) != 1 || svc.enhance[0].instruction == nil || *svc.enhance[0].instruction != "make it pop" {
		t.Fatalf("enhance calls = %+v", svc.enhance)
	}
	if string(s.Result.Data) != "enhanced" || s.Result.MIMEType != "image/jpeg" {
		t.Errorf("result = %q (%s)", s.Result.Data, s.Result.MIMEType)
	}
	if s.Comparator.Position != DefaultComparatorPosition {
		t.Errorf("comparator = %v, want 50", s.Comparator.Position)
	}
	if s.Error != "" || s.Processing {
		t.Errorf("error = %q processing = %v", s.Error, s.Processing)
	}
}

func TestApplyAutoEnhanceSendsNoInstruction(t *testing.T) {
	svc := &fakeTransformer{result: []byte("auto")}
	c := newUploaded(t, svc)
	c.Dispatch(ToolSelected{Kind: ToolAutoEnhance})

	if _, err := c.Apply(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(svc.enhance) != 1 || svc.enhance[0].instruction != nil {
		t.Errorf("auto enhance should send no instruction, got %+v", svc.enhance)
	}
}

func TestApplyAdjustSendsDerivedInstruction(t *testing.T) {
	svc := &fakeTransformer{result: []byte("adjusted")}
	c := newUploaded(t, svc)
	c.Dispatch(ToolSelected{Kind: ToolAdjust})
	c.Dispatch(AdjustmentChanged{Param: ParamBrightness, Value: 150})

	if _, err := c.Apply(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Apply the following adjustments to the image: set brightness to 150%. " +
		"Ensure the result is high-quality and the changes are blended naturally."
	if got := *svc.enhance[0].instruction; got != want {
		t.Errorf("instruction = %q, want %q", got, want)
	}
}

func TestApplyRemoveObjectSendsMask(t *testing.T) {
	svc := &fakeTransformer{result: []byte("removed")}
	c := newUploaded(t, svc)
	c.Dispatch(ToolSelected{Kind: ToolRemoveObject})
	c.Dispatch(ImageRendered{Width: 32, Height: 32})
	c.Dispatch(MaskPointerDown{X: 4, Y: 4})
	c.Dispatch(MaskPointerMoved{X: 28, Y: 28})
	c.Dispatch(MaskPointerUp{})

	if _, err := c.Apply(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(svc.removes) != 1 || len(svc.removes[0]) == 0 {
		t.Fatalf("remove calls = %d", len(svc.removes))
	}
	if len(svc.enhance) != 0 {
		t.Error("remove tool issued an enhance call")
	}
}

func TestApplyFailureClearsProcessing(t *testing.T) {
	svc := &fakeTransformer{err: errors.New("boom")}
	c := newUploaded(t, svc)

	s, err := c.Apply(context.Background())
	if err == nil {
		t.Fatal("expected service error")
	}
	if s.Processing {
		t.Error("processing flag not cleared")
	}
	if s.HasResult() {
		t.Error("result present after failure")
	}
	if s.Error != "Boom." {
		t.Errorf("error = %q", s.Error)
	}
}

func TestApplyEmptyResponseIsFailure(t *testing.T) {
	svc := &fakeTransformer{}
	c := newUploaded(t, svc)

	s, err := c.Apply(context.Background())
	if !errors.Is(err, ErrResponseMissing) {
		t.Errorf("error = %v, want ErrResponseMissing", err)
	}
	if s.HasResult() || s.Error == "" {
		t.Errorf("state after empty response: result=%v error=%q", s.HasResult(), s.Error)
	}
}

func TestApplyAsyncRejectsSecondRequest(t *testing.T) {
	svc := &fakeTransformer{
		result:  []byte("done"),
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	c := newUploaded(t, svc)

	s, err := c.ApplyAsync(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Processing || s.CanApply() {
		t.Error("workspace should be processing with apply disabled")
	}
	<-svc.started

	if _, err := c.ApplyAsync(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("second apply error = %v, want ErrBusy", err)
	}

	// Interactions stay responsive while the request is pending.
	done := make(chan struct{})
	go func() {
		c.Dispatch(ZoomedIn{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch blocked while a request was pending")
	}

	close(svc.block)
	c.Wait()

	s = c.State()
	if s.Processing || !s.HasResult() {
		t.Errorf("after completion: processing=%v result=%v", s.Processing, s.HasResult())
	}
	if svc.calls() != 1 {
		t.Errorf("service calls = %d, want 1", svc.calls())
	}
}

func TestApplyAsyncStaleResponse(t *testing.T) {
	svc := &fakeTransformer{
		result:  []byte("late"),
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	c := newUploaded(t, svc)

	if _, err := c.ApplyAsync(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	<-svc.started
	c.Upload(Image{Data: []byte("second"), MIMEType: "image/png"}, ImageInfo{})

	close(svc.block)
	c.Wait()

	s := c.State()
	if s.HasResult() {
		t.Error("late response applied to the replaced image")
	}
	if s.Processing {
		t.Error("late response did not clear processing")
	}
	if s.Source.MIMEType != "image/png" {
		t.Errorf("source MIME = %q, want the new upload", s.Source.MIMEType)
	}
}

type userFacingErr struct{}

func (userFacingErr) Error() string       { return "internal detail" }
func (userFacingErr) UserMessage() string { return "Failed to enhance image. Please try again." }

func TestUserMessage(t *testing.T) {
	if got := UserMessage(userFacingErr{}); got != "Failed to enhance image. Please try again." {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("timeout")); got != "Timeout." {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(nil); got != "" {
		t.Errorf("UserMessage(nil) = %q", got)
	}
}
