package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fpang/gemini-studio/internal/chat"
	"github.com/fpang/gemini-studio/internal/workspace"
)

type blockingTransformer struct {
	release chan struct{}
}

func (b *blockingTransformer) Enhance(ctx context.Context, _ []byte, _ string, _ *string) ([]byte, error) {
	select {
	case <-b.release:
		return []byte("out"), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *blockingTransformer) RemoveObject(ctx context.Context, image []byte, mime string, _ []byte) ([]byte, error) {
	return b.Enhance(ctx, image, mime, nil)
}

type echoSender struct{}

func (echoSender) SendMessage(_ context.Context, text string) (string, error) {
	return "echo: " + text, nil
}

// newTestRegistry returns a registry whose clock is advanced by the returned func.
func newTestRegistry(t *testing.T, ttl time.Duration) (*Registry, func(time.Duration)) {
	t.Helper()
	r := NewRegistry(context.Background(), ttl)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	return r, func(d time.Duration) { now = now.Add(d) }
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"a1b2c3d4-e5f6-7890-abcd-ef1234567890", false},
		{"A1B2C3D4-E5F6-7890-ABCD-EF1234567890", true},
		{"a1b2c3d4e5f67890abcdef1234567890", true},
		{"../etc/passwd", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateID(tt.id)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidID) {
			t.Errorf("ValidateID(%q) error = %v, want ErrInvalidID", tt.id, err)
		}
	}
}

func TestWorkspaceLifecycle(t *testing.T) {
	r, _ := newTestRegistry(t, time.Minute)

	ws := r.CreateWorkspace(&blockingTransformer{})
	if err := ValidateID(ws.ID); err != nil {
		t.Fatalf("generated id %q is invalid: %v", ws.ID, err)
	}

	got, err := r.Workspace(ws.ID)
	if err != nil || got != ws {
		t.Fatalf("Workspace() = %v, %v", got, err)
	}
	if got.State().Prompt != workspace.DefaultPrompt {
		t.Errorf("new workspace is not fresh: %+v", got.State())
	}

	if err := r.DeleteWorkspace(ws.ID); err != nil {
		t.Fatalf("DeleteWorkspace() error = %v", err)
	}
	if ws.Context().Err() == nil {
		t.Error("workspace context not cancelled on delete")
	}
	if _, err := r.Workspace(ws.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Workspace() after delete error = %v, want ErrNotFound", err)
	}
	if err := r.DeleteWorkspace(ws.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteWorkspace() error = %v, want ErrNotFound", err)
	}
}

func TestChatLookup(t *testing.T) {
	r, _ := newTestRegistry(t, time.Minute)

	c := r.AddChat(chat.NewConversation(echoSender{}))
	got, err := r.Chat(c.ID)
	if err != nil || got != c {
		t.Fatalf("Chat() = %v, %v", got, err)
	}
	if _, err := r.Chat("not-a-uuid"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Chat() error = %v, want ErrInvalidID", err)
	}
	if _, err := r.Chat("a1b2c3d4-e5f6-7890-abcd-ef1234567890"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Chat() error = %v, want ErrNotFound", err)
	}
}

func TestExpireIdleEntries(t *testing.T) {
	r, advance := newTestRegistry(t, 10*time.Minute)

	idle := r.CreateWorkspace(&blockingTransformer{})
	active := r.CreateWorkspace(&blockingTransformer{})
	idleChat := r.AddChat(chat.NewConversation(echoSender{}))

	advance(6 * time.Minute)
	if _, err := r.Workspace(active.ID); err != nil {
		t.Fatal(err)
	}
	advance(6 * time.Minute)

	if n := r.Expire(); n != 2 {
		t.Errorf("Expire() = %d, want 2", n)
	}
	if _, err := r.Workspace(idle.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("idle workspace still present: %v", err)
	}
	if idle.Context().Err() == nil {
		t.Error("expired workspace context not cancelled")
	}
	if _, err := r.Chat(idleChat.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("idle chat still present: %v", err)
	}
	if _, err := r.Workspace(active.ID); err != nil {
		t.Errorf("recently used workspace expired: %v", err)
	}
}

func TestExpireKeepsProcessingWorkspace(t *testing.T) {
	r, advance := newTestRegistry(t, time.Minute)

	svc := &blockingTransformer{release: make(chan struct{})}
	ws := r.CreateWorkspace(svc)
	ws.Upload(workspace.Image{Data: []byte("img"), MIMEType: "image/png"}, workspace.ImageInfo{})
	if _, err := ws.ApplyAsync(ws.Context()); err != nil {
		t.Fatalf("ApplyAsync() error = %v", err)
	}

	advance(time.Hour)
	if n := r.Expire(); n != 0 {
		t.Errorf("Expire() = %d, want 0 while processing", n)
	}

	close(svc.release)
	ws.Wait()
	if !ws.State().HasResult() {
		t.Fatalf("expected result, state = %+v", ws.State())
	}
	if n := r.Expire(); n != 1 {
		t.Errorf("Expire() = %d, want 1 once settled", n)
	}
}

func TestRunClosesOnCancel(t *testing.T) {
	r, _ := newTestRegistry(t, time.Minute)
	ws := r.CreateWorkspace(&blockingTransformer{})
	r.AddChat(chat.NewConversation(echoSender{}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, time.Hour) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if w, c := r.Len(); w != 0 || c != 0 {
		t.Errorf("Len() = %d, %d after close", w, c)
	}
	if ws.Context().Err() == nil {
		t.Error("workspace context not cancelled on close")
	}
}

func TestJanitorInterval(t *testing.T) {
	tests := map[time.Duration]time.Duration{
		30 * time.Minute:       time.Minute,
		2 * time.Minute:        30 * time.Second,
		time.Second:            time.Second,
		100 * time.Millisecond: time.Second,
	}
	for ttl, want := range tests {
		if got := JanitorInterval(ttl); got != want {
			t.Errorf("JanitorInterval(%s) = %s, want %s", ttl, got, want)
		}
	}
}
