package main

import (
	"context"
	"net/http"
	"time"

	"github.com/fpang/gemini-studio/internal/chat"
	"github.com/fpang/gemini-studio/internal/session"
	"github.com/fpang/gemini-studio/internal/workspace"
)

// chatStarter opens a conversation on a fresh chat handle.
type chatStarter interface {
	StartChat(ctx context.Context) (*chat.Conversation, error)
}

// filePicker asks the local user to choose an image and returns its path.
// A dismissed dialog returns zenity.ErrCanceled.
type filePicker func() (string, error)

type server struct {
	reg       *session.Registry
	images    workspace.Transformer
	chats     chatStarter
	pick      filePicker
	maxUpload int64
	now       func() time.Time
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	// Workspaces
	mux.HandleFunc("POST /api/workspaces", s.handleCreateWorkspace)
	mux.HandleFunc("GET /api/workspaces/{id}", s.handleGetWorkspace)
	mux.HandleFunc("DELETE /api/workspaces/{id}", s.handleDeleteWorkspace)
	mux.HandleFunc("POST /api/workspaces/{id}/image", s.handleUpload)
	mux.HandleFunc("POST /api/workspaces/{id}/pick", s.handlePick)
	mux.HandleFunc("POST /api/workspaces/{id}/events", s.handleEvent)
	mux.HandleFunc("POST /api/workspaces/{id}/apply", s.handleApply)

	// Workspace images
	mux.HandleFunc("GET /api/workspaces/{id}/source", s.handleSource)
	mux.HandleFunc("GET /api/workspaces/{id}/result", s.handleResult)
	mux.HandleFunc("GET /api/workspaces/{id}/mask", s.handleMask)
	mux.HandleFunc("GET /api/workspaces/{id}/preview", s.handlePreview)
	mux.HandleFunc("GET /api/workspaces/{id}/comparison", s.handleComparison)
	mux.HandleFunc("GET /api/workspaces/{id}/download", s.handleDownload)
	mux.HandleFunc("GET /api/workspaces/{id}/export", s.handleExport)

	// Chat
	mux.HandleFunc("POST /api/chats", s.handleCreateChat)
	mux.HandleFunc("GET /api/chats/{id}", s.handleGetChat)
	mux.HandleFunc("POST /api/chats/{id}/messages", s.handleSendMessage)

	return mux
}

// GET /healthz
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	workspaces, chats := s.reg.Len()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"workspaces": workspaces,
		"chats":      chats,
	})
}

// workspace resolves the {id} path value, writing the error response itself
// when the workspace cannot be found.
func (s *server) workspace(w http.ResponseWriter, r *http.Request) (*session.Workspace, bool) {
	ws, err := s.reg.Workspace(r.PathValue("id"))
	if err != nil {
		respondErr(w, err)
		return nil, false
	}
	return ws, true
}

func (s *server) chat(w http.ResponseWriter, r *http.Request) (*session.Chat, bool) {
	c, err := s.reg.Chat(r.PathValue("id"))
	if err != nil {
		respondErr(w, err)
		return nil, false
	}
	return c, true
}
