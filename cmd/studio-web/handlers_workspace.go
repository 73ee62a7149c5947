package main

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fpang/gemini-studio/internal/imaging"
	"github.com/fpang/gemini-studio/internal/session"
	"github.com/fpang/gemini-studio/internal/workspace"
	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
)

type workspaceResponse struct {
	ID    string             `json:"id"`
	State workspace.Snapshot `json:"state"`
	Error string             `json:"error,omitempty"`
}

func respondWorkspace(w http.ResponseWriter, status int, ws *session.Workspace, st workspace.State) {
	respondJSON(w, status, workspaceResponse{ID: ws.ID, State: st.Snapshot()})
}

// POST /api/workspaces
func (s *server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	ws := s.reg.CreateWorkspace(s.images)
	respondWorkspace(w, http.StatusCreated, ws, ws.State())
}

// GET /api/workspaces/{id}
func (s *server) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	respondWorkspace(w, http.StatusOK, ws, ws.State())
}

// DELETE /api/workspaces/{id}
func (s *server) handleDeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	if err := s.reg.DeleteWorkspace(r.PathValue("id")); err != nil {
		respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/workspaces/{id}/image
//
// The image is either the raw request body (name in ?name=) or the "image"
// field of a multipart form.
func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}

	body, name, err := s.readUpload(w, r)
	if err != nil {
		respondErr(w, err)
		return
	}
	s.load(w, ws, body, name)
}

func (s *server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	// Headroom for multipart framing; ReadAll enforces the image limit itself.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+maxJSONBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := imaging.ReadAll(r.Body, s.maxUpload)
		return data, r.URL.Query().Get("name"), err
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", fmt.Errorf("multipart field \"image\": %w", err)
	}
	defer file.Close()
	data, err := imaging.ReadAll(file, s.maxUpload)
	return data, filepath.Base(header.Filename), err
}

// load validates data and makes it the workspace's source image.
func (s *server) load(w http.ResponseWriter, ws *session.Workspace, data []byte, name string) {
	upload, err := imaging.Inspect(data, s.maxUpload)
	if err != nil {
		log.Warn().Err(err).Str("workspace", ws.ID).Msg("Upload rejected")
		respondErr(w, err)
		return
	}
	st := ws.Upload(upload.Image(), upload.Info(name))
	log.Info().
		Str("workspace", ws.ID).
		Str("mime", upload.MIMEType).
		Int("width", upload.Width).
		Int("height", upload.Height).
		Msg("Image loaded")
	respondWorkspace(w, http.StatusOK, ws, st)
}

// POST /api/workspaces/{id}/pick
func (s *server) handlePick(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	if s.pick == nil {
		httpError(w, http.StatusNotImplemented, "file picker is disabled")
		return
	}

	path, err := s.pick()
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			respondJSON(w, http.StatusOK, map[string]interface{}{"id": ws.ID, "canceled": true})
			return
		}
		log.Error().Err(err).Msg("File picker failed")
		httpError(w, http.StatusInternalServerError, "file picker failed")
		return
	}

	data, err := readLocalImage(path, s.maxUpload)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to read picked file")
		respondErr(w, err)
		return
	}
	s.load(w, ws, data, filepath.Base(path))
}

func readLocalImage(path string, maxBytes int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return imaging.ReadAll(f, maxBytes)
}

// zenityPicker shows the native open-file dialog filtered to supported images.
func zenityPicker() (string, error) {
	return zenity.SelectFile(
		zenity.Title("Select an image"),
		zenity.FileFilters{
			{
				Name: "Images",
				Patterns: []string{
					"*.jpg", "*.jpeg", "*.png", "*.gif", "*.webp", "*.bmp", "*.tif", "*.tiff",
				},
			},
		},
	)
}

// POST /api/workspaces/{id}/events
func (s *server) handleEvent(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}

	var req eventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid event: "+err.Error())
		return
	}
	e, err := req.event()
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := ws.Dispatch(e)
	if err != nil {
		respondJSON(w, statusFor(err), workspaceResponse{ID: ws.ID, State: st.Snapshot(), Error: messageFor(err)})
		return
	}
	respondWorkspace(w, http.StatusOK, ws, st)
}

// POST /api/workspaces/{id}/apply[?wait=true]
//
// By default the transformation runs in the background and the response is
// 202; poll the workspace for the outcome. With wait=true the call blocks
// until the service answers.
func (s *server) handleApply(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		st, err := ws.Apply(r.Context())
		switch {
		case err == nil:
			respondWorkspace(w, http.StatusOK, ws, st)
		case workspace.IsPrecondition(err):
			respondJSON(w, statusFor(err), workspaceResponse{ID: ws.ID, State: st.Snapshot(), Error: messageFor(err)})
		default:
			respondJSON(w, http.StatusBadGateway, workspaceResponse{ID: ws.ID, State: st.Snapshot(), Error: st.Error})
		}
		return
	}

	st, err := ws.ApplyAsync(ws.Context())
	if err != nil {
		respondJSON(w, statusFor(err), workspaceResponse{ID: ws.ID, State: st.Snapshot(), Error: messageFor(err)})
		return
	}
	respondWorkspace(w, http.StatusAccepted, ws, st)
}
