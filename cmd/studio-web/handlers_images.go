package main

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/fpang/gemini-studio/internal/bundle"
	"github.com/fpang/gemini-studio/internal/imaging"
	"github.com/fpang/gemini-studio/internal/workspace"
	"github.com/rs/zerolog/log"
)

// GET /api/workspaces/{id}/source
func (s *server) handleSource(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	st := ws.State()
	if st.Source == nil {
		httpError(w, http.StatusNotFound, "no image uploaded")
		return
	}
	writeImage(w, st.Source.MIMEType, st.Source.Data)
}

// GET /api/workspaces/{id}/result
func (s *server) handleResult(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	st := ws.State()
	if st.Result == nil {
		httpError(w, http.StatusNotFound, "no result available")
		return
	}
	writeImage(w, st.Result.MIMEType, st.Result.Data)
}

// GET /api/workspaces/{id}/mask
func (s *server) handleMask(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	m, active := ws.State().Mask()
	if !active {
		httpError(w, http.StatusNotFound, "object removal tool is not active")
		return
	}
	data, err := m.PNG()
	if err != nil {
		respondErr(w, err)
		return
	}
	writeImage(w, "image/png", data)
}

// GET /api/workspaces/{id}/preview[?max=N]
//
// The source downscaled to at most max pixels per side with the current
// brightness, contrast and saturation applied. Neutral outside the adjust tool.
func (s *server) handlePreview(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	st := ws.State()
	if st.Source == nil {
		httpError(w, http.StatusNotFound, "no image uploaded")
		return
	}

	dim := queryInt(r, "max", imaging.DefaultPreviewDimension, 16, 4096)
	data, err := imaging.PreviewBytes(st.Source.Data, st.Adjustments(), dim)
	if err != nil {
		log.Warn().Err(err).Str("workspace", ws.ID).Msg("Failed to render preview")
		httpError(w, http.StatusInternalServerError, "preview generation failed")
		return
	}
	writeImage(w, "image/jpeg", data)
}

// GET /api/workspaces/{id}/comparison[?position=P&max=N]
//
// The before/after composite at the comparator position, or at P when given.
func (s *server) handleComparison(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	st := ws.State()
	if st.Source == nil || st.Result == nil {
		httpError(w, http.StatusNotFound, "no result available")
		return
	}

	position := st.Comparator.Position
	if v := r.URL.Query().Get("position"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
			httpError(w, http.StatusBadRequest, "position must be a finite number")
			return
		}
		position = p
	}

	dim := queryInt(r, "max", imaging.DefaultPreviewDimension, 16, 4096)
	data, err := imaging.ComposeBytes(st.Source.Data, st.Result.Data, position, dim)
	if err != nil {
		log.Warn().Err(err).Str("workspace", ws.ID).Msg("Failed to compose comparison")
		httpError(w, http.StatusInternalServerError, "comparison generation failed")
		return
	}
	writeImage(w, "image/png", data)
}

// GET /api/workspaces/{id}/download
func (s *server) handleDownload(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	st := ws.State()
	if st.Result == nil {
		httpError(w, http.StatusNotFound, "no result available")
		return
	}
	filename := workspace.DownloadFilename(st.Result.MIMEType, s.now())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	writeImage(w, st.Result.MIMEType, st.Result.Data)
}

// GET /api/workspaces/{id}/export
func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	now := s.now()
	if err := bundle.Write(&buf, ws.State(), now); err != nil {
		respondErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", bundle.Filename(now)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)
}
