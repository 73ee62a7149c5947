package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fpang/gemini-studio/internal/bundle"
	"github.com/fpang/gemini-studio/internal/chat"
	"github.com/fpang/gemini-studio/internal/imaging"
	"github.com/fpang/gemini-studio/internal/session"
	"github.com/fpang/gemini-studio/internal/workspace"
)

// maxJSONBody bounds event and chat request bodies.
const maxJSONBody = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func httpError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondErr maps err to a status code and writes its user-facing message.
func respondErr(w http.ResponseWriter, err error) {
	httpError(w, statusFor(err), messageFor(err))
}

func statusFor(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, session.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workspace.ErrBusy), errors.Is(err, chat.ErrReplyPending):
		return http.StatusConflict
	case workspace.IsPrecondition(err), errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, bundle.ErrNothingToExport):
		return http.StatusBadRequest
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return http.StatusBadRequest
	case errors.Is(err, imaging.ErrTooLarge), errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, imaging.ErrUnsupported), errors.Is(err, imaging.ErrEmpty), errors.Is(err, imaging.ErrTooManyPx):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return workspace.UserMessage(err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeImage(w http.ResponseWriter, mimeType string, data []byte) {
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

// queryInt reads an integer query parameter clamped to [lo, hi].
func queryInt(r *http.Request, name string, def, lo, hi int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return min(max(v, lo), hi)
}
