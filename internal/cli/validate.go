package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/fpang/gemini-studio/internal/auth"
	"github.com/rs/zerolog/log"
)

// ResolveImagePath checks that path exists and is a regular file, then returns
// its absolute path. Exits fatally on failure.
func ResolveImagePath(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Fatal().Str("path", path).Msg("Image not found")
		}
		log.Fatal().Err(err).Str("path", path).Msg("Failed to access image")
	}
	if info.IsDir() {
		log.Fatal().Str("path", path).Msg("Path is a directory, expected an image file")
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path
}

// ValidationHint returns the operator-facing explanation for an API key failure.
func ValidationHint(err error) string {
	var validationErr *auth.ValidationError
	if !errors.As(err, &validationErr) {
		return "Unexpected error during API key validation"
	}
	switch validationErr.Type {
	case auth.ErrTypeNoKey:
		return "No API key configured. Set GEMINI_API_KEY (or API_KEY) in the environment or a .env file"
	case auth.ErrTypeInvalidKey:
		return "Invalid API key. Please check your API key and try again"
	case auth.ErrTypeNetworkError:
		return "Network error. Please check your internet connection"
	case auth.ErrTypeQuotaExceeded:
		return "API quota exceeded. Please try again later or check your usage limits"
	case auth.ErrTypeBlocked:
		return "The request was blocked by Gemini's safety filters"
	default:
		return "API key validation failed"
	}
}

// HandleValidationError logs the hint for err and exits.
func HandleValidationError(err error) {
	log.Fatal().Err(err).Msg(ValidationHint(err))
	os.Exit(1)
}
