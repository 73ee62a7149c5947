// Package auth resolves the Gemini API key and classifies API failures.
package auth

import (
	"os"

	"github.com/rs/zerolog/log"
)

// KeyEnvVars lists the environment variables searched for the API key, in
// priority order.
var KeyEnvVars = []string{"GEMINI_API_KEY", "API_KEY"}

// GetAPIKey retrieves the Gemini API key from the environment.
// Priority order:
//  1. GEMINI_API_KEY environment variable
//  2. API_KEY environment variable
//
// A missing key is reported as a ValidationError of type ErrTypeNoKey.
func GetAPIKey() (string, error) {
	for _, name := range KeyEnvVars {
		if key := os.Getenv(name); key != "" {
			log.Debug().Str("source", name).Msg("Using API key from environment variable")
			return key, nil
		}
	}

	log.Error().Strs("checked", KeyEnvVars).Msg("Failed to retrieve API key")
	return "", &ValidationError{
		Type:    ErrTypeNoKey,
		Message: "API key not found. Set GEMINI_API_KEY or API_KEY (a .env file is also read)",
	}
}
