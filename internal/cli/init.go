package cli

import (
	"context"

	"github.com/fpang/gemini-studio/internal/auth"
	"github.com/fpang/gemini-studio/internal/chat"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// InitGeminiClient creates a Gemini client and, when validate is set, checks
// the key against model. Exits fatally on failure.
func InitGeminiClient(ctx context.Context, model string, validate bool) *genai.Client {
	apiKey, err := auth.GetAPIKey()
	if err != nil {
		HandleValidationError(err)
	}

	client, err := chat.NewGeminiClient(ctx, apiKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Gemini client")
	}

	log.Debug().Msg("Gemini client initialized")

	if validate {
		if err := auth.ValidateAPIKey(ctx, client, model); err != nil {
			HandleValidationError(err)
		}
		log.Info().Str("model", model).Msg("API key validated")
	}

	return client
}
