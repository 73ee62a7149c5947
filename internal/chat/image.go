package chat

// image.go implements the image transformation service on the Gemini image
// model: one generateContent call per request, IMAGE response modality, and the
// first inline-data part of the first candidate taken as the result.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fpang/gemini-studio/internal/assets"
	"github.com/fpang/gemini-studio/internal/auth"
	"github.com/fpang/gemini-studio/internal/metrics"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Operation names used in logs and metric dimensions.
const (
	OpEnhance      = "enhance"
	OpRemoveObject = "removeObject"
)

// User-facing failure messages.
const (
	enhanceFailedMessage = "Failed to enhance image. Please try again."
	removeFailedMessage  = "Failed to remove object from image. Please try again."
)

// maskMIMEType is the MIME type of every mask sent for object removal.
const maskMIMEType = "image/png"

// ErrNoImageData is returned when the model answers without an image part.
var ErrNoImageData = errors.New("no image data found in the response")

// Generator is the part of the Gemini models API used by ImageService.
// *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// TransformError is a failed transformation. Message is safe to show to users;
// Err carries the underlying cause.
type TransformError struct {
	Op      string
	Message string
	Err     error
}

func (e *TransformError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text shown to the user.
func (e *TransformError) UserMessage() string {
	return e.Message
}

// ImageService edits images with the Gemini image model.
type ImageService struct {
	gen   Generator
	model string
}

// NewImageService creates an ImageService on client's models API.
// An empty model selects GetImageModelName().
func NewImageService(client *genai.Client, model string) *ImageService {
	return NewImageServiceWithGenerator(client.Models, model)
}

// NewImageServiceWithGenerator creates an ImageService on any Generator.
func NewImageServiceWithGenerator(gen Generator, model string) *ImageService {
	if model == "" {
		model = GetImageModelName()
	}
	return &ImageService{gen: gen, model: model}
}

// Model returns the model id requests are sent to.
func (s *ImageService) Model() string {
	return s.model
}

// Enhance edits image according to instruction. A nil or blank instruction is
// replaced by the default auto-enhance prompt.
func (s *ImageService) Enhance(ctx context.Context, image []byte, mimeType string, instruction *string) ([]byte, error) {
	prompt := assets.AutoEnhancePrompt
	if instruction != nil && strings.TrimSpace(*instruction) != "" {
		prompt = *instruction
	}

	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
		{Text: prompt},
	}

	data, err := s.generate(ctx, OpEnhance, parts)
	if err != nil {
		return nil, &TransformError{Op: OpEnhance, Message: enhanceFailedMessage, Err: err}
	}
	return data, nil
}

// RemoveObject erases the region marked white in mask. The image, the removal
// instruction and the mask are sent in that order.
func (s *ImageService) RemoveObject(ctx context.Context, image []byte, mimeType string, mask []byte) ([]byte, error) {
	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
		{Text: assets.RemoveObjectPrompt},
		{InlineData: &genai.Blob{MIMEType: maskMIMEType, Data: mask}},
	}

	data, err := s.generate(ctx, OpRemoveObject, parts)
	if err != nil {
		return nil, &TransformError{Op: OpRemoveObject, Message: removeFailedMessage, Err: err}
	}
	return data, nil
}

func (s *ImageService) generate(ctx context.Context, op string, parts []*genai.Part) ([]byte, error) {
	log.Info().
		Str("model", s.model).
		Str("operation", op).
		Int("parts", len(parts)).
		Msg("Sending image to Gemini for editing")

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	start := time.Now()
	resp, err := s.gen.GenerateContent(ctx, s.model, contents, config)
	elapsed := time.Since(start)

	var data []byte
	var outMIME string
	if err == nil {
		data, outMIME, err = firstImage(resp)
	}

	result := "success"
	m := metrics.New(metrics.Namespace).
		Dimension("Operation", op).
		Property("model", s.model).
		Metric("TransformLatencyMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
		Count("TransformCalls")
	switch {
	case errors.Is(err, ErrNoImageData):
		result = "no_image"
	case err != nil:
		result = auth.Classify(err).Category()
	}
	m.Dimension("Result", result)
	if resp != nil && resp.UsageMetadata != nil {
		m.Metric("GeminiInputTokens", float64(resp.UsageMetadata.PromptTokenCount), metrics.UnitCount)
		m.Metric("GeminiOutputTokens", float64(resp.UsageMetadata.CandidatesTokenCount), metrics.UnitCount)
	}
	if err != nil {
		m.Count("TransformErrors")
	} else {
		m.Metric("TransformOutputBytes", float64(len(data)), metrics.UnitBytes)
	}
	m.Flush()

	if err != nil {
		log.Error().
			Err(err).
			Str("operation", op).
			Str("result", result).
			Dur("duration", elapsed).
			Msg("Gemini image editing failed")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info().
		Str("operation", op).
		Int("output_bytes", len(data)).
		Str("output_mime", outMIME).
		Dur("duration", elapsed).
		Msg("Gemini image editing complete")
	return data, nil
}

// firstImage returns the first inline-data part of the first candidate.
func firstImage(resp *genai.GenerateContentResponse) ([]byte, string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, "", ErrNoImageData
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, part.InlineData.MIMEType, nil
		}
		text.WriteString(part.Text)
	}

	if text.Len() > 0 {
		return nil, "", fmt.Errorf("%w (text: %s)", ErrNoImageData, truncateString(text.String(), 200))
	}
	return nil, "", ErrNoImageData
}

// truncateString truncates a string to maxLen, appending "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
