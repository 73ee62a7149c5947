package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fpang/gemini-studio/internal/assets"
	"github.com/fpang/gemini-studio/internal/metrics"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Client opens chat sessions against a Gemini text model.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a chat Client. An empty model selects GetModelName().
func NewClient(client *genai.Client, model string) *Client {
	if model == "" {
		model = GetModelName()
	}
	return &Client{client: client, model: model}
}

// Model returns the model id chat sessions use.
func (c *Client) Model() string {
	return c.model
}

// StartChat opens one chat handle with the assistant system instruction and
// wraps it in a new Conversation.
func (c *Client) StartChat(ctx context.Context) (*Conversation, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: assets.ChatSystemPrompt}},
		},
	}

	handle, err := c.client.Chats.Create(ctx, c.model, config, nil)
	if err != nil {
		log.Error().Err(err).Str("model", c.model).Msg("Failed to create chat session")
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}

	log.Debug().Str("model", c.model).Msg("Chat session created")
	return NewConversation(&geminiSender{chat: handle, model: c.model}), nil
}

// geminiSender sends turns on a genai chat handle, which keeps the history.
type geminiSender struct {
	chat  *genai.Chat
	model string
}

func (s *geminiSender) SendMessage(ctx context.Context, text string) (string, error) {
	start := time.Now()
	resp, err := s.chat.SendMessage(ctx, genai.Part{Text: text})
	elapsed := time.Since(start)

	m := metrics.New(metrics.Namespace).
		Dimension("Operation", "chat").
		Metric("GeminiApiLatencyMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
		Count("GeminiApiCalls")
	if err != nil {
		m.Count("GeminiApiErrors")
	}
	if resp != nil && resp.UsageMetadata != nil {
		m.Metric("GeminiInputTokens", float64(resp.UsageMetadata.PromptTokenCount), metrics.UnitCount)
		m.Metric("GeminiOutputTokens", float64(resp.UsageMetadata.CandidatesTokenCount), metrics.UnitCount)
	}
	m.Flush()

	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("received empty response from Gemini API")
	}

	reply := responseText(resp)
	log.Debug().
		Int("response_length", len(reply)).
		Dur("duration", elapsed).
		Msg("Received chat response from Gemini")
	return reply, nil
}

// responseText concatenates the text parts of the first candidate, skipping
// thought summaries.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}
