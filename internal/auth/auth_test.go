package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/genai"
)

func TestGetAPIKeyFromEnv(t *testing.T) {
	const testKey = "test-api-key-12345"

	t.Setenv("GEMINI_API_KEY", testKey)
	t.Setenv("API_KEY", "other")

	key, err := GetAPIKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != testKey {
		t.Errorf("expected key %q, got %q", testKey, key)
	}
}

func TestGetAPIKeyFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "fallback-key")

	key, err := GetAPIKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "fallback-key" {
		t.Errorf("expected fallback key, got %q", key)
	}
}

func TestGetAPIKeyNoSource(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")

	_, err := GetAPIKey()
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if valErr.Type != ErrTypeNoKey {
		t.Errorf("expected ErrTypeNoKey, got %v", valErr.Type)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ValidationErrorType
		cat  string
	}{
		{"unauthorized", &genai.APIError{Code: 403, Message: "denied"}, ErrTypeInvalidKey, "invalid"},
		{"bad request", &genai.APIError{Code: 400, Message: "bad"}, ErrTypeInvalidKey, "invalid"},
		{"rate limited", &genai.APIError{Code: 429, Message: "slow down"}, ErrTypeQuotaExceeded, "quota"},
		{"server error", &genai.APIError{Code: 503, Message: "unavailable"}, ErrTypeNetworkError, "network_error"},
		{"wrapped api error", fmt.Errorf("enhance: %w", &genai.APIError{Code: 401}), ErrTypeInvalidKey, "invalid"},
		{"api key message", errors.New("API key not valid. Please pass a valid API key."), ErrTypeInvalidKey, "invalid"},
		{"quota message", errors.New("resource exhausted"), ErrTypeQuotaExceeded, "quota"},
		{"network message", errors.New("dial tcp: lookup generativelanguage.googleapis.com: no such host"), ErrTypeNetworkError, "network_error"},
		{"safety block", errors.New("response blocked: SAFETY"), ErrTypeBlocked, "blocked"},
		{"deadline", fmt.Errorf("enhance: %w", context.DeadlineExceeded), ErrTypeNetworkError, "network_error"},
		{"other status", &genai.APIError{Code: 404, Message: "model not found"}, ErrTypeUnknown, "unknown"},
		{"unknown", errors.New("something odd"), ErrTypeUnknown, "unknown"},
		{"already classified", &ValidationError{Type: ErrTypeNoKey, Message: "none"}, ErrTypeNoKey, "no_key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got.Type != tt.want {
				t.Errorf("Classify() type = %v, want %v", got.Type, tt.want)
			}
			if got.Category() != tt.cat {
				t.Errorf("Category() = %q, want %q", got.Category(), tt.cat)
			}
		})
	}
}

func TestClassifyNil(t *testing.T) {
	if got := Classify(nil); got != nil {
		t.Errorf("Classify(nil) = %v, want nil", got)
	}
}
