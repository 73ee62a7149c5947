package auth

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"
)

// statusTypes maps Gemini HTTP status codes to failure types.
var statusTypes = map[int]struct {
	typ     ValidationErrorType
	message string
}{
	400: {ErrTypeInvalidKey, "Bad request - API key may be malformed"},
	401: {ErrTypeInvalidKey, "API key is invalid, expired, or lacks permissions"},
	403: {ErrTypeInvalidKey, "API key is invalid, expired, or lacks permissions"},
	429: {ErrTypeQuotaExceeded, "API rate limit exceeded - try again later"},
	500: {ErrTypeNetworkError, "Gemini API server error - try again later"},
	502: {ErrTypeNetworkError, "Gemini API server error - try again later"},
	503: {ErrTypeNetworkError, "Gemini API server error - try again later"},
	504: {ErrTypeNetworkError, "Gemini API server error - try again later"},
}

// messagePatterns classify errors that carry no status code. The first match wins.
var messagePatterns = []struct {
	typ      ValidationErrorType
	message  string
	contains []string
}{
	{ErrTypeInvalidKey, "API key is invalid or has been revoked",
		[]string{"api key not valid", "invalid api key", "api_key_invalid", "permission denied"}},
	{ErrTypeQuotaExceeded, "API quota exceeded or rate limited",
		[]string{"quota", "resource exhausted", "rate limit"}},
	{ErrTypeBlocked, "Request was blocked by the model's safety filters",
		[]string{"safety", "blocked", "prohibited_content"}},
	{ErrTypeNetworkError, "Network error - check your internet connection",
		[]string{"connection", "network", "timeout", "dial", "no such host", "unreachable"}},
}

// Classify categorizes a Gemini API failure. A ValidationError anywhere in the
// chain is returned as is; nil stays nil.
func Classify(err error) *ValidationError {
	if err == nil {
		return nil
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr
	}

	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		if st, ok := statusTypes[apiErr.Code]; ok {
			return &ValidationError{Type: st.typ, Message: st.message, Err: err}
		}
		return &ValidationError{Type: ErrTypeUnknown, Message: apiErr.Message, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &ValidationError{Type: ErrTypeNetworkError, Message: "Gemini API call timed out", Err: err}
	}

	lower := strings.ToLower(err.Error())
	for _, p := range messagePatterns {
		for _, s := range p.contains {
			if strings.Contains(lower, s) {
				return &ValidationError{Type: p.typ, Message: p.message, Err: err}
			}
		}
	}
	return &ValidationError{Type: ErrTypeUnknown, Message: "Gemini API call failed", Err: err}
}
