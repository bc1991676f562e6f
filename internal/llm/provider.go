package llm

import (
	"context"

	"github.com/angesh007/CollabCode/internal/models"
)

// defines the interface for LLM providers
type Provider interface {
	// Suggest returns a short completion to insert at the cursor.
	Suggest(ctx context.Context, req models.SuggestionRequest) (string, error)
	// Answer returns a free-form reply to a participant's question.
	Answer(ctx context.Context, req models.AnswerRequest) (string, error)
	GetProviderName() string
}

// represents an error from an LLM provider
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + " error: " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Provider + " error: " + e.Message
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Common error codes
const (
	ErrCodeAPIKey       = "invalid_api_key"
	ErrCodeRateLimit    = "rate_limit_exceeded"
	ErrCodeServiceDown  = "service_unavailable"
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeTimeout      = "timeout"
)
