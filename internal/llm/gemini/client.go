package gemini

import (
	"context"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"github.com/angesh007/CollabCode/internal/llm"
	"github.com/angesh007/CollabCode/internal/models"
	"github.com/angesh007/CollabCode/internal/prompts"
)

// Client represents a Gemini LLM client
type Client struct {
	client  *genai.Client
	config  *Config
	prompts prompts.PromptProvider
}

func NewClient(config *Config) (*Client, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeAPIKey,
			Message:  "Failed to create Gemini client",
			Err:      err,
		}
	}

	promptManager, err := prompts.NewPromptManager()
	if err != nil {
		return nil, &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeInvalidInput,
			Message:  "Failed to load prompt templates",
			Err:      err,
		}
	}

	return &Client{
		client:  client,
		config:  config,
		prompts: promptManager,
	}, nil
}

func (c *Client) Suggest(ctx context.Context, req models.SuggestionRequest) (string, error) {
	prompt, err := c.prompts.BuildPrompt("autocomplete", "default", map[string]string{
		"Language": req.Language,
		"Cursor":   strconv.Itoa(req.CursorPosition),
		"Notes":    req.Notes,
		"Code":     req.Code,
	})
	if err != nil {
		return "", &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeInvalidInput,
			Message:  "Failed to build autocomplete prompt",
			Err:      err,
		}
	}
	return c.generate(ctx, prompt)
}

func (c *Client) Answer(ctx context.Context, req models.AnswerRequest) (string, error) {
	variant := "default"
	if req.Code != "" {
		variant = "with_code"
	}
	prompt, err := c.prompts.BuildPrompt("chat", variant, map[string]string{
		"Question": req.Question,
		"Code":     req.Code,
	})
	if err != nil {
		return "", &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeInvalidInput,
			Message:  "Failed to build chat prompt",
			Err:      err,
		}
	}
	return c.generate(ctx, prompt)
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(
		ctx,
		c.config.Model,
		genai.Text(prompt),
		nil,
	)
	if err != nil {
		return "", &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeServiceDown,
			Message:  "Failed to generate content",
			Err:      err,
		}
	}
	if result == nil {
		return "", &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeInvalidInput,
			Message:  "No response generated",
		}
	}

	text, err := result.Text()
	if err != nil {
		return "", &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeInvalidInput,
			Message:  "Failed to extract response text",
			Err:      err,
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeInvalidInput,
			Message:  "Empty response generated",
		}
	}
	return text, nil
}

func (c *Client) GetProviderName() string { return "gemini" }
