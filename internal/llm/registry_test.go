package llm

import (
	"context"
	"testing"

	"github.com/angesh007/CollabCode/internal/models"
)

type stubProvider struct{ name string }

func (s *stubProvider) Suggest(context.Context, models.SuggestionRequest) (string, error) {
	return "", nil
}

func (s *stubProvider) Answer(context.Context, models.AnswerRequest) (string, error) {
	return "", nil
}

func (s *stubProvider) GetProviderName() string { return s.name }

func TestNewProviderUsesRegisteredFactory(t *testing.T) {
	RegisterProvider("stub", func() (Provider, error) {
		return &stubProvider{name: "stub"}, nil
	})

	p, err := NewProvider("stub")
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if p.GetProviderName() != "stub" {
		t.Fatalf("unexpected provider: %s", p.GetProviderName())
	}
}

func TestNewProviderUnknownName(t *testing.T) {
	if _, err := NewProvider("unregistered"); err == nil {
		t.Fatalf("expected error for unregistered provider")
	}
}
