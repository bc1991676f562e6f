package assist

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/angesh007/CollabCode/internal/models"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []any
	ch     chan any
}

func newFakeConn() *fakeConn {
	return &fakeConn{ch: make(chan any, 16)}
}

func (c *fakeConn) Send(v any) bool {
	c.mu.Lock()
	c.frames = append(c.frames, v)
	c.mu.Unlock()
	c.ch <- v
	return true
}

func (c *fakeConn) list() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.frames))
	copy(out, c.frames)
	return out
}

func (c *fakeConn) next(t *testing.T, timeout time.Duration) any {
	t.Helper()
	select {
	case v := <-c.ch:
		return v
	case <-time.After(timeout):
		t.Fatalf("no frame delivered in %v", timeout)
		return nil
	}
}

func (c *fakeConn) expectSilence(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case v := <-c.ch:
		t.Fatalf("unexpected frame: %#v", v)
	case <-time.After(d):
	}
}

type fakeProvider struct {
	suggestFn func(ctx context.Context, req models.SuggestionRequest) (string, error)
	answerFn  func(ctx context.Context, req models.AnswerRequest) (string, error)
	calls     atomic.Int64
}

func (p *fakeProvider) Suggest(ctx context.Context, req models.SuggestionRequest) (string, error) {
	p.calls.Add(1)
	if p.suggestFn != nil {
		return p.suggestFn(ctx, req)
	}
	return "pass", nil
}

func (p *fakeProvider) Answer(ctx context.Context, req models.AnswerRequest) (string, error) {
	if p.answerFn != nil {
		return p.answerFn(ctx, req)
	}
	return "an answer", nil
}

func (p *fakeProvider) GetProviderName() string { return "fake" }

func newTestGateway(provider *fakeProvider, window time.Duration) *Gateway {
	return NewGateway(provider, window, time.Second, zap.NewNop())
}

func TestGatewayDebounceCollapsesRapidEdits(t *testing.T) {
	provider := &fakeProvider{}
	gateway := newTestGateway(provider, 50*time.Millisecond)
	conn := newFakeConn()

	// Three edits faster than the quiet window: only the last one's
	// request may reach the provider.
	gateway.OnEdit(conn, models.SuggestionRequest{Code: "a"})
	gateway.OnEdit(conn, models.SuggestionRequest{Code: "ab"})
	gen := gateway.OnEdit(conn, models.SuggestionRequest{Code: "abc"})
	if gen != 3 {
		t.Fatalf("expected generation 3, got %d", gen)
	}

	frame := conn.next(t, time.Second)
	suggestion, ok := frame.(models.SuggestionMessage)
	if !ok || suggestion.Generation != 3 {
		t.Fatalf("expected suggestion for generation 3, got %#v", frame)
	}
	if calls := provider.calls.Load(); calls != 1 {
		t.Fatalf("expected exactly one provider call, got %d", calls)
	}
	conn.expectSilence(t, 150*time.Millisecond)
}

func TestGatewayStaleResultDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	provider := &fakeProvider{
		suggestFn: func(ctx context.Context, req models.SuggestionRequest) (string, error) {
			if req.Code == "old" {
				close(started)
				<-release
			}
			return "for " + req.Code, nil
		},
	}
	gateway := newTestGateway(provider, 10*time.Millisecond)
	conn := newFakeConn()

	gateway.OnEdit(conn, models.SuggestionRequest{Code: "old"})
	<-started // the old request is now in flight

	// A newer edit supersedes it while the call is still running.
	gateway.OnEdit(conn, models.SuggestionRequest{Code: "new"})
	close(release)

	frame := conn.next(t, time.Second)
	suggestion, ok := frame.(models.SuggestionMessage)
	if !ok || suggestion.Text != "for new" || suggestion.Generation != 2 {
		t.Fatalf("expected only the new result, got %#v", frame)
	}
	conn.expectSilence(t, 100*time.Millisecond)
}

func TestGatewayProviderFailureYieldsEmptySuggestion(t *testing.T) {
	provider := &fakeProvider{
		suggestFn: func(ctx context.Context, req models.SuggestionRequest) (string, error) {
			return "", errors.New("service unavailable")
		},
	}
	gateway := newTestGateway(provider, 10*time.Millisecond)
	conn := newFakeConn()

	gateway.OnEdit(conn, models.SuggestionRequest{Code: "x"})

	frame := conn.next(t, time.Second)
	suggestion, ok := frame.(models.SuggestionMessage)
	if !ok || suggestion.Text != "" {
		t.Fatalf("expected empty suggestion on failure, got %#v", frame)
	}
}

func TestGatewayReleaseCancelsPending(t *testing.T) {
	provider := &fakeProvider{}
	gateway := newTestGateway(provider, 30*time.Millisecond)
	conn := newFakeConn()

	gateway.OnEdit(conn, models.SuggestionRequest{Code: "x"})
	gateway.Release(conn)

	conn.expectSilence(t, 150*time.Millisecond)
	if calls := provider.calls.Load(); calls != 0 {
		t.Fatalf("expected no provider call after release, got %d", calls)
	}
}

func TestGatewayGenerationsAreIndependentPerConnection(t *testing.T) {
	provider := &fakeProvider{}
	gateway := newTestGateway(provider, 10*time.Millisecond)
	a := newFakeConn()
	b := newFakeConn()

	if gen := gateway.OnEdit(a, models.SuggestionRequest{Code: "a"}); gen != 1 {
		t.Fatalf("expected generation 1 for a, got %d", gen)
	}
	if gen := gateway.OnEdit(b, models.SuggestionRequest{Code: "b"}); gen != 1 {
		t.Fatalf("expected generation 1 for b, got %d", gen)
	}

	for _, conn := range []*fakeConn{a, b} {
		frame := conn.next(t, time.Second)
		if _, ok := frame.(models.SuggestionMessage); !ok {
			t.Fatalf("expected suggestion, got %#v", frame)
		}
	}
}

func TestGatewayAskDeliversAnswer(t *testing.T) {
	provider := &fakeProvider{
		answerFn: func(ctx context.Context, req models.AnswerRequest) (string, error) {
			return "use a map", nil
		},
	}
	gateway := newTestGateway(provider, time.Hour) // debounce must not apply to ask
	conn := newFakeConn()

	gateway.Ask(conn, models.AnswerRequest{Question: "how?"})

	frame := conn.next(t, time.Second)
	answer, ok := frame.(models.AnswerMessage)
	if !ok || answer.Text != "use a map" || answer.Error {
		t.Fatalf("unexpected answer: %#v", frame)
	}
	if answer.Provider != "fake" {
		t.Fatalf("expected provider name, got %q", answer.Provider)
	}
}

func TestGatewayAskFailureIsErrorFlagged(t *testing.T) {
	provider := &fakeProvider{
		answerFn: func(ctx context.Context, req models.AnswerRequest) (string, error) {
			return "", errors.New("boom")
		},
	}
	gateway := newTestGateway(provider, time.Hour)
	conn := newFakeConn()

	gateway.Ask(conn, models.AnswerRequest{Question: "how?"})

	frame := conn.next(t, time.Second)
	answer, ok := frame.(models.AnswerMessage)
	if !ok || !answer.Error {
		t.Fatalf("expected error-flagged answer, got %#v", frame)
	}
}
