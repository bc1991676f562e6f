// Package assist mediates calls to the AI provider on behalf of individual
// connections. Suggestion requests are debounced per connection and stale
// completions are discarded, so only the newest edit's result is ever
// observable. Nothing here runs under a room's lock.
package assist

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/angesh007/CollabCode/internal/llm"
	"github.com/angesh007/CollabCode/internal/models"
)

// Conn is the delivery side of a connection. *session.Client satisfies it.
type Conn interface {
	Send(v any) bool
}

// Gateway tracks one generation counter per connection. The counter bumps on
// every edit; a suggestion captured at generation g is delivered only if the
// connection is still at g when the provider call completes.
type Gateway struct {
	provider llm.Provider
	log      *zap.Logger
	window   time.Duration
	timeout  time.Duration

	mu      sync.Mutex
	pending map[Conn]*pendingAssist
}

type pendingAssist struct {
	generation int64
	timer      *time.Timer
}

func NewGateway(provider llm.Provider, window, timeout time.Duration, log *zap.Logger) *Gateway {
	return &Gateway{
		provider: provider,
		log:      log,
		window:   window,
		timeout:  timeout,
		pending:  make(map[Conn]*pendingAssist),
	}
}

// OnEdit records a new edit for conn and schedules a suggestion request for
// it. An edit arriving inside the quiet window cancels the previously
// scheduled, not-yet-submitted request; at most the latest edit's request
// reaches the provider. Returns the edit's generation.
func (g *Gateway) OnEdit(conn Conn, req models.SuggestionRequest) int64 {
	g.mu.Lock()
	st, ok := g.pending[conn]
	if !ok {
		st = &pendingAssist{}
		g.pending[conn] = st
	}
	st.generation++
	gen := st.generation
	if st.timer != nil {
		st.timer.Stop()
	}
	st.timer = time.AfterFunc(g.window, func() { g.submit(conn, gen, req) })
	g.mu.Unlock()
	return gen
}

func (g *Gateway) submit(conn Conn, gen int64, req models.SuggestionRequest) {
	if !g.current(conn, gen) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	text, err := g.provider.Suggest(ctx, req)
	if err != nil {
		// Provider failures surface as an empty suggestion to the one
		// requester; the room never sees them.
		g.log.Warn("suggestion request failed",
			zap.String("provider", g.provider.GetProviderName()),
			zap.Int64("generation", gen),
			zap.Error(err))
		text = ""
	}

	if !g.current(conn, gen) {
		// A newer edit superseded this request while the call was in
		// flight; the result must not overwrite the newer view.
		return
	}
	conn.Send(models.SuggestionMessage{Type: models.MsgSuggestion, Text: text, Generation: gen})
}

func (g *Gateway) current(conn Conn, gen int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.pending[conn]
	return ok && st.generation == gen
}

// Ask answers an explicit question. Not debounced: each send is a discrete
// intent. Runs on its own goroutine; failures come back as an error-flagged
// answer to the requester only.
func (g *Gateway) Ask(conn Conn, req models.AnswerRequest) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
		defer cancel()

		text, err := g.provider.Answer(ctx, req)
		if err != nil {
			g.log.Warn("answer request failed",
				zap.String("provider", g.provider.GetProviderName()),
				zap.Error(err))
			conn.Send(models.AnswerMessage{
				Type:     models.MsgAnswer,
				Text:     "Error communicating with AI provider: " + truncate(err.Error(), 120),
				Provider: g.provider.GetProviderName(),
				Error:    true,
			})
			return
		}
		conn.Send(models.AnswerMessage{
			Type:     models.MsgAnswer,
			Text:     text,
			Provider: g.provider.GetProviderName(),
		})
	}()
}

// Release discards pending assist state for a disconnected connection. Any
// in-flight result for it is dropped on completion.
func (g *Gateway) Release(conn Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if st, ok := g.pending[conn]; ok {
		if st.timer != nil {
			st.timer.Stop()
		}
		delete(g.pending, conn)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
