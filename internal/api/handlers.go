package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/angesh007/CollabCode/internal/assist"
	"github.com/angesh007/CollabCode/internal/config"
	"github.com/angesh007/CollabCode/internal/llm"
	"github.com/angesh007/CollabCode/internal/middleware"
	"github.com/angesh007/CollabCode/internal/models"
	"github.com/angesh007/CollabCode/internal/session"
	"github.com/angesh007/CollabCode/internal/utils"
)

const (
	readWait       = 60 * time.Second
	maxMessageSize = 512 * 1024
)

type Handlers struct {
	log      *zap.Logger
	cfg      *config.Config
	hub      *session.Hub
	gateway  *assist.Gateway
	provider llm.Provider
}

func NewHandlers(log *zap.Logger, cfg *config.Config, hub *session.Hub, gateway *assist.Gateway, provider llm.Provider) *Handlers {
	return &Handlers{
		log:      log,
		cfg:      cfg,
		hub:      hub,
		gateway:  gateway,
		provider: provider,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

func (h *Handlers) CreateRoom(w http.ResponseWriter, r *http.Request) {
	id, err := h.hub.CreateRoom(r.Context())
	if err != nil {
		h.log.Error("failed to create room", zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Code:    "room_create_failed",
			Message: "Failed to create room",
		})
		return
	}
	utils.JSON(w, http.StatusOK, models.RoomCreateResponse{RoomID: id})
}

// Autocomplete serves one-shot suggestion requests. Provider failures come
// back as an empty suggestion, never as an error to the editor.
func (h *Handlers) Autocomplete(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.AutocompleteRequest](r)

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.AssistTimeout)
	defer cancel()

	suggestion, err := h.provider.Suggest(ctx, models.SuggestionRequest{
		Code:           req.Code,
		CursorPosition: req.CursorPosition,
		Language:       req.Language,
		Notes:          req.Notes,
	})
	if err != nil {
		h.log.Warn("autocomplete failed",
			zap.String("provider", h.provider.GetProviderName()),
			zap.Error(err))
		suggestion = ""
	}
	utils.JSON(w, http.StatusOK, models.AutocompleteResponse{Suggestion: suggestion})
}

// AIChat answers a free-form question. When roomId names a live room, the
// reply is also broadcast into it as a chat message attributed to the
// provider, so everyone sees what the AI said.
func (h *Handlers) AIChat(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.AIChatRequest](r)

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.AssistTimeout)
	defer cancel()

	resp := models.AIChatResponse{Provider: h.provider.GetProviderName()}
	reply, err := h.provider.Answer(ctx, models.AnswerRequest{
		Question: req.Prompt,
		Code:     req.Code,
		Username: req.Username,
	})
	if err != nil {
		h.log.Warn("ai chat failed",
			zap.String("provider", h.provider.GetProviderName()),
			zap.Error(err))
		resp.Reply = "Error communicating with AI provider: " + truncate(err.Error(), 120)
		resp.Error = true
	} else {
		resp.Reply = reply
	}

	// Failed calls stay between the requester and the gateway; only real
	// replies are shared with the room.
	if req.RoomID != "" && !resp.Error {
		if room, ok := h.hub.Get(req.RoomID); ok {
			room.BroadcastAll(models.ChatMessage{
				Type: models.MsgChat,
				User: resp.Provider,
				Text: resp.Reply,
			})
		}
	}

	utils.JSON(w, http.StatusOK, resp)
}

/*** Room WebSocket: shared editor + chat + assist ***/

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func (h *Handlers) RoomWS(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "anon"
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	client := session.NewClient(conn, name, h.cfg.SendBufferSize, h.cfg.MessageRate)
	go client.WritePump()

	room := h.hub.Connect(r.Context(), roomID, client)
	defer func() {
		h.gateway.Release(client)
		h.hub.Disconnect(roomID, client)
		client.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})

	// Event loop: one goroutine per connection. Parse failures skip only
	// the offending frame; read errors end only this connection.
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if !client.Allow() {
			continue
		}

		var msg models.Envelope
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case models.MsgUpdate:
			if _, ok := room.ApplyUpdate(client, msg.Code, msg.Cursor); !ok {
				continue
			}
			language := msg.Language
			if language == "" {
				language = "python"
			}
			h.gateway.OnEdit(client, models.SuggestionRequest{
				Code:           msg.Code,
				CursorPosition: msg.Cursor,
				Language:       language,
				Notes:          msg.Notes,
			})

		case models.MsgChat:
			if msg.Text == "" {
				continue
			}
			user := msg.User
			if user == "" {
				user = client.DisplayName
			}
			room.RelayChat(client, user, msg.Text)

		case models.MsgAsk:
			if msg.Question == "" {
				continue
			}
			h.gateway.Ask(client, models.AnswerRequest{
				Question: msg.Question,
				Code:     msg.Code,
				Username: client.DisplayName,
			})

		default:
			// unknown frame types are dropped
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
