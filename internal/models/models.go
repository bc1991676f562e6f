package models

import (
	"strings"
	"time"
)

// Message types carried over the room websocket.
const (
	MsgUpdate     = "update"
	MsgState      = "state"
	MsgChat       = "chat"
	MsgPresence   = "presence"
	MsgAsk        = "ask"
	MsgAnswer     = "answer"
	MsgSuggestion = "suggestion"
)

// Envelope is the decoded form of an inbound client frame. All recognized
// fields are flattened into one struct; the Type tag decides which ones are
// meaningful. Unknown types and unused fields are ignored.
type Envelope struct {
	Type     string `json:"type"`
	Code     string `json:"code"`
	Cursor   int    `json:"cursor"`
	User     string `json:"user"`
	Text     string `json:"text"`
	Question string `json:"question"`
	Notes    string `json:"notes"`
	Language string `json:"language"`
}

/*** Outbound frames ***/

// StateMessage carries the authoritative document text. Sender is "server"
// for the hello sent to a freshly joined connection and "peer" when the
// state originates from another participant's update.
type StateMessage struct {
	Type   string `json:"type"`
	Code   string `json:"code"`
	Cursor int    `json:"cursor"`
	Sender string `json:"sender"`
}

type ChatMessage struct {
	Type string `json:"type"`
	User string `json:"user"`
	Text string `json:"text"`
}

type PresenceMessage struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// SuggestionMessage is delivered only to the connection whose edit produced
// it. Generation identifies the edit the suggestion belongs to.
type SuggestionMessage struct {
	Type       string `json:"type"`
	Text       string `json:"text"`
	Generation int64  `json:"generation"`
}

type AnswerMessage struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Provider string `json:"provider"`
	Error    bool   `json:"error,omitempty"`
}

/*** Collaboration session state ***/

// DocState is a room's authoritative document. Seq is assigned by the room's
// serialization point on every accepted update and only ever grows.
type DocState struct {
	Text   string `json:"text"`
	Seq    int64  `json:"seq"`
	Cursor int    `json:"cursor"`
}

/*** Assist boundary ***/

type SuggestionRequest struct {
	Code           string
	CursorPosition int
	Language       string
	Notes          string
}

type AnswerRequest struct {
	Question string
	Code     string
	Username string
}

/*** HTTP API ***/

type RoomCreateResponse struct {
	RoomID string `json:"roomId"`
}

type AutocompleteRequest struct {
	Code           string `json:"code"`
	CursorPosition int    `json:"cursorPosition"`
	Language       string `json:"language"`
	Notes          string `json:"notes,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
}

// implements the Validator interface
func (r *AutocompleteRequest) Validate() error {
	if r.Code == "" {
		return &ErrorResponse{Code: "missing_code", Message: "Code field is required"}
	}
	if r.CursorPosition < 0 || r.CursorPosition > len(r.Code) {
		return &ErrorResponse{Code: "invalid_cursor", Message: "cursorPosition must be within the code"}
	}
	if r.Language == "" {
		r.Language = "python"
	}
	return nil
}

type AutocompleteResponse struct {
	Suggestion string `json:"suggestion"`
}

type AIChatRequest struct {
	Prompt   string `json:"prompt"`
	Question string `json:"question"`
	Code     string `json:"code,omitempty"`
	RoomID   string `json:"roomId,omitempty"`
	Username string `json:"username,omitempty"`
}

// Validate accepts either prompt or question; they are aliases at this
// boundary and the non-empty one wins.
func (r *AIChatRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		r.Prompt = r.Question
	}
	if strings.TrimSpace(r.Prompt) == "" {
		return &ErrorResponse{Code: "missing_prompt", Message: "Prompt field is required"}
	}
	return nil
}

type AIChatResponse struct {
	Reply    string `json:"reply"`
	Provider string `json:"provider"`
	Error    bool   `json:"error,omitempty"`
}

// uniform error responses
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ErrorResponse) Error() string { return e.Code + ": " + e.Message }

/*** Persistence ***/

// RoomRecord is the persisted form of a room. Code holds the last flushed
// document snapshot when snapshot persistence is enabled.
type RoomRecord struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"type:text" json:"code"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (RoomRecord) TableName() string { return "rooms" }

// SessionEndedEvent is published when a room is evicted from the registry.
type SessionEndedEvent struct {
	RoomID      string `json:"roomId"`
	FinalLength int    `json:"finalLength"`
	DurationSec int    `json:"durationSeconds"`
	EndedAt     string `json:"endedAt"`
}
