package session

import (
	"sync"
	"time"

	"github.com/angesh007/CollabCode/internal/models"
)

// Room holds the authoritative document state and connected clients for one
// collaboration session. Every state mutation takes r.mu, which is the
// room's serialization point: within a room all updates, chat messages and
// presence changes are applied in one well-defined order.
type Room struct {
	ID string

	mu        sync.Mutex
	clients   map[*Client]struct{}
	doc       models.DocState
	dirty     bool
	createdAt time.Time
}

func NewRoom(id string) *Room {
	return &Room{
		ID:        id,
		clients:   make(map[*Client]struct{}),
		doc:       models.DocState{},
		createdAt: time.Now(),
	}
}

// Restore seeds the document from a persisted snapshot. Only effective
// before any update has been accepted.
func (r *Room) Restore(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.doc.Seq == 0 {
		r.doc.Text = text
	}
}

// Join registers the client, hands it the current document, and announces
// the new presence count to everyone including the joiner.
func (r *Room) Join(c *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c] = struct{}{}
	c.Send(models.StateMessage{
		Type:   models.MsgState,
		Code:   r.doc.Text,
		Cursor: r.doc.Cursor,
		Sender: "server",
	})
	r.broadcastLocked(nil, models.PresenceMessage{Type: models.MsgPresence, Count: len(r.clients)})
	return len(r.clients)
}

// Leave removes the client and announces the new count to the remaining
// peers. Idempotent: a second leave for the same client is a no-op.
func (r *Room) Leave(c *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c]; !ok {
		return len(r.clients)
	}
	delete(r.clients, c)
	if len(r.clients) > 0 {
		r.broadcastLocked(nil, models.PresenceMessage{Type: models.MsgPresence, Count: len(r.clients)})
	}
	return len(r.clients)
}

func (r *Room) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

func (r *Room) Snapshot() models.DocState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc
}

func (r *Room) CreatedAt() time.Time { return r.createdAt }

// ApplyUpdate replaces the document with the sender's full text.
// Last-writer-wins by arrival order at this lock: the accepted update gets
// the next sequence number and is fanned out to every client except the
// sender. Updates from a client that already left are dropped silently.
func (r *Room) ApplyUpdate(sender *Client, code string, cursor int) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[sender]; !ok {
		return r.doc.Seq, false
	}
	r.doc.Seq++
	r.doc.Text = code
	r.doc.Cursor = cursor
	r.dirty = true
	r.broadcastLocked(sender, models.StateMessage{
		Type:   models.MsgState,
		Code:   code,
		Cursor: cursor,
		Sender: "peer",
	})
	return r.doc.Seq, true
}

// RelayChat fans a chat message out to every client including the sender;
// the sender's own UI renders its message from the broadcast round-trip so
// ordering matches what the peers see.
func (r *Room) RelayChat(sender *Client, user, text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[sender]; !ok {
		return false
	}
	r.broadcastLocked(nil, models.ChatMessage{Type: models.MsgChat, User: user, Text: text})
	return true
}

// BroadcastAll delivers a frame to every client in the room. Used for
// messages that do not originate from a member connection, e.g. AI replies.
func (r *Room) BroadcastAll(v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(nil, v)
}

// ConsumeDirty returns the current text and clears the dirty flag when the
// document changed since the last call.
func (r *Room) ConsumeDirty() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.dirty {
		return "", false
	}
	r.dirty = false
	return r.doc.Text, true
}

// broadcastLocked enqueues v to every client except skip. Callers hold r.mu;
// Send never blocks, so a backpressured client cannot stall the room.
func (r *Room) broadcastLocked(skip *Client, v any) {
	for c := range r.clients {
		if c == skip {
			continue
		}
		c.Send(v)
	}
}
