package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/angesh007/CollabCode/internal/models"
)

// SnapshotStore persists room records and document snapshots.
type SnapshotStore interface {
	CreateRoom(ctx context.Context, id string) error
	SaveSnapshot(ctx context.Context, id, code string) error
	LoadSnapshot(ctx context.Context, id string) (string, bool, error)
}

// EventPublisher receives room lifecycle events.
type EventPublisher interface {
	PublishSessionEnded(ctx context.Context, event models.SessionEndedEvent) error
}

// Hub is the process-wide registry mapping room id to Room. The registry
// mutex is held only for lookup, create, join, leave and evict; message
// processing runs under each room's own lock so rooms never contend.
type Hub struct {
	log *zap.Logger

	mu    sync.Mutex
	rooms map[string]*Room

	store          SnapshotStore
	persistOnEvict bool
	publisher      EventPublisher
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:   log,
		rooms: make(map[string]*Room),
	}
}

// AttachStore enables room persistence. When persistOnEvict is set, document
// snapshots survive eviction and are reloaded on the next connect to the
// same room id; otherwise eviction discards the document.
func (h *Hub) AttachStore(store SnapshotStore, persistOnEvict bool) {
	h.store = store
	h.persistOnEvict = persistOnEvict
}

// AttachPublisher enables session lifecycle events.
func (h *Hub) AttachPublisher(p EventPublisher) {
	h.publisher = p
}

// CreateRoom generates a fresh room id, registers an empty room, and
// persists the room record when a store is attached.
func (h *Hub) CreateRoom(ctx context.Context) (string, error) {
	id := uuid.NewString()

	if h.store != nil {
		if err := h.store.CreateRoom(ctx, id); err != nil {
			return "", err
		}
	}

	h.mu.Lock()
	h.rooms[id] = NewRoom(id)
	h.mu.Unlock()

	h.log.Info("room created", zap.String("room_id", id))
	return id, nil
}

// Connect registers the client with the room, creating the room lazily when
// the id is unknown (shareable-URL semantics: joining never fails on a
// missing room). Lookup-or-create and join happen under the registry lock
// so a join racing an eviction of the same id resolves atomically.
func (h *Hub) Connect(ctx context.Context, roomID string, c *Client) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[roomID]
	if !ok {
		room = NewRoom(roomID)
		if h.persistOnEvict && h.store != nil {
			if text, found, err := h.store.LoadSnapshot(ctx, roomID); err != nil {
				h.log.Warn("failed to load room snapshot", zap.String("room_id", roomID), zap.Error(err))
			} else if found {
				room.Restore(text)
			}
		}
		h.rooms[roomID] = room
	}
	room.Join(c)
	return room
}

// Disconnect removes the client from its room and evicts the room when it
// becomes empty. Idempotent: safe to call again after the transport failed.
func (h *Hub) Disconnect(roomID string, c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[roomID]
	if !ok {
		h.mu.Unlock()
		return
	}
	left := room.Leave(c)
	if left > 0 {
		h.mu.Unlock()
		return
	}
	delete(h.rooms, roomID)
	h.mu.Unlock()

	doc := room.Snapshot()
	h.log.Info("room evicted", zap.String("room_id", roomID), zap.Int64("seq", doc.Seq))

	// Eviction side effects run off the registry lock; failures are logged
	// and never reach the disconnect path.
	go h.afterEvict(room, doc)
}

func (h *Hub) afterEvict(room *Room, doc models.DocState) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if h.persistOnEvict && h.store != nil {
		if err := h.store.SaveSnapshot(ctx, room.ID, doc.Text); err != nil {
			h.log.Warn("failed to persist room snapshot", zap.String("room_id", room.ID), zap.Error(err))
		}
	}
	if h.publisher != nil {
		event := models.SessionEndedEvent{
			RoomID:      room.ID,
			FinalLength: len(doc.Text),
			DurationSec: int(time.Since(room.CreatedAt()).Seconds()),
			EndedAt:     time.Now().UTC().Format(time.RFC3339),
		}
		if err := h.publisher.PublishSessionEnded(ctx, event); err != nil {
			h.log.Warn("failed to publish session ended event", zap.String("room_id", room.ID), zap.Error(err))
		}
	}
}

// Get returns the live room for id, if any.
func (h *Hub) Get(id string) (*Room, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[id]
	return room, ok
}

// Rooms returns the currently registered rooms.
func (h *Hub) Rooms() []*Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		out = append(out, r)
	}
	return out
}

func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}
