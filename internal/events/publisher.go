package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/angesh007/CollabCode/internal/models"
)

const sessionsChannel = "sessions"

// Publisher emits room lifecycle events over Redis pub/sub so other
// services can react to sessions ending (history, analytics).
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(redisAddr string) *Publisher {
	return &Publisher{
		rdb: redis.NewClient(&redis.Options{Addr: redisAddr}),
	}
}

func (p *Publisher) PublishSessionEnded(ctx context.Context, event models.SessionEndedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, sessionsChannel, payload).Err()
}

func (p *Publisher) Close() error { return p.rdb.Close() }
