package realtime

import (
	"context"
	"encoding/json"

	"rateapp/internal/redis"

	"github.com/google/uuid"
)

// Topic names group subscribers per chat or session.
func ChatTopic(chatID uuid.UUID) string       { return "chat:" + chatID.String() }
func SessionTopic(sessionID uuid.UUID) string { return "session:" + sessionID.String() }

// channelPrefix namespaces the redis pub/sub channels used for fan-out.
const channelPrefix = "rt:"

// Envelope is the wire form of a broadcast event.
type Envelope struct {
	Topic   string      `json:"topic"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Publisher is the narrow fan-out interface the services depend on.
// State is always persisted before Publish is called; delivery is
// best-effort and never affects correctness.
type Publisher interface {
	Publish(ctx context.Context, topic, event string, payload interface{}) error
}

// RedisPublisher broadcasts events over redis pub/sub. Every node's Hub
// subscribes to the rt:* pattern and fans messages out to its local
// websocket clients.
type RedisPublisher struct {
	redis *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{redis: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, topic, event string, payload interface{}) error {
	data, err := json.Marshal(Envelope{Topic: topic, Event: event, Payload: payload})
	if err != nil {
		return err
	}
	return p.redis.Publish(ctx, channelPrefix+topic, data)
}
