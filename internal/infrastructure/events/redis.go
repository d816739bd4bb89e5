package events

import (
	"context"
	"encoding/json"

	"p2p-lending/internal/domain/event"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisChannel = "p2p:events"

// RedisPublisher fans events out over Redis pub/sub.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, e event.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.channel, data).Err()
}
