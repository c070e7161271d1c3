package store

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const changeChannel = "pengaduan:reports:changed"

// RedisRelay carries change notices between server instances sharing one
// database, so a subscription on one instance sees writes made on another.
type RedisRelay struct {
	client   *redis.Client
	broker   *Broker
	instance string
}

func NewRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func NewRedisRelay(client *redis.Client, broker *Broker) *RedisRelay {
	return &RedisRelay{client: client, broker: broker, instance: uuid.NewString()}
}

func (r *RedisRelay) Publish(ctx context.Context) error {
	return r.client.Publish(context.WithoutCancel(ctx), changeChannel, r.instance).Err()
}

// Run replays notices from other instances into the local broker until ctx
// is done.
func (r *RedisRelay) Run(ctx context.Context) {
	sub := r.client.Subscribe(ctx, changeChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				slog.Warn("redis relay channel closed")
				return
			}
			if msg.Payload == r.instance {
				continue
			}
			r.broker.NotifyLocal()
		}
	}
}
