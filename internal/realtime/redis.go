package realtime

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"doctrack/internal/config"
)

// NewRedisClient builds a Redis client and verifies it with a short ping.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// RedisFeed publishes and subscribes change events over Redis pub/sub.
type RedisFeed struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisFeed wraps an existing client.
func NewRedisFeed(client *redis.Client, log *slog.Logger) *RedisFeed {
	if log == nil {
		log = slog.Default()
	}
	return &RedisFeed{client: client, log: log.With("component", "realtime")}
}

var (
	_ Publisher  = (*RedisFeed)(nil)
	_ Subscriber = (*RedisFeed)(nil)
)

// Publish sends ev on the user's channel.
func (f *RedisFeed) Publish(ctx context.Context, userID string, ev ChangeEvent) error {
	payload, err := Encode(ev)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, Channel(userID), payload).Err()
}

// Subscribe listens on the user's channel until ctx is done or Close is called.
func (f *RedisFeed) Subscribe(ctx context.Context, userID string) (Subscription, error) {
	ps := f.client.Subscribe(ctx, Channel(userID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	sub := &redisSubscription{ps: ps, events: make(chan ChangeEvent, 16)}
	go sub.pump(ctx, ps.Channel(), f.log)
	return sub, nil
}

type redisSubscription struct {
	ps     *redis.PubSub
	events chan ChangeEvent
}

func (s *redisSubscription) Events() <-chan ChangeEvent { return s.events }

func (s *redisSubscription) Close() error { return s.ps.Close() }

func (s *redisSubscription) pump(ctx context.Context, in <-chan *redis.Message, log *slog.Logger) {
	defer close(s.events)
	for {
		select {
		case <-ctx.Done():
			_ = s.ps.Close()
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			ev, err := Decode([]byte(msg.Payload))
			if err != nil {
				log.Warn("realtime_event_dropped", "channel", msg.Channel, "error", err.Error())
				continue
			}
			select {
			case s.events <- ev:
			case <-ctx.Done():
				_ = s.ps.Close()
				return
			}
		}
	}
}
