package hub

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisChannel is the Pub/Sub channel network updates are mirrored to.
const DefaultRedisChannel = "netwatch:network_update"

const publishTimeout = 2 * time.Second

// RedisConfig configures the Pub/Sub mirror.
type RedisConfig struct {
	URL       string
	Password  string
	Channel   string
	QueueSize int
}

// RedisViewer republishes every payload on a Redis channel so dashboards
// in other processes can follow the stream.
type RedisViewer struct {
	client  *redis.Client
	channel string
	queue   *QueueViewer
	done    chan struct{}
	logger  *slog.Logger
}

// NewRedisViewer connects to Redis and starts the publish pump.
func NewRedisViewer(ctx context.Context, cfg RedisConfig, logger *slog.Logger) (*RedisViewer, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	if cfg.Channel == "" {
		cfg.Channel = DefaultRedisChannel
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &RedisViewer{
		client:  client,
		channel: cfg.Channel,
		queue:   NewQueueViewer(cfg.QueueSize),
		done:    make(chan struct{}),
		logger:  logger.With("component", "redis-mirror", "channel", cfg.Channel),
	}
	go r.pump()
	return r, nil
}

// Send queues payload for publishing.
func (r *RedisViewer) Send(payload []byte) error {
	return r.queue.Send(payload)
}

func (r *RedisViewer) pump() {
	defer close(r.done)
	for {
		select {
		case <-r.queue.Done():
			return
		case p := <-r.queue.C():
			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			if err := r.client.Publish(ctx, r.channel, p).Err(); err != nil {
				r.logger.Warn("publish failed", "error", err)
			}
			cancel()
		}
	}
}

// Close stops the pump and closes the Redis connection.
func (r *RedisViewer) Close() error {
	r.queue.Close()
	<-r.done
	return r.client.Close()
}
