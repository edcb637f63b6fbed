package hub

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })

	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { raw.Close() })
	return mr, raw
}

func TestRedisViewerPublishes(t *testing.T) {
	mr, raw := setupMiniredis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Subscribe before publishing, Pub/Sub has no replay.
	pubsub := raw.Subscribe(ctx, DefaultRedisChannel)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}

	v, err := NewRedisViewer(ctx, RedisConfig{URL: "redis://" + mr.Addr()}, nil)
	if err != nil {
		t.Fatalf("NewRedisViewer: %v", err)
	}
	defer v.Close()

	h := New(nil, nil)
	h.Register(v)
	if n := h.Broadcast([]byte(`{"type":"network_update"}`)); n != 1 {
		t.Fatalf("delivered=%d, want 1", n)
	}

	msg, err := pubsub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("failed to receive message: %v", err)
	}
	if msg.Payload != `{"type":"network_update"}` {
		t.Fatalf("unexpected payload %q", msg.Payload)
	}
}

func TestRedisViewerBadURL(t *testing.T) {
	if _, err := NewRedisViewer(context.Background(), RedisConfig{URL: "://nope"}, nil); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestRedisViewerSendAfterClose(t *testing.T) {
	mr, _ := setupMiniredis(t)
	v, err := NewRedisViewer(context.Background(), RedisConfig{URL: "redis://" + mr.Addr(), Channel: "custom"}, nil)
	if err != nil {
		t.Fatalf("NewRedisViewer: %v", err)
	}
	if err := v.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := v.Send([]byte("x")); err != ErrViewerClosed {
		t.Fatalf("expected ErrViewerClosed, got %v", err)
	}
}
