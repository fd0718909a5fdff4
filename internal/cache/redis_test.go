package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type snapshot struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSnapshotsRoundTripAndTTL(t *testing.T) {
	mr, client := newMiniredis(t)
	s := NewSnapshots(client, "quote", time.Minute)
	ctx := context.Background()

	if err := s.Set(ctx, "BTC", snapshot{Symbol: "BTC", Price: 42}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("quote:BTC") {
		t.Fatal("expected prefixed key in redis")
	}
	if ttl := mr.TTL("quote:BTC"); ttl != time.Minute {
		t.Fatalf("unexpected ttl %s", ttl)
	}

	var got snapshot
	if err := s.Get(ctx, "BTC", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Symbol != "BTC" || got.Price != 42 {
		t.Fatalf("unexpected snapshot %+v", got)
	}

	mr.FastForward(2 * time.Minute)
	if err := s.Get(ctx, "BTC", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after expiry, got %v", err)
	}
}

func TestSnapshotsNilClientIsMiss(t *testing.T) {
	s := NewSnapshots(nil, "quote", time.Minute)
	if err := s.Set(context.Background(), "BTC", snapshot{}); err != nil {
		t.Fatalf("set on nil client should be a no-op, got %v", err)
	}
	var got snapshot
	if err := s.Get(context.Background(), "BTC", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
}

func TestSnapshotsCorruptValue(t *testing.T) {
	mr, client := newMiniredis(t)
	_ = mr.Set("quote:ETH", "{not json")
	s := NewSnapshots(client, "quote", time.Minute)
	var got snapshot
	if err := s.Get(context.Background(), "ETH", &got); err == nil || errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	orig := Client
	defer func() { Client = orig }()

	addr := mr.Addr()
	InitRedis(context.Background(), addr)
	if Client == nil {
		t.Fatal("expected client after successful ping")
	}
	_ = Client.Close()

	mr.Close()
	InitRedis(context.Background(), addr)
	if Client != nil {
		t.Fatal("expected nil client when redis is unreachable")
	}
}
