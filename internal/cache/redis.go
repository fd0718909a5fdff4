package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var ErrCacheMiss = errors.New("cache: key not found")

var Client *redis.Client

// InitRedis connects the shared client. Redis is optional: when the ping
// fails the client is dropped and callers run without a snapshot cache.
func InitRedis(ctx context.Context, addr string) {
	if addr == "" {
		addr = "localhost:6379"
	}
	c := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("redis unavailable, snapshot cache disabled")
		_ = c.Close()
		Client = nil
		return
	}
	Client = c
	log.Info().Str("addr", addr).Msg("connected to redis")
}

// Snapshots stores JSON values under a key prefix with a fixed TTL. A nil
// client turns every call into a miss.
type Snapshots struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewSnapshots(client *redis.Client, prefix string, ttl time.Duration) *Snapshots {
	return &Snapshots{client: client, prefix: prefix, ttl: ttl}
}

func (s *Snapshots) key(id string) string {
	return s.prefix + ":" + id
}

func (s *Snapshots) Set(ctx context.Context, id string, value any) error {
	if s == nil || s.client == nil {
		return nil
	}
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", s.key(id), err)
	}
	if err := s.client.Set(ctx, s.key(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", s.key(id), err)
	}
	return nil
}

func (s *Snapshots) Get(ctx context.Context, id string, dest any) error {
	if s == nil || s.client == nil {
		return ErrCacheMiss
	}
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", s.key(id), err)
	}
	if err := sonic.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", s.key(id), err)
	}
	return nil
}
