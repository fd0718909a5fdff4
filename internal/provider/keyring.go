package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrRateLimited   = errors.New("rate limited")
	ErrKeysExhausted = errors.New("api keys exhausted")
	ErrNoAPIKeys     = errors.New("no api keys configured")
)

const (
	DefaultRetryDelay = 60 * time.Second
	DefaultMaxCycles  = 5
)

// KeyRing hands out API keys round-robin. The cursor survives between calls
// so consecutive requests spread over all keys.
type KeyRing struct {
	mu     sync.Mutex
	keys   []string
	cursor int

	retryDelay time.Duration
	maxCycles  int
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewKeyRing(keys []string, retryDelay time.Duration, maxCycles int) *KeyRing {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			cleaned = append(cleaned, k)
		}
	}
	if retryDelay < 0 {
		retryDelay = DefaultRetryDelay
	}
	if maxCycles <= 0 {
		maxCycles = DefaultMaxCycles
	}
	return &KeyRing{
		keys:       cleaned,
		retryDelay: retryDelay,
		maxCycles:  maxCycles,
		sleep:      sleepContext,
	}
}

func (r *KeyRing) Len() int { return len(r.keys) }

// start reserves the first key index for one Do call.
func (r *KeyRing) start() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.cursor
	r.cursor = (r.cursor + 1) % len(r.keys)
	return idx
}

// Do calls fn with successive keys while fn reports ErrRateLimited. Each call
// takes its own start position from the shared cursor and then walks the ring
// locally, so concurrent calls each try every key once per cycle. Once every
// key has been rate limited in a cycle the ring waits retryDelay and starts a
// new cycle. After maxCycles full cycles it returns ErrKeysExhausted. Any
// other error from fn is returned as is.
func (r *KeyRing) Do(ctx context.Context, fn func(ctx context.Context, key string) error) error {
	if len(r.keys) == 0 {
		return ErrNoAPIKeys
	}

	first := r.start()
	for cycle := 1; ; cycle++ {
		for i := range r.keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := fn(ctx, r.keys[(first+i)%len(r.keys)])
			if err == nil {
				return nil
			}
			if !errors.Is(err, ErrRateLimited) {
				return err
			}
		}

		if cycle >= r.maxCycles {
			return fmt.Errorf("%w after %d cycles", ErrKeysExhausted, cycle)
		}
		log.Warn().Int("cycle", cycle).Dur("delay", r.retryDelay).Msg("all api keys rate limited, waiting")
		if err := r.sleep(ctx, r.retryDelay); err != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
