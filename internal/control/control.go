package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pixav/maxwell/internal/port"
)

const (
	pauseKey  = "maxwell:paused"
	statusKey = "maxwell:status"
)

// Control holds the operator-facing switches and the status snapshot cache.
// Both live in Redis so every replica sees the same flags.
type Control struct {
	client *redis.Client
}

// compile-time checks: *Control must satisfy port.PauseSwitch and port.StatusCache
var (
	_ port.PauseSwitch = (*Control)(nil)
	_ port.StatusCache = (*Control)(nil)
)

func NewControl(addr, password string) *Control {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	return &Control{client: rdb}
}

func (c *Control) Pause(ctx context.Context) error {
	log.Printf("pausing dispatch...")

	if err := c.client.Set(ctx, pauseKey, "1", 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *Control) Resume(ctx context.Context) error {
	log.Printf("resuming dispatch...")

	if err := c.client.Del(ctx, pauseKey).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

func (c *Control) Paused(ctx context.Context) (bool, error) {
	_, err := c.client.Get(ctx, pauseKey).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}
	return true, nil
}

func (c *Control) GetStatusSnapshot(ctx context.Context) (*port.StatusOutput, error) {
	val, err := c.client.Get(ctx, statusKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var out port.StatusOutput
	if err := json.Unmarshal([]byte(val), &out); err != nil {
		return nil, fmt.Errorf("unmarshal failed: %w", err)
	}

	return &out, nil
}

func (c *Control) SetStatusSnapshot(ctx context.Context, out *port.StatusOutput, ttl time.Duration) error {
	log.Printf("caching status snapshot for %s...", ttl)

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	if err := c.client.Set(ctx, statusKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}
