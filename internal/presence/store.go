package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists presence records. The in-memory directory stays the source
// of "who is reachable"; the store is the durable copy that survives restarts.
type Store interface {
	Upsert(ctx context.Context, rec Record) error
	Get(ctx context.Context, userID string) (*Record, error)
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func presenceKey(userID string) string {
	return "presence:" + userID
}

func (s *RedisStore) Upsert(ctx context.Context, rec Record) error {
	fields := map[string]any{
		"status":        string(rec.Status),
		"last_seen":     rec.LastSeen.UTC().Format(time.RFC3339Nano),
		"connection_id": rec.ConnectionID,
	}
	if err := s.client.HSet(ctx, presenceKey(rec.UserID), fields).Err(); err != nil {
		return fmt.Errorf("upsert presence for %s: %w", rec.UserID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*Record, error) {
	vals, err := s.client.HGetAll(ctx, presenceKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get presence for %s: %w", userID, err)
	}
	if len(vals) == 0 {
		return nil, nil
	}

	rec := &Record{
		UserID:       userID,
		Status:       Status(vals["status"]),
		ConnectionID: vals["connection_id"],
	}
	if ts, err := time.Parse(time.RFC3339Nano, vals["last_seen"]); err == nil {
		rec.LastSeen = ts
	}
	return rec, nil
}
