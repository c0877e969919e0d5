// Package redisstore keeps per-user progress documents in Redis.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/colonyops/cadence/internal/core/persist"
	"github.com/colonyops/cadence/internal/core/progress"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "cadence:progress:"

// Key returns the Redis key holding userID's document.
func Key(userID string) string { return keyPrefix + userID }

// Store implements server.ProgressStore on a Redis client.
type Store struct {
	rdb *goredis.Client
}

// New wraps an existing client.
func New(rdb *goredis.Client) *Store {
	return &Store{rdb: rdb}
}

// Open connects to addr and verifies the connection with a ping.
func Open(ctx context.Context, addr string) (*Store, error) {
	if addr == "" {
		return nil, errors.New("redis: empty address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{rdb: rdb}, nil
}

// Load returns the stored document or an error wrapping persist.ErrNoData.
func (s *Store) Load(ctx context.Context, userID string) (progress.Data, error) {
	raw, err := s.rdb.Get(ctx, Key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return progress.Data{}, fmt.Errorf("user %q: %w", userID, persist.ErrNoData)
		}
		return progress.Data{}, fmt.Errorf("redis get %q: %w", userID, err)
	}

	var data progress.Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return progress.Data{}, fmt.Errorf("decode progress %q: %w", userID, err)
	}
	return data, nil
}

// Save replaces the document for userID.
func (s *Store) Save(ctx context.Context, userID string, data progress.Data) error {
	if userID == "" {
		return errors.New("save progress: empty user id")
	}
	if data.DeletedIDs == nil {
		data.DeletedIDs = []string{}
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode progress %q: %w", userID, err)
	}
	if err := s.rdb.Set(ctx, Key(userID), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", userID, err)
	}
	return nil
}

// Delete removes userID's document.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, Key(userID)).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", userID, err)
	}
	return nil
}

// Close releases the client.
func (s *Store) Close() error { return s.rdb.Close() }
