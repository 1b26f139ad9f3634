package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// RedisStore stores each session as a JSON string with a TTL.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore returns a Store backed by client.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

// Get reads the document with GETEX so the read also slides the expiry.
func (r *RedisStore) Get(ctx context.Context, id string, ttl time.Duration) (Data, error) {
	raw, err := r.client.GetEx(ctx, keyPrefix+id, ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return Data{}, ErrNotFound
	}
	if err != nil {
		return Data{}, err
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return Data{}, err
	}

	return data, nil
}

// Set replaces the document.
func (r *RedisStore) Set(ctx context.Context, id string, data Data, ttl time.Duration) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, keyPrefix+id, raw, ttl).Err()
}

// Delete removes the document.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, keyPrefix+id).Err()
}
