package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists the session blob under a single key with a TTL, for
// clients that already run against Redis (server-rendered apps, worker
// shells). The TTL should match the refresh-token lifetime: once the blob
// expires the refresh token inside it would be rejected anyway.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore returns a store writing to key on client. A zero ttl means
// no expiry.
func NewRedisStore(client *redis.Client, key string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, key: key, ttl: ttl}
}

// Load reads and decodes the blob.
func (s *RedisStore) Load(ctx context.Context) (*State, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return Decode(raw)
}

// Save encodes and writes the blob with the configured TTL.
func (s *RedisStore) Save(ctx context.Context, state *State) error {
	raw, err := Encode(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, raw, s.ttl).Err()
}

// Clear deletes the blob. Deleting a missing key is not an error.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
