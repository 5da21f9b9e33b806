package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"truelive-router/internal/domain"
)

const redisKeyPrefix = "transcript:"

// RedisStore keeps each transcript as one JSON document without expiry.
type RedisStore struct {
	rdb redis.Cmdable
}

// NewRedisStore creates a Redis-backed TranscriptStore.
func NewRedisStore(rdb redis.Cmdable) (*RedisStore, error) {
	if rdb == nil {
		return nil, errors.New("repository: redis client must not be nil")
	}
	return &RedisStore{rdb: rdb}, nil
}

func redisKey(userID string) string {
	return redisKeyPrefix + userID
}

// Load reads the user's document; a missing key is an empty transcript.
func (s *RedisStore) Load(ctx context.Context, userID string) (domain.Transcript, error) {
	raw, err := s.rdb.Get(ctx, redisKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Transcript{}, nil
	}
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("repository: Load redis get: %w", err)
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Transcript{}, fmt.Errorf("repository: Load decode: %w", err)
	}
	return fromDocument(doc), nil
}

// Save overwrites the user's document and clears any expiry left on the key.
func (s *RedisStore) Save(ctx context.Context, userID string, t domain.Transcript) error {
	raw, err := json.Marshal(toDocument(t))
	if err != nil {
		return fmt.Errorf("repository: Save encode: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKey(userID), raw, 0).Err(); err != nil {
		return fmt.Errorf("repository: Save redis set: %w", err)
	}
	return nil
}
