package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"announce-qa-be/pkg/llm"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "chat:history:"
	redisTTL       = 24 * time.Hour
)

// RedisStore keeps conversation history in Redis so it survives restarts
// and is shared across instances.
type RedisStore struct {
	client *redis.Client
}

var _ Store = &RedisStore{}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &RedisStore{client: redis.NewClient(opts)}, nil
}

func (s *RedisStore) Load(ctx context.Context, conversationID string) ([]llm.Message, error) {
	raw, err := s.client.LRange(ctx, redisKeyPrefix+conversationID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	messages := make([]llm.Message, 0, len(raw))
	for _, item := range raw {
		var msg llm.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue // skip corrupt entries rather than failing the turn
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (s *RedisStore) Append(ctx context.Context, conversationID string, messages ...llm.Message) error {
	key := redisKeyPrefix + conversationID

	values := make([]interface{}, 0, len(messages))
	for _, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}
		values = append(values, data)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.Expire(ctx, key, redisTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, conversationID string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+conversationID).Err(); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
