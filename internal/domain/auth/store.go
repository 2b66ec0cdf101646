package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ping-auth-server/internal/resource"
)

const authCodePrefix = "oauth:code:"

type RedisCodeStore struct {
	redis *resource.Lazy[*redis.Client]
}

func NewCodeStore(redis *resource.Lazy[*redis.Client]) *RedisCodeStore {
	return &RedisCodeStore{
		redis: redis,
	}
}

func authCodeKey(code string) string {
	return authCodePrefix + code
}

// SaveAuthCode overwrites any entry already stored under code.
func (s *RedisCodeStore) SaveAuthCode(ctx context.Context, code string, grant AuthorizationGrant, ttl time.Duration) error {
	payload, err := json.Marshal(grant)
	if err != nil {
		return fmt.Errorf("encode auth code: %w", err)
	}
	return s.redis.With(ctx, func(c *redis.Client) error {
		if err := c.Set(ctx, authCodeKey(code), string(payload), ttl).Err(); err != nil {
			return fmt.Errorf("save auth code: %w", err)
		}
		return nil
	})
}

// ConsumeAuthCode uses GETDEL so two redemptions of the same code cannot both see it.
func (s *RedisCodeStore) ConsumeAuthCode(ctx context.Context, code string) (*AuthorizationGrant, error) {
	var raw string
	err := s.redis.With(ctx, func(c *redis.Client) error {
		var err error
		raw, err = c.GetDel(ctx, authCodeKey(code)).Result()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("consume auth code: %w", err)
	}

	var grant AuthorizationGrant
	if err := json.Unmarshal([]byte(raw), &grant); err != nil {
		return nil, fmt.Errorf("decode auth code: %w", err)
	}
	return &grant, nil
}
