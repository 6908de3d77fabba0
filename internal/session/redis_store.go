package session

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/sma-fee-sync/pkg/errors"
)

// RedisStore reads the session token from a Redis key, letting several local
// tools share one signed-in session.
type RedisStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

// NewRedisStore constructs a RedisStore for the given key.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key, now: time.Now}
}

// Token implements TokenProvider.
func (s *RedisStore) Token(ctx context.Context) (string, error) {
	raw, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", appErrors.Clone(appErrors.ErrUnauthorized, "no session token found, please sign in")
		}
		return "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "failed to read session token")
	}

	token := strings.TrimSpace(raw)
	if token == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "session token is empty, please sign in")
	}

	if err := checkExpiry(token, s.now()); err != nil {
		return "", err
	}
	return token, nil
}
