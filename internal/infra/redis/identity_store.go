package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"game-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// IdentityStore persists authenticated users by session id so that any instance
// can restore them.
type IdentityStore struct {
	client *redis.Client
}

func NewIdentityStore(client *redis.Client) *IdentityStore {
	return &IdentityStore{client: client}
}

// Save stores the user without its password. A non-positive ttl never expires.
func (s *IdentityStore) Save(ctx context.Context, sessionID string, user domain.User, ttl time.Duration) error {
	raw, err := json.Marshal(user.Public())
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, s.key(sessionID), raw, ttl).Err()
}

func (s *IdentityStore) Load(ctx context.Context, sessionID string) (domain.User, bool, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		// unreadable identities count as signed out
		_ = s.client.Del(ctx, s.key(sessionID)).Err()
		return domain.User{}, false, nil
	}
	return user, true, nil
}

func (s *IdentityStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

func (s *IdentityStore) key(sessionID string) string {
	return "quiz:identity:" + sessionID
}
