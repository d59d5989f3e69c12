package memory

import (
	"context"
	"sync"
	"time"

	"game-quiz-service/internal/domain"
)

// IdentityStore keeps authenticated users by session id in process memory.
type IdentityStore struct {
	now func() time.Time

	mu         sync.RWMutex
	identities map[string]identity
}

type identity struct {
	user      domain.User
	expiresAt time.Time
}

func NewIdentityStore() *IdentityStore {
	return &IdentityStore{
		now:        time.Now,
		identities: make(map[string]identity),
	}
}

// Save stores the user without its password. A non-positive ttl never expires.
func (s *IdentityStore) Save(_ context.Context, sessionID string, user domain.User, ttl time.Duration) error {
	entry := identity{user: user.Public()}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.identities[sessionID] = entry
	s.mu.Unlock()
	return nil
}

func (s *IdentityStore) Load(_ context.Context, sessionID string) (domain.User, bool, error) {
	s.mu.RLock()
	entry, ok := s.identities[sessionID]
	s.mu.RUnlock()
	if !ok {
		return domain.User{}, false, nil
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(s.now()) {
		s.mu.Lock()
		delete(s.identities, sessionID)
		s.mu.Unlock()
		return domain.User{}, false, nil
	}
	return entry.user, true, nil
}

func (s *IdentityStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.identities, sessionID)
	return nil
}
