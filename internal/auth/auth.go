package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strconv"
	"strings"
	"time"

	"game-quiz-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the part of the data service authentication needs.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	UserByEmail(ctx context.Context, email string) (domain.User, bool)
}

// IdentityStore persists the signed-in user under a session id.
type IdentityStore interface {
	Save(ctx context.Context, sessionID string, user domain.User, ttl time.Duration) error
	Load(ctx context.Context, sessionID string) (domain.User, bool, error)
	Delete(ctx context.Context, sessionID string) error
}

// Session is what a successful sign-in hands back to the client.
type Session struct {
	Token     string      `json:"token"`
	User      domain.User `json:"user"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

type Service struct {
	users      UserStore
	identities IdentityStore
	secret     []byte
	ttl        time.Duration
	now        func() time.Time
}

func NewService(users UserStore, identities IdentityStore, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		users:      users,
		identities: identities,
		secret:     []byte(secret),
		ttl:        ttl,
		now:        time.Now,
	}
}

// WithClock replaces the clock; intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Register creates a regular user with a bcrypt-hashed password and signs it in.
func (s *Service) Register(ctx context.Context, username, email, password string) (Session, error) {
	if password == "" {
		return Session{}, fmt.Errorf("%w: password is required", domain.ErrValidation)
	}
	hashed, err := HashPassword(password)
	if err != nil {
		return Session{}, err
	}
	user, err := s.users.CreateUser(ctx, domain.User{
		Username: username,
		Email:    email,
		Password: hashed,
	})
	if err != nil {
		return Session{}, err
	}
	return s.issue(ctx, user)
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, ok := s.users.UserByEmail(ctx, strings.TrimSpace(email))
	if !ok || !checkPassword(user.Password, password) {
		return Session{}, domain.ErrInvalidCredentials
	}
	return s.issue(ctx, user)
}

// Authenticate restores the user behind a token.
func (s *Service) Authenticate(ctx context.Context, token string) (domain.User, error) {
	claims, err := s.parse(token)
	if err != nil {
		return domain.User{}, err
	}
	user, ok, err := s.identities.Load(ctx, claims.ID)
	if err != nil {
		return domain.User{}, fmt.Errorf("load identity: %w", err)
	}
	if !ok || strconv.FormatInt(user.ID, 10) != claims.Subject {
		return domain.User{}, domain.ErrUnauthenticated
	}
	return user, nil
}

// Logout forgets the session; the token stops authenticating immediately.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	return s.identities.Delete(ctx, claims.ID)
}

// Remember refreshes the stored identity after a profile change.
func (s *Service) Remember(ctx context.Context, token string, user domain.User) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	ttl := s.ttl
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
	}
	return s.identities.Save(ctx, claims.ID, user, ttl)
}

func (s *Service) issue(ctx context.Context, user domain.User) (Session, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   strconv.FormatInt(user.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	if err := s.identities.Save(ctx, claims.ID, user, s.ttl); err != nil {
		return Session{}, fmt.Errorf("save identity: %w", err)
	}
	return Session{Token: token, User: user.Public(), ExpiresAt: expires}, nil
}

func (s *Service) parse(token string) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if claims.ID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return claims, nil
}

// HashPassword hashes a new password for storage.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// checkPassword accepts bcrypt hashes and, for seed records, plaintext.
func checkPassword(stored, given string) bool {
	if stored == "" {
		return false
	}
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
