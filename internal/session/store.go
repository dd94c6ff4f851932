// Package session holds the client's proof of authentication: the
// bearer token plus the cached patient profile, persisted so a restart
// does not log the user out.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/mwangaza-health/booking-gateway/internal/hospital"
	"github.com/mwangaza-health/booking-gateway/pkg/logging"
)

// storageKey matches the storage namespace of the web client this
// gateway replaces, so existing persisted sessions keep working.
const storageKey = "auth-storage"

// State is the session's explicit variant. A token without a profile is
// a normal transient state right after login, before the profile fetch
// lands.
type State string

const (
	StateAnonymous     State = "anonymous"
	StateTokenOnly     State = "token_only"
	StateAuthenticated State = "authenticated"
)

// Invalidator performs the best-effort remote session teardown.
// *hospital.Client satisfies it.
type Invalidator interface {
	Logout(ctx context.Context, token string) error
}

// persisted is the durable shape: exactly the token, profile and
// derived flag — never transient form state.
type persisted struct {
	Token           string            `json:"token"`
	User            *hospital.Profile `json:"user"`
	IsAuthenticated bool              `json:"isAuthenticated"`
}

// Store is a single-writer session container. All mutation goes through
// named operations, each of which re-derives the authenticated flag and
// writes the state through to redis.
type Store struct {
	mu     sync.Mutex
	redis  *redis.Client
	auth   Invalidator
	logger *logging.Logger

	token string
	user  *hospital.Profile
}

// NewStore creates a session store. Call Load before serving requests.
func NewStore(redisClient *redis.Client, auth Invalidator, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{redis: redisClient, auth: auth, logger: logger}
}

// Load restores the persisted session, if any.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.redis.Get(ctx, storageKey).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("session: load: %w", err)
	}
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("session: decode persisted state: %w", err)
	}

	s.mu.Lock()
	s.token = p.Token
	s.user = p.User
	s.mu.Unlock()
	return nil
}

// SetToken stores a fresh token and marks the session authenticated.
// The profile is left untouched; it may lag the token briefly.
func (s *Store) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return s.persist(ctx)
}

// SetUser caches the patient profile without touching the token.
func (s *Store) SetUser(ctx context.Context, user *hospital.Profile) error {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return s.persist(ctx)
}

// Logout tears the session down. The remote invalidation is best
// effort: a failure is logged and the local state is cleared and
// persisted regardless.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	if token != "" && s.auth != nil {
		if err := s.auth.Logout(ctx, token); err != nil {
			s.logger.Error("remote session invalidation failed", "error", err)
		}
	}

	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
	return s.persist(ctx)
}

// Token returns the current bearer token, empty when anonymous.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User returns the cached profile, nil when none is cached.
func (s *Store) User() *hospital.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// IsAuthenticated is true iff a token is present.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// State returns the explicit session variant.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.token == "":
		return StateAnonymous
	case s.user == nil:
		return StateTokenOnly
	default:
		return StateAuthenticated
	}
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	p := persisted{
		Token:           s.token,
		User:            s.user,
		IsAuthenticated: s.token != "",
	}
	s.mu.Unlock()

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("session: encode state: %w", err)
	}
	if err := s.redis.Set(ctx, storageKey, data, tokenTTL(p.Token)).Err(); err != nil {
		return fmt.Errorf("session: persist: %w", err)
	}
	return nil
}

// tokenTTL lets the persisted session expire with its token when the
// token is a JWT carrying an exp claim. Opaque tokens persist without a
// deadline, as the web client's storage did.
func tokenTTL(token string) time.Duration {
	if token == "" {
		return 0
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return 0
	}
	if claims.ExpiresAt == nil {
		return 0
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return 0
	}
	return ttl
}
