package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwangaza-health/booking-gateway/internal/hospital"
)

type fakeInvalidator struct {
	calls []string
	err   error
}

func (f *fakeInvalidator) Logout(_ context.Context, token string) error {
	f.calls = append(f.calls, token)
	return f.err
}

func newTestStore(t *testing.T, auth Invalidator) (*Store, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, auth, nil), mr, client
}

func TestSetTokenAuthenticates(t *testing.T) {
	s, _, _ := newTestStore(t, nil)
	ctx := context.Background()

	assert.Equal(t, StateAnonymous, s.State())
	assert.False(t, s.IsAuthenticated())

	require.NoError(t, s.SetToken(ctx, "tok123"))

	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, StateTokenOnly, s.State())
	assert.Nil(t, s.User(), "SetToken must not touch the profile")
}

func TestSetUserDoesNotTouchToken(t *testing.T) {
	s, _, _ := newTestStore(t, nil)
	ctx := context.Background()

	require.NoError(t, s.SetUser(ctx, &hospital.Profile{Username: "wanjiku"}))
	assert.False(t, s.IsAuthenticated(), "profile alone must not authenticate")
	assert.Equal(t, StateAnonymous, s.State())

	require.NoError(t, s.SetToken(ctx, "tok123"))
	assert.Equal(t, StateAuthenticated, s.State())
	assert.Equal(t, "wanjiku", s.User().Username)
}

func TestPersistedShape(t *testing.T) {
	s, mr, _ := newTestStore(t, nil)
	ctx := context.Background()

	require.NoError(t, s.SetToken(ctx, "tok123"))
	require.NoError(t, s.SetUser(ctx, &hospital.Profile{Username: "wanjiku", Email: "w@example.com"}))

	raw, err := mr.Get("auth-storage")
	require.NoError(t, err)

	var p map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, "tok123", p["token"])
	assert.Equal(t, true, p["isAuthenticated"])
	user, ok := p["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "wanjiku", user["username"])
}

func TestLoadRestoresSession(t *testing.T) {
	s, mr, client := newTestStore(t, nil)
	ctx := context.Background()

	require.NoError(t, s.SetToken(ctx, "tok123"))
	require.NoError(t, s.SetUser(ctx, &hospital.Profile{Username: "wanjiku"}))

	// A new store over the same redis plays the role of a restarted
	// process.
	restarted := NewStore(client, nil, nil)
	require.NoError(t, restarted.Load(ctx))
	assert.Equal(t, "tok123", restarted.Token())
	assert.Equal(t, StateAuthenticated, restarted.State())

	mr.FlushAll()
	fresh := NewStore(client, nil, nil)
	require.NoError(t, fresh.Load(ctx), "missing key must not be an error")
	assert.Equal(t, StateAnonymous, fresh.State())
}

func TestLogoutClearsEvenWhenRemoteFails(t *testing.T) {
	auth := &fakeInvalidator{err: errors.New("network down")}
	s, mr, _ := newTestStore(t, auth)
	ctx := context.Background()

	require.NoError(t, s.SetToken(ctx, "tok123"))
	require.NoError(t, s.SetUser(ctx, &hospital.Profile{Username: "wanjiku"}))

	require.NoError(t, s.Logout(ctx))

	assert.Equal(t, []string{"tok123"}, auth.calls, "remote logout must carry the token")
	assert.Equal(t, StateAnonymous, s.State())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())

	raw, err := mr.Get("auth-storage")
	require.NoError(t, err)
	var p persisted
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Empty(t, p.Token)
	assert.False(t, p.IsAuthenticated)
	assert.Nil(t, p.User)
}

func TestLogoutWhenAnonymousSkipsRemoteCall(t *testing.T) {
	auth := &fakeInvalidator{}
	s, _, _ := newTestStore(t, auth)

	require.NoError(t, s.Logout(context.Background()))
	assert.Empty(t, auth.calls)
}

func TestJWTTokenDrivesKeyTTL(t *testing.T) {
	s, mr, _ := newTestStore(t, nil)
	ctx := context.Background()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "patient-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	require.NoError(t, s.SetToken(ctx, token))

	ttl := mr.TTL("auth-storage")
	assert.Greater(t, ttl, 55*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)
}

func TestOpaqueTokenHasNoTTL(t *testing.T) {
	s, mr, _ := newTestStore(t, nil)
	require.NoError(t, s.SetToken(context.Background(), "opaque-token"))
	assert.Equal(t, time.Duration(0), mr.TTL("auth-storage"))
}
