package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func sampleSession(ttl time.Duration) *domain.Session {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Session{
		ID:        "sess-1",
		User:      domain.User{ID: "7", Email: "ann@example.com", History: "1001"},
		Token:     "tok",
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// ---------------------------------------------------------------------------
// RedisStore
// ---------------------------------------------------------------------------

func TestRedisStore_SaveAndGet(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	s := sampleSession(time.Hour)
	require.NoError(t, store.Save(ctx, s))

	assert.True(t, mr.Exists("session:sess-1"))
	ttl := mr.TTL("session:sess-1")
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour, "ttl %s", ttl)

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, s.User, got.User)
	assert.Equal(t, "tok", got.Token)
	assert.True(t, s.ExpiresAt.Equal(got.ExpiresAt))
}

func TestRedisStore_GetMissing(t *testing.T) {
	store, _ := setupRedisStore(t)

	_, err := store.Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestRedisStore_ExpiresWithTTL(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleSession(time.Minute)))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "sess-1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestRedisStore_SaveExpiredRejected(t *testing.T) {
	store, _ := setupRedisStore(t)

	err := store.Save(context.Background(), sampleSession(-time.Minute))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestRedisStore_Delete(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleSession(time.Hour)))
	require.NoError(t, store.Delete(ctx, "sess-1"))
	assert.False(t, mr.Exists("session:sess-1"))

	assert.NoError(t, store.Delete(ctx, "sess-1"))
}

func TestRedisStore_ConnectionError(t *testing.T) {
	store, mr := setupRedisStore(t)
	mr.Close()

	_, err := store.Get(context.Background(), "sess-1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrNotFound))
}

// ---------------------------------------------------------------------------
// MemoryStore
// ---------------------------------------------------------------------------

func TestMemoryStore_SaveGetDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleSession(time.Hour)))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, domain.HistoryRef("1001"), got.User.History)

	require.NoError(t, store.Delete(ctx, "sess-1"))
	_, err = store.Get(ctx, "sess-1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleSession(time.Minute)))

	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err := store.Get(ctx, "sess-1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	other := sampleSession(time.Hour)
	other.ID = "sess-2"
	require.NoError(t, store.Save(ctx, other))
	assert.Len(t, store.sessions, 1)
}
