package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client, ttl), mr
}

func TestCreateGetDelete(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, time.Hour)

	token, err := store.Create(ctx, Session{UserID: "u1", Email: "sam@example.com", Name: "Sam"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sess, err := store.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, "Sam", sess.Name)
	assert.False(t, sess.CreatedAt.IsZero())

	require.NoError(t, store.Delete(ctx, token))
	_, err = store.Get(ctx, token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionExpires(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t, time.Minute)

	token, err := store.Create(ctx, Session{UserID: "u1"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGetSlidesExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t, time.Minute)

	token, err := store.Create(ctx, Session{UserID: "u1"})
	require.NoError(t, err)

	mr.FastForward(40 * time.Second)
	_, err = store.Get(ctx, token)
	require.NoError(t, err)
	mr.FastForward(40 * time.Second)
	_, err = store.Get(ctx, token)
	assert.NoError(t, err)
}

func TestEmptyToken(t *testing.T) {
	store, _ := newTestStore(t, 0)
	_, err := store.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	_, err = NewStore(client, time.Minute).Get(context.Background(), "anything")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
}
