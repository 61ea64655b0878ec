package redisclient

import (
	"context"
	"testing"
	"time"

	"order-agent/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, ttl time.Duration) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewClientWithRedis(rdb, ttl), mr
}

func TestLoadMissingSession(t *testing.T) {
	client, _ := newTestClient(t, time.Hour)

	sess, err := client.Load(context.Background(), "573001112233")

	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestSaveAndLoadSession(t *testing.T) {
	client, mr := newTestClient(t, 24*time.Hour)
	ctx := context.Background()

	sess := &models.Session{
		Stage:     models.AwaitingLocation{ProductID: "crema-manos", Quantity: 2},
		LastTurn:  &models.Turn{User: "¿sirve?", Assistant: "Sí."},
		SentImage: true,
	}
	require.NoError(t, client.Save(ctx, "573001112233", sess))

	assert.True(t, mr.Exists("session:573001112233"))
	assert.Equal(t, 24*time.Hour, mr.TTL("session:573001112233"))

	loaded, err := client.Load(ctx, "573001112233")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, *sess, *loaded)
}

func TestSessionExpires(t *testing.T) {
	client, mr := newTestClient(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, client.Save(ctx, "u1", &models.Session{Stage: models.Browsing{ProductID: "p"}}))
	mr.FastForward(2 * time.Hour)

	sess, err := client.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestLoadInvalidSession(t *testing.T) {
	client, mr := newTestClient(t, time.Hour)
	require.NoError(t, mr.Set("session:u1", `{"state":"AWAIT_LOCATION","product":"p"}`))

	_, err := client.Load(context.Background(), "u1")

	assert.ErrorIs(t, err, models.ErrInvalidSession)
}

func TestLoadUnavailable(t *testing.T) {
	client, mr := newTestClient(t, time.Hour)
	mr.Close()

	_, err := client.Load(context.Background(), "u1")
	assert.Error(t, err)

	err = client.Save(context.Background(), "u1", models.NewSession())
	assert.Error(t, err)
}

func TestMarkMessageSeen(t *testing.T) {
	client, mr := newTestClient(t, time.Hour)
	ctx := context.Background()

	first, err := client.MarkMessageSeen(ctx, "wamid.1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := client.MarkMessageSeen(ctx, "wamid.1")
	require.NoError(t, err)
	assert.False(t, again)

	assert.Equal(t, messageDedupTTL, mr.TTL("idempotency:msg:wamid.1"))
}
