package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/canvass/pkg/adapters/redis"
	"github.com/aretw0/canvass/pkg/domain"
	"github.com/aretw0/canvass/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunSessionStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_KeyLayout(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("test:"))
	ctx := context.Background()
	key := domain.SessionKey{SurveyID: "CULTURE_DISCRIMINATION", SessionID: "TESTSESSION"}

	require.NoError(t, store.Save(ctx, key, domain.NewSessionState(key, time.Now())))
	assert.True(t, mr.Exists("test:CULTURE_DISCRIMINATION/TESTSESSION"))

	members, err := mr.ZMembers("test:index")
	require.NoError(t, err)
	assert.Equal(t, []string{"CULTURE_DISCRIMINATION/TESTSESSION"}, members)
}

func TestRedisStore_TTL(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(time.Minute))
	ctx := context.Background()
	key := domain.SessionKey{SurveyID: "S", SessionID: "ttl"}

	require.NoError(t, store.Save(ctx, key, domain.NewSessionState(key, time.Now())))
	assert.Equal(t, time.Minute, mr.TTL(redis.DefaultPrefix+"S/ttl"))

	mr.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, key)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound, "expired sessions are gone")
}

func TestRedisStore_URL(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := redis.NewFromURL("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer store.Close()
	assert.NoError(t, store.Ping(context.Background()))

	_, err = redis.NewFromURL("://bad")
	assert.Error(t, err)
}
