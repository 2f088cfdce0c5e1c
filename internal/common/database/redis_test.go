// internal/common/database/redis_test.go
package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dark-devil9/Krishi-Mitra/internal/common/config"
)

func newTestRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisPing(t *testing.T) {
	client, _ := newTestRedis(t)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestRedisSetGetJSON(t *testing.T) {
	client, _ := newTestRedis(t)
	ctx := context.Background()

	type record struct {
		State      string  `json:"state"`
		ModalPrice float64 `json:"modalPrice"`
	}

	err := client.SetJSON(ctx, "mandi:rajasthan:wheat", []record{
		{State: "rajasthan", ModalPrice: 2100},
	}, 15*time.Minute)
	require.NoError(t, err)

	var got []record
	found, err := client.GetJSON(ctx, "mandi:rajasthan:wheat", &got)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got, 1)
	assert.Equal(t, 2100.0, got[0].ModalPrice)
}

func TestRedisGetJSONMiss(t *testing.T) {
	client, _ := newTestRedis(t)

	var dest map[string]string
	found, err := client.GetJSON(context.Background(), "mandi:kerala:rice", &dest)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisGetJSONCorruptValueIsAMiss(t *testing.T) {
	client, mr := newTestRedis(t)
	mr.Set("mandi:punjab:wheat", "{not json")

	var dest map[string]string
	found, err := client.GetJSON(context.Background(), "mandi:punjab:wheat", &dest)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisTTLExpiry(t *testing.T) {
	client, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.SetJSON(ctx, "k", "v", time.Minute))
	mr.FastForward(2 * time.Minute)

	var dest string
	found, err := client.GetJSON(ctx, "k", &dest)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisDel(t *testing.T) {
	client, _ := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k", "v", 0))
	require.NoError(t, client.Del(ctx, "k"))

	_, err := client.Get(ctx, "k")
	assert.Error(t, err)
}
