// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litscout/litscout/internal/storage"
	"github.com/litscout/litscout/internal/storage/redis"
	"github.com/litscout/litscout/pkg/errutil"
)

func TestNew_EmptyAddr(t *testing.T) {
	_, err := redis.New(context.Background(), redis.Options{})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "REDIS_ADDR_EMPTY")
}

func TestNew_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := redis.New(context.Background(), redis.Options{Addr: addr})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "REDIS_CONNECT_FAILED")
}

func TestNew_RetriesUntilReachable(t *testing.T) {
	probe := miniredis.RunT(t)
	addr := probe.Addr()
	probe.Close()

	late := miniredis.NewMiniRedis()
	t.Cleanup(late.Close)
	started := make(chan error, 1)
	go func() {
		time.Sleep(80 * time.Millisecond)
		started <- late.StartAddr(addr)
	}()

	s, err := redis.New(context.Background(), redis.Options{Addr: addr, ConnectRetries: 6})
	require.NoError(t, <-started)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
}

func TestNew_RetriesStopOnCancel(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := redis.New(ctx, redis.Options{Addr: addr, ConnectRetries: 50})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "REDIS_CONNECT_FAILED")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestStore_PrefixesKeys(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	s, err := redis.New(ctx, redis.Options{Addr: mr.Addr(), Prefix: "test:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Set(ctx, "accessToken", "a1"))

	raw, err := mr.Get("test:accessToken")
	require.NoError(t, err)
	assert.Equal(t, "a1", raw)

	v, err := s.Get(ctx, "accessToken")
	require.NoError(t, err)
	assert.Equal(t, "a1", v)
}

func TestStore_DeleteAndMissing(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	s, err := redis.New(ctx, redis.Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Get(ctx, "refresh_token")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, "refresh_token", "r"))
	assert.True(t, mr.Exists(redis.DefaultPrefix+"refresh_token"))

	require.NoError(t, s.Delete(ctx, "refresh_token"))
	require.NoError(t, s.Delete(ctx, "refresh_token"))
	assert.False(t, mr.Exists(redis.DefaultPrefix+"refresh_token"))
}
