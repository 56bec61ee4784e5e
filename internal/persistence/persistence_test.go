package persistence

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/config"
)

func TestLocalLockerSerializesPerKey(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(ctx, "zoom:alloc:2026-03-02")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)

	// different keys do not block each other
	releaseA, err := locker.Acquire(ctx, "a")
	require.NoError(t, err)
	releaseB, err := locker.Acquire(ctx, "b")
	require.NoError(t, err)
	releaseB()
	releaseA()
}

func TestRedisLockerWithoutClientIsNoop(t *testing.T) {
	locker := NewRedisLocker(NewRedis(config.RedisConfig{}, zap.NewNop()), 0, 0, zap.NewNop())
	release, err := locker.Acquire(context.Background(), "zoom:alloc:2026-03-02")
	require.NoError(t, err)
	require.NotNil(t, release)
	release()
}

func TestUnconfiguredBackends(t *testing.T) {
	ctx := context.Background()
	pg, err := NewPostgres(ctx, config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, pg.PoolHandle())
	assert.Error(t, pg.Ping(ctx))
	pg.Close()

	assert.NoError(t, RunMigrations(ctx, nil, MigrateUp, zap.NewNop()))

	r := NewRedis(config.RedisConfig{}, zap.NewNop())
	assert.Error(t, r.Ping(ctx))
	r.Close()
}
