//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformredis "revalid/internal/platform/redis"
	"revalid/pkg/testutil/containers"
)

func TestRedisRunLocker(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	rc := containers.NewRedisContainer(t)
	client := &platformredis.Client{Client: rc.Client}
	locker := platformredis.NewRunLocker(client, 30*time.Second)

	ctx := context.Background()

	t.Run("second holder is refused while the lock is held", func(t *testing.T) {
		held := make(chan struct{})
		release := make(chan struct{})
		done := make(chan error, 1)

		go func() {
			done <- locker.WithRunLock(ctx, "1-AAAA", func(context.Context) error {
				close(held)
				<-release
				return nil
			})
		}()
		<-held

		err := locker.WithRunLock(ctx, "1-AAAA", func(context.Context) error { return nil })
		assert.ErrorIs(t, err, platformredis.ErrLockNotAcquired)

		close(release)
		require.NoError(t, <-done)
	})

	t.Run("lock is released after the work completes", func(t *testing.T) {
		require.NoError(t, locker.WithRunLock(ctx, "1-BBBB", func(context.Context) error { return nil }))
		require.NoError(t, locker.WithRunLock(ctx, "1-BBBB", func(context.Context) error { return nil }))
	})

	t.Run("different bodies lock independently", func(t *testing.T) {
		held := make(chan struct{})
		release := make(chan struct{})
		go func() {
			_ = locker.WithRunLock(ctx, "1-CCCC", func(context.Context) error {
				close(held)
				<-release
				return nil
			})
		}()
		<-held
		defer close(release)

		require.NoError(t, locker.WithRunLock(ctx, "1-DDDD", func(context.Context) error { return nil }))
	})
}
