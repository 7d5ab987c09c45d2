package redis

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRunLocker(t *testing.T) {
	t.Run("serializes work per body", func(t *testing.T) {
		locker := NewLocalRunLocker()

		var mu sync.Mutex
		running := map[string]int{}
		maxConcurrent := 0

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := locker.WithRunLock(context.Background(), "1-AAAA", func(context.Context) error {
					mu.Lock()
					running["1-AAAA"]++
					if running["1-AAAA"] > maxConcurrent {
						maxConcurrent = running["1-AAAA"]
					}
					mu.Unlock()

					mu.Lock()
					running["1-AAAA"]--
					mu.Unlock()
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, maxConcurrent, "at most one holder per body at a time")
	})

	t.Run("different bodies do not block each other", func(t *testing.T) {
		locker := NewLocalRunLocker()

		release := make(chan struct{})
		held := make(chan struct{})
		go func() {
			_ = locker.WithRunLock(context.Background(), "1-AAAA", func(context.Context) error {
				close(held)
				<-release
				return nil
			})
		}()
		<-held

		// Another body's lock is free while 1-AAAA is held.
		done := make(chan error, 1)
		go func() {
			done <- locker.WithRunLock(context.Background(), "1-BBBB", func(context.Context) error {
				return nil
			})
		}()
		require.NoError(t, <-done)
		close(release)
	})
}
