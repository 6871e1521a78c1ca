package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_MutualExclusion(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Lock(ctx, "member:1")
			require.NoError(t, err)
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
	assert.Zero(t, locker.size(), "idle keys are forgotten")
}

func TestLocalLocker_DisjointKeysDoNotBlock(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	release, err := locker.Lock(ctx, "session:a")
	require.NoError(t, err)
	defer release()

	done := make(chan struct{})
	go func() {
		r, err := locker.Lock(ctx, "session:b")
		if err == nil {
			r()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestLocalLocker_OverlappingSetsDoNotDeadlock(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r, err := locker.Lock(ctx, "member:a", "member:b")
			require.NoError(t, err)
			r()
		}()
		go func() {
			defer wg.Done()
			r, err := locker.Lock(ctx, "member:b", "member:a", "member:b")
			require.NoError(t, err)
			r()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("overlapping key sets deadlocked")
	}
}

func TestLocalLocker_ContextCancelled(t *testing.T) {
	locker := NewLocalLocker()

	release, err := locker.Lock(context.Background(), "table:1", "table:2")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "table:0", "table:2")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// table:0 was taken before the wait failed and must have been released
	r, err := locker.Lock(context.Background(), "table:0")
	require.NoError(t, err)
	r()

	release()
	release() // second call is a no-op
	assert.Zero(t, locker.size())
}

func TestSortedUnique(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, sortedUnique([]string{"c", "a", "b", "a"}))
	assert.Empty(t, sortedUnique(nil))
}
