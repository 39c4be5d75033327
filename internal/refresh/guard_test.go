package refresh

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_MutualExclusion(t *testing.T) {
	g := NewGuard()
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := g.Acquire(context.Background(), "rec-1")
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
	assert.False(t, g.Active("rec-1"))
}

func TestGuard_IndependentIDs(t *testing.T) {
	g := NewGuard()
	releaseA, err := g.Acquire(context.Background(), "a")
	require.NoError(t, err)
	defer releaseA()

	releaseB, ok := g.TryAcquire("b")
	require.True(t, ok)
	releaseB()
}

func TestGuard_TryAcquire(t *testing.T) {
	g := NewGuard()
	release, ok := g.TryAcquire("rec-1")
	require.True(t, ok)
	assert.True(t, g.Active("rec-1"))

	_, ok = g.TryAcquire("rec-1")
	assert.False(t, ok)

	release()
	release() // second release is a no-op
	assert.False(t, g.Active("rec-1"))

	again, ok := g.TryAcquire("rec-1")
	require.True(t, ok)
	again()
}

func TestGuard_AcquireHonoursContext(t *testing.T) {
	g := NewGuard()
	release, _ := g.TryAcquire("rec-1")
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.Acquire(ctx, "rec-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGuard_AcquireWaitsForRelease(t *testing.T) {
	g := NewGuard()
	release, _ := g.TryAcquire("rec-1")

	acquired := make(chan struct{})
	go func() {
		r, err := g.Acquire(context.Background(), "rec-1")
		if err == nil {
			r()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("acquired while held")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never woke up")
	}
}
