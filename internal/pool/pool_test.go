package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct{ id int }

func newFakePool(t *testing.T, capacity int) *Pool[*fakeConn] {
	var counter atomic.Int32
	p, err := New(capacity,
		func() (*fakeConn, error) {
			return &fakeConn{id: int(counter.Add(1))}, nil
		},
		func(*fakeConn) {},
	)
	require.NoError(t, err)
	return p
}

func TestAcquireReleaseRoundTrip(t *testing.T) {
	p := newFakePool(t, 2)

	lease, err := AcquireLease(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 1, p.InUse())

	lease.Release()
	assert.Equal(t, 0, p.InUse())

	// Idempotent release.
	lease.Release()
	assert.Equal(t, 0, p.InUse())
}

func TestAcquireBlocksUntilRelease(t *testing.T) {
	p := newFakePool(t, 1)

	lease, err := AcquireLease(context.Background(), p)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		l2, err := AcquireLease(context.Background(), p)
		require.NoError(t, err)
		close(acquired)
		l2.Release()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire should have blocked while pool is exhausted")
	case <-time.After(50 * time.Millisecond):
	}

	lease.Release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never unblocked after release")
	}
}

func TestBoundedConcurrency(t *testing.T) {
	const capacity = 3
	const workers = 20

	p := newFakePool(t, capacity)

	var maxObserved atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := AcquireLease(context.Background(), p)
			require.NoError(t, err)
			defer lease.Release()

			inUse := int32(p.InUse())
			for {
				cur := maxObserved.Load()
				if inUse <= cur || maxObserved.CompareAndSwap(cur, inUse) {
					break
				}
			}
			time.Sleep(time.Millisecond)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, int(maxObserved.Load()), capacity)
}

func TestCloseUnblocksWaiters(t *testing.T) {
	p := newFakePool(t, 1)

	_, err := AcquireLease(context.Background(), p)
	require.NoError(t, err)

	blocked := make(chan error, 1)
	go func() {
		_, err := AcquireLease(context.Background(), p)
		blocked <- err
	}()

	time.Sleep(20 * time.Millisecond)
	p.Close()

	select {
	case err := <-blocked:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("acquire did not unblock after Close")
	}
}
