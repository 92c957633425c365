package runtime

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"zrpc/zrpcerr"
)

func TestAsyncSpawnRunsConcurrently(t *testing.T) {
	r := NewAsync()
	defer r.Close()

	var n int32
	var wg sync.WaitGroup
	wg.Add(5)
	for i := 0; i < 5; i++ {
		require.NoError(t, r.Spawn(func() {
			atomic.AddInt32(&n, 1)
			wg.Done()
		}))
	}
	wg.Wait()
	require.EqualValues(t, 5, n)
}

func TestAsyncAfterFuncFires(t *testing.T) {
	r := NewAsync()
	defer r.Close()

	done := make(chan struct{})
	_, err := r.AfterFunc(10*time.Millisecond, func() { close(done) })
	require.NoError(t, err)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}

func TestAsyncRejectsAfterClose(t *testing.T) {
	r := NewAsync()
	require.NoError(t, r.Close())
	require.ErrorIs(t, r.Spawn(func() {}), zrpcerr.ErrShutdown)
}

func TestCooperativeRunsOneAtATime(t *testing.T) {
	r := NewCooperative(8)
	defer r.Close()

	var running int32
	var maxConcurrent int32
	var wg sync.WaitGroup
	wg.Add(10)
	for i := 0; i < 10; i++ {
		require.NoError(t, r.Spawn(func() {
			cur := atomic.AddInt32(&running, 1)
			if cur > atomic.LoadInt32(&maxConcurrent) {
				atomic.StoreInt32(&maxConcurrent, cur)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&running, -1)
			wg.Done()
		}))
	}
	wg.Wait()
	require.EqualValues(t, 1, maxConcurrent)
}

func TestCooperativeAfterFuncFires(t *testing.T) {
	r := NewCooperative(4)
	defer r.Close()

	done := make(chan struct{})
	_, err := r.AfterFunc(10*time.Millisecond, func() { close(done) })
	require.NoError(t, err)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}

func TestSyncRejectsBackgroundOperations(t *testing.T) {
	r := NewSync()
	require.False(t, r.Supports())
	require.Error(t, r.Spawn(func() {}))
	_, err := r.AfterFunc(time.Second, func() {})
	require.Error(t, err)
	require.NoError(t, r.Close())
}
