package rcu

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLockUnlockBalanced(t *testing.T) {
	t.Parallel()

	r := RegisterReader()
	defer r.Unregister()

	r.Lock()
	r.Unlock()
	r.Lock()
	r.Unlock()
}

func TestLockReentryPanics(t *testing.T) {
	t.Parallel()

	r := RegisterReader()
	defer r.Unregister()

	r.Lock()
	defer r.Unlock()

	require.Panics(t, func() {
		r.Lock()
	})
}

func TestUnlockWithoutLockPanics(t *testing.T) {
	t.Parallel()

	r := RegisterReader()
	defer r.Unregister()

	require.Panics(t, func() {
		r.Unlock()
	})
}

func TestAmbientReaderIsSingleton(t *testing.T) {
	t.Parallel()

	require.Same(t, Ambient(), Ambient())
	require.Same(t, Ambient(), Or(nil))

	explicit := RegisterReader()
	defer explicit.Unregister()
	require.Same(t, explicit, Or(explicit))
}

func TestSynchronizeWaitsForActiveReader(t *testing.T) {
	t.Parallel()

	r := RegisterReader()
	defer r.Unregister()

	r.Lock()

	done := make(chan struct{})
	go func() {
		Synchronize()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Synchronize returned before the active reader unlocked")
	case <-time.After(20 * time.Millisecond):
	}

	r.Unlock()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Synchronize did not return after the reader unlocked")
	}
}

func TestSynchronizeWithNoReadersReturnsImmediately(t *testing.T) {
	t.Parallel()

	r := RegisterReader()
	r.Unregister()

	Synchronize()
}

func TestSynchronizeConcurrentWriters(t *testing.T) {
	t.Parallel()

	const readers = 8
	rs := make([]*Reader, readers)
	for i := range rs {
		rs[i] = RegisterReader()
		rs[i].Lock()
	}
	defer func() {
		for _, r := range rs {
			r.Unregister()
		}
	}()

	var wg sync.WaitGroup
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Synchronize()
		}()
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("writers returned before readers unlocked")
	case <-time.After(20 * time.Millisecond):
	}

	for _, r := range rs {
		r.Unlock()
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("writers did not return after readers unlocked")
	}
}
