package clist

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bonzini/vrc/rcu"
)

func TestAddGrowsPastInitialCapacity(t *testing.T) {
	t.Parallel()

	l := New[string](4)
	r := rcu.RegisterReader()
	defer r.Unregister()

	r.Lock()
	values := []string{"abc", "def", "ghi", "jkl", "mno"}
	for i, v := range values {
		idx := l.Add(r, v)
		require.Equal(t, i, idx)
	}
	r.Unlock()

	require.Equal(t, 5, l.Size())
	require.Greater(t, l.MaxSize(), 4)
	require.Equal(t, "abc", l.At(0))
	require.Equal(t, "mno", l.At(4))
}

func TestAddPublishesBeforeReturning(t *testing.T) {
	t.Parallel()

	l := New[int](2)
	r := rcu.RegisterReader()
	defer r.Unregister()

	r.Lock()
	defer r.Unlock()

	for i := 0; i < 10; i++ {
		idx := l.Add(r, i*10)
		require.Greater(t, l.Size(), idx)
		require.Equal(t, i*10, l.At(idx))
	}
}

func TestConcurrentAddPublishesInOrder(t *testing.T) {
	t.Parallel()

	l := New[int](4)
	const perGoroutine = 500
	const goroutines = 8

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			r := rcu.RegisterReader()
			defer r.Unregister()
			r.Lock()
			defer r.Unlock()
			for i := 0; i < perGoroutine; i++ {
				idx := l.Add(r, base+i)
				require.Greater(t, l.Size(), idx)
			}
		}(g * perGoroutine)
	}
	wg.Wait()

	require.Equal(t, goroutines*perGoroutine, l.Size())

	seen := make(map[int]bool, l.Size())
	for i := 0; i < l.Size(); i++ {
		v := l.At(i)
		require.False(t, seen[v], "value %d observed twice", v)
		seen[v] = true
	}
	require.Len(t, seen, goroutines*perGoroutine)
}
