package carray

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bonzini/vrc/rcu"
)

type intOwner struct{}

func (intOwner) Alloc(capacity int) []int { return make([]int, capacity) }
func (intOwner) Copy(dest, src []int)     { copy(dest, src) }

func TestReserveWithinCapacity(t *testing.T) {
	t.Parallel()

	a := New[int](intOwner{}, 4)
	r := rcu.RegisterReader()
	defer r.Unregister()

	r.Lock()
	defer r.Unlock()

	i0 := a.Reserve(r, intOwner{}, 1.0)
	i1 := a.Reserve(r, intOwner{}, 1.0)
	require.Equal(t, 0, i0)
	require.Equal(t, 1, i1)
	require.Equal(t, 4, a.MaxSize())
	require.Equal(t, 2, a.Size())
}

func TestReserveTriggersResize(t *testing.T) {
	t.Parallel()

	a := New[int](intOwner{}, 2)
	r := rcu.RegisterReader()
	defer r.Unregister()

	r.Lock()
	for i := 0; i < 2; i++ {
		idx := a.Reserve(r, intOwner{}, 1.0)
		*a.At(idx) = i + 1
	}
	require.Equal(t, 2, a.MaxSize())

	idx := a.Reserve(r, intOwner{}, 1.0)
	*a.At(idx) = 3
	r.Unlock()

	require.Equal(t, 4, a.MaxSize())
	require.Equal(t, 3, a.Size())
	buf := a.Load()
	require.Equal(t, []int{1, 2, 3, 0}, buf)
}

func TestDropReservation(t *testing.T) {
	t.Parallel()

	a := New[int](intOwner{}, 4)
	r := rcu.RegisterReader()
	defer r.Unregister()

	r.Lock()
	idx := a.Reserve(r, intOwner{}, 1.0)
	require.Equal(t, 0, idx)
	a.DropReservation()
	r.Unlock()

	require.Equal(t, 0, a.Size())
}

func TestConcurrentReserveUniqueIndices(t *testing.T) {
	t.Parallel()

	a := New[int](intOwner{}, 4)
	const n = 2000
	seen := make([]int32, n)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := rcu.RegisterReader()
			defer r.Unregister()
			r.Lock()
			defer r.Unlock()
			for i := 0; i < n/8; i++ {
				idx := a.Reserve(r, intOwner{}, 0.75)
				*a.At(idx) = 1
				seen[idx]++
			}
		}()
	}
	wg.Wait()

	require.Equal(t, n, a.Size())
	for i, c := range seen {
		require.Equal(t, int32(1), c, "index %d reserved %d times", i, c)
	}
}
