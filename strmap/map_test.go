package strmap

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bonzini/vrc/rcu"
)

func TestInsertIfAbsentKeepsFirstWriter(t *testing.T) {
	t.Parallel()

	m := New[int](4)
	r := rcu.RegisterReader()
	defer r.Unregister()
	r.Lock()
	defer r.Unlock()

	v := m.InsertIfAbsent(r, "abc", 111)
	require.Equal(t, 111, *v)

	v2 := m.InsertIfAbsent(r, "abc", 222)
	require.Equal(t, 111, *v2)
	require.Equal(t, 1, m.Size())
}

func TestGrowsPastLoadFactor(t *testing.T) {
	t.Parallel()

	m := New[int](4)
	r := rcu.RegisterReader()
	defer r.Unregister()
	r.Lock()
	defer r.Unlock()

	for i := 0; i < 4; i++ {
		m.InsertIfAbsent(r, fmt.Sprintf("key-%d", i), i)
	}
	require.Equal(t, 8, m.MaxSize())
}

func TestGetOrInsertDefault(t *testing.T) {
	t.Parallel()

	m := New[int](4)
	r := rcu.RegisterReader()
	defer r.Unregister()
	r.Lock()
	defer r.Unlock()

	v := m.GetOrInsertDefault(r, "x")
	require.Equal(t, 0, *v)
	*v = 5
	v2 := m.GetOrInsertDefault(r, "x")
	require.Equal(t, 5, *v2)
}

func TestGetOrInsertWithConstructsOnlyOnce(t *testing.T) {
	t.Parallel()

	m := New[*int](4)
	r := rcu.RegisterReader()
	defer r.Unregister()
	r.Lock()
	defer r.Unlock()

	calls := 0
	factory := func() *int {
		calls++
		v := 7
		return &v
	}

	v1 := m.GetOrInsertWith(r, "x", factory)
	v2 := m.GetOrInsertWith(r, "x", factory)
	require.Same(t, *v1, *v2)
	require.Equal(t, 1, calls)
}

func TestGetPanicsOnAbsentKey(t *testing.T) {
	t.Parallel()

	m := New[int](4)
	r := rcu.RegisterReader()
	defer r.Unregister()
	r.Lock()
	defer r.Unlock()

	require.Panics(t, func() {
		m.Get(r, "missing")
	})
}

func TestGetOrReturnsDefault(t *testing.T) {
	t.Parallel()

	m := New[int](4)
	r := rcu.RegisterReader()
	defer r.Unregister()
	r.Lock()
	defer r.Unlock()

	def := 42
	v := m.GetOr(r, "missing", &def)
	require.Same(t, &def, v)
}

func TestIterYieldsAllPublishedEntries(t *testing.T) {
	t.Parallel()

	m := New[int](8)
	r := rcu.RegisterReader()
	defer r.Unregister()
	r.Lock()

	want := map[string]int{"a": 1, "b": 2, "c": 3}
	for k, v := range want {
		m.InsertIfAbsent(r, k, v)
	}

	got := map[string]int{}
	it := m.Iter()
	for {
		k, v, ok := it.Next()
		if !ok {
			break
		}
		got[k] = *v
	}
	r.Unlock()

	require.Equal(t, want, got)
}

func TestConcurrentStressDistinctKeysPerWriter(t *testing.T) {
	t.Parallel()

	m := New[int](4)
	const perGoroutine = 10000
	const goroutines = 8

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			r := rcu.RegisterReader()
			defer r.Unregister()
			r.Lock()
			defer r.Unlock()
			for i := 0; i < perGoroutine; i++ {
				key := fmt.Sprintf("g%d-k%d", g, i)
				v := m.InsertIfAbsent(r, key, g*perGoroutine+i)
				require.Equal(t, g*perGoroutine+i, *v)
			}
		}(g)
	}
	wg.Wait()

	require.Equal(t, goroutines*perGoroutine, m.Size())

	r := rcu.RegisterReader()
	defer r.Unregister()
	r.Lock()
	defer r.Unlock()
	for g := 0; g < goroutines; g++ {
		for i := 0; i < perGoroutine; i++ {
			key := fmt.Sprintf("g%d-k%d", g, i)
			v := m.Get(r, key)
			require.Equal(t, g*perGoroutine+i, *v)
		}
	}
}
