package thicket

import (
	"errors"
	"sync"
	"testing"
)

func TestNextUniqueIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := NextUniqueID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestSetOps(t *testing.T) {
	a := Set[string]{}
	a.Set("x")
	a.Set("y")
	b := Set[string]{}
	b.Set("y")
	b.Set("z")

	union := a.Union(b)
	for _, k := range []string{"x", "y", "z"} {
		if !union.Has(k) {
			t.Errorf("union missing %q", k)
		}
	}

	inter := a.Intersection(b)
	if !inter.Has("y") || inter.Has("x") || inter.Has("z") {
		t.Errorf("got intersection %v, want {y}", inter)
	}
}

func TestWithStackIdempotent(t *testing.T) {
	base := errors.New("boom")
	once := WithStack(base)
	twice := WithStack(once)
	if once != twice {
		t.Errorf("WithStack should not double-wrap an error that already has a trace")
	}
	if StackTrace(once) == "" {
		t.Errorf("expected a non-empty stack trace")
	}
	if WithStack(nil) != nil {
		t.Errorf("WithStack(nil) should be nil")
	}
}

func TestSyncMapLocking(t *testing.T) {
	m := NewSyncMap[string, int]()
	m.Set("a", 1)
	if got := m.Get("a"); got != 1 {
		t.Fatalf("got %d, want 1", got)
	}

	var wg sync.WaitGroup
	order := []int{}
	var mu sync.Mutex
	wg.Add(2)
	go m.WithLock("k", func() {
		defer wg.Done()
		mu.Lock()
		order = append(order, 1)
		mu.Unlock()
	})
	go m.WithLock("k", func() {
		defer wg.Done()
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
	})
	wg.Wait()
	if len(order) != 2 {
		t.Fatalf("got %v, want two entries", order)
	}
}
