package cmapx

import (
	"sync"
	"testing"
)

func TestMapSetGetDelete(t *testing.T) {
	m := New[string, int]()
	m.Set("a", 1)
	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %v %v", v, ok)
	}
	m.Delete("a")
	if _, ok := m.Get("a"); ok {
		t.Fatalf("expected a deleted")
	}
}

func TestMapDeleteAbsentKeyIsNoOp(t *testing.T) {
	m := New[string, int]()
	m.Delete("missing")
	if m.Len() != 0 {
		t.Fatalf("expected length 0 after deleting absent key")
	}
}

func TestMapConcurrentAccess(t *testing.T) {
	m := New[int, int]()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Set(i, i)
			m.Get(i)
			m.Delete(i)
		}(i)
	}
	wg.Wait()
}

func TestShardedDistributesAndAggregates(t *testing.T) {
	s := NewStringSharded[int](4)
	for i := 0; i < 20; i++ {
		s.Set(string(rune('a'+i)), i)
	}
	if s.Len() != 20 {
		t.Fatalf("expected 20 total entries, got %d", s.Len())
	}
	s.Delete("a")
	if s.Len() != 19 {
		t.Fatalf("expected 19 entries after delete, got %d", s.Len())
	}
}

func TestShardedIteratorEarlyStop(t *testing.T) {
	s := NewStringSharded[int](4)
	s.Set("a", 1)
	s.Set("b", 2)
	s.Set("c", 3)

	count := 0
	s.Iterator(func(k string, v int) bool {
		count++
		return false
	})
	if count != 1 {
		t.Fatalf("expected iteration to stop after first callback, got %d calls", count)
	}
}
