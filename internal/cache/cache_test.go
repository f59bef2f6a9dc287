package cache

import (
	"errors"
	"strconv"
	"testing"
)

func TestCacheGetSet(t *testing.T) {
	c := New[string, int](10)

	c.Set("a", 1)
	c.Set("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = (%d, %t), want (1, true)", v, ok)
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Errorf("Get(b) = (%d, %t), want (2, true)", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) reported a hit")
	}
}

func TestCacheSetOverwrites(t *testing.T) {
	c := New[string, int](10)

	c.Set("a", 1)
	c.Set("a", 2)

	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Get(a) = %d, want 2", v)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCacheGetOrCreate(t *testing.T) {
	c := New[string, int](10)

	calls := 0
	create := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := c.GetOrCreate("key", create)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if v != 42 {
		t.Errorf("GetOrCreate = %d, want 42", v)
	}

	// Second call must hit the cache.
	v, err = c.GetOrCreate("key", create)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if v != 42 {
		t.Errorf("GetOrCreate = %d, want 42", v)
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
}

func TestCacheGetOrCreateError(t *testing.T) {
	c := New[string, int](10)

	wantErr := errors.New("compute failed")
	_, err := c.GetOrCreate("key", func() (int, error) {
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("GetOrCreate error = %v, want %v", err, wantErr)
	}

	// Failed computations are not cached; the next call retries.
	if c.Len() != 0 {
		t.Errorf("Len() = %d after failed create, want 0", c.Len())
	}
	v, err := c.GetOrCreate("key", func() (int, error) {
		return 7, nil
	})
	if err != nil || v != 7 {
		t.Errorf("GetOrCreate after failure = (%d, %v), want (7, nil)", v, err)
	}
}

func TestCacheDelete(t *testing.T) {
	c := New[string, int](10)
	c.Set("a", 1)

	if !c.Delete("a") {
		t.Error("Delete(a) = false, want true")
	}
	if c.Delete("a") {
		t.Error("Delete(a) twice = true, want false")
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) hit after Delete")
	}
}

func TestCacheClear(t *testing.T) {
	c := New[string, int](10)
	for i := 0; i < 5; i++ {
		c.Set(strconv.Itoa(i), i)
	}

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", c.Len())
	}
}

func TestCacheEviction(t *testing.T) {
	c := New[string, int](8)

	for i := 0; i < 9; i++ {
		c.Set(strconv.Itoa(i), i)
	}

	// Exceeding the soft limit trims to 3/4 capacity.
	if got, want := c.Len(), 6; got != want {
		t.Errorf("Len() = %d after eviction, want %d", got, want)
	}

	// The newest entry survives.
	if _, ok := c.Get("8"); !ok {
		t.Error("most recent entry evicted")
	}
}

func TestCacheEvictionKeepsRecentlyUsed(t *testing.T) {
	c := New[string, int](4)

	for i := 0; i < 4; i++ {
		c.Set(strconv.Itoa(i), i)
	}
	// Touch "0" so it is no longer the oldest.
	c.Get("0")

	c.Set("4", 4)

	if _, ok := c.Get("0"); !ok {
		t.Error("recently used entry evicted")
	}
}

func TestCacheUnlimited(t *testing.T) {
	c := New[string, int](0)

	for i := 0; i < 100; i++ {
		c.Set(strconv.Itoa(i), i)
	}

	if c.Len() != 100 {
		t.Errorf("Len() = %d with no soft limit, want 100", c.Len())
	}
}

func TestCacheStats(t *testing.T) {
	c := New[string, int](10)
	c.Set("a", 1)
	c.Set("b", 2)

	stats := c.Stats()
	if stats.Len != 2 {
		t.Errorf("Stats.Len = %d, want 2", stats.Len)
	}
	if stats.Capacity != 10 {
		t.Errorf("Stats.Capacity = %d, want 10", stats.Capacity)
	}
}

func BenchmarkCacheGet(b *testing.B) {
	c := New[string, int](1000)
	for i := 0; i < 100; i++ {
		c.Set(strconv.Itoa(i), i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("50")
	}
}

func BenchmarkCacheGetOrCreate(b *testing.B) {
	c := New[string, int](1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.GetOrCreate("key", func() (int, error) { return 1, nil })
	}
}
