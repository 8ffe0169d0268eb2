package repository

import (
	"fmt"
	"sync"
	"testing"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	cache := NewMemoryCache()

	if _, ok := cache.Get("missing"); ok {
		t.Error("expected miss for absent key")
	}

	if err := cache.Set("quote:MU:HKG:PVG", `{"premium":12.3}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	val, ok := cache.Get("quote:MU:HKG:PVG")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if val != `{"premium":12.3}` {
		t.Errorf("value = %q", val)
	}
	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1", cache.Len())
	}
}

func TestMemoryCacheOverwrite(t *testing.T) {
	cache := NewMemoryCache()
	cache.Set("k", "old")
	cache.Set("k", "new")

	val, _ := cache.Get("k")
	if val != "new" {
		t.Errorf("value = %q, want new", val)
	}
	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1", cache.Len())
	}
}

func TestMemoryCacheConcurrent(t *testing.T) {
	cache := NewMemoryCache()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			cache.Set(key, "v")
			cache.Get(key)
		}(i)
	}
	wg.Wait()

	if cache.Len() != 5 {
		t.Errorf("Len = %d, want 5", cache.Len())
	}
}
