package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// accountSnapshot mirrors the shape of what the status endpoint caches:
// a struct value, to make sure the generic cache round-trips more than
// plain integers.
type accountSnapshot struct {
	ID       string
	Provider string
	Active   bool
}

func TestMemoryCache_GetSet(t *testing.T) {
	cache := NewMemoryCache[accountSnapshot]()
	ctx := context.Background()

	want := accountSnapshot{ID: "acc-1", Provider: "uber", Active: true}
	err := cache.Set(ctx, "account:acc-1", want, time.Minute)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := cache.Get(ctx, "account:acc-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestMemoryCache_GetMiss(t *testing.T) {
	cache := NewMemoryCache[accountSnapshot]()
	ctx := context.Background()

	_, err := cache.Get(ctx, "account:never-stored")
	if err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCache_Expiration(t *testing.T) {
	cache := NewMemoryCache[int64]()
	ctx := context.Background()

	err := cache.Set(ctx, "count:uber", 7, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Fresh entry is served.
	value, err := cache.Get(ctx, "count:uber")
	if err != nil {
		t.Fatalf("Get failed before expiration: %v", err)
	}
	if value != 7 {
		t.Errorf("Expected value 7, got %d", value)
	}

	time.Sleep(100 * time.Millisecond)

	// Expired entry reads as a miss.
	_, err = cache.Get(ctx, "count:uber")
	if err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss after expiration, got %v", err)
	}
}

func TestMemoryCache_MGetMSet(t *testing.T) {
	cache := NewMemoryCache[int64]()
	ctx := context.Background()

	counts := map[string]int64{
		"count:uber":    12,
		"count:lyft":    4,
		"count:savings": 31,
	}
	err := cache.MSet(ctx, counts, time.Minute)
	if err != nil {
		t.Fatalf("MSet failed: %v", err)
	}

	keys := []string{"count:uber", "count:lyft", "count:savings", "count:unknown"}
	result, err := cache.MGet(ctx, keys)
	if err != nil {
		t.Fatalf("MGet failed: %v", err)
	}

	if len(result) != 3 {
		t.Errorf("Expected 3 results, got %d", len(result))
	}

	if result["count:uber"] != 12 || result["count:lyft"] != 4 || result["count:savings"] != 31 {
		t.Errorf("MGet returned incorrect values: %v", result)
	}

	if _, exists := result["count:unknown"]; exists {
		t.Error("MGet should not return keys that were never stored")
	}
}

func TestMemoryCache_MGetExpiration(t *testing.T) {
	cache := NewMemoryCache[int64]()
	ctx := context.Background()

	counts := map[string]int64{
		"count:uber": 9,
		"count:lyft": 2,
	}
	err := cache.MSet(ctx, counts, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("MSet failed: %v", err)
	}

	result, err := cache.MGet(ctx, []string{"count:uber", "count:lyft"})
	if err != nil {
		t.Fatalf("MGet failed before expiration: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("Expected 2 results before expiration, got %d", len(result))
	}

	time.Sleep(100 * time.Millisecond)

	result, err = cache.MGet(ctx, []string{"count:uber", "count:lyft"})
	if err != nil {
		t.Fatalf("MGet failed after expiration: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("Expected 0 results after expiration, got %d", len(result))
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	cache := NewMemoryCache[accountSnapshot]()
	ctx := context.Background()

	// Disconnect invalidates a status entry by deleting it.
	err := cache.Set(ctx, "account:acc-9", accountSnapshot{ID: "acc-9"}, time.Minute)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	_, err = cache.Get(ctx, "account:acc-9")
	if err != nil {
		t.Fatalf("Get failed before delete: %v", err)
	}

	err = cache.Delete(ctx, "account:acc-9")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, err = cache.Get(ctx, "account:acc-9")
	if err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss after delete, got %v", err)
	}
}

func TestMemoryCache_Close(t *testing.T) {
	cache := NewMemoryCache[int64]()
	ctx := context.Background()

	_ = cache.Set(ctx, "count:uber", 1, time.Minute)
	_ = cache.Set(ctx, "count:lyft", 2, time.Minute)

	err := cache.Close()
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, err = cache.Get(ctx, "count:uber")
	if err != ErrCacheMiss {
		t.Error("Expected cache to be cleared after Close")
	}
}

func TestMemoryCache_Health(t *testing.T) {
	cache := NewMemoryCache[int64]()
	ctx := context.Background()

	err := cache.Health(ctx)
	if err != nil {
		t.Errorf("Health check should always succeed for memory cache, got: %v", err)
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	cache := NewMemoryCache[int64]()
	ctx := context.Background()

	done := make(chan bool, 20)

	// Writers hammer the same gauge key while readers poll it, the way
	// the metrics job and status reads overlap in production.
	for i := range 10 {
		go func(n int) {
			for j := range 100 {
				_ = cache.Set(ctx, "count:uber", int64(n*1000+j), time.Minute)
			}
			done <- true
		}(i)
	}

	for range 10 {
		go func() {
			for range 100 {
				_, _ = cache.Get(ctx, "count:uber")
			}
			done <- true
		}()
	}

	for range 20 {
		<-done
	}

	_, err := cache.Get(ctx, "count:uber")
	if err != nil {
		t.Errorf("Cache corrupted after concurrent access: %v", err)
	}
}

func TestMemoryCache_GetWithFetch_CacheMiss(t *testing.T) {
	c := NewMemoryCache[accountSnapshot]()
	ctx := context.Background()

	want := accountSnapshot{ID: "acc-5", Provider: "lyft", Active: true}
	fetchCount := 0
	fetchFunc := func(ctx context.Context, key string) (accountSnapshot, error) {
		fetchCount++
		return want, nil
	}

	got, err := c.GetWithFetch(ctx, "account:acc-5", time.Minute, fetchFunc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
	if fetchCount != 1 {
		t.Errorf("expected fetchFunc called once, got %d", fetchCount)
	}

	// Second call should be served from cache without another fetch.
	got, err = c.GetWithFetch(ctx, "account:acc-5", time.Minute, fetchFunc)
	if err != nil {
		t.Fatalf("unexpected error on second call: %v", err)
	}
	if got != want {
		t.Errorf("expected %+v on cache hit, got %+v", want, got)
	}
	if fetchCount != 1 {
		t.Errorf("expected fetchFunc not called on cache hit, got %d calls", fetchCount)
	}
}

func TestMemoryCache_GetWithFetch_FetchError(t *testing.T) {
	c := NewMemoryCache[accountSnapshot]()
	ctx := context.Background()

	expectedErr := errors.New("store unavailable")
	_, err := c.GetWithFetch(
		ctx,
		"account:acc-5",
		time.Minute,
		func(ctx context.Context, key string) (accountSnapshot, error) {
			return accountSnapshot{}, expectedErr
		},
	)
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected fetch error, got %v", err)
	}
}

func TestMemoryCache_GetWithFetch_Concurrent(t *testing.T) {
	c := NewMemoryCache[int64]()
	ctx := context.Background()

	var fetchCount atomic.Int64
	fetchFunc := func(ctx context.Context, key string) (int64, error) {
		fetchCount.Add(1)
		return 42, nil
	}

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			val, err := c.GetWithFetch(ctx, "count:uber", time.Minute, fetchFunc)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if val != 42 {
				t.Errorf("expected 42, got %d", val)
			}
		}()
	}
	wg.Wait()
}
