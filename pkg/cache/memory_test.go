package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	mc := NewMemoryCache(10)
	ctx := context.Background()

	type payload struct {
		Name string
		N    int
	}
	if err := mc.Set(ctx, "k", payload{Name: "x", N: 7}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got payload
	if err := mc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "x" || got.N != 7 {
		t.Fatalf("got %+v", got)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := NewMemoryCache(10)
	var got string
	if err := mc.Get(context.Background(), "absent", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("got %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache(10)
	ctx := context.Background()
	if err := mc.Set(ctx, "k", "v", time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	var got string
	if err := mc.Get(ctx, "k", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expired entry served: %v", err)
	}
}

func TestMemoryCacheEvictsLRU(t *testing.T) {
	mc := NewMemoryCache(2)
	ctx := context.Background()

	if err := mc.Set(ctx, "a", 1, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := mc.Set(ctx, "b", 2, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	// touch a so b becomes least recently used
	var n int
	if err := mc.Get(ctx, "a", &n); err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := mc.Set(ctx, "c", 3, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := mc.Get(ctx, "b", &n); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("b survived eviction: %v", err)
	}
	if err := mc.Get(ctx, "a", &n); err != nil {
		t.Fatalf("a evicted instead of b: %v", err)
	}
}

func TestContentKeyStable(t *testing.T) {
	a := ContentKey("ind", "A.1", 1, 2, "ma")
	b := ContentKey("ind", "A.1", 1, 2, "ma")
	c := ContentKey("ind", "A.1", 1, 2, "rsi")
	if a != b {
		t.Fatalf("same params produced different keys")
	}
	if a == c {
		t.Fatalf("different params collided")
	}
}
