package cache

import (
	"errors"
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c := New(true, time.Minute)
	c.Set("k", "v", 0)
	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Fatalf("Get = %v, %v", got, ok)
	}
}

func TestGetMiss(t *testing.T) {
	c := New(true, time.Minute)
	if _, ok := c.Get("absent"); ok {
		t.Fatal("expected miss")
	}
}

func TestTimerEviction(t *testing.T) {
	c := New(true, time.Minute)
	c.Set("k", "v", 50*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should be evicted after TTL")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d after eviction", c.Len())
	}
}

func TestLazyExpiry(t *testing.T) {
	// Freeze the clock so the timer never matters: only the lazy check runs.
	c := New(true, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("k", "v", time.Hour)

	now = now.Add(2 * time.Hour)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expired-but-unswept entry must read as a miss")
	}
}

func TestSetReplacesAndReschedules(t *testing.T) {
	c := New(true, time.Minute)
	c.Set("k", "old", 40*time.Millisecond)
	c.Set("k", "new", time.Minute)
	// The first timer firing must not evict the replacement entry.
	time.Sleep(80 * time.Millisecond)
	got, ok := c.Get("k")
	if !ok || got != "new" {
		t.Fatalf("Get = %v, %v; want new entry to survive old timer", got, ok)
	}
}

func TestDelete(t *testing.T) {
	c := New(true, time.Minute)
	c.Set("k", "v", 0)
	if !c.Delete("k") {
		t.Fatal("Delete should report removal")
	}
	if c.Delete("k") {
		t.Fatal("second Delete should report nothing removed")
	}
}

func TestInvalidateByTag(t *testing.T) {
	c := New(true, time.Minute)
	c.Set("a", 1, 0, "red")
	c.Set("b", 2, 0, "red", "blue")
	c.Set("c", 3, 0, "blue")

	if n := c.InvalidateByTag("red"); n != 2 {
		t.Fatalf("invalidated %d, want 2", n)
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("entry without the tag must survive")
	}
}

func TestInvalidateByPattern(t *testing.T) {
	c := New(true, time.Minute)
	c.Set("list:npc:one", 1, 0)
	c.Set("list:npc:two", 2, 0)
	c.Set("list:item:one", 3, 0)

	n, err := c.InvalidateByPattern(`list:npc:`)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("invalidated %d, want 2", n)
	}
	if _, ok := c.Get("list:item:one"); !ok {
		t.Error("non-matching entry must survive")
	}
}

func TestInvalidateByPattern_BadRegex(t *testing.T) {
	c := New(true, time.Minute)
	if _, err := c.InvalidateByPattern(`(`); err == nil {
		t.Fatal("expected regex compile error")
	}
}

func TestClear(t *testing.T) {
	c := New(true, time.Minute)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len = %d after Clear", c.Len())
	}
}

func TestDisabledMode(t *testing.T) {
	c := New(false, time.Minute)
	c.Set("k", "v", 0)
	if _, ok := c.Get("k"); ok {
		t.Fatal("disabled cache must always miss")
	}
	if c.Delete("k") {
		t.Fatal("disabled Delete must be a no-op")
	}
	if n := c.InvalidateByTag("t"); n != 0 {
		t.Fatal("disabled InvalidateByTag must return 0")
	}
}

func TestFetch_ReadThrough(t *testing.T) {
	c := New(true, time.Minute)
	calls := 0
	fetch := func() (any, error) {
		calls++
		return "fetched", nil
	}

	v, err := c.Fetch("k", 0, nil, fetch)
	if err != nil || v != "fetched" {
		t.Fatalf("Fetch = %v, %v", v, err)
	}
	// Hit: fetcher must not run again.
	v, err = c.Fetch("k", 0, nil, fetch)
	if err != nil || v != "fetched" {
		t.Fatalf("second Fetch = %v, %v", v, err)
	}
	if calls != 1 {
		t.Errorf("fetcher ran %d times, want 1", calls)
	}
}

func TestFetch_ErrorNotCached(t *testing.T) {
	c := New(true, time.Minute)
	boom := errors.New("boom")
	if _, err := c.Fetch("k", 0, nil, func() (any, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Fatal("failed fetch must not populate the cache")
	}
}

func TestContentHelpers(t *testing.T) {
	c := New(true, time.Minute)
	c.SetContent("npc", "elara", "camp1", "record")
	if v, ok := c.GetContent("npc", "elara", "camp1"); !ok || v != "record" {
		t.Fatalf("GetContent = %v, %v", v, ok)
	}

	// Different campaign is a different key.
	if _, ok := c.GetContent("npc", "elara", "camp2"); ok {
		t.Fatal("campaign must scope the key")
	}

	c.InvalidateContent("npc", "elara", "camp1")
	if _, ok := c.GetContent("npc", "elara", "camp1"); ok {
		t.Fatal("InvalidateContent should remove the entry")
	}
}

func TestListHelpers(t *testing.T) {
	c := New(true, time.Minute)

	_, _ = c.FetchList("npc", "camp1", "hash1", func() (any, error) { return "l1", nil })
	_, _ = c.FetchList("npc", "camp1", "hash2", func() (any, error) { return "l2", nil })
	_, _ = c.FetchList("item", "camp1", "hash1", func() (any, error) { return "l3", nil })

	if n := c.InvalidateContentLists("npc", "camp1"); n != 2 {
		t.Fatalf("invalidated %d lists, want 2", n)
	}

	// Item list untouched.
	v, err := c.FetchList("item", "camp1", "hash1", func() (any, error) { return "refetched", nil })
	if err != nil || v != "l3" {
		t.Errorf("item list should still be cached, got %v", v)
	}
}

func TestListTTLIsHalfBase(t *testing.T) {
	c := New(true, 10*time.Minute)
	if c.ListTTL() != 5*time.Minute {
		t.Errorf("ListTTL = %v, want 5m", c.ListTTL())
	}
}

func TestTagInvalidationByType(t *testing.T) {
	c := New(true, time.Minute)
	c.SetContent("npc", "a", "camp1", 1)
	c.SetContent("npc", "b", "camp2", 2)
	c.SetContent("item", "c", "camp1", 3)

	if n := c.InvalidateByTag(TypeTag("npc")); n != 2 {
		t.Fatalf("invalidated %d, want 2", n)
	}
	if _, ok := c.GetContent("item", "c", "camp1"); !ok {
		t.Error("other type must survive")
	}
}
