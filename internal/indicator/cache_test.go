package indicator

import (
	"testing"
	"time"
)

func TestNewKeySentinels(t *testing.T) {
	tm := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	k := NewKey(tm, KindSMA, 20)
	if k.Time != tm.UnixNano() || k.Kind != KindSMA {
		t.Fatalf("key header mismatch: %+v", k)
	}
	if k.P1 != 20 || k.P2 != -1 || k.P3 != -1 || k.P4 != -1 {
		t.Fatalf("unused params must stay -1: %+v", k)
	}

	full := NewKey(tm, KindMACD, 12, 26, 9, 3)
	if full.P1 != 12 || full.P2 != 26 || full.P3 != 9 || full.P4 != 3 {
		t.Fatalf("full params lost: %+v", full)
	}
}

func TestCachePutIdempotent(t *testing.T) {
	c := NewCache("SBER")
	key := NewKey(time.Now(), KindRSI, 14)

	c.Put(key, Values{55.5})
	c.Put(key, Values{99.9}) // должен игнорироваться

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("key missing after Put")
	}
	if got[0] != 55.5 {
		t.Fatalf("repeated Put overwrote value: %v", got[0])
	}
	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1", c.Len())
	}
}

func TestCacheDirtyLifecycle(t *testing.T) {
	c := NewCache("SBER")
	if c.Dirty() {
		t.Fatal("fresh cache must not be dirty")
	}

	key := NewKey(time.Now(), KindATR, 14)
	c.Put(key, Values{1.25})
	if !c.Dirty() {
		t.Fatal("Put must mark cache dirty")
	}

	c.ResetDirty()
	if c.Dirty() {
		t.Fatal("ResetDirty had no effect")
	}

	// повторный Put того же ключа значение не меняет, dirty не взводит
	c.Put(key, Values{2.5})
	if c.Dirty() {
		t.Fatal("no-op Put must not mark cache dirty")
	}
}

func TestCacheSeed(t *testing.T) {
	c := NewCache("GAZP")
	tm := time.Now()
	seeded := map[Key]Values{
		NewKey(tm, KindSMA, 10): {101.5},
		NewKey(tm, KindEMA, 20): {100.25},
	}

	c.Seed(seeded)
	if c.Dirty() {
		t.Fatal("Seed must not mark cache dirty")
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}

	got, ok := c.Get(NewKey(tm, KindSMA, 10))
	if !ok || got[0] != 101.5 {
		t.Fatalf("seeded value lost: %v (ok=%v)", got, ok)
	}

	snap := c.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot len = %d, want 2", len(snap))
	}
}
