package enhancer

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
}

func TestCache_Expiry(t *testing.T) {
	clock := newClock()
	c := NewCache[string, int](time.Minute, clock.Now)

	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %v, %v; want 1, true", v, ok)
	}

	clock.Advance(59 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Error("entry expired before TTL")
	}

	clock.Advance(time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("entry still present at TTL")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want expired entry dropped", c.Len())
	}
}

func TestCache_SetRestartsTTL(t *testing.T) {
	clock := newClock()
	c := NewCache[string, int](time.Minute, clock.Now)

	c.Set("a", 1)
	clock.Advance(50 * time.Second)
	c.Set("a", 2)
	clock.Advance(50 * time.Second)

	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Errorf("Get(a) = %v, %v; want 2, true", v, ok)
	}
}

func TestCache_Disabled(t *testing.T) {
	c := NewCache[string, int](0, nil)
	c.Set("a", 1)
	if _, ok := c.Get("a"); ok {
		t.Error("zero TTL cache returned a value")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestCache_PurgeAndSetTTL(t *testing.T) {
	clock := newClock()
	c := NewCache[int, string](time.Minute, clock.Now)
	c.Set(1, "x")
	c.Set(2, "y")
	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len() after Purge = %d", c.Len())
	}

	c.Set(1, "x")
	c.SetTTL(time.Hour)
	clock.Advance(30 * time.Minute)
	if _, ok := c.Get(1); !ok {
		t.Error("entry expired despite longer TTL")
	}
}
