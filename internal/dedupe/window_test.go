// ABOUTME: Tests for the chat resubmission window.
// ABOUTME: Uses a fake clock for expiry instead of sleeping.

package dedupe

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestWindow(ttl time.Duration, size int) (*Window, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return newWindow(ttl, size, clock.Now), clock
}

func TestSeen_FirstSubmissionIsNew(t *testing.T) {
	w, _ := newTestWindow(time.Minute, 10)

	assert.False(t, w.Seen("conv-1", "n1"))
	assert.True(t, w.Seen("conv-1", "n1"))
}

func TestSeen_ScopedByConversation(t *testing.T) {
	w, _ := newTestWindow(time.Minute, 10)

	assert.False(t, w.Seen("conv-1", "n1"))
	assert.False(t, w.Seen("conv-2", "n1"))
}

func TestSeen_EmptyNonceNeverDuplicate(t *testing.T) {
	w, _ := newTestWindow(time.Minute, 10)

	assert.False(t, w.Seen("conv-1", ""))
	assert.False(t, w.Seen("conv-1", ""))
	assert.Equal(t, 0, w.Len())
}

func TestSeen_ExpiresAfterTTL(t *testing.T) {
	w, clock := newTestWindow(time.Minute, 10)

	assert.False(t, w.Seen("c", "n"))
	clock.Advance(time.Minute + time.Second)
	assert.False(t, w.Seen("c", "n"), "expired nonce counts as new")
	assert.True(t, w.Seen("c", "n"))
}

func TestSeen_EvictsOldestAtCapacity(t *testing.T) {
	w, _ := newTestWindow(time.Hour, 3)

	for i := 0; i < 4; i++ {
		w.Seen("c", fmt.Sprintf("n%d", i))
	}
	assert.Equal(t, 3, w.Len())
	assert.False(t, w.Seen("c", "n0"), "n0 was evicted")
	assert.True(t, w.Seen("c", "n3"))
}

func TestPrune(t *testing.T) {
	w, clock := newTestWindow(time.Minute, 10)
	w.Seen("c", "old")
	clock.Advance(30 * time.Second)
	w.Seen("c", "new")
	clock.Advance(45 * time.Second)

	w.prune()

	assert.Equal(t, 1, w.Len())
	assert.True(t, w.Seen("c", "new"))
}

func TestSeen_Concurrent(t *testing.T) {
	w, _ := newTestWindow(time.Minute, 1000)
	var wg sync.WaitGroup
	var mu sync.Mutex
	fresh := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !w.Seen("c", "same") {
				mu.Lock()
				fresh++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, fresh)
}

func TestClose_Idempotent(t *testing.T) {
	w := New(time.Minute, 10)
	w.Close()
	w.Close()
}

func TestNew_NonPositiveTTL(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Second} {
		assert.NotPanics(t, func() {
			w := New(ttl, 10)
			w.Close()
		})
	}
	assert.Equal(t, time.Second, cleanupInterval(0))
	assert.Equal(t, 30*time.Second, cleanupInterval(30*time.Second))
	assert.Equal(t, time.Minute, cleanupInterval(time.Hour))
}
