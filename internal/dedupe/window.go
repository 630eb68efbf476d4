// ABOUTME: Resubmission window for chat forms keyed by conversation and nonce.
// ABOUTME: A repeated nonce inside the TTL is reported as a duplicate and dropped.

package dedupe

import (
	"container/list"
	"sync"
	"time"

	"github.com/2389/shopdesk/internal/metrics"
)

type entry struct {
	key    string
	seenAt time.Time
}

// Window remembers recent submission nonces. The oldest entry is evicted
// once maxSize is reached.
type Window struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // oldest at front
	ttl     time.Duration
	maxSize int
	now     func() time.Time

	done   chan struct{}
	closed bool
}

// New creates a Window and starts its cleanup loop.
func New(ttl time.Duration, maxSize int) *Window {
	w := newWindow(ttl, maxSize, time.Now)
	go w.cleanupLoop(cleanupInterval(ttl))
	return w
}

func newWindow(ttl time.Duration, maxSize int, now func() time.Time) *Window {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Window{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     now,
		done:    make(chan struct{}),
	}
}

// minCleanupInterval bounds the ticker for tiny or non-positive TTLs.
const minCleanupInterval = time.Second

func cleanupInterval(ttl time.Duration) time.Duration {
	switch {
	case ttl < minCleanupInterval:
		return minCleanupInterval
	case ttl < time.Minute:
		return ttl
	}
	return time.Minute
}

func key(conversation, nonce string) string {
	return conversation + "\x00" + nonce
}

// Seen records a submission and reports whether the same nonce was already
// submitted to the conversation within the TTL. An empty nonce is never a
// duplicate.
func (w *Window) Seen(conversation, nonce string) bool {
	if nonce == "" {
		return false
	}
	k := key(conversation, nonce)
	now := w.now()

	w.mu.Lock()
	defer w.mu.Unlock()

	if el, ok := w.entries[k]; ok {
		e := el.Value.(*entry)
		if now.Sub(e.seenAt) < w.ttl {
			metrics.ChatDedupTotal.WithLabelValues("hit").Inc()
			return true
		}
		w.order.Remove(el)
		delete(w.entries, k)
	}

	if len(w.entries) >= w.maxSize {
		w.evictOldest()
	}
	w.entries[k] = w.order.PushBack(&entry{key: k, seenAt: now})
	metrics.ChatDedupTotal.WithLabelValues("miss").Inc()
	return false
}

// Len is the number of remembered submissions.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

// evictOldest removes the front entry. Must be called with mu held.
func (w *Window) evictOldest() {
	front := w.order.Front()
	if front == nil {
		return
	}
	w.order.Remove(front)
	delete(w.entries, front.Value.(*entry).key)
}

// prune drops expired entries. Entries are in insertion order, so it stops
// at the first live one.
func (w *Window) prune() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	for el := w.order.Front(); el != nil; el = w.order.Front() {
		e := el.Value.(*entry)
		if now.Sub(e.seenAt) < w.ttl {
			return
		}
		w.order.Remove(el)
		delete(w.entries, e.key)
	}
}

func (w *Window) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.prune()
		case <-w.done:
			return
		}
	}
}

// Close stops the cleanup loop. It is safe to call multiple times.
func (w *Window) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		close(w.done)
		w.closed = true
	}
}
