// Package reveal exposes a large in-memory collection to a consumer in
// bounded, priority-ordered, pacing-adjusted batches.
//
// A Controller owns one immutable snapshot of a collection for the life of
// a loading session. Batches are driven by a single self-rescheduling
// timer: at most one step is ever pending, and Pause cancels it. The
// consumer callback always receives the full exposed prefix, never a
// delta.
package reveal

import (
	"sort"
	"sync"
	"time"
)

const (
	defaultInitialCount = 10
	defaultBatchSize    = 5
	defaultMinDelay     = 50 * time.Millisecond
	defaultMaxDelay     = 300 * time.Millisecond
)

// Config holds the optional pacing knobs for a Controller. Zero values
// take the defaults; nonsensical values (negative counts, inverted delay
// bounds) are clamped rather than rejected so a bad config degrades to
// slow-but-correct loading instead of failing.
type Config[T any] struct {
	// InitialCount is the size of the first, synchronous batch.
	InitialCount int

	// BatchSize is the size of every subsequent batch.
	BatchSize int

	// MinDelay and MaxDelay bound the pacing between batches. The delay
	// grows linearly from MinDelay toward MaxDelay as loading progresses,
	// trading a longer tail for a snappier start.
	MinDelay time.Duration
	MaxDelay time.Duration

	// Priority maps an item and its original index to a priority; higher
	// loads first. The sort is stable and happens once, at construction.
	// When nil, the original order is preserved.
	Priority func(item T, index int) float64
}

// Controller paces the reveal of one collection snapshot.
type Controller[T any] struct {
	mu       sync.Mutex
	cfg      Config[T]
	sorted   []T
	cursor   int
	loading  bool
	complete bool
	timer    *time.Timer

	// notifyMu serializes callback delivery. Batches are captured under
	// mu but delivered outside it, and Start and a timer step run on
	// different goroutines; without this lock a shorter prefix could be
	// delivered after a longer one.
	notifyMu sync.Mutex
	notify   func(loaded []T)
}

// New creates a Controller over a snapshot of items. The notify callback
// is invoked with the full exposed prefix on every batch, including the
// first and last. The priority sort runs here, once; Reset does not
// recompute it.
func New[T any](items []T, cfg Config[T], notify func(loaded []T)) *Controller[T] {
	if cfg.InitialCount == 0 {
		cfg.InitialCount = defaultInitialCount
	}
	if cfg.InitialCount < 1 {
		cfg.InitialCount = 1
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = defaultMinDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaultMaxDelay
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	if notify == nil {
		notify = func([]T) {}
	}

	sorted := make([]T, len(items))
	copy(sorted, items)

	if cfg.Priority != nil {
		priorities := make([]float64, len(items))
		for i, item := range items {
			priorities[i] = cfg.Priority(item, i)
		}

		order := make([]int, len(items))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return priorities[order[a]] > priorities[order[b]]
		})

		for i, idx := range order {
			sorted[i] = items[idx]
		}
	}

	return &Controller[T]{
		cfg:    cfg,
		sorted: sorted,
		notify: notify,
	}
}

// Start begins or resumes a loading session. It is a no-op when the
// session is already loading or already complete. A fresh session exposes
// the initial batch synchronously before Start returns; resuming after
// Pause keeps the current cursor, so the exposed prefix never shrinks.
func (c *Controller[T]) Start() {
	c.mu.Lock()
	if c.loading || c.complete {
		c.mu.Unlock()
		return
	}

	c.loading = true
	if c.cursor == 0 {
		c.cursor = min(c.cfg.InitialCount, len(c.sorted))
	}
	batch := c.loadedLocked()

	if c.cursor >= len(c.sorted) {
		c.complete = true
		c.loading = false
	} else {
		c.scheduleLocked(c.cfg.MinDelay)
	}
	c.mu.Unlock()

	c.notifyOrdered(batch)
}

// step is the timer-triggered batch advance. Guards make a stale timer
// firing after Pause or completion harmless.
func (c *Controller[T]) step() {
	c.mu.Lock()
	if c.complete || !c.loading {
		c.mu.Unlock()
		return
	}
	c.timer = nil

	remaining := len(c.sorted) - c.cursor
	if remaining <= 0 {
		c.complete = true
		c.loading = false
		c.mu.Unlock()
		return
	}

	c.cursor += min(c.cfg.BatchSize, remaining)
	batch := c.loadedLocked()
	c.scheduleLocked(c.delayLocked())
	c.mu.Unlock()

	c.notifyOrdered(batch)
}

// Pause stops the session and cancels any pending batch. Idempotent.
func (c *Controller[T]) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauseLocked()
}

// LoadAll pauses pacing and synchronously exposes every remaining item in
// a single notification, marking the session complete.
func (c *Controller[T]) LoadAll() {
	c.mu.Lock()
	c.pauseLocked()
	c.cursor = len(c.sorted)
	c.complete = true
	batch := c.loadedLocked()
	c.mu.Unlock()

	c.notifyOrdered(batch)
}

// Reset pauses the session and rewinds the cursor so Start can replay the
// session from the beginning. The priority order fixed at construction is
// kept, so a replayed session reveals items identically.
func (c *Controller[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauseLocked()
	c.cursor = 0
	c.complete = false
}

// IsLoading reports whether a session is actively revealing batches.
func (c *Controller[T]) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// IsComplete reports whether the whole collection has been exposed.
func (c *Controller[T]) IsComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.complete
}

// Progress returns the exposed fraction of the collection, in [0, 1].
// An empty collection reports 1.
func (c *Controller[T]) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progressLocked()
}

// Loaded returns a copy of the currently exposed prefix.
func (c *Controller[T]) Loaded() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadedLocked()
}

// Total returns the size of the collection snapshot.
func (c *Controller[T]) Total() int {
	return len(c.sorted)
}

func (c *Controller[T]) notifyOrdered(batch []T) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.notify(batch)
}

func (c *Controller[T]) pauseLocked() {
	c.loading = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller[T]) scheduleLocked(delay time.Duration) {
	c.timer = time.AfterFunc(delay, c.step)
}

// delayLocked slows pacing as loading approaches completion.
func (c *Controller[T]) delayLocked() time.Duration {
	spread := float64(c.cfg.MaxDelay - c.cfg.MinDelay)
	return c.cfg.MinDelay + time.Duration(spread*c.progressLocked())
}

func (c *Controller[T]) progressLocked() float64 {
	if len(c.sorted) == 0 {
		return 1
	}
	return float64(c.cursor) / float64(len(c.sorted))
}

func (c *Controller[T]) loadedLocked() []T {
	loaded := make([]T, c.cursor)
	copy(loaded, c.sorted[:c.cursor])
	return loaded
}
