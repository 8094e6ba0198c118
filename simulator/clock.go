package simulator

import (
	"container/heap"
	"sync"
	"time"
)

// Clock abstracts time measurement and timer scheduling so experiments can run
// against the real wall clock in production and a virtual clock in tests.
// Now must be monotonic for a given clock instance.
type Clock interface {
	// Now returns the current time
	Now() time.Time
	// Sleep blocks the calling goroutine for the given duration
	Sleep(d time.Duration)
	// AfterFunc runs f in its own goroutine (or timer context) after d elapses
	AfterFunc(d time.Duration, f func())
}

// RealClock is the production clock backed by package time
var RealClock Clock = realClock{}

type realClock struct{}

func (realClock) Now() time.Time                     { return time.Now() }
func (realClock) Sleep(d time.Duration)              { time.Sleep(d) }
func (realClock) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

// VirtualClock is a deterministic clock for tests. Time only moves when
// Advance is called; pending timers fire in timestamp order as the clock
// passes them. Safe for concurrent use.
type VirtualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers timerHeap
	seq    int64
}

// NewVirtualClock creates a virtual clock starting at the given instant
func NewVirtualClock(start time.Time) *VirtualClock {
	vc := &VirtualClock{now: start}
	heap.Init(&vc.timers)
	return vc
}

// Now returns the current virtual time
func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules f to run when the clock advances past d from now
func (c *VirtualClock) AfterFunc(d time.Duration, f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	heap.Push(&c.timers, &virtualTimer{at: c.now.Add(d), seq: c.seq, fn: f})
}

// Sleep blocks until the clock has advanced past d from now.
// The caller must arrange for Advance to be called from another goroutine.
func (c *VirtualClock) Sleep(d time.Duration) {
	done := make(chan struct{})
	c.AfterFunc(d, func() { close(done) })
	<-done
}

// Advance moves virtual time forward by d, firing every timer whose deadline
// falls within the window, in deadline order. Callbacks run synchronously on
// the calling goroutine with the clock set to their deadline, so a callback
// reading Now observes the instant it was scheduled for.
func (c *VirtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	for c.timers.Len() > 0 && !c.timers[0].at.After(target) {
		t := heap.Pop(&c.timers).(*virtualTimer)
		if t.at.After(c.now) {
			c.now = t.at
		}
		c.mu.Unlock()
		t.fn()
		c.mu.Lock()
	}
	if target.After(c.now) {
		c.now = target
	}
	c.mu.Unlock()
}

// PendingTimers returns the number of timers not yet fired (for inspection)
func (c *VirtualClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timers.Len()
}

type virtualTimer struct {
	at  time.Time
	seq int64 // Tie-breaker: timers at the same instant fire in schedule order
	fn  func()
}

// timerHeap implements heap.Interface for virtualTimer, ordered by deadline
type timerHeap []*virtualTimer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x interface{}) {
	*h = append(*h, x.(*virtualTimer))
}

func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
