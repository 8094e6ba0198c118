package simulator

import (
	"sync"
	"sync/atomic"
)

// ArrivalObserver receives arrival notifications from a Client. Handlers are
// called synchronously from the generator loop and should return promptly.
type ArrivalObserver interface {
	HandleArrival()
}

// Client generates a Poisson arrival process: a loop that sleeps for an
// exponentially distributed interval, then notifies every subscribed
// observer. One Client drives one experiment.
type Client struct {
	lambda    float64
	timeScale float64
	clock     Clock
	intervals Sampler // Owned by the generator goroutine only

	running atomic.Bool
	done    chan struct{}

	mu        sync.Mutex
	observers []ArrivalObserver
}

// NewClient creates an arrival generator with rate lambda, paced against the
// real wall clock with no time scaling.
func NewClient(lambda float64) (*Client, error) {
	return NewClientWithClock(lambda, 1.0, 0, RealClock)
}

// NewClientWithClock creates an arrival generator with explicit pacing and
// clock. Seed 0 picks a fresh seed for the inter-arrival stream, independent
// of any Server's service-time stream.
func NewClientWithClock(lambda, timeScale float64, seed int64, clock Clock) (*Client, error) {
	if lambda <= 0 {
		return nil, ErrInvalidConfig("arrivalRate must be > 0")
	}
	if timeScale <= 0 {
		return nil, ErrInvalidConfig("timeScale must be > 0")
	}
	if clock == nil {
		return nil, ErrInvalidConfig("clock must not be nil")
	}
	return &Client{
		lambda:    lambda,
		timeScale: timeScale,
		clock:     clock,
		intervals: NewExpSampler(seed),
		done:      make(chan struct{}),
	}, nil
}

// Subscribe registers an observer for arrival notifications. Must be called
// before Start.
func (c *Client) Subscribe(o ArrivalObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// Start launches the generator goroutine. A Client runs at most once; a
// second Start is a no-op.
func (c *Client) Start() {
	if !c.running.CompareAndSwap(false, true) {
		return
	}
	go c.loop()
}

// Stop requests termination. Best-effort: the loop observes the flag at its
// next iteration boundary, so one in-flight sleep may still complete and
// emit one final arrival.
func (c *Client) Stop() {
	c.running.Store(false)
}

// Done is closed once the generator loop has exited. Only meaningful after
// Start has been called.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) loop() {
	defer close(c.done)
	for c.running.Load() {
		interval := c.intervals.Sample(c.lambda)
		c.clock.Sleep(ScaleToWall(interval, c.timeScale))
		if !c.running.Load() {
			return
		}
		c.notify()
	}
}

func (c *Client) notify() {
	c.mu.Lock()
	observers := c.observers
	c.mu.Unlock()
	for _, o := range observers {
		o.HandleArrival()
	}
}
