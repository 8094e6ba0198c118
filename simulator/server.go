package simulator

import (
	"sync"
	"sync/atomic"
	"time"
)

// Server owns a fixed pool of service channels and the statistics of one
// experiment run. Every arrival either claims the lowest-indexed free channel
// or is rejected; there is no waiting room.
//
// All channel-pool and accumulator state is serialized through one mutex per
// Server instance. Service completions are scheduled through the Clock and
// never hold the lock while waiting, so up to Channels() completions can be
// pending concurrently with the arrival stream.
type Server struct {
	mu sync.Mutex

	channels      []bool // true = occupied; scanned in index order
	prevOccupancy []bool // Occupancy that held during the last elapsed interval
	lastUpdate    time.Time

	handled         int64
	rejected        int64
	totalProcessing time.Duration
	idleTime        time.Duration

	startedAt time.Time
	stoppedAt time.Time
	running   bool

	// totalRequests is atomic so accessors can read it without the lock,
	// but it is incremented inside the critical section: a snapshot must
	// never observe handled+rejected != total.
	totalRequests atomic.Int64

	serviceRate  float64
	timeScale    float64
	clock        Clock
	serviceTimes Sampler
}

// NewServer creates a server with n channels and per-channel service rate mu,
// paced against the real wall clock with no time scaling.
func NewServer(channels int, serviceRate float64) (*Server, error) {
	return NewServerWithClock(channels, serviceRate, 1.0, 0, RealClock)
}

// NewServerWithClock creates a server with explicit pacing and clock.
// timeScale maps model seconds to wall seconds; seed 0 picks a fresh seed
// for the service-time stream.
func NewServerWithClock(channels int, serviceRate, timeScale float64, seed int64, clock Clock) (*Server, error) {
	if channels <= 0 {
		return nil, ErrInvalidConfig("channels must be > 0")
	}
	if serviceRate <= 0 {
		return nil, ErrInvalidConfig("serviceRate must be > 0")
	}
	if timeScale <= 0 {
		return nil, ErrInvalidConfig("timeScale must be > 0")
	}
	if clock == nil {
		return nil, ErrInvalidConfig("clock must not be nil")
	}
	return &Server{
		channels:      make([]bool, channels),
		prevOccupancy: make([]bool, channels),
		serviceRate:   serviceRate,
		timeScale:     timeScale,
		clock:         clock,
		serviceTimes:  NewExpSampler(seed),
	}, nil
}

// StartSimulation resets all accumulators and begins a run. Must be called
// before any arrival is handled; counters are write-once per run.
func (s *Server) StartSimulation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	for i := range s.channels {
		s.channels[i] = false
		s.prevOccupancy[i] = false
	}
	s.handled = 0
	s.rejected = 0
	s.totalProcessing = 0
	s.idleTime = 0
	s.totalRequests.Store(0)
	s.startedAt = now
	s.lastUpdate = now
	s.stoppedAt = time.Time{}
	s.running = true
}

// HandleArrival processes one arrival: it claims the first free channel and
// schedules that channel's service completion, or rejects the arrival if all
// channels are busy. Exactly one of handled/rejected is incremented per call.
// Implements ArrivalObserver.
func (s *Server) HandleArrival() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalRequests.Add(1)

	if !s.running {
		// A stopping client may deliver one last arrival after the run is
		// frozen. Count it as rejected so handled+rejected == total holds
		// at every observation point; time accounting stays untouched.
		s.rejected++
		return
	}

	now := s.clock.Now()
	s.reconcileLocked(now)

	slot := -1
	for i, busy := range s.channels {
		if !busy {
			slot = i
			break
		}
	}
	if slot < 0 {
		s.rejected++
		return
	}

	s.channels[slot] = true
	s.handled++

	// Schedule the completion without blocking the critical section. The
	// sampled duration is in model seconds; the timer runs on wall time.
	service := s.serviceTimes.Sample(s.serviceRate)
	s.clock.AfterFunc(ScaleToWall(service, s.timeScale), func() {
		s.completeService(slot, now)
	})
}

// completeService releases the given channel once its service time elapses
// and attributes the elapsed real duration to totalProcessing.
func (s *Server) completeService(slot int, claimedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if s.running {
		s.reconcileLocked(now)
		s.totalProcessing += now.Sub(claimedAt)
	}
	// The slot is released even after StopSimulation so a reused Server
	// never starts a new run with phantom occupancy.
	s.channels[slot] = false
}

// StopSimulation freezes the run: one final idle-time reconciliation, then
// the accumulators become read-only snapshots of the finished experiment.
func (s *Server) StopSimulation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	now := s.clock.Now()
	s.reconcileLocked(now)
	s.stoppedAt = now
	s.running = false
}

// reconcileLocked attributes the interval since lastUpdate to idle time.
// The snapshot is captured from the pool BEFORE the calling operation applies
// its own mutation, so it is exactly the occupancy that held throughout the
// elapsed interval; the interval counts as idle iff that snapshot is all-free.
// Callers must run this before mutating the pool or idle attribution shifts
// by one state transition.
func (s *Server) reconcileLocked(now time.Time) {
	copy(s.prevOccupancy, s.channels)
	elapsed := now.Sub(s.lastUpdate)
	if elapsed <= 0 {
		return
	}
	allFree := true
	for _, busy := range s.prevOccupancy {
		if busy {
			allFree = false
			break
		}
	}
	if allFree {
		s.idleTime += elapsed
	}
	s.lastUpdate = now
}

// Stats returns a consistent snapshot of the run's statistics. Safe to call
// at any time, including after StopSimulation.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	end := s.stoppedAt
	if s.running {
		end = s.clock.Now()
	}
	var duration time.Duration
	if !s.startedAt.IsZero() {
		duration = end.Sub(s.startedAt)
	}

	busy := 0
	for _, b := range s.channels {
		if b {
			busy++
		}
	}

	return Stats{
		TotalRequests:       s.totalRequests.Load(),
		HandledRequests:     s.handled,
		RejectedRequests:    s.rejected,
		TotalProcessingTime: s.totalProcessing,
		IdleTime:            s.idleTime,
		Duration:            duration,
		BusyChannels:        busy,
		Running:             s.running,
	}
}

// Channels returns the size of the channel pool
func (s *Server) Channels() int {
	return len(s.channels)
}

// TotalRequests returns the number of arrivals seen so far
func (s *Server) TotalRequests() int64 {
	return s.totalRequests.Load()
}

// HandledRequests returns the number of arrivals assigned to a channel
func (s *Server) HandledRequests() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handled
}

// RejectedRequests returns the number of arrivals dropped with all channels busy
func (s *Server) RejectedRequests() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rejected
}

// TotalProcessingTime returns the accumulated service time across all channels
func (s *Server) TotalProcessingTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalProcessing
}

// IdleTime returns the accumulated time during which every channel was free
func (s *Server) IdleTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idleTime
}

// SimulationDuration returns the run length: end-start for a stopped run,
// now-start for one still in progress.
func (s *Server) SimulationDuration() time.Duration {
	return s.Stats().Duration
}
