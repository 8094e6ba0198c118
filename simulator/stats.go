package simulator

import "time"

// Stats is a read-only snapshot of one run's accumulators. Durations are
// wall-clock; divide by the experiment's time scale to recover model seconds.
type Stats struct {
	TotalRequests    int64 `json:"totalRequests"`
	HandledRequests  int64 `json:"handledRequests"`
	RejectedRequests int64 `json:"rejectedRequests"`

	TotalProcessingTime time.Duration `json:"totalProcessingTime"` // Sum of per-request service durations
	IdleTime            time.Duration `json:"idleTime"`            // Time during which every channel was free
	Duration            time.Duration `json:"duration"`            // Run length so far (end - start)

	BusyChannels int  `json:"busyChannels"` // Channels occupied at snapshot time
	Running      bool `json:"running"`
}

// EmpiricalP0 returns the observed fraction of the run during which the whole
// system was idle. Only meaningful once the run has accumulated some duration.
func (s Stats) EmpiricalP0() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return s.IdleTime.Seconds() / s.Duration.Seconds()
}

// EmpiricalPReject returns rejected/total. Callers must check
// TotalRequests > 0 first; a degenerate run has no defined rejection ratio.
func (s Stats) EmpiricalPReject() float64 {
	return float64(s.RejectedRequests) / float64(s.TotalRequests)
}

// EmpiricalQ returns handled/total. Same degenerate-run caveat as EmpiricalPReject.
func (s Stats) EmpiricalQ() float64 {
	return float64(s.HandledRequests) / float64(s.TotalRequests)
}

// EmpiricalN returns the observed mean number of busy channels: the total
// processing time spread over the run duration.
func (s Stats) EmpiricalN() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return s.TotalProcessingTime.Seconds() / s.Duration.Seconds()
}
