package simulator

// SimConfig holds all parameters for one loss-system experiment.
// The model is M/M/n/n: n parallel channels, exponential inter-arrival times
// with rate ArrivalRate, exponential service times with rate ServiceRate, and
// no waiting room (arrivals finding every channel busy are rejected).
type SimConfig struct {
	Channels    int     `json:"channels"`    // Number of service channels (n)
	ServiceRate float64 `json:"serviceRate"` // Service rate per channel (mu), completions per model second
	ArrivalRate float64 `json:"arrivalRate"` // Arrival rate (lambda), arrivals per model second

	// Simulation Control
	RunDurationSec float64 `json:"runDurationSec"` // Experiment length in model seconds
	TimeScale      float64 `json:"timeScale"`      // Wall seconds per model second (1.0 = real time, 0.01 = 100x faster)
	RandomSeed     int64   `json:"randomSeed"`     // Random seed for reproducibility (0 = use time-based seed)
}

// DefaultConfig returns a small three-channel system at moderate load
func DefaultConfig() SimConfig {
	return SimConfig{
		Channels:       3,    // 3 service channels
		ServiceRate:    1.0,  // mean service time of 1 model second
		ArrivalRate:    0.5,  // offered load rho = 0.5
		RunDurationSec: 60.0, // 60 model seconds per experiment
		TimeScale:      1.0,  // real-time pacing
		RandomSeed:     0,    // 0 = use time-based seed
	}
}

// Validate checks if configuration values are reasonable.
// The Erlang model is undefined for non-positive rates or channel counts,
// so these fail fast instead of producing NaN statistics later.
func (c *SimConfig) Validate() error {
	if c.Channels <= 0 {
		return ErrInvalidConfig("channels must be > 0")
	}
	if c.ServiceRate <= 0 {
		return ErrInvalidConfig("serviceRate must be > 0")
	}
	if c.ArrivalRate <= 0 {
		return ErrInvalidConfig("arrivalRate must be > 0")
	}
	if c.RunDurationSec <= 0 {
		return ErrInvalidConfig("runDurationSec must be > 0")
	}
	if c.TimeScale <= 0 {
		return ErrInvalidConfig("timeScale must be > 0")
	}
	return nil
}
