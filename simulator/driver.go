package simulator

import "fmt"

// SimDataPoint is the immutable result of one experiment: the arrival rate
// plus five empirical/theoretical metric pairs. A degenerate run (no arrivals
// within the window) is marked Unavailable; its ratio fields are zero, not
// NaN, and consumers should skip the point rather than plot it.
type SimDataPoint struct {
	Lambda      float64 `json:"lambda"`
	Unavailable bool    `json:"unavailable,omitempty"`

	TotalRequests    int64 `json:"totalRequests"`
	HandledRequests  int64 `json:"handledRequests"`
	RejectedRequests int64 `json:"rejectedRequests"`

	EmpiricalP0   float64 `json:"empiricalP0"`
	TheoreticalP0 float64 `json:"theoreticalP0"`

	EmpiricalPReject   float64 `json:"empiricalPReject"`
	TheoreticalPReject float64 `json:"theoreticalPReject"`

	EmpiricalQ   float64 `json:"empiricalQ"`
	TheoreticalQ float64 `json:"theoreticalQ"`

	EmpiricalA   float64 `json:"empiricalA"`
	TheoreticalA float64 `json:"theoreticalA"`

	EmpiricalN   float64 `json:"empiricalN"`
	TheoreticalN float64 `json:"theoreticalN"`
}

// Driver wires a Client to a Server for a fixed-duration window per arrival
// rate and collects one SimDataPoint per rate. The sweep itself is thin glue;
// each experiment's correctness lives in Server and Client.
type Driver struct {
	config SimConfig
	clock  Clock

	// Event logging callback (optional, for CLI/diagnostics)
	LogEvent func(msg string)
}

// NewDriver creates a driver from a base configuration. The configured
// ArrivalRate is only the default; RunExperiment overrides it per point.
func NewDriver(config SimConfig) (*Driver, error) {
	return NewDriverWithClock(config, RealClock)
}

// NewDriverWithClock creates a driver running against an explicit clock
func NewDriverWithClock(config SimConfig, clock Clock) (*Driver, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		return nil, ErrInvalidConfig("clock must not be nil")
	}
	return &Driver{config: config, clock: clock}, nil
}

// Config returns the driver's base configuration
func (d *Driver) Config() SimConfig {
	return d.config
}

// RunExperiment runs one experiment at the given arrival rate for the
// configured window and returns its data point.
func (d *Driver) RunExperiment(lambda float64) (SimDataPoint, error) {
	cfg := d.config
	cfg.ArrivalRate = lambda
	if err := cfg.Validate(); err != nil {
		return SimDataPoint{}, err
	}

	// Derive distinct seeds for the two random streams so a reproducible
	// run never feeds correlated draws to arrivals and service times.
	serverSeed, clientSeed := cfg.RandomSeed, cfg.RandomSeed
	if cfg.RandomSeed != 0 {
		serverSeed = cfg.RandomSeed*2 + 1
		clientSeed = cfg.RandomSeed * 2
	}

	server, err := NewServerWithClock(cfg.Channels, cfg.ServiceRate, cfg.TimeScale, serverSeed, d.clock)
	if err != nil {
		return SimDataPoint{}, err
	}
	client, err := NewClientWithClock(lambda, cfg.TimeScale, clientSeed, d.clock)
	if err != nil {
		return SimDataPoint{}, err
	}

	client.Subscribe(server)
	server.StartSimulation()
	client.Start()
	d.clock.Sleep(ScaleToWall(cfg.RunDurationSec, cfg.TimeScale))
	client.Stop()
	server.StopSimulation()

	point := NewSimDataPoint(lambda, cfg, server.Stats())
	if point.Unavailable {
		d.logEvent("lambda=%.4g: degenerate run, no arrivals within %.4g model seconds", lambda, cfg.RunDurationSec)
	}
	return point, nil
}

// RunSweep runs one experiment per arrival rate, in order. An experiment
// failure aborts only that rate's point: the failure is logged, the point is
// marked unavailable, and the sweep continues.
func (d *Driver) RunSweep(lambdas []float64) []SimDataPoint {
	points := make([]SimDataPoint, 0, len(lambdas))
	for _, lambda := range lambdas {
		point, err := d.RunExperiment(lambda)
		if err != nil {
			d.logEvent("lambda=%.4g: experiment failed: %v", lambda, err)
			point = SimDataPoint{Lambda: lambda, Unavailable: true}
		}
		points = append(points, point)
	}
	return points
}

func (d *Driver) logEvent(format string, args ...interface{}) {
	if d.LogEvent != nil {
		d.LogEvent(fmt.Sprintf(format, args...))
	}
}

// NewSimDataPoint derives the five empirical metrics from a finished run's stats
// and pairs them with their closed-form counterparts
func NewSimDataPoint(lambda float64, cfg SimConfig, stats Stats) SimDataPoint {
	point := SimDataPoint{
		Lambda:           lambda,
		TotalRequests:    stats.TotalRequests,
		HandledRequests:  stats.HandledRequests,
		RejectedRequests: stats.RejectedRequests,

		TheoreticalP0:      TheoreticalP0(lambda, cfg.ServiceRate, cfg.Channels),
		TheoreticalPReject: TheoreticalPReject(lambda, cfg.ServiceRate, cfg.Channels),
		TheoreticalQ:       TheoreticalQ(lambda, cfg.ServiceRate, cfg.Channels),
		TheoreticalA:       TheoreticalA(lambda, cfg.ServiceRate, cfg.Channels),
		TheoreticalN:       TheoreticalN(lambda, cfg.ServiceRate, cfg.Channels),
	}

	if stats.TotalRequests == 0 || stats.Duration <= 0 {
		point.Unavailable = true
		return point
	}

	modelSeconds := stats.Duration.Seconds() / cfg.TimeScale

	point.EmpiricalP0 = stats.EmpiricalP0()
	point.EmpiricalPReject = stats.EmpiricalPReject()
	point.EmpiricalQ = stats.EmpiricalQ()
	point.EmpiricalA = float64(stats.HandledRequests) / modelSeconds
	point.EmpiricalN = stats.EmpiricalN()
	return point
}
