package simulator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Empirical-vs-theoretical accuracy runs. These pace real goroutines against
// the wall clock (scaled down 200x), so they take a few seconds and carry
// statistical tolerances; skipped under -short.

// TestIntegration_ModerateLoadMatchesErlang: n=3, mu=1, lambda=0.5 (rho=0.5).
// Theory: P0 = 0.6076, PReject = 0.0127, Q = 0.9873, N = 0.4937.
func TestIntegration_ModerateLoadMatchesErlang(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping wall-clock simulation in short mode")
	}

	cfg := SimConfig{
		Channels:       3,
		ServiceRate:    1.0,
		ArrivalRate:    0.5,
		RunDurationSec: 1000.0, // 1000x the mean service time
		TimeScale:      0.005,  // 5 wall seconds total
		RandomSeed:     12345,
	}
	driver, err := NewDriver(cfg)
	require.NoError(t, err)
	driver.LogEvent = func(msg string) { t.Log(msg) }

	point, err := driver.RunExperiment(0.5)
	require.NoError(t, err)
	require.False(t, point.Unavailable)
	require.Greater(t, point.TotalRequests, int64(300), "expected ~500 arrivals")

	t.Logf("P0: empirical %.4f vs theory %.4f", point.EmpiricalP0, point.TheoreticalP0)
	t.Logf("PReject: empirical %.4f vs theory %.4f", point.EmpiricalPReject, point.TheoreticalPReject)
	t.Logf("N: empirical %.4f vs theory %.4f", point.EmpiricalN, point.TheoreticalN)

	require.InDelta(t, point.TheoreticalP0, point.EmpiricalP0, 0.1)
	require.InDelta(t, point.TheoreticalPReject, point.EmpiricalPReject, 0.05)
	require.InDelta(t, point.TheoreticalQ, point.EmpiricalQ, 0.05)
	require.InDelta(t, point.TheoreticalN, point.EmpiricalN, 0.15)
	require.Equal(t, point.TotalRequests, point.HandledRequests+point.RejectedRequests)
}

// TestIntegration_HeavyLoadRejectionRate: n=3, mu=1, lambda=5 (rho=5).
// Theory: PReject = 0.5297; roughly half the arrivals are dropped.
func TestIntegration_HeavyLoadRejectionRate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping wall-clock simulation in short mode")
	}

	cfg := SimConfig{
		Channels:       3,
		ServiceRate:    1.0,
		ArrivalRate:    5.0,
		RunDurationSec: 300.0,
		TimeScale:      0.005, // 1.5 wall seconds, ~1500 arrivals
		RandomSeed:     6789,
	}
	driver, err := NewDriver(cfg)
	require.NoError(t, err)

	point, err := driver.RunExperiment(5.0)
	require.NoError(t, err)
	require.False(t, point.Unavailable)
	require.Greater(t, point.TotalRequests, int64(800))

	t.Logf("PReject: empirical %.4f vs theory %.4f (%d/%d rejected)",
		point.EmpiricalPReject, point.TheoreticalPReject, point.RejectedRequests, point.TotalRequests)

	require.InDelta(t, point.TheoreticalPReject, point.EmpiricalPReject, 0.1)
	require.Equal(t, point.TotalRequests, point.HandledRequests+point.RejectedRequests)
	require.LessOrEqual(t, point.EmpiricalN, 3.0, "mean busy channels cannot exceed the pool")
	require.LessOrEqual(t, point.EmpiricalP0, 0.1, "a saturated system is almost never fully idle")
}
