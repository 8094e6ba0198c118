package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/queuetheory/lossim/simulator"
)

var (
	// Prometheus metrics (gauges)
	promMetrics = struct {
		totalRequests      prometheus.Gauge
		handledRequests    prometheus.Gauge
		rejectedRequests   prometheus.Gauge
		busyChannels       prometheus.Gauge
		idleFraction       prometheus.Gauge
		rejectionProb      prometheus.Gauge
		rejectionProbTheor prometheus.Gauge
		meanBusyChannels   prometheus.Gauge
	}{
		totalRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lossim_total_requests",
			Help: "Total arrivals seen by the current experiment",
		}),
		handledRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lossim_handled_requests",
			Help: "Arrivals assigned to a service channel",
		}),
		rejectedRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lossim_rejected_requests",
			Help: "Arrivals dropped with all channels busy",
		}),
		busyChannels: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lossim_busy_channels",
			Help: "Channels occupied right now",
		}),
		idleFraction: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lossim_idle_fraction",
			Help: "Fraction of the run with every channel free (empirical P0)",
		}),
		rejectionProb: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lossim_rejection_probability",
			Help: "Empirical rejection probability (rejected/total)",
		}),
		rejectionProbTheor: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lossim_rejection_probability_theoretical",
			Help: "Erlang-B blocking probability for the configured lambda, mu, n",
		}),
		meanBusyChannels: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lossim_mean_busy_channels",
			Help: "Empirical mean number of busy channels",
		}),
	}
)

func initPrometheusMetrics() {
	prometheus.MustRegister(
		promMetrics.totalRequests,
		promMetrics.handledRequests,
		promMetrics.rejectedRequests,
		promMetrics.busyChannels,
		promMetrics.idleFraction,
		promMetrics.rejectionProb,
		promMetrics.rejectionProbTheor,
		promMetrics.meanBusyChannels,
	)
}

func updatePrometheusMetrics(stats *simulator.Stats, point *simulator.SimDataPoint) {
	promMetrics.totalRequests.Set(float64(stats.TotalRequests))
	promMetrics.handledRequests.Set(float64(stats.HandledRequests))
	promMetrics.rejectedRequests.Set(float64(stats.RejectedRequests))
	promMetrics.busyChannels.Set(float64(stats.BusyChannels))

	if point == nil {
		return
	}
	promMetrics.rejectionProbTheor.Set(point.TheoreticalPReject)
	if point.Unavailable {
		return
	}
	promMetrics.idleFraction.Set(point.EmpiricalP0)
	promMetrics.rejectionProb.Set(point.EmpiricalPReject)
	promMetrics.meanBusyChannels.Set(point.EmpiricalN)
}
