package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ReportComputations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "traffic_report_computations_total",
		Help: "Variation report computations by outcome",
	}, []string{"outcome"})
	ReportDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "traffic_report_duration_seconds",
		Help:    "Variation report computation duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	Dispatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "traffic_report_dispatches_total",
		Help: "Report dispatch attempts by channel and status",
	}, []string{"channel", "status"})
	DispatchQueueDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "traffic_report_dispatch_dropped_total",
		Help: "Reports dropped because the dispatch queue was full",
	})
	CollectorRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "traffic_collector_runs_total",
		Help: "Hourly collector runs by outcome",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(ReportComputations, ReportDuration, Dispatches, DispatchQueueDropped, CollectorRuns)
}

// ObserveReportDuration records one computation measured from start.
func ObserveReportDuration(start time.Time) {
	ReportDuration.Observe(time.Since(start).Seconds())
}

func IncReportComputation(outcome string) { ReportComputations.WithLabelValues(outcome).Inc() }

func IncDispatch(channel, status string) { Dispatches.WithLabelValues(channel, status).Inc() }

func IncCollectorRun(outcome string) { CollectorRuns.WithLabelValues(outcome).Inc() }
