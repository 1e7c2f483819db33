package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// lease grant counter - counts successes vs refusals
	// labels: resource, status (success/failure)
	LeaseGrantTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leasehold_lease_grant_total",
			Help: "total number of lease grant attempts",
		},
		[]string{"resource", "status"},
	)

	// reclaim counter - tracks explicit returns to domestic jurisdiction
	// labels: resource, status (success/failure)
	ReclaimTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leasehold_reclaim_total",
			Help: "total number of reclaim attempts",
		},
		[]string{"resource", "status"},
	)

	// access denial counter - every refused read/write on a guarded value
	// labels: resource, reason (foreign/expired)
	// a high "expired" rate means holders vanish without anyone reclaiming
	AccessDeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leasehold_access_denied_total",
			Help: "total number of local accesses refused by jurisdiction",
		},
		[]string{"resource", "reason"},
	)

	// currently foreign resources - gauge shows real-time leased-out count
	ForeignResources = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leasehold_foreign_resources",
			Help: "current number of resources under foreign jurisdiction",
		},
	)

	// wait-for graph size - edges currently recorded
	WaitEdges = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leasehold_wait_edges",
			Help: "current number of edges in the wait-for graph",
		},
	)

	// deadlock flag - 1 while the last scan found a cycle, else 0
	// alert on this, a cycle never resolves by itself
	DeadlockDetected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leasehold_deadlock_detected",
			Help: "whether the last wait-for scan found a cycle (1 = deadlock)",
		},
	)

	// deadlock scan counter - periodic and on-demand detections run
	DeadlockScanTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leasehold_deadlock_scan_total",
			Help: "total number of wait-for graph cycle scans",
		},
	)

	// service uptime - always 1 when running
	Up = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leasehold_up",
			Help: "whether the service is up (always 1 when running)",
		},
	)
)

func init() {
	// set uptime gauge to 1 on startup
	Up.Set(1)
}
