// Package metrics exposes Prometheus counters for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TopicsServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claritycare_topics_served_total",
		Help: "Total number of topic detail responses served",
	})

	SafetyScans = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claritycare_safety_scans_total",
		Help: "Total number of safety scans performed",
	})

	SafetyWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claritycare_safety_warnings_total",
		Help: "Total number of safety warnings produced, by kind",
	}, []string{"kind"})

	SnapshotFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claritycare_snapshot_fetches_total",
		Help: "Total number of resource snapshot fetch attempts, by status",
	}, []string{"status"})

	DatasetSyncs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claritycare_dataset_syncs_total",
		Help: "Total number of dataset sync runs",
	})
)
