package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	filesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trojanforge_batch_files_processed_total",
		Help: "Total number of netlist files that completed the pipeline.",
	})

	filesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trojanforge_batch_files_failed_total",
		Help: "Total number of netlist files that failed pipeline processing.",
	})

	trojansInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trojanforge_batch_trojans_inserted_total",
		Help: "Total number of Trojan instances successfully inserted.",
	})

	processingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trojanforge_batch_file_duration_seconds",
		Help:    "Per-file end-to-end pipeline duration.",
		Buckets: prometheus.DefBuckets,
	})
)
