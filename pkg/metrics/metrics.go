package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	repositoryOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "knowledgedb_repository_operations_total",
		Help: "Total number of repository operations by family, operation and result",
	}, []string{"family", "operation", "result"})

	repositoryOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "knowledgedb_repository_operation_duration_seconds",
		Help:    "Duration of repository operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"family", "operation"})

	shardsOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "knowledgedb_shards_opened_total",
		Help: "Count of shard connection pools opened by family and driver",
	}, []string{"family", "driver"})

	crossShardMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "knowledgedb_cross_shard_misses_total",
		Help: "Count of association rows whose referenced entity was not found in its shard",
	}, []string{"association", "entity"})
)

// ObserveOperation records one repository operation.
func ObserveOperation(family, operation string, err error, duration time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	repositoryOperationsTotal.WithLabelValues(family, operation, result).Inc()
	repositoryOperationDuration.WithLabelValues(family, operation).Observe(duration.Seconds())
}

// ObserveShardOpened records that a family's connection pool was established.
func ObserveShardOpened(family, driver string) {
	shardsOpened.WithLabelValues(family, driver).Inc()
}

// ObserveCrossShardMiss records a dangling cross-shard reference.
func ObserveCrossShardMiss(association, entity string) {
	crossShardMisses.WithLabelValues(association, entity).Inc()
}
