package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProductsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_products_created_total",
		Help: "Total number of products created",
	})

	ProductsUpdatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_products_updated_total",
		Help: "Total number of product updates",
	})

	ProductsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_products_deleted_total",
		Help: "Total number of products deleted",
	})

	ImageMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_image_mutations_total",
		Help: "Total number of single-image operations",
	}, []string{"op"})

	CategoryMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_category_mutations_total",
		Help: "Total number of category writes",
	}, []string{"op"})

	LegacyImagesMigratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_legacy_images_migrated_total",
		Help: "Total number of legacy product images copied into product_images",
	})

	OperationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_operations_failed_total",
		Help: "Total number of failed catalog operations",
	}, []string{"op", "reason"})

	OperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_operation_latency_seconds",
		Help:    "Latency of catalog operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)

// WriteMetrics writes the default registry to path in the text exposition
// format, for collection by a node exporter textfile collector.
func WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
