// Package metrics registers the process-wide Prometheus collectors. All
// counters live on the default registry and are served by promhttp on
// /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhooksReceived counts inbound webhook requests per tracker
	WebhooksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dubsarr_webhooks_received_total",
		Help: "Webhook requests received, by source tracker.",
	}, []string{"source"})

	// Dispositions counts classification outcomes
	Dispositions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dubsarr_event_dispositions_total",
		Help: "Classified webhook events, by disposition.",
	}, []string{"disposition"})

	// CollectionAdds counts items newly added to a managed collection
	CollectionAdds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dubsarr_collection_items_added_total",
		Help: "Items added to managed collections.",
	})

	// CollectionTrims counts items evicted from the collection tail
	CollectionTrims = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dubsarr_collection_items_trimmed_total",
		Help: "Items trimmed from the tail of managed collections.",
	})

	// ResolutionFailures counts catalog lookups that found nothing
	ResolutionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dubsarr_resolution_failures_total",
		Help: "Catalog resolutions that failed after retries and fuzzy fallback.",
	}, []string{"source"})

	// DroppedTasks counts background tasks rejected by a full queue
	DroppedTasks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dubsarr_dropped_tasks_total",
		Help: "Background reconcile tasks dropped because the queue was full.",
	})
)
