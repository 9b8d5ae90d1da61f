// Package metrics documents the Prometheus metrics exported by the fleet
// admin client. All metrics are defined in their respective packages
// (client, cache, pagination) to maintain modularity and avoid circular
// dependencies.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - fleet_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - fleet_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - fleet_errors_total{class} (Counter): Errors by class (auth, client, server, rate_limit, network, decode)
//   - fleet_logins_total{status} (Counter): Login attempts by outcome
//
// Retry Metrics (pkg/client):
//   - fleet_retries_total{endpoint} (Counter): Retry attempts by endpoint
//   - fleet_retry_backoff_seconds{endpoint} (Histogram): Backoff duration by endpoint
//   - fleet_retry_exhausted_total{endpoint} (Counter): Requests that exhausted the retry budget
//
// Cache Metrics (pkg/cache):
//   - fleet_cache_hits_total (Counter): Query-result cache hits
//   - fleet_cache_misses_total (Counter): Query-result cache misses
//   - fleet_cache_errors_total{operation} (Counter): Cache operation errors
//
// Pagination Metrics (pkg/pagination):
//   - fleet_pages_fetched_total (Counter): Pages fetched across paginated queries
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   rate(fleet_errors_total[5m])
//
//   # Cache Hit Rate
//   sum(rate(fleet_cache_hits_total[5m])) /
//   (sum(rate(fleet_cache_hits_total[5m])) + sum(rate(fleet_cache_misses_total[5m])))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(fleet_request_duration_seconds_bucket[5m]))
