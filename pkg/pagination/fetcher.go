// Package pagination aggregates offset-paginated result sets into single
// ordered collections.
package pagination

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// DefaultPageSize is the page size used when the caller passes a
// non-positive one.
const DefaultPageSize = 100

var fleetPagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "fleet_pages_fetched_total",
	Help: "Total pages fetched across paginated queries",
})

// PageFunc fetches one page of items starting at offset, returning at most
// count items.
type PageFunc[T any] func(ctx context.Context, offset, count int) ([]T, error)

// FetchAll repeatedly calls fetch with an advancing offset and concatenates
// the returned pages in arrival order. A short page (fewer items than
// pageSize, the empty page included) signals exhaustion and terminates the
// loop. Any page failure aborts the whole aggregation; no partial result is
// returned.
func FetchAll[T any](ctx context.Context, pageSize int, fetch PageFunc[T]) ([]T, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	start := time.Now()
	var items []T
	offset := 0
	pages := 0

	for {
		page, err := fetch(ctx, offset, pageSize)
		if err != nil {
			return nil, err
		}

		pages++
		fleetPagesFetchedTotal.Inc()
		items = append(items, page...)

		log.Debug().
			Int("offset", offset).
			Int("page_items", len(page)).
			Int("total_items", len(items)).
			Msg("Fetched page")

		if len(page) < pageSize {
			break
		}
		offset += pageSize
	}

	log.Debug().
		Int("pages", pages).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Paginated fetch complete")

	return items, nil
}
