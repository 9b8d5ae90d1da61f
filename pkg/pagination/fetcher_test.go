package pagination

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// pagedBackend serves a fixed item set in pageSize chunks and counts
// requests.
func pagedBackend(total int) (PageFunc[int], *int) {
	requests := 0
	fn := func(ctx context.Context, offset, count int) ([]int, error) {
		requests++
		if offset >= total {
			return nil, nil
		}
		end := offset + count
		if end > total {
			end = total
		}
		page := make([]int, 0, end-offset)
		for i := offset; i < end; i++ {
			page = append(page, i)
		}
		return page, nil
	}
	return fn, &requests
}

func TestFetchAll(t *testing.T) {
	tests := []struct {
		name         string
		total        int
		pageSize     int
		wantRequests int
	}{
		{
			name:         "short final page",
			total:        237,
			pageSize:     100,
			wantRequests: 3,
		},
		{
			name:         "empty result set",
			total:        0,
			pageSize:     100,
			wantRequests: 1,
		},
		{
			name:         "exact page multiple needs trailing empty page",
			total:        300,
			pageSize:     100,
			wantRequests: 4,
		},
		{
			name:         "single partial page",
			total:        42,
			pageSize:     100,
			wantRequests: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetch, requests := pagedBackend(tt.total)

			items, err := FetchAll(context.Background(), tt.pageSize, fetch)
			if err != nil {
				t.Fatalf("FetchAll failed: %v", err)
			}

			if len(items) != tt.total {
				t.Errorf("Expected %d items, got %d", tt.total, len(items))
			}
			if *requests != tt.wantRequests {
				t.Errorf("Expected %d requests, got %d", tt.wantRequests, *requests)
			}

			// Arrival order, nothing dropped or duplicated.
			for i, item := range items {
				if item != i {
					t.Fatalf("Item %d out of order: got %d", i, item)
				}
			}
		})
	}
}

func TestFetchAll_DefaultPageSize(t *testing.T) {
	var gotCount int
	fetch := func(ctx context.Context, offset, count int) ([]string, error) {
		gotCount = count
		return nil, nil
	}

	if _, err := FetchAll(context.Background(), 0, fetch); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if gotCount != DefaultPageSize {
		t.Errorf("Expected default page size %d, got %d", DefaultPageSize, gotCount)
	}
}

func TestFetchAll_PageFailureAbortsAggregation(t *testing.T) {
	pageErr := errors.New("backend unavailable")

	requests := 0
	fetch := func(ctx context.Context, offset, count int) ([]int, error) {
		requests++
		if requests == 2 {
			return nil, fmt.Errorf("page at offset %d: %w", offset, pageErr)
		}
		page := make([]int, count)
		return page, nil
	}

	items, err := FetchAll(context.Background(), 100, fetch)
	if !errors.Is(err, pageErr) {
		t.Fatalf("Expected the page error, got %v", err)
	}
	// No partial result on failure.
	if items != nil {
		t.Errorf("Expected nil result on failure, got %d items", len(items))
	}
	if requests != 2 {
		t.Errorf("Expected the loop to stop at the failing page, got %d requests", requests)
	}
}
