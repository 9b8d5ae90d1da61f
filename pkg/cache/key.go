package cache

import (
	"fmt"
	"sort"
	"strings"
)

// QueryKey identifies a cached query result. Two queries with the same
// endpoint, tag filter, and enabled flag share one entry.
type QueryKey struct {
	// Endpoint is the admin API endpoint path (e.g. "/devices/query").
	Endpoint string

	// Tags is the tag filter of the query.
	Tags map[string][]string

	// Enabled marks enabled-only queries.
	Enabled bool
}

// String generates a deterministic cache key string.
// Format: fleet:endpoint:enabled=<bool>:tag1=v1,v2:tag2=v3
func (k QueryKey) String() string {
	parts := []string{"fleet"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	parts = append(parts, fmt.Sprintf("enabled=%t", k.Enabled))

	// Tag keys sorted for determinism; values kept in caller order since
	// the backend treats them as an ordered filter.
	if len(k.Tags) > 0 {
		tagKeys := make([]string, 0, len(k.Tags))
		for key := range k.Tags {
			tagKeys = append(tagKeys, key)
		}
		sort.Strings(tagKeys)

		for _, key := range tagKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, strings.Join(k.Tags[key], ",")))
		}
	}

	return strings.Join(parts, ":")
}
