// Package analysis computes cleaning-redundancy statistics over task
// reports fetched from the admin API.
package analysis

import (
	"math"

	"github.com/fleetops/fleet-admin-client/pkg/client"
)

// Result summarizes redundancy over a set of task reports.
type Result struct {
	// Total is the number of task reports examined.
	Total int

	// Redundant is the number of reports whose cleaning square was already
	// covered by another report in the set.
	Redundant int
}

// Percentage returns the redundant share in percent, rounded to two
// decimals. Zero when the set is empty.
func (r Result) Percentage() float64 {
	if r.Total == 0 {
		return 0
	}
	return math.Round(float64(r.Redundant)/float64(r.Total)*100*100) / 100
}

type square struct {
	x, y float64
}

// Redundancy counts how many task reports revisit a cleaning square covered
// by another report. For a square cleaned k times, k-1 runs are redundant.
func Redundancy(reports []client.TaskSummary) Result {
	counts := make(map[square]int, len(reports))
	for _, r := range reports {
		counts[square{r.Report.RobotCleaningSquareX, r.Report.RobotCleaningSquareY}]++
	}

	return Result{
		Total:     len(reports),
		Redundant: len(reports) - len(counts),
	}
}
