// Package enrollment collapses program-enrollment date ranges that overlap
// or sit within the adjacency gap into a single active record. The interval
// algebra is pure; the Reconciler applies it to the store.
package enrollment

import (
	"sort"
	"time"

	"github.com/Ramsey-B/laurel/pkg/models"
)

// DefaultAdjacencyGapDays preserves the historical merge behavior: ranges
// separated by exactly one day are treated as continuous.
const DefaultAdjacencyGapDays = 1

// Policy carries the deployment-tunable knobs of the interval algebra
type Policy struct {
	// AdjacencyGapDays is the largest gap, in days, at which two closed
	// ranges still merge. Values below 1 fall back to the default.
	AdjacencyGapDays int
}

// NewPolicy normalizes a configured gap into a usable policy
func NewPolicy(adjacencyGapDays int) Policy {
	if adjacencyGapDays < 1 {
		adjacencyGapDays = DefaultAdjacencyGapDays
	}
	return Policy{AdjacencyGapDays: adjacencyGapDays}
}

// RangesOverlapOrAdjacent reports whether two date ranges overlap or are
// adjacent within the policy gap. A nil end means the range is open-ended:
// two open ranges always overlap; an open range overlaps a closed one when
// the closed range starts on/after the open start, or ends on/after it.
func (p Policy) RangesOverlapOrAdjacent(startA time.Time, endA *time.Time, startB time.Time, endB *time.Time) bool {
	if endA == nil && endB == nil {
		return true
	}

	if endA == nil {
		return !startB.Before(startA) || (endB != nil && !endB.Before(startA))
	}
	if endB == nil {
		return !startA.Before(startB) || !endA.Before(startB)
	}

	// Closed ranges: standard interval intersection
	if !startA.After(*endB) && !startB.After(*endA) {
		return true
	}

	return p.adjacent(*endA, startB) || p.adjacent(*endB, startA)
}

func (p Policy) adjacent(end, start time.Time) bool {
	if !start.After(end) {
		return false
	}
	gap := int(start.Sub(end).Hours() / 24)
	return gap <= p.AdjacencyGapDays
}

// EnrollmentsOverlap applies the range check to two enrollment records
func (p Policy) EnrollmentsOverlap(a, b models.ClientProgramEnrollment) bool {
	return p.RangesOverlapOrAdjacent(a.StartDate, a.EndDate, b.StartDate, b.EndDate)
}

// GroupOverlapping partitions enrollments of one (client, program) pair into
// clusters whose ranges transitively overlap or are adjacent. Clustering runs
// to a fixpoint: a cluster absorbs any remaining enrollment touching any
// current member. Only clusters of two or more are returned; singletons need
// no merge.
func (p Policy) GroupOverlapping(enrollments []models.ClientProgramEnrollment) [][]models.ClientProgramEnrollment {
	if len(enrollments) < 2 {
		return nil
	}

	sorted := make([]models.ClientProgramEnrollment, len(enrollments))
	copy(sorted, enrollments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartDate.Before(sorted[j].StartDate)
	})

	processed := make([]bool, len(sorted))
	var clusters [][]models.ClientProgramEnrollment

	for i := range sorted {
		if processed[i] {
			continue
		}
		processed[i] = true
		cluster := []models.ClientProgramEnrollment{sorted[i]}

		for {
			absorbed := false
			for j := range sorted {
				if processed[j] {
					continue
				}
				for _, member := range cluster {
					if p.EnrollmentsOverlap(member, sorted[j]) {
						processed[j] = true
						cluster = append(cluster, sorted[j])
						absorbed = true
						break
					}
				}
			}
			if !absorbed {
				break
			}
		}

		if len(cluster) >= 2 {
			clusters = append(clusters, cluster)
		}
	}

	return clusters
}
