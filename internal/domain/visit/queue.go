package visit

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Less is the queue comparator: severity score descending, then creation time
// ascending, then id ascending. The id key makes the order a strict total
// order even for visits sharing score and timestamp.
func Less(a, b *Visit) bool {
	if a.SeverityScore != b.SeverityScore {
		return a.SeverityScore > b.SeverityScore
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return strings.Compare(a.ID.String(), b.ID.String()) < 0
}

// Order sorts visits in place by the queue comparator and returns the slice.
// Re-running Order on an unchanged set yields an identical result.
func Order(visits []*Visit) []*Visit {
	sort.SliceStable(visits, func(i, j int) bool { return Less(visits[i], visits[j]) })
	return visits
}

// Position returns the 1-indexed queue position of the visit with the given
// id among waiting: the count of visits that strictly precede it, plus one.
// Returns 0 when the id is not in the slice.
func Position(waiting []*Visit, id uuid.UUID) int {
	var target *Visit
	for _, v := range waiting {
		if v.ID == id {
			target = v
			break
		}
	}
	if target == nil {
		return 0
	}
	pos := 1
	for _, v := range waiting {
		if v.ID != id && Less(v, target) {
			pos++
		}
	}
	return pos
}

// EstimatedWaitMinutes converts a queue position to an estimated wait given
// the per-consultation minutes for the tier.
func EstimatedWaitMinutes(position, perConsultationMinutes int) int {
	if position <= 1 {
		return 0
	}
	return (position - 1) * perConsultationMinutes
}

// QueueStats summarizes a doctor's queue for dashboard display.
type QueueStats struct {
	TotalWaiting    int      `json:"total_waiting"`
	HighestSeverity *float64 `json:"highest_severity,omitempty"`
}

// Stats computes queue statistics over an ordered or unordered visit slice.
func Stats(visits []*Visit) QueueStats {
	var stats QueueStats
	for _, v := range visits {
		if v.Status == StatusWaiting {
			stats.TotalWaiting++
		}
		if stats.HighestSeverity == nil || v.SeverityScore > *stats.HighestSeverity {
			score := v.SeverityScore
			stats.HighestSeverity = &score
		}
	}
	return stats
}
