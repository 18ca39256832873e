package workflow

import (
	"hms/internal/domains/request/model"
)

// Stats holds the dashboard aggregates computed over a set of booking
// requests.
type Stats struct {
	Total                int
	ByStatus             map[string]int
	ByPriority           map[string]int
	ByDepartment         map[string]int
	ApprovedRooms        int
	RoomUtilization      float64
	AvgProcessingSeconds float64
}

// Aggregate computes the dashboard figures in one pass. Room utilization is
// the share of the configured capacity held by approved requests, and the
// average processing time covers resolved requests only, measured from
// submission to the last decision.
func Aggregate(requests []model.BookingRequest, roomCapacity int) Stats {
	stats := Stats{
		Total:        len(requests),
		ByStatus:     map[string]int{},
		ByPriority:   map[string]int{},
		ByDepartment: map[string]int{},
	}

	var resolved int
	var processingSeconds float64

	for _, req := range requests {
		stats.ByStatus[req.Status]++
		stats.ByDepartment[req.Department]++

		if req.Priority != nil {
			stats.ByPriority[*req.Priority]++
		}

		if req.Status == model.StatusApproved {
			stats.ApprovedRooms += req.NumberOfRooms
		}

		if IsResolved(req.Status) {
			resolved++
			processingSeconds += req.ModifiedAt.Sub(req.CreatedAt).Seconds()
		}
	}

	if roomCapacity > 0 {
		stats.RoomUtilization = float64(stats.ApprovedRooms) / float64(roomCapacity)
	}

	if resolved > 0 {
		stats.AvgProcessingSeconds = processingSeconds / float64(resolved)
	}

	return stats
}
