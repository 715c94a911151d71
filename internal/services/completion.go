package services

import (
	"math"

	"taskpilot/backend/internal/models"
)

// CompletionPercentage is the share of Done tasks, rounded half away from
// zero. No tasks means 0.
func CompletionPercentage(tasks []models.Task) int {
	if len(tasks) == 0 {
		return 0
	}

	done := 0
	for _, t := range tasks {
		if t.IsDone() {
			done++
		}
	}

	return int(math.Round(100 * float64(done) / float64(len(tasks))))
}
