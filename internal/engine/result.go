package engine

import (
	"fmt"
	"strings"

	"github.com/campus-os/timetable-api/internal/models"
)

// assembleResult folds run state into the final report. A run succeeds when no
// error-severity conflict was recorded; warnings alone do not fail it.
func assembleResult(
	totalObligations int,
	entries []models.TimetableEntry,
	conflicts []models.Conflict,
	unscheduled []string,
	totalSlots int,
) *models.GenerationResult {
	missedCodes := make(map[string]bool)
	for _, item := range unscheduled {
		code := item
		if idx := strings.Index(item, " for "); idx > 0 {
			code = item[:idx]
		}
		missedCodes[code] = true
	}

	result := &models.GenerationResult{
		Timetable: entries,
		Conflicts: conflicts,
		Statistics: models.GenerationStatistics{
			TotalCourses:       totalObligations,
			ScheduledCourses:   totalObligations - len(missedCodes),
			UnscheduledCourses: len(missedCodes),
			TotalSlots:         totalSlots,
			UsedSlots:          len(entries),
			ConflictsFound:     len(conflicts),
		},
	}
	result.Success = result.ErrorCount() == 0

	switch {
	case result.Success && len(conflicts) == 0:
		result.Message = fmt.Sprintf("Timetable generated successfully with %d sessions.", len(entries))
	case result.Success:
		result.Message = fmt.Sprintf("Timetable generated with %d sessions and %d warnings.", len(entries), len(conflicts))
	default:
		result.Message = fmt.Sprintf("Timetable generated with %d sessions, %d courses could not be fully scheduled.", len(entries), len(missedCodes))
	}
	return result
}
