package engine

import (
	"sort"

	"github.com/campus-os/timetable-api/internal/models"
)

// SortByPriority orders obligations for placement. Lab-requiring courses come
// before everything else because they need two contiguous slots in scarcer
// lab-capable rooms; within each group, Core > Major > Elective, then higher
// credits first. Returns a sorted copy.
func SortByPriority(allotments []models.CourseAllotment, courses []models.Course) []models.CourseAllotment {
	courseByID := make(map[string]models.Course, len(courses))
	for _, c := range courses {
		courseByID[c.ID] = c
	}

	sorted := append([]models.CourseAllotment(nil), allotments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, okA := courseByID[sorted[i].CourseID]
		b, okB := courseByID[sorted[j].CourseID]
		if !okA || !okB {
			return okA
		}

		labA := a.NeedsLab()
		labB := b.NeedsLab()
		if labA != labB {
			return labA
		}

		if a.Type.PriorityRank() != b.Type.PriorityRank() {
			return a.Type.PriorityRank() > b.Type.PriorityRank()
		}

		return a.Credits > b.Credits
	})
	return sorted
}
