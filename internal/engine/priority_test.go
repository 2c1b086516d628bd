package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campus-os/timetable-api/internal/models"
)

func TestSortByPriorityLabFirstThenTypeThenCredits(t *testing.T) {
	courses := []models.Course{
		{ID: "elective", Type: models.CourseElective, Credits: 4},
		{ID: "core", Type: models.CourseCore, Credits: 3},
		{ID: "lab", Type: models.CourseElective, Credits: 2, RequiresLab: true},
		{ID: "major-heavy", Type: models.CourseMajor, Credits: 5},
		{ID: "major-light", Type: models.CourseMajor, Credits: 3},
	}
	allotments := []models.CourseAllotment{
		{CourseID: "elective"},
		{CourseID: "major-light"},
		{CourseID: "core"},
		{CourseID: "major-heavy"},
		{CourseID: "lab"},
	}

	sorted := SortByPriority(allotments, courses)

	var order []string
	for _, a := range sorted {
		order = append(order, a.CourseID)
	}
	assert.Equal(t, []string{"lab", "core", "major-heavy", "major-light", "elective"}, order)
}

func TestSortByPriorityTreatsLabTaggedCodeAsLab(t *testing.T) {
	courses := []models.Course{
		{ID: "theory", Code: "BT-CS-501", Type: models.CourseCore, Credits: 4},
		{ID: "lab", Code: "BT-CS-502-L", Type: models.CourseElective, Credits: 1},
	}
	allotments := []models.CourseAllotment{{CourseID: "theory"}, {CourseID: "lab"}}

	sorted := SortByPriority(allotments, courses)
	assert.Equal(t, "lab", sorted[0].CourseID, "the -L code suffix marks a lab course")
}

func TestSortByPriorityDoesNotMutateInput(t *testing.T) {
	courses := []models.Course{
		{ID: "a", Type: models.CourseElective},
		{ID: "b", Type: models.CourseCore},
	}
	allotments := []models.CourseAllotment{{CourseID: "a"}, {CourseID: "b"}}

	SortByPriority(allotments, courses)
	assert.Equal(t, "a", allotments[0].CourseID)
}
