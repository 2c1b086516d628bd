package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-os/timetable-api/internal/models"
)

func placementEntry(id, facultyID, roomID, classID, courseCode string, slot models.TimeSlot) models.TimetableEntry {
	return models.TimetableEntry{
		ID:          id,
		FacultyID:   facultyID,
		FacultyName: "Dr. Rao",
		RoomID:      roomID,
		RoomName:    "Room " + roomID,
		ClassID:     classID,
		CourseCode:  courseCode,
		CourseName:  courseCode,
		TimeSlot:    slot,
	}
}

func TestValidateDetectsHardClashes(t *testing.T) {
	v := NewConstraintValidator()
	slot := models.TimeSlot{Day: models.Monday, StartTime: "08:30", EndTime: "10:00"}
	overlapping := models.TimeSlot{Day: models.Monday, StartTime: "09:00", EndTime: "10:30"}

	existing := []models.TimetableEntry{
		placementEntry("e1", "f1", "r1", "BT-CS-5-A", "BT-CS-501", slot),
	}

	tests := []struct {
		name  string
		entry models.TimetableEntry
		want  models.ConflictType
	}{
		{
			"faculty clash",
			placementEntry("e2", "f1", "r2", "BT-CS-5-B", "BT-CS-502", overlapping),
			models.ConflictFacultyClash,
		},
		{
			"room clash",
			placementEntry("e3", "f2", "r1", "BT-CS-5-B", "BT-CS-502", overlapping),
			models.ConflictRoomClash,
		},
		{
			"class clash",
			placementEntry("e4", "f2", "r2", "BT-CS-5-A", "BT-CS-502", overlapping),
			models.ConflictStudentClash,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found := v.Validate(tt.entry, existing, models.Room{ID: "r2", Capacity: 100}, 30)
			require.Len(t, found, 1)
			assert.Equal(t, tt.want, found[0].Type)
			assert.Equal(t, models.SeverityError, found[0].Severity)
			assert.Contains(t, found[0].AffectedEntries, "e1")
			assert.True(t, HasBlocking(found))
		})
	}
}

func TestValidateNoConflictOnDifferentDay(t *testing.T) {
	v := NewConstraintValidator()
	existing := []models.TimetableEntry{
		placementEntry("e1", "f1", "r1", "BT-CS-5-A", "BT-CS-501",
			models.TimeSlot{Day: models.Monday, StartTime: "08:30", EndTime: "10:00"}),
	}
	entry := placementEntry("e2", "f1", "r1", "BT-CS-5-A", "BT-CS-501",
		models.TimeSlot{Day: models.Tuesday, StartTime: "08:30", EndTime: "10:00"})

	found := v.Validate(entry, existing, models.Room{Capacity: 100}, 30)
	assert.Empty(t, found)
}

func TestValidateRoomCapacityToggle(t *testing.T) {
	slot := models.TimeSlot{Day: models.Monday, StartTime: "08:30", EndTime: "10:00"}
	entry := placementEntry("e1", "f1", "r1", "BT-CS-5-A", "BT-CS-501", slot)
	small := models.Room{ID: "r1", Name: "R1", Capacity: 20}

	off := NewConstraintValidator()
	assert.Empty(t, off.Validate(entry, nil, small, 60), "capacity check is off by default")

	on := &ConstraintValidator{EnforceRoomCapacity: true, MaxCoursesPerFaculty: 4}
	found := on.Validate(entry, nil, small, 60)
	require.Len(t, found, 1)
	assert.Equal(t, models.ConflictCapacityOverflow, found[0].Type)
	assert.Equal(t, models.SeverityError, found[0].Severity)
}

func TestValidateFacultyCourseLimit(t *testing.T) {
	v := NewConstraintValidator()
	day := []models.Day{models.Monday, models.Tuesday, models.Wednesday, models.Thursday}

	var existing []models.TimetableEntry
	for i, code := range []string{"C1", "C2", "C3", "C4"} {
		existing = append(existing, placementEntry(
			"e"+code, "f1", "r1", "BT-CS-5-A", code,
			models.TimeSlot{Day: day[i], StartTime: "08:30", EndTime: "10:00"}))
	}

	fifth := placementEntry("e5", "f1", "r2", "BT-CS-5-B", "C5",
		models.TimeSlot{Day: models.Friday, StartTime: "08:30", EndTime: "10:00"})
	found := v.Validate(fifth, existing, models.Room{Capacity: 100}, 30)
	require.Len(t, found, 1)
	assert.Equal(t, models.SeverityWarning, found[0].Severity)
	assert.False(t, HasBlocking(found), "the limit warns but never blocks")

	repeat := placementEntry("e6", "f1", "r2", "BT-CS-5-B", "C4",
		models.TimeSlot{Day: models.Friday, StartTime: "10:00", EndTime: "11:30"})
	assert.Empty(t, v.Validate(repeat, existing, models.Room{Capacity: 100}, 30),
		"another session of a course already taught is exempt")
}
