package engine

import (
	"fmt"

	"github.com/campus-os/timetable-api/internal/models"
)

// ConstraintValidator checks a prospective placement against the clash rules.
// Hard conflicts (faculty, room, class overlap) block placement; the faculty
// course-count cap only warns. Room capacity enforcement ships disabled as an
// institutional policy decision; the toggle keeps the check available.
type ConstraintValidator struct {
	EnforceRoomCapacity  bool
	MaxCoursesPerFaculty int
}

// NewConstraintValidator returns the default validator: capacity checking off,
// four distinct course codes per faculty member.
func NewConstraintValidator() *ConstraintValidator {
	return &ConstraintValidator{MaxCoursesPerFaculty: 4}
}

// Validate returns every conflict the placement would introduce.
func (v *ConstraintValidator) Validate(entry models.TimetableEntry, existing []models.TimetableEntry, room models.Room, estimatedStudents int) []models.Conflict {
	var conflicts []models.Conflict

	if c := v.facultyClash(entry, existing); c != nil {
		conflicts = append(conflicts, *c)
	}
	if c := v.roomClash(entry, existing); c != nil {
		conflicts = append(conflicts, *c)
	}
	if c := v.classClash(entry, existing); c != nil {
		conflicts = append(conflicts, *c)
	}
	if c := v.roomCapacity(entry, room, estimatedStudents); c != nil {
		conflicts = append(conflicts, *c)
	}
	if c := v.facultyCourseLimit(entry, existing); c != nil {
		conflicts = append(conflicts, *c)
	}
	return conflicts
}

// HasBlocking reports whether any conflict carries error severity.
func HasBlocking(conflicts []models.Conflict) bool {
	for _, c := range conflicts {
		if c.Severity == models.SeverityError {
			return true
		}
	}
	return false
}

func (v *ConstraintValidator) facultyClash(entry models.TimetableEntry, existing []models.TimetableEntry) *models.Conflict {
	var affected []string
	var first *models.TimetableEntry
	for i, e := range existing {
		if e.FacultyID == entry.FacultyID && e.TimeSlot.Overlaps(entry.TimeSlot) {
			if first == nil {
				first = &existing[i]
			}
			affected = append(affected, e.ID)
		}
	}
	if first == nil {
		return nil
	}
	return &models.Conflict{
		Type:            models.ConflictFacultyClash,
		Message:         fmt.Sprintf("%s is already teaching %s at this time", entry.FacultyName, first.CourseName),
		AffectedEntries: affected,
		Severity:        models.SeverityError,
	}
}

func (v *ConstraintValidator) roomClash(entry models.TimetableEntry, existing []models.TimetableEntry) *models.Conflict {
	var affected []string
	var first *models.TimetableEntry
	for i, e := range existing {
		if e.RoomID == entry.RoomID && e.TimeSlot.Overlaps(entry.TimeSlot) {
			if first == nil {
				first = &existing[i]
			}
			affected = append(affected, e.ID)
		}
	}
	if first == nil {
		return nil
	}
	return &models.Conflict{
		Type:            models.ConflictRoomClash,
		Message:         fmt.Sprintf("room %s is already occupied by %s at this time", entry.RoomName, first.CourseName),
		AffectedEntries: affected,
		Severity:        models.SeverityError,
	}
}

func (v *ConstraintValidator) classClash(entry models.TimetableEntry, existing []models.TimetableEntry) *models.Conflict {
	var affected []string
	var first *models.TimetableEntry
	for i, e := range existing {
		if e.ClassID == entry.ClassID && e.TimeSlot.Overlaps(entry.TimeSlot) {
			if first == nil {
				first = &existing[i]
			}
			affected = append(affected, e.ID)
		}
	}
	if first == nil {
		return nil
	}
	return &models.Conflict{
		Type:            models.ConflictStudentClash,
		Message:         fmt.Sprintf("class %s already has %s scheduled at this time", entry.ClassID, first.CourseName),
		AffectedEntries: affected,
		Severity:        models.SeverityError,
	}
}

func (v *ConstraintValidator) roomCapacity(entry models.TimetableEntry, room models.Room, estimatedStudents int) *models.Conflict {
	if !v.EnforceRoomCapacity {
		return nil
	}
	if estimatedStudents <= room.Capacity {
		return nil
	}
	return &models.Conflict{
		Type:            models.ConflictCapacityOverflow,
		Message:         fmt.Sprintf("room %s (capacity %d) cannot seat %d students for %s", entry.RoomName, room.Capacity, estimatedStudents, entry.CourseCode),
		AffectedEntries: []string{},
		Severity:        models.SeverityError,
	}
}

// facultyCourseLimit warns once a faculty member would exceed the distinct
// course-code cap. Teaching another session of a course they already hold is
// exempt.
func (v *ConstraintValidator) facultyCourseLimit(entry models.TimetableEntry, existing []models.TimetableEntry) *models.Conflict {
	max := v.MaxCoursesPerFaculty
	if max <= 0 {
		max = 4
	}

	codes := make(map[string]bool)
	var affected []string
	for _, e := range existing {
		if e.FacultyID == entry.FacultyID {
			codes[e.CourseCode] = true
			affected = append(affected, e.ID)
		}
	}
	if codes[entry.CourseCode] {
		return nil
	}
	if len(codes) < max {
		return nil
	}
	return &models.Conflict{
		Type:            models.ConflictFacultyClash,
		Message:         fmt.Sprintf("faculty limit reached: already teaching %d courses (max %d)", len(codes), max),
		AffectedEntries: affected,
		Severity:        models.SeverityWarning,
	}
}
