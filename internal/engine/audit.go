package engine

import (
	"fmt"
	"sort"

	"github.com/campus-os/timetable-api/internal/models"
)

// ConflictAuditor re-checks a finished (or manually edited) timetable from
// scratch. Unlike the placement-time validator it sees the whole entry list at
// once, so it can also report the soft quality rules: daily course limits,
// missing breaks, split lab blocks, room type and capacity problems.
type ConflictAuditor struct{}

// NewConflictAuditor returns a stateless auditor.
func NewConflictAuditor() *ConflictAuditor {
	return &ConflictAuditor{}
}

// Audit returns every conflict found in the entry list. Hard clashes come
// first, then the soft checks.
func (a *ConflictAuditor) Audit(entries []models.TimetableEntry, courses []models.Course, rooms []models.Room) []models.Conflict {
	courseByID := make(map[string]models.Course, len(courses))
	for _, c := range courses {
		courseByID[c.ID] = c
	}
	roomByID := make(map[string]models.Room, len(rooms))
	for _, r := range rooms {
		roomByID[r.ID] = r
	}

	var conflicts []models.Conflict
	conflicts = append(conflicts, a.pairwiseClashes(entries)...)
	conflicts = append(conflicts, a.dailyClassLimit(entries)...)
	conflicts = append(conflicts, a.breakRequirement(entries)...)
	conflicts = append(conflicts, a.labContinuity(entries)...)
	conflicts = append(conflicts, a.roomTypeMismatch(entries, courseByID, roomByID)...)
	conflicts = append(conflicts, a.capacityOverflow(entries, courseByID, roomByID)...)
	return conflicts
}

// pairwiseClashes scans every entry pair for faculty, room and class overlap.
func (a *ConflictAuditor) pairwiseClashes(entries []models.TimetableEntry) []models.Conflict {
	var conflicts []models.Conflict
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			first, second := entries[i], entries[j]
			if !first.TimeSlot.Overlaps(second.TimeSlot) {
				continue
			}
			affected := []string{first.ID, second.ID}
			if first.FacultyID == second.FacultyID {
				conflicts = append(conflicts, models.Conflict{
					Type:            models.ConflictFacultyClash,
					Message:         fmt.Sprintf("%s teaches %s and %s at the same time (%s %s)", first.FacultyName, first.CourseCode, second.CourseCode, first.TimeSlot.Day, first.TimeSlot.StartTime),
					AffectedEntries: affected,
					Severity:        models.SeverityError,
				})
			}
			if first.RoomID == second.RoomID {
				conflicts = append(conflicts, models.Conflict{
					Type:            models.ConflictRoomClash,
					Message:         fmt.Sprintf("room %s hosts %s and %s at the same time (%s %s)", first.RoomName, first.CourseCode, second.CourseCode, first.TimeSlot.Day, first.TimeSlot.StartTime),
					AffectedEntries: affected,
					Severity:        models.SeverityError,
				})
			}
			if first.ClassID == second.ClassID {
				conflicts = append(conflicts, models.Conflict{
					Type:            models.ConflictStudentClash,
					Message:         fmt.Sprintf("class %s has %s and %s at the same time (%s %s)", first.ClassID, first.CourseCode, second.CourseCode, first.TimeSlot.Day, first.TimeSlot.StartTime),
					AffectedEntries: affected,
					Severity:        models.SeverityError,
				})
			}
		}
	}
	return conflicts
}

// dailyClassLimit warns when a class takes more than three distinct courses on
// one day.
func (a *ConflictAuditor) dailyClassLimit(entries []models.TimetableEntry) []models.Conflict {
	type key struct {
		classID string
		day     models.Day
	}
	codes := make(map[key]map[string]bool)
	ids := make(map[key][]string)
	for _, e := range entries {
		k := key{e.ClassID, e.TimeSlot.Day}
		if codes[k] == nil {
			codes[k] = make(map[string]bool)
		}
		codes[k][e.CourseCode] = true
		ids[k] = append(ids[k], e.ID)
	}

	var conflicts []models.Conflict
	for _, k := range sortedKeys(codes) {
		if len(codes[k]) <= 3 {
			continue
		}
		conflicts = append(conflicts, models.Conflict{
			Type:            models.ConflictDailyLimit,
			Message:         fmt.Sprintf("class %s has %d different courses on %s (recommended max 3)", k.classID, len(codes[k]), k.day),
			AffectedEntries: ids[k],
			Severity:        models.SeverityWarning,
		})
	}
	return conflicts
}

// breakRequirement warns when a class sits through three or more back-to-back
// sessions without a gap.
func (a *ConflictAuditor) breakRequirement(entries []models.TimetableEntry) []models.Conflict {
	type key struct {
		classID string
		day     models.Day
	}
	grouped := make(map[key][]models.TimetableEntry)
	for _, e := range entries {
		k := key{e.ClassID, e.TimeSlot.Day}
		grouped[k] = append(grouped[k], e)
	}

	var conflicts []models.Conflict
	for _, k := range sortedKeys(grouped) {
		day := grouped[k]
		sort.Slice(day, func(i, j int) bool {
			return day[i].TimeSlot.StartTime < day[j].TimeSlot.StartTime
		})

		runLength := 1
		runIDs := []string{day[0].ID}
		for i := 1; i < len(day); i++ {
			if day[i].TimeSlot.StartTime == day[i-1].TimeSlot.EndTime {
				runLength++
				runIDs = append(runIDs, day[i].ID)
				continue
			}
			if runLength >= 3 {
				conflicts = append(conflicts, breakConflict(k.classID, k.day, runLength, runIDs))
			}
			runLength = 1
			runIDs = []string{day[i].ID}
		}
		if runLength >= 3 {
			conflicts = append(conflicts, breakConflict(k.classID, k.day, runLength, runIDs))
		}
	}
	return conflicts
}

func breakConflict(classID string, day models.Day, runLength int, runIDs []string) models.Conflict {
	return models.Conflict{
		Type:            models.ConflictBreakRequirement,
		Message:         fmt.Sprintf("class %s has %d consecutive sessions on %s with no break", classID, runLength, day),
		AffectedEntries: runIDs,
		Severity:        models.SeverityWarning,
	}
}

// labContinuity warns when the halves of a lab block ended up split across
// non-adjacent slots. Reported once per course, class and day.
func (a *ConflictAuditor) labContinuity(entries []models.TimetableEntry) []models.Conflict {
	type key struct {
		courseCode string
		classID    string
		day        models.Day
	}
	grouped := make(map[key][]models.TimetableEntry)
	for _, e := range entries {
		k := key{e.CourseCode, e.ClassID, e.TimeSlot.Day}
		grouped[k] = append(grouped[k], e)
	}

	var conflicts []models.Conflict
	for _, k := range sortedKeys(grouped) {
		group := grouped[k]
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			return group[i].TimeSlot.StartTime < group[j].TimeSlot.StartTime
		})

		contiguous := true
		ids := make([]string, 0, len(group))
		for i := range group {
			ids = append(ids, group[i].ID)
			if i > 0 && group[i].TimeSlot.StartTime != group[i-1].TimeSlot.EndTime {
				contiguous = false
			}
		}
		if contiguous {
			continue
		}
		conflicts = append(conflicts, models.Conflict{
			Type:            models.ConflictLabContinuity,
			Message:         fmt.Sprintf("%s sessions for class %s on %s are not contiguous", k.courseCode, k.classID, k.day),
			AffectedEntries: ids,
			Severity:        models.SeverityWarning,
		})
	}
	return conflicts
}

// roomTypeMismatch flags lab-requiring courses placed in lecture-only rooms.
func (a *ConflictAuditor) roomTypeMismatch(entries []models.TimetableEntry, courses map[string]models.Course, rooms map[string]models.Room) []models.Conflict {
	var conflicts []models.Conflict
	for _, e := range entries {
		course, okC := courses[e.CourseID]
		room, okR := rooms[e.RoomID]
		if !okC || !okR {
			continue
		}
		if course.RequiresLab && room.Type == models.RoomLecture {
			conflicts = append(conflicts, models.Conflict{
				Type:            models.ConflictRoomTypeMismatch,
				Message:         fmt.Sprintf("%s requires a lab but is scheduled in lecture room %s", e.CourseCode, e.RoomName),
				AffectedEntries: []string{e.ID},
				Severity:        models.SeverityError,
			})
		}
	}
	return conflicts
}

// capacityOverflow warns when estimated enrollment exceeds the room capacity.
func (a *ConflictAuditor) capacityOverflow(entries []models.TimetableEntry, courses map[string]models.Course, rooms map[string]models.Room) []models.Conflict {
	var conflicts []models.Conflict
	for _, e := range entries {
		course, okC := courses[e.CourseID]
		room, okR := rooms[e.RoomID]
		if !okC || !okR {
			continue
		}
		if course.EstimatedStudents > room.Capacity {
			conflicts = append(conflicts, models.Conflict{
				Type:            models.ConflictCapacityOverflow,
				Message:         fmt.Sprintf("room %s (capacity %d) may not seat the %d students expected for %s", e.RoomName, room.Capacity, course.EstimatedStudents, e.CourseCode),
				AffectedEntries: []string{e.ID},
				Severity:        models.SeverityWarning,
			})
		}
	}
	return conflicts
}

// sortedKeys yields map keys in a stable order so audit output is
// deterministic across runs.
func sortedKeys[K comparable, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
	})
	return keys
}
