package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/campus-os/timetable-api/internal/models"
)

// run holds the mutable state of one Generate call.
type run struct {
	engine   *Engine
	sctx     *SchedulingContext
	cfg      models.GenerationConfig
	rooms    []models.Room
	courses  map[string]models.Course
	faculty  map[string]models.Faculty
	allSlots []models.TimeSlot

	entries     []models.TimetableEntry
	conflicts   []models.Conflict
	unscheduled []string
}

// schedule plans every class section of one allotment.
func (r *run) schedule(a models.CourseAllotment) {
	course, ok := r.courses[a.CourseID]
	if !ok {
		return
	}
	fac, ok := r.faculty[a.FacultyID]
	if !ok {
		return
	}

	pool := WeekdaySlots()
	if semesterNumber(course.Semester) >= 7 {
		pool = WeekendSlots()
	}

	forced := resolveManualSlot(a.ManualSchedule, r.allSlots)

	for _, classID := range a.ClassIDs {
		if len(r.cfg.Classes) > 0 && !containsString(r.cfg.Classes, classID) {
			continue
		}
		r.scheduleClass(a, course, fac, classID, pool, forced)
	}
}

// scheduleClass places the weekly sessions of one course for one class
// section: theory sessions first (two passes, the first preferring untouched
// days), then the lab block as a pair of adjacent slots.
func (r *run) scheduleClass(
	a models.CourseAllotment,
	course models.Course,
	fac models.Faculty,
	classID string,
	pool []models.TimeSlot,
	forced *models.TimeSlot,
) {
	theoryNeeded := theorySessions(course)
	labNeeded := 0
	if course.NeedsLab() {
		labNeeded = 2
	}
	needed := theoryNeeded + labNeeded

	var prioritized []models.TimeSlot
	if forced != nil {
		prioritized = []models.TimeSlot{*forced}
	} else {
		prioritized = r.engine.scorer.Rank(pool, classID, r.entries, r.sctx)
	}

	scheduled := 0
	usedDays := make(map[models.Day]bool)

	r.placeTheory(a, course, fac, classID, prioritized, theoryNeeded, &scheduled, usedDays, forced != nil, true)
	r.placeTheory(a, course, fac, classID, prioritized, theoryNeeded, &scheduled, usedDays, forced != nil, false)

	if labNeeded > 0 && scheduled < needed {
		r.placeLab(a, course, fac, classID, prioritized, &scheduled)
	}

	if scheduled < needed {
		r.recordFailure(course, fac, classID, pool, scheduled, needed)
	}
}

// placeTheory walks the ranked slots committing theory sessions until the
// quota is met. With preferNewDay the first two sessions avoid days the class
// already uses, spreading the course across the week.
func (r *run) placeTheory(
	a models.CourseAllotment,
	course models.Course,
	fac models.Faculty,
	classID string,
	prioritized []models.TimeSlot,
	theoryNeeded int,
	scheduled *int,
	usedDays map[models.Day]bool,
	forced bool,
	preferNewDay bool,
) {
	for _, slot := range prioritized {
		if *scheduled >= theoryNeeded {
			return
		}
		if preferNewDay && usedDays[slot.Day] && *scheduled < 2 {
			continue
		}

		candidates := r.engine.allocator.Candidates(r.rooms, []models.TimeSlot{slot}, false, r.entries, a.PreferredRoomID, r.sctx)
		for _, room := range candidates {
			entry := r.newEntry(course, fac, room, classID, slot, course.Name, course.Code, forced)
			found := r.engine.validator.Validate(entry, r.entries, room, course.EstimatedStudents)
			// A pinned slot overrides hard conflicts only on the first pass.
			// The relaxed pass must not re-book the same slot; the shortfall
			// is reported as an unscheduled conflict instead.
			if HasBlocking(found) && !(forced && preferNewDay) {
				continue
			}
			r.keepWarnings(found)
			r.commit(entry, slot)
			*scheduled++
			usedDays[slot.Day] = true
			break
		}
	}
}

// placeLab books the lab block: two chronologically adjacent slots on one day
// in a single lab-capable room, committed together or not at all.
func (r *run) placeLab(
	a models.CourseAllotment,
	course models.Course,
	fac models.Faculty,
	classID string,
	prioritized []models.TimeSlot,
	scheduled *int,
) {
	labName := labSessionName(course.Name)
	labCode := labSessionCode(course.Code)

	for _, pair := range consecutivePairs(prioritized) {
		candidates := r.engine.allocator.Candidates(r.rooms, pair[:], true, r.entries, a.PreferredRoomID, r.sctx)
		for _, room := range candidates {
			first := r.newEntry(course, fac, room, classID, pair[0], labName+" (Part 1)", labCode, false)
			second := r.newEntry(course, fac, room, classID, pair[1], labName+" (Part 2)", labCode, false)

			c1 := r.engine.validator.Validate(first, r.entries, room, course.EstimatedStudents)
			c2 := r.engine.validator.Validate(second, r.entries, room, course.EstimatedStudents)
			if HasBlocking(c1) || HasBlocking(c2) {
				continue
			}
			r.keepWarnings(c1)
			r.keepWarnings(c2)
			r.commit(first, pair[0])
			r.entries = append(r.entries, second)
			*scheduled += 2
			return
		}
	}
}

// consecutivePairs returns same-day slot pairs where the first slot ends
// exactly when the second starts, ordered by the rank of the leading slot.
func consecutivePairs(prioritized []models.TimeSlot) [][2]models.TimeSlot {
	byStart := make(map[string]models.TimeSlot, len(prioritized))
	for _, s := range prioritized {
		byStart[s.Key()] = s
	}

	var pairs [][2]models.TimeSlot
	for _, s := range prioritized {
		if next, ok := byStart[string(s.Day)+"-"+s.EndTime]; ok {
			pairs = append(pairs, [2]models.TimeSlot{s, next})
		}
	}
	return pairs
}

func (r *run) commit(entry models.TimetableEntry, slot models.TimeSlot) {
	r.entries = append(r.entries, entry)
	r.sctx.MarkUsed(slot)
}

func (r *run) keepWarnings(found []models.Conflict) {
	for _, c := range found {
		if c.Severity == models.SeverityWarning {
			r.conflicts = append(r.conflicts, c)
		}
	}
}

func (r *run) newEntry(
	course models.Course,
	fac models.Faculty,
	room models.Room,
	classID string,
	slot models.TimeSlot,
	name, code string,
	forced bool,
) models.TimetableEntry {
	return models.TimetableEntry{
		ID:          uuid.NewString(),
		CourseID:    course.ID,
		CourseName:  name,
		CourseCode:  code,
		FacultyID:   fac.ID,
		FacultyName: fac.Name,
		RoomID:      room.ID,
		RoomName:    room.Name,
		ClassID:     classID,
		TimeSlot:    slot,
		Semester:    course.Semester,
		Forced:      forced,
		Metadata:    r.entryMetadata(classID, course),
	}
}

// entryMetadata derives display grouping from a section ID like "BT-CS-5-A":
// department code from the first two segments, semester level from the third.
func (r *run) entryMetadata(classID string, course models.Course) models.EntryMetadata {
	meta := models.EntryMetadata{
		DepartmentCode: "UNKNOWN",
		SemesterName:   course.Semester,
		SemesterLevel:  metadataLevel(course.Semester),
	}
	if r.cfg.Semester != "" && !strings.EqualFold(r.cfg.Semester, "all") {
		meta.SemesterName = r.cfg.Semester
	}

	parts := strings.Split(classID, "-")
	if len(parts) >= 2 {
		meta.DepartmentCode = parts[0] + "-" + parts[1]
	}
	if len(parts) >= 3 {
		if level, err := strconv.Atoi(parts[2]); err == nil {
			meta.SemesterLevel = level
		}
	}
	return meta
}

// metadataLevel is the display fallback when a class ID carries no numeric
// level segment: digits from the semester text, zero when there are none.
func metadataLevel(semester string) int {
	digits := digitsRe.FindString(semester)
	n := 0
	for _, r := range digits {
		n = n*10 + int(r-'0')
	}
	return n
}

// recordFailure notes the shortfall and diagnoses its most likely cause.
func (r *run) recordFailure(course models.Course, fac models.Faculty, classID string, pool []models.TimeSlot, scheduled, needed int) {
	r.unscheduled = append(r.unscheduled, course.Code+" for "+classID)

	reason := r.diagnoseFailure(course, fac, classID, pool)
	r.conflicts = append(r.conflicts, models.Conflict{
		Type:            models.ConflictUnscheduled,
		Message:         fmt.Sprintf("could not schedule %s (%s) for class %s: placed %d of %d sessions. %s", course.Name, course.Code, classID, scheduled, needed, reason),
		AffectedEntries: []string{},
		Severity:        models.SeverityError,
	})
}

// diagnoseFailure picks the dominant cause in fixed order: no adequate room,
// then a saturated faculty timetable, then an overloaded class, else generic.
func (r *run) diagnoseFailure(course models.Course, fac models.Faculty, classID string, pool []models.TimeSlot) string {
	adequate := 0
	for _, room := range r.rooms {
		if room.Capacity >= course.EstimatedStudents {
			adequate++
		}
	}
	if adequate == 0 {
		return fmt.Sprintf("No rooms with sufficient capacity (need %d+ seats).", course.EstimatedStudents)
	}

	facultyBusy := 0
	classBusy := 0
	for _, e := range r.entries {
		if e.FacultyID == fac.ID {
			facultyBusy++
		}
		if e.ClassID == classID {
			classBusy++
		}
	}
	if facultyBusy >= len(pool) {
		return fmt.Sprintf("Faculty %s is fully booked (%d/%d slots).", fac.Name, facultyBusy, len(pool))
	}
	if float64(classBusy) >= 0.8*float64(len(pool)) {
		return fmt.Sprintf("Class %s timetable is nearly full (%d/%d slots).", classID, classBusy, len(pool))
	}
	return "Time slot or resource conflicts prevented placement."
}

// theorySessions returns the weekly lecture quota: none for lab-tagged
// courses, otherwise two for light courses and three above three credits.
func theorySessions(course models.Course) int {
	if course.LabTagged() {
		return 0
	}
	if course.Credits <= 3 {
		return 2
	}
	return 3
}

func labSessionName(name string) string {
	trimmed := strings.TrimSpace(name)
	if strings.HasSuffix(strings.ToLower(trimmed), "lab") {
		return trimmed
	}
	return trimmed + " Lab"
}

func labSessionCode(code string) string {
	if strings.HasSuffix(code, "-L") {
		return code
	}
	return code + "-L"
}

func containsString(list []string, target string) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}
