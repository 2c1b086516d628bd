package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-os/timetable-api/internal/models"
)

func fixtureRooms() []models.Room {
	return []models.Room{
		{ID: "r-101", Name: "LH-101", Capacity: 60, Type: models.RoomLecture},
		{ID: "r-102", Name: "LH-102", Capacity: 60, Type: models.RoomLecture},
		{ID: "r-lab", Name: "Lab-1", Capacity: 30, Type: models.RoomLab},
		{ID: "r-flex", Name: "Flex-1", Capacity: 45, Type: models.RoomBoth},
	}
}

func fixtureFaculty() []models.Faculty {
	return []models.Faculty{
		{ID: "f-rao", Name: "Dr. Rao", Department: "Computer Science"},
		{ID: "f-iyer", Name: "Prof. Iyer", Department: "Computer Science"},
	}
}

func generate(t *testing.T, courses []models.Course, allotments []models.CourseAllotment, cfg models.GenerationConfig, opts ...Option) *models.GenerationResult {
	t.Helper()
	opts = append([]Option{WithSeed(7)}, opts...)
	result, err := New(opts...).Generate(context.Background(), courses, fixtureFaculty(), fixtureRooms(), allotments, cfg)
	require.NoError(t, err)
	return result
}

func entriesForCode(result *models.GenerationResult, code string) []models.TimetableEntry {
	var out []models.TimetableEntry
	for _, e := range result.Timetable {
		if e.CourseCode == code {
			out = append(out, e)
		}
	}
	return out
}

func TestGenerateTheorySessionCounts(t *testing.T) {
	courses := []models.Course{
		{ID: "c-light", Code: "BT-CS-301", Name: "Discrete Math", Credits: 3, Type: models.CourseCore, Semester: "Semester 3", EstimatedStudents: 40},
		{ID: "c-heavy", Code: "BT-CS-302", Name: "Algorithms", Credits: 4, Type: models.CourseCore, Semester: "Semester 3", EstimatedStudents: 40},
	}
	allotments := []models.CourseAllotment{
		{CourseID: "c-light", FacultyID: "f-rao", ClassIDs: []string{"BT-CS-3-A"}},
		{CourseID: "c-heavy", FacultyID: "f-iyer", ClassIDs: []string{"BT-CS-3-A"}},
	}

	result := generate(t, courses, allotments, models.GenerationConfig{})
	assert.True(t, result.Success, result.Message)
	assert.Len(t, entriesForCode(result, "BT-CS-301"), 2, "three credits get two weekly sessions")
	assert.Len(t, entriesForCode(result, "BT-CS-302"), 3, "four credits get three weekly sessions")
	assert.Equal(t, len(result.Timetable), result.Statistics.UsedSlots)
}

func TestGenerateLabBlockIsAdjacentPair(t *testing.T) {
	courses := []models.Course{
		{ID: "c-os", Code: "BT-CS-501", Name: "Operating Systems", Credits: 4, Type: models.CourseCore, Semester: "Semester 5", RequiresLab: true, EstimatedStudents: 30},
	}
	allotments := []models.CourseAllotment{
		{CourseID: "c-os", FacultyID: "f-rao", ClassIDs: []string{"BT-CS-5-A"}},
	}

	result := generate(t, courses, allotments, models.GenerationConfig{})
	require.True(t, result.Success, result.Message)

	labs := entriesForCode(result, "BT-CS-501-L")
	require.Len(t, labs, 2, "the lab block is two half-sessions")
	assert.Len(t, entriesForCode(result, "BT-CS-501"), 3, "theory sessions keep the base code")

	first, second := labs[0], labs[1]
	if first.TimeSlot.StartTime > second.TimeSlot.StartTime {
		first, second = second, first
	}
	assert.Equal(t, first.TimeSlot.Day, second.TimeSlot.Day)
	assert.Equal(t, first.TimeSlot.EndTime, second.TimeSlot.StartTime, "lab halves must be back to back")
	assert.Equal(t, first.RoomID, second.RoomID, "both halves stay in one room")
	assert.Contains(t, []string{"r-lab", "r-flex"}, first.RoomID, "labs need a lab-capable room")
	assert.Contains(t, first.CourseName, "(Part 1)")
	assert.Contains(t, second.CourseName, "(Part 2)")
}

func TestGenerateLabTaggedCourseGetsNoTheory(t *testing.T) {
	courses := []models.Course{
		{ID: "c-lab", Code: "BT-CS-502-L", Name: "Networks Lab", Credits: 1, Type: models.CourseCore, Semester: "Semester 5", EstimatedStudents: 30},
	}
	allotments := []models.CourseAllotment{
		{CourseID: "c-lab", FacultyID: "f-rao", ClassIDs: []string{"BT-CS-5-A"}},
	}

	result := generate(t, courses, allotments, models.GenerationConfig{})
	require.True(t, result.Success, result.Message)
	require.Len(t, result.Timetable, 2, "a lab-tagged course schedules only its lab block")
	assert.Equal(t, "BT-CS-502-L", result.Timetable[0].CourseCode, "an existing -L suffix is not doubled")
}

func TestGenerateSeniorSemesterUsesWeekends(t *testing.T) {
	courses := []models.Course{
		{ID: "c-sr", Code: "BT-CS-701", Name: "Distributed Systems", Credits: 4, Type: models.CourseCore, Semester: "Semester 7", EstimatedStudents: 30},
	}
	allotments := []models.CourseAllotment{
		{CourseID: "c-sr", FacultyID: "f-rao", ClassIDs: []string{"BT-CS-7-A"}},
	}

	result := generate(t, courses, allotments, models.GenerationConfig{})
	require.True(t, result.Success, result.Message)
	require.NotEmpty(t, result.Timetable)
	for _, e := range result.Timetable {
		assert.Contains(t, []models.Day{models.Saturday, models.Sunday}, e.TimeSlot.Day)
	}
}

func TestGenerateManualScheduleForcesSlot(t *testing.T) {
	courses := []models.Course{
		{ID: "c-a", Code: "BT-CS-303", Name: "Databases", Credits: 3, Type: models.CourseCore, Semester: "Semester 3", EstimatedStudents: 40},
	}
	allotments := []models.CourseAllotment{
		{
			CourseID:  "c-a",
			FacultyID: "f-rao",
			ClassIDs:  []string{"BT-CS-3-A"},
			ManualSchedule: &models.ManualSchedule{
				Day:  "Monday",
				Time: "08:30 - 10:00 AM",
			},
		},
	}

	result := generate(t, courses, allotments, models.GenerationConfig{})
	require.Len(t, result.Timetable, 1, "a pinned course books its slot exactly once")
	entry := result.Timetable[0]
	assert.Equal(t, models.Monday, entry.TimeSlot.Day)
	assert.Equal(t, "08:30", entry.TimeSlot.StartTime)
	assert.True(t, entry.Forced)
}

func TestGenerateManualScheduleReportsSessionShortfall(t *testing.T) {
	// A 3-credit course owes two weekly sessions but the manual schedule pins
	// it to a single slot. The remainder must surface as an unscheduled
	// conflict, not as a second booking of the same slot.
	courses := []models.Course{
		{ID: "c-a", Code: "BT-CS-303", Name: "Databases", Credits: 3, Type: models.CourseCore, Semester: "Semester 3", EstimatedStudents: 40},
	}
	allotments := []models.CourseAllotment{
		{
			CourseID:  "c-a",
			FacultyID: "f-rao",
			ClassIDs:  []string{"BT-CS-3-A"},
			ManualSchedule: &models.ManualSchedule{
				Day:  "Monday",
				Time: "08:30 - 10:00 AM",
			},
		},
	}

	result := generate(t, courses, allotments, models.GenerationConfig{})
	require.Len(t, result.Timetable, 1)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Statistics.UnscheduledCourses)

	var unscheduled []models.Conflict
	for _, c := range result.Conflicts {
		if c.Type == models.ConflictUnscheduled {
			unscheduled = append(unscheduled, c)
		}
	}
	require.Len(t, unscheduled, 1)
	assert.Equal(t, models.SeverityError, unscheduled[0].Severity)
	assert.Contains(t, unscheduled[0].Message, "BT-CS-303")
}

func TestGenerateReportsUnscheduledAsErrors(t *testing.T) {
	// A single lecture room and one class cannot absorb this many sessions.
	rooms := []models.Room{{ID: "r-1", Name: "LH-1", Capacity: 60, Type: models.RoomLecture}}
	var courses []models.Course
	var allotments []models.CourseAllotment
	codes := []string{"BT-CS-401", "BT-CS-402", "BT-CS-403", "BT-CS-404", "BT-CS-405",
		"BT-CS-406", "BT-CS-407", "BT-CS-408", "BT-CS-409", "BT-CS-410"}
	for i, code := range codes {
		id := code
		courses = append(courses, models.Course{
			ID: id, Code: code, Name: "Course " + code, Credits: 4,
			Type: models.CourseCore, Semester: "Semester 4", EstimatedStudents: 40,
		})
		facultyID := "f-rao"
		if i%2 == 1 {
			facultyID = "f-iyer"
		}
		allotments = append(allotments, models.CourseAllotment{
			CourseID: id, FacultyID: facultyID, ClassIDs: []string{"BT-CS-4-A"},
		})
	}

	result, err := New(WithSeed(7)).Generate(context.Background(), courses, fixtureFaculty(), rooms, allotments, models.GenerationConfig{})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Greater(t, result.Statistics.UnscheduledCourses, 0)

	found := false
	for _, c := range result.Conflicts {
		if c.Type == models.ConflictUnscheduled {
			found = true
			assert.Equal(t, models.SeverityError, c.Severity)
			assert.NotNil(t, c.AffectedEntries)
		}
	}
	assert.True(t, found, "expected at least one unscheduled conflict")
}

func TestScheduleClassLabFailsWithoutAdjacentAvailability(t *testing.T) {
	course := models.Course{ID: "c-lab", Code: "BT-CS-504-L", Name: "Compilers Lab", Credits: 1, Type: models.CourseCore, Semester: "Semester 5", EstimatedStudents: 30}
	fac := models.Faculty{ID: "f-rao", Name: "Dr. Rao"}
	rooms := []models.Room{
		{ID: "r-lab", Name: "Lab-1", Capacity: 30, Type: models.RoomLab},
		{ID: "r-101", Name: "LH-101", Capacity: 60, Type: models.RoomLecture},
	}
	pool := []models.TimeSlot{
		{Day: models.Monday, StartTime: "08:30", EndTime: "10:00"},
		{Day: models.Monday, StartTime: "10:00", EndTime: "11:30"},
		{Day: models.Monday, StartTime: "11:30", EndTime: "13:00"},
	}

	r := &run{
		engine: New(WithSeed(3)),
		sctx:   seededContext(3),
		rooms:  rooms,
		// The only lab room is taken mid-morning, so every adjacent pair in
		// the pool touches a booked slot.
		entries: []models.TimetableEntry{{
			ID: "e-busy", CourseCode: "BT-EE-401-L", FacultyID: "f-iyer", RoomID: "r-lab",
			ClassID:  "BT-EE-4-A",
			TimeSlot: models.TimeSlot{Day: models.Monday, StartTime: "10:00", EndTime: "11:30"},
		}},
	}

	r.scheduleClass(models.CourseAllotment{CourseID: course.ID, FacultyID: fac.ID}, course, fac, "BT-CS-5-A", pool, nil)

	for _, e := range r.entries {
		assert.NotEqual(t, "BT-CS-5-A", e.ClassID, "a lab block must not be half-booked")
	}
	require.Len(t, r.conflicts, 1)
	assert.Equal(t, models.ConflictUnscheduled, r.conflicts[0].Type)
	assert.Equal(t, models.SeverityError, r.conflicts[0].Severity)
	assert.Empty(t, r.conflicts[0].AffectedEntries)
}

func TestGenerateThenAuditFindsNoHardClashes(t *testing.T) {
	// One faculty member covering two sections must never end up double-booked
	// in the generated schedule, whatever the seed.
	courses := []models.Course{
		{ID: "c1", Code: "BT-CS-301", Name: "Discrete Math", Credits: 3, Type: models.CourseCore, Semester: "Semester 3", EstimatedStudents: 40},
		{ID: "c2", Code: "BT-CS-302", Name: "Algorithms", Credits: 4, Type: models.CourseCore, Semester: "Semester 3", EstimatedStudents: 40},
		{ID: "c3", Code: "BT-CS-303", Name: "Databases", Credits: 3, Type: models.CourseMajor, Semester: "Semester 3", EstimatedStudents: 40},
	}
	allotments := []models.CourseAllotment{
		{CourseID: "c1", FacultyID: "f-rao", ClassIDs: []string{"BT-CS-3-A", "BT-CS-3-B"}},
		{CourseID: "c2", FacultyID: "f-rao", ClassIDs: []string{"BT-CS-3-A", "BT-CS-3-B"}},
		{CourseID: "c3", FacultyID: "f-iyer", ClassIDs: []string{"BT-CS-3-A", "BT-CS-3-B"}},
	}

	for _, seed := range []int64{1, 7, 21, 42, 99} {
		result, err := New(WithSeed(seed)).Generate(context.Background(), courses, fixtureFaculty(), fixtureRooms(), allotments, models.GenerationConfig{})
		require.NoError(t, err)
		require.True(t, result.Success, "seed %d: %s", seed, result.Message)

		for _, c := range NewConflictAuditor().Audit(result.Timetable, courses, fixtureRooms()) {
			assert.NotEqual(t, models.SeverityError, c.Severity, "seed %d: %s", seed, c.Message)
		}
	}
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	courses := []models.Course{
		{ID: "c1", Code: "BT-CS-301", Name: "Discrete Math", Credits: 3, Type: models.CourseCore, Semester: "Semester 3", EstimatedStudents: 40},
		{ID: "c2", Code: "BT-CS-302", Name: "Algorithms", Credits: 4, Type: models.CourseMajor, Semester: "Semester 3", EstimatedStudents: 40},
	}
	allotments := []models.CourseAllotment{
		{CourseID: "c1", FacultyID: "f-rao", ClassIDs: []string{"BT-CS-3-A"}},
		{CourseID: "c2", FacultyID: "f-iyer", ClassIDs: []string{"BT-CS-3-A", "BT-CS-3-B"}},
	}

	first := generate(t, courses, allotments, models.GenerationConfig{}, WithSeed(99))
	second := generate(t, courses, allotments, models.GenerationConfig{}, WithSeed(99))

	require.Equal(t, len(first.Timetable), len(second.Timetable))
	for i := range first.Timetable {
		assert.Equal(t, first.Timetable[i].TimeSlot, second.Timetable[i].TimeSlot)
		assert.Equal(t, first.Timetable[i].RoomID, second.Timetable[i].RoomID)
	}
}

func TestGenerateClassFilterSkipsOtherSections(t *testing.T) {
	courses := []models.Course{
		{ID: "c1", Code: "BT-CS-301", Name: "Discrete Math", Credits: 3, Type: models.CourseCore, Semester: "Semester 3", EstimatedStudents: 40},
	}
	allotments := []models.CourseAllotment{
		{CourseID: "c1", FacultyID: "f-rao", ClassIDs: []string{"BT-CS-3-A", "BT-CS-3-B"}},
	}

	result := generate(t, courses, allotments, models.GenerationConfig{Classes: []string{"BT-CS-3-B"}})
	require.NotEmpty(t, result.Timetable)
	for _, e := range result.Timetable {
		assert.Equal(t, "BT-CS-3-B", e.ClassID)
	}
}

func TestGenerateEntryMetadata(t *testing.T) {
	courses := []models.Course{
		{ID: "c1", Code: "BT-CS-501", Name: "Operating Systems", Credits: 3, Type: models.CourseCore, Semester: "Semester 5", EstimatedStudents: 40},
	}
	allotments := []models.CourseAllotment{
		{CourseID: "c1", FacultyID: "f-rao", ClassIDs: []string{"BT-CS-5-A"}},
	}

	result := generate(t, courses, allotments, models.GenerationConfig{Semester: "all"})
	require.NotEmpty(t, result.Timetable)
	meta := result.Timetable[0].Metadata
	assert.Equal(t, "BT-CS", meta.DepartmentCode)
	assert.Equal(t, "Semester 5", meta.SemesterName)
	assert.Equal(t, 5, meta.SemesterLevel)
}

func TestGenerateEntryMetadataFallbacks(t *testing.T) {
	courses := []models.Course{
		{ID: "c1", Code: "GEN-ELEC", Name: "General Elective", Credits: 3, Type: models.CourseElective, Semester: "Foundation", EstimatedStudents: 40},
	}
	allotments := []models.CourseAllotment{
		{CourseID: "c1", FacultyID: "f-rao", ClassIDs: []string{"OPENGROUP"}},
	}

	result := generate(t, courses, allotments, models.GenerationConfig{})
	require.NotEmpty(t, result.Timetable)
	meta := result.Timetable[0].Metadata
	assert.Equal(t, "UNKNOWN", meta.DepartmentCode)
	assert.Equal(t, "Foundation", meta.SemesterName)
	assert.Equal(t, 0, meta.SemesterLevel, "a non-numeric semester carries no display level")
}

func TestGenerateRejectsNegativeRoomCapacity(t *testing.T) {
	rooms := []models.Room{{ID: "r-bad", Capacity: -1, Type: models.RoomLecture}}
	_, err := New().Generate(context.Background(), nil, nil, rooms, nil, models.GenerationConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative capacity")
}

func TestGenerateHonoursContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	courses := []models.Course{
		{ID: "c1", Code: "BT-CS-301", Name: "Discrete Math", Credits: 3, Type: models.CourseCore, Semester: "3", EstimatedStudents: 40},
	}
	allotments := []models.CourseAllotment{
		{CourseID: "c1", FacultyID: "f-rao", ClassIDs: []string{"BT-CS-3-A"}},
	}

	_, err := New(WithSeed(7)).Generate(ctx, courses, fixtureFaculty(), fixtureRooms(), allotments, models.GenerationConfig{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateReportsProgress(t *testing.T) {
	courses := []models.Course{
		{ID: "c1", Code: "BT-CS-301", Name: "Discrete Math", Credits: 3, Type: models.CourseCore, Semester: "3", EstimatedStudents: 40},
		{ID: "c2", Code: "BT-CS-302", Name: "Algorithms", Credits: 3, Type: models.CourseCore, Semester: "3", EstimatedStudents: 40},
	}
	allotments := []models.CourseAllotment{
		{CourseID: "c1", FacultyID: "f-rao", ClassIDs: []string{"BT-CS-3-A"}},
		{CourseID: "c2", FacultyID: "f-iyer", ClassIDs: []string{"BT-CS-3-A"}},
	}

	var seen []int
	generate(t, courses, allotments, models.GenerationConfig{}, WithProgress(func(done, total int) {
		assert.Equal(t, 2, total)
		seen = append(seen, done)
	}))
	assert.Equal(t, []int{1, 2}, seen)
}
