package models

import (
	"strconv"
	"strings"
	"time"
)

// Day is a weekday name as rendered in timetables ("Monday" ... "Sunday").
type Day string

const (
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
	Saturday  Day = "Saturday"
	Sunday    Day = "Sunday"
)

// TimeSlot is an immutable weekly time band. Times are "HH:MM".
type TimeSlot struct {
	Day       Day    `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Key uniquely identifies a slot within a week by day and start time.
func (s TimeSlot) Key() string {
	return string(s.Day) + "-" + s.StartTime
}

// Overlaps reports whether two slots share any minutes on the same day.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	if s.Day != other.Day {
		return false
	}
	return timeToMinutes(s.StartTime) < timeToMinutes(other.EndTime) &&
		timeToMinutes(other.StartTime) < timeToMinutes(s.EndTime)
}

func timeToMinutes(hhmm string) int {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h*60 + m
}

// EntryMetadata carries display grouping derived from the class section ID.
type EntryMetadata struct {
	DepartmentCode string `json:"departmentCode"`
	SemesterName   string `json:"semesterName"`
	SemesterLevel  int    `json:"semesterLevel"`
}

// TimetableEntry is one scheduled session. Entries are immutable once created.
type TimetableEntry struct {
	ID          string        `json:"id"`
	CourseID    string        `json:"courseId"`
	CourseName  string        `json:"courseName"`
	CourseCode  string        `json:"courseCode"`
	FacultyID   string        `json:"facultyId"`
	FacultyName string        `json:"facultyName"`
	RoomID      string        `json:"roomId"`
	RoomName    string        `json:"roomName"`
	ClassID     string        `json:"classId"`
	TimeSlot    TimeSlot      `json:"timeSlot"`
	Semester    string        `json:"semester"`
	Forced      bool          `json:"forced,omitempty"`
	Metadata    EntryMetadata `json:"metadata"`
}

// ConflictType categorises scheduling violations and diagnostics.
type ConflictType string

const (
	ConflictFacultyClash     ConflictType = "faculty-clash"
	ConflictRoomClash        ConflictType = "room-clash"
	ConflictStudentClash     ConflictType = "student-clash"
	ConflictCapacityOverflow ConflictType = "capacity-overflow"
	ConflictDailyLimit       ConflictType = "daily-limit"
	ConflictBreakRequirement ConflictType = "break-requirement"
	ConflictLabContinuity    ConflictType = "lab-continuity"
	ConflictRoomTypeMismatch ConflictType = "room-type-mismatch"
	ConflictUnscheduled      ConflictType = "unscheduled"
	ConflictNoRoom           ConflictType = "no-room"
	ConflictNoSlot           ConflictType = "no-slot"
)

// Severity splits conflicts into blocking errors and informational warnings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Conflict is a data record describing one scheduling violation.
type Conflict struct {
	Type            ConflictType `json:"type"`
	Message         string       `json:"message"`
	AffectedEntries []string     `json:"affectedEntries"`
	Severity        Severity     `json:"severity"`
}

// GenerationConfig narrows a run to a semester, department or class list.
type GenerationConfig struct {
	Semester       string   `json:"semester"`
	Department     string   `json:"department"`
	Classes        []string `json:"classes,omitempty"`
	PrioritizeCore bool     `json:"prioritizeCore"`
}

// GenerationStatistics summarises a finished run.
type GenerationStatistics struct {
	TotalCourses       int `json:"totalCourses"`
	ScheduledCourses   int `json:"scheduledCourses"`
	UnscheduledCourses int `json:"unscheduledCourses"`
	TotalSlots         int `json:"totalSlots"`
	UsedSlots          int `json:"usedSlots"`
	ConflictsFound     int `json:"conflictsFound"`
}

// GenerationResult is the complete output of one generation run.
type GenerationResult struct {
	Success    bool                 `json:"success"`
	Timetable  []TimetableEntry     `json:"timetable"`
	Conflicts  []Conflict           `json:"conflicts"`
	Statistics GenerationStatistics `json:"statistics"`
	Message    string               `json:"message"`
}

// ErrorCount returns the number of blocking conflicts.
func (r GenerationResult) ErrorCount() int {
	n := 0
	for _, c := range r.Conflicts {
		if c.Severity == SeverityError {
			n++
		}
	}
	return n
}

// TimetableRecord is the flattened persistence shape of a TimetableEntry.
type TimetableRecord struct {
	ID          string    `db:"id" json:"id"`
	RunID       string    `db:"run_id" json:"runId"`
	CourseID    string    `db:"course_id" json:"courseId"`
	CourseCode  string    `db:"course_code" json:"courseCode"`
	CourseName  string    `db:"course_name" json:"courseName"`
	FacultyID   string    `db:"faculty_id" json:"facultyId"`
	FacultyName string    `db:"faculty_name" json:"facultyName"`
	RoomID      string    `db:"room_id" json:"roomId"`
	RoomName    string    `db:"room_name" json:"roomName"`
	ClassID     string    `db:"class_id" json:"classId"`
	Day         string    `db:"day" json:"day"`
	StartTime   string    `db:"start_time" json:"startTime"`
	EndTime     string    `db:"end_time" json:"endTime"`
	Semester    string    `db:"semester" json:"semester"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Entry rebuilds the in-memory entry from a persisted record.
func (rec TimetableRecord) Entry() TimetableEntry {
	return TimetableEntry{
		ID:          rec.ID,
		CourseID:    rec.CourseID,
		CourseCode:  rec.CourseCode,
		CourseName:  rec.CourseName,
		FacultyID:   rec.FacultyID,
		FacultyName: rec.FacultyName,
		RoomID:      rec.RoomID,
		RoomName:    rec.RoomName,
		ClassID:     rec.ClassID,
		TimeSlot:    TimeSlot{Day: Day(rec.Day), StartTime: rec.StartTime, EndTime: rec.EndTime},
		Semester:    rec.Semester,
	}
}
