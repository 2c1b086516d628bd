package models

import "strings"

// CourseType ranks scheduling priority of a course.
type CourseType string

const (
	CourseCore     CourseType = "Core"
	CourseMajor    CourseType = "Major"
	CourseElective CourseType = "Elective"
)

// PriorityRank returns the ordering weight used by the scheduler (higher first).
func (t CourseType) PriorityRank() int {
	switch t {
	case CourseCore:
		return 3
	case CourseMajor:
		return 2
	case CourseElective:
		return 1
	default:
		return 0
	}
}

// RoomType describes what kind of sessions a room can host.
type RoomType string

const (
	RoomLecture RoomType = "lecture"
	RoomLab     RoomType = "lab"
	RoomBoth    RoomType = "both"
)

// Course is a catalog entry subject to weekly scheduling.
type Course struct {
	ID                string     `db:"id" json:"id"`
	Code              string     `db:"code" json:"code"`
	Name              string     `db:"name" json:"name"`
	Credits           int        `db:"credits" json:"credits"`
	Type              CourseType `db:"type" json:"type"`
	Semester          string     `db:"semester" json:"semester"`
	Department        string     `db:"department" json:"department"`
	RequiresLab       bool       `db:"requires_lab" json:"requiresLab"`
	EstimatedStudents int        `db:"estimated_students" json:"estimatedStudents"`
}

// LabTagged reports whether the course is itself a lab course based on its
// code suffix or name. This is distinct from RequiresLab; the two signals are
// not reconciled and drive different parts of session planning.
func (c Course) LabTagged() bool {
	return strings.HasSuffix(c.Code, "-L") || strings.Contains(strings.ToLower(c.Name), "lab")
}

// NeedsLab reports whether a lab session must be placed for this course.
func (c Course) NeedsLab() bool {
	return c.RequiresLab || c.LabTagged()
}

// Faculty is a teaching staff member.
type Faculty struct {
	ID             string `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	Department     string `db:"department" json:"department"`
	MaxWeeklyHours int    `db:"max_weekly_hours" json:"maxWeeklyHours"`
}

// Room is a bookable teaching space.
type Room struct {
	ID       string   `db:"id" json:"id"`
	Name     string   `db:"name" json:"name"`
	Capacity int      `db:"capacity" json:"capacity"`
	Type     RoomType `db:"type" json:"type"`
	Building string   `db:"building" json:"building"`
}

// CanHostLecture reports lecture-session eligibility.
func (r Room) CanHostLecture() bool {
	return r.Type == RoomLecture || r.Type == RoomBoth
}

// CanHostLab reports lab-session eligibility.
func (r Room) CanHostLab() bool {
	return r.Type == RoomLab || r.Type == RoomBoth
}

// ManualSchedule pins an allotment to a fixed day and time string,
// e.g. {Day: "Monday", Time: "08:30 - 10:00 AM"}.
type ManualSchedule struct {
	Day  string `json:"day"`
	Time string `json:"time"`
}

// CourseAllotment assigns a course-faculty pair to one or more class sections.
type CourseAllotment struct {
	ID              string          `json:"id,omitempty"`
	CourseID        string          `json:"courseId"`
	FacultyID       string          `json:"facultyId"`
	ClassIDs        []string        `json:"classIds"`
	PreferredRoomID string          `json:"preferredRoomId,omitempty"`
	Department      string          `json:"department,omitempty"`
	ManualSchedule  *ManualSchedule `json:"manualSchedule,omitempty"`
}
