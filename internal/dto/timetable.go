package dto

import "github.com/campus-os/timetable-api/internal/models"

// GenerateTimetableRequest starts a generation run. The dataset may be posted
// inline; any section left empty is loaded from the catalog tables instead.
type GenerateTimetableRequest struct {
	Courses    []models.Course          `json:"courses" binding:"omitempty,dive"`
	Faculty    []models.Faculty         `json:"faculty" binding:"omitempty,dive"`
	Rooms      []models.Room            `json:"rooms" binding:"omitempty,dive"`
	Allotments []models.CourseAllotment `json:"allotments" binding:"omitempty,dive"`

	Semester   string   `json:"semester"`
	Department string   `json:"department"`
	Classes    []string `json:"classes"`
	Seed       int64    `json:"seed"`
}

// Config converts the request filters into the engine configuration.
func (r GenerateTimetableRequest) Config() models.GenerationConfig {
	return models.GenerationConfig{
		Semester:   r.Semester,
		Department: r.Department,
		Classes:    r.Classes,
	}
}

// GenerationSessionResponse acknowledges an accepted asynchronous run.
type GenerationSessionResponse struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
}

// GenerationStatusResponse reports the state of a running or finished session.
type GenerationStatusResponse struct {
	SessionID string                   `json:"sessionId"`
	Status    string                   `json:"status"`
	Progress  int                      `json:"progress"`
	Total     int                      `json:"total"`
	Result    *models.GenerationResult `json:"result,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// AuditTimetableRequest re-checks an entry list for conflicts. Courses and
// rooms provide the capacity and room-type context; left empty they are
// loaded from the catalog.
type AuditTimetableRequest struct {
	Entries []models.TimetableEntry `json:"entries" binding:"required,min=1,dive"`
	Courses []models.Course         `json:"courses" binding:"omitempty,dive"`
	Rooms   []models.Room           `json:"rooms" binding:"omitempty,dive"`
}

// AuditTimetableResponse is the audit verdict.
type AuditTimetableResponse struct {
	Conflicts []models.Conflict `json:"conflicts"`
	Errors    int               `json:"errors"`
	Warnings  int               `json:"warnings"`
	Clean     bool              `json:"clean"`
}

// SaveTimetableRequest persists a generated timetable under one run ID.
type SaveTimetableRequest struct {
	RunID   string                  `json:"runId"`
	Entries []models.TimetableEntry `json:"entries" binding:"required,min=1,dive"`
}

// SaveTimetableResponse confirms persistence.
type SaveTimetableResponse struct {
	RunID string `json:"runId"`
	Saved int    `json:"saved"`
}

// ListEntriesQuery filters persisted timetable entries.
type ListEntriesQuery struct {
	RunID    string `form:"runId"`
	ClassID  string `form:"classId"`
	Faculty  string `form:"facultyId"`
	Day      string `form:"day"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"pageSize,default=50" binding:"min=1,max=200"`
}

// ExportQuery selects the export rendering.
type ExportQuery struct {
	RunID   string `form:"runId"`
	ClassID string `form:"classId"`
	Format  string `form:"format,default=csv" binding:"oneof=csv pdf"`
}
