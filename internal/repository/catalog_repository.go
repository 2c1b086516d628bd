package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campus-os/timetable-api/internal/models"
)

// CatalogRepository reads the scheduling dataset: courses, faculty, rooms and
// course allotments.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs a CatalogRepository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Courses returns every catalog course.
func (r *CatalogRepository) Courses(ctx context.Context) ([]models.Course, error) {
	query := `SELECT id, code, name, credits, type, semester, department, requires_lab, estimated_students
		FROM courses ORDER BY code`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// Faculty returns every faculty member.
func (r *CatalogRepository) Faculty(ctx context.Context) ([]models.Faculty, error) {
	query := `SELECT id, name, department, max_weekly_hours FROM faculty ORDER BY name`
	var faculty []models.Faculty
	if err := r.db.SelectContext(ctx, &faculty, query); err != nil {
		return nil, fmt.Errorf("list faculty: %w", err)
	}
	return faculty, nil
}

// Rooms returns every bookable room.
func (r *CatalogRepository) Rooms(ctx context.Context) ([]models.Room, error) {
	query := `SELECT id, name, capacity, type, building FROM rooms ORDER BY name`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// allotmentRow is the flattened storage shape; class IDs and the optional
// manual schedule are JSON columns.
type allotmentRow struct {
	ID              string `db:"id"`
	CourseID        string `db:"course_id"`
	FacultyID       string `db:"faculty_id"`
	ClassIDs        []byte `db:"class_ids"`
	PreferredRoomID string `db:"preferred_room_id"`
	Department      string `db:"department"`
	ManualSchedule  []byte `db:"manual_schedule"`
}

// Allotments returns every course allotment.
func (r *CatalogRepository) Allotments(ctx context.Context) ([]models.CourseAllotment, error) {
	query := `SELECT id, course_id, faculty_id, class_ids,
		COALESCE(preferred_room_id, '') AS preferred_room_id,
		COALESCE(department, '') AS department,
		COALESCE(manual_schedule, 'null') AS manual_schedule
		FROM course_allotments ORDER BY id`
	var rows []allotmentRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list allotments: %w", err)
	}

	allotments := make([]models.CourseAllotment, 0, len(rows))
	for _, row := range rows {
		a := models.CourseAllotment{
			ID:              row.ID,
			CourseID:        row.CourseID,
			FacultyID:       row.FacultyID,
			PreferredRoomID: row.PreferredRoomID,
			Department:      row.Department,
		}
		if err := json.Unmarshal(row.ClassIDs, &a.ClassIDs); err != nil {
			return nil, fmt.Errorf("decode class ids for allotment %s: %w", row.ID, err)
		}
		if err := json.Unmarshal(row.ManualSchedule, &a.ManualSchedule); err != nil {
			return nil, fmt.Errorf("decode manual schedule for allotment %s: %w", row.ID, err)
		}
		allotments = append(allotments, a)
	}
	return allotments, nil
}
