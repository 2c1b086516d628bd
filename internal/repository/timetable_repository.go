package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-os/timetable-api/internal/dto"
	"github.com/campus-os/timetable-api/internal/models"
)

// TimetableRepository persists generated timetables.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a TimetableRepository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// SaveRun stores all entries of one generation run in a single transaction,
// replacing any previous save under the same run ID.
func (r *TimetableRepository) SaveRun(ctx context.Context, runID string, entries []models.TimetableEntry) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin save run: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM timetable_entries WHERE run_id = $1`, runID); err != nil {
		return 0, fmt.Errorf("clear previous run: %w", err)
	}

	const insert = `INSERT INTO timetable_entries
		(id, run_id, course_id, course_code, course_name, faculty_id, faculty_name,
		 room_id, room_name, class_id, day, start_time, end_time, semester, created_at)
		VALUES (:id, :run_id, :course_id, :course_code, :course_name, :faculty_id, :faculty_name,
		 :room_id, :room_name, :class_id, :day, :start_time, :end_time, :semester, :created_at)`

	now := time.Now().UTC()
	for _, entry := range entries {
		rec := models.TimetableRecord{
			ID:          entry.ID,
			RunID:       runID,
			CourseID:    entry.CourseID,
			CourseCode:  entry.CourseCode,
			CourseName:  entry.CourseName,
			FacultyID:   entry.FacultyID,
			FacultyName: entry.FacultyName,
			RoomID:      entry.RoomID,
			RoomName:    entry.RoomName,
			ClassID:     entry.ClassID,
			Day:         string(entry.TimeSlot.Day),
			StartTime:   entry.TimeSlot.StartTime,
			EndTime:     entry.TimeSlot.EndTime,
			Semester:    entry.Semester,
			CreatedAt:   now,
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if _, err := tx.NamedExecContext(ctx, insert, rec); err != nil {
			return 0, fmt.Errorf("insert entry %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit save run: %w", err)
	}
	return len(entries), nil
}

// List returns persisted entries matching the query along with the total count.
func (r *TimetableRepository) List(ctx context.Context, q dto.ListEntriesQuery) ([]models.TimetableRecord, int, error) {
	base := "FROM timetable_entries WHERE 1=1"
	var conditions []string
	var args []interface{}

	if q.RunID != "" {
		conditions = append(conditions, fmt.Sprintf("run_id = $%d", len(args)+1))
		args = append(args, q.RunID)
	}
	if q.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, q.ClassID)
	}
	if q.Faculty != "" {
		conditions = append(conditions, fmt.Sprintf("faculty_id = $%d", len(args)+1))
		args = append(args, q.Faculty)
	}
	if q.Day != "" {
		conditions = append(conditions, fmt.Sprintf("day = $%d", len(args)+1))
		args = append(args, q.Day)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, run_id, course_id, course_code, course_name, faculty_id, faculty_name,
		room_id, room_name, class_id, day, start_time, end_time, semester, created_at
		%s ORDER BY day, start_time, class_id LIMIT %d OFFSET %d`, base, size, offset)

	var records []models.TimetableRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timetable entries: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count timetable entries: %w", err)
	}
	return records, total, nil
}

// LatestRunID returns the run ID of the most recent save, or empty when no
// timetable has been saved yet.
func (r *TimetableRepository) LatestRunID(ctx context.Context) (string, error) {
	var runID string
	err := r.db.GetContext(ctx, &runID,
		`SELECT run_id FROM timetable_entries ORDER BY created_at DESC LIMIT 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("latest run id: %w", err)
	}
	return runID, nil
}
