package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/campus-os/timetable-api/internal/models"
)

// Exporter renders a tabular dataset in one output format.
type Exporter interface {
	Render(data Dataset, title string) ([]byte, error)
	ContentType() string
	Extension() string
}

// Document is a rendered export ready to be served.
type Document struct {
	Filename    string
	ContentType string
	Bytes       []byte
}

var dayOrder = map[models.Day]int{
	models.Monday:    0,
	models.Tuesday:   1,
	models.Wednesday: 2,
	models.Thursday:  3,
	models.Friday:    4,
	models.Saturday:  5,
	models.Sunday:    6,
}

// Render flattens timetable entries into the export table, ordered by day,
// start time and class section.
func Render(exporter Exporter, entries []models.TimetableEntry, title string) (*Document, error) {
	sorted := append([]models.TimetableEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if dayOrder[a.TimeSlot.Day] != dayOrder[b.TimeSlot.Day] {
			return dayOrder[a.TimeSlot.Day] < dayOrder[b.TimeSlot.Day]
		}
		if a.TimeSlot.StartTime != b.TimeSlot.StartTime {
			return a.TimeSlot.StartTime < b.TimeSlot.StartTime
		}
		return a.ClassID < b.ClassID
	})

	data := Dataset{
		Headers: []string{"Day", "Time", "Class", "Code", "Course", "Faculty", "Room", "Semester"},
	}
	for _, entry := range sorted {
		data.Rows = append(data.Rows, map[string]string{
			"Day":      string(entry.TimeSlot.Day),
			"Time":     entry.TimeSlot.StartTime + " - " + entry.TimeSlot.EndTime,
			"Class":    entry.ClassID,
			"Code":     entry.CourseCode,
			"Course":   entry.CourseName,
			"Faculty":  entry.FacultyName,
			"Room":     entry.RoomName,
			"Semester": entry.Semester,
		})
	}

	rendered, err := exporter.Render(data, title)
	if err != nil {
		return nil, fmt.Errorf("render timetable export: %w", err)
	}

	name := strings.ToLower(strings.ReplaceAll(title, " ", "-"))
	if name == "" {
		name = "timetable"
	}
	return &Document{
		Filename:    name + "." + exporter.Extension(),
		ContentType: exporter.ContentType(),
		Bytes:       rendered,
	}, nil
}
