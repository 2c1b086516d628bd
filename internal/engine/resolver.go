package engine

import (
	"regexp"
	"sort"
	"strings"

	"github.com/campus-os/timetable-api/internal/models"
)

var digitsRe = regexp.MustCompile(`\d+`)

// ResolveAllotments deduplicates raw allotments and filters them by the
// semester and department settings. Dedup key is courseId + facultyId +
// sorted classIds; the first occurrence wins. A surviving allotment keeps all
// of its classIds even when only some matched the department filter.
func ResolveAllotments(
	allotments []models.CourseAllotment,
	courses []models.Course,
	faculty []models.Faculty,
	cfg models.GenerationConfig,
) []models.CourseAllotment {
	courseByID := make(map[string]models.Course, len(courses))
	for _, c := range courses {
		courseByID[c.ID] = c
	}
	facultyByID := make(map[string]models.Faculty, len(faculty))
	for _, f := range faculty {
		facultyByID[f.ID] = f
	}

	seen := make(map[string]bool, len(allotments))
	var resolved []models.CourseAllotment
	for _, a := range allotments {
		key := dedupKey(a)
		if seen[key] {
			continue
		}
		seen[key] = true

		course, ok := courseByID[a.CourseID]
		if !ok {
			continue
		}
		member, ok := facultyByID[a.FacultyID]
		if !ok {
			continue
		}

		if !semesterMatches(course.Semester, cfg.Semester) {
			continue
		}
		if !departmentMatches(a, course, member, cfg.Department) {
			continue
		}
		resolved = append(resolved, a)
	}
	return resolved
}

func dedupKey(a models.CourseAllotment) string {
	classes := append([]string(nil), a.ClassIDs...)
	sort.Strings(classes)
	return a.CourseID + "-" + a.FacultyID + "-" + strings.Join(classes, ",")
}

// semesterMatches accepts a textual match or a match on the filter's leading
// digits, so "Semester 3" passes both the "semester 3" and "3" filters.
func semesterMatches(courseSemester, filter string) bool {
	if filter == "" || filter == "all" {
		return true
	}
	want := strings.ToLower(filter)
	have := strings.ToLower(courseSemester)
	if have == want {
		return true
	}
	if num := digitsRe.FindString(want); num != "" && have == num {
		return true
	}
	return false
}

// departmentMatches keeps an allotment when any class section, the faculty
// member's department, or the course code carries the department token. This
// is a deliberate substring heuristic, not exact equality.
func departmentMatches(a models.CourseAllotment, course models.Course, member models.Faculty, filter string) bool {
	if filter == "" || filter == "all" {
		return true
	}
	dept := strings.ToLower(filter)

	for _, classID := range a.ClassIDs {
		if strings.Contains(strings.ToLower(classID), dept) {
			return true
		}
	}

	facultyDept := strings.ToLower(member.Department)
	if facultyDept == dept || strings.Contains(facultyDept, dept) {
		return true
	}

	code := strings.ToLower(course.Code)
	if strings.HasPrefix(code, dept) || strings.Contains(code, "-"+dept+"-") || strings.Contains(code, dept) {
		return true
	}
	return false
}

// semesterNumber extracts the numeric semester level from free-form text.
// Values above 12 are almost certainly stray years, so they fall back to 1.
func semesterNumber(semester string) int {
	digits := digitsRe.FindString(semester)
	if digits == "" {
		return 1
	}
	n := 0
	for _, r := range digits {
		n = n*10 + int(r-'0')
	}
	if n == 0 {
		n = 1
	}
	if n > 12 {
		n = 1
	}
	return n
}
