package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/campus-os/timetable-api/internal/models"
)

// resolveManualSlot turns a manual schedule like {Day: "Monday",
// Time: "08:30 - 10:00 AM"} into a concrete slot. It first tries to match a
// canonical slot by day and start time; failing that it synthesizes an ad-hoc
// slot, defaulting to a 1.5 hour duration when no end time was given.
func resolveManualSlot(ms *models.ManualSchedule, canonical []models.TimeSlot) *models.TimeSlot {
	if ms == nil {
		return nil
	}

	parts := strings.Split(ms.Time, "-")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) == 0 || parts[0] == "" {
		return nil
	}

	start := to24Hour(parts[0])
	for _, slot := range canonical {
		if !strings.EqualFold(string(slot.Day), ms.Day) {
			continue
		}
		if strings.Contains(ms.Time, slot.StartTime) || start == slot.StartTime {
			matched := slot
			return &matched
		}
	}

	end := ""
	if len(parts) > 1 && parts[1] != "" {
		end = to24Hour(parts[1])
	} else {
		end = addMinutes(start, 90)
	}
	return &models.TimeSlot{Day: models.Day(ms.Day), StartTime: start, EndTime: end}
}

// to24Hour converts "08:30 AM" / "1:00 pm" style strings to "HH:MM".
// Inputs already in 24-hour form pass through unchanged.
func to24Hour(raw string) string {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) == 0 {
		return raw
	}
	clock := fields[0]
	modifier := ""
	if len(fields) > 1 {
		modifier = strings.ToLower(fields[1])
	}

	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return clock
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return clock
	}
	if hours == 12 {
		hours = 0
	}
	if modifier == "pm" {
		hours += 12
	}
	return fmt.Sprintf("%02d:%s", hours, parts[1])
}

func addMinutes(hhmm string, minutes int) string {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return hhmm
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	total := h*60 + m + minutes
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
