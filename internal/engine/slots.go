package engine

import "github.com/campus-os/timetable-api/internal/models"

// Canonical weekly slot grid. Standard weekday bands run 08:30-15:30 with a
// lunch gap; the extended 15:30-17:00 band sits after the standard bands so it
// is only reached once they are exhausted. Weekend bands serve semesters 7+.

func weekdayStandard() []models.TimeSlot {
	days := []models.Day{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday}
	bands := [][2]string{
		{"08:30", "10:00"},
		{"10:00", "11:30"},
		{"11:30", "13:00"},
		{"14:00", "15:30"},
	}
	slots := make([]models.TimeSlot, 0, len(days)*len(bands))
	for _, d := range days {
		for _, b := range bands {
			slots = append(slots, models.TimeSlot{Day: d, StartTime: b[0], EndTime: b[1]})
		}
	}
	return slots
}

func weekdayExtended() []models.TimeSlot {
	days := []models.Day{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday}
	slots := make([]models.TimeSlot, 0, len(days))
	for _, d := range days {
		slots = append(slots, models.TimeSlot{Day: d, StartTime: "15:30", EndTime: "17:00"})
	}
	return slots
}

func weekend() []models.TimeSlot {
	days := []models.Day{models.Saturday, models.Sunday}
	bands := [][2]string{
		{"09:00", "10:30"},
		{"10:30", "12:00"},
		{"12:00", "13:30"},
		{"13:30", "15:00"},
		{"15:00", "16:30"},
		{"16:30", "18:00"},
	}
	slots := make([]models.TimeSlot, 0, len(days)*len(bands))
	for _, d := range days {
		for _, b := range bands {
			slots = append(slots, models.TimeSlot{Day: d, StartTime: b[0], EndTime: b[1]})
		}
	}
	return slots
}

// WeekdaySlots returns the weekday pool, standard bands before the extended
// fallback band.
func WeekdaySlots() []models.TimeSlot {
	return append(weekdayStandard(), weekdayExtended()...)
}

// WeekendSlots returns the Saturday/Sunday pool.
func WeekendSlots() []models.TimeSlot {
	return weekend()
}

// AllSlots returns every canonical slot across the week.
func AllSlots() []models.TimeSlot {
	return append(WeekdaySlots(), WeekendSlots()...)
}

// daySlots filters the pool to one day preserving canonical chronological order.
func daySlots(pool []models.TimeSlot, day models.Day) []models.TimeSlot {
	var out []models.TimeSlot
	for _, s := range pool {
		if s.Day == day {
			out = append(out, s)
		}
	}
	return out
}

// slotIndex locates a slot within a day ordering by start time, or -1.
func slotIndex(ordered []models.TimeSlot, start string) int {
	for i, s := range ordered {
		if s.StartTime == start {
			return i
		}
	}
	return -1
}
