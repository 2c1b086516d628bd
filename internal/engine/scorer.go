package engine

import (
	"sort"

	"github.com/campus-os/timetable-api/internal/models"
)

// Slot scoring penalties. Lower total score wins.
const (
	penaltyDayFull     = 10000 // class already has 4 sessions that day
	penaltyDayCrowded  = 50    // class already has 3 sessions that day
	penaltyConsecutive = 100   // placement would create a 3-long back-to-back run
)

// SlotScorer ranks candidate slots for a class given the entries committed so
// far. Implementations must not retain hidden mutable state between calls.
type SlotScorer interface {
	Rank(slots []models.TimeSlot, classID string, entries []models.TimetableEntry, sctx *SchedulingContext) []models.TimeSlot
}

// HeuristicScorer scores slots by global usage plus random jitter, penalising
// crowded days and back-to-back runs. Adjacency is judged against the
// canonical per-day slot ordering in Pool.
type HeuristicScorer struct {
	Pool []models.TimeSlot
}

// NewHeuristicScorer builds the default scorer over the full canonical grid.
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{Pool: AllSlots()}
}

// Rank returns a copy of slots sorted best-first.
func (s *HeuristicScorer) Rank(slots []models.TimeSlot, classID string, entries []models.TimetableEntry, sctx *SchedulingContext) []models.TimeSlot {
	var classEntries []models.TimetableEntry
	for _, e := range entries {
		if e.ClassID == classID {
			classEntries = append(classEntries, e)
		}
	}

	type scored struct {
		slot  models.TimeSlot
		score float64
	}
	ranked := make([]scored, 0, len(slots))
	for _, slot := range slots {
		score := float64(sctx.SlotUsage(slot)) + sctx.Jitter()

		dayCount := 0
		for _, e := range classEntries {
			if e.TimeSlot.Day == slot.Day {
				dayCount++
			}
		}
		if dayCount >= 4 {
			score += penaltyDayFull
		}
		if dayCount >= 3 {
			score += penaltyDayCrowded
		}
		if s.createsTripleRun(slot, classEntries) {
			score += penaltyConsecutive
		}

		ranked = append(ranked, scored{slot: slot, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score < ranked[j].score })

	out := make([]models.TimeSlot, len(ranked))
	for i, r := range ranked {
		out[i] = r.slot
	}
	return out
}

// createsTripleRun checks whether occupying the candidate would leave the
// class with three chronologically consecutive sessions: two occupied slots
// directly before, two directly after, or one on each side.
func (s *HeuristicScorer) createsTripleRun(candidate models.TimeSlot, classEntries []models.TimetableEntry) bool {
	ordered := daySlots(s.Pool, candidate.Day)
	idx := slotIndex(ordered, candidate.StartTime)
	if idx == -1 {
		return false
	}

	occupied := func(i int) bool {
		if i < 0 || i >= len(ordered) {
			return false
		}
		for _, e := range classEntries {
			if e.TimeSlot.Day == candidate.Day && e.TimeSlot.StartTime == ordered[i].StartTime {
				return true
			}
		}
		return false
	}

	switch {
	case occupied(idx-1) && occupied(idx-2):
		return true
	case occupied(idx+1) && occupied(idx+2):
		return true
	case occupied(idx-1) && occupied(idx+1):
		return true
	}
	return false
}
