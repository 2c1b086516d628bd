package engine

import (
	"math/rand"
	"time"

	"github.com/campus-os/timetable-api/internal/models"
)

// SchedulingContext holds the mutable usage state of a single generation run.
// Each run owns a private instance, so concurrent runs never share state.
type SchedulingContext struct {
	rng       *rand.Rand
	slotUsage map[string]int
}

// NewSchedulingContext builds run state around the given RNG. A nil RNG gets a
// time-seeded default; tests inject a fixed seed for reproducible runs.
func NewSchedulingContext(rng *rand.Rand) *SchedulingContext {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &SchedulingContext{
		rng:       rng,
		slotUsage: make(map[string]int),
	}
}

// SlotUsage returns how many sessions any class has committed to the slot.
func (c *SchedulingContext) SlotUsage(slot models.TimeSlot) int {
	return c.slotUsage[slot.Key()]
}

// MarkUsed increments the global usage counter for the slot.
func (c *SchedulingContext) MarkUsed(slot models.TimeSlot) {
	c.slotUsage[slot.Key()]++
}

// Jitter returns a small random tie-breaker in [0,1).
func (c *SchedulingContext) Jitter() float64 {
	return c.rng.Float64()
}

// ShuffleRooms randomises candidate order in place so load spreads across
// equally-eligible rooms.
func (c *SchedulingContext) ShuffleRooms(rooms []models.Room) {
	c.rng.Shuffle(len(rooms), func(i, j int) {
		rooms[i], rooms[j] = rooms[j], rooms[i]
	})
}
