package engine

import "github.com/campus-os/timetable-api/internal/models"

// RoomAllocator filters rooms down to type-compatible, conflict-free
// candidates for a slot (or a lab slot pair) and randomises their order so
// load spreads across equivalent rooms. An allotment's preferred room, when
// eligible, is moved to the front of the shuffled order.
type RoomAllocator struct{}

// NewRoomAllocator returns a stateless allocator.
func NewRoomAllocator() *RoomAllocator {
	return &RoomAllocator{}
}

// Candidates returns the shuffled eligible rooms for the given slots. All
// slots must be free; lab placements pass both halves of the pair.
func (a *RoomAllocator) Candidates(
	rooms []models.Room,
	slots []models.TimeSlot,
	forLab bool,
	entries []models.TimetableEntry,
	preferredRoomID string,
	sctx *SchedulingContext,
) []models.Room {
	var eligible []models.Room
	for _, room := range rooms {
		if forLab && !room.CanHostLab() {
			continue
		}
		if !forLab && !room.CanHostLecture() {
			continue
		}
		if roomBooked(room.ID, slots, entries) {
			continue
		}
		eligible = append(eligible, room)
	}

	if len(eligible) > 1 {
		sctx.ShuffleRooms(eligible)
	}

	if preferredRoomID != "" {
		for i, room := range eligible {
			if room.ID == preferredRoomID && i > 0 {
				eligible[0], eligible[i] = eligible[i], eligible[0]
				break
			}
		}
	}
	return eligible
}

func roomBooked(roomID string, slots []models.TimeSlot, entries []models.TimetableEntry) bool {
	for _, slot := range slots {
		for _, e := range entries {
			if e.RoomID == roomID && e.TimeSlot.Overlaps(slot) {
				return true
			}
		}
	}
	return false
}
