package engine

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/campus-os/timetable-api/internal/models"
)

// ProgressFunc receives placement progress between obligations.
type ProgressFunc func(completed, total int)

// Engine is the greedy timetable generator. One Generate call is a pure batch
// computation over immutable inputs; all mutable run state lives in a private
// SchedulingContext, so concurrent calls are safe.
type Engine struct {
	scorer    SlotScorer
	validator *ConstraintValidator
	allocator *RoomAllocator
	seed      int64
	progress  ProgressFunc
	logger    *zap.Logger
}

// Option customises engine construction.
type Option func(*Engine)

// WithSeed fixes the RNG seed for reproducible runs. Zero keeps the
// time-seeded default used in production for load spreading.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.seed = seed }
}

// WithScorer swaps the slot ranking strategy.
func WithScorer(s SlotScorer) Option {
	return func(e *Engine) { e.scorer = s }
}

// WithValidator swaps the constraint validator.
func WithValidator(v *ConstraintValidator) Option {
	return func(e *Engine) { e.validator = v }
}

// WithProgress registers a callback invoked after each obligation.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) { e.progress = fn }
}

// WithLogger attaches a logger for run diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New builds an engine with heuristic defaults.
func New(opts ...Option) *Engine {
	e := &Engine{
		scorer:    NewHeuristicScorer(),
		validator: NewConstraintValidator(),
		allocator: NewRoomAllocator(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate schedules every resolved obligation and returns a best-effort
// result. Placement failures become Conflict records, never errors; the only
// error paths are malformed input and context cancellation.
func (e *Engine) Generate(
	ctx context.Context,
	courses []models.Course,
	faculty []models.Faculty,
	rooms []models.Room,
	allotments []models.CourseAllotment,
	cfg models.GenerationConfig,
) (*models.GenerationResult, error) {
	if err := validateInputs(rooms, courses); err != nil {
		return nil, err
	}

	seed := e.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sctx := NewSchedulingContext(rand.New(rand.NewSource(seed)))

	resolved := ResolveAllotments(allotments, courses, faculty, cfg)
	sorted := SortByPriority(resolved, courses)

	e.logger.Info("timetable generation started",
		zap.Int("allotments", len(sorted)),
		zap.String("semester", cfg.Semester),
		zap.String("department", cfg.Department),
	)

	r := &run{
		engine:   e,
		sctx:     sctx,
		cfg:      cfg,
		rooms:    rooms,
		courses:  make(map[string]models.Course, len(courses)),
		faculty:  make(map[string]models.Faculty, len(faculty)),
		allSlots: AllSlots(),
	}
	for _, c := range courses {
		r.courses[c.ID] = c
	}
	for _, f := range faculty {
		r.faculty[f.ID] = f
	}

	total := len(sorted)
	for i, allotment := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.schedule(allotment)
		if e.progress != nil {
			e.progress(i+1, total)
		}
	}

	result := assembleResult(total, r.entries, r.conflicts, r.unscheduled, len(r.allSlots))
	e.logger.Info("timetable generation finished",
		zap.Bool("success", result.Success),
		zap.Int("entries", len(result.Timetable)),
		zap.Int("conflicts", len(result.Conflicts)),
	)
	return result, nil
}

// Audit runs the standalone conflict audit over an arbitrary entry list.
func (e *Engine) Audit(entries []models.TimetableEntry, courses []models.Course, rooms []models.Room) []models.Conflict {
	return NewConflictAuditor().Audit(entries, courses, rooms)
}

func validateInputs(rooms []models.Room, courses []models.Course) error {
	for _, room := range rooms {
		if room.Capacity < 0 {
			return fmt.Errorf("room %q has negative capacity %d", room.ID, room.Capacity)
		}
	}
	for _, course := range courses {
		if course.Credits < 0 {
			return fmt.Errorf("course %q has negative credits %d", course.ID, course.Credits)
		}
	}
	return nil
}
