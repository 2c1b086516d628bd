package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campus-os/timetable-api/internal/dto"
	"github.com/campus-os/timetable-api/internal/engine"
	"github.com/campus-os/timetable-api/internal/models"
	appErrors "github.com/campus-os/timetable-api/pkg/errors"
	"github.com/campus-os/timetable-api/pkg/export"
	"github.com/campus-os/timetable-api/pkg/jobs"
)

type catalogReader interface {
	Courses(ctx context.Context) ([]models.Course, error)
	Faculty(ctx context.Context) ([]models.Faculty, error)
	Rooms(ctx context.Context) ([]models.Room, error)
	Allotments(ctx context.Context) ([]models.CourseAllotment, error)
}

type timetableStore interface {
	SaveRun(ctx context.Context, runID string, entries []models.TimetableEntry) (int, error)
	List(ctx context.Context, q dto.ListEntriesQuery) ([]models.TimetableRecord, int, error)
	LatestRunID(ctx context.Context) (string, error)
}

type generator interface {
	Generate(ctx context.Context, courses []models.Course, faculty []models.Faculty, rooms []models.Room, allotments []models.CourseAllotment, cfg models.GenerationConfig) (*models.GenerationResult, error)
	Audit(entries []models.TimetableEntry, courses []models.Course, rooms []models.Room) []models.Conflict
}

type resultCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// TimetableService orchestrates generation runs, audits, persistence and
// exports. Asynchronous runs go through an in-process job queue; finished
// results are mirrored into Redis so status polls survive a session eviction.
type TimetableService struct {
	catalog   catalogReader
	store     timetableStore
	engine    generator
	cache     resultCache
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *GenerationMetrics

	sessions   *sessionStore
	queue      *jobs.Queue[generationPayload]
	seed       int64
	cacheTTL   time.Duration
	exporters  map[string]export.Exporter
	constraint *engine.ConstraintValidator

	cancelMu sync.Mutex
	cancels  map[string]context.CancelFunc
}

// TimetableServiceConfig governs service behaviour.
type TimetableServiceConfig struct {
	SessionTTL           time.Duration
	ResultCacheTTL       time.Duration
	WorkerConcurrency    int
	QueueSize            int
	Seed                 int64
	EnforceRoomCapacity  bool
	MaxCoursesPerFaculty int
}

// NewTimetableService wires the generation pipeline dependencies.
func NewTimetableService(
	catalog catalogReader,
	store timetableStore,
	eng generator,
	cache resultCache,
	validate *validator.Validate,
	logger *zap.Logger,
	metrics *GenerationMetrics,
	cfg TimetableServiceConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.ResultCacheTTL <= 0 {
		cfg.ResultCacheTTL = 10 * time.Minute
	}

	constraint := engine.NewConstraintValidator()
	constraint.EnforceRoomCapacity = cfg.EnforceRoomCapacity
	if cfg.MaxCoursesPerFaculty > 0 {
		constraint.MaxCoursesPerFaculty = cfg.MaxCoursesPerFaculty
	}

	s := &TimetableService{
		catalog:   catalog,
		store:     store,
		engine:    eng,
		cache:     cache,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		sessions:  newSessionStore(cfg.SessionTTL),
		seed:      cfg.Seed,
		cacheTTL:  cfg.ResultCacheTTL,
		exporters: map[string]export.Exporter{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
		constraint: constraint,
		cancels:    make(map[string]context.CancelFunc),
	}
	s.queue = jobs.NewQueue("timetable-generation", s.handleGenerationJob, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		BufferSize: cfg.QueueSize,
		MaxRetries: 1,
		Logger:     logger,
	})
	return s
}

// Start launches the background workers.
func (s *TimetableService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the background workers.
func (s *TimetableService) Stop() {
	s.queue.Stop()
}

type generationPayload struct {
	SessionID  string
	Courses    []models.Course
	Faculty    []models.Faculty
	Rooms      []models.Room
	Allotments []models.CourseAllotment
	Config     models.GenerationConfig
	Seed       int64
}

// Generate accepts a run, queues it and returns the session handle.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationSessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}

	payload, err := s.buildPayload(ctx, req)
	if err != nil {
		return nil, err
	}
	payload.SessionID = uuid.NewString()

	s.sessions.Save(generationSession{
		ID:        payload.SessionID,
		Status:    sessionPending,
		Total:     len(payload.Allotments),
		CreatedAt: time.Now(),
	})

	if err := s.queue.Enqueue(jobs.Job[generationPayload]{ID: payload.SessionID, Type: "generate", Payload: payload}); err != nil {
		s.sessions.Delete(payload.SessionID)
		return nil, appErrors.Wrap(err, appErrors.ErrQueueSaturated.Code, appErrors.ErrQueueSaturated.Status, appErrors.ErrQueueSaturated.Message)
	}

	s.logger.Info("generation session queued",
		zap.String("session_id", payload.SessionID),
		zap.Int("allotments", len(payload.Allotments)),
	)
	return &dto.GenerationSessionResponse{SessionID: payload.SessionID, Status: sessionPending}, nil
}

// GenerateSync runs the engine inline and returns the full result.
func (s *TimetableService) GenerateSync(ctx context.Context, req dto.GenerateTimetableRequest) (*models.GenerationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}
	payload, err := s.buildPayload(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.runGeneration(ctx, payload, nil)
}

// Status reports session progress, falling back to the result cache when the
// in-memory session has expired.
func (s *TimetableService) Status(ctx context.Context, sessionID string) (*dto.GenerationStatusResponse, error) {
	if session, ok := s.sessions.Get(sessionID); ok {
		return &dto.GenerationStatusResponse{
			SessionID: session.ID,
			Status:    session.Status,
			Progress:  session.Progress,
			Total:     session.Total,
			Result:    session.Result,
			Error:     session.Err,
		}, nil
	}

	if s.cache != nil {
		raw, found, err := s.cache.Get(ctx, resultCacheKey(sessionID))
		if err != nil {
			s.logger.Warn("result cache lookup failed", zap.String("session_id", sessionID), zap.Error(err))
		} else if found {
			var result models.GenerationResult
			if err := json.Unmarshal([]byte(raw), &result); err == nil {
				return &dto.GenerationStatusResponse{
					SessionID: sessionID,
					Status:    sessionCompleted,
					Progress:  result.Statistics.TotalCourses,
					Total:     result.Statistics.TotalCourses,
					Result:    &result,
				}, nil
			}
		}
	}
	return nil, appErrors.ErrSessionNotFound
}

// Audit re-checks an entry list for conflicts.
func (s *TimetableService) Audit(ctx context.Context, req dto.AuditTimetableRequest) (*dto.AuditTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid audit payload")
	}

	courses := req.Courses
	rooms := req.Rooms
	if len(courses) == 0 && s.catalog != nil {
		loaded, err := s.catalog.Courses(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load courses")
		}
		courses = loaded
	}
	if len(rooms) == 0 && s.catalog != nil {
		loaded, err := s.catalog.Rooms(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load rooms")
		}
		rooms = loaded
	}

	var conflicts []models.Conflict
	if s.engine != nil {
		conflicts = s.engine.Audit(req.Entries, courses, rooms)
	} else {
		conflicts = engine.NewConflictAuditor().Audit(req.Entries, courses, rooms)
	}
	resp := &dto.AuditTimetableResponse{Conflicts: conflicts}
	for _, c := range conflicts {
		if c.Severity == models.SeverityError {
			resp.Errors++
		} else {
			resp.Warnings++
		}
	}
	resp.Clean = resp.Errors == 0 && resp.Warnings == 0
	if s.metrics != nil {
		s.metrics.ObserveAudit(resp.Errors, resp.Warnings)
	}
	return resp, nil
}

// Save persists a timetable under one run ID.
func (s *TimetableService) Save(ctx context.Context, req dto.SaveTimetableRequest) (*dto.SaveTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save payload")
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	saved, err := s.store.SaveRun(ctx, runID, req.Entries)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "save timetable")
	}
	s.logger.Info("timetable saved", zap.String("run_id", runID), zap.Int("entries", saved))
	return &dto.SaveTimetableResponse{RunID: runID, Saved: saved}, nil
}

// List returns persisted entries with pagination metadata.
func (s *TimetableService) List(ctx context.Context, q dto.ListEntriesQuery) ([]models.TimetableEntry, *models.Pagination, error) {
	records, total, err := s.store.List(ctx, q)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list timetable entries")
	}
	entries := make([]models.TimetableEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, rec.Entry())
	}
	pagination := &models.Pagination{Page: q.Page, PageSize: q.PageSize, TotalCount: total}
	return entries, pagination, nil
}

// Export renders a saved run in the requested format. An empty run ID exports
// the most recent save.
func (s *TimetableService) Export(ctx context.Context, q dto.ExportQuery) (*export.Document, error) {
	exporter, ok := s.exporters[q.Format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", q.Format))
	}

	runID := q.RunID
	if runID == "" {
		latest, err := s.store.LatestRunID(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "resolve latest run")
		}
		runID = latest
	}
	if runID == "" {
		return nil, appErrors.ErrEmptyTimetable
	}

	entries, _, err := s.List(ctx, dto.ListEntriesQuery{RunID: runID, ClassID: q.ClassID, Page: 1, PageSize: 200})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, appErrors.ErrEmptyTimetable
	}

	return export.Render(exporter, entries, "Timetable "+runID)
}

func (s *TimetableService) buildPayload(ctx context.Context, req dto.GenerateTimetableRequest) (generationPayload, error) {
	payload := generationPayload{
		Courses:    req.Courses,
		Faculty:    req.Faculty,
		Rooms:      req.Rooms,
		Allotments: req.Allotments,
		Config:     req.Config(),
		Seed:       req.Seed,
	}
	if payload.Seed == 0 {
		payload.Seed = s.seed
	}

	if len(payload.Courses) == 0 {
		loaded, err := s.catalog.Courses(ctx)
		if err != nil {
			return payload, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load courses")
		}
		payload.Courses = loaded
	}
	if len(payload.Faculty) == 0 {
		loaded, err := s.catalog.Faculty(ctx)
		if err != nil {
			return payload, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load faculty")
		}
		payload.Faculty = loaded
	}
	if len(payload.Rooms) == 0 {
		loaded, err := s.catalog.Rooms(ctx)
		if err != nil {
			return payload, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load rooms")
		}
		payload.Rooms = loaded
	}
	if len(payload.Allotments) == 0 {
		loaded, err := s.catalog.Allotments(ctx)
		if err != nil {
			return payload, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load allotments")
		}
		payload.Allotments = loaded
	}
	return payload, nil
}

// Cancel aborts a pending or running session. Finished sessions cannot be
// cancelled.
func (s *TimetableService) Cancel(_ context.Context, sessionID string) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return appErrors.ErrSessionNotFound
	}
	if terminal(session.Status) {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("session already %s", session.Status))
	}

	s.sessions.Update(sessionID, func(session *generationSession) {
		if !terminal(session.Status) {
			session.Status = sessionCancelled
		}
	})

	s.cancelMu.Lock()
	cancel := s.cancels[sessionID]
	s.cancelMu.Unlock()
	if cancel != nil {
		cancel()
	}

	s.logger.Info("generation session cancelled", zap.String("session_id", sessionID))
	return nil
}

func (s *TimetableService) registerCancel(sessionID string, cancel context.CancelFunc) {
	s.cancelMu.Lock()
	s.cancels[sessionID] = cancel
	s.cancelMu.Unlock()
}

func (s *TimetableService) unregisterCancel(sessionID string) {
	s.cancelMu.Lock()
	delete(s.cancels, sessionID)
	s.cancelMu.Unlock()
}

func (s *TimetableService) handleGenerationJob(ctx context.Context, job jobs.Job[generationPayload]) error {
	payload := job.Payload

	if session, ok := s.sessions.Get(payload.SessionID); ok && session.Status == sessionCancelled {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.registerCancel(payload.SessionID, cancel)
	defer s.unregisterCancel(payload.SessionID)

	s.sessions.Update(payload.SessionID, func(session *generationSession) {
		if session.Status == sessionPending {
			session.Status = sessionRunning
		}
	})

	result, err := s.runGeneration(runCtx, payload, func(done, total int) {
		s.sessions.Update(payload.SessionID, func(session *generationSession) {
			session.Progress = done
			session.Total = total
		})
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.sessions.Update(payload.SessionID, func(session *generationSession) {
				session.Status = sessionCancelled
			})
			return nil
		}
		s.sessions.Update(payload.SessionID, func(session *generationSession) {
			session.Status = sessionFailed
			session.Err = err.Error()
		})
		return err
	}

	s.sessions.Update(payload.SessionID, func(session *generationSession) {
		if session.Status == sessionCancelled {
			return
		}
		session.Status = sessionCompleted
		session.Result = result
	})
	s.cacheResult(ctx, payload.SessionID, result)
	return nil
}

func (s *TimetableService) runGeneration(ctx context.Context, payload generationPayload, progress engine.ProgressFunc) (*models.GenerationResult, error) {
	opts := []engine.Option{engine.WithLogger(s.logger), engine.WithValidator(s.constraint)}
	if payload.Seed != 0 {
		opts = append(opts, engine.WithSeed(payload.Seed))
	}
	if progress != nil {
		opts = append(opts, engine.WithProgress(progress))
	}

	// An injected engine (tests) is used as-is; production builds one per
	// run so seed and progress options apply.
	eng := s.engine
	if eng == nil {
		eng = engine.New(opts...)
	}

	started := time.Now()
	result, err := eng.Generate(ctx, payload.Courses, payload.Faculty, payload.Rooms, payload.Allotments, payload.Config)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ObserveGeneration(time.Since(started), false, 0)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "generation failed")
	}
	if s.metrics != nil {
		s.metrics.ObserveGeneration(time.Since(started), result.Success, len(result.Conflicts))
	}
	return result, nil
}

func (s *TimetableService) cacheResult(ctx context.Context, sessionID string, result *models.GenerationResult) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, resultCacheKey(sessionID), string(raw), s.cacheTTL); err != nil {
		s.logger.Warn("result cache write failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

func resultCacheKey(sessionID string) string {
	return "timetable:result:" + sessionID
}
