package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-os/timetable-api/internal/dto"
	"github.com/campus-os/timetable-api/internal/models"
	"github.com/campus-os/timetable-api/internal/service"
	appErrors "github.com/campus-os/timetable-api/pkg/errors"
	"github.com/campus-os/timetable-api/pkg/export"
	"github.com/campus-os/timetable-api/pkg/response"
)

type timetableOrchestrator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationSessionResponse, error)
	GenerateSync(ctx context.Context, req dto.GenerateTimetableRequest) (*models.GenerationResult, error)
	Status(ctx context.Context, sessionID string) (*dto.GenerationStatusResponse, error)
	Cancel(ctx context.Context, sessionID string) error
	Audit(ctx context.Context, req dto.AuditTimetableRequest) (*dto.AuditTimetableResponse, error)
	Save(ctx context.Context, req dto.SaveTimetableRequest) (*dto.SaveTimetableResponse, error)
	List(ctx context.Context, q dto.ListEntriesQuery) ([]models.TimetableEntry, *models.Pagination, error)
	Export(ctx context.Context, q dto.ExportQuery) (*export.Document, error)
}

// TimetableHandler exposes the timetable generation endpoints.
type TimetableHandler struct {
	service timetableOrchestrator
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Generate godoc
// @Summary Start an asynchronous timetable generation run
// @Description Queues a generation run and returns a session ID for polling. Dataset sections left empty are loaded from the catalog.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Success 202 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}

	session, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, session, nil)
}

// GenerateSync godoc
// @Summary Generate a timetable synchronously
// @Description Runs the generator inline and returns the full result. Intended for small datasets and tooling.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Router /timetable/generate/sync [post]
func (h *TimetableHandler) GenerateSync(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}

	result, err := h.service.GenerateSync(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Status godoc
// @Summary Poll a generation session
// @Tags Timetable
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/generation-status/{sessionId} [get]
func (h *TimetableHandler) Status(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "session id is required"))
		return
	}

	status, err := h.service.Status(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Cancel godoc
// @Summary Cancel a generation session
// @Description Aborts a pending or running generation run. Finished sessions return a conflict.
// @Tags Timetable
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 204
// @Router /timetable/generation-status/{sessionId} [delete]
func (h *TimetableHandler) Cancel(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "session id is required"))
		return
	}

	if err := h.service.Cancel(c.Request.Context(), sessionID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Audit godoc
// @Summary Audit a timetable for conflicts
// @Description Re-checks an entry list for hard clashes and soft quality findings.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.AuditTimetableRequest true "Audit payload"
// @Success 200 {object} response.Envelope
// @Router /timetable/audit [post]
func (h *TimetableHandler) Audit(c *gin.Context) {
	var req dto.AuditTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid audit payload"))
		return
	}

	verdict, err := h.service.Audit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, verdict, nil)
}

// Save godoc
// @Summary Persist a generated timetable
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.SaveTimetableRequest true "Save payload"
// @Success 201 {object} response.Envelope
// @Router /timetable/save [post]
func (h *TimetableHandler) Save(c *gin.Context) {
	var req dto.SaveTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}

	saved, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, saved)
}

// List godoc
// @Summary List persisted timetable entries
// @Tags Timetable
// @Produce json
// @Param runId query string false "Run ID"
// @Param classId query string false "Class section"
// @Param facultyId query string false "Faculty ID"
// @Param day query string false "Day name"
// @Success 200 {object} response.Envelope
// @Router /timetable/entries [get]
func (h *TimetableHandler) List(c *gin.Context) {
	var q dto.ListEntriesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}

	entries, pagination, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Export godoc
// @Summary Export a saved timetable
// @Description Streams the rendered document. An empty runId exports the most recent save.
// @Tags Timetable
// @Produce text/csv
// @Produce application/pdf
// @Param runId query string false "Run ID"
// @Param classId query string false "Class section"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /timetable/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	var q dto.ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}

	doc, err := h.service.Export(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, doc.ContentType, doc.Bytes)
}
