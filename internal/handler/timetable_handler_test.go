package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-os/timetable-api/internal/dto"
	"github.com/campus-os/timetable-api/internal/models"
	appErrors "github.com/campus-os/timetable-api/pkg/errors"
	"github.com/campus-os/timetable-api/pkg/export"
	"github.com/campus-os/timetable-api/pkg/response"
)

type stubOrchestrator struct {
	session *dto.GenerationSessionResponse
	result  *models.GenerationResult
	status  *dto.GenerationStatusResponse
	verdict *dto.AuditTimetableResponse
	saved   *dto.SaveTimetableResponse
	entries []models.TimetableEntry
	doc     *export.Document
	err     error
}

func (s *stubOrchestrator) Generate(context.Context, dto.GenerateTimetableRequest) (*dto.GenerationSessionResponse, error) {
	return s.session, s.err
}

func (s *stubOrchestrator) GenerateSync(context.Context, dto.GenerateTimetableRequest) (*models.GenerationResult, error) {
	return s.result, s.err
}

func (s *stubOrchestrator) Status(context.Context, string) (*dto.GenerationStatusResponse, error) {
	return s.status, s.err
}

func (s *stubOrchestrator) Cancel(context.Context, string) error {
	return s.err
}

func (s *stubOrchestrator) Audit(context.Context, dto.AuditTimetableRequest) (*dto.AuditTimetableResponse, error) {
	return s.verdict, s.err
}

func (s *stubOrchestrator) Save(context.Context, dto.SaveTimetableRequest) (*dto.SaveTimetableResponse, error) {
	return s.saved, s.err
}

func (s *stubOrchestrator) List(context.Context, dto.ListEntriesQuery) ([]models.TimetableEntry, *models.Pagination, error) {
	return s.entries, &models.Pagination{Page: 1, PageSize: 50, TotalCount: len(s.entries)}, s.err
}

func (s *stubOrchestrator) Export(context.Context, dto.ExportQuery) (*export.Document, error) {
	return s.doc, s.err
}

func newRouter(stub *stubOrchestrator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &TimetableHandler{service: stub}
	r := gin.New()
	tt := r.Group("/api/v1/timetable")
	tt.POST("/generate", h.Generate)
	tt.POST("/generate/sync", h.GenerateSync)
	tt.GET("/generation-status/:sessionId", h.Status)
	tt.DELETE("/generation-status/:sessionId", h.Cancel)
	tt.POST("/audit", h.Audit)
	tt.POST("/save", h.Save)
	tt.GET("/entries", h.List)
	tt.GET("/export", h.Export)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestTimetableHandlerGenerateAccepted(t *testing.T) {
	stub := &stubOrchestrator{session: &dto.GenerationSessionResponse{SessionID: "s1", Status: "pending"}}
	r := newRouter(stub)

	w := doJSON(t, r, http.MethodPost, "/api/v1/timetable/generate", dto.GenerateTimetableRequest{Semester: "all"})
	assert.Equal(t, http.StatusAccepted, w.Code)

	envelope := decodeEnvelope(t, w)
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "s1", data["sessionId"])
}

func TestTimetableHandlerGenerateInvalidJSON(t *testing.T) {
	r := newRouter(&stubOrchestrator{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/timetable/generate", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, envelope.Error.Code)
}

func TestTimetableHandlerGenerateSync(t *testing.T) {
	stub := &stubOrchestrator{result: &models.GenerationResult{Success: true, Message: "ok"}}
	r := newRouter(stub)

	w := doJSON(t, r, http.MethodPost, "/api/v1/timetable/generate/sync", dto.GenerateTimetableRequest{})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTimetableHandlerStatusNotFound(t *testing.T) {
	stub := &stubOrchestrator{err: appErrors.ErrSessionNotFound}
	r := newRouter(stub)

	w := doJSON(t, r, http.MethodGet, "/api/v1/timetable/generation-status/s1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrSessionNotFound.Code, envelope.Error.Code)
}

func TestTimetableHandlerCancelNoContent(t *testing.T) {
	r := newRouter(&stubOrchestrator{})

	w := doJSON(t, r, http.MethodDelete, "/api/v1/timetable/generation-status/s1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestTimetableHandlerCancelFinishedSession(t *testing.T) {
	stub := &stubOrchestrator{err: appErrors.Clone(appErrors.ErrConflict, "session already completed")}
	r := newRouter(stub)

	w := doJSON(t, r, http.MethodDelete, "/api/v1/timetable/generation-status/s1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTimetableHandlerAudit(t *testing.T) {
	stub := &stubOrchestrator{verdict: &dto.AuditTimetableResponse{Errors: 1, Warnings: 2}}
	r := newRouter(stub)

	w := doJSON(t, r, http.MethodPost, "/api/v1/timetable/audit", dto.AuditTimetableRequest{
		Entries: []models.TimetableEntry{{ID: "e1"}},
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTimetableHandlerSaveCreated(t *testing.T) {
	stub := &stubOrchestrator{saved: &dto.SaveTimetableResponse{RunID: "run-1", Saved: 3}}
	r := newRouter(stub)

	w := doJSON(t, r, http.MethodPost, "/api/v1/timetable/save", dto.SaveTimetableRequest{
		Entries: []models.TimetableEntry{{ID: "e1"}},
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestTimetableHandlerListWithPagination(t *testing.T) {
	stub := &stubOrchestrator{entries: []models.TimetableEntry{{ID: "e1"}, {ID: "e2"}}}
	r := newRouter(stub)

	w := doJSON(t, r, http.MethodGet, "/api/v1/timetable/entries?classId=BT-CS-5-A", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 2, envelope.Pagination.TotalCount)
}

func TestTimetableHandlerExportStreamsDocument(t *testing.T) {
	stub := &stubOrchestrator{doc: &export.Document{
		Filename:    "timetable-run-1.csv",
		ContentType: "text/csv",
		Bytes:       []byte("Day,Time\n"),
	}}
	r := newRouter(stub)

	w := doJSON(t, r, http.MethodGet, "/api/v1/timetable/export?format=csv", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable-run-1.csv")
}

func TestTimetableHandlerExportInvalidFormat(t *testing.T) {
	r := newRouter(&stubOrchestrator{})

	w := doJSON(t, r, http.MethodGet, "/api/v1/timetable/export?format=xlsx", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
