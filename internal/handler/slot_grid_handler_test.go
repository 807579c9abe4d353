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

	"github.com/noah-isme/edu-scheduler-api/internal/dto"
	internalmiddleware "github.com/noah-isme/edu-scheduler-api/internal/middleware"
	"github.com/noah-isme/edu-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/edu-scheduler-api/pkg/errors"
)

type slotGridServiceMock struct {
	openReq   dto.GridDependenciesRequest
	week      string
	wait      bool
	toggle    dto.ToggleRequest
	submitErr error
	closed    string
}

func (m *slotGridServiceMock) Open(ctx context.Context, req dto.GridDependenciesRequest) (*dto.GridSnapshot, error) {
	m.openReq = req
	return &dto.GridSnapshot{ID: "grid-1", Status: "loading", Disabled: true}, nil
}

func (m *slotGridServiceMock) UpdateDependencies(ctx context.Context, id string, req dto.GridDependenciesRequest) (*dto.GridSnapshot, error) {
	return &dto.GridSnapshot{ID: id, Status: "loading", RoomID: req.RoomID}, nil
}

func (m *slotGridServiceMock) Snapshot(ctx context.Context, id, week string, wait bool) (*dto.GridSnapshot, error) {
	if id != "grid-1" {
		return nil, appErrors.ErrGridSessionNotFound
	}
	m.week, m.wait = week, wait
	return &dto.GridSnapshot{ID: id, Status: "ready"}, nil
}

func (m *slotGridServiceMock) Toggle(ctx context.Context, id string, req dto.ToggleRequest) (*dto.ToggleResult, error) {
	m.toggle = req
	return &dto.ToggleResult{Applied: false, State: models.CellConflictTeacher, Reason: "cell is not selectable"}, nil
}

func (m *slotGridServiceMock) Reset(ctx context.Context, id string) (*dto.GridSnapshot, error) {
	return &dto.GridSnapshot{ID: id, Status: "ready"}, nil
}

func (m *slotGridServiceMock) Normalized(ctx context.Context, id string) (*dto.NormalizeResponse, error) {
	return &dto.NormalizeResponse{}, nil
}

func (m *slotGridServiceMock) Submit(ctx context.Context, id string, req dto.SubmitGridRequest) (*dto.SubmitGridResponse, error) {
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	return &dto.SubmitGridResponse{Class: &models.ClassDetail{Class: models.Class{ID: "class-1", Name: req.Name}}}, nil
}

func (m *slotGridServiceMock) Close(ctx context.Context, id string) {
	m.closed = id
}

func newSlotGridRouter(svc *slotGridServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &SlotGridHandler{service: svc}
	router := gin.New()
	router.Use(internalmiddleware.WithResponseMeta())
	grids := router.Group("/scheduler/grids")
	grids.POST("", h.Open)
	grids.GET("/:id", h.Get)
	grids.PUT("/:id/dependencies", h.UpdateDependencies)
	grids.POST("/:id/toggle", h.Toggle)
	grids.POST("/:id/reset", h.Reset)
	grids.GET("/:id/normalized", h.Normalized)
	grids.POST("/:id/submit", h.Submit)
	grids.DELETE("/:id", h.Close)
	return router
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSlotGridHandlerOpen(t *testing.T) {
	svc := &slotGridServiceMock{}
	w := httptest.NewRecorder()
	newSlotGridRouter(svc).ServeHTTP(w, jsonRequest(http.MethodPost, "/scheduler/grids", `{"teacherId":"teacher-1","roomId":"room-a","semesterId":"sem-1"}`))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "room-a", svc.openReq.RoomID)
	assert.Equal(t, "/scheduler/grids/grid-1", w.Header().Get("Location"))

	var body struct {
		Data dto.GridSnapshot       `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "grid-1", body.Data.ID)
	assert.Equal(t, "loading", body.Meta["grid_status"])
}

func TestSlotGridHandlerOpenWithoutBody(t *testing.T) {
	svc := &slotGridServiceMock{}
	w := httptest.NewRecorder()
	newSlotGridRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scheduler/grids", nil))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, dto.GridDependenciesRequest{}, svc.openReq)
}

func TestSlotGridHandlerGetPassesWeekAndWait(t *testing.T) {
	svc := &slotGridServiceMock{}
	w := httptest.NewRecorder()
	newSlotGridRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scheduler/grids/grid-1?week=2025-01-13&wait=true", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2025-01-13", svc.week)
	assert.True(t, svc.wait)
}

func TestSlotGridHandlerUnknownSession(t *testing.T) {
	w := httptest.NewRecorder()
	newSlotGridRouter(&slotGridServiceMock{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scheduler/grids/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "GRID_SESSION_NOT_FOUND")
}

func TestSlotGridHandlerToggleNotSelectable(t *testing.T) {
	svc := &slotGridServiceMock{}
	w := httptest.NewRecorder()
	newSlotGridRouter(svc).ServeHTTP(w, jsonRequest(http.MethodPost, "/scheduler/grids/grid-1/toggle", `{"isoStart":"2025-01-06T16:00:00+07:00","isoEnd":"2025-01-06T18:00:00+07:00"}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2025-01-06T16:00:00+07:00", svc.toggle.IsoStart)
	assert.Contains(t, w.Body.String(), `"applied":false`)
	assert.Contains(t, w.Body.String(), `"state":"conflict-teacher"`)
}

func TestSlotGridHandlerSubmit(t *testing.T) {
	svc := &slotGridServiceMock{}
	w := httptest.NewRecorder()
	newSlotGridRouter(svc).ServeHTTP(w, jsonRequest(http.MethodPost, "/scheduler/grids/grid-1/submit", `{"name":"English A1","subjectId":"subject-1"}`))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"class-1"`)

	svc.submitErr = appErrors.ErrEmptySelection
	w = httptest.NewRecorder()
	newSlotGridRouter(svc).ServeHTTP(w, jsonRequest(http.MethodPost, "/scheduler/grids/grid-1/submit", `{"name":"English A1","subjectId":"subject-1"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "EMPTY_SELECTION")
}

func TestSlotGridHandlerClose(t *testing.T) {
	svc := &slotGridServiceMock{}
	w := httptest.NewRecorder()
	newSlotGridRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/scheduler/grids/grid-1", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "grid-1", svc.closed)
}
