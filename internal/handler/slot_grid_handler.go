package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-scheduler-api/internal/dto"
	"github.com/noah-isme/edu-scheduler-api/internal/middleware"
	"github.com/noah-isme/edu-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/edu-scheduler-api/pkg/errors"
	"github.com/noah-isme/edu-scheduler-api/pkg/response"
)

type slotGridService interface {
	Open(ctx context.Context, req dto.GridDependenciesRequest) (*dto.GridSnapshot, error)
	UpdateDependencies(ctx context.Context, id string, req dto.GridDependenciesRequest) (*dto.GridSnapshot, error)
	Snapshot(ctx context.Context, id, week string, wait bool) (*dto.GridSnapshot, error)
	Toggle(ctx context.Context, id string, req dto.ToggleRequest) (*dto.ToggleResult, error)
	Reset(ctx context.Context, id string) (*dto.GridSnapshot, error)
	Normalized(ctx context.Context, id string) (*dto.NormalizeResponse, error)
	Submit(ctx context.Context, id string, req dto.SubmitGridRequest) (*dto.SubmitGridResponse, error)
	Close(ctx context.Context, id string)
}

// SlotGridHandler serves server-side slot grid sessions.
type SlotGridHandler struct {
	service slotGridService
}

// NewSlotGridHandler constructs the handler.
func NewSlotGridHandler(svc *service.SlotGridService) *SlotGridHandler {
	return &SlotGridHandler{service: svc}
}

// Open godoc
// @Summary Open a slot grid session
// @Tags Slot Grid
// @Accept json
// @Produce json
// @Param payload body dto.GridDependenciesRequest false "Initial teacher, room and semester"
// @Success 201 {object} response.Envelope
// @Router /scheduler/grids [post]
func (h *SlotGridHandler) Open(c *gin.Context) {
	var req dto.GridDependenciesRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grid payload"))
			return
		}
	}
	snap, err := h.service.Open(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, c.FullPath()+"/"+snap.ID, snap, h.meta(c, snap))
}

// Get godoc
// @Summary Render the grid for the displayed week
// @Description With wait=true the request blocks until the current busy load settles.
// @Tags Slot Grid
// @Produce json
// @Param id path string true "Grid ID"
// @Param week query string false "Any day of the week to display (yyyy-MM-dd)"
// @Param wait query bool false "Wait for loading to finish"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /scheduler/grids/{id} [get]
func (h *SlotGridHandler) Get(c *gin.Context) {
	snap, err := h.service.Snapshot(c.Request.Context(), c.Param("id"), c.Query("week"), queryBool(c, "wait"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snap, h.meta(c, snap))
}

// UpdateDependencies godoc
// @Summary Change teacher, room or semester
// @Description Any change clears the selection and reloads busy data.
// @Tags Slot Grid
// @Accept json
// @Produce json
// @Param id path string true "Grid ID"
// @Param payload body dto.GridDependenciesRequest true "Teacher, room and semester"
// @Success 200 {object} response.Envelope
// @Router /scheduler/grids/{id}/dependencies [put]
func (h *SlotGridHandler) UpdateDependencies(c *gin.Context) {
	var req dto.GridDependenciesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grid payload"))
		return
	}
	snap, err := h.service.UpdateDependencies(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snap, h.meta(c, snap))
}

// Toggle godoc
// @Summary Toggle one concrete cell
// @Tags Slot Grid
// @Accept json
// @Produce json
// @Param id path string true "Grid ID"
// @Param payload body dto.ToggleRequest true "Cell timestamps"
// @Success 200 {object} response.Envelope
// @Router /scheduler/grids/{id}/toggle [post]
func (h *SlotGridHandler) Toggle(c *gin.Context) {
	var req dto.ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid toggle payload"))
		return
	}
	result, err := h.service.Toggle(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Reset godoc
// @Summary Clear the selection
// @Tags Slot Grid
// @Produce json
// @Param id path string true "Grid ID"
// @Success 200 {object} response.Envelope
// @Router /scheduler/grids/{id}/reset [post]
func (h *SlotGridHandler) Reset(c *gin.Context) {
	snap, err := h.service.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snap, h.meta(c, snap))
}

// Normalized godoc
// @Summary Preview the recurrence set of the current selection
// @Tags Slot Grid
// @Produce json
// @Param id path string true "Grid ID"
// @Success 200 {object} response.Envelope
// @Router /scheduler/grids/{id}/normalized [get]
func (h *SlotGridHandler) Normalized(c *gin.Context) {
	result, err := h.service.Normalized(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Submit godoc
// @Summary Create a class from the selection
// @Tags Slot Grid
// @Accept json
// @Produce json
// @Param id path string true "Grid ID"
// @Param payload body dto.SubmitGridRequest true "Class details"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /scheduler/grids/{id}/submit [post]
func (h *SlotGridHandler) Submit(c *gin.Context) {
	var req dto.SubmitGridRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submit payload"))
		return
	}
	result, err := h.service.Submit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "", result)
}

// Close godoc
// @Summary Discard a grid session
// @Tags Slot Grid
// @Param id path string true "Grid ID"
// @Success 204
// @Router /scheduler/grids/{id} [delete]
func (h *SlotGridHandler) Close(c *gin.Context) {
	h.service.Close(c.Request.Context(), c.Param("id"))
	response.NoContent(c)
}

func (h *SlotGridHandler) meta(c *gin.Context, snap *dto.GridSnapshot) map[string]interface{} {
	middleware.SetMeta(c, "grid_status", snap.Status)
	return middleware.ResponseMeta(c)
}
