package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-scheduler-api/internal/dto"
	"github.com/noah-isme/edu-scheduler-api/internal/models"
	"github.com/noah-isme/edu-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/edu-scheduler-api/pkg/errors"
	"github.com/noah-isme/edu-scheduler-api/pkg/response"
)

type classService interface {
	Create(ctx context.Context, req dto.CreateClassRequest) (*models.ClassDetail, error)
	Sessions(ctx context.Context, classID string) (*dto.ClassSessionsResponse, error)
}

// ClassHandler manages class endpoints.
type ClassHandler struct {
	service classService
}

// NewClassHandler constructs the handler.
func NewClassHandler(svc *service.ClassService) *ClassHandler {
	return &ClassHandler{service: svc}
}

// Create godoc
// @Summary Create a class with its weekly schedule
// @Description Conflicts are re-checked before insert. maxStudents is taken from the room capacity.
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body dto.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req dto.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}
	class, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "", class)
}

// Sessions godoc
// @Summary List every session of a class
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/sessions [get]
func (h *ClassHandler) Sessions(c *gin.Context) {
	result, err := h.service.Sessions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
