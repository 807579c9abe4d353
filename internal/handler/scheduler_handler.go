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

type timeSlotCatalog interface {
	List(ctx context.Context) ([]models.TimeSlot, error)
}

type schedulerService interface {
	Busy(ctx context.Context, kind models.OwnerKind, ownerID string, query dto.BusyQuery) (*dto.BusyResponse, error)
	Conflicts(ctx context.Context, req dto.ConflictGridRequest) (*dto.ConflictGridResponse, error)
	Normalize(ctx context.Context, req dto.NormalizeRequest) (*dto.NormalizeResponse, error)
}

// SchedulerHandler exposes the stateless scheduling endpoints.
type SchedulerHandler struct {
	catalog timeSlotCatalog
	service schedulerService
}

// NewSchedulerHandler constructs the handler.
func NewSchedulerHandler(catalog *service.TimeSlotService, svc *service.SchedulerService) *SchedulerHandler {
	return &SchedulerHandler{catalog: catalog, service: svc}
}

// TimeSlots godoc
// @Summary List the time slot catalog
// @Tags Scheduler
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /time-slots [get]
func (h *SchedulerHandler) TimeSlots(c *gin.Context) {
	slots, err := h.catalog.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots)
}

// TeacherBusy godoc
// @Summary List busy intervals of a teacher
// @Tags Scheduler
// @Produce json
// @Param id path string true "Teacher ID"
// @Param from query string true "First day (yyyy-MM-dd)"
// @Param to query string true "Last day (yyyy-MM-dd)"
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /teachers/{id}/busy [get]
func (h *SchedulerHandler) TeacherBusy(c *gin.Context) {
	h.busy(c, models.OwnerKindTeacher)
}

// RoomBusy godoc
// @Summary List busy intervals of a room
// @Tags Scheduler
// @Produce json
// @Param id path string true "Room ID"
// @Param from query string true "First day (yyyy-MM-dd)"
// @Param to query string true "Last day (yyyy-MM-dd)"
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /rooms/{id}/busy [get]
func (h *SchedulerHandler) RoomBusy(c *gin.Context) {
	h.busy(c, models.OwnerKindRoom)
}

func (h *SchedulerHandler) busy(c *gin.Context, kind models.OwnerKind) {
	var query dto.BusyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	result, err := h.service.Busy(c.Request.Context(), kind, c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Conflicts godoc
// @Summary Evaluate every weekly slot for a teacher, room and semester
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.ConflictGridRequest true "Conflict grid payload"
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /scheduler/conflicts [post]
func (h *SchedulerHandler) Conflicts(c *gin.Context) {
	var req dto.ConflictGridRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid conflict grid payload"))
		return
	}
	result, err := h.service.Conflicts(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Normalize godoc
// @Summary Reduce concrete selections to a weekly recurrence set
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.NormalizeRequest true "Selection"
// @Success 200 {object} response.Envelope
// @Router /scheduler/normalize [post]
func (h *SchedulerHandler) Normalize(c *gin.Context) {
	var req dto.NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid normalize payload"))
		return
	}
	result, err := h.service.Normalize(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
