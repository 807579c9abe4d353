package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-scheduler-api/internal/dto"
	"github.com/noah-isme/edu-scheduler-api/internal/models"
	"github.com/noah-isme/edu-scheduler-api/pkg/calendar"
	appErrors "github.com/noah-isme/edu-scheduler-api/pkg/errors"
)

// SchedulerService exposes the stateless scheduling operations: busy lookups, whole-grid
// verdicts and normalization.
type SchedulerService struct {
	busy       busyResolver
	semesters  semesterReader
	engine     *ConflictEngine
	normalizer *ScheduleNormalizer
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewSchedulerService constructs the service.
func NewSchedulerService(busy busyResolver, semesters semesterReader, engine *ConflictEngine, normalizer *ScheduleNormalizer, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SchedulerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchedulerService{
		busy:       busy,
		semesters:  semesters,
		engine:     engine,
		normalizer: normalizer,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
	}
}

// Busy serves GetTeacherBusy and GetRoomBusy.
func (s *SchedulerService) Busy(ctx context.Context, kind models.OwnerKind, ownerID string, query dto.BusyQuery) (*dto.BusyResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "from and to must be yyyy-MM-dd")
	}
	loc := s.engine.Location()
	from, err := calendar.ParseDate(query.From, loc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid from date")
	}
	to, err := calendar.ParseDate(query.To, loc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid to date")
	}

	intervals, err := s.busy.Resolve(ctx, kind, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	if intervals == nil {
		intervals = []models.BusyInterval{}
	}
	return &dto.BusyResponse{
		OwnerID:   ownerID,
		OwnerKind: kind,
		From:      calendar.DateKey(from),
		To:        calendar.DateKey(to),
		Intervals: intervals,
	}, nil
}

// Conflicts evaluates every (day, slot) pattern for the teacher, room and semester.
func (s *SchedulerService) Conflicts(ctx context.Context, req dto.ConflictGridRequest) (*dto.ConflictGridResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict grid payload")
	}
	semester, err := s.semesters.FindByID(ctx, req.SemesterID)
	if err != nil {
		return nil, mapLookupError(err, "semester")
	}

	teacherBusy, roomBusy, err := resolveActors(ctx, s.busy, req.TeacherID, req.RoomID, semester.StartDate, semester.EndDate)
	if err != nil {
		return nil, err
	}
	verdicts := s.engine.EvaluateAll(teacherBusy, roomBusy, *semester)
	s.metrics.RecordVerdicts(verdicts)

	return &dto.ConflictGridResponse{
		TeacherID:  req.TeacherID,
		RoomID:     req.RoomID,
		SemesterID: semester.ID,
		Verdicts:   verdicts,
	}, nil
}

// Normalize reduces a selection without a grid session.
func (s *SchedulerService) Normalize(ctx context.Context, req dto.NormalizeRequest) (*dto.NormalizeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid normalize payload")
	}
	schedule, warnings := s.normalizer.Normalize(req.Selection)
	if len(warnings) > 0 {
		s.metrics.RecordNormalizationWarnings(len(warnings))
		s.logger.Info("normalization dropped selections", zap.Int("warnings", len(warnings)))
	}
	return &dto.NormalizeResponse{Schedule: schedule, Warnings: warnings}, nil
}
