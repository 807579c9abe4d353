package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-scheduler-api/internal/dto"
	"github.com/noah-isme/edu-scheduler-api/internal/models"
	"github.com/noah-isme/edu-scheduler-api/pkg/calendar"
	appErrors "github.com/noah-isme/edu-scheduler-api/pkg/errors"
	"github.com/noah-isme/edu-scheduler-api/pkg/jobs"
	"github.com/noah-isme/edu-scheduler-api/pkg/logger"
)

// JobMaterializeSessions is the queue job type that writes a class's session calendar.
const JobMaterializeSessions = "class.sessions.materialize"

type classRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, class *models.Class) error
	CreateScheduleEntries(ctx context.Context, exec sqlx.ExtContext, classID string, patterns []models.WeeklyRecurrencePattern) error
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListScheduleEntries(ctx context.Context, classID string) ([]models.WeeklyRecurrencePattern, error)
}

type roomReader interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type semesterReader interface {
	FindByID(ctx context.Context, id string) (*models.Semester, error)
}

type ownerCacheInvalidator interface {
	InvalidateOwner(ctx context.Context, kind models.OwnerKind, ownerID string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// ClassService creates classes from a weekly recurrence set and serves their session calendar.
type ClassService struct {
	classes     classRepository
	rooms       roomReader
	semesters   semesterReader
	busy        busyResolver
	invalidator ownerCacheInvalidator
	engine      *ConflictEngine
	tx          txProvider
	queue       jobEnqueuer
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// ClassServiceDeps groups the collaborators of ClassService.
type ClassServiceDeps struct {
	Classes     classRepository
	Rooms       roomReader
	Semesters   semesterReader
	Busy        busyResolver
	Invalidator ownerCacheInvalidator
	Engine      *ConflictEngine
	Tx          txProvider
	Queue       jobEnqueuer
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// NewClassService constructs the service.
func NewClassService(deps ClassServiceDeps) *ClassService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &ClassService{
		classes:     deps.Classes,
		rooms:       deps.Rooms,
		semesters:   deps.Semesters,
		busy:        deps.Busy,
		invalidator: deps.Invalidator,
		engine:      deps.Engine,
		tx:          deps.Tx,
		queue:       deps.Queue,
		metrics:     deps.Metrics,
		validator:   deps.Validator,
		logger:      deps.Logger,
	}
}

// Create validates the schedule, re-checks it against current busy data, and persists the class
// with its recurrence set. maxStudents always comes from the room capacity.
func (s *ClassService) Create(ctx context.Context, req dto.CreateClassRequest) (detail *models.ClassDetail, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	patterns := DedupePatterns(req.Schedule)
	if len(patterns) == 0 {
		return nil, appErrors.ErrEmptySelection
	}
	for _, pattern := range patterns {
		if !calendar.ValidDayOfWeek(pattern.DayOfWeek) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("dayOfWeek %d must be between 1 and 7", pattern.DayOfWeek))
		}
		if _, ok := s.engine.Slot(pattern.TimeSlotID); !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("time slot %d does not exist", pattern.TimeSlotID))
		}
	}

	room, err := s.rooms.FindByID(ctx, req.RoomID)
	if err != nil {
		return nil, mapLookupError(err, "room")
	}
	semester, err := s.semesters.FindByID(ctx, req.SemesterID)
	if err != nil {
		return nil, mapLookupError(err, "semester")
	}

	total := 0
	for _, pattern := range patterns {
		count := len(s.engine.Expand(pattern, *semester))
		if count == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("day %d slot %d never occurs within the semester", pattern.DayOfWeek, pattern.TimeSlotID))
		}
		total += count
	}

	// A missed invalidation must not let a stale busy set pass the re-check.
	teacherBusy, roomBusy, err := resolveActors(WithoutBusyCache(ctx), s.busy, req.TeacherID, req.RoomID, semester.StartDate, semester.EndDate)
	if err != nil {
		return nil, err
	}
	if conflicts := s.engine.CheckPatterns(patterns, teacherBusy, roomBusy, *semester); len(conflicts) > 0 {
		s.metrics.RecordConflictRejection()
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrConflict, "schedule conflicts with existing commitments"), conflicts)
	}

	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	class := &models.Class{
		ID:            uuid.NewString(),
		Name:          req.Name,
		SubjectID:     req.SubjectID,
		TeacherID:     req.TeacherID,
		RoomID:        room.ID,
		SemesterID:    semester.ID,
		MaxStudents:   room.Capacity,
		TotalSessions: total,
		Status:        models.ClassStatusDraft,
	}

	started := time.Now()
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.classes.Create(ctx, tx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	if err = s.classes.CreateScheduleEntries(ctx, tx, class.ID, patterns); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store class schedule")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit class")
	}
	s.metrics.ObserveDBQuery("class_create", time.Since(started))
	s.metrics.RecordClassCreated()

	log := logger.WithContext(ctx, s.logger)
	s.invalidateOwners(ctx, log, class)
	s.enqueueMaterialization(log, class.ID)

	log.Info("class created",
		zap.String("class_id", class.ID),
		zap.String("teacher_id", class.TeacherID),
		zap.String("room_id", class.RoomID),
		zap.Int("patterns", len(patterns)),
		zap.Int("total_sessions", total))

	return &models.ClassDetail{Class: *class, Schedule: patterns}, nil
}

// Sessions computes the full session calendar from the stored recurrence set.
func (s *ClassService) Sessions(ctx context.Context, classID string) (*dto.ClassSessionsResponse, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return nil, mapLookupError(err, "class")
	}
	semester, err := s.semesters.FindByID(ctx, class.SemesterID)
	if err != nil {
		return nil, mapLookupError(err, "semester")
	}
	patterns, err := s.classes.ListScheduleEntries(ctx, class.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class schedule")
	}
	sessions := BuildSessionCalendar(s.engine, patterns, *semester)
	return &dto.ClassSessionsResponse{ClassID: class.ID, Total: len(sessions), Sessions: sessions}, nil
}

func (s *ClassService) invalidateOwners(ctx context.Context, log *zap.Logger, class *models.Class) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidateOwner(ctx, models.OwnerKindTeacher, class.TeacherID); err != nil {
		log.Warn("failed to invalidate teacher busy cache", zap.String("teacher_id", class.TeacherID), zap.Error(err))
	}
	if err := s.invalidator.InvalidateOwner(ctx, models.OwnerKindRoom, class.RoomID); err != nil {
		log.Warn("failed to invalidate room busy cache", zap.String("room_id", class.RoomID), zap.Error(err))
	}
}

func (s *ClassService) enqueueMaterialization(log *zap.Logger, classID string) {
	if s.queue == nil {
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: JobMaterializeSessions, Payload: classID}
	if err := s.queue.Enqueue(job); err != nil {
		log.Warn("failed to enqueue session materialization", zap.String("class_id", classID), zap.Error(err))
	}
}

// BuildSessionCalendar expands every pattern across the semester and returns the occurrences in
// chronological order.
func BuildSessionCalendar(engine *ConflictEngine, patterns []models.WeeklyRecurrencePattern, semester models.Semester) []models.ConcreteOccurrence {
	var sessions []models.ConcreteOccurrence
	for _, pattern := range DedupePatterns(patterns) {
		sessions = append(sessions, engine.Expand(pattern, semester)...)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartDateTime.Before(sessions[j].StartDateTime)
	})
	if sessions == nil {
		sessions = []models.ConcreteOccurrence{}
	}
	return sessions
}

func mapLookupError(err error, resource string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, resource+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+resource)
}
