package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-scheduler-api/internal/models"
	"github.com/noah-isme/edu-scheduler-api/pkg/jobs"
)

type classScheduleReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListScheduleEntries(ctx context.Context, classID string) ([]models.WeeklyRecurrencePattern, error)
}

type classSessionWriter interface {
	ReplaceForClass(ctx context.Context, classID string, sessions []models.ClassSession) error
}

// SessionMaterializer writes the expanded session calendar of a class. It runs as a queue handler.
type SessionMaterializer struct {
	classes   classScheduleReader
	semesters semesterReader
	sessions  classSessionWriter
	engine    *ConflictEngine
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewSessionMaterializer constructs the job handler.
func NewSessionMaterializer(classes classScheduleReader, semesters semesterReader, sessions classSessionWriter, engine *ConflictEngine, metrics *MetricsService, logger *zap.Logger) *SessionMaterializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionMaterializer{classes: classes, semesters: semesters, sessions: sessions, engine: engine, metrics: metrics, logger: logger}
}

// Handle implements jobs.Handler for JobMaterializeSessions. The payload is the class id.
func (m *SessionMaterializer) Handle(ctx context.Context, job jobs.Job) error {
	if job.Type != JobMaterializeSessions {
		return fmt.Errorf("unexpected job type %q", job.Type)
	}
	classID, ok := job.Payload.(string)
	if !ok || classID == "" {
		m.metrics.RecordSessionJob("invalid")
		m.logger.Error("session job without class id", zap.String("job_id", job.ID))
		return nil
	}
	if err := m.Materialize(ctx, classID); err != nil {
		m.metrics.RecordSessionJob("error")
		return err
	}
	m.metrics.RecordSessionJob("success")
	return nil
}

// Materialize replaces the stored sessions of the class with a fresh expansion of its schedule.
func (m *SessionMaterializer) Materialize(ctx context.Context, classID string) error {
	class, err := m.classes.FindByID(ctx, classID)
	if errors.Is(err, sql.ErrNoRows) {
		return jobs.Permanent(fmt.Errorf("class %s not found", classID))
	}
	if err != nil {
		return fmt.Errorf("load class %s: %w", classID, err)
	}
	semester, err := m.semesters.FindByID(ctx, class.SemesterID)
	if err != nil {
		return fmt.Errorf("load semester %s: %w", class.SemesterID, err)
	}
	patterns, err := m.classes.ListScheduleEntries(ctx, classID)
	if err != nil {
		return fmt.Errorf("load schedule of %s: %w", classID, err)
	}

	calendar := BuildSessionCalendar(m.engine, patterns, *semester)
	sessions := make([]models.ClassSession, 0, len(calendar))
	for i, occ := range calendar {
		sessions = append(sessions, models.ClassSession{
			ClassID:     classID,
			Sequence:    i + 1,
			SessionDate: occ.Date,
			StartsAt:    occ.StartDateTime,
			EndsAt:      occ.EndDateTime,
			TimeSlotID:  occ.TimeSlotID,
		})
	}
	if err := m.sessions.ReplaceForClass(ctx, classID, sessions); err != nil {
		return fmt.Errorf("store sessions of %s: %w", classID, err)
	}

	m.logger.Info("class sessions materialized", zap.String("class_id", classID), zap.Int("sessions", len(sessions)))
	return nil
}
