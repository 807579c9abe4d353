package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-scheduler-api/internal/models"
)

// ClassRepository manages persistence for classes and their weekly schedule.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

func (r *ClassRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a class record.
func (r *ClassRepository) Create(ctx context.Context, exec sqlx.ExtContext, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now
	if class.Status == "" {
		class.Status = models.ClassStatusDraft
	}

	const query = `
INSERT INTO classes (id, name, subject_id, teacher_id, room_id, semester_id, max_students, total_sessions, status, created_at, updated_at)
VALUES (:id, :name, :subject_id, :teacher_id, :room_id, :semester_id, :max_students, :total_sessions, :status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// CreateScheduleEntries stores the weekly recurrence set of a class.
func (r *ClassRepository) CreateScheduleEntries(ctx context.Context, exec sqlx.ExtContext, classID string, patterns []models.WeeklyRecurrencePattern) error {
	if len(patterns) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO class_schedule_entries (id, class_id, day_of_week, time_slot_id, created_at)
VALUES (:id, :class_id, :day_of_week, :time_slot_id, :created_at)`

	for _, pattern := range patterns {
		entry := models.ClassScheduleEntry{
			ID:         uuid.NewString(),
			ClassID:    classID,
			DayOfWeek:  pattern.DayOfWeek,
			TimeSlotID: pattern.TimeSlotID,
			CreatedAt:  now,
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, entry); err != nil {
			return fmt.Errorf("create class schedule entry: %w", err)
		}
	}
	return nil
}

// FindByID returns a class record by ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, name, subject_id, teacher_id, room_id, semester_id, max_students, total_sessions, status, created_at, updated_at FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// ListScheduleEntries returns the stored recurrence set ordered by day then slot.
func (r *ClassRepository) ListScheduleEntries(ctx context.Context, classID string) ([]models.WeeklyRecurrencePattern, error) {
	const query = `SELECT day_of_week, time_slot_id FROM class_schedule_entries WHERE class_id = $1 ORDER BY day_of_week ASC, time_slot_id ASC`
	var patterns []models.WeeklyRecurrencePattern
	if err := r.db.SelectContext(ctx, &patterns, query, classID); err != nil {
		return nil, fmt.Errorf("list class schedule entries: %w", err)
	}
	return patterns, nil
}
