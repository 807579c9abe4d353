package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-scheduler-api/internal/models"
)

// ClassSessionRepository stores the materialized session calendar of classes.
type ClassSessionRepository struct {
	db *sqlx.DB
}

// NewClassSessionRepository constructs the repository.
func NewClassSessionRepository(db *sqlx.DB) *ClassSessionRepository {
	return &ClassSessionRepository{db: db}
}

// ReplaceForClass swaps the stored sessions of a class in one transaction. Session times are
// stored in UTC.
func (r *ClassSessionRepository) ReplaceForClass(ctx context.Context, classID string, sessions []models.ClassSession) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session replace: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM class_sessions WHERE class_id = $1`, classID); err != nil {
		return fmt.Errorf("delete class sessions: %w", err)
	}

	const query = `
INSERT INTO class_sessions (id, class_id, sequence, session_date, starts_at, ends_at, time_slot_id, created_at)
VALUES (:id, :class_id, :sequence, :session_date, :starts_at, :ends_at, :time_slot_id, :created_at)`
	now := time.Now().UTC()
	for i := range sessions {
		session := &sessions[i]
		if session.ID == "" {
			session.ID = uuid.NewString()
		}
		session.ClassID = classID
		session.StartsAt = session.StartsAt.UTC()
		session.EndsAt = session.EndsAt.UTC()
		session.CreatedAt = now
		if _, err = tx.NamedExecContext(ctx, query, session); err != nil {
			return fmt.Errorf("insert class session: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit class sessions: %w", err)
	}
	return nil
}

// ListByClass returns stored sessions in sequence order.
func (r *ClassSessionRepository) ListByClass(ctx context.Context, classID string) ([]models.ClassSession, error) {
	const query = `SELECT id, class_id, sequence, session_date, starts_at, ends_at, time_slot_id, created_at FROM class_sessions WHERE class_id = $1 ORDER BY sequence ASC`
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, classID); err != nil {
		return nil, fmt.Errorf("list class sessions: %w", err)
	}
	return sessions, nil
}
