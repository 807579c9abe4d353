package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-scheduler-api/internal/models"
)

// CommitmentRepository reads what an actor is already committed to: weekly class
// patterns and one-off windows.
type CommitmentRepository struct {
	db *sqlx.DB
}

// NewCommitmentRepository constructs the repository.
func NewCommitmentRepository(db *sqlx.DB) *CommitmentRepository {
	return &CommitmentRepository{db: db}
}

func ownerColumn(kind models.OwnerKind) (string, error) {
	switch kind {
	case models.OwnerKindTeacher:
		return "c.teacher_id", nil
	case models.OwnerKindRoom:
		return "c.room_id", nil
	default:
		return "", fmt.Errorf("unsupported owner kind %q", kind)
	}
}

// ListCommittedPatterns returns the weekly schedule entries of classes owned by the actor whose
// semester intersects [from, to]. Only classes in one of statuses are included.
func (r *CommitmentRepository) ListCommittedPatterns(ctx context.Context, kind models.OwnerKind, ownerID string, from, to time.Time, statuses []models.ClassStatus) ([]models.CommittedPattern, error) {
	column, err := ownerColumn(kind)
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return nil, nil
	}

	args := []interface{}{ownerID, to, from}
	placeholders := make([]string, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, string(status))
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT c.id AS class_id, c.status AS class_status, e.day_of_week, e.time_slot_id, t.start_time, t.end_time, s.start_date AS active_from, s.end_date AS active_until
FROM class_schedule_entries e
JOIN classes c ON c.id = e.class_id
JOIN semesters s ON s.id = c.semester_id
JOIN time_slots t ON t.id = e.time_slot_id
WHERE %s = $1 AND s.start_date <= $2 AND s.end_date >= $3 AND c.status IN (%s)
ORDER BY c.id ASC, e.day_of_week ASC, e.time_slot_id ASC`, column, strings.Join(placeholders, ", "))

	var patterns []models.CommittedPattern
	if err := r.db.SelectContext(ctx, &patterns, query, args...); err != nil {
		return nil, fmt.Errorf("list committed patterns: %w", err)
	}
	return patterns, nil
}

// ListCommitments returns one-off windows of the actor overlapping [from, to). Stored timestamps
// are UTC, so the bounds are converted before binding.
func (r *CommitmentRepository) ListCommitments(ctx context.Context, kind models.OwnerKind, ownerID string, from, to time.Time) ([]models.Commitment, error) {
	const query = `SELECT id, owner_kind, owner_id, starts_at, ends_at, note, created_at FROM actor_commitments
WHERE owner_kind = $1 AND owner_id = $2 AND starts_at < $3 AND ends_at > $4 ORDER BY starts_at ASC`
	var commitments []models.Commitment
	if err := r.db.SelectContext(ctx, &commitments, query, string(kind), ownerID, to.UTC(), from.UTC()); err != nil {
		return nil, fmt.Errorf("list actor commitments: %w", err)
	}
	return commitments, nil
}
