package dto

import "github.com/noah-isme/edu-scheduler-api/internal/models"

// BusyQuery bounds a busy interval lookup. Dates are yyyy-MM-dd and inclusive.
type BusyQuery struct {
	From string `form:"from" validate:"required,datetime=2006-01-02"`
	To   string `form:"to" validate:"required,datetime=2006-01-02"`
}

// BusyResponse lists busy intervals of one actor.
type BusyResponse struct {
	OwnerID   string                `json:"ownerId"`
	OwnerKind models.OwnerKind      `json:"ownerKind"`
	From      string                `json:"from"`
	To        string                `json:"to"`
	Intervals []models.BusyInterval `json:"intervals"`
}

// ConflictGridRequest asks for verdicts of every (day, slot) pattern.
type ConflictGridRequest struct {
	TeacherID  string `json:"teacherId" validate:"required"`
	RoomID     string `json:"roomId" validate:"required"`
	SemesterID string `json:"semesterId" validate:"required"`
}

// ConflictGridResponse carries one verdict per (day, slot) ordered by day then slot.
type ConflictGridResponse struct {
	TeacherID  string                   `json:"teacherId"`
	RoomID     string                   `json:"roomId"`
	SemesterID string                   `json:"semesterId"`
	Verdicts   []models.ConflictVerdict `json:"verdicts"`
}

// GridDependenciesRequest selects the actors and semester of a grid session. Empty values unset them.
type GridDependenciesRequest struct {
	TeacherID  string `json:"teacherId"`
	RoomID     string `json:"roomId"`
	SemesterID string `json:"semesterId"`
}

// GridSnapshot is the state of a grid session for the displayed week.
type GridSnapshot struct {
	ID         string                      `json:"id"`
	Status     string                      `json:"status"`
	Disabled   bool                        `json:"disabled"`
	Error      string                      `json:"error,omitempty"`
	TeacherID  string                      `json:"teacherId,omitempty"`
	RoomID     string                      `json:"roomId,omitempty"`
	SemesterID string                      `json:"semesterId,omitempty"`
	WeekStart  string                      `json:"weekStart,omitempty"`
	Cells      []models.SlotCell           `json:"cells"`
	Selection  []models.SelectedOccurrence `json:"selection"`
	ExpiresAt  string                      `json:"expiresAt"`
}

// ToggleRequest identifies a concrete cell by its exact timestamps.
type ToggleRequest struct {
	IsoStart string `json:"isoStart" validate:"required"`
	IsoEnd   string `json:"isoEnd" validate:"required"`
}

// ToggleResult reports the outcome of a toggle. Disabled means the whole grid rejects input.
type ToggleResult struct {
	Disabled bool             `json:"disabled"`
	Applied  bool             `json:"applied"`
	Selected bool             `json:"selected"`
	State    models.CellState `json:"state"`
	Reason   string           `json:"reason,omitempty"`
}

// NormalizeRequest is a stateless normalization call.
type NormalizeRequest struct {
	Selection []models.SelectedOccurrence `json:"selection" validate:"dive"`
}

// NormalizeResponse is the canonical recurrence set and the selections that were dropped.
type NormalizeResponse struct {
	Schedule []models.WeeklyRecurrencePattern `json:"schedule"`
	Warnings []models.NormalizationWarning    `json:"warnings"`
}

// SubmitGridRequest carries the class fields that are not derived from the grid.
type SubmitGridRequest struct {
	Name      string `json:"name" validate:"required,max=128"`
	SubjectID string `json:"subjectId" validate:"required"`
}

// SubmitGridResponse returns the created class and any dropped selections.
type SubmitGridResponse struct {
	Class    *models.ClassDetail           `json:"class"`
	Warnings []models.NormalizationWarning `json:"warnings"`
}
