package models

import "time"

// OwnerKind identifies the actor a busy interval belongs to.
type OwnerKind string

const (
	OwnerKindTeacher OwnerKind = "teacher"
	OwnerKindRoom    OwnerKind = "room"
)

// Valid reports whether the kind is one of the supported actors.
func (k OwnerKind) Valid() bool {
	return k == OwnerKindTeacher || k == OwnerKindRoom
}

// WeeklyRecurrencePattern means "meets every DayOfWeek during TimeSlotID". DayOfWeek is 1 (Monday) .. 7 (Sunday).
type WeeklyRecurrencePattern struct {
	DayOfWeek  int `db:"day_of_week" json:"dayOfWeek" validate:"min=1,max=7"`
	TimeSlotID int `db:"time_slot_id" json:"timeSlotId" validate:"required"`
}

// ConcreteOccurrence is one dated instance of a pattern. Never persisted by the engine itself.
type ConcreteOccurrence struct {
	Date          string    `json:"date"`
	StartDateTime time.Time `json:"startDateTime"`
	EndDateTime   time.Time `json:"endDateTime"`
	TimeSlotID    int       `json:"timeSlotId,omitempty"`
}

// BusySource describes where a busy interval comes from.
type BusySource string

const (
	BusySourceClass      BusySource = "class"
	BusySourceCommitment BusySource = "commitment"
)

// BusyInterval is a concrete window during which an actor is already committed.
type BusyInterval struct {
	OwnerID     string     `json:"ownerId"`
	OwnerKind   OwnerKind  `json:"ownerKind"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	Source      BusySource `json:"source"`
	ReferenceID string     `json:"referenceId,omitempty"`
}

// CommittedPattern is a stored weekly recurrence of an existing class, with its slot times and active window.
type CommittedPattern struct {
	ClassID     string      `db:"class_id"`
	ClassStatus ClassStatus `db:"class_status"`
	DayOfWeek   int         `db:"day_of_week"`
	TimeSlotID  int         `db:"time_slot_id"`
	StartTime   string      `db:"start_time"`
	EndTime     string      `db:"end_time"`
	ActiveFrom  time.Time   `db:"active_from"`
	ActiveUntil time.Time   `db:"active_until"`
}

// Commitment is a one-off busy window such as leave or room maintenance.
type Commitment struct {
	ID        string    `db:"id" json:"id"`
	OwnerKind OwnerKind `db:"owner_kind" json:"owner_kind"`
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	StartsAt  time.Time `db:"starts_at" json:"starts_at"`
	EndsAt    time.Time `db:"ends_at" json:"ends_at"`
	Note      *string   `db:"note" json:"note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CellState is the state of one slot cell in the weekly grid.
type CellState string

const (
	CellAvailable       CellState = "available"
	CellSelected        CellState = "selected"
	CellConflictTeacher CellState = "conflict-teacher"
	CellConflictRoom    CellState = "conflict-room"
	CellDisabled        CellState = "disabled"
)

// Selectable reports whether an operator may toggle a cell in this state.
func (s CellState) Selectable() bool {
	return s == CellAvailable || s == CellSelected
}

// ConflictVerdict is the outcome of evaluating one (day, slot) candidate across the semester.
type ConflictVerdict struct {
	DayOfWeek     int       `json:"dayOfWeek"`
	TimeSlotID    int       `json:"timeSlotId"`
	State         CellState `json:"state"`
	Occurrences   int       `json:"occurrences"`
	ConflictDates []string  `json:"conflictDates,omitempty"`
}

// SlotCell is one selectable (day, slot) cell of the currently displayed week.
type SlotCell struct {
	DayOfWeek  int       `json:"dayOfWeek"`
	TimeSlotID int       `json:"timeSlotId"`
	Date       string    `json:"date"`
	IsoStart   string    `json:"isoStart"`
	IsoEnd     string    `json:"isoEnd"`
	State      CellState `json:"state"`
}

// SelectedOccurrence is a concrete cell picked by the operator, keyed by its exact timestamps.
type SelectedOccurrence struct {
	IsoStart string `json:"isoStart" validate:"required"`
	IsoEnd   string `json:"isoEnd" validate:"required"`
}

// NormalizationWarning reports a selected occurrence that was excluded from the recurrence set.
type NormalizationWarning struct {
	IsoStart string `json:"isoStart"`
	IsoEnd   string `json:"isoEnd"`
	Reason   string `json:"reason"`
}

// ScheduleConflict describes a recurrence pattern that collides with an existing commitment.
type ScheduleConflict struct {
	DayOfWeek  int       `json:"dayOfWeek"`
	TimeSlotID int       `json:"timeSlotId"`
	Dimension  OwnerKind `json:"dimension"`
	Dates      []string  `json:"dates"`
}

// ScheduleConflictError is returned when a submitted schedule collides with existing commitments.
type ScheduleConflictError struct {
	Type      string             `json:"type"`
	Message   string             `json:"message"`
	Conflicts []ScheduleConflict `json:"conflicts,omitempty"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
