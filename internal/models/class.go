package models

import "time"

// ClassStatus represents the lifecycle of a class.
type ClassStatus string

const (
	ClassStatusDraft     ClassStatus = "DRAFT"
	ClassStatusPublished ClassStatus = "PUBLISHED"
	ClassStatusArchived  ClassStatus = "ARCHIVED"
)

// Class is a course offering with a teacher, room and semester.
type Class struct {
	ID            string      `db:"id" json:"id"`
	Name          string      `db:"name" json:"name"`
	SubjectID     string      `db:"subject_id" json:"subject_id"`
	TeacherID     string      `db:"teacher_id" json:"teacher_id"`
	RoomID        string      `db:"room_id" json:"room_id"`
	SemesterID    string      `db:"semester_id" json:"semester_id"`
	MaxStudents   int         `db:"max_students" json:"max_students"`
	TotalSessions int         `db:"total_sessions" json:"total_sessions"`
	Status        ClassStatus `db:"status" json:"status"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// ClassScheduleEntry stores one weekly recurrence of a class.
type ClassScheduleEntry struct {
	ID         string    `db:"id" json:"id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	DayOfWeek  int       `db:"day_of_week" json:"day_of_week"`
	TimeSlotID int       `db:"time_slot_id" json:"time_slot_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ClassSession is one materialized meeting of a class.
type ClassSession struct {
	ID          string    `db:"id" json:"id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	Sequence    int       `db:"sequence" json:"sequence"`
	SessionDate string    `db:"session_date" json:"session_date"`
	StartsAt    time.Time `db:"starts_at" json:"starts_at"`
	EndsAt      time.Time `db:"ends_at" json:"ends_at"`
	TimeSlotID  int       `db:"time_slot_id" json:"time_slot_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ClassDetail is a class with its weekly schedule.
type ClassDetail struct {
	Class
	Schedule []WeeklyRecurrencePattern `json:"schedule"`
}
