package dto

import "github.com/noah-isme/edu-scheduler-api/internal/models"

// CreateClassRequest creates a class with its weekly schedule. MaxStudents is ignored in favour of
// the room capacity.
type CreateClassRequest struct {
	Name        string                           `json:"name" validate:"required,max=128"`
	SubjectID   string                           `json:"subjectId" validate:"required"`
	TeacherID   string                           `json:"teacherId" validate:"required"`
	RoomID      string                           `json:"roomId" validate:"required"`
	SemesterID  string                           `json:"semesterId" validate:"required"`
	MaxStudents int                              `json:"maxStudents" validate:"omitempty,min=0"`
	Schedule    []models.WeeklyRecurrencePattern `json:"schedule" validate:"dive"`
}

// ClassSessionsResponse is the full session calendar of a class.
type ClassSessionsResponse struct {
	ClassID  string                      `json:"classId"`
	Total    int                         `json:"total"`
	Sessions []models.ConcreteOccurrence `json:"sessions"`
}
