package models

import (
	"fmt"
	"time"

	"github.com/noah-isme/edu-scheduler-api/pkg/calendar"
)

// TimeSlot is a fixed daily window used as the scheduling unit. Start and end are zero padded HH:mm.
type TimeSlot struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartTime string    `db:"start_time" json:"startTime"`
	EndTime   string    `db:"end_time" json:"endTime"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

// Clocks parses the slot boundaries.
func (s TimeSlot) Clocks() (start, end calendar.Clock, err error) {
	start, err = calendar.ParseClock(s.StartTime)
	if err != nil {
		return calendar.Clock{}, calendar.Clock{}, fmt.Errorf("time slot %d start: %w", s.ID, err)
	}
	end, err = calendar.ParseClock(s.EndTime)
	if err != nil {
		return calendar.Clock{}, calendar.Clock{}, fmt.Errorf("time slot %d end: %w", s.ID, err)
	}
	return start, end, nil
}
