package service

import (
	"sort"
	"time"

	"github.com/noah-isme/edu-scheduler-api/internal/models"
	"github.com/noah-isme/edu-scheduler-api/pkg/calendar"
)

type slotWindow struct {
	slot  models.TimeSlot
	start calendar.Clock
	end   calendar.Clock
}

// ConflictEngine decides whether weekly patterns collide with teacher or room busy intervals.
// It holds only the immutable catalog; every call works on its arguments.
type ConflictEngine struct {
	slots []slotWindow
	byID  map[int]slotWindow
	loc   *time.Location
}

// NewConflictEngine indexes the catalog. Slots whose clocks do not parse are skipped; the catalog
// service rejects such entries before the engine is built.
func NewConflictEngine(catalog []models.TimeSlot, loc *time.Location) *ConflictEngine {
	if loc == nil {
		loc = time.UTC
	}
	engine := &ConflictEngine{byID: make(map[int]slotWindow, len(catalog)), loc: loc}
	for _, slot := range catalog {
		start, end, err := slot.Clocks()
		if err != nil {
			continue
		}
		window := slotWindow{slot: slot, start: start, end: end}
		engine.slots = append(engine.slots, window)
		engine.byID[slot.ID] = window
	}
	sort.Slice(engine.slots, func(i, j int) bool { return engine.slots[i].slot.ID < engine.slots[j].slot.ID })
	return engine
}

// Location returns the timezone occurrences are built in.
func (e *ConflictEngine) Location() *time.Location {
	return e.loc
}

// Slots returns the catalog ordered by id.
func (e *ConflictEngine) Slots() []models.TimeSlot {
	out := make([]models.TimeSlot, 0, len(e.slots))
	for _, w := range e.slots {
		out = append(out, w.slot)
	}
	return out
}

// Slot looks a catalog entry up by id.
func (e *ConflictEngine) Slot(id int) (models.TimeSlot, bool) {
	w, ok := e.byID[id]
	return w.slot, ok
}

func (e *ConflictEngine) semesterBounds(semester models.Semester) (time.Time, time.Time) {
	return calendar.DateIn(semester.StartDate, e.loc), calendar.DateIn(semester.EndDate, e.loc)
}

// Expand returns the concrete occurrences of a pattern inside the semester. Unknown slots and
// invalid days expand to nothing.
func (e *ConflictEngine) Expand(pattern models.WeeklyRecurrencePattern, semester models.Semester) []models.ConcreteOccurrence {
	w, ok := e.byID[pattern.TimeSlotID]
	if !ok {
		return nil
	}
	from, to := e.semesterBounds(semester)
	raw := calendar.ExpandWeekly(pattern.DayOfWeek, w.start, w.end, from, to, e.loc)
	out := make([]models.ConcreteOccurrence, 0, len(raw))
	for _, occ := range raw {
		out = append(out, models.ConcreteOccurrence{
			Date:          calendar.DateKey(occ.Date),
			StartDateTime: occ.Start,
			EndDateTime:   occ.End,
			TimeSlotID:    pattern.TimeSlotID,
		})
	}
	return out
}

// Evaluate expands the candidate across the semester and tests every occurrence against both busy
// sets. A teacher conflict wins over a room conflict. A pattern with no occurrence is disabled.
func (e *ConflictEngine) Evaluate(candidate models.WeeklyRecurrencePattern, teacherBusy, roomBusy []models.BusyInterval, semester models.Semester) models.ConflictVerdict {
	verdict := models.ConflictVerdict{DayOfWeek: candidate.DayOfWeek, TimeSlotID: candidate.TimeSlotID}

	occurrences := e.Expand(candidate, semester)
	verdict.Occurrences = len(occurrences)
	if len(occurrences) == 0 {
		verdict.State = models.CellDisabled
		return verdict
	}

	if dates := conflictDates(occurrences, teacherBusy, models.OwnerKindTeacher); len(dates) > 0 {
		verdict.State = models.CellConflictTeacher
		verdict.ConflictDates = dates
		return verdict
	}
	if dates := conflictDates(occurrences, roomBusy, models.OwnerKindRoom); len(dates) > 0 {
		verdict.State = models.CellConflictRoom
		verdict.ConflictDates = dates
		return verdict
	}
	verdict.State = models.CellAvailable
	return verdict
}

// EvaluateAll returns a verdict for every (day, slot) pair, ordered by day then slot id.
func (e *ConflictEngine) EvaluateAll(teacherBusy, roomBusy []models.BusyInterval, semester models.Semester) []models.ConflictVerdict {
	verdicts := make([]models.ConflictVerdict, 0, 7*len(e.slots))
	for day := 1; day <= 7; day++ {
		for _, w := range e.slots {
			verdicts = append(verdicts, e.Evaluate(models.WeeklyRecurrencePattern{DayOfWeek: day, TimeSlotID: w.slot.ID}, teacherBusy, roomBusy, semester))
		}
	}
	return verdicts
}

// EvaluateWindow checks an arbitrary weekly window that is not aligned to the catalog, using the
// same whole-semester policy as Evaluate.
func (e *ConflictEngine) EvaluateWindow(dayOfWeek int, start, end calendar.Clock, teacherBusy, roomBusy []models.BusyInterval, semester models.Semester) models.CellState {
	if !start.Before(end) {
		return models.CellDisabled
	}
	from, to := e.semesterBounds(semester)
	raw := calendar.ExpandWeekly(dayOfWeek, start, end, from, to, e.loc)
	if len(raw) == 0 {
		return models.CellDisabled
	}
	occurrences := make([]models.ConcreteOccurrence, 0, len(raw))
	for _, occ := range raw {
		occurrences = append(occurrences, models.ConcreteOccurrence{Date: calendar.DateKey(occ.Date), StartDateTime: occ.Start, EndDateTime: occ.End})
	}
	if len(conflictDates(occurrences, teacherBusy, models.OwnerKindTeacher)) > 0 {
		return models.CellConflictTeacher
	}
	if len(conflictDates(occurrences, roomBusy, models.OwnerKindRoom)) > 0 {
		return models.CellConflictRoom
	}
	return models.CellAvailable
}

// CheckPatterns returns one entry per pattern and dimension that collides with a busy interval.
// Both dimensions are reported so a rejected submission explains every collision.
func (e *ConflictEngine) CheckPatterns(patterns []models.WeeklyRecurrencePattern, teacherBusy, roomBusy []models.BusyInterval, semester models.Semester) []models.ScheduleConflict {
	var conflicts []models.ScheduleConflict
	for _, pattern := range patterns {
		occurrences := e.Expand(pattern, semester)
		if dates := conflictDates(occurrences, teacherBusy, models.OwnerKindTeacher); len(dates) > 0 {
			conflicts = append(conflicts, models.ScheduleConflict{DayOfWeek: pattern.DayOfWeek, TimeSlotID: pattern.TimeSlotID, Dimension: models.OwnerKindTeacher, Dates: dates})
		}
		if dates := conflictDates(occurrences, roomBusy, models.OwnerKindRoom); len(dates) > 0 {
			conflicts = append(conflicts, models.ScheduleConflict{DayOfWeek: pattern.DayOfWeek, TimeSlotID: pattern.TimeSlotID, Dimension: models.OwnerKindRoom, Dates: dates})
		}
	}
	return conflicts
}

// conflictDates lists, in occurrence order, the dates whose occurrence overlaps any busy interval
// of the given kind. Intervals without a kind are treated as matching.
func conflictDates(occurrences []models.ConcreteOccurrence, busy []models.BusyInterval, kind models.OwnerKind) []string {
	if len(busy) == 0 {
		return nil
	}
	var dates []string
	for _, occ := range occurrences {
		for _, interval := range busy {
			if interval.OwnerKind != "" && interval.OwnerKind != kind {
				continue
			}
			if calendar.Overlaps(occ.StartDateTime, occ.EndDateTime, interval.Start, interval.End) {
				dates = append(dates, occ.Date)
				break
			}
		}
	}
	return dates
}
