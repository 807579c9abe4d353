package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/edu-scheduler-api/internal/models"
	"github.com/noah-isme/edu-scheduler-api/pkg/calendar"
)

// GridStatus tracks whether busy data for the current dependencies has arrived.
type GridStatus string

const (
	// GridIdle means teacher, room or semester is unset; every cell is disabled.
	GridIdle GridStatus = "idle"
	// GridLoading means busy intervals are being fetched; every cell is disabled.
	GridLoading GridStatus = "loading"
	// GridReady means verdicts are computed and cells can be toggled.
	GridReady GridStatus = "ready"
	// GridFailed means a busy fetch failed; every cell stays disabled until dependencies change.
	GridFailed GridStatus = "failed"
)

// GridDependencies are the inputs a grid is computed from.
type GridDependencies struct {
	TeacherID string
	RoomID    string
	Semester  *models.Semester
}

func (d GridDependencies) semesterID() string {
	if d.Semester == nil {
		return ""
	}
	return d.Semester.ID
}

func (d GridDependencies) complete() bool {
	return d.TeacherID != "" && d.RoomID != "" && d.Semester != nil
}

type patternKey struct {
	day  int
	slot int
}

// SlotGrid owns the selection state of one create-class flow. It is not safe for concurrent use;
// callers serialize access.
type SlotGrid struct {
	engine *ConflictEngine
	loc    *time.Location

	deps       GridDependencies
	generation uint64
	status     GridStatus
	loadErr    error

	teacherBusy []models.BusyInterval
	roomBusy    []models.BusyInterval
	verdicts    map[patternKey]models.ConflictVerdict
	selected    map[string]models.SelectedOccurrence

	weekStart time.Time
}

// NewSlotGrid returns an idle grid displaying the current week.
func NewSlotGrid(engine *ConflictEngine) *SlotGrid {
	loc := engine.Location()
	return &SlotGrid{
		engine:    engine,
		loc:       loc,
		status:    GridIdle,
		verdicts:  make(map[patternKey]models.ConflictVerdict),
		selected:  make(map[string]models.SelectedOccurrence),
		weekStart: calendar.StartOfWeek(time.Now().In(loc)),
	}
}

// Status returns the load status and the last load error.
func (g *SlotGrid) Status() (GridStatus, error) {
	return g.status, g.loadErr
}

// Generation identifies the current dependency set. Load results carry it back.
func (g *SlotGrid) Generation() uint64 {
	return g.generation
}

// Dependencies returns the current inputs.
func (g *SlotGrid) Dependencies() GridDependencies {
	return g.deps
}

// WeekStart returns the Monday of the displayed week.
func (g *SlotGrid) WeekStart() time.Time {
	return g.weekStart
}

// SetDependencies replaces teacher, room and semester. Any change discards busy data, verdicts and
// the selection, and starts a new generation. needsLoad reports whether the caller must fetch busy
// intervals for the returned generation.
func (g *SlotGrid) SetDependencies(deps GridDependencies) (generation uint64, needsLoad bool) {
	if deps.TeacherID == g.deps.TeacherID && deps.RoomID == g.deps.RoomID && deps.semesterID() == g.deps.semesterID() {
		return g.generation, false
	}

	semesterChanged := deps.semesterID() != g.deps.semesterID()
	g.deps = deps
	g.generation++
	g.teacherBusy = nil
	g.roomBusy = nil
	g.loadErr = nil
	g.verdicts = make(map[patternKey]models.ConflictVerdict)
	g.selected = make(map[string]models.SelectedOccurrence)

	if semesterChanged && deps.Semester != nil {
		g.weekStart = calendar.StartOfWeek(calendar.DateIn(deps.Semester.StartDate, g.loc))
	}

	if !deps.complete() {
		g.status = GridIdle
		return g.generation, false
	}
	g.status = GridLoading
	return g.generation, true
}

// ApplyBusy installs busy data fetched for generation and computes verdicts. Results for an older
// generation are ignored and false is returned.
func (g *SlotGrid) ApplyBusy(generation uint64, teacherBusy, roomBusy []models.BusyInterval) bool {
	if generation != g.generation || g.status != GridLoading {
		return false
	}
	g.teacherBusy = teacherBusy
	g.roomBusy = roomBusy
	g.verdicts = make(map[patternKey]models.ConflictVerdict)
	for _, verdict := range g.engine.EvaluateAll(teacherBusy, roomBusy, *g.deps.Semester) {
		g.verdicts[patternKey{day: verdict.DayOfWeek, slot: verdict.TimeSlotID}] = verdict
	}
	g.status = GridReady
	return true
}

// FailLoad records a failed fetch for generation. The grid stays fully disabled.
func (g *SlotGrid) FailLoad(generation uint64, err error) bool {
	if generation != g.generation || g.status != GridLoading {
		return false
	}
	g.status = GridFailed
	g.loadErr = err
	g.verdicts = make(map[patternKey]models.ConflictVerdict)
	return true
}

// ShowWeek moves the displayed week to the one containing date. The selection is kept.
func (g *SlotGrid) ShowWeek(date time.Time) {
	g.weekStart = calendar.StartOfWeek(date.In(g.loc))
}

// Verdicts returns the computed verdicts ordered by day then slot.
func (g *SlotGrid) Verdicts() []models.ConflictVerdict {
	out := make([]models.ConflictVerdict, 0, len(g.verdicts))
	for _, v := range g.verdicts {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].TimeSlotID < out[j].TimeSlotID
	})
	return out
}

// Cells renders every (day, slot) cell of the displayed week.
func (g *SlotGrid) Cells() []models.SlotCell {
	slots := g.engine.Slots()
	cells := make([]models.SlotCell, 0, 7*len(slots))
	for offset := 0; offset < 7; offset++ {
		date := calendar.AddDays(g.weekStart, offset)
		day := calendar.DayOfWeek(date)
		for _, slot := range slots {
			start, end, err := slot.Clocks()
			if err != nil {
				continue
			}
			cell := models.SlotCell{
				DayOfWeek:  day,
				TimeSlotID: slot.ID,
				Date:       calendar.DateKey(date),
				IsoStart:   calendar.FormatISODateTime(start.On(date)),
				IsoEnd:     calendar.FormatISODateTime(end.On(date)),
			}
			cell.State = g.cellState(cell)
			cells = append(cells, cell)
		}
	}
	return cells
}

func (g *SlotGrid) cellState(cell models.SlotCell) models.CellState {
	if g.status != GridReady {
		return models.CellDisabled
	}
	if !g.inSemester(cell.Date) {
		return models.CellDisabled
	}
	verdict, ok := g.verdicts[patternKey{day: cell.DayOfWeek, slot: cell.TimeSlotID}]
	if !ok {
		return models.CellDisabled
	}
	if verdict.State == models.CellAvailable {
		if _, picked := g.selected[selectionKey(cell.IsoStart, cell.IsoEnd)]; picked {
			return models.CellSelected
		}
	}
	return verdict.State
}

func (g *SlotGrid) inSemester(dateKey string) bool {
	if g.deps.Semester == nil {
		return false
	}
	from := calendar.DateKey(calendar.DateIn(g.deps.Semester.StartDate, g.loc))
	to := calendar.DateKey(calendar.DateIn(g.deps.Semester.EndDate, g.loc))
	return dateKey >= from && dateKey <= to
}

// ToggleOutcome is the result of a toggle attempt.
type ToggleOutcome struct {
	// Disabled is set when the whole grid rejects input: actors unset, busy data loading or failed.
	Disabled bool
	Applied  bool
	Selected bool
	State    models.CellState
	Reason   string
}

// Toggle adds or removes the concrete cell identified by its timestamps. Conflicted and disabled
// cells are left untouched. A window that starts on a catalog slot must also end with it. Other
// windows are checked against the busy data with the same whole-semester rule.
func (g *SlotGrid) Toggle(isoStart, isoEnd string) (ToggleOutcome, error) {
	if g.deps.TeacherID == "" || g.deps.RoomID == "" {
		return ToggleOutcome{Disabled: true, State: models.CellDisabled, Reason: "teacher and room must be selected"}, nil
	}
	switch g.status {
	case GridIdle:
		return ToggleOutcome{Disabled: true, State: models.CellDisabled, Reason: "semester must be selected"}, nil
	case GridLoading:
		return ToggleOutcome{Disabled: true, State: models.CellDisabled, Reason: "busy intervals are still loading"}, nil
	case GridFailed:
		return ToggleOutcome{Disabled: true, State: models.CellDisabled, Reason: "busy intervals could not be loaded"}, nil
	}

	start, err := calendar.ParseISODateTime(isoStart, g.loc)
	if err != nil {
		return ToggleOutcome{}, err
	}
	end, err := calendar.ParseISODateTime(isoEnd, g.loc)
	if err != nil {
		return ToggleOutcome{}, err
	}
	if !start.Before(end) || !calendar.SameDay(start, end) {
		return ToggleOutcome{}, fmt.Errorf("cell must start before it ends on the same day")
	}

	canonicalStart := calendar.FormatISODateTime(start)
	canonicalEnd := calendar.FormatISODateTime(end)
	key := selectionKey(canonicalStart, canonicalEnd)
	if _, ok := g.selected[key]; ok {
		delete(g.selected, key)
		return ToggleOutcome{Applied: true, Selected: false, State: models.CellAvailable}, nil
	}

	state := g.stateFor(start, end)
	if !state.Selectable() {
		return ToggleOutcome{Applied: false, State: state, Reason: "cell is not selectable"}, nil
	}
	g.selected[key] = models.SelectedOccurrence{IsoStart: canonicalStart, IsoEnd: canonicalEnd}
	return ToggleOutcome{Applied: true, Selected: true, State: models.CellSelected}, nil
}

func (g *SlotGrid) stateFor(start, end time.Time) models.CellState {
	if !g.inSemester(calendar.DateKey(start)) {
		return models.CellDisabled
	}
	day := calendar.DayOfWeek(start)
	startClock := calendar.ClockOf(start)
	endClock := calendar.ClockOf(end)
	for _, slot := range g.engine.Slots() {
		slotStart, slotEnd, err := slot.Clocks()
		if err != nil {
			continue
		}
		if slotStart != startClock {
			continue
		}
		// A window starting on a slot must cover exactly that slot.
		if slotEnd != endClock {
			return models.CellDisabled
		}
		verdict, ok := g.verdicts[patternKey{day: day, slot: slot.ID}]
		if !ok {
			return models.CellDisabled
		}
		return verdict.State
	}
	return g.engine.EvaluateWindow(day, startClock, endClock, g.teacherBusy, g.roomBusy, *g.deps.Semester)
}

// Selection returns the selected cells ordered by start then end.
func (g *SlotGrid) Selection() []models.SelectedOccurrence {
	out := make([]models.SelectedOccurrence, 0, len(g.selected))
	for _, item := range g.selected {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsoStart != out[j].IsoStart {
			return out[i].IsoStart < out[j].IsoStart
		}
		return out[i].IsoEnd < out[j].IsoEnd
	})
	return out
}

// Reset clears the selection and keeps busy data and verdicts.
func (g *SlotGrid) Reset() {
	g.selected = make(map[string]models.SelectedOccurrence)
}

func selectionKey(isoStart, isoEnd string) string {
	return isoStart + "|" + isoEnd
}
