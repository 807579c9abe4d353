package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-scheduler-api/internal/models"
)

func readyGrid(t *testing.T, teacherBusy, roomBusy []models.BusyInterval) *SlotGrid {
	t.Helper()
	grid := NewSlotGrid(newTestEngine())
	gen, needsLoad := grid.SetDependencies(GridDependencies{TeacherID: "teacher-1", RoomID: "room-a", Semester: testSemester()})
	require.True(t, needsLoad)
	require.True(t, grid.ApplyBusy(gen, teacherBusy, roomBusy))
	return grid
}

func cellOf(cells []models.SlotCell, date string, slot int) models.SlotCell {
	for _, c := range cells {
		if c.Date == date && c.TimeSlotID == slot {
			return c
		}
	}
	return models.SlotCell{}
}

func TestSlotGridDisabledUntilActorsSelected(t *testing.T) {
	grid := NewSlotGrid(newTestEngine())
	_, needsLoad := grid.SetDependencies(GridDependencies{TeacherID: "teacher-1", Semester: testSemester()})
	assert.False(t, needsLoad)

	status, _ := grid.Status()
	assert.Equal(t, GridIdle, status)
	for _, cell := range grid.Cells() {
		assert.Equal(t, models.CellDisabled, cell.State)
	}

	outcome, err := grid.Toggle("2025-01-06T16:00:00+07:00", "2025-01-06T18:00:00+07:00")
	require.NoError(t, err)
	assert.True(t, outcome.Disabled)
	assert.False(t, outcome.Applied)
	assert.Empty(t, grid.Selection())
}

func TestSlotGridLoadingRejectsToggle(t *testing.T) {
	grid := NewSlotGrid(newTestEngine())
	grid.SetDependencies(GridDependencies{TeacherID: "teacher-1", RoomID: "room-a", Semester: testSemester()})

	outcome, err := grid.Toggle("2025-01-06T16:00:00+07:00", "2025-01-06T18:00:00+07:00")
	require.NoError(t, err)
	assert.True(t, outcome.Disabled)
	assert.Equal(t, "busy intervals are still loading", outcome.Reason)
}

func TestSlotGridShowsSemesterFirstWeek(t *testing.T) {
	grid := readyGrid(t, nil, nil)
	cells := grid.Cells()

	assert.Equal(t, "2025-01-06", grid.WeekStart().Format("2006-01-02"))
	require.Len(t, cells, 21)
	first := cellOf(cells, "2025-01-06", 1)
	assert.Equal(t, "2025-01-06T16:00:00+07:00", first.IsoStart)
	assert.Equal(t, "2025-01-06T18:00:00+07:00", first.IsoEnd)
	assert.Equal(t, models.CellAvailable, first.State)
}

func TestSlotGridConflictCellsCannotBeSelected(t *testing.T) {
	teacherBusy := []models.BusyInterval{busy(models.OwnerKindTeacher, "teacher-1", at(13, 16, 0), at(13, 18, 0))}
	grid := readyGrid(t, teacherBusy, nil)

	// The busy interval is in week two; the week-one Monday cell is disabled for the whole pattern.
	assert.Equal(t, models.CellConflictTeacher, cellOf(grid.Cells(), "2025-01-06", 1).State)

	outcome, err := grid.Toggle("2025-01-06T16:00:00+07:00", "2025-01-06T18:00:00+07:00")
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
	assert.Equal(t, models.CellConflictTeacher, outcome.State)
	assert.Empty(t, grid.Selection())
}

func TestSlotGridToggleSelectsAndDeselects(t *testing.T) {
	grid := readyGrid(t, nil, nil)

	outcome, err := grid.Toggle("2025-01-07T18:00:00+07:00", "2025-01-07T20:00:00+07:00")
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.True(t, outcome.Selected)
	assert.Equal(t, models.CellSelected, cellOf(grid.Cells(), "2025-01-07", 2).State)

	// Same instant written in UTC maps to the same cell.
	outcome, err = grid.Toggle("2025-01-07T11:00:00Z", "2025-01-07T13:00:00Z")
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.False(t, outcome.Selected)
	assert.Empty(t, grid.Selection())
}

func TestSlotGridRoomChangeResetsSelection(t *testing.T) {
	grid := readyGrid(t, nil, nil)
	_, err := grid.Toggle("2025-01-06T16:00:00+07:00", "2025-01-06T18:00:00+07:00")
	require.NoError(t, err)
	require.Len(t, grid.Selection(), 1)
	before := grid.Generation()

	gen, needsLoad := grid.SetDependencies(GridDependencies{TeacherID: "teacher-1", RoomID: "room-b", Semester: testSemester()})

	assert.True(t, needsLoad)
	assert.Equal(t, before+1, gen)
	assert.Empty(t, grid.Selection())
	status, _ := grid.Status()
	assert.Equal(t, GridLoading, status)
	assert.Empty(t, grid.Verdicts())
}

func TestSlotGridSameDependenciesKeepState(t *testing.T) {
	grid := readyGrid(t, nil, nil)
	_, err := grid.Toggle("2025-01-06T16:00:00+07:00", "2025-01-06T18:00:00+07:00")
	require.NoError(t, err)
	before := grid.Generation()

	gen, needsLoad := grid.SetDependencies(GridDependencies{TeacherID: "teacher-1", RoomID: "room-a", Semester: testSemester()})
	assert.False(t, needsLoad)
	assert.Equal(t, before, gen)
	assert.Len(t, grid.Selection(), 1)
}

func TestSlotGridIgnoresStaleLoad(t *testing.T) {
	grid := NewSlotGrid(newTestEngine())
	first, _ := grid.SetDependencies(GridDependencies{TeacherID: "teacher-1", RoomID: "room-a", Semester: testSemester()})
	second, _ := grid.SetDependencies(GridDependencies{TeacherID: "teacher-1", RoomID: "room-b", Semester: testSemester()})

	staleBusy := []models.BusyInterval{busy(models.OwnerKindRoom, "room-a", at(6, 16, 0), at(6, 18, 0))}
	assert.False(t, grid.ApplyBusy(first, nil, staleBusy))
	assert.False(t, grid.FailLoad(first, errors.New("late failure")))

	status, _ := grid.Status()
	assert.Equal(t, GridLoading, status)

	require.True(t, grid.ApplyBusy(second, nil, nil))
	assert.Equal(t, models.CellAvailable, cellOf(grid.Cells(), "2025-01-06", 1).State)
}

func TestSlotGridFailedLoadKeepsEverythingDisabled(t *testing.T) {
	grid := NewSlotGrid(newTestEngine())
	gen, _ := grid.SetDependencies(GridDependencies{TeacherID: "teacher-1", RoomID: "room-a", Semester: testSemester()})

	require.True(t, grid.FailLoad(gen, errors.New("timeout")))

	status, loadErr := grid.Status()
	assert.Equal(t, GridFailed, status)
	assert.EqualError(t, loadErr, "timeout")
	for _, cell := range grid.Cells() {
		assert.Equal(t, models.CellDisabled, cell.State)
	}
	outcome, err := grid.Toggle("2025-01-06T16:00:00+07:00", "2025-01-06T18:00:00+07:00")
	require.NoError(t, err)
	assert.True(t, outcome.Disabled)
}

func TestSlotGridUnalignedWindowUsesBusyData(t *testing.T) {
	roomBusy := []models.BusyInterval{busy(models.OwnerKindRoom, "room-a", at(15, 20, 0), at(15, 21, 0))}
	grid := readyGrid(t, nil, roomBusy)

	outcome, err := grid.Toggle("2025-01-08T19:30:00+07:00", "2025-01-08T21:00:00+07:00")
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
	assert.Equal(t, models.CellConflictRoom, outcome.State)

	outcome, err = grid.Toggle("2025-01-09T19:30:00+07:00", "2025-01-09T21:00:00+07:00")
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Len(t, grid.Selection(), 1)
}

func TestSlotGridWindowStartingOnSlotMustEndWithIt(t *testing.T) {
	teacherBusy := []models.BusyInterval{busy(models.OwnerKindTeacher, "teacher-1", at(13, 17, 0), at(13, 18, 0))}
	grid := readyGrid(t, teacherBusy, nil)
	require.Equal(t, models.CellConflictTeacher, cellOf(grid.Cells(), "2025-01-06", 1).State)

	// 16:00-17:00 is free on its own but would commit the conflicted 16:00-18:00 slot.
	outcome, err := grid.Toggle("2025-01-06T16:00:00+07:00", "2025-01-06T17:00:00+07:00")
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
	assert.Equal(t, models.CellDisabled, outcome.State)

	// Same shape on a conflict-free day is rejected too.
	outcome, err = grid.Toggle("2025-01-07T16:00:00+07:00", "2025-01-07T17:00:00+07:00")
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
	assert.Empty(t, grid.Selection())
}

func TestSlotGridOutsideSemesterIsDisabled(t *testing.T) {
	grid := readyGrid(t, nil, nil)
	grid.ShowWeek(at(27, 0, 0))

	for _, cell := range grid.Cells() {
		assert.Equal(t, models.CellDisabled, cell.State)
	}
	outcome, err := grid.Toggle("2025-01-27T16:00:00+07:00", "2025-01-27T18:00:00+07:00")
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
	assert.Equal(t, models.CellDisabled, outcome.State)
}

func TestSlotGridRejectsMalformedToggle(t *testing.T) {
	grid := readyGrid(t, nil, nil)

	_, err := grid.Toggle("not-a-time", "2025-01-06T18:00:00+07:00")
	assert.Error(t, err)
	_, err = grid.Toggle("2025-01-06T18:00:00+07:00", "2025-01-06T16:00:00+07:00")
	assert.Error(t, err)
}

func TestSlotGridResetKeepsVerdicts(t *testing.T) {
	grid := readyGrid(t, nil, nil)
	_, err := grid.Toggle("2025-01-06T16:00:00+07:00", "2025-01-06T18:00:00+07:00")
	require.NoError(t, err)

	grid.Reset()

	assert.Empty(t, grid.Selection())
	assert.Len(t, grid.Verdicts(), 21)
}
