package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/edu-scheduler-api/internal/models"
	"github.com/noah-isme/edu-scheduler-api/pkg/calendar"
)

// ScheduleNormalizer reduces concrete selections to the canonical weekly recurrence set.
type ScheduleNormalizer struct {
	byStart map[string]models.TimeSlot
	loc     *time.Location
}

// NewScheduleNormalizer indexes the catalog by zero padded start time.
func NewScheduleNormalizer(catalog []models.TimeSlot, loc *time.Location) *ScheduleNormalizer {
	if loc == nil {
		loc = time.UTC
	}
	byStart := make(map[string]models.TimeSlot, len(catalog))
	for _, slot := range catalog {
		start, err := calendar.ParseClock(slot.StartTime)
		if err != nil {
			continue
		}
		byStart[start.String()] = slot
	}
	return &ScheduleNormalizer{byStart: byStart, loc: loc}
}

// Normalize maps each selection to (dayOfWeek, timeSlotId) using its calendar day and start time,
// deduplicates, and sorts by day then slot. The end time must match the slot's end. Selections that
// cannot be mapped are returned as warnings and left out of the schedule. The schedule is never nil.
func (n *ScheduleNormalizer) Normalize(selection []models.SelectedOccurrence) ([]models.WeeklyRecurrencePattern, []models.NormalizationWarning) {
	type key struct{ day, slot int }
	seen := make(map[key]struct{}, len(selection))
	patterns := make([]models.WeeklyRecurrencePattern, 0, len(selection))
	warnings := make([]models.NormalizationWarning, 0)

	for _, item := range selection {
		start, err := calendar.ParseISODateTime(item.IsoStart, n.loc)
		if err != nil {
			warnings = append(warnings, models.NormalizationWarning{IsoStart: item.IsoStart, IsoEnd: item.IsoEnd, Reason: "malformed start timestamp"})
			continue
		}
		clock := calendar.FormatClock(start)
		slot, ok := n.byStart[clock]
		if !ok {
			warnings = append(warnings, models.NormalizationWarning{
				IsoStart: item.IsoStart,
				IsoEnd:   item.IsoEnd,
				Reason:   fmt.Sprintf("no time slot starts at %s", clock),
			})
			continue
		}
		end, err := calendar.ParseISODateTime(item.IsoEnd, n.loc)
		if err != nil {
			warnings = append(warnings, models.NormalizationWarning{IsoStart: item.IsoStart, IsoEnd: item.IsoEnd, Reason: "malformed end timestamp"})
			continue
		}
		if endClock := calendar.FormatClock(end); !calendar.SameDay(start, end) || endClock != n.endOf(slot) {
			warnings = append(warnings, models.NormalizationWarning{
				IsoStart: item.IsoStart,
				IsoEnd:   item.IsoEnd,
				Reason:   fmt.Sprintf("time slot %d starting at %s ends at %s, not %s", slot.ID, clock, n.endOf(slot), endClock),
			})
			continue
		}
		k := key{day: calendar.DayOfWeek(start), slot: slot.ID}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		patterns = append(patterns, models.WeeklyRecurrencePattern{DayOfWeek: k.day, TimeSlotID: k.slot})
	}

	SortPatterns(patterns)
	return patterns, warnings
}

func (n *ScheduleNormalizer) endOf(slot models.TimeSlot) string {
	end, err := calendar.ParseClock(slot.EndTime)
	if err != nil {
		return slot.EndTime
	}
	return end.String()
}

// SortPatterns orders patterns by day then slot id.
func SortPatterns(patterns []models.WeeklyRecurrencePattern) {
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].DayOfWeek != patterns[j].DayOfWeek {
			return patterns[i].DayOfWeek < patterns[j].DayOfWeek
		}
		return patterns[i].TimeSlotID < patterns[j].TimeSlotID
	})
}

// DedupePatterns drops repeated (day, slot) pairs and sorts the result.
func DedupePatterns(patterns []models.WeeklyRecurrencePattern) []models.WeeklyRecurrencePattern {
	seen := make(map[models.WeeklyRecurrencePattern]struct{}, len(patterns))
	out := make([]models.WeeklyRecurrencePattern, 0, len(patterns))
	for _, p := range patterns {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	SortPatterns(out)
	return out
}
