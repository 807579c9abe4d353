package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/noah-isme/edu-scheduler-api/internal/models"
)

var wib = time.FixedZone("WIB", 7*60*60)

func testCatalog() []models.TimeSlot {
	return []models.TimeSlot{
		{ID: 1, Name: "Sore", StartTime: "16:00", EndTime: "18:00"},
		{ID: 2, Name: "Malam", StartTime: "18:00", EndTime: "20:00"},
		{ID: 3, Name: "Larut", StartTime: "20:00", EndTime: "22:00"},
	}
}

// testSemester covers three full weeks, Monday 2025-01-06 to Sunday 2025-01-26.
func testSemester() *models.Semester {
	return &models.Semester{
		ID:        "sem-1",
		Name:      "Term 1",
		StartDate: time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, time.January, 26, 0, 0, 0, 0, time.UTC),
	}
}

func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.January, day, hour, minute, 0, 0, wib)
}

func busy(kind models.OwnerKind, owner string, start, end time.Time) models.BusyInterval {
	return models.BusyInterval{OwnerID: owner, OwnerKind: kind, Start: start, End: end, Source: models.BusySourceClass}
}

func newTestEngine() *ConflictEngine {
	return NewConflictEngine(testCatalog(), wib)
}

type semesterStub struct {
	semesters map[string]*models.Semester
}

func (s semesterStub) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	if sem, ok := s.semesters[id]; ok {
		found := *sem
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

type busyKey struct {
	kind  models.OwnerKind
	owner string
}

// busyResolverStub serves canned intervals. A gate, when set for an owner, blocks the call until
// it is closed so tests can order responses.
type busyResolverStub struct {
	mu        sync.Mutex
	intervals map[busyKey][]models.BusyInterval
	errs      map[busyKey]error
	gates     map[busyKey]chan struct{}
	calls     []busyKey
	uncached  int
}

func newBusyResolverStub() *busyResolverStub {
	return &busyResolverStub{
		intervals: make(map[busyKey][]models.BusyInterval),
		errs:      make(map[busyKey]error),
		gates:     make(map[busyKey]chan struct{}),
	}
}

func (s *busyResolverStub) set(kind models.OwnerKind, owner string, intervals ...models.BusyInterval) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intervals[busyKey{kind, owner}] = intervals
}

func (s *busyResolverStub) fail(kind models.OwnerKind, owner string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[busyKey{kind, owner}] = err
}

func (s *busyResolverStub) gate(kind models.OwnerKind, owner string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.gates[busyKey{kind, owner}] = ch
	return ch
}

func (s *busyResolverStub) Resolve(ctx context.Context, kind models.OwnerKind, ownerID string, from, to time.Time) ([]models.BusyInterval, error) {
	key := busyKey{kind, ownerID}
	s.mu.Lock()
	s.calls = append(s.calls, key)
	if busyCacheBypassed(ctx) {
		s.uncached++
	}
	gate := s.gates[key]
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs[key]; err != nil {
		return nil, err
	}
	return s.intervals[key], nil
}
