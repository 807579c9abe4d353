package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/edu-scheduler-api/pkg/errors"
)

type timeSlotLister interface {
	List(ctx context.Context) ([]models.TimeSlot, error)
}

// TimeSlotService loads the slot catalog once and serves it from memory.
type TimeSlotService struct {
	repo   timeSlotLister
	logger *zap.Logger

	mu      sync.RWMutex
	catalog []models.TimeSlot
}

// NewTimeSlotService constructs the catalog service.
func NewTimeSlotService(repo timeSlotLister, logger *zap.Logger) *TimeSlotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeSlotService{repo: repo, logger: logger}
}

// Load reads and validates the catalog. Scheduling is impossible without it, so callers treat an
// error as fatal at startup.
func (s *TimeSlotService) Load(ctx context.Context) ([]models.TimeSlot, error) {
	slots, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCatalogUnavailable.Code, appErrors.ErrCatalogUnavailable.Status, "failed to load time slot catalog")
	}
	if err := ValidateCatalog(slots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCatalogUnavailable.Code, appErrors.ErrCatalogUnavailable.Status, "time slot catalog is invalid")
	}

	s.mu.Lock()
	s.catalog = append([]models.TimeSlot(nil), slots...)
	s.mu.Unlock()

	s.logger.Info("time slot catalog loaded", zap.Int("slots", len(slots)))
	return s.Catalog(), nil
}

// Catalog returns a copy of the loaded catalog.
func (s *TimeSlotService) Catalog() []models.TimeSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.TimeSlot(nil), s.catalog...)
}

// List serves GetTimeSlotCatalog.
func (s *TimeSlotService) List(ctx context.Context) ([]models.TimeSlot, error) {
	catalog := s.Catalog()
	if len(catalog) == 0 {
		return nil, appErrors.ErrCatalogUnavailable
	}
	return catalog, nil
}

// ValidateCatalog checks that the catalog is non-empty, every slot starts before it ends, ids are
// unique, and no two slots overlap within a day.
func ValidateCatalog(slots []models.TimeSlot) error {
	if len(slots) == 0 {
		return fmt.Errorf("catalog is empty")
	}

	type window struct {
		id         int
		start, end int
	}
	windows := make([]window, 0, len(slots))
	ids := make(map[int]struct{}, len(slots))
	for _, slot := range slots {
		if _, dup := ids[slot.ID]; dup {
			return fmt.Errorf("duplicate time slot id %d", slot.ID)
		}
		ids[slot.ID] = struct{}{}

		start, end, err := slot.Clocks()
		if err != nil {
			return err
		}
		if !start.Before(end) {
			return fmt.Errorf("time slot %d must start before it ends", slot.ID)
		}
		windows = append(windows, window{id: slot.ID, start: start.Minutes(), end: end.Minutes()})
	}

	sort.Slice(windows, func(i, j int) bool { return windows[i].start < windows[j].start })
	for i := 1; i < len(windows); i++ {
		if windows[i].start < windows[i-1].end {
			return fmt.Errorf("time slots %d and %d overlap", windows[i-1].id, windows[i].id)
		}
	}
	return nil
}
