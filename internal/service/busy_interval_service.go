package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/edu-scheduler-api/internal/models"
	"github.com/noah-isme/edu-scheduler-api/pkg/calendar"
	appErrors "github.com/noah-isme/edu-scheduler-api/pkg/errors"
)

type commitmentReader interface {
	ListCommittedPatterns(ctx context.Context, kind models.OwnerKind, ownerID string, from, to time.Time, statuses []models.ClassStatus) ([]models.CommittedPattern, error)
	ListCommitments(ctx context.Context, kind models.OwnerKind, ownerID string, from, to time.Time) ([]models.Commitment, error)
}

type busyCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

type bypassBusyCacheKey struct{}

// WithoutBusyCache marks ctx so Resolve reads committed data from the repository. The fresh result
// still replaces the cached entry.
func WithoutBusyCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassBusyCacheKey{}, true)
}

func busyCacheBypassed(ctx context.Context) bool {
	bypass, _ := ctx.Value(bypassBusyCacheKey{}).(bool)
	return bypass
}

// BusyIntervalConfig tunes resolution.
type BusyIntervalConfig struct {
	Location            *time.Location
	CacheTTL            time.Duration
	IncludeDraftClasses bool
}

// BusyIntervalService turns an actor's committed schedule into concrete busy intervals.
type BusyIntervalService struct {
	repo     commitmentReader
	cache    busyCache
	metrics  *MetricsService
	logger   *zap.Logger
	loc      *time.Location
	cacheTTL time.Duration
	statuses []models.ClassStatus
}

// NewBusyIntervalService wires the resolver. cache may be nil.
func NewBusyIntervalService(repo commitmentReader, cache busyCache, metrics *MetricsService, logger *zap.Logger, cfg BusyIntervalConfig) *BusyIntervalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	statuses := []models.ClassStatus{models.ClassStatusPublished}
	if cfg.IncludeDraftClasses {
		statuses = append(statuses, models.ClassStatusDraft)
	}
	return &BusyIntervalService{
		repo:     repo,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		loc:      cfg.Location,
		cacheTTL: cfg.CacheTTL,
		statuses: statuses,
	}
}

// Resolve returns the busy intervals of the actor for the inclusive day range [from, to]. A failed
// fetch is returned as BUSY_FETCH_FAILED, never as an empty list. Overlapping intervals from
// different sources are all kept.
func (s *BusyIntervalService) Resolve(ctx context.Context, kind models.OwnerKind, ownerID string, from, to time.Time) ([]models.BusyInterval, error) {
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported owner kind %q", kind))
	}
	if ownerID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "owner id is required")
	}
	first := calendar.DateIn(from, s.loc)
	last := calendar.DateIn(to, s.loc)
	if calendar.DaysBetween(first, last) < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "range start must not be after range end")
	}

	key := busyCacheKey(kind, ownerID, first, last)
	if s.cache != nil && !busyCacheBypassed(ctx) {
		var cached []models.BusyInterval
		hit, err := s.cache.Get(ctx, key, &cached)
		if err == nil && hit {
			s.metrics.RecordBusyFetch(kind, "cache_hit")
			return cached, nil
		}
	}

	patterns, err := s.repo.ListCommittedPatterns(ctx, kind, ownerID, first, last, s.statuses)
	if err != nil {
		return nil, s.fetchFailed(kind, ownerID, err)
	}
	// One-off commitments are matched against the half-open window covering every day of the range.
	commitments, err := s.repo.ListCommitments(ctx, kind, ownerID, first, calendar.AddDays(last, 1))
	if err != nil {
		return nil, s.fetchFailed(kind, ownerID, err)
	}

	intervals := make([]models.BusyInterval, 0, len(commitments))
	for _, pattern := range patterns {
		expanded, err := s.expandCommitted(kind, ownerID, pattern, first, last)
		if err != nil {
			s.logger.Warn("skipping committed pattern with invalid slot",
				zap.String("class_id", pattern.ClassID),
				zap.Int("time_slot_id", pattern.TimeSlotID),
				zap.Error(err))
			continue
		}
		intervals = append(intervals, expanded...)
	}
	for _, commitment := range commitments {
		intervals = append(intervals, models.BusyInterval{
			OwnerID:     ownerID,
			OwnerKind:   kind,
			Start:       commitment.StartsAt.In(s.loc),
			End:         commitment.EndsAt.In(s.loc),
			Source:      models.BusySourceCommitment,
			ReferenceID: commitment.ID,
		})
	}
	sort.SliceStable(intervals, func(i, j int) bool { return intervals[i].Start.Before(intervals[j].Start) })

	s.metrics.RecordBusyFetch(kind, "success")
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, intervals, s.cacheTTL)
	}
	return intervals, nil
}

// InvalidateOwner drops every cached range of the actor.
func (s *BusyIntervalService) InvalidateOwner(ctx context.Context, kind models.OwnerKind, ownerID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, fmt.Sprintf("busy:%s:%s:*", kind, ownerID))
}

func (s *BusyIntervalService) expandCommitted(kind models.OwnerKind, ownerID string, pattern models.CommittedPattern, first, last time.Time) ([]models.BusyInterval, error) {
	start, err := calendar.ParseClock(pattern.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := calendar.ParseClock(pattern.EndTime)
	if err != nil {
		return nil, err
	}
	from, to, ok := calendar.ClipRange(first, last, calendar.DateIn(pattern.ActiveFrom, s.loc), calendar.DateIn(pattern.ActiveUntil, s.loc))
	if !ok {
		return nil, nil
	}
	occurrences := calendar.ExpandWeekly(pattern.DayOfWeek, start, end, from, to, s.loc)
	out := make([]models.BusyInterval, 0, len(occurrences))
	for _, occ := range occurrences {
		out = append(out, models.BusyInterval{
			OwnerID:     ownerID,
			OwnerKind:   kind,
			Start:       occ.Start,
			End:         occ.End,
			Source:      models.BusySourceClass,
			ReferenceID: pattern.ClassID,
		})
	}
	return out, nil
}

func (s *BusyIntervalService) fetchFailed(kind models.OwnerKind, ownerID string, err error) error {
	s.metrics.RecordBusyFetch(kind, "error")
	s.logger.Error("busy interval fetch failed",
		zap.String("owner_kind", string(kind)),
		zap.String("owner_id", ownerID),
		zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrBusyFetchFailed.Code, appErrors.ErrBusyFetchFailed.Status,
		fmt.Sprintf("failed to load busy intervals for %s %s", kind, ownerID))
}

func busyCacheKey(kind models.OwnerKind, ownerID string, from, to time.Time) string {
	return fmt.Sprintf("busy:%s:%s:%s:%s", kind, ownerID, calendar.DateKey(from), calendar.DateKey(to))
}

type busyResolver interface {
	Resolve(ctx context.Context, kind models.OwnerKind, ownerID string, from, to time.Time) ([]models.BusyInterval, error)
}

// resolveActors fetches teacher and room busy sets concurrently. Both must succeed; the first
// failure cancels the other fetch.
func resolveActors(ctx context.Context, resolver busyResolver, teacherID, roomID string, from, to time.Time) (teacherBusy, roomBusy []models.BusyInterval, err error) {
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		teacherBusy, err = resolver.Resolve(groupCtx, models.OwnerKindTeacher, teacherID, from, to)
		return err
	})
	group.Go(func() error {
		var err error
		roomBusy, err = resolver.Resolve(groupCtx, models.OwnerKindRoom, roomID, from, to)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}
	return teacherBusy, roomBusy, nil
}
