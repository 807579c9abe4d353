package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/edu-scheduler-api/pkg/errors"
)

type commitmentRepoStub struct {
	patterns    []models.CommittedPattern
	commitments []models.Commitment
	patternErr  error
	calls       int
	statuses    []models.ClassStatus
	commitFrom  time.Time
	commitTo    time.Time
}

func (s *commitmentRepoStub) ListCommittedPatterns(ctx context.Context, kind models.OwnerKind, ownerID string, from, to time.Time, statuses []models.ClassStatus) ([]models.CommittedPattern, error) {
	s.calls++
	s.statuses = statuses
	if s.patternErr != nil {
		return nil, s.patternErr
	}
	return s.patterns, nil
}

func (s *commitmentRepoStub) ListCommitments(ctx context.Context, kind models.OwnerKind, ownerID string, from, to time.Time) ([]models.Commitment, error) {
	s.commitFrom, s.commitTo = from, to
	return s.commitments, nil
}

type memoryBusyCache struct {
	items       map[string][]byte
	invalidated []string
}

func newMemoryBusyCache() *memoryBusyCache {
	return &memoryBusyCache{items: make(map[string][]byte)}
}

func (c *memoryBusyCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryBusyCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[key] = raw
	return nil
}

func (c *memoryBusyCache) Invalidate(ctx context.Context, pattern string) error {
	c.invalidated = append(c.invalidated, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	return nil
}

func mondayEveningPattern(classID string) models.CommittedPattern {
	return models.CommittedPattern{
		ClassID:     classID,
		ClassStatus: models.ClassStatusPublished,
		DayOfWeek:   1,
		TimeSlotID:  1,
		StartTime:   "16:00",
		EndTime:     "18:00",
		ActiveFrom:  time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		ActiveUntil: time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestBusyIntervalResolveExpandsAndClipsPatterns(t *testing.T) {
	repo := &commitmentRepoStub{patterns: []models.CommittedPattern{mondayEveningPattern("class-9")}}
	svc := NewBusyIntervalService(repo, nil, nil, nil, BusyIntervalConfig{Location: wib})

	intervals, err := svc.Resolve(context.Background(), models.OwnerKindTeacher, "teacher-1", at(6, 0, 0), at(26, 0, 0))
	require.NoError(t, err)

	// The class is active until the 15th, so only the 6th and 13th are busy.
	require.Len(t, intervals, 2)
	assert.True(t, intervals[0].Start.Equal(at(6, 16, 0)))
	assert.True(t, intervals[1].End.Equal(at(13, 18, 0)))
	assert.Equal(t, models.BusySourceClass, intervals[0].Source)
	assert.Equal(t, "class-9", intervals[0].ReferenceID)
	assert.Equal(t, models.OwnerKindTeacher, intervals[0].OwnerKind)
}

func TestBusyIntervalResolveMergesCommitmentsInOrder(t *testing.T) {
	repo := &commitmentRepoStub{
		patterns: []models.CommittedPattern{mondayEveningPattern("class-9")},
		commitments: []models.Commitment{{
			ID:        "leave-1",
			OwnerKind: models.OwnerKindTeacher,
			OwnerID:   "teacher-1",
			StartsAt:  at(8, 9, 0).UTC(),
			EndsAt:    at(8, 12, 0).UTC(),
		}},
	}
	svc := NewBusyIntervalService(repo, nil, nil, nil, BusyIntervalConfig{Location: wib})

	intervals, err := svc.Resolve(context.Background(), models.OwnerKindTeacher, "teacher-1", at(6, 0, 0), at(12, 0, 0))
	require.NoError(t, err)

	require.Len(t, intervals, 2)
	assert.Equal(t, models.BusySourceClass, intervals[0].Source)
	assert.Equal(t, models.BusySourceCommitment, intervals[1].Source)
	assert.Equal(t, "leave-1", intervals[1].ReferenceID)
	assert.True(t, repo.commitFrom.Equal(at(6, 0, 0)))
	assert.True(t, repo.commitTo.Equal(at(13, 0, 0)))
}

func TestBusyIntervalResolveFetchFailureIsNotEmpty(t *testing.T) {
	repo := &commitmentRepoStub{patternErr: errors.New("connection refused")}
	svc := NewBusyIntervalService(repo, nil, NewMetricsService(), nil, BusyIntervalConfig{Location: wib})

	intervals, err := svc.Resolve(context.Background(), models.OwnerKindRoom, "room-a", at(6, 0, 0), at(26, 0, 0))

	assert.Nil(t, intervals)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrBusyFetchFailed.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrBusyFetchFailed.Status, appErr.Status)
}

func TestBusyIntervalResolveValidatesInput(t *testing.T) {
	svc := NewBusyIntervalService(&commitmentRepoStub{}, nil, nil, nil, BusyIntervalConfig{Location: wib})

	_, err := svc.Resolve(context.Background(), models.OwnerKind("student"), "s-1", at(6, 0, 0), at(7, 0, 0))
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Resolve(context.Background(), models.OwnerKindRoom, "", at(6, 0, 0), at(7, 0, 0))
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Resolve(context.Background(), models.OwnerKindRoom, "room-a", at(7, 0, 0), at(6, 0, 0))
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBusyIntervalStatusesFollowDraftSwitch(t *testing.T) {
	repo := &commitmentRepoStub{}
	svc := NewBusyIntervalService(repo, nil, nil, nil, BusyIntervalConfig{Location: wib, IncludeDraftClasses: true})
	_, err := svc.Resolve(context.Background(), models.OwnerKindTeacher, "teacher-1", at(6, 0, 0), at(7, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, []models.ClassStatus{models.ClassStatusPublished, models.ClassStatusDraft}, repo.statuses)

	svc = NewBusyIntervalService(repo, nil, nil, nil, BusyIntervalConfig{Location: wib})
	_, err = svc.Resolve(context.Background(), models.OwnerKindTeacher, "teacher-1", at(6, 0, 0), at(7, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, []models.ClassStatus{models.ClassStatusPublished}, repo.statuses)
}

func TestBusyIntervalCacheHitAndInvalidate(t *testing.T) {
	repo := &commitmentRepoStub{patterns: []models.CommittedPattern{mondayEveningPattern("class-9")}}
	cache := newMemoryBusyCache()
	svc := NewBusyIntervalService(repo, cache, nil, nil, BusyIntervalConfig{Location: wib, CacheTTL: time.Minute})
	ctx := context.Background()

	first, err := svc.Resolve(ctx, models.OwnerKindTeacher, "teacher-1", at(6, 0, 0), at(12, 0, 0))
	require.NoError(t, err)
	second, err := svc.Resolve(ctx, models.OwnerKindTeacher, "teacher-1", at(6, 0, 0), at(12, 0, 0))
	require.NoError(t, err)

	assert.Equal(t, 1, repo.calls)
	require.Len(t, second, len(first))
	assert.True(t, second[0].Start.Equal(first[0].Start))

	require.NoError(t, svc.InvalidateOwner(ctx, models.OwnerKindTeacher, "teacher-1"))
	assert.Equal(t, []string{"busy:teacher:teacher-1:*"}, cache.invalidated)

	_, err = svc.Resolve(ctx, models.OwnerKindTeacher, "teacher-1", at(6, 0, 0), at(12, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestBusyIntervalUncachedResolveReadsRepository(t *testing.T) {
	repo := &commitmentRepoStub{patterns: []models.CommittedPattern{mondayEveningPattern("class-9")}}
	cache := newMemoryBusyCache()
	svc := NewBusyIntervalService(repo, cache, nil, nil, BusyIntervalConfig{Location: wib, CacheTTL: time.Minute})

	// Seed a stale empty entry, as left behind by a failed invalidation.
	key := busyCacheKey(models.OwnerKindTeacher, "teacher-1", at(6, 0, 0), at(12, 0, 0))
	require.NoError(t, cache.Set(context.Background(), key, []models.BusyInterval{}, time.Minute))

	stale, err := svc.Resolve(context.Background(), models.OwnerKindTeacher, "teacher-1", at(6, 0, 0), at(12, 0, 0))
	require.NoError(t, err)
	assert.Empty(t, stale)
	assert.Zero(t, repo.calls)

	fresh, err := svc.Resolve(WithoutBusyCache(context.Background()), models.OwnerKindTeacher, "teacher-1", at(6, 0, 0), at(12, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
	require.Len(t, fresh, 1)

	// The fresh read replaces the stale entry.
	cached, err := svc.Resolve(context.Background(), models.OwnerKindTeacher, "teacher-1", at(6, 0, 0), at(12, 0, 0))
	require.NoError(t, err)
	assert.Len(t, cached, 1)
	assert.Equal(t, 1, repo.calls)
}

func TestResolveActorsFailsWhenEitherFetchFails(t *testing.T) {
	resolver := newBusyResolverStub()
	resolver.set(models.OwnerKindTeacher, "teacher-1", busy(models.OwnerKindTeacher, "teacher-1", at(6, 16, 0), at(6, 18, 0)))
	resolver.fail(models.OwnerKindRoom, "room-a", appErrors.ErrBusyFetchFailed)

	teacherBusy, roomBusy, err := resolveActors(context.Background(), resolver, "teacher-1", "room-a", at(6, 0, 0), at(26, 0, 0))

	assert.ErrorIs(t, err, appErrors.ErrBusyFetchFailed)
	assert.Nil(t, teacherBusy)
	assert.Nil(t, roomBusy)
}
