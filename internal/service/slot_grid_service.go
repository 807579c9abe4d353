package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-scheduler-api/internal/dto"
	"github.com/noah-isme/edu-scheduler-api/internal/models"
	"github.com/noah-isme/edu-scheduler-api/pkg/calendar"
	appErrors "github.com/noah-isme/edu-scheduler-api/pkg/errors"
	"github.com/noah-isme/edu-scheduler-api/pkg/logger"
)

type classCreator interface {
	Create(ctx context.Context, req dto.CreateClassRequest) (*models.ClassDetail, error)
}

// SlotGridConfig governs grid sessions.
type SlotGridConfig struct {
	SessionTTL   time.Duration
	FetchTimeout time.Duration
}

// SlotGridService hosts server-side grid sessions. Each session owns one SlotGrid; busy data is
// loaded in the background and results for superseded dependencies are dropped.
type SlotGridService struct {
	busy       busyResolver
	semesters  semesterReader
	classes    classCreator
	engine     *ConflictEngine
	normalizer *ScheduleNormalizer
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger

	fetchTimeout time.Duration
	store        *gridSessionStore
}

// NewSlotGridService wires grid dependencies.
func NewSlotGridService(
	busy busyResolver,
	semesters semesterReader,
	classes classCreator,
	engine *ConflictEngine,
	normalizer *ScheduleNormalizer,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg SlotGridConfig,
) *SlotGridService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	return &SlotGridService{
		busy:         busy,
		semesters:    semesters,
		classes:      classes,
		engine:       engine,
		normalizer:   normalizer,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		fetchTimeout: cfg.FetchTimeout,
		store:        newGridSessionStore(cfg.SessionTTL),
	}
}

// Open starts a grid session with optional initial dependencies.
func (s *SlotGridService) Open(ctx context.Context, req dto.GridDependenciesRequest) (*dto.GridSnapshot, error) {
	deps, err := s.resolveDependencies(ctx, req)
	if err != nil {
		return nil, err
	}

	session := &gridSession{
		id:     uuid.NewString(),
		grid:   NewSlotGrid(s.engine),
		loaded: closedChan(),
	}
	s.store.Save(session)
	s.metrics.SetGridSessions(s.store.Len())

	session.mu.Lock()
	defer session.mu.Unlock()
	s.applyDependencies(session, deps)
	return s.snapshot(session), nil
}

// UpdateDependencies swaps teacher, room or semester. A change resets the selection and triggers
// a fresh load; an in-flight load for the previous values is cancelled.
func (s *SlotGridService) UpdateDependencies(ctx context.Context, id string, req dto.GridDependenciesRequest) (*dto.GridSnapshot, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	deps, err := s.resolveDependencies(ctx, req)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	s.applyDependencies(session, deps)
	return s.snapshot(session), nil
}

// Snapshot renders the session. week moves the displayed week when set (yyyy-MM-dd). With wait the
// call blocks until the current load settles or ctx ends.
func (s *SlotGridService) Snapshot(ctx context.Context, id, week string, wait bool) (*dto.GridSnapshot, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if week != "" {
		date, err := calendar.ParseDate(week, s.engine.Location())
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "week must be yyyy-MM-dd")
		}
		session.mu.Lock()
		session.grid.ShowWeek(date)
		session.mu.Unlock()
	}

	for {
		session.mu.Lock()
		status, _ := session.grid.Status()
		loaded := session.loaded
		if !wait || status != GridLoading {
			snap := s.snapshot(session)
			session.mu.Unlock()
			return snap, nil
		}
		session.mu.Unlock()

		select {
		case <-loaded:
		case <-ctx.Done():
			session.mu.Lock()
			snap := s.snapshot(session)
			session.mu.Unlock()
			return snap, nil
		}
	}
}

// Toggle flips one concrete cell.
func (s *SlotGridService) Toggle(ctx context.Context, id string, req dto.ToggleRequest) (*dto.ToggleResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid toggle payload")
	}
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	outcome, err := session.grid.Toggle(req.IsoStart, req.IsoEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cell timestamps")
	}
	return &dto.ToggleResult{
		Disabled: outcome.Disabled,
		Applied:  outcome.Applied,
		Selected: outcome.Selected,
		State:    outcome.State,
		Reason:   outcome.Reason,
	}, nil
}

// Reset clears the selection of the session.
func (s *SlotGridService) Reset(ctx context.Context, id string) (*dto.GridSnapshot, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	session.grid.Reset()
	return s.snapshot(session), nil
}

// Normalized previews the recurrence set the current selection would submit.
func (s *SlotGridService) Normalized(ctx context.Context, id string) (*dto.NormalizeResponse, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	selection := session.grid.Selection()
	session.mu.Unlock()

	schedule, warnings := s.normalizer.Normalize(selection)
	return &dto.NormalizeResponse{Schedule: schedule, Warnings: warnings}, nil
}

// Submit normalizes the selection and creates the class. Dropped selections are returned as
// warnings alongside the created class. The session is discarded on success.
func (s *SlotGridService) Submit(ctx context.Context, id string, req dto.SubmitGridRequest) (*dto.SubmitGridResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submit payload")
	}
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	status, _ := session.grid.Status()
	deps := session.grid.Dependencies()
	selection := session.grid.Selection()
	session.mu.Unlock()

	if status != GridReady {
		return nil, appErrors.Clone(appErrors.ErrGridDisabled, "grid is not ready: "+string(status))
	}

	schedule, warnings := s.normalizer.Normalize(selection)
	if len(warnings) > 0 {
		s.metrics.RecordNormalizationWarnings(len(warnings))
		logger.WithContext(ctx, s.logger).Warn("selections dropped during normalization", zap.String("grid_id", id), zap.Int("warnings", len(warnings)))
	}
	if len(schedule) == 0 {
		if len(warnings) > 0 {
			return nil, appErrors.WithDetails(appErrors.ErrEmptySelection, warnings)
		}
		return nil, appErrors.ErrEmptySelection
	}

	class, err := s.classes.Create(ctx, dto.CreateClassRequest{
		Name:       req.Name,
		SubjectID:  req.SubjectID,
		TeacherID:  deps.TeacherID,
		RoomID:     deps.RoomID,
		SemesterID: deps.semesterID(),
		Schedule:   schedule,
	})
	if err != nil {
		return nil, err
	}

	s.Close(ctx, id)
	return &dto.SubmitGridResponse{Class: class, Warnings: warnings}, nil
}

// Close discards the session and cancels its in-flight load.
func (s *SlotGridService) Close(ctx context.Context, id string) {
	s.store.Delete(id)
	s.metrics.SetGridSessions(s.store.Len())
}

func (s *SlotGridService) session(id string) (*gridSession, error) {
	session, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.ErrGridSessionNotFound
	}
	return session, nil
}

func (s *SlotGridService) resolveDependencies(ctx context.Context, req dto.GridDependenciesRequest) (GridDependencies, error) {
	deps := GridDependencies{TeacherID: req.TeacherID, RoomID: req.RoomID}
	if req.SemesterID == "" {
		return deps, nil
	}
	semester, err := s.semesters.FindByID(ctx, req.SemesterID)
	if err != nil {
		return GridDependencies{}, mapLookupError(err, "semester")
	}
	deps.Semester = semester
	return deps, nil
}

// applyDependencies must be called with session.mu held.
func (s *SlotGridService) applyDependencies(session *gridSession, deps GridDependencies) {
	before := session.grid.Generation()
	generation, needsLoad := session.grid.SetDependencies(deps)
	if generation == before {
		return
	}
	if session.cancel != nil {
		session.cancel()
		session.cancel = nil
	}
	if !needsLoad {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.fetchTimeout)
	done := make(chan struct{})
	session.cancel = cancel
	session.loaded = done
	go s.load(ctx, cancel, session, generation, deps, done)
}

func (s *SlotGridService) load(ctx context.Context, cancel context.CancelFunc, session *gridSession, generation uint64, deps GridDependencies, done chan struct{}) {
	defer close(done)
	defer cancel()

	semester := deps.Semester
	teacherBusy, roomBusy, err := resolveActors(ctx, s.busy, deps.TeacherID, deps.RoomID, semester.StartDate, semester.EndDate)

	session.mu.Lock()
	defer session.mu.Unlock()

	var applied bool
	if err != nil {
		applied = session.grid.FailLoad(generation, err)
	} else {
		applied = session.grid.ApplyBusy(generation, teacherBusy, roomBusy)
	}
	if !applied {
		s.metrics.RecordStaleGridLoad()
		s.logger.Debug("discarded stale grid load", zap.String("grid_id", session.id), zap.Uint64("generation", generation))
		return
	}
	if err != nil {
		s.logger.Warn("grid busy load failed",
			zap.String("grid_id", session.id),
			zap.String("teacher_id", deps.TeacherID),
			zap.String("room_id", deps.RoomID),
			zap.Error(err))
		return
	}
	s.metrics.RecordVerdicts(session.grid.Verdicts())
}

// snapshot must be called with session.mu held.
func (s *SlotGridService) snapshot(session *gridSession) *dto.GridSnapshot {
	status, loadErr := session.grid.Status()
	deps := session.grid.Dependencies()
	snap := &dto.GridSnapshot{
		ID:         session.id,
		Status:     string(status),
		Disabled:   status != GridReady,
		TeacherID:  deps.TeacherID,
		RoomID:     deps.RoomID,
		SemesterID: deps.semesterID(),
		WeekStart:  calendar.DateKey(session.grid.WeekStart()),
		Cells:      session.grid.Cells(),
		Selection:  session.grid.Selection(),
		ExpiresAt:  calendar.FormatISODateTime(time.Unix(0, session.expiresAt.Load()).In(s.engine.Location())),
	}
	if loadErr != nil {
		snap.Error = appErrors.FromError(loadErr).Message
	}
	return snap
}

type gridSession struct {
	id        string
	mu        sync.Mutex
	grid      *SlotGrid
	cancel    context.CancelFunc
	loaded    chan struct{}
	expiresAt atomic.Int64
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// gridSessionStore keeps sessions for a sliding TTL. Lock order is store then session.
type gridSessionStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]*gridSession
}

func newGridSessionStore(ttl time.Duration) *gridSessionStore {
	return &gridSessionStore{ttl: ttl, items: make(map[string]*gridSession)}
}

func (s *gridSessionStore) Save(session *gridSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(time.Now())
	session.expiresAt.Store(time.Now().Add(s.ttl).UnixNano())
	s.items[session.id] = session
}

func (s *gridSessionStore) Get(id string) (*gridSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.items[id]
	if !ok {
		return nil, false
	}
	now := time.Now()
	if now.UnixNano() > session.expiresAt.Load() {
		s.removeLocked(id)
		return nil, false
	}
	session.expiresAt.Store(now.Add(s.ttl).UnixNano())
	return session, true
}

func (s *gridSessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

func (s *gridSessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *gridSessionStore) sweepLocked(now time.Time) {
	for id, session := range s.items {
		if now.UnixNano() > session.expiresAt.Load() {
			s.removeLocked(id)
		}
	}
}

func (s *gridSessionStore) removeLocked(id string) {
	session, ok := s.items[id]
	if !ok {
		return
	}
	delete(s.items, id)
	session.mu.Lock()
	if session.cancel != nil {
		session.cancel()
		session.cancel = nil
	}
	session.mu.Unlock()
}
