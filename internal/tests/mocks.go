package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"tripguard/internal/domain"
	"tripguard/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK HOLD REPOSITORY
// ──────────────────────────────────────────────

// MockHoldRepository is a mock implementation of HoldRepository with the same
// compare-and-set semantics as the PostgreSQL implementation.
type MockHoldRepository struct {
	mu          sync.RWMutex
	holds       map[string]*domain.PaymentHold
	transitions map[string][]*domain.HoldTransition

	// Counters for verification
	CreateCallCount     int32
	TransitionCallCount int32

	// Error injection
	CreateError     error
	TransitionError error
}

// NewMockHoldRepository creates a new mock hold repository.
func NewMockHoldRepository() *MockHoldRepository {
	return &MockHoldRepository{
		holds:       make(map[string]*domain.PaymentHold),
		transitions: make(map[string][]*domain.HoldTransition),
	}
}

// AddHold seeds a hold for test setup.
func (m *MockHoldRepository) AddHold(hold *domain.PaymentHold) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holds[hold.ID] = hold
}

func (m *MockHoldRepository) Create(ctx context.Context, hold *domain.PaymentHold) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.holds {
		if h.TripID == hold.TripID {
			return repository.ErrDuplicate
		}
	}
	m.holds[hold.ID] = hold
	return nil
}

func (m *MockHoldRepository) GetByID(ctx context.Context, id string) (*domain.PaymentHold, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hold, ok := m.holds[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *hold
	return &copy, nil
}

func (m *MockHoldRepository) GetByTripID(ctx context.Context, tripID string) (*domain.PaymentHold, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, h := range m.holds {
		if h.TripID == tripID {
			copy := *h
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockHoldRepository) GetByHoldRef(ctx context.Context, holdRef string) (*domain.PaymentHold, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, h := range m.holds {
		if h.HoldRef == holdRef {
			copy := *h
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockHoldRepository) Transition(ctx context.Context, holdID string, from, to domain.HoldStatus, meta repository.TransitionMeta) (*domain.PaymentHold, error) {
	atomic.AddInt32(&m.TransitionCallCount, 1)
	if m.TransitionError != nil {
		return nil, m.TransitionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	hold, ok := m.holds[holdID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if hold.Status != from {
		return nil, repository.ErrConflict
	}
	if meta.RefundKey != "" && hold.LastRefundKey == meta.RefundKey {
		return nil, repository.ErrConflict
	}

	now := time.Now()
	hold.Status = to
	if meta.CaptureRef != "" {
		hold.CaptureRef = meta.CaptureRef
	}
	if meta.EventID != "" {
		hold.LastEventID = meta.EventID
	}
	if meta.RefundKey != "" {
		hold.LastRefundKey = meta.RefundKey
	}
	switch to {
	case domain.HoldStatusCaptured:
		hold.CapturedAt = now
	case domain.HoldStatusReleased:
		hold.ReleasedAt = now
	case domain.HoldStatusRefunded:
		hold.RefundedAmount = hold.Amount
		hold.RefundedAt = now
	case domain.HoldStatusPartiallyRefunded:
		hold.RefundedAmount += meta.Amount
		hold.RefundedAt = now
	}

	m.transitions[holdID] = append(m.transitions[holdID], &domain.HoldTransition{
		ID:         uuid.New().String(),
		HoldID:     holdID,
		FromStatus: from,
		ToStatus:   to,
		Actor:      meta.Actor,
		Reason:     meta.Reason,
		OccurredAt: now,
	})

	copy := *hold
	return &copy, nil
}

func (m *MockHoldRepository) SetHoldRef(ctx context.Context, holdID, holdRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	hold, ok := m.holds[holdID]
	if !ok {
		return repository.ErrNotFound
	}
	hold.HoldRef = holdRef
	return nil
}

func (m *MockHoldRepository) MarkEventApplied(ctx context.Context, holdID, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hold, ok := m.holds[holdID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if hold.LastEventID == eventID {
		return false, nil
	}
	hold.LastEventID = eventID
	return true, nil
}

func (m *MockHoldRepository) MarkSettled(ctx context.Context, holdID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	hold, ok := m.holds[holdID]
	if !ok {
		return repository.ErrNotFound
	}
	hold.Settled = true
	return nil
}

func (m *MockHoldRepository) ListUnsettledBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.PaymentHold, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.PaymentHold, 0)
	for _, h := range m.holds {
		if h.Settled || len(result) >= limit {
			continue
		}
		if (h.Status == domain.HoldStatusHeld || h.Status == domain.HoldStatusCaptured) && h.PlacedAt.Before(cutoff) {
			copy := *h
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockHoldRepository) ListTransitions(ctx context.Context, holdID string) ([]*domain.HoldTransition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.HoldTransition(nil), m.transitions[holdID]...), nil
}

// GetHold returns the stored hold for assertions.
func (m *MockHoldRepository) GetHold(id string) *domain.PaymentHold {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.holds[id]
}

// HoldForTrip returns the stored hold for a trip, for assertions.
func (m *MockHoldRepository) HoldForTrip(tripID string) *domain.PaymentHold {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, h := range m.holds {
		if h.TripID == tripID {
			return h
		}
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters
	CreateCallCount       int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	UpdateStatusError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip seeds a trip for test setup.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[trip.ID]; ok {
		return repository.ErrDuplicate
	}
	m.trips[trip.ID] = trip
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) UpdateStatus(ctx context.Context, id string, from, to domain.TripStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return repository.ErrNotFound
	}
	if trip.Status != from {
		return repository.ErrConflict
	}
	trip.Status = to
	return nil
}

func (m *MockTripRepository) SetDriver(ctx context.Context, id, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return repository.ErrNotFound
	}
	trip.DriverID = driverID
	return nil
}

// GetTrip returns the stored trip for assertions.
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters
	SetEligibilityCallCount int32

	// Error injection
	SetEligibilityError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver seeds a driver for test setup.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) SetEligibility(ctx context.Context, id string, eligible bool) error {
	atomic.AddInt32(&m.SetEligibilityCallCount, 1)
	if m.SetEligibilityError != nil {
		return m.SetEligibilityError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Eligible = eligible
	if !eligible {
		driver.Status = domain.DriverStatusOffline
	}
	return nil
}

func (m *MockDriverRepository) SetStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	if status != domain.DriverStatusOffline && !driver.Eligible {
		return repository.ErrConflict
	}
	driver.Status = status
	return nil
}

// GetDriver returns the stored driver for assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id]
}

// ──────────────────────────────────────────────
// MOCK SUSPENSION REPOSITORY
// ──────────────────────────────────────────────

// MockSuspensionRepository is a mock implementation of SuspensionRepository.
// It enforces the one-ACTIVE-suspension-per-driver invariant the way the
// partial unique index does.
type MockSuspensionRepository struct {
	mu          sync.RWMutex
	suspensions map[string]*domain.Suspension

	// Error injection
	CreateError error
}

// NewMockSuspensionRepository creates a new mock suspension repository.
func NewMockSuspensionRepository() *MockSuspensionRepository {
	return &MockSuspensionRepository{
		suspensions: make(map[string]*domain.Suspension),
	}
}

// AddSuspension seeds a suspension for test setup.
func (m *MockSuspensionRepository) AddSuspension(suspension *domain.Suspension) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suspensions[suspension.ID] = suspension
}

func (m *MockSuspensionRepository) Create(ctx context.Context, suspension *domain.Suspension) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.suspensions {
		if s.DriverID == suspension.DriverID && s.Status == domain.SuspensionStatusActive {
			return repository.ErrDuplicate
		}
	}
	m.suspensions[suspension.ID] = suspension
	return nil
}

func (m *MockSuspensionRepository) GetByID(ctx context.Context, id string) (*domain.Suspension, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	suspension, ok := m.suspensions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *suspension
	return &copy, nil
}

func (m *MockSuspensionRepository) GetActiveByDriver(ctx context.Context, driverID string) (*domain.Suspension, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.suspensions {
		if s.DriverID == driverID && s.Status == domain.SuspensionStatusActive {
			copy := *s
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockSuspensionRepository) UpdateStatus(ctx context.Context, id string, from, to domain.SuspensionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	suspension, ok := m.suspensions[id]
	if !ok {
		return repository.ErrNotFound
	}
	if suspension.Status != from {
		return repository.ErrConflict
	}
	suspension.Status = to
	return nil
}

func (m *MockSuspensionRepository) ListExpiredTemporary(ctx context.Context, now time.Time, limit int) ([]*domain.Suspension, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Suspension, 0)
	for _, s := range m.suspensions {
		if len(result) >= limit {
			break
		}
		if s.Status == domain.SuspensionStatusActive && s.ExpiredAt(now) {
			copy := *s
			result = append(result, &copy)
		}
	}
	return result, nil
}

// GetSuspension returns the stored suspension for assertions.
func (m *MockSuspensionRepository) GetSuspension(id string) *domain.Suspension {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.suspensions[id]
}

// ──────────────────────────────────────────────
// MOCK STRIKE REPOSITORY
// ──────────────────────────────────────────────

// MockStrikeRepository is a mock implementation of StrikeRepository.
type MockStrikeRepository struct {
	mu      sync.RWMutex
	strikes map[string]*domain.Strike

	// Error injection
	CreateError error
}

// NewMockStrikeRepository creates a new mock strike repository.
func NewMockStrikeRepository() *MockStrikeRepository {
	return &MockStrikeRepository{
		strikes: make(map[string]*domain.Strike),
	}
}

// AddStrike seeds a strike for test setup.
func (m *MockStrikeRepository) AddStrike(strike *domain.Strike) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strikes[strike.ID] = strike
}

func (m *MockStrikeRepository) Create(ctx context.Context, strike *domain.Strike) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strikes[strike.ID] = strike
	return nil
}

func (m *MockStrikeRepository) GetByID(ctx context.Context, id string) (*domain.Strike, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	strike, ok := m.strikes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *strike
	return &copy, nil
}

func (m *MockStrikeRepository) ListActiveByDriver(ctx context.Context, driverID string, now time.Time) ([]*domain.Strike, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Strike, 0)
	for _, s := range m.strikes {
		if s.DriverID == driverID && s.ActiveAt(now) {
			copy := *s
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockStrikeRepository) CountActiveByDriver(ctx context.Context, driverID string, now time.Time) (int, error) {
	strikes, _ := m.ListActiveByDriver(ctx, driverID, now)
	return len(strikes), nil
}

func (m *MockStrikeRepository) ExistsForTripAndType(ctx context.Context, tripID string, strikeType domain.StrikeType) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.strikes {
		if s.TripID == tripID && s.Type == strikeType {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockStrikeRepository) UpdateStatus(ctx context.Context, id string, from, to domain.StrikeStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	strike, ok := m.strikes[id]
	if !ok {
		return repository.ErrNotFound
	}
	if strike.Status != from {
		return repository.ErrConflict
	}
	strike.Status = to
	return nil
}

func (m *MockStrikeRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*domain.Strike, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Strike, 0)
	for _, s := range m.strikes {
		if len(result) >= limit {
			break
		}
		if s.Status == domain.StrikeStatusActive && !s.ExpiresAt.After(now) {
			copy := *s
			result = append(result, &copy)
		}
	}
	return result, nil
}

// GetStrike returns the stored strike for assertions.
func (m *MockStrikeRepository) GetStrike(id string) *domain.Strike {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.strikes[id]
}

// ──────────────────────────────────────────────
// MOCK DISPUTE / APPEAL REPOSITORIES
// ──────────────────────────────────────────────

// MockDisputeRepository is a mock implementation of DisputeRepository.
type MockDisputeRepository struct {
	mu       sync.RWMutex
	disputes map[string]*domain.Dispute

	// Error injection
	MarkResolvedError error
}

// NewMockDisputeRepository creates a new mock dispute repository.
func NewMockDisputeRepository() *MockDisputeRepository {
	return &MockDisputeRepository{
		disputes: make(map[string]*domain.Dispute),
	}
}

// AddDispute seeds a dispute for test setup.
func (m *MockDisputeRepository) AddDispute(dispute *domain.Dispute) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disputes[dispute.ID] = dispute
}

func (m *MockDisputeRepository) Create(ctx context.Context, dispute *domain.Dispute) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disputes[dispute.ID] = dispute
	return nil
}

func (m *MockDisputeRepository) GetByID(ctx context.Context, id string) (*domain.Dispute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dispute, ok := m.disputes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *dispute
	return &copy, nil
}

func (m *MockDisputeRepository) OpenExistsForTrip(ctx context.Context, tripID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.disputes {
		if d.TripID == tripID && !d.Status.Resolved() {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockDisputeRepository) MarkResolved(ctx context.Context, id string, to domain.ResolutionStatus, resolvedBy, resolution string) error {
	if m.MarkResolvedError != nil {
		return m.MarkResolvedError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	dispute, ok := m.disputes[id]
	if !ok {
		return repository.ErrNotFound
	}
	if dispute.Status.Resolved() {
		return repository.ErrConflict
	}
	dispute.Status = to
	dispute.ResolvedBy = resolvedBy
	dispute.Resolution = resolution
	dispute.ResolvedAt = time.Now()
	return nil
}

// MockAppealRepository is a mock implementation of AppealRepository.
type MockAppealRepository struct {
	mu      sync.RWMutex
	appeals map[string]*domain.Appeal
}

// NewMockAppealRepository creates a new mock appeal repository.
func NewMockAppealRepository() *MockAppealRepository {
	return &MockAppealRepository{
		appeals: make(map[string]*domain.Appeal),
	}
}

// AddAppeal seeds an appeal for test setup.
func (m *MockAppealRepository) AddAppeal(appeal *domain.Appeal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appeals[appeal.ID] = appeal
}

func (m *MockAppealRepository) Create(ctx context.Context, appeal *domain.Appeal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appeals[appeal.ID] = appeal
	return nil
}

func (m *MockAppealRepository) GetByID(ctx context.Context, id string) (*domain.Appeal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	appeal, ok := m.appeals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *appeal
	return &copy, nil
}

func (m *MockAppealRepository) MarkResolved(ctx context.Context, id string, to domain.ResolutionStatus, resolvedBy, resolution string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	appeal, ok := m.appeals[id]
	if !ok {
		return repository.ErrNotFound
	}
	if appeal.Status.Resolved() {
		return repository.ErrConflict
	}
	appeal.Status = to
	appeal.ResolvedBy = resolvedBy
	appeal.Resolution = resolution
	appeal.ResolvedAt = time.Now()
	return nil
}

// ──────────────────────────────────────────────
// MOCK TX RUNNER
// ──────────────────────────────────────────────

// MockTxRunner satisfies repository.TxRunner without transactional isolation:
// the unit of work runs directly against the shared mocks, so writes from a
// failed run are not rolled back.
type MockTxRunner struct {
	Strikes     *MockStrikeRepository
	Suspensions *MockSuspensionRepository
	Drivers     *MockDriverRepository

	// Counters
	RunCallCount int32

	// Error injection
	BeginError  error
	CommitError error
}

// NewMockTxRunner creates a mock transaction runner over the given mocks.
func NewMockTxRunner(strikes *MockStrikeRepository, suspensions *MockSuspensionRepository, drivers *MockDriverRepository) *MockTxRunner {
	return &MockTxRunner{
		Strikes:     strikes,
		Suspensions: suspensions,
		Drivers:     drivers,
	}
}

func (m *MockTxRunner) RunInTx(ctx context.Context, fn func(repos repository.TxRepos) error) error {
	atomic.AddInt32(&m.RunCallCount, 1)
	if m.BeginError != nil {
		return m.BeginError
	}
	if err := fn(repository.TxRepos{
		Strikes:     m.Strikes,
		Suspensions: m.Suspensions,
		Drivers:     m.Drivers,
	}); err != nil {
		return err
	}
	return m.CommitError
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE / STRIKE QUEUE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of the escalation lock store.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) AcquireEscalationLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if expiry, exists := m.locks[driverID]; exists && time.Now().Before(expiry) {
		return false, nil
	}
	m.locks[driverID] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) ReleaseEscalationLock(ctx context.Context, driverID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, driverID)
	return nil
}

// MockStrikeQueue is an in-memory strike candidate queue.
type MockStrikeQueue struct {
	mu         sync.Mutex
	candidates []*domain.StrikeCandidate

	// Error injection
	EnqueueError error
	DequeueError error
}

// NewMockStrikeQueue creates a new mock strike queue.
func NewMockStrikeQueue() *MockStrikeQueue {
	return &MockStrikeQueue{}
}

func (m *MockStrikeQueue) Enqueue(ctx context.Context, candidate *domain.StrikeCandidate) error {
	if m.EnqueueError != nil {
		return m.EnqueueError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates = append(m.candidates, candidate)
	return nil
}

func (m *MockStrikeQueue) Dequeue(ctx context.Context) (*domain.StrikeCandidate, error) {
	if m.DequeueError != nil {
		return nil, m.DequeueError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.candidates) == 0 {
		return nil, nil
	}
	candidate := m.candidates[0]
	m.candidates = m.candidates[1:]
	return candidate, nil
}

func (m *MockStrikeQueue) Len(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.candidates)), nil
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBConstraint = errors.New("mock: unique constraint violation")
	ErrMockTimeout      = errors.New("mock: operation timeout")
)
