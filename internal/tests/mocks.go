package tests

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"metro/internal/domain"
	"metro/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// Counters for verification
	CreateCallCount        int32
	AdjustBalanceCallCount int32

	// Error injection
	CreateError        error
	AdjustBalanceError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.FingerprintID == user.FingerprintID || u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByFingerprint(ctx context.Context, fingerprintID int64) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.FingerprintID == fingerprintID {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetLatestPlaceholder(ctx context.Context) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *domain.User
	for _, u := range m.users {
		if !strings.HasSuffix(u.Email, "@temp.com") {
			continue
		}
		if latest == nil || u.RegisteredAt.After(latest.RegisteredAt) {
			latest = u
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	copy := *latest
	return &copy, nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, u := range m.users {
		if u.ID != user.ID && u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	*existing = *user
	return nil
}

func (m *MockUserRepository) AdjustBalance(ctx context.Context, id string, delta float64) (float64, error) {
	atomic.AddInt32(&m.AdjustBalanceCallCount, 1)
	if m.AdjustBalanceError != nil {
		return 0, m.AdjustBalanceError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	user.Balance += delta
	user.LastUpdated = time.Now()
	return user.Balance, nil
}

// GetUser returns the user by ID (for test assertions).
func (m *MockUserRepository) GetUser(id string) *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[id]
}

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters for verification
	CreateCallCount   int32
	CompleteCallCount int32

	// Error injection
	CreateError   error
	CompleteError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

func (m *MockTripRepository) CreateStarted(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.trips {
		if t.UserID == trip.UserID && t.Status == domain.TripStatusStarted {
			return repository.ErrDuplicate
		}
	}
	trip.Status = domain.TripStatusStarted
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

func (m *MockTripRepository) GetLatestStarted(ctx context.Context) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *domain.Trip
	for _, t := range m.trips {
		if t.Status != domain.TripStatusStarted {
			continue
		}
		if latest == nil || t.SourceTimestamp.After(latest.SourceTimestamp) {
			latest = t
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	copy := *latest
	return &copy, nil
}

func (m *MockTripRepository) GetLatestStartedByUser(ctx context.Context, userID string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *domain.Trip
	for _, t := range m.trips {
		if t.UserID != userID || t.Status != domain.TripStatusStarted {
			continue
		}
		if latest == nil || t.SourceTimestamp.After(latest.SourceTimestamp) {
			latest = t
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	copy := *latest
	return &copy, nil
}

func (m *MockTripRepository) ListByFingerprint(ctx context.Context, fingerprintID int64, limit int) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var trips []*domain.Trip
	for _, t := range m.trips {
		if t.FingerprintID == fingerprintID {
			copy := *t
			trips = append(trips, &copy)
		}
	}
	sort.Slice(trips, func(i, j int) bool {
		return trips[i].SourceTimestamp.After(trips[j].SourceTimestamp)
	})
	if len(trips) > limit {
		trips = trips[:limit]
	}
	return trips, nil
}

func (m *MockTripRepository) SetDestination(ctx context.Context, tripID, station string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return repository.ErrNotFound
	}
	trip.DestinationStation = station
	return nil
}

func (m *MockTripRepository) Complete(ctx context.Context, tripID string, fare float64, at time.Time) error {
	atomic.AddInt32(&m.CompleteCallCount, 1)
	if m.CompleteError != nil {
		return m.CompleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok || trip.Status != domain.TripStatusStarted {
		return repository.ErrNotFound
	}
	trip.Status = domain.TripStatusCompleted
	trip.Fare = fare
	trip.DestinationTimestamp = at
	return nil
}

func (m *MockTripRepository) CancelStale(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var cancelled int64
	for _, t := range m.trips {
		if t.Status == domain.TripStatusStarted && t.SourceTimestamp.Before(cutoff) {
			t.Status = domain.TripStatusCancelled
			cancelled++
		}
	}
	return cancelled, nil
}

// GetTrip returns the trip by ID (for test assertions).
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

// CountTrips returns the number of stored trips.
func (m *MockTripRepository) CountTrips() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

// ──────────────────────────────────────────────
// MOCK COMMAND REPOSITORY
// ──────────────────────────────────────────────

// MockCommandRepository is a mock implementation of CommandRepository.
// DequeueNext holds the write lock for the whole select-and-mark step,
// mirroring the single-statement atomicity of the real store.
type MockCommandRepository struct {
	mu       sync.Mutex
	commands []*domain.DeviceCommand

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError  error
	DequeueError error
}

// NewMockCommandRepository creates a new mock command repository.
func NewMockCommandRepository() *MockCommandRepository {
	return &MockCommandRepository{}
}

func (m *MockCommandRepository) Create(ctx context.Context, cmd *domain.DeviceCommand) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *cmd
	m.commands = append(m.commands, &copy)
	return nil
}

func (m *MockCommandRepository) DequeueNext(ctx context.Context, deviceID string) (*domain.DeviceCommand, error) {
	if m.DequeueError != nil {
		return nil, m.DequeueError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var oldest *domain.DeviceCommand
	for _, c := range m.commands {
		if c.DeviceID != deviceID || c.Processed {
			continue
		}
		if oldest == nil || c.CreatedAt.Before(oldest.CreatedAt) {
			oldest = c
		}
	}
	if oldest == nil {
		return nil, repository.ErrNotFound
	}
	oldest.Processed = true
	copy := *oldest
	return &copy, nil
}

func (m *MockCommandRepository) CountPending(ctx context.Context, deviceID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, c := range m.commands {
		if c.DeviceID == deviceID && !c.Processed {
			count++
		}
	}
	return count, nil
}

// ──────────────────────────────────────────────
// MOCK STATION REPOSITORY
// ──────────────────────────────────────────────

// MockStationRepository is a mock implementation of StationRepository.
type MockStationRepository struct {
	mu       sync.RWMutex
	stations map[string]*domain.Station
}

// NewMockStationRepository creates a new mock station repository.
func NewMockStationRepository() *MockStationRepository {
	return &MockStationRepository{
		stations: make(map[string]*domain.Station),
	}
}

// AddStation adds a station to the mock repository.
func (m *MockStationRepository) AddStation(station *domain.Station) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stations[station.Code] = station
}

func (m *MockStationRepository) Create(ctx context.Context, station *domain.Station) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.stations {
		if s.Code == station.Code || s.Name == station.Name {
			return repository.ErrDuplicate
		}
	}
	m.stations[station.Code] = station
	return nil
}

func (m *MockStationRepository) GetByCode(ctx context.Context, code string) (*domain.Station, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	station, ok := m.stations[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *station
	return &copy, nil
}

func (m *MockStationRepository) GetAll(ctx context.Context) ([]*domain.Station, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Station, 0, len(m.stations))
	for _, s := range m.stations {
		copy := *s
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK FARE REPOSITORY
// ──────────────────────────────────────────────

// MockFareRepository is a mock implementation of FareRepository.
type MockFareRepository struct {
	mu    sync.RWMutex
	rules map[string]*domain.FareRule

	// Counters for verification
	CreateCallCount int32
}

// NewMockFareRepository creates a new mock fare repository.
func NewMockFareRepository() *MockFareRepository {
	return &MockFareRepository{
		rules: make(map[string]*domain.FareRule),
	}
}

func fareKey(source, destination string) string {
	return source + "→" + destination
}

func (m *MockFareRepository) Create(ctx context.Context, rule *domain.FareRule) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fareKey(rule.SourceStation, rule.DestinationStation)
	if _, ok := m.rules[key]; ok {
		return repository.ErrDuplicate
	}
	copy := *rule
	m.rules[key] = &copy
	return nil
}

func (m *MockFareRepository) GetByPair(ctx context.Context, source, destination string) (*domain.FareRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rule, ok := m.rules[fareKey(source, destination)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *rule
	return &copy, nil
}

func (m *MockFareRepository) UpdateFare(ctx context.Context, id string, fare float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rules {
		if r.ID == id {
			r.Fare = fare
			return nil
		}
	}
	return repository.ErrNotFound
}

// ──────────────────────────────────────────────
// MOCK DEVICE REPOSITORY
// ──────────────────────────────────────────────

// MockDeviceRepository is a mock implementation of DeviceRepository.
type MockDeviceRepository struct {
	mu      sync.RWMutex
	devices map[string]*domain.Device
}

// NewMockDeviceRepository creates a new mock device repository.
func NewMockDeviceRepository() *MockDeviceRepository {
	return &MockDeviceRepository{
		devices: make(map[string]*domain.Device),
	}
}

func (m *MockDeviceRepository) Upsert(ctx context.Context, device *domain.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *device
	m.devices[device.DeviceID] = &copy
	return nil
}

func (m *MockDeviceRepository) GetByID(ctx context.Context, deviceID string) (*domain.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	device, ok := m.devices[deviceID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *device
	return &copy, nil
}

// Interface guards.
var (
	_ repository.UserRepository    = (*MockUserRepository)(nil)
	_ repository.TripRepository    = (*MockTripRepository)(nil)
	_ repository.CommandRepository = (*MockCommandRepository)(nil)
	_ repository.StationRepository = (*MockStationRepository)(nil)
	_ repository.FareRepository    = (*MockFareRepository)(nil)
	_ repository.DeviceRepository  = (*MockDeviceRepository)(nil)
)
