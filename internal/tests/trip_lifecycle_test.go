package tests

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"metro/internal/domain"
	"metro/internal/repository"
	"metro/internal/service"
)

// tripFixture wires a TripService against mocks. There is no database
// handle, so reconciliation runs without a surrounding transaction; the
// completion compare-and-set is what the idempotence tests exercise.
type tripFixture struct {
	userRepo    *MockUserRepository
	tripRepo    *MockTripRepository
	deviceRepo  *MockDeviceRepository
	fareService *service.FareService
	trips       *service.TripService
}

func newTripFixture(t *testing.T) *tripFixture {
	t.Helper()

	userRepo := NewMockUserRepository()
	tripRepo := NewMockTripRepository()
	deviceRepo := NewMockDeviceRepository()
	fareService, _, _ := newFareFixture()
	deviceService := service.NewDeviceService(deviceRepo, nil, "West Junction")

	return &tripFixture{
		userRepo:    userRepo,
		tripRepo:    tripRepo,
		deviceRepo:  deviceRepo,
		fareService: fareService,
		trips:       service.NewTripService(nil, tripRepo, userRepo, fareService, deviceService, nil, nil),
	}
}

func (f *tripFixture) addRider(fingerprintID int64, balance float64) *domain.User {
	user := &domain.User{
		ID:            fmt.Sprintf("user-%d", fingerprintID),
		Name:          "Rider",
		Email:         "rider@example.com",
		FingerprintID: fingerprintID,
		Balance:       balance,
		RegisteredAt:  time.Now(),
	}
	f.userRepo.AddUser(user)
	return user
}

// ──────────────────────────────────────────────
// SOURCE SCAN
// ──────────────────────────────────────────────

func TestSourceScan_CreatesStartedTrip(t *testing.T) {
	t.Parallel()

	f := newTripFixture(t)
	f.addRider(1001, 100)
	ctx := context.Background()

	at := time.Now()
	trip, err := f.trips.OnSourceScan(ctx, 1001, "gate-1", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Status != domain.TripStatusStarted {
		t.Errorf("expected status STARTED, got %s", trip.Status)
	}
	if trip.SourceStation != "West Junction" {
		t.Errorf("expected fallback station West Junction, got %s", trip.SourceStation)
	}
	if !trip.SourceTimestamp.Equal(at) {
		t.Errorf("expected source timestamp %v, got %v", at, trip.SourceTimestamp)
	}
	if trip.DestinationStation != "" {
		t.Error("destination must be unset at source scan")
	}
}

func TestSourceScan_UsesRegisteredDeviceStation(t *testing.T) {
	t.Parallel()

	f := newTripFixture(t)
	f.addRider(1001, 100)
	ctx := context.Background()

	_ = f.deviceRepo.Upsert(ctx, &domain.Device{DeviceID: "gate-7", StationCode: "East Park"})

	trip, err := f.trips.OnSourceScan(ctx, 1001, "gate-7", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.SourceStation != "East Park" {
		t.Errorf("expected station East Park from device registry, got %s", trip.SourceStation)
	}
}

func TestSourceScan_UnknownFingerprintFails(t *testing.T) {
	t.Parallel()

	f := newTripFixture(t)

	_, err := f.trips.OnSourceScan(context.Background(), 9999, "gate-1", time.Now())
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if f.tripRepo.CountTrips() != 0 {
		t.Error("no trip should be created for an unknown rider")
	}
}

func TestSourceScan_SecondOpenTripRejected(t *testing.T) {
	t.Parallel()

	f := newTripFixture(t)
	f.addRider(1001, 100)
	ctx := context.Background()

	if _, err := f.trips.OnSourceScan(ctx, 1001, "gate-1", time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.trips.OnSourceScan(ctx, 1001, "gate-1", time.Now())
	if !errors.Is(err, service.ErrActiveTripExists) {
		t.Errorf("expected ErrActiveTripExists, got %v", err)
	}
	if f.tripRepo.CountTrips() != 1 {
		t.Errorf("expected exactly 1 trip, got %d", f.tripRepo.CountTrips())
	}
}

// ──────────────────────────────────────────────
// DESTINATION BIND + SCAN RECONCILIATION
// ──────────────────────────────────────────────

func TestDestinationScan_CompletesTripAndDebitsFare(t *testing.T) {
	t.Parallel()

	f := newTripFixture(t)
	user := f.addRider(1001, 100)
	ctx := context.Background()

	if _, err := f.fareService.UpsertRule(ctx, service.UpsertRuleRequest{
		SourceStation:      "West Junction",
		DestinationStation: "East Park",
		Fare:               25,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	trip, err := f.trips.OnSourceScan(ctx, 1001, "gate-1", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.trips.BindDestination(ctx, trip.ID, "East Park"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	at := time.Now()
	result, err := f.trips.OnDestinationScan(ctx, 1001, "gate-2", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Fare != 25 {
		t.Errorf("expected fare 25, got %v", result.Fare)
	}
	if result.NewBalance != 75 {
		t.Errorf("expected new balance 75, got %v", result.NewBalance)
	}

	stored := f.tripRepo.GetTrip(trip.ID)
	if stored.Status != domain.TripStatusCompleted {
		t.Errorf("expected status COMPLETED, got %s", stored.Status)
	}
	if stored.DestinationTimestamp.IsZero() {
		t.Error("destination timestamp must be set")
	}
	if got := f.userRepo.GetUser(user.ID).Balance; got != 75 {
		t.Errorf("expected persisted balance 75, got %v", got)
	}
}

func TestDestinationScan_UnboundDestinationChargesDefaultFare(t *testing.T) {
	t.Parallel()

	f := newTripFixture(t)
	f.addRider(1001, 100)
	ctx := context.Background()

	if _, err := f.trips.OnSourceScan(ctx, 1001, "gate-1", time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// No destination was ever bound; no rule can match.
	result, err := f.trips.OnDestinationScan(ctx, 1001, "gate-2", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Fare != testDefaultFare {
		t.Errorf("expected default fare %v, got %v", testDefaultFare, result.Fare)
	}
}

func TestDestinationScan_ChargesBoundDestinationNotScanStation(t *testing.T) {
	t.Parallel()

	f := newTripFixture(t)
	f.addRider(1001, 100)
	ctx := context.Background()

	if _, err := f.fareService.UpsertRule(ctx, service.UpsertRuleRequest{
		SourceStation:      "West Junction",
		DestinationStation: "East Park",
		Fare:               25,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	trip, err := f.trips.OnSourceScan(ctx, 1001, "gate-1", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.trips.BindDestination(ctx, trip.ID, "East Park"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The exit reader sits at Central, but the rider is charged for the
	// destination they bound.
	_ = f.deviceRepo.Upsert(ctx, &domain.Device{DeviceID: "gate-9", StationCode: "Central"})

	result, err := f.trips.OnDestinationScan(ctx, 1001, "gate-9", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Fare != 25 {
		t.Errorf("expected bound-destination fare 25, got %v", result.Fare)
	}
}

func TestDestinationScan_NoOpenTripFails(t *testing.T) {
	t.Parallel()

	f := newTripFixture(t)
	user := f.addRider(1001, 100)

	_, err := f.trips.OnDestinationScan(context.Background(), 1001, "gate-2", time.Now())
	if !errors.Is(err, service.ErrNoActiveTrip) {
		t.Errorf("expected ErrNoActiveTrip, got %v", err)
	}

	// No balance mutation happened.
	if got := f.userRepo.GetUser(user.ID).Balance; got != 100 {
		t.Errorf("expected untouched balance 100, got %v", got)
	}
	if f.userRepo.AdjustBalanceCallCount != 0 {
		t.Errorf("expected no debit attempts, got %d", f.userRepo.AdjustBalanceCallCount)
	}
}

func TestDestinationScan_ReplayDoesNotDoubleDebit(t *testing.T) {
	t.Parallel()

	f := newTripFixture(t)
	user := f.addRider(1001, 100)
	ctx := context.Background()

	if _, err := f.trips.OnSourceScan(ctx, 1001, "gate-1", time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.trips.OnDestinationScan(ctx, 1001, "gate-2", time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Redelivered scan event: the trip is no longer STARTED.
	_, err := f.trips.OnDestinationScan(ctx, 1001, "gate-2", time.Now())
	if !errors.Is(err, service.ErrNoActiveTrip) && !errors.Is(err, service.ErrTripAlreadyCompleted) {
		t.Errorf("expected replay rejection, got %v", err)
	}

	if got := f.userRepo.GetUser(user.ID).Balance; got != 100-testDefaultFare {
		t.Errorf("expected single debit, balance %v, got %v", 100-testDefaultFare, got)
	}
	if f.userRepo.AdjustBalanceCallCount != 1 {
		t.Errorf("expected exactly 1 debit, got %d", f.userRepo.AdjustBalanceCallCount)
	}
}

func TestBindDestination_UnknownTripFails(t *testing.T) {
	t.Parallel()

	f := newTripFixture(t)

	_, err := f.trips.BindDestination(context.Background(), "no-such-trip", "East Park")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// ──────────────────────────────────────────────
// HISTORY + ACTIVE LOOKUPS
// ──────────────────────────────────────────────

func TestListTrips_NewestFirstWithCap(t *testing.T) {
	t.Parallel()

	f := newTripFixture(t)
	user := f.addRider(1001, 100)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 60; i++ {
		f.tripRepo.AddTrip(&domain.Trip{
			ID:              fmt.Sprintf("trip-%d", i),
			UserID:          user.ID,
			FingerprintID:   1001,
			SourceStation:   "West Junction",
			SourceTimestamp: base.Add(time.Duration(i) * time.Minute),
			Status:          domain.TripStatusCompleted,
		})
	}

	trips, err := f.trips.ListTrips(ctx, 1001, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(trips) != 50 {
		t.Errorf("expected history capped at 50, got %d", len(trips))
	}
	for i := 1; i < len(trips); i++ {
		if trips[i].SourceTimestamp.After(trips[i-1].SourceTimestamp) {
			t.Fatal("trips must be ordered newest first")
		}
	}
}

func TestGetActiveTrip_ReturnsNewestStarted(t *testing.T) {
	t.Parallel()

	f := newTripFixture(t)
	f.addRider(1001, 100)
	ctx := context.Background()

	trip, err := f.trips.OnSourceScan(ctx, 1001, "gate-1", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active, err := f.trips.GetActiveTrip(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active.ID != trip.ID {
		t.Errorf("expected active trip %s, got %s", trip.ID, active.ID)
	}
}

// ──────────────────────────────────────────────
// EXPIRY SWEEP
// ──────────────────────────────────────────────

func TestExpiry_CancelsOnlyStaleStartedTrips(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	expiry := service.NewExpiryService(tripRepo, nil, 2*time.Hour, time.Minute)

	tripRepo.AddTrip(&domain.Trip{
		ID:              "stale",
		UserID:          "u1",
		Status:          domain.TripStatusStarted,
		SourceTimestamp: time.Now().Add(-3 * time.Hour),
	})
	tripRepo.AddTrip(&domain.Trip{
		ID:              "fresh",
		UserID:          "u2",
		Status:          domain.TripStatusStarted,
		SourceTimestamp: time.Now().Add(-10 * time.Minute),
	})
	tripRepo.AddTrip(&domain.Trip{
		ID:              "done",
		UserID:          "u3",
		Status:          domain.TripStatusCompleted,
		SourceTimestamp: time.Now().Add(-4 * time.Hour),
	})

	cancelled, err := expiry.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled != 1 {
		t.Errorf("expected 1 cancelled trip, got %d", cancelled)
	}

	if got := tripRepo.GetTrip("stale").Status; got != domain.TripStatusCancelled {
		t.Errorf("stale trip: expected CANCELLED, got %s", got)
	}
	if got := tripRepo.GetTrip("fresh").Status; got != domain.TripStatusStarted {
		t.Errorf("fresh trip: expected STARTED, got %s", got)
	}
	if got := tripRepo.GetTrip("done").Status; got != domain.TripStatusCompleted {
		t.Errorf("completed trip: expected COMPLETED, got %s", got)
	}
}

// ──────────────────────────────────────────────
// END TO END
// ──────────────────────────────────────────────

func TestEndToEnd_EnrollRideDebit(t *testing.T) {
	t.Parallel()

	f := newTripFixture(t)
	enrollmentService := service.NewEnrollmentService(f.userRepo, 100)
	ctx := context.Background()

	// Enroll fingerprint 1001 with the starting credit.
	user, err := enrollmentService.Enroll(ctx, 1001)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if user.Balance != 100 {
		t.Fatalf("expected starting balance 100, got %v", user.Balance)
	}

	// Admin prices West Junction -> East Park at 25.
	if _, err := f.fareService.UpsertRule(ctx, service.UpsertRuleRequest{
		SourceStation:      "West Junction",
		DestinationStation: "East Park",
		Fare:               25,
	}); err != nil {
		t.Fatalf("fare rule: %v", err)
	}

	// Rider taps in at West Junction.
	trip, err := f.trips.OnSourceScan(ctx, 1001, "gate-1", time.Now())
	if err != nil {
		t.Fatalf("source scan: %v", err)
	}
	if trip.Status != domain.TripStatusStarted {
		t.Fatalf("expected STARTED, got %s", trip.Status)
	}

	// Rider picks East Park on the dashboard.
	if _, err := f.trips.BindDestination(ctx, trip.ID, "East Park"); err != nil {
		t.Fatalf("bind destination: %v", err)
	}

	// Rider taps out.
	result, err := f.trips.OnDestinationScan(ctx, 1001, "gate-2", time.Now())
	if err != nil {
		t.Fatalf("destination scan: %v", err)
	}

	if result.Fare != 25 {
		t.Errorf("expected fare 25, got %v", result.Fare)
	}
	if result.NewBalance != 75 {
		t.Errorf("expected new balance 75, got %v", result.NewBalance)
	}
	if got := f.tripRepo.GetTrip(trip.ID).Status; got != domain.TripStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", got)
	}
}
