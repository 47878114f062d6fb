package tests

import (
	"context"
	"errors"
	"testing"

	"metro/internal/domain"
	"metro/internal/repository"
	"metro/internal/service"
)

const testDefaultFare = 20.0

func newFareFixture() (*service.FareService, *MockFareRepository, *MockStationRepository) {
	fareRepo := NewMockFareRepository()
	stationRepo := NewMockStationRepository()
	stationRepo.AddStation(&domain.Station{ID: "st-1", Name: "West Junction", Code: "West Junction"})
	stationRepo.AddStation(&domain.Station{ID: "st-2", Name: "East Park", Code: "East Park"})
	stationRepo.AddStation(&domain.Station{ID: "st-3", Name: "Central", Code: "Central"})
	return service.NewFareService(fareRepo, stationRepo, testDefaultFare), fareRepo, stationRepo
}

// ──────────────────────────────────────────────
// FARE RESOLUTION
// ──────────────────────────────────────────────

func TestFare_ResolveExactRule(t *testing.T) {
	t.Parallel()

	fareService, _, _ := newFareFixture()
	ctx := context.Background()

	if _, err := fareService.UpsertRule(ctx, service.UpsertRuleRequest{
		SourceStation:      "West Junction",
		DestinationStation: "East Park",
		Fare:               25,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fare, err := fareService.Resolve(ctx, "West Junction", "East Park")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fare != 25 {
		t.Errorf("expected fare 25, got %v", fare)
	}
}

func TestFare_ResolveFallsBackToDefault(t *testing.T) {
	t.Parallel()

	fareService, _, _ := newFareFixture()

	fare, err := fareService.Resolve(context.Background(), "West Junction", "Nowhere")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fare != testDefaultFare {
		t.Errorf("expected default fare %v, got %v", testDefaultFare, fare)
	}
}

// ──────────────────────────────────────────────
// FARE RULE UPSERT + REVERSE BACKFILL
// ──────────────────────────────────────────────

func TestFare_CreateBackfillsReverseDirection(t *testing.T) {
	t.Parallel()

	fareService, _, _ := newFareFixture()
	ctx := context.Background()

	if _, err := fareService.UpsertRule(ctx, service.UpsertRuleRequest{
		SourceStation:      "West Junction",
		DestinationStation: "East Park",
		Fare:               30,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reverse, err := fareService.Resolve(ctx, "East Park", "West Junction")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reverse != 30 {
		t.Errorf("expected backfilled reverse fare 30, got %v", reverse)
	}
}

func TestFare_UpdateDoesNotTouchReverse(t *testing.T) {
	t.Parallel()

	fareService, _, _ := newFareFixture()
	ctx := context.Background()

	if _, err := fareService.UpsertRule(ctx, service.UpsertRuleRequest{
		SourceStation:      "West Junction",
		DestinationStation: "East Park",
		Fare:               30,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Update one direction only.
	if _, err := fareService.UpsertRule(ctx, service.UpsertRuleRequest{
		SourceStation:      "West Junction",
		DestinationStation: "East Park",
		Fare:               40,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	forward, _ := fareService.Resolve(ctx, "West Junction", "East Park")
	reverse, _ := fareService.Resolve(ctx, "East Park", "West Junction")

	if forward != 40 {
		t.Errorf("expected updated fare 40, got %v", forward)
	}
	if reverse != 30 {
		t.Errorf("expected reverse fare to stay 30, got %v", reverse)
	}
}

func TestFare_NoBackfillWhenReverseExists(t *testing.T) {
	t.Parallel()

	fareService, fareRepo, _ := newFareFixture()
	ctx := context.Background()

	if _, err := fareService.UpsertRule(ctx, service.UpsertRuleRequest{
		SourceStation:      "East Park",
		DestinationStation: "West Junction",
		Fare:               15,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	created := fareRepo.CreateCallCount

	// Creating the forward rule must not overwrite the existing reverse.
	if _, err := fareService.UpsertRule(ctx, service.UpsertRuleRequest{
		SourceStation:      "West Junction",
		DestinationStation: "East Park",
		Fare:               35,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fareRepo.CreateCallCount != created+1 {
		t.Errorf("expected exactly one new rule, got %d new creates", fareRepo.CreateCallCount-created)
	}

	reverse, _ := fareService.Resolve(ctx, "East Park", "West Junction")
	if reverse != 15 {
		t.Errorf("expected reverse fare to stay 15, got %v", reverse)
	}
}

func TestFare_NoReverseForSameStationPair(t *testing.T) {
	t.Parallel()

	fareService, fareRepo, _ := newFareFixture()
	ctx := context.Background()

	if _, err := fareService.UpsertRule(ctx, service.UpsertRuleRequest{
		SourceStation:      "Central",
		DestinationStation: "Central",
		Fare:               5,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fareRepo.CreateCallCount != 1 {
		t.Errorf("expected a single rule for a same-station pair, got %d creates", fareRepo.CreateCallCount)
	}
}

func TestFare_UpsertRejectsUnknownStations(t *testing.T) {
	t.Parallel()

	fareService, _, _ := newFareFixture()

	_, err := fareService.UpsertRule(context.Background(), service.UpsertRuleRequest{
		SourceStation:      "West Junction",
		DestinationStation: "Ghost Town",
		Fare:               10,
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown station, got %v", err)
	}
}

func TestFare_UpsertRejectsNegativeFare(t *testing.T) {
	t.Parallel()

	fareService, _, _ := newFareFixture()

	_, err := fareService.UpsertRule(context.Background(), service.UpsertRuleRequest{
		SourceStation:      "West Junction",
		DestinationStation: "East Park",
		Fare:               -1,
	})
	if !errors.Is(err, service.ErrInvalidFareAmount) {
		t.Errorf("expected ErrInvalidFareAmount, got %v", err)
	}
}
