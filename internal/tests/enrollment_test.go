package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"metro/internal/service"
)

const testStartingBalance = 100.0

// ──────────────────────────────────────────────
// ENROLLMENT
// ──────────────────────────────────────────────

func TestEnroll_CreatesPlaceholderWithStartingCredit(t *testing.T) {
	t.Parallel()

	userRepo := NewMockUserRepository()
	enrollmentService := service.NewEnrollmentService(userRepo, testStartingBalance)
	ctx := context.Background()

	user, err := enrollmentService.Enroll(ctx, 1001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.FingerprintID != 1001 {
		t.Errorf("expected fingerprint 1001, got %d", user.FingerprintID)
	}
	if user.Balance != testStartingBalance {
		t.Errorf("expected starting balance %v, got %v", testStartingBalance, user.Balance)
	}
	if user.Name != "User 1001" {
		t.Errorf("expected placeholder name, got %q", user.Name)
	}
	if user.Email != "user1001@temp.com" {
		t.Errorf("expected placeholder email, got %q", user.Email)
	}
}

func TestEnroll_DuplicateFingerprintRejected(t *testing.T) {
	t.Parallel()

	userRepo := NewMockUserRepository()
	enrollmentService := service.NewEnrollmentService(userRepo, testStartingBalance)
	ctx := context.Background()

	if _, err := enrollmentService.Enroll(ctx, 1001); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := enrollmentService.Enroll(ctx, 1001)
	if !errors.Is(err, service.ErrFingerprintEnrolled) {
		t.Errorf("expected ErrFingerprintEnrolled, got %v", err)
	}

	// No duplicate record was created.
	if got := userRepo.CreateCallCount; got != 2 {
		t.Errorf("expected 2 create attempts, got %d", got)
	}
	if _, err := userRepo.GetByFingerprint(ctx, 1001); err != nil {
		t.Fatalf("original user should survive: %v", err)
	}
}

func TestEnroll_RejectsNonPositiveFingerprint(t *testing.T) {
	t.Parallel()

	enrollmentService := service.NewEnrollmentService(NewMockUserRepository(), testStartingBalance)

	for _, fp := range []int64{0, -5} {
		if _, err := enrollmentService.Enroll(context.Background(), fp); !errors.Is(err, service.ErrInvalidFingerprintID) {
			t.Errorf("fingerprint %d: expected ErrInvalidFingerprintID, got %v", fp, err)
		}
	}
}

func TestEnroll_LatestEnrolledReturnsNewestPlaceholder(t *testing.T) {
	t.Parallel()

	userRepo := NewMockUserRepository()
	enrollmentService := service.NewEnrollmentService(userRepo, testStartingBalance)
	ctx := context.Background()

	first, err := enrollmentService.Enroll(ctx, 2001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Force distinct registration times.
	first.RegisteredAt = first.RegisteredAt.Add(-time.Minute)
	userRepo.AddUser(first)

	if _, err := enrollmentService.Enroll(ctx, 2002); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	latest, err := enrollmentService.LatestEnrolled(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.FingerprintID != 2002 {
		t.Errorf("expected newest placeholder 2002, got %d", latest.FingerprintID)
	}
}

func TestEnroll_LatestEnrolledIgnoresCompletedProfiles(t *testing.T) {
	t.Parallel()

	userRepo := NewMockUserRepository()
	userService := service.NewUserService(userRepo, nil)
	enrollmentService := service.NewEnrollmentService(userRepo, testStartingBalance)
	ctx := context.Background()

	if _, err := enrollmentService.Enroll(ctx, 3001); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Admin fills in a real identity; the placeholder email is gone.
	if _, err := userService.Upsert(ctx, service.UpsertRequest{
		FingerprintID: 3001,
		Name:          "Asha Rao",
		Email:         "asha@example.com",
		Phone:         "555-0101",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := enrollmentService.LatestEnrolled(ctx); err == nil {
		t.Error("expected no placeholder users after profile completion")
	}
}
