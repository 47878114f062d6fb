package service

import "errors"

var (
	// ErrInvalidFingerprintID is returned when a fingerprint id is not a
	// positive integer.
	ErrInvalidFingerprintID = errors.New("invalid fingerprint id")

	// ErrInvalidDeviceID is returned when a device id is empty.
	ErrInvalidDeviceID = errors.New("invalid device id")

	// ErrInvalidTripID is returned when a trip id is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidStation is returned when a station name or code is empty.
	ErrInvalidStation = errors.New("invalid station")

	// ErrInvalidFareAmount is returned when a fare is negative.
	ErrInvalidFareAmount = errors.New("invalid fare amount")

	// ErrInvalidAmount is returned when a balance top-up amount is not
	// positive.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidCommandKind is returned when a command kind is empty.
	ErrInvalidCommandKind = errors.New("invalid command kind")

	// ErrInvalidVerificationKind is returned when a verification event is
	// neither a source nor a destination scan.
	ErrInvalidVerificationKind = errors.New("invalid verification kind")

	// ErrFingerprintEnrolled is returned when enrolling a fingerprint id
	// that already has a backend identity.
	ErrFingerprintEnrolled = errors.New("fingerprint already enrolled")

	// ErrActiveTripExists is returned when a source scan arrives while the
	// rider still has an open trip.
	ErrActiveTripExists = errors.New("rider already has an open trip")

	// ErrNoActiveTrip is returned when a destination scan has no STARTED
	// trip to reconcile against.
	ErrNoActiveTrip = errors.New("no active trip found")

	// ErrTripAlreadyCompleted is returned when a destination scan loses the
	// completion compare-and-set to an earlier delivery of the same event.
	ErrTripAlreadyCompleted = errors.New("trip already completed")

	// ErrScanInProgress is returned when another verification for the same
	// rider is still being reconciled.
	ErrScanInProgress = errors.New("verification already in progress")

	// ErrStationExists is returned when creating a station whose name or
	// code is already taken.
	ErrStationExists = errors.New("station already exists")

	// ErrEmailTaken is returned when an admin update would reuse another
	// rider's email.
	ErrEmailTaken = errors.New("email already in use")
)
