package domain

import "time"

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusStarted   TripStatus = "STARTED"
	TripStatusCompleted TripStatus = "COMPLETED"
	TripStatusCancelled TripStatus = "CANCELLED"
)

// Trip represents one journey attempt, from source scan to destination
// scan and fare debit. FingerprintID is denormalized from the owning user
// for fast history lookup.
type Trip struct {
	ID                   string
	UserID               string
	FingerprintID        int64
	SourceStation        string
	DestinationStation   string
	Fare                 float64
	SourceTimestamp      time.Time
	DestinationTimestamp time.Time
	Status               TripStatus
}
