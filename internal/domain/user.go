package domain

import "time"

// User represents a rider identified by an enrolled fingerprint template.
// A user starts life as a placeholder record created at enrollment time and
// is later filled in with real identity fields by an administrator.
type User struct {
	ID            string
	Name          string
	Email         string
	Phone         string
	FingerprintID int64
	Balance       float64
	RegisteredAt  time.Time
	LastUpdated   time.Time
}
