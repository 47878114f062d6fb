package domain

import "time"

// CommandKind represents the instruction queued for a reader. The enum is
// open: firmware ignores kinds it does not understand.
type CommandKind string

const (
	CommandKindEnroll      CommandKind = "ENROLL"
	CommandKindSource      CommandKind = "SOURCE"
	CommandKindDestination CommandKind = "DESTINATION"
)

// DeviceCommand is a unit of work addressed to one physical reader.
// Processed is monotonic: once true it never reverts, and a command is
// delivered to at most one poll response.
type DeviceCommand struct {
	ID        string
	DeviceID  string
	Command   CommandKind
	Processed bool
	CreatedAt time.Time
}
