package domain

import "time"

// Device is a registered fingerprint reader and the station it is
// installed at. Verification events resolve their station through this
// mapping rather than a per-gate constant.
type Device struct {
	DeviceID     string
	StationCode  string
	RegisteredAt time.Time
}
