package telemetry

import "time"

// ErrorRecord is a telemetry string that failed format validation.
type ErrorRecord struct {
	Data string `json:"data"`
}

// APIKeyRecord holds the bcrypt hash of an API key and when it stops being valid.
type APIKeyRecord struct {
	Data                string    `json:"data"`
	ExpirationTimestamp time.Time `json:"expirationTimestamp"`
}

// Expired reports whether the key is no longer valid at now.
// A key whose expiration equals now is expired.
func (r APIKeyRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpirationTimestamp)
}

// Record is the closed set of record types that have a cache namespace.
type Record interface {
	ErrorRecord | APIKeyRecord
}
