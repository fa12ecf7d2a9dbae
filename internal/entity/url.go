// Package entity defines the entities and errors used in the application.
// It includes the URLRecord struct, which represents a shortened URL together
// with its expiration and click analytics, and the error values shared between
// layers.
package entity

import (
	"errors"
	"time"
)

var (
	// ErrURLNotFound is returned when no record with the requested short code exists.
	ErrURLNotFound = errors.New("url not found")
	// ErrURLExpired is returned by the redirect flow when expired records are blocked.
	ErrURLExpired = errors.New("url expired")
	// ErrSlotEmpty is returned by a slot when nothing has been stored under the key yet.
	ErrSlotEmpty = errors.New("slot is empty")
	// ErrSlotUnavailable is returned when a slot could not be read for a
	// read-modify-write cycle.
	ErrSlotUnavailable = errors.New("slot unavailable")
)

// DefaultClickSource is recorded when the visitor came without a referrer.
const DefaultClickSource = "direct"

// UnknownLocation is recorded when the visitor location cannot be determined.
const UnknownLocation = "Unknown"

// URLRecord represents a shortened URL.
type URLRecord struct {
	LongURL   string       // LongURL is the redirect target.
	ShortCode string       // ShortCode is the unique path segment; immutable once created.
	CreatedAt time.Time    // CreatedAt is the creation instant.
	ExpiresAt time.Time    // ExpiresAt is CreatedAt plus the validity period.
	Clicks    int64        // Clicks is the number of resolved redirects.
	ClickData []ClickEvent // ClickData is the append-only log of resolved redirects.
}

// ClickEvent is one resolved redirect recorded against a record.
type ClickEvent struct {
	Timestamp time.Time
	Source    string
	Location  string
}

// IsExpired reports whether the record is past its expiration instant.
// A record expiring exactly at now is still active.
func IsExpired(record URLRecord, now time.Time) bool {
	return now.After(record.ExpiresAt)
}

// Clone returns a deep copy of the record so that appending clicks to the copy
// never touches the backing array of the original.
func (r URLRecord) Clone() URLRecord {
	clicks := make([]ClickEvent, len(r.ClickData))
	copy(clicks, r.ClickData)
	r.ClickData = clicks
	return r
}

// CloneRecords deep-copies a record sequence preserving order.
func CloneRecords(records []URLRecord) []URLRecord {
	out := make([]URLRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// Report is a record together with its status at the time it was read.
type Report struct {
	URLRecord
	Expired bool
}

// NewReport builds a Report for the record as observed at now.
func NewReport(record URLRecord, now time.Time) Report {
	return Report{
		URLRecord: record,
		Expired:   IsExpired(record, now),
	}
}
