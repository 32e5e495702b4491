package attendance

import "time"

// Kind distinguishes the two record types. The wire strings are hyphenated
// to match the frontend payloads.
type Kind string

const (
	KindCheckIn  Kind = "check-in"
	KindCheckOut Kind = "check-out"
)

// Valid reports whether k is a known record kind.
func (k Kind) Valid() bool {
	return k == KindCheckIn || k == KindCheckOut
}

// Record is one attendance event. Records are immutable after creation:
// corrections are made by administrators out of band, never by rewriting
// history. IsLate is always false for check-outs.
type Record struct {
	ID        string
	UserID    string
	Kind      Kind
	Timestamp time.Time
	// LocalDate is the calendar date (YYYY-MM-DD) in the office timezone.
	// It drives the one-check-in-per-day uniqueness constraint.
	LocalDate string
	IsLate    bool
	Latitude  float64
	Longitude float64
	PhotoURL  *string
	CreatedAt time.Time

	// Join fields, populated by list queries
	UserFullName *string
	UserEmail    *string
}
