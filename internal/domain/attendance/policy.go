package attendance

import "time"

// Default policy cutoffs, in local wall-clock time.
const (
	LateCutoffHour   = 7
	LateCutoffMinute = 40

	CheckOutOpenHour = 16

	CheckOutDeadlineHour   = 16
	CheckOutDeadlineMinute = 10
)

// Policy holds the time-of-day rules for one office. All comparisons are made
// in Location; the policy never reads the ambient local zone. The zero value
// is not usable, construct with NewPolicy.
type Policy struct {
	Location *time.Location
}

func NewPolicy(loc *time.Location) Policy {
	if loc == nil {
		loc = time.UTC
	}
	return Policy{Location: loc}
}

// ClassifyCheckIn reports whether a check-in at the given instant is late.
// On-time runs through 07:40:00 inclusive; one second past is late.
func (p Policy) ClassifyCheckIn(now time.Time) bool {
	local := now.In(p.Location)
	cutoff := time.Date(local.Year(), local.Month(), local.Day(),
		LateCutoffHour, LateCutoffMinute, 0, 0, p.Location)
	return local.After(cutoff)
}

// CanCheckOut reports whether check-out is open at the given instant.
func (p Policy) CanCheckOut(now time.Time) bool {
	return now.In(p.Location).Hour() >= CheckOutOpenHour
}

// CheckOutDeadline returns the 16:10 deadline for the calendar day containing
// t. Employees still checked in past this instant are flagged by the sweep
// job.
func (p Policy) CheckOutDeadline(t time.Time) time.Time {
	local := t.In(p.Location)
	return time.Date(local.Year(), local.Month(), local.Day(),
		CheckOutDeadlineHour, CheckOutDeadlineMinute, 0, 0, p.Location)
}

// SameDay reports whether a and b fall on the same calendar date in the
// policy's location.
func (p Policy) SameDay(a, b time.Time) bool {
	al := a.In(p.Location)
	bl := b.In(p.Location)
	ay, am, ad := al.Date()
	by, bm, bd := bl.Date()
	return ay == by && am == bm && ad == bd
}

// EvaluateAction runs the daily state machine for one user. today must hold
// the user's records for the current local day; kind is the requested action.
// On success it returns a new Record carrying the timestamp and, for
// check-ins, the lateness flag. The caller fills in identity, location, and
// photo fields before persisting.
//
// A late arrival is still a valid check-in: time of day never blocks
// check-in, it only sets the flag. Check-out additionally requires an earlier
// check-in on the same day and the 16:00 gate.
func (p Policy) EvaluateAction(today []Record, kind Kind, now time.Time) (Record, error) {
	if !kind.Valid() {
		return Record{}, ErrInvalidKind
	}

	var hasCheckIn, hasCheckOut bool
	for _, r := range today {
		switch r.Kind {
		case KindCheckIn:
			hasCheckIn = true
		case KindCheckOut:
			hasCheckOut = true
		}
	}

	// A checked-out day is terminal: every further action reports the day
	// as already completed, regardless of kind.
	switch kind {
	case KindCheckIn:
		if hasCheckOut {
			return Record{}, ErrAlreadyCheckedOut
		}
		if hasCheckIn {
			return Record{}, ErrAlreadyCheckedIn
		}
		return Record{
			Kind:      KindCheckIn,
			Timestamp: now,
			IsLate:    p.ClassifyCheckIn(now),
		}, nil

	case KindCheckOut:
		if hasCheckOut {
			return Record{}, ErrAlreadyCheckedOut
		}
		if !hasCheckIn {
			return Record{}, ErrCheckOutBeforeCheckIn
		}
		if !p.CanCheckOut(now) {
			return Record{}, ErrCheckOutTooEarly
		}
		return Record{
			Kind:      KindCheckOut,
			Timestamp: now,
		}, nil
	}

	return Record{}, ErrInvalidKind
}
