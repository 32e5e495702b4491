package attendance

import "errors"

// Attendance domain errors
var (
	// Policy errors
	ErrAlreadyCheckedIn      = errors.New("you have already checked in today")
	ErrAlreadyCheckedOut     = errors.New("you have already checked out today")
	ErrCheckOutBeforeCheckIn = errors.New("you have not checked in yet")
	ErrCheckOutTooEarly      = errors.New("check-out opens at 16:00")
	ErrOutsideOfficeRadius   = errors.New("you are outside the office radius")
	ErrInvalidKind           = errors.New("unknown attendance type")

	// General errors
	ErrRecordNotFound = errors.New("attendance record not found")
)
