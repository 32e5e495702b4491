package attendance

import "context"

type AttendanceRepository interface {
	// Create inserts a record. A unique-constraint conflict on
	// (user_id, date, kind) surfaces as ErrAlreadyCheckedIn or
	// ErrAlreadyCheckedOut depending on the record kind.
	Create(ctx context.Context, record Record) (Record, error)

	// ListByUserAndDate returns a user's records for one local calendar
	// date (YYYY-MM-DD), oldest first.
	ListByUserAndDate(ctx context.Context, userID string, date string) ([]Record, error)

	// ListByUser returns a user's history with pagination.
	ListByUser(ctx context.Context, userID string, filter MyFilter) ([]Record, int64, error)

	// List returns all users' records with user join fields.
	List(ctx context.Context, filter Filter) ([]Record, int64, error)

	// TodayStats aggregates the head-count for one local date.
	TodayStats(ctx context.Context, date string) (Stats, error)

	// MissingCheckOuts lists users with a check-in but no check-out for
	// the given local date.
	MissingCheckOuts(ctx context.Context, date string) ([]MissingCheckOut, error)
}
