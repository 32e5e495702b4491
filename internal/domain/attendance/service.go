package attendance

import "context"

type AttendanceService interface {
	// Submit records a check-in or check-out for the authenticated user.
	Submit(ctx context.Context, req SubmitRequest) (RecordResponse, error)

	// GetToday returns the authenticated user's records for the current
	// local day plus the available actions.
	GetToday(ctx context.Context) (TodayResponse, error)

	// GetMyAttendance returns the authenticated user's history.
	GetMyAttendance(ctx context.Context, filter MyFilter) (ListResponse, error)

	// List returns all users' records (admin).
	List(ctx context.Context, filter Filter) (ListResponse, error)

	// TodayStats returns the current day's head-count (admin).
	TodayStats(ctx context.Context) (Stats, error)
}
