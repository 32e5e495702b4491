package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/presensia/presensi-backend-go/internal/domain/attendance"
	"github.com/presensia/presensi-backend-go/internal/domain/user"
	"github.com/presensia/presensi-backend-go/internal/pkg/sse"
)

// AttendanceJobs holds the scheduled attendance sweeps.
type AttendanceJobs struct {
	attendanceRepo attendance.AttendanceRepository
	userRepo       user.UserRepository
	policy         attendance.Policy
	hub            *sse.Hub
	now            func() time.Time

	mu        sync.Mutex
	lastSwept string
}

func NewAttendanceJobs(
	attendanceRepo attendance.AttendanceRepository,
	userRepo user.UserRepository,
	policy attendance.Policy,
	hub *sse.Hub,
) *AttendanceJobs {
	return &AttendanceJobs{
		attendanceRepo: attendanceRepo,
		userRepo:       userRepo,
		policy:         policy,
		hub:            hub,
		now:            time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("flag_missing_check_outs", 5*time.Minute, j.FlagMissingCheckOuts)
}

// FlagMissingCheckOuts reports employees who checked in today but have not
// checked out once the check-out deadline has passed. The sweep runs once per
// local day; reruns before the next deadline are no-ops.
func (j *AttendanceJobs) FlagMissingCheckOuts(ctx context.Context) error {
	now := j.now().In(j.policy.Location)
	if now.Before(j.policy.CheckOutDeadline(now)) {
		return nil
	}

	dateLocal := now.Format("2006-01-02")

	j.mu.Lock()
	alreadySwept := j.lastSwept == dateLocal
	j.mu.Unlock()
	if alreadySwept {
		return nil
	}

	slog.Info("Cron: Starting missing check-out sweep", "date", dateLocal)

	// The day is marked swept only after everything below succeeds, so a
	// failed run retries on the next tick instead of waiting for tomorrow.
	missing, err := j.attendanceRepo.MissingCheckOuts(ctx, dateLocal)
	if err != nil {
		return fmt.Errorf("failed to query missing check-outs: %w", err)
	}

	if len(missing) == 0 {
		slog.Info("Cron: No missing check-outs", "date", dateLocal)
		j.markSwept(dateLocal)
		return nil
	}

	for _, m := range missing {
		slog.Warn("Cron: Missing check-out",
			"date", dateLocal,
			"user_id", m.UserID,
			"email", m.Email,
			"checked_in_at", m.CheckInAt.Format(time.RFC3339))
	}

	adminIDs, err := j.userRepo.AdminIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load admin recipients: %w", err)
	}

	j.hub.PublishToMany(adminIDs, sse.Event{
		Event: "attendance.missing-checkout",
		Data: map[string]interface{}{
			"date":    dateLocal,
			"count":   len(missing),
			"missing": missing,
		},
	})

	j.markSwept(dateLocal)
	slog.Info("Cron: Missing check-out sweep completed", "date", dateLocal, "count", len(missing))
	return nil
}

func (j *AttendanceJobs) markSwept(dateLocal string) {
	j.mu.Lock()
	j.lastSwept = dateLocal
	j.mu.Unlock()
}
