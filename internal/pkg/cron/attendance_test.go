package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presensia/presensi-backend-go/internal/domain/attendance"
	"github.com/presensia/presensi-backend-go/internal/domain/user"
	"github.com/presensia/presensi-backend-go/internal/pkg/sse"
)

// ===== FAKES =====

type sweepAttendanceRepo struct {
	missing []attendance.MissingCheckOut
	err     error
	calls   int
}

func (f *sweepAttendanceRepo) MissingCheckOuts(ctx context.Context, date string) ([]attendance.MissingCheckOut, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.missing, nil
}

func (f *sweepAttendanceRepo) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	return rec, nil
}
func (f *sweepAttendanceRepo) ListByUserAndDate(ctx context.Context, userID string, date string) ([]attendance.Record, error) {
	return nil, nil
}
func (f *sweepAttendanceRepo) ListByUser(ctx context.Context, userID string, filter attendance.MyFilter) ([]attendance.Record, int64, error) {
	return nil, 0, nil
}
func (f *sweepAttendanceRepo) List(ctx context.Context, filter attendance.Filter) ([]attendance.Record, int64, error) {
	return nil, 0, nil
}
func (f *sweepAttendanceRepo) TodayStats(ctx context.Context, date string) (attendance.Stats, error) {
	return attendance.Stats{}, nil
}

type sweepUserRepo struct {
	admins []string
}

func (f *sweepUserRepo) Create(ctx context.Context, u user.User) (user.User, error) { return u, nil }
func (f *sweepUserRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return user.User{}, nil
}
func (f *sweepUserRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return user.User{}, nil
}
func (f *sweepUserRepo) List(ctx context.Context) ([]user.User, error) { return nil, nil }
func (f *sweepUserRepo) Update(ctx context.Context, u user.User) (user.User, error) {
	return u, nil
}
func (f *sweepUserRepo) Delete(ctx context.Context, id string) error { return nil }
func (f *sweepUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}
func (f *sweepUserRepo) AdminIDs(ctx context.Context) ([]string, error) { return f.admins, nil }

// ===== TEST WIRING =====

var testJakarta = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		panic(err)
	}
	return loc
}()

// sweepAt builds an instant on a fixed workday in the office zone.
func sweepAt(hour, minute int) time.Time {
	return time.Date(2026, time.August, 17, hour, minute, 0, 0, testJakarta)
}

func newSweepJobs(repo *sweepAttendanceRepo, users *sweepUserRepo, hub *sse.Hub, now time.Time) *AttendanceJobs {
	jobs := NewAttendanceJobs(repo, users, attendance.NewPolicy(testJakarta), hub)
	jobs.now = func() time.Time { return now }
	return jobs
}

// ===== SWEEP TESTS =====

func TestFlagMissingCheckOuts_BeforeDeadline(t *testing.T) {
	t.Parallel()
	repo := &sweepAttendanceRepo{}
	jobs := newSweepJobs(repo, &sweepUserRepo{}, sse.NewHub(), sweepAt(16, 9))

	require.NoError(t, jobs.FlagMissingCheckOuts(context.Background()))
	assert.Equal(t, 0, repo.calls, "sweep should not query before the deadline")
}

func TestFlagMissingCheckOuts_NotifiesAdmins(t *testing.T) {
	t.Parallel()
	adminID := "22222222-2222-4222-8222-222222222222"
	repo := &sweepAttendanceRepo{
		missing: []attendance.MissingCheckOut{
			{UserID: "u1", FullName: "Still Here", Email: "still@office.test", CheckInAt: sweepAt(7, 30)},
		},
	}
	hub := sse.NewHub()
	jobs := newSweepJobs(repo, &sweepUserRepo{admins: []string{adminID}}, hub, sweepAt(16, 30))

	adminCh, cleanup := hub.Subscribe(adminID)
	defer cleanup()

	// Drive through the scheduler the way main wires it up.
	scheduler := NewScheduler()
	jobs.RegisterJobs(scheduler)
	scheduler.RunOnce(context.Background())

	select {
	case ev := <-adminCh:
		assert.Equal(t, "attendance.missing-checkout", ev.Event)
		data, ok := ev.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "2026-08-17", data["date"])
		assert.Equal(t, 1, data["count"])
	default:
		t.Fatal("expected missing check-out event on admin channel")
	}
}

func TestFlagMissingCheckOuts_RunsOncePerDay(t *testing.T) {
	t.Parallel()
	repo := &sweepAttendanceRepo{}
	jobs := newSweepJobs(repo, &sweepUserRepo{}, sse.NewHub(), sweepAt(16, 30))

	require.NoError(t, jobs.FlagMissingCheckOuts(context.Background()))
	require.NoError(t, jobs.FlagMissingCheckOuts(context.Background()))
	assert.Equal(t, 1, repo.calls, "second run on the same day should be a no-op")
}

func TestFlagMissingCheckOuts_RetriesAfterError(t *testing.T) {
	t.Parallel()
	repo := &sweepAttendanceRepo{err: errors.New("connection reset")}
	jobs := newSweepJobs(repo, &sweepUserRepo{}, sse.NewHub(), sweepAt(16, 30))

	require.Error(t, jobs.FlagMissingCheckOuts(context.Background()))

	// A failed sweep must not count as done for the day.
	repo.err = nil
	require.NoError(t, jobs.FlagMissingCheckOuts(context.Background()))
	assert.Equal(t, 2, repo.calls, "sweep should retry after a failed run")

	require.NoError(t, jobs.FlagMissingCheckOuts(context.Background()))
	assert.Equal(t, 2, repo.calls)
}
