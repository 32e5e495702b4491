package attendance

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presensia/presensi-backend-go/internal/domain/attendance"
	"github.com/presensia/presensi-backend-go/internal/domain/geofence"
	"github.com/presensia/presensi-backend-go/internal/domain/user"
	"github.com/presensia/presensi-backend-go/internal/pkg/sse"
	"github.com/presensia/presensi-backend-go/internal/service/mirror"
)

// ===== FAKES =====

type fakeAttendanceRepo struct {
	records []attendance.Record
}

func (f *fakeAttendanceRepo) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	for _, existing := range f.records {
		if existing.UserID == rec.UserID && existing.LocalDate == rec.LocalDate && existing.Kind == rec.Kind {
			if rec.Kind == attendance.KindCheckIn {
				return attendance.Record{}, attendance.ErrAlreadyCheckedIn
			}
			return attendance.Record{}, attendance.ErrAlreadyCheckedOut
		}
	}
	rec.ID = uuid.New().String()
	rec.CreatedAt = time.Now()
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *fakeAttendanceRepo) ListByUserAndDate(ctx context.Context, userID string, date string) ([]attendance.Record, error) {
	var out []attendance.Record
	for _, rec := range f.records {
		if rec.UserID == userID && rec.LocalDate == date {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepo) ListByUser(ctx context.Context, userID string, filter attendance.MyFilter) ([]attendance.Record, int64, error) {
	var out []attendance.Record
	for _, rec := range f.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeAttendanceRepo) List(ctx context.Context, filter attendance.Filter) ([]attendance.Record, int64, error) {
	return f.records, int64(len(f.records)), nil
}

func (f *fakeAttendanceRepo) TodayStats(ctx context.Context, date string) (attendance.Stats, error) {
	var stats attendance.Stats
	for _, rec := range f.records {
		if rec.LocalDate != date {
			continue
		}
		switch rec.Kind {
		case attendance.KindCheckIn:
			stats.CheckedIn++
			if rec.IsLate {
				stats.Late++
			}
		case attendance.KindCheckOut:
			stats.Completed++
		}
	}
	return stats, nil
}

func (f *fakeAttendanceRepo) MissingCheckOuts(ctx context.Context, date string) ([]attendance.MissingCheckOut, error) {
	return nil, nil
}

// racingAttendanceRepo simulates a concurrent duplicate: the day looks empty
// when read, but the insert hits the unique constraint.
type racingAttendanceRepo struct {
	fakeAttendanceRepo
}

func (f *racingAttendanceRepo) ListByUserAndDate(ctx context.Context, userID string, date string) ([]attendance.Record, error) {
	return nil, nil
}

type fakeFileService struct {
	uploads []string
	deletes []string
}

func (f *fakeFileService) UploadProofPhoto(ctx context.Context, userID string, date time.Time, file io.Reader, filename string, kind string) (string, string, error) {
	path := "proofs/" + date.Format("2006-01-02") + "/" + filename
	f.uploads = append(f.uploads, path)
	return "https://storage.test/" + path, path, nil
}

func (f *fakeFileService) UploadAvatar(ctx context.Context, userID string, file io.Reader, filename string) (string, error) {
	return "", nil
}

func (f *fakeFileService) DeleteFile(ctx context.Context, path string) error {
	f.deletes = append(f.deletes, path)
	return nil
}

type fakePhotoFile struct {
	*bytes.Reader
}

func (fakePhotoFile) Close() error { return nil }

type fakeUserRepo struct {
	users  map[string]user.User
	admins []string
}

func (f *fakeUserRepo) Create(ctx context.Context, u user.User) (user.User, error) { return u, nil }
func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return f.users[id], nil
}
func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return user.User{}, nil
}
func (f *fakeUserRepo) List(ctx context.Context) ([]user.User, error)        { return nil, nil }
func (f *fakeUserRepo) Update(ctx context.Context, u user.User) (user.User, error) {
	return u, nil
}
func (f *fakeUserRepo) Delete(ctx context.Context, id string) error { return nil }
func (f *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}
func (f *fakeUserRepo) AdminIDs(ctx context.Context) ([]string, error) { return f.admins, nil }

// ===== TEST WIRING =====

var testJakarta = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		panic(err)
	}
	return loc
}()

// Office at the default campus coordinates with a 100m radius.
var testOffice = geofence.Office{
	Coordinate: geofence.Coordinate{
		Latitude:  -5.1597320842062295,
		Longitude: 119.4099062887864,
	},
	RadiusMeters: 100,
}

const testUserID = "11111111-1111-4111-8111-111111111111"

func newTestService(t *testing.T, repo *fakeAttendanceRepo, userRepo *fakeUserRepo, at time.Time) *AttendanceServiceImpl {
	t.Helper()

	hub := sse.NewHub()
	svc := NewAttendanceService(
		repo,
		userRepo,
		testOffice,
		attendance.NewPolicy(testJakarta),
		nil,
		hub,
		mirror.NewService(nil, testJakarta),
	).(*AttendanceServiceImpl)
	svc.now = func() time.Time { return at }
	return svc
}

func authedContext(t *testing.T, userID string) context.Context {
	t.Helper()

	tokenAuth := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := tokenAuth.Encode(map[string]interface{}{
		"user_id": userID,
		"type":    "access",
	})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

// at builds an instant on a fixed workday in the office zone.
func at(hour, minute, second int) time.Time {
	return time.Date(2026, time.August, 17, hour, minute, second, 0, testJakarta)
}

// ===== SUBMIT TESTS =====

func TestSubmit_CheckInOnTime(t *testing.T) {
	t.Parallel()
	repo := &fakeAttendanceRepo{}
	userRepo := &fakeUserRepo{users: map[string]user.User{testUserID: {ID: testUserID}}}
	svc := newTestService(t, repo, userRepo, at(7, 30, 0))
	ctx := authedContext(t, testUserID)

	resp, err := svc.Submit(ctx, attendance.SubmitRequest{
		Kind:      string(attendance.KindCheckIn),
		Latitude:  testOffice.Latitude,
		Longitude: testOffice.Longitude,
	})

	require.NoError(t, err)
	assert.Equal(t, "check-in", resp.Kind)
	assert.False(t, resp.IsLate)
	assert.NotEmpty(t, resp.ID)
	require.Len(t, repo.records, 1)
	assert.Equal(t, testUserID, repo.records[0].UserID)
	assert.Equal(t, "2026-08-17", repo.records[0].LocalDate)
}

func TestSubmit_CheckInLate(t *testing.T) {
	t.Parallel()
	repo := &fakeAttendanceRepo{}
	userRepo := &fakeUserRepo{users: map[string]user.User{testUserID: {ID: testUserID}}}
	svc := newTestService(t, repo, userRepo, at(7, 40, 1))
	ctx := authedContext(t, testUserID)

	resp, err := svc.Submit(ctx, attendance.SubmitRequest{
		Kind:      string(attendance.KindCheckIn),
		Latitude:  testOffice.Latitude,
		Longitude: testOffice.Longitude,
	})

	require.NoError(t, err)
	assert.True(t, resp.IsLate)
}

func TestSubmit_OutsideRadius(t *testing.T) {
	t.Parallel()
	repo := &fakeAttendanceRepo{}
	userRepo := &fakeUserRepo{users: map[string]user.User{testUserID: {ID: testUserID}}}
	svc := newTestService(t, repo, userRepo, at(7, 30, 0))
	ctx := authedContext(t, testUserID)

	// Roughly 1.1km north of the office
	_, err := svc.Submit(ctx, attendance.SubmitRequest{
		Kind:      string(attendance.KindCheckIn),
		Latitude:  testOffice.Latitude + 0.01,
		Longitude: testOffice.Longitude,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, attendance.ErrOutsideOfficeRadius)
	assert.Empty(t, repo.records)
}

func TestSubmit_DuplicateCheckIn(t *testing.T) {
	t.Parallel()
	repo := &fakeAttendanceRepo{}
	userRepo := &fakeUserRepo{users: map[string]user.User{testUserID: {ID: testUserID}}}
	svc := newTestService(t, repo, userRepo, at(8, 0, 0))
	ctx := authedContext(t, testUserID)

	req := attendance.SubmitRequest{
		Kind:      string(attendance.KindCheckIn),
		Latitude:  testOffice.Latitude,
		Longitude: testOffice.Longitude,
	}

	_, err := svc.Submit(ctx, req)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, req)
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
	assert.Len(t, repo.records, 1)
}

func TestSubmit_CheckOutBeforeCheckIn(t *testing.T) {
	t.Parallel()
	repo := &fakeAttendanceRepo{}
	userRepo := &fakeUserRepo{users: map[string]user.User{testUserID: {ID: testUserID}}}
	svc := newTestService(t, repo, userRepo, at(17, 0, 0))
	ctx := authedContext(t, testUserID)

	_, err := svc.Submit(ctx, attendance.SubmitRequest{
		Kind:      string(attendance.KindCheckOut),
		Latitude:  testOffice.Latitude,
		Longitude: testOffice.Longitude,
	})

	assert.ErrorIs(t, err, attendance.ErrCheckOutBeforeCheckIn)
}

func TestSubmit_CheckOutTooEarly(t *testing.T) {
	t.Parallel()
	repo := &fakeAttendanceRepo{}
	userRepo := &fakeUserRepo{users: map[string]user.User{testUserID: {ID: testUserID}}}
	ctx := authedContext(t, testUserID)

	req := attendance.SubmitRequest{
		Kind:      string(attendance.KindCheckIn),
		Latitude:  testOffice.Latitude,
		Longitude: testOffice.Longitude,
	}
	_, err := newTestService(t, repo, userRepo, at(8, 0, 0)).Submit(ctx, req)
	require.NoError(t, err)

	req.Kind = string(attendance.KindCheckOut)
	_, err = newTestService(t, repo, userRepo, at(15, 59, 59)).Submit(ctx, req)
	assert.ErrorIs(t, err, attendance.ErrCheckOutTooEarly)

	resp, err := newTestService(t, repo, userRepo, at(16, 0, 0)).Submit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "check-out", resp.Kind)
	assert.False(t, resp.IsLate)
}

func TestSubmit_AlreadyCheckedOutWinsOverTimeGate(t *testing.T) {
	t.Parallel()
	repo := &fakeAttendanceRepo{}
	userRepo := &fakeUserRepo{users: map[string]user.User{testUserID: {ID: testUserID}}}
	ctx := authedContext(t, testUserID)

	req := attendance.SubmitRequest{
		Kind:      string(attendance.KindCheckIn),
		Latitude:  testOffice.Latitude,
		Longitude: testOffice.Longitude,
	}
	_, err := newTestService(t, repo, userRepo, at(8, 0, 0)).Submit(ctx, req)
	require.NoError(t, err)

	req.Kind = string(attendance.KindCheckOut)
	_, err = newTestService(t, repo, userRepo, at(16, 30, 0)).Submit(ctx, req)
	require.NoError(t, err)

	// A second check-out attempt before the gate the next instant should
	// still report the duplicate, not the early-hour error.
	_, err = newTestService(t, repo, userRepo, at(15, 0, 0)).Submit(ctx, req)
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
}

func TestSubmit_InvalidKind(t *testing.T) {
	t.Parallel()
	repo := &fakeAttendanceRepo{}
	userRepo := &fakeUserRepo{users: map[string]user.User{testUserID: {ID: testUserID}}}
	svc := newTestService(t, repo, userRepo, at(8, 0, 0))
	ctx := authedContext(t, testUserID)

	_, err := svc.Submit(ctx, attendance.SubmitRequest{
		Kind:      "lunch-break",
		Latitude:  testOffice.Latitude,
		Longitude: testOffice.Longitude,
	})

	require.Error(t, err)
	assert.Empty(t, repo.records)
}

func TestSubmit_PublishesToOwnerAndAdmins(t *testing.T) {
	t.Parallel()
	adminID := "22222222-2222-4222-8222-222222222222"
	repo := &fakeAttendanceRepo{}
	userRepo := &fakeUserRepo{
		users:  map[string]user.User{testUserID: {ID: testUserID, FullName: "Test User"}},
		admins: []string{adminID},
	}
	svc := newTestService(t, repo, userRepo, at(8, 0, 0))
	ctx := authedContext(t, testUserID)

	ownerCh, ownerCleanup := svc.hub.Subscribe(testUserID)
	defer ownerCleanup()
	adminCh, adminCleanup := svc.hub.Subscribe(adminID)
	defer adminCleanup()

	_, err := svc.Submit(ctx, attendance.SubmitRequest{
		Kind:      string(attendance.KindCheckIn),
		Latitude:  testOffice.Latitude,
		Longitude: testOffice.Longitude,
	})
	require.NoError(t, err)

	select {
	case ev := <-ownerCh:
		assert.Equal(t, "attendance.created", ev.Event)
	default:
		t.Fatal("expected event on owner channel")
	}
	select {
	case ev := <-adminCh:
		assert.Equal(t, "attendance.created", ev.Event)
	default:
		t.Fatal("expected event on admin channel")
	}
}

func TestSubmit_RemovesPhotoWhenInsertConflicts(t *testing.T) {
	t.Parallel()
	repo := &racingAttendanceRepo{}
	repo.records = []attendance.Record{
		{UserID: testUserID, LocalDate: "2026-08-17", Kind: attendance.KindCheckIn},
	}
	userRepo := &fakeUserRepo{users: map[string]user.User{testUserID: {ID: testUserID}}}
	files := &fakeFileService{}

	svc := NewAttendanceService(
		repo,
		userRepo,
		testOffice,
		attendance.NewPolicy(testJakarta),
		files,
		sse.NewHub(),
		mirror.NewService(nil, testJakarta),
	).(*AttendanceServiceImpl)
	svc.now = func() time.Time { return at(8, 0, 0) }
	ctx := authedContext(t, testUserID)

	_, err := svc.Submit(ctx, attendance.SubmitRequest{
		Kind:       string(attendance.KindCheckIn),
		Latitude:   testOffice.Latitude,
		Longitude:  testOffice.Longitude,
		File:       fakePhotoFile{bytes.NewReader([]byte("not really a jpeg"))},
		FileHeader: &multipart.FileHeader{Filename: "selfie.jpg"},
	})

	require.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
	require.Len(t, files.uploads, 1)
	assert.Equal(t, files.uploads, files.deletes, "the stored photo should be removed when the record is not persisted")
	assert.Len(t, repo.records, 1)
}

// ===== TODAY TESTS =====

func TestGetToday_Flow(t *testing.T) {
	t.Parallel()
	repo := &fakeAttendanceRepo{}
	userRepo := &fakeUserRepo{users: map[string]user.User{testUserID: {ID: testUserID}}}
	ctx := authedContext(t, testUserID)

	// Fresh day: can check in, cannot check out
	svc := newTestService(t, repo, userRepo, at(7, 0, 0))
	today, err := svc.GetToday(ctx)
	require.NoError(t, err)
	assert.True(t, today.CanCheckIn)
	assert.False(t, today.CanCheckOut)
	assert.Empty(t, today.Records)

	// After check-in, before 16:00: neither action available
	req := attendance.SubmitRequest{
		Kind:      string(attendance.KindCheckIn),
		Latitude:  testOffice.Latitude,
		Longitude: testOffice.Longitude,
	}
	_, err = svc.Submit(ctx, req)
	require.NoError(t, err)

	today, err = svc.GetToday(ctx)
	require.NoError(t, err)
	assert.False(t, today.CanCheckIn)
	assert.False(t, today.CanCheckOut)
	assert.Len(t, today.Records, 1)

	// Same state at 16:00: check-out opens
	svc = newTestService(t, repo, userRepo, at(16, 0, 0))
	today, err = svc.GetToday(ctx)
	require.NoError(t, err)
	assert.False(t, today.CanCheckIn)
	assert.True(t, today.CanCheckOut)

	// After check-out: day complete
	req.Kind = string(attendance.KindCheckOut)
	_, err = svc.Submit(ctx, req)
	require.NoError(t, err)

	today, err = svc.GetToday(ctx)
	require.NoError(t, err)
	assert.False(t, today.CanCheckIn)
	assert.False(t, today.CanCheckOut)
	assert.Len(t, today.Records, 2)
}

func TestGetMyAttendance_Pagination(t *testing.T) {
	t.Parallel()
	repo := &fakeAttendanceRepo{}
	userRepo := &fakeUserRepo{users: map[string]user.User{testUserID: {ID: testUserID}}}
	svc := newTestService(t, repo, userRepo, at(8, 0, 0))
	ctx := authedContext(t, testUserID)

	_, err := svc.Submit(ctx, attendance.SubmitRequest{
		Kind:      string(attendance.KindCheckIn),
		Latitude:  testOffice.Latitude,
		Longitude: testOffice.Longitude,
	})
	require.NoError(t, err)

	list, err := svc.GetMyAttendance(ctx, attendance.MyFilter{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.TotalCount)
	assert.Equal(t, 1, list.TotalPages)
	assert.Len(t, list.Records, 1)
}

func TestSubmit_MissingClaims(t *testing.T) {
	t.Parallel()
	repo := &fakeAttendanceRepo{}
	userRepo := &fakeUserRepo{}
	svc := newTestService(t, repo, userRepo, at(8, 0, 0))

	_, err := svc.Submit(context.Background(), attendance.SubmitRequest{
		Kind:      string(attendance.KindCheckIn),
		Latitude:  testOffice.Latitude,
		Longitude: testOffice.Longitude,
	})

	assert.Error(t, err)
}
