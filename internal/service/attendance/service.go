package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/go-chi/jwtauth/v5"

	"github.com/presensia/presensi-backend-go/internal/domain/attendance"
	"github.com/presensia/presensi-backend-go/internal/domain/geofence"
	"github.com/presensia/presensi-backend-go/internal/domain/user"
	"github.com/presensia/presensi-backend-go/internal/pkg/sse"
	"github.com/presensia/presensi-backend-go/internal/service/file"
	"github.com/presensia/presensi-backend-go/internal/service/mirror"
)

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	userRepo      user.UserRepository
	office        geofence.Office
	policy        attendance.Policy
	fileService   file.FileService
	hub           *sse.Hub
	mirrorService mirror.Service
	now           func() time.Time
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	userRepo user.UserRepository,
	office geofence.Office,
	policy attendance.Policy,
	fileService file.FileService,
	hub *sse.Hub,
	mirrorService mirror.Service,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		userRepo:             userRepo,
		office:               office,
		policy:               policy,
		fileService:          fileService,
		hub:                  hub,
		mirrorService:        mirrorService,
		now:                  time.Now,
	}
}

func userIDFromClaims(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user_id claim is missing or invalid")
	}
	return userID, nil
}

// localDate formats an instant as the calendar date in the policy zone.
func (a *AttendanceServiceImpl) localDate(t time.Time) string {
	return t.In(a.policy.Location).Format("2006-01-02")
}

// Submit implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Submit(ctx context.Context, req attendance.SubmitRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	userID, err := userIDFromClaims(ctx)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	// Geofence gate comes first: an out-of-radius request is rejected
	// before any state is consulted.
	position := geofence.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude}
	if !a.office.Contains(position) {
		distance := a.office.DistanceTo(position)
		return attendance.RecordResponse{}, fmt.Errorf(
			"%w (%.0f m away, allowed %.0f m)",
			attendance.ErrOutsideOfficeRadius, distance, a.office.RadiusMeters)
	}

	now := a.now()
	dateLocal := a.localDate(now)

	today, err := a.AttendanceRepository.ListByUserAndDate(ctx, userID, dateLocal)
	if err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("failed to load today's records: %w", err)
	}

	record, err := a.policy.EvaluateAction(today, attendance.Kind(req.Kind), now)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	record.UserID = userID
	record.LocalDate = dateLocal
	record.Latitude = req.Latitude
	record.Longitude = req.Longitude

	var photoPath string
	if req.File != nil && req.FileHeader != nil {
		photoURL, storedPath, err := a.fileService.UploadProofPhoto(ctx, userID, now.In(a.policy.Location), req.File, req.FileHeader.Filename, string(record.Kind))
		if err != nil {
			return attendance.RecordResponse{}, fmt.Errorf("failed to upload proof photo: %w", err)
		}
		record.PhotoURL = &photoURL
		photoPath = storedPath
	}

	// The unique constraint backs up the state machine, so a concurrent
	// duplicate submission still comes back as the policy error.
	created, err := a.AttendanceRepository.Create(ctx, record)
	if err != nil {
		// The photo belongs to a record that never existed
		if photoPath != "" {
			if delErr := a.fileService.DeleteFile(ctx, photoPath); delErr != nil {
				slog.Error("Failed to remove orphaned proof photo", "path", photoPath, "error", delErr)
			}
		}
		return attendance.RecordResponse{}, err
	}

	a.notify(ctx, created)

	return attendance.NewRecordResponse(created), nil
}

// notify pushes the new record to SSE subscribers and the sheets mirror.
// Both are side channels; neither can fail the submission.
func (a *AttendanceServiceImpl) notify(ctx context.Context, record attendance.Record) {
	owner, err := a.userRepo.GetByID(ctx, record.UserID)
	if err == nil {
		record.UserFullName = &owner.FullName
		record.UserEmail = &owner.Email
		a.mirrorService.MirrorRecord(owner, record)
	}

	recipients := []string{record.UserID}
	if adminIDs, err := a.userRepo.AdminIDs(ctx); err == nil {
		for _, adminID := range adminIDs {
			if adminID != record.UserID {
				recipients = append(recipients, adminID)
			}
		}
	}
	a.hub.PublishToMany(recipients, sse.Event{
		Event: "attendance.created",
		Data:  attendance.NewRecordResponse(record),
	})
}

// GetToday implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetToday(ctx context.Context) (attendance.TodayResponse, error) {
	userID, err := userIDFromClaims(ctx)
	if err != nil {
		return attendance.TodayResponse{}, err
	}

	now := a.now()
	today, err := a.AttendanceRepository.ListByUserAndDate(ctx, userID, a.localDate(now))
	if err != nil {
		return attendance.TodayResponse{}, fmt.Errorf("failed to load today's records: %w", err)
	}

	var hasCheckIn, hasCheckOut bool
	responses := make([]attendance.RecordResponse, 0, len(today))
	for _, rec := range today {
		switch rec.Kind {
		case attendance.KindCheckIn:
			hasCheckIn = true
		case attendance.KindCheckOut:
			hasCheckOut = true
		}
		responses = append(responses, attendance.NewRecordResponse(rec))
	}

	return attendance.TodayResponse{
		Records:     responses,
		CanCheckIn:  !hasCheckIn,
		CanCheckOut: hasCheckIn && !hasCheckOut && a.policy.CanCheckOut(now),
	}, nil
}

// GetMyAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, filter attendance.MyFilter) (attendance.ListResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListResponse{}, err
	}

	userID, err := userIDFromClaims(ctx)
	if err != nil {
		return attendance.ListResponse{}, err
	}

	records, total, err := a.AttendanceRepository.ListByUser(ctx, userID, filter)
	if err != nil {
		return attendance.ListResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	return newListResponse(records, total, filter.Page, filter.Limit), nil
}

// List implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) List(ctx context.Context, filter attendance.Filter) (attendance.ListResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListResponse{}, err
	}

	records, total, err := a.AttendanceRepository.List(ctx, filter)
	if err != nil {
		return attendance.ListResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	return newListResponse(records, total, filter.Page, filter.Limit), nil
}

// TodayStats implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) TodayStats(ctx context.Context) (attendance.Stats, error) {
	stats, err := a.AttendanceRepository.TodayStats(ctx, a.localDate(a.now()))
	if err != nil {
		return attendance.Stats{}, fmt.Errorf("failed to load today's stats: %w", err)
	}
	return stats, nil
}

func newListResponse(records []attendance.Record, total int64, page, limit int) attendance.ListResponse {
	responses := make([]attendance.RecordResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, attendance.NewRecordResponse(rec))
	}

	totalPages := 0
	if limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(limit)))
	}

	return attendance.ListResponse{
		TotalCount: total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		Records:    responses,
	}
}
