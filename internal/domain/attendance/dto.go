package attendance

import (
	"mime/multipart"
	"time"

	"github.com/presensia/presensi-backend-go/internal/pkg/validator"
)

// SubmitRequest is the multipart 'data' payload for POST /attendance. The
// optional proof photo arrives as a separate form file.
type SubmitRequest struct {
	Kind      string  `json:"type"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	File       multipart.File        `json:"-"`
	FileHeader *multipart.FileHeader `json:"-"`
}

func (r *SubmitRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Kind) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type is required",
		})
	} else if !validator.IsInSlice(r.Kind, []string{string(KindCheckIn), string(KindCheckOut)}) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be either check-in or check-out",
		})
	}

	if !validator.IsValidLatitude(r.Latitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}
	if !validator.IsValidLongitude(r.Longitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// RecordResponse is the JSON shape of one attendance record.
type RecordResponse struct {
	ID        string  `json:"id"`
	Kind      string  `json:"type"`
	Timestamp string  `json:"timestamp"`
	IsLate    bool    `json:"is_late"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	PhotoURL  *string `json:"photo_url,omitempty"`

	// Populated on admin listings only
	UserFullName *string `json:"user_full_name,omitempty"`
	UserEmail    *string `json:"user_email,omitempty"`
}

// NewRecordResponse maps a Record to its wire form.
func NewRecordResponse(r Record) RecordResponse {
	return RecordResponse{
		ID:           r.ID,
		Kind:         string(r.Kind),
		Timestamp:    r.Timestamp.Format(time.RFC3339),
		IsLate:       r.IsLate,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		PhotoURL:     r.PhotoURL,
		UserFullName: r.UserFullName,
		UserEmail:    r.UserEmail,
	}
}

// TodayResponse mirrors the state the attendance card needs: the day's
// records plus which action is currently available.
type TodayResponse struct {
	Records     []RecordResponse `json:"records"`
	CanCheckIn  bool             `json:"can_check_in"`
	CanCheckOut bool             `json:"can_check_out"`
}

// MyFilter narrows a user's own history.
type MyFilter struct {
	StartDate *string
	EndDate   *string
	Page      int
	Limit     int
}

func (f *MyFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.StartDate != nil {
		if _, ok := validator.IsValidDate(*f.StartDate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}
	if f.EndDate != nil {
		if _, ok := validator.IsValidDate(*f.EndDate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Filter narrows the admin listing.
type Filter struct {
	UserID    *string
	StartDate *string
	EndDate   *string
	Page      int
	Limit     int
}

func (f *Filter) Validate() error {
	var errs validator.ValidationErrors

	if f.UserID != nil && !validator.IsValidUUID(*f.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id must be a valid UUID",
		})
	}
	if f.StartDate != nil {
		if _, ok := validator.IsValidDate(*f.StartDate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}
	if f.EndDate != nil {
		if _, ok := validator.IsValidDate(*f.EndDate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ListResponse is a paginated record listing.
type ListResponse struct {
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
	Records    []RecordResponse `json:"records"`
}

// Stats is the admin head-count for one day.
type Stats struct {
	TotalUsers int64 `json:"total_users"`
	CheckedIn  int64 `json:"checked_in"`
	Late       int64 `json:"late"`
	Completed  int64 `json:"completed"`
}

// MissingCheckOut identifies a user who checked in but never checked out.
type MissingCheckOut struct {
	UserID    string    `json:"user_id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	CheckInAt time.Time `json:"checked_in_at"`
	WasLate   bool      `json:"was_late"`
}
