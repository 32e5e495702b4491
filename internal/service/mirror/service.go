package mirror

import (
	"context"
	"log/slog"
	"time"

	"github.com/presensia/presensi-backend-go/internal/domain/attendance"
	"github.com/presensia/presensi-backend-go/internal/domain/user"
	"github.com/presensia/presensi-backend-go/internal/pkg/sheets"
)

// Service mirrors successful attendance records into a Google Sheet. The
// mirror is best effort: a failed append is logged and never surfaces to the
// employee who just checked in.
type Service interface {
	MirrorRecord(u user.User, rec attendance.Record)
}

type serviceImpl struct {
	client   *sheets.Client
	location *time.Location
}

// NewService builds the mirror. A nil client disables mirroring entirely.
func NewService(client *sheets.Client, location *time.Location) Service {
	return &serviceImpl{
		client:   client,
		location: location,
	}
}

func (s *serviceImpl) MirrorRecord(u user.User, rec attendance.Record) {
	if s.client == nil {
		return
	}

	// Column order matches the existing sheet:
	// timestamp, name, email, type, late flag, latitude, longitude
	lateFlag := "TIDAK"
	if rec.IsLate {
		lateFlag = "YA"
	}
	row := []interface{}{
		rec.Timestamp.In(s.location).Format("02/01/2006 15.04.05"),
		u.FullName,
		u.Email,
		string(rec.Kind),
		lateFlag,
		rec.Latitude,
		rec.Longitude,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.client.AppendRow(ctx, row); err != nil {
			slog.Error("Sheets mirror append failed",
				"user_id", rec.UserID,
				"kind", rec.Kind,
				"error", err)
		}
	}()
}
