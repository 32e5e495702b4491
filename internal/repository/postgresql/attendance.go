package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/presensia/presensi-backend-go/internal/domain/attendance"
	"github.com/presensia/presensi-backend-go/internal/pkg/database"
)

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

const recordColumns = `id, user_id, date::text, kind, recorded_at, is_late, latitude, longitude, photo_url, created_at`

func scanRecord(row pgx.Row) (attendance.Record, error) {
	var rec attendance.Record
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.LocalDate,
		&rec.Kind,
		&rec.Timestamp,
		&rec.IsLate,
		&rec.Latitude,
		&rec.Longitude,
		&rec.PhotoURL,
		&rec.CreatedAt,
	)
	return rec, err
}

// Create implements attendance.AttendanceRepository. The table carries
// UNIQUE (user_id, date, kind); two racing submissions collapse into one
// row and the loser gets the matching policy error.
func (r *attendanceRepositoryImpl) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_records (user_id, date, kind, recorded_at, is_late, latitude, longitude, photo_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + recordColumns

	created, err := scanRecord(q.QueryRow(ctx, query,
		record.UserID,
		record.LocalDate,
		record.Kind,
		record.Timestamp,
		record.IsLate,
		record.Latitude,
		record.Longitude,
		record.PhotoURL,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if record.Kind == attendance.KindCheckOut {
				return attendance.Record{}, attendance.ErrAlreadyCheckedOut
			}
			return attendance.Record{}, attendance.ErrAlreadyCheckedIn
		}
		return attendance.Record{}, err
	}

	return created, nil
}

// ListByUserAndDate implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) ListByUserAndDate(ctx context.Context, userID string, date string) ([]attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE user_id = $1 AND date = $2
		ORDER BY recorded_at ASC
	`

	rows, err := q.Query(ctx, query, userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListByUser implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) ListByUser(ctx context.Context, userID string, filter attendance.MyFilter) ([]attendance.Record, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := `WHERE user_id = $1`
	args := []interface{}{userID}

	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		where += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		where += fmt.Sprintf(" AND date <= $%d", len(args))
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM attendance_records ` + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`
		SELECT `+recordColumns+`
		FROM attendance_records
		%s
		ORDER BY recorded_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// List implements attendance.AttendanceRepository with user join fields for
// the admin monitor.
func (r *attendanceRepositoryImpl) List(ctx context.Context, filter attendance.Filter) ([]attendance.Record, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := `WHERE TRUE`
	args := []interface{}{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		where += fmt.Sprintf(" AND a.user_id = $%d", len(args))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		where += fmt.Sprintf(" AND a.date >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		where += fmt.Sprintf(" AND a.date <= $%d", len(args))
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM attendance_records a ` + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`
		SELECT a.id, a.user_id, a.date::text, a.kind, a.recorded_at, a.is_late,
			   a.latitude, a.longitude, a.photo_url, a.created_at,
			   u.full_name, u.email
		FROM attendance_records a
		JOIN users u ON u.id = a.user_id
		%s
		ORDER BY a.recorded_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.LocalDate,
			&rec.Kind,
			&rec.Timestamp,
			&rec.IsLate,
			&rec.Latitude,
			&rec.Longitude,
			&rec.PhotoURL,
			&rec.CreatedAt,
			&rec.UserFullName,
			&rec.UserEmail,
		)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// TodayStats implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) TodayStats(ctx context.Context, date string) (attendance.Stats, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			(SELECT COUNT(*) FROM users WHERE role = 'employee') AS total_users,
			COUNT(*) FILTER (WHERE kind = 'check-in')                AS checked_in,
			COUNT(*) FILTER (WHERE kind = 'check-in' AND is_late)    AS late,
			COUNT(*) FILTER (WHERE kind = 'check-out')               AS completed
		FROM attendance_records
		WHERE date = $1
	`

	var stats attendance.Stats
	err := q.QueryRow(ctx, query, date).Scan(
		&stats.TotalUsers,
		&stats.CheckedIn,
		&stats.Late,
		&stats.Completed,
	)
	if err != nil {
		return attendance.Stats{}, err
	}
	return stats, nil
}

// MissingCheckOuts implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) MissingCheckOuts(ctx context.Context, date string) ([]attendance.MissingCheckOut, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT a.user_id, u.full_name, u.email, a.recorded_at, a.is_late
		FROM attendance_records a
		JOIN users u ON u.id = a.user_id
		WHERE a.date = $1
		  AND a.kind = 'check-in'
		  AND NOT EXISTS (
			SELECT 1 FROM attendance_records o
			WHERE o.user_id = a.user_id AND o.date = a.date AND o.kind = 'check-out'
		  )
		ORDER BY a.recorded_at ASC
	`

	rows, err := q.Query(ctx, query, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var missing []attendance.MissingCheckOut
	for rows.Next() {
		var m attendance.MissingCheckOut
		if err := rows.Scan(&m.UserID, &m.FullName, &m.Email, &m.CheckInAt, &m.WasLate); err != nil {
			return nil, err
		}
		missing = append(missing, m)
	}
	return missing, rows.Err()
}
