package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicbook/booking-api/internal/model"
	"github.com/clinicbook/booking-api/internal/repository"
)

type bookingRepository struct {
	db *sqlx.DB
}

func NewBookingRepository(db *sqlx.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

const bookingColumns = `
	id, full_name, email, department, session, date, status,
	queue_line, queue_number, created_by, created_at, updated_at
`

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (
			id, full_name, email, department, session, date, status,
			created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		booking.ID,
		booking.FullName,
		booking.Email,
		booking.Department,
		booking.Session,
		booking.Date,
		booking.Status,
		booking.CreatedBy,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *bookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var booking model.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *bookingRepository) Update(ctx context.Context, id uuid.UUID, patch *model.BookingPatch) (*model.Booking, error) {
	sets := []string{}
	args := []interface{}{}
	argCount := 1

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argCount))
		args = append(args, value)
		argCount++
	}

	if patch.FullName != nil {
		add("full_name", *patch.FullName)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.Department != nil {
		add("department", *patch.Department)
	}
	if patch.Session != nil {
		add("session", *patch.Session)
		// The queue line follows the session whenever one is supplied,
		// whatever the status; the queue number is never written here.
		add("queue_line", model.QueueLineFor(*patch.Session))
	}
	if patch.Date != nil {
		add("date", *patch.Date)
	}
	add("updated_at", time.Now())

	query := fmt.Sprintf(
		"UPDATE bookings SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), argCount, bookingColumns,
	)
	args = append(args, id)

	var booking model.Booking
	if err := r.db.GetContext(ctx, &booking, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}
	return &booking, nil
}

func (r *bookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("booking not found: %w", sql.ErrNoRows)
	}
	return nil
}

func (r *bookingRepository) List(ctx context.Context, filters *model.BookingFilters) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.Email != "" {
			query += fmt.Sprintf(" AND email = $%d", argCount)
			args = append(args, filters.Email)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if filters.Department != "" {
			query += fmt.Sprintf(" AND department = $%d", argCount)
			args = append(args, filters.Department)
			argCount++
		}
		if filters.Session != "" {
			query += fmt.Sprintf(" AND session = $%d", argCount)
			args = append(args, filters.Session)
			argCount++
		}
	}

	query += " ORDER BY created_at DESC"

	var bookings []*model.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// ApproveWithQueue performs the read-then-assign sequence as one transaction.
// An advisory lock on the bucket key serializes concurrent approvals within
// the same (date, session, department) bucket, so two transactions can never
// read the same high-water mark and write the same queue number.
func (r *bookingRepository) ApproveWithQueue(ctx context.Context, id uuid.UUID, queueLine int) (*model.Booking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// FOR UPDATE keeps the already-approved check current: a concurrent
	// approval of the same booking blocks on the row lock and then sees the
	// committed queue position instead of a pre-lock snapshot. The check must
	// stay inside this serialized section; only a live database exercises the
	// interleaving it guards against.
	var booking model.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &booking, query, id); err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	// Already approved: keep the existing queue position.
	if booking.Status == model.BookingStatusApproved && booking.QueueNumber != nil {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return &booking, nil
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, booking.BucketKey()); err != nil {
		return nil, fmt.Errorf("failed to acquire bucket lock: %w", err)
	}

	// Next position after the bucket's highest ticket. Counting survivors
	// instead would hand out a duplicate after a mid-bucket deletion.
	var highest int
	highQuery := `
		SELECT COALESCE(MAX(queue_number), 0) FROM bookings
		WHERE status = $1 AND date = $2 AND session = $3 AND department = $4 AND id != $5
	`
	if err := tx.GetContext(ctx, &highest,
		highQuery,
		model.BookingStatusApproved,
		booking.Date,
		booking.Session,
		booking.Department,
		booking.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to find highest queue number: %w", err)
	}

	queueNumber := highest + 1
	now := time.Now()
	updateQuery := `
		UPDATE bookings
		SET status = $1, queue_line = $2, queue_number = $3, updated_at = $4
		WHERE id = $5
	`
	if _, err := tx.ExecContext(ctx, updateQuery,
		model.BookingStatusApproved, queueLine, queueNumber, now, booking.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to approve booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	booking.Status = model.BookingStatusApproved
	booking.QueueLine = &queueLine
	booking.QueueNumber = &queueNumber
	booking.UpdatedAt = now
	return &booking, nil
}

func (r *bookingRepository) SetStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus) (*model.Booking, error) {
	query := `
		UPDATE bookings
		SET status = $1, queue_line = NULL, queue_number = NULL, updated_at = $2
		WHERE id = $3
		RETURNING ` + bookingColumns

	var booking model.Booking
	if err := r.db.GetContext(ctx, &booking, query, status, time.Now(), id); err != nil {
		return nil, fmt.Errorf("failed to set booking status: %w", err)
	}
	return &booking, nil
}

func (r *bookingRepository) StatusCounts(ctx context.Context) (total, approved, pending, rejected int64, err error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'Approved'),
			COUNT(*) FILTER (WHERE status = 'Pending'),
			COUNT(*) FILTER (WHERE status = 'Rejected')
		FROM bookings
	`
	row := r.db.QueryRowContext(ctx, query)
	if err = row.Scan(&total, &approved, &pending, &rejected); err != nil {
		err = fmt.Errorf("failed to count bookings: %w", err)
	}
	return
}

func (r *bookingRepository) Upcoming(ctx context.Context, from time.Time, limit int) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE date >= $1 ORDER BY date ASC LIMIT $2`

	var bookings []*model.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, from, limit); err != nil {
		return nil, fmt.Errorf("failed to list upcoming bookings: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) CreatedSince(ctx context.Context, since time.Time) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE created_at >= $1 ORDER BY created_at ASC`

	var bookings []*model.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, since); err != nil {
		return nil, fmt.Errorf("failed to list recent bookings: %w", err)
	}
	return bookings, nil
}
