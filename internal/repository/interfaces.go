package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicbook/booking-api/internal/model"
)

// All repository interfaces in one file
type (
	// BookingRepository handles booking persistence. ApproveWithQueue is the
	// one mutation that must serialize per (date, session, department) bucket:
	// the high-water read and the queue-number write happen as one atomic step.
	BookingRepository interface {
		Create(ctx context.Context, booking *model.Booking) error
		Get(ctx context.Context, id uuid.UUID) (*model.Booking, error)
		// Update writes only the patch's supplied columns in one statement,
		// so a stale read can never overwrite fields the patch does not carry.
		Update(ctx context.Context, id uuid.UUID, patch *model.BookingPatch) (*model.Booking, error)
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.BookingFilters) ([]*model.Booking, error)
		// ApproveWithQueue sets status=Approved, queue_line=queueLine and
		// queue_number=1+max(queue_number of approved bookings in the same
		// bucket, this one excluded), all inside one bucket-serialized
		// transaction.
		ApproveWithQueue(ctx context.Context, id uuid.UUID, queueLine int) (*model.Booking, error)
		// SetStatus writes a non-Approved status and clears both queue fields.
		SetStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus) (*model.Booking, error)
		StatusCounts(ctx context.Context) (total, approved, pending, rejected int64, err error)
		Upcoming(ctx context.Context, from time.Time, limit int) ([]*model.Booking, error)
		CreatedSince(ctx context.Context, since time.Time) ([]*model.Booking, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, notification *model.Notification) error
		ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error)
		MarkRead(ctx context.Context, id, userID uuid.UUID) (*model.Notification, error)
		Delete(ctx context.Context, id, userID uuid.UUID) error
		Clear(ctx context.Context, userID uuid.UUID) error
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		GetDoctorByDepartment(ctx context.Context, department string) (*model.User, error)
		CountByRole(ctx context.Context, role string) (int64, error)
	}
)
