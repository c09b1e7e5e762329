package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicbook/booking-api/internal/email"
	"github.com/clinicbook/booking-api/internal/model"
	"github.com/clinicbook/booking-api/internal/repository"
	"github.com/clinicbook/booking-api/pkg/apperror"
	"github.com/clinicbook/booking-api/pkg/metrics"
)

const dateLayout = "2006-01-02"

// Notifier appends an in-app message for one user. Failures are best-effort:
// the booking mutation that triggered the message is never rolled back.
type Notifier interface {
	Notify(ctx context.Context, userID, bookingID uuid.UUID, message string) error
}

// DoctorDirectory resolves the doctor responsible for a department.
type DoctorDirectory interface {
	ResolveDoctor(ctx context.Context, department string) (*model.User, error)
}

type Service struct {
	repo      repository.BookingRepository
	notifier  Notifier
	directory DoctorDirectory
	mailer    email.Service
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewService(repo repository.BookingRepository, notifier Notifier, directory DoctorDirectory, mailer email.Service, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		notifier:  notifier,
		directory: directory,
		mailer:    mailer,
		metrics:   m,
		logger:    logger,
	}
}

// CreateBooking validates the request, resolves the responsible doctor, writes
// the booking with status Pending and no queue fields, and notifies the doctor.
// Doctor resolution happens before the write: creation is all-or-nothing.
func (s *Service) CreateBooking(ctx context.Context, requesterID uuid.UUID, req *model.CreateBookingRequest) (*model.Booking, error) {
	if req.Date == "" {
		return nil, apperror.Validation("date is required", nil)
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, apperror.Validation(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", req.Date), err)
	}
	if !model.ValidDepartment(req.Department) {
		return nil, apperror.Validation(fmt.Sprintf("unknown department %q", req.Department), nil)
	}
	session := model.Session(req.Session)
	if !model.ValidSession(session) {
		return nil, apperror.Validation(fmt.Sprintf("invalid session %q", req.Session), nil)
	}

	doctor, err := s.directory.ResolveDoctor(ctx, req.Department)
	if err != nil {
		return nil, err
	}

	booking := &model.Booking{
		Base:       model.Base{ID: uuid.New()},
		FullName:   req.FullName,
		Email:      req.Email,
		Department: req.Department,
		Session:    session,
		Date:       date,
		Status:     model.BookingStatusPending,
		CreatedBy:  requesterID,
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, apperror.Storage(err)
	}
	s.metrics.BookingsCreated.Inc()

	message := fmt.Sprintf("New booking request from %s for %s on %s (%s session)",
		booking.FullName, booking.Department, booking.Date.Format(dateLayout), booking.Session)
	s.notify(ctx, doctor.ID, booking.ID, message)

	return booking, nil
}

func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	booking, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, bookingErr(err)
	}
	return booking, nil
}

// ListBookings returns all bookings for privileged requesters and only the
// requester's own (matched by email) otherwise.
func (s *Service) ListBookings(ctx context.Context, requesterEmail, requesterRole string) ([]*model.Booking, error) {
	filters := &model.BookingFilters{}
	if !model.PrivilegedRole(requesterRole) {
		filters.Email = requesterEmail
	}

	bookings, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return bookings, nil
}

// TransitionStatus applies the state machine to one booking. Entry into
// Approved allocates a queue position inside the bucket-serialized repository
// operation; every other target clears the queue fields. The patient is
// notified after the write, best-effort.
func (s *Service) TransitionStatus(ctx context.Context, id uuid.UUID, requested model.BookingStatus) (*model.Booking, error) {
	booking, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, bookingErr(err)
	}

	effects, err := Decide(booking.Status, requested)
	if err != nil {
		return nil, err
	}

	switch {
	case effects.AllocateQueue:
		start := time.Now()
		booking, err = s.repo.ApproveWithQueue(ctx, id, model.QueueLineFor(booking.Session))
		if err != nil {
			return nil, bookingErr(err)
		}
		s.metrics.QueueAllocations.Inc()
		s.metrics.QueueAllocationTime.Observe(time.Since(start).Seconds())
	case effects.ClearQueue:
		booking, err = s.repo.SetStatus(ctx, id, effects.Target)
		if err != nil {
			return nil, bookingErr(err)
		}
	}

	s.metrics.StatusTransitions.WithLabelValues(string(effects.Target)).Inc()

	if effects.Notify {
		message := fmt.Sprintf("Your booking for %s on %s has been %s",
			booking.Department, booking.Date.Format(dateLayout), effects.Target)
		s.notify(ctx, booking.CreatedBy, booking.ID, message)

		subject := fmt.Sprintf("Booking %s", effects.Target)
		if err := s.mailer.SendBookingStatus(ctx, booking.Email, subject, message); err != nil {
			s.logger.Warn().Err(err).Str("booking_id", booking.ID.String()).Msg("failed to send status email")
		}
	}

	return booking, nil
}

// EditBooking overwrites only the supplied fields, as one partial write so a
// concurrent approval cannot be clobbered by this read's snapshot. A supplied
// session recomputes the queue line whatever the current status is, and never
// touches the queue number.
func (s *Service) EditBooking(ctx context.Context, id uuid.UUID, requesterEmail, requesterRole string, req *model.UpdateBookingRequest) (*model.Booking, error) {
	booking, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, bookingErr(err)
	}

	if !model.PrivilegedRole(requesterRole) && booking.Email != requesterEmail {
		return nil, apperror.Authorization("cannot edit another patient's booking", nil)
	}

	if req.Department != nil && !model.ValidDepartment(*req.Department) {
		return nil, apperror.Validation(fmt.Sprintf("unknown department %q", *req.Department), nil)
	}

	patch := &model.BookingPatch{
		FullName:   req.FullName,
		Email:      req.Email,
		Department: req.Department,
	}
	if req.Session != nil {
		session := model.Session(*req.Session)
		if !model.ValidSession(session) {
			return nil, apperror.Validation(fmt.Sprintf("invalid session %q", *req.Session), nil)
		}
		patch.Session = &session
	}
	if req.Date != nil {
		parsed, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			return nil, apperror.Validation(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", *req.Date), err)
		}
		patch.Date = &parsed
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, bookingErr(err)
	}
	return updated, nil
}

// DeleteBooking removes the record permanently. Surviving bookings in the same
// bucket keep their queue numbers; gaps are accepted.
func (s *Service) DeleteBooking(ctx context.Context, id uuid.UUID, requesterRole string) error {
	if !model.PrivilegedRole(requesterRole) {
		return apperror.Authorization("only doctors and admins may delete bookings", nil)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return bookingErr(err)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, userID, bookingID uuid.UUID, message string) {
	if err := s.notifier.Notify(ctx, userID, bookingID, message); err != nil {
		s.metrics.NotificationFailures.Inc()
		s.logger.Error().Err(err).
			Str("user_id", userID.String()).
			Str("booking_id", bookingID.String()).
			Msg("failed to write notification")
		return
	}
	s.metrics.NotificationsSent.Inc()
}

func bookingErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("booking", err)
	}
	return apperror.Storage(err)
}
