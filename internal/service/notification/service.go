package notification

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicbook/booking-api/internal/model"
	"github.com/clinicbook/booking-api/internal/repository"
	"github.com/clinicbook/booking-api/pkg/apperror"
	"github.com/clinicbook/booking-api/pkg/messaging"
)

// Channel notifications are published on for real-time delivery.
const eventChannel = "notifications"

type Service interface {
	Notify(ctx context.Context, userID, bookingID uuid.UUID, message string) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) (*model.Notification, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo   repository.NotificationRepository
	broker messaging.Broker
	logger zerolog.Logger
}

func NewService(repo repository.NotificationRepository, broker messaging.Broker, logger zerolog.Logger) Service {
	return &service{repo: repo, broker: broker, logger: logger}
}

// Notify appends the message to the user's notification log and publishes an
// event for connected clients. The publish is fire-and-forget: a broker
// failure is logged but the stored record stands.
func (s *service) Notify(ctx context.Context, userID, bookingID uuid.UUID, message string) error {
	notification := &model.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		BookingID: bookingID,
		Message:   message,
		Read:      false,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return apperror.Storage(err)
	}

	event := &model.NotificationEvent{
		ID:        notification.ID,
		UserID:    notification.UserID,
		BookingID: notification.BookingID,
		Message:   notification.Message,
		CreatedAt: notification.CreatedAt,
	}
	if err := s.broker.Publish(ctx, eventChannel, event); err != nil {
		s.logger.Warn().Err(err).
			Str("notification_id", notification.ID.String()).
			Msg("failed to publish notification event")
	}

	return nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error) {
	notifications, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return notifications, nil
}

func (s *service) MarkRead(ctx context.Context, id, userID uuid.UUID) (*model.Notification, error) {
	notification, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return nil, notificationErr(err)
	}
	return notification, nil
}

func (s *service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return notificationErr(err)
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return apperror.Storage(err)
	}
	return nil
}

func notificationErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("notification", err)
	}
	return apperror.Storage(err)
}
