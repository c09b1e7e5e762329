package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an append-only per-user message created as a side effect of
// booking creation and status transitions. Only the Read flag is ever mutated.
type Notification struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	BookingID uuid.UUID `db:"booking_id" json:"booking_id"`
	Message   string    `db:"message" json:"message"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NotificationEvent is the payload published to the message broker when a
// notification record is written, for real-time delivery to clients.
type NotificationEvent struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	BookingID uuid.UUID `json:"booking_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
