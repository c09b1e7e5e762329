package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending  BookingStatus = "Pending"
	BookingStatusApproved BookingStatus = "Approved"
	BookingStatusRejected BookingStatus = "Rejected"
)

// ValidStatus reports whether s is a member of the booking status enum.
func ValidStatus(s BookingStatus) bool {
	switch s {
	case BookingStatusPending, BookingStatusApproved, BookingStatusRejected:
		return true
	}
	return false
}

type Session string

const (
	SessionMorning   Session = "Morning"
	SessionAfternoon Session = "Afternoon"
)

func ValidSession(s Session) bool {
	return s == SessionMorning || s == SessionAfternoon
}

// Queue lines are fixed per session: 1 for Morning, 2 for Afternoon.
const (
	QueueLineMorning   = 1
	QueueLineAfternoon = 2
)

// QueueLineFor returns the queue line a session maps to.
func QueueLineFor(session Session) int {
	if session == SessionAfternoon {
		return QueueLineAfternoon
	}
	return QueueLineMorning
}

// Booking represents one appointment request. QueueLine and QueueNumber are
// NULL until the booking is approved; they are cleared again whenever the
// booking leaves the Approved status.
type Booking struct {
	Base
	FullName    string        `db:"full_name" json:"full_name"`
	Email       string        `db:"email" json:"email"`
	Department  string        `db:"department" json:"department"`
	Session     Session       `db:"session" json:"session"`
	Date        time.Time     `db:"date" json:"date"`
	Status      BookingStatus `db:"status" json:"status"`
	QueueLine   *int          `db:"queue_line" json:"queue_line,omitempty"`
	QueueNumber *int          `db:"queue_number" json:"queue_number,omitempty"`
	CreatedBy   uuid.UUID     `db:"created_by" json:"created_by"`
}

// BucketKey identifies the (date, session, department) group within which
// approved queue numbers must stay unique and dense.
func (b *Booking) BucketKey() string {
	return b.Date.Format("2006-01-02") + "|" + string(b.Session) + "|" + b.Department
}

type CreateBookingRequest struct {
	FullName   string `json:"full_name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Department string `json:"department" binding:"required,department"`
	Session    string `json:"session" binding:"required,oneof=Morning Afternoon"`
	Date       string `json:"date" binding:"required"`
}

// UpdateBookingRequest carries a partial field set: nil fields keep their
// prior values.
type UpdateBookingRequest struct {
	FullName   *string `json:"full_name"`
	Email      *string `json:"email" binding:"omitempty,email"`
	Department *string `json:"department" binding:"omitempty,department"`
	Session    *string `json:"session" binding:"omitempty,oneof=Morning Afternoon"`
	Date       *string `json:"date"`
}

// BookingPatch is the validated partial field set an edit writes. Only
// non-nil fields reach the database; a supplied Session also rewrites the
// queue line, nothing else ever does.
type BookingPatch struct {
	FullName   *string
	Email      *string
	Department *string
	Session    *Session
	Date       *time.Time
}

type UpdateStatusRequest struct {
	Status BookingStatus `json:"status" binding:"required"`
}

type BookingFilters struct {
	Email      string
	Status     BookingStatus
	Department string
	Session    Session
}
