package dashboard

import (
	"context"
	"time"

	"github.com/clinicbook/booking-api/internal/model"
	"github.com/clinicbook/booking-api/internal/repository"
	"github.com/clinicbook/booking-api/pkg/apperror"
)

const upcomingLimit = 3

type Service struct {
	bookingRepo repository.BookingRepository
	userRepo    repository.UserRepository
}

func NewService(bookingRepo repository.BookingRepository, userRepo repository.UserRepository) *Service {
	return &Service{bookingRepo: bookingRepo, userRepo: userRepo}
}

func (s *Service) Stats(ctx context.Context) (*model.DashboardStats, error) {
	total, approved, pending, rejected, err := s.bookingRepo.StatusCounts(ctx)
	if err != nil {
		return nil, apperror.Storage(err)
	}

	doctors, err := s.userRepo.CountByRole(ctx, model.RoleDoctor)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	patients, err := s.userRepo.CountByRole(ctx, model.RolePatient)
	if err != nil {
		return nil, apperror.Storage(err)
	}

	upcoming, err := s.bookingRepo.Upcoming(ctx, time.Now(), upcomingLimit)
	if err != nil {
		return nil, apperror.Storage(err)
	}

	return &model.DashboardStats{
		TotalAppointments: total,
		Approved:          approved,
		Pending:           pending,
		Rejected:          rejected,
		TotalDoctors:      doctors,
		TotalPatients:     patients,
		Upcoming:          upcoming,
	}, nil
}

// WeeklyAppointments buckets the bookings created over the last seven days by
// weekday, Sunday first.
func (s *Service) WeeklyAppointments(ctx context.Context) ([]*model.WeeklyCount, error) {
	since := time.Now().Truncate(24 * time.Hour).AddDate(0, 0, -6)
	bookings, err := s.bookingRepo.CreatedSince(ctx, since)
	if err != nil {
		return nil, apperror.Storage(err)
	}

	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	counts := make([]*model.WeeklyCount, len(days))
	for i, day := range days {
		counts[i] = &model.WeeklyCount{Day: day}
	}
	for _, b := range bookings {
		counts[int(b.CreatedAt.Weekday())].Count++
	}
	return counts, nil
}
