package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicbook/booking-api/internal/model"
	"github.com/clinicbook/booking-api/internal/repository"
)

type statsBookingRepo struct {
	repository.BookingRepository
	total, approved, pending, rejected int64
	upcoming                           []*model.Booking
	recent                             []*model.Booking
}

func (r *statsBookingRepo) StatusCounts(context.Context) (int64, int64, int64, int64, error) {
	return r.total, r.approved, r.pending, r.rejected, nil
}

func (r *statsBookingRepo) Upcoming(context.Context, time.Time, int) ([]*model.Booking, error) {
	return r.upcoming, nil
}

func (r *statsBookingRepo) CreatedSince(context.Context, time.Time) ([]*model.Booking, error) {
	return r.recent, nil
}

type countsUserRepo struct {
	repository.UserRepository
	doctors, patients int64
}

func (r *countsUserRepo) CountByRole(_ context.Context, role string) (int64, error) {
	if role == model.RoleDoctor {
		return r.doctors, nil
	}
	return r.patients, nil
}

func TestStats(t *testing.T) {
	upcoming := []*model.Booking{
		{FullName: "Amara Obi", Department: "Cardiology"},
		{FullName: "Chidi Obi", Department: "Dentistry"},
	}
	bookingRepo := &statsBookingRepo{
		total: 12, approved: 5, pending: 4, rejected: 3,
		upcoming: upcoming,
	}
	userRepo := &countsUserRepo{doctors: 3, patients: 40}

	svc := NewService(bookingRepo, userRepo)
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(12), stats.TotalAppointments)
	assert.Equal(t, int64(5), stats.Approved)
	assert.Equal(t, int64(4), stats.Pending)
	assert.Equal(t, int64(3), stats.Rejected)
	assert.Equal(t, int64(3), stats.TotalDoctors)
	assert.Equal(t, int64(40), stats.TotalPatients)
	assert.Len(t, stats.Upcoming, 2)
}

func TestWeeklyAppointmentsBucketsByWeekday(t *testing.T) {
	// A Sunday and two Wednesdays.
	sunday := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	wednesday := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)

	bookingRepo := &statsBookingRepo{recent: []*model.Booking{
		{Base: model.Base{CreatedAt: sunday}},
		{Base: model.Base{CreatedAt: wednesday}},
		{Base: model.Base{CreatedAt: wednesday.Add(2 * time.Hour)}},
	}}

	svc := NewService(bookingRepo, &countsUserRepo{})
	counts, err := svc.WeeklyAppointments(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 7)

	assert.Equal(t, "Sun", counts[0].Day)
	assert.Equal(t, int64(1), counts[0].Count)
	assert.Equal(t, "Wed", counts[3].Day)
	assert.Equal(t, int64(2), counts[3].Count)
	assert.Equal(t, int64(0), counts[1].Count)
}
