package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicbook/booking-api/internal/email"
	"github.com/clinicbook/booking-api/internal/model"
	"github.com/clinicbook/booking-api/internal/repository"
	"github.com/clinicbook/booking-api/pkg/apperror"
	"github.com/clinicbook/booking-api/pkg/metrics"
)

// fakeBookingRepo keeps bookings in memory. ApproveWithQueue holds a single
// mutex across the high-water read and the write, matching the serialization
// the postgres implementation gets from its row and advisory locks.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*model.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*model.Booking)}
}

func (r *fakeBookingRepo) Create(_ context.Context, booking *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = time.Now()
	clone := *booking
	r.bookings[booking.ID] = &clone
	return nil
}

func (r *fakeBookingRepo) Get(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking not found: %w", sql.ErrNoRows)
	}
	clone := *booking
	return &clone, nil
}

func (r *fakeBookingRepo) Update(_ context.Context, id uuid.UUID, patch *model.BookingPatch) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking not found: %w", sql.ErrNoRows)
	}
	if patch.FullName != nil {
		stored.FullName = *patch.FullName
	}
	if patch.Email != nil {
		stored.Email = *patch.Email
	}
	if patch.Department != nil {
		stored.Department = *patch.Department
	}
	if patch.Session != nil {
		stored.Session = *patch.Session
		line := model.QueueLineFor(*patch.Session)
		stored.QueueLine = &line
	}
	if patch.Date != nil {
		stored.Date = *patch.Date
	}
	stored.UpdatedAt = time.Now()
	clone := *stored
	return &clone, nil
}

func (r *fakeBookingRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return fmt.Errorf("booking not found: %w", sql.ErrNoRows)
	}
	delete(r.bookings, id)
	return nil
}

func (r *fakeBookingRepo) List(_ context.Context, filters *model.BookingFilters) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Booking
	for _, b := range r.bookings {
		if filters != nil && filters.Email != "" && b.Email != filters.Email {
			continue
		}
		clone := *b
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeBookingRepo) ApproveWithQueue(_ context.Context, id uuid.UUID, queueLine int) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, ok := r.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking not found: %w", sql.ErrNoRows)
	}
	if booking.Status == model.BookingStatusApproved && booking.QueueNumber != nil {
		clone := *booking
		return &clone, nil
	}

	highest := 0
	for _, other := range r.bookings {
		if other.ID != id && other.Status == model.BookingStatusApproved &&
			other.QueueNumber != nil && other.BucketKey() == booking.BucketKey() &&
			*other.QueueNumber > highest {
			highest = *other.QueueNumber
		}
	}

	queueNumber := highest + 1
	booking.Status = model.BookingStatusApproved
	booking.QueueLine = &queueLine
	booking.QueueNumber = &queueNumber
	booking.UpdatedAt = time.Now()

	clone := *booking
	return &clone, nil
}

func (r *fakeBookingRepo) SetStatus(_ context.Context, id uuid.UUID, status model.BookingStatus) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking not found: %w", sql.ErrNoRows)
	}
	booking.Status = status
	booking.QueueLine = nil
	booking.QueueNumber = nil
	booking.UpdatedAt = time.Now()
	clone := *booking
	return &clone, nil
}

func (r *fakeBookingRepo) StatusCounts(context.Context) (total, approved, pending, rejected int64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		total++
		switch b.Status {
		case model.BookingStatusApproved:
			approved++
		case model.BookingStatusPending:
			pending++
		case model.BookingStatusRejected:
			rejected++
		}
	}
	return
}

func (r *fakeBookingRepo) Upcoming(context.Context, time.Time, int) ([]*model.Booking, error) {
	return nil, nil
}

func (r *fakeBookingRepo) CreatedSince(context.Context, time.Time) ([]*model.Booking, error) {
	return nil, nil
}

type recordedNotification struct {
	userID    uuid.UUID
	bookingID uuid.UUID
	message   string
}

type fakeNotifier struct {
	mu       sync.Mutex
	failWith error
	sent     []recordedNotification
}

func (n *fakeNotifier) Notify(_ context.Context, userID, bookingID uuid.UUID, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failWith != nil {
		return n.failWith
	}
	n.sent = append(n.sent, recordedNotification{userID: userID, bookingID: bookingID, message: message})
	return nil
}

type fakeDirectory struct {
	doctor *model.User
	err    error
}

func (d *fakeDirectory) ResolveDoctor(context.Context, string) (*model.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.doctor, nil
}

func newTestService(repo repository.BookingRepository, notifier *fakeNotifier, directory *fakeDirectory) *Service {
	m := metrics.NewMetricsWith(prometheus.NewRegistry(), "test")
	return NewService(repo, notifier, directory, email.NewNoopService(), m, zerolog.Nop())
}

func testDoctor() *model.User {
	return &model.User{Base: model.Base{ID: uuid.New()}, Role: model.RoleDoctor}
}

func createRequest() *model.CreateBookingRequest {
	return &model.CreateBookingRequest{
		FullName:   "Amara Obi",
		Email:      "amara@example.com",
		Department: "Cardiology",
		Session:    "Morning",
		Date:       "2026-09-14",
	}
}

func TestCreateBookingStartsPendingWithoutQueue(t *testing.T) {
	repo := newFakeBookingRepo()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier, &fakeDirectory{doctor: testDoctor()})

	booking, err := svc.CreateBooking(context.Background(), uuid.New(), createRequest())
	require.NoError(t, err)

	assert.Equal(t, model.BookingStatusPending, booking.Status)
	assert.Nil(t, booking.QueueLine)
	assert.Nil(t, booking.QueueNumber)
	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0].message, "New booking request")
}

func TestCreateBookingValidation(t *testing.T) {
	svc := newTestService(newFakeBookingRepo(), &fakeNotifier{}, &fakeDirectory{doctor: testDoctor()})
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*model.CreateBookingRequest)
	}{
		{"missing date", func(r *model.CreateBookingRequest) { r.Date = "" }},
		{"malformed date", func(r *model.CreateBookingRequest) { r.Date = "14-09-2026" }},
		{"unknown department", func(r *model.CreateBookingRequest) { r.Department = "Astrology" }},
		{"invalid session", func(r *model.CreateBookingRequest) { r.Session = "Evening" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createRequest()
			tt.mutate(req)
			_, err := svc.CreateBooking(ctx, uuid.New(), req)
			assert.True(t, apperror.IsKind(err, apperror.KindValidation), "got %v", err)
		})
	}
}

func TestCreateBookingFailsWhenNoDoctorAvailable(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, &fakeNotifier{},
		&fakeDirectory{err: apperror.Dependency("no doctor available for Cardiology", nil)})

	_, err := svc.CreateBooking(context.Background(), uuid.New(), createRequest())
	assert.True(t, apperror.IsKind(err, apperror.KindDependency))

	// Nothing was written.
	bookings, listErr := repo.List(context.Background(), nil)
	require.NoError(t, listErr)
	assert.Empty(t, bookings)
}

func TestApproveAllocatesQueuePosition(t *testing.T) {
	repo := newFakeBookingRepo()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier, &fakeDirectory{doctor: testDoctor()})
	ctx := context.Background()

	booking, err := svc.CreateBooking(ctx, uuid.New(), createRequest())
	require.NoError(t, err)

	approved, err := svc.TransitionStatus(ctx, booking.ID, model.BookingStatusApproved)
	require.NoError(t, err)

	assert.Equal(t, model.BookingStatusApproved, approved.Status)
	require.NotNil(t, approved.QueueLine)
	require.NotNil(t, approved.QueueNumber)
	assert.Equal(t, model.QueueLineMorning, *approved.QueueLine)
	assert.Equal(t, 1, *approved.QueueNumber)
}

func TestApproveAfternoonUsesLineTwo(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, &fakeNotifier{}, &fakeDirectory{doctor: testDoctor()})
	ctx := context.Background()

	req := createRequest()
	req.Session = "Afternoon"
	booking, err := svc.CreateBooking(ctx, uuid.New(), req)
	require.NoError(t, err)

	approved, err := svc.TransitionStatus(ctx, booking.ID, model.BookingStatusApproved)
	require.NoError(t, err)
	require.NotNil(t, approved.QueueLine)
	assert.Equal(t, model.QueueLineAfternoon, *approved.QueueLine)
}

func TestQueueNumbersAssignedPerBucket(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, &fakeNotifier{}, &fakeDirectory{doctor: testDoctor()})
	ctx := context.Background()

	// Two bookings in the same bucket, one in a different session.
	first, err := svc.CreateBooking(ctx, uuid.New(), createRequest())
	require.NoError(t, err)
	second, err := svc.CreateBooking(ctx, uuid.New(), createRequest())
	require.NoError(t, err)

	otherReq := createRequest()
	otherReq.Session = "Afternoon"
	other, err := svc.CreateBooking(ctx, uuid.New(), otherReq)
	require.NoError(t, err)

	a1, err := svc.TransitionStatus(ctx, first.ID, model.BookingStatusApproved)
	require.NoError(t, err)
	a2, err := svc.TransitionStatus(ctx, second.ID, model.BookingStatusApproved)
	require.NoError(t, err)
	a3, err := svc.TransitionStatus(ctx, other.ID, model.BookingStatusApproved)
	require.NoError(t, err)

	assert.Equal(t, 1, *a1.QueueNumber)
	assert.Equal(t, 2, *a2.QueueNumber)
	// Different bucket restarts at 1.
	assert.Equal(t, 1, *a3.QueueNumber)
}

func TestConcurrentApprovalsGetDistinctQueueNumbers(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, &fakeNotifier{}, &fakeDirectory{doctor: testDoctor()})
	ctx := context.Background()

	const n = 20
	ids := make([]uuid.UUID, n)
	for i := range ids {
		booking, err := svc.CreateBooking(ctx, uuid.New(), createRequest())
		require.NoError(t, err)
		ids[i] = booking.ID
	}

	var wg sync.WaitGroup
	results := make([]*model.Booking, n)
	errs := make([]error, n)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			results[i], errs[i] = svc.TransitionStatus(ctx, id, model.BookingStatusApproved)
		}(i, id)
	}
	wg.Wait()

	seen := make(map[int]bool, n)
	for i := range results {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i].QueueNumber)
		num := *results[i].QueueNumber
		assert.False(t, seen[num], "queue number %d assigned twice", num)
		seen[num] = true
	}
	// Dense: exactly 1..n.
	for want := 1; want <= n; want++ {
		assert.True(t, seen[want], "queue number %d missing", want)
	}
}

func TestConcurrentReapprovalsKeepTicketStable(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, &fakeNotifier{}, &fakeDirectory{doctor: testDoctor()})
	ctx := context.Background()

	booking, err := svc.CreateBooking(ctx, uuid.New(), createRequest())
	require.NoError(t, err)
	first, err := svc.TransitionStatus(ctx, booking.ID, model.BookingStatusApproved)
	require.NoError(t, err)
	ticket := *first.QueueNumber

	// Re-approvals of the held ticket race against fresh approvals in the
	// same bucket. The held ticket must come back unchanged every time.
	const n = 10
	others := make([]uuid.UUID, n)
	for i := range others {
		other, err := svc.CreateBooking(ctx, uuid.New(), createRequest())
		require.NoError(t, err)
		others[i] = other.ID
	}

	var wg sync.WaitGroup
	reapproved := make([]*model.Booking, n)
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			reapproved[i], _ = svc.TransitionStatus(ctx, booking.ID, model.BookingStatusApproved)
		}(i)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, _ = svc.TransitionStatus(ctx, id, model.BookingStatusApproved)
		}(others[i])
	}
	wg.Wait()

	for _, b := range reapproved {
		require.NotNil(t, b)
		require.NotNil(t, b.QueueNumber)
		assert.Equal(t, ticket, *b.QueueNumber)
	}

	// No two approved bookings in the bucket share a number.
	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	seen := make(map[int]bool)
	for _, b := range all {
		if b.QueueNumber == nil {
			continue
		}
		assert.False(t, seen[*b.QueueNumber], "queue number %d assigned twice", *b.QueueNumber)
		seen[*b.QueueNumber] = true
	}
}

func TestReapproveKeepsQueuePosition(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, &fakeNotifier{}, &fakeDirectory{doctor: testDoctor()})
	ctx := context.Background()

	booking, err := svc.CreateBooking(ctx, uuid.New(), createRequest())
	require.NoError(t, err)
	_, err = svc.CreateBooking(ctx, uuid.New(), createRequest())
	require.NoError(t, err)

	first, err := svc.TransitionStatus(ctx, booking.ID, model.BookingStatusApproved)
	require.NoError(t, err)
	again, err := svc.TransitionStatus(ctx, booking.ID, model.BookingStatusApproved)
	require.NoError(t, err)

	assert.Equal(t, *first.QueueNumber, *again.QueueNumber)
	assert.Equal(t, *first.QueueLine, *again.QueueLine)
}

func TestRejectClearsQueueFields(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, &fakeNotifier{}, &fakeDirectory{doctor: testDoctor()})
	ctx := context.Background()

	booking, err := svc.CreateBooking(ctx, uuid.New(), createRequest())
	require.NoError(t, err)

	_, err = svc.TransitionStatus(ctx, booking.ID, model.BookingStatusApproved)
	require.NoError(t, err)

	rejected, err := svc.TransitionStatus(ctx, booking.ID, model.BookingStatusRejected)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusRejected, rejected.Status)
	assert.Nil(t, rejected.QueueLine)
	assert.Nil(t, rejected.QueueNumber)
}

func TestReapproveAfterRejectionGetsNewPosition(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, &fakeNotifier{}, &fakeDirectory{doctor: testDoctor()})
	ctx := context.Background()

	first, err := svc.CreateBooking(ctx, uuid.New(), createRequest())
	require.NoError(t, err)
	second, err := svc.CreateBooking(ctx, uuid.New(), createRequest())
	require.NoError(t, err)

	_, err = svc.TransitionStatus(ctx, first.ID, model.BookingStatusApproved)
	require.NoError(t, err)
	_, err = svc.TransitionStatus(ctx, first.ID, model.BookingStatusRejected)
	require.NoError(t, err)

	// The second booking now takes position 1, then the first comes back at 2.
	a2, err := svc.TransitionStatus(ctx, second.ID, model.BookingStatusApproved)
	require.NoError(t, err)
	a1, err := svc.TransitionStatus(ctx, first.ID, model.BookingStatusApproved)
	require.NoError(t, err)

	assert.Equal(t, 1, *a2.QueueNumber)
	assert.Equal(t, 2, *a1.QueueNumber)
}

func TestTransitionInvalidStatus(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, &fakeNotifier{}, &fakeDirectory{doctor: testDoctor()})
	ctx := context.Background()

	booking, err := svc.CreateBooking(ctx, uuid.New(), createRequest())
	require.NoError(t, err)

	_, err = svc.TransitionStatus(ctx, booking.ID, model.BookingStatus("Done"))
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestTransitionUnknownBooking(t *testing.T) {
	svc := newTestService(newFakeBookingRepo(), &fakeNotifier{}, &fakeDirectory{doctor: testDoctor()})

	_, err := svc.TransitionStatus(context.Background(), uuid.New(), model.BookingStatusApproved)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestTransitionSurvivesNotifierFailure(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, &fakeNotifier{}, &fakeDirectory{doctor: testDoctor()})
	ctx := context.Background()

	booking, err := svc.CreateBooking(ctx, uuid.New(), createRequest())
	require.NoError(t, err)

	failing := &fakeNotifier{failWith: errors.New("broker down")}
	svc = newTestService(repo, failing, &fakeDirectory{doctor: testDoctor()})

	approved, err := svc.TransitionStatus(ctx, booking.ID, model.BookingStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusApproved, approved.Status)
	require.NotNil(t, approved.QueueNumber)
}

func TestEditSessionRecomputesQueueLineOnly(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, &fakeNotifier{}, &fakeDirectory{doctor: testDoctor()})
	ctx := context.Background()

	booking, err := svc.CreateBooking(ctx, uuid.New(), createRequest())
	require.NoError(t, err)
	approved, err := svc.TransitionStatus(ctx, booking.ID, model.BookingStatusApproved)
	require.NoError(t, err)
	require.Equal(t, model.QueueLineMorning, *approved.QueueLine)

	session := "Afternoon"
	edited, err := svc.EditBooking(ctx, booking.ID, "admin@clinic", model.RoleAdmin,
		&model.UpdateBookingRequest{Session: &session})
	require.NoError(t, err)

	require.NotNil(t, edited.QueueLine)
	assert.Equal(t, model.QueueLineAfternoon, *edited.QueueLine)
	// The queue number is left alone even though the session changed.
	require.NotNil(t, edited.QueueNumber)
	assert.Equal(t, *approved.QueueNumber, *edited.QueueNumber)
	assert.Equal(t, model.BookingStatusApproved, edited.Status)
}

func TestEditSessionOnPendingBookingStillSetsQueueLine(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, &fakeNotifier{}, &fakeDirectory{doctor: testDoctor()})
	ctx := context.Background()

	booking, err := svc.CreateBooking(ctx, uuid.New(), createRequest())
	require.NoError(t, err)

	session := "Afternoon"
	edited, err := svc.EditBooking(ctx, booking.ID, "admin@clinic", model.RoleAdmin,
		&model.UpdateBookingRequest{Session: &session})
	require.NoError(t, err)

	require.NotNil(t, edited.QueueLine)
	assert.Equal(t, model.QueueLineAfternoon, *edited.QueueLine)
	assert.Nil(t, edited.QueueNumber)
	assert.Equal(t, model.BookingStatusPending, edited.Status)
}

func TestEditPartialFieldsKeepOthers(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, &fakeNotifier{}, &fakeDirectory{doctor: testDoctor()})
	ctx := context.Background()

	booking, err := svc.CreateBooking(ctx, uuid.New(), createRequest())
	require.NoError(t, err)

	name := "Chidi Obi"
	edited, err := svc.EditBooking(ctx, booking.ID, booking.Email, model.RolePatient,
		&model.UpdateBookingRequest{FullName: &name})
	require.NoError(t, err)

	assert.Equal(t, "Chidi Obi", edited.FullName)
	assert.Equal(t, booking.Department, edited.Department)
	assert.Equal(t, booking.Session, edited.Session)
	assert.Nil(t, edited.QueueLine)
}

func TestEditEmitsNoNotification(t *testing.T) {
	repo := newFakeBookingRepo()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier, &fakeDirectory{doctor: testDoctor()})
	ctx := context.Background()

	booking, err := svc.CreateBooking(ctx, uuid.New(), createRequest())
	require.NoError(t, err)
	require.Len(t, notifier.sent, 1)

	name := "Chidi Obi"
	_, err = svc.EditBooking(ctx, booking.ID, booking.Email, model.RolePatient,
		&model.UpdateBookingRequest{FullName: &name})
	require.NoError(t, err)

	assert.Len(t, notifier.sent, 1)
}

// racingApprovalRepo approves the booking right after the edit reads it, so
// the edit's snapshot is stale by the time its write lands.
type racingApprovalRepo struct {
	*fakeBookingRepo
	once sync.Once
}

func (r *racingApprovalRepo) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	booking, err := r.fakeBookingRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.once.Do(func() {
		_, _ = r.fakeBookingRepo.ApproveWithQueue(ctx, id, model.QueueLineFor(booking.Session))
	})
	return booking, nil
}

func TestEditRacingApprovalKeepsQueueFields(t *testing.T) {
	inner := newFakeBookingRepo()
	repo := &racingApprovalRepo{fakeBookingRepo: inner}
	svc := newTestService(repo, &fakeNotifier{}, &fakeDirectory{doctor: testDoctor()})
	ctx := context.Background()

	seed := newTestService(inner, &fakeNotifier{}, &fakeDirectory{doctor: testDoctor()})
	booking, err := seed.CreateBooking(ctx, uuid.New(), createRequest())
	require.NoError(t, err)

	name := "Chidi Obi"
	edited, err := svc.EditBooking(ctx, booking.ID, booking.Email, model.RolePatient,
		&model.UpdateBookingRequest{FullName: &name})
	require.NoError(t, err)

	// The approval that landed between read and write survives the edit.
	assert.Equal(t, "Chidi Obi", edited.FullName)
	assert.Equal(t, model.BookingStatusApproved, edited.Status)
	require.NotNil(t, edited.QueueLine)
	require.NotNil(t, edited.QueueNumber)
	assert.Equal(t, 1, *edited.QueueNumber)
}

func TestEditRejectsOtherPatients(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, &fakeNotifier{}, &fakeDirectory{doctor: testDoctor()})
	ctx := context.Background()

	booking, err := svc.CreateBooking(ctx, uuid.New(), createRequest())
	require.NoError(t, err)

	name := "Mallory"
	_, err = svc.EditBooking(ctx, booking.ID, "mallory@example.com", model.RolePatient,
		&model.UpdateBookingRequest{FullName: &name})
	assert.True(t, apperror.IsKind(err, apperror.KindAuthorization))
}

func TestDeleteRequiresPrivilegedRole(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, &fakeNotifier{}, &fakeDirectory{doctor: testDoctor()})
	ctx := context.Background()

	booking, err := svc.CreateBooking(ctx, uuid.New(), createRequest())
	require.NoError(t, err)

	err = svc.DeleteBooking(ctx, booking.ID, model.RolePatient)
	assert.True(t, apperror.IsKind(err, apperror.KindAuthorization))

	err = svc.DeleteBooking(ctx, booking.ID, model.RoleDoctor)
	assert.NoError(t, err)
}

func TestDeleteLeavesQueueGap(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, &fakeNotifier{}, &fakeDirectory{doctor: testDoctor()})
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		booking, err := svc.CreateBooking(ctx, uuid.New(), createRequest())
		require.NoError(t, err)
		_, err = svc.TransitionStatus(ctx, booking.ID, model.BookingStatusApproved)
		require.NoError(t, err)
		ids = append(ids, booking.ID)
	}

	// Remove number 2; 1 and 3 keep their positions.
	require.NoError(t, svc.DeleteBooking(ctx, ids[1], model.RoleAdmin))

	first, err := svc.GetBooking(ctx, ids[0])
	require.NoError(t, err)
	third, err := svc.GetBooking(ctx, ids[2])
	require.NoError(t, err)
	assert.Equal(t, 1, *first.QueueNumber)
	assert.Equal(t, 3, *third.QueueNumber)

	// The next approval goes past the surviving 3; reusing the gap would
	// collide with a number already on a patient's ticket.
	next, err := svc.CreateBooking(ctx, uuid.New(), createRequest())
	require.NoError(t, err)
	approved, err := svc.TransitionStatus(ctx, next.ID, model.BookingStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, 4, *approved.QueueNumber)
	assert.NotEqual(t, *third.QueueNumber, *approved.QueueNumber)
}

func TestListBookingsScopedByRole(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, &fakeNotifier{}, &fakeDirectory{doctor: testDoctor()})
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, uuid.New(), createRequest())
	require.NoError(t, err)
	otherReq := createRequest()
	otherReq.Email = "someone-else@example.com"
	_, err = svc.CreateBooking(ctx, uuid.New(), otherReq)
	require.NoError(t, err)

	all, err := svc.ListBookings(ctx, "doctor@clinic", model.RoleDoctor)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := svc.ListBookings(ctx, "amara@example.com", model.RolePatient)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "amara@example.com", own[0].Email)
}

func TestStatusNotificationMessage(t *testing.T) {
	repo := newFakeBookingRepo()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier, &fakeDirectory{doctor: testDoctor()})
	ctx := context.Background()

	patientID := uuid.New()
	booking, err := svc.CreateBooking(ctx, patientID, createRequest())
	require.NoError(t, err)

	_, err = svc.TransitionStatus(ctx, booking.ID, model.BookingStatusApproved)
	require.NoError(t, err)

	require.Len(t, notifier.sent, 2)
	statusMsg := notifier.sent[1]
	assert.Equal(t, patientID, statusMsg.userID)
	assert.Contains(t, statusMsg.message, "Approved")
	assert.Contains(t, statusMsg.message, "Cardiology")
}
