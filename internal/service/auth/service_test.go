package auth

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicbook/booking-api/internal/model"
	"github.com/clinicbook/booking-api/pkg/apperror"
	"github.com/clinicbook/booking-api/pkg/auth"
	"github.com/clinicbook/booking-api/pkg/security"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", sql.ErrNoRows)
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("user not found: %w", sql.ErrNoRows)
}

func (r *fakeUserRepo) GetDoctorByDepartment(_ context.Context, department string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Role == model.RoleDoctor && user.Department != nil && *user.Department == department {
			clone := *user
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("doctor not found: %w", sql.ErrNoRows)
}

func (r *fakeUserRepo) CountByRole(_ context.Context, role string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, user := range r.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

func newTestService() (*Service, *fakeUserRepo) {
	repo := newFakeUserRepo()
	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	return NewService(repo, jwtSvc, hasher), repo
}

func registerRequest() *model.RegisterRequest {
	return &model.RegisterRequest{
		Name:     "Amara Obi",
		Email:    "amara@example.com",
		Password: "s3cret-pass",
		Role:     model.RolePatient,
	}
}

func TestRegisterPatient(t *testing.T) {
	svc, _ := newTestService()

	user, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	assert.Equal(t, model.RolePatient, user.Role)
	assert.Nil(t, user.Department)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
}

func TestRegisterDoctorRequiresDepartment(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	req := registerRequest()
	req.Role = model.RoleDoctor
	_, err := svc.Register(ctx, req)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	req.Department = "Back Office"
	_, err = svc.Register(ctx, req)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	req.Department = "Cardiology"
	user, err := svc.Register(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, user.Department)
	assert.Equal(t, "Cardiology", *user.Department)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerRequest())
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestLoginRoundTrip(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	tokens, err := svc.Login(ctx, &model.LoginRequest{
		Email:    "amara@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.Equal(t, registered.ID, tokens.User.ID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	_, err = svc.Login(ctx, &model.LoginRequest{Email: "amara@example.com", Password: "wrong-pass"})
	assert.True(t, apperror.IsKind(err, apperror.KindAuthorization))

	_, err = svc.Login(ctx, &model.LoginRequest{Email: "nobody@example.com", Password: "s3cret-pass"})
	assert.True(t, apperror.IsKind(err, apperror.KindAuthorization))
}
