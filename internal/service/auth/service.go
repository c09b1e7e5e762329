package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicbook/booking-api/internal/model"
	"github.com/clinicbook/booking-api/internal/repository"
	"github.com/clinicbook/booking-api/pkg/apperror"
	"github.com/clinicbook/booking-api/pkg/auth"
	"github.com/clinicbook/booking-api/pkg/security"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	userRepo repository.UserRepository
	jwtSvc   auth.JWTService
	hasher   security.PasswordHasher
}

func NewService(userRepo repository.UserRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher) *Service {
	return &Service{userRepo: userRepo, jwtSvc: jwtSvc, hasher: hasher}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if req.Role == model.RoleDoctor {
		if req.Department == "" {
			return nil, apperror.Validation("department is required for doctors", nil)
		}
		if !model.ValidDepartment(req.Department) {
			return nil, apperror.Validation(fmt.Sprintf("unknown department %q", req.Department), nil)
		}
	}

	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperror.Validation("email already registered", nil)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.Storage(err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperror.Validation("invalid password", err)
	}

	user := &model.User{
		Base:         model.Base{ID: uuid.New()},
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if req.Role == model.RoleDoctor {
		dept := req.Department
		user.Department = &dept
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperror.Storage(err)
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.Authorization("invalid credentials", ErrInvalidCredentials)
		}
		return nil, apperror.Storage(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperror.Authorization("invalid credentials", ErrInvalidCredentials)
	}

	token, err := s.jwtSvc.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &model.TokenResponse{AccessToken: token, User: user}, nil
}
