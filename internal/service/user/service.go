package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/clinicbook/booking-api/internal/model"
	"github.com/clinicbook/booking-api/internal/repository"
	"github.com/clinicbook/booking-api/pkg/apperror"
)

const (
	doctorCacheTTL     = 5 * time.Minute
	doctorCacheCleanup = 15 * time.Minute
)

// Service is the doctor directory: it answers which doctor is responsible for
// a department. Lookups are cached since the directory changes rarely.
type Service struct {
	repo  repository.UserRepository
	cache *cache.Cache
}

func NewService(repo repository.UserRepository) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(doctorCacheTTL, doctorCacheCleanup),
	}
}

// ResolveDoctor returns the doctor assigned to the department, or a dependency
// error when the clinic has none.
func (s *Service) ResolveDoctor(ctx context.Context, department string) (*model.User, error) {
	if cached, found := s.cache.Get(department); found {
		return cached.(*model.User), nil
	}

	doctor, err := s.repo.GetDoctorByDepartment(ctx, department)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.Dependency(fmt.Sprintf("no doctor available for %s", department), err)
		}
		return nil, apperror.Storage(err)
	}

	s.cache.Set(department, doctor, cache.DefaultExpiration)
	return doctor, nil
}
