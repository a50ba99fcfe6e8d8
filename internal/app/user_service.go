package app

import (
	"context"

	"taskpay/internal/common"
	"taskpay/internal/domain/lookup"
	"taskpay/internal/domain/user"
)

type UserService struct {
	users user.Repository
}

func NewUserService(users user.Repository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Get(ctx context.Context, id common.UUID) (*user.User, error) {
	return s.users.GetByID(ctx, id)
}

type LookupService struct {
	lookups lookup.Repository
}

func NewLookupService(lookups lookup.Repository) *LookupService {
	return &LookupService{lookups: lookups}
}

func (s *LookupService) Categories(ctx context.Context) ([]lookup.Category, error) {
	return s.lookups.ListCategories(ctx)
}

func (s *LookupService) Locations(ctx context.Context) ([]lookup.Location, error) {
	return s.lookups.ListLocations(ctx)
}
