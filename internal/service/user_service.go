package service

import (
	"context"
	"fmt"

	"github.com/mont-sinai/chorale/internal/model"
	appErr "github.com/mont-sinai/chorale/internal/pkg/errors"
	"github.com/mont-sinai/chorale/internal/pkg/timeutil"
	"github.com/mont-sinai/chorale/internal/repo"
)

// ErrLastAdmin rejects demoting the only remaining administrator.
var ErrLastAdmin = fmt.Errorf("%w: last admin", appErr.ErrInvalid)

type UserService struct {
	users *repo.UserRepo
}

func NewUserService(users *repo.UserRepo) *UserService {
	return &UserService{users: users}
}

func (s *UserService) List(ctx context.Context, search string, limit, offset uint) ([]model.PublicUser, int, error) {
	users, err := s.users.List(ctx, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.users.Count(ctx, search)
	if err != nil {
		return nil, 0, err
	}
	items := make([]model.PublicUser, 0, len(users))
	for i := range users {
		items = append(items, users[i].Public())
	}
	return items, total, nil
}

// Team lists choriste accounts only, for the public roster. Admins are
// excluded regardless of search.
func (s *UserService) Team(ctx context.Context, search string) ([]model.PublicUser, error) {
	users, err := s.users.ListTeam(ctx, search)
	if err != nil {
		return nil, err
	}
	items := make([]model.PublicUser, 0, len(users))
	for i := range users {
		items = append(items, users[i].Public())
	}
	return items, nil
}

func (s *UserService) Get(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

type UserUpdateInput struct {
	Email    *string
	FullName *string
}

func (s *UserService) Update(ctx context.Context, userID string, input UserUpdateInput) (*model.User, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	if input.Email == nil && input.FullName == nil {
		return nil, appErr.ErrInvalid
	}
	if err := s.users.UpdateProfile(ctx, userID, input.Email, input.FullName, timeutil.NowUnix()); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

func (s *UserService) UpdateRole(ctx context.Context, userID, role string) (*model.User, error) {
	if !model.ValidRole(role) {
		return nil, appErr.ErrInvalid
	}
	existing, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing.Role == model.RoleAdmin && role != model.RoleAdmin {
		admins, err := s.users.CountByRole(ctx, model.RoleAdmin)
		if err != nil {
			return nil, err
		}
		if admins <= 1 {
			return nil, ErrLastAdmin
		}
	}
	if err := s.users.UpdateRole(ctx, userID, role, timeutil.NowUnix()); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

func (s *UserService) Delete(ctx context.Context, userID string) error {
	return s.users.Delete(ctx, userID)
}
