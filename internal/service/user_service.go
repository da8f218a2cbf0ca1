package service

import (
	"context"
	"fmt"

	"github.com/hlchau/lucky-draw-system/internal/model"
)

// UserRepositoryInterface defines the user data access used by UserService.
type UserRepositoryInterface interface {
	List(ctx context.Context) ([]model.User, error)
	Insert(ctx context.Context, phone string) (*model.User, error)
	Delete(ctx context.Context, id int) error
}

// UserService provides business logic for user operations.
type UserService struct {
	userRepo UserRepositoryInterface
}

// NewUserService creates a new UserService.
func NewUserService(userRepo UserRepositoryInterface) *UserService {
	return &UserService{userRepo: userRepo}
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Create registers a user. Ids are server-assigned.
// Returns ErrPhoneExists when the phone number is already registered.
func (s *UserService) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	return s.userRepo.Insert(ctx, req.Phone)
}

// Delete removes a user by id.
// Returns ErrUserNotFound when no such user exists.
func (s *UserService) Delete(ctx context.Context, id int) error {
	return s.userRepo.Delete(ctx, id)
}
