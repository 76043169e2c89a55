package admin

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/3Eeeecho/go-divelog/internal/models"
	"github.com/3Eeeecho/go-divelog/internal/pkg/logger"
	"github.com/3Eeeecho/go-divelog/internal/pkg/xerr"
	"github.com/3Eeeecho/go-divelog/internal/repositories"
	"go.uber.org/zap"
)

const (
	MinSearchQueryLength = 2
	maxSearchResults     = 10
)

// ProfileUpdate is a partial profile edit; nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Bio       *string
}

type UserService interface {
	GetUserProfile(ctx context.Context, userID uint64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uint64, in ProfileUpdate) (*models.User, error)
	// DeactivateUser blocks login and hides the user from share lookups.
	// Users are never hard-deleted.
	DeactivateUser(ctx context.Context, userID uint64) error
	// SearchUsers finds share recipients by partial username or email. The
	// caller and deactivated users are never returned. Queries shorter than
	// MinSearchQueryLength yield no results.
	SearchUsers(ctx context.Context, userID uint64, query string) ([]models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
}

var _ UserService = (*userService)(nil)

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetUserProfile(ctx context.Context, userID uint64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		logger.Error("GetUserProfile: Error retrieving user from DB",
			zap.Uint64("userID", userID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	if user == nil {
		logger.Warn("GetUserProfile: User not found", zap.Uint64("userID", userID))
		return nil, xerr.ErrUserNotFound
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint64, in ProfileUpdate) (*models.User, error) {
	user, err := s.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

func (s *userService) DeactivateUser(ctx context.Context, userID uint64) error {
	user, err := s.GetUserProfile(ctx, userID)
	if err != nil {
		return err
	}
	if !user.IsActive() {
		return nil
	}
	user.Status = models.UserStatusDeactivated
	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	logger.Info("DeactivateUser: account deactivated", zap.Uint64("userID", userID))
	return nil
}

func (s *userService) SearchUsers(ctx context.Context, userID uint64, query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinSearchQueryLength {
		return []models.User{}, nil
	}
	users, err := s.userRepo.Search(ctx, query, userID, maxSearchResults)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}
