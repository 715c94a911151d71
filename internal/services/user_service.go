package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"taskpilot/backend/internal/cache"
	"taskpilot/backend/internal/models"
	"taskpilot/backend/internal/repositories"
)

type UserService interface {
	// FetchUsers is ListUsers with the backend error surfaced.
	FetchUsers(ctx context.Context) ([]models.User, error)
	ListUsers(ctx context.Context) []models.User
	GetUser(ctx context.Context, id string) (*models.User, error)
	AddUser(ctx context.Context, name, email string) (models.User, error)
	EnsureUserOnLogin(ctx context.Context, identity models.Identity) error
	UpdateUserProfile(ctx context.Context, userID, name string) error
}

type UserServiceImpl struct {
	repo repositories.UserRepository
	viewRefresher
}

func NewUserService(repo repositories.UserRepository, views cache.Invalidator) *UserServiceImpl {
	return &UserServiceImpl{
		repo:          repo,
		viewRefresher: newViewRefresher(views, nil),
	}
}

func (s *UserServiceImpl) FetchUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.List(ctx)
}

func (s *UserServiceImpl) ListUsers(ctx context.Context) []models.User {
	users, err := s.repo.List(ctx)
	if err != nil {
		log.Printf("Error fetching users: %v", err)
		return []models.User{}
	}
	return users
}

func (s *UserServiceImpl) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// AddUser invites a team member. Email must be unique.
func (s *UserServiceImpl) AddUser(ctx context.Context, name, email string) (models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return models.User{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return models.User{}, ErrUserExists
	case !errors.Is(err, repositories.ErrNotFound):
		return models.User{}, fmt.Errorf("failed to add user: %w", err)
	}

	user := newUser(newID(), strings.TrimSpace(name), email, "")
	if err := s.repo.Create(ctx, &user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return models.User{}, ErrUserExists
		}
		return models.User{}, fmt.Errorf("failed to add user: %w", err)
	}

	s.invalidate(ctx, cache.ViewTeam)
	return user, nil
}

// EnsureUserOnLogin records a signed-in identity the first time it is seen.
// Identities without an email are ignored.
func (s *UserServiceImpl) EnsureUserOnLogin(ctx context.Context, identity models.Identity) error {
	_, err := s.repo.Get(ctx, identity.ExternalID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	email := strings.TrimSpace(identity.Email)
	if email == "" {
		return nil
	}

	user := newUser(identity.ExternalID, strings.TrimSpace(identity.DisplayName), email, identity.PhotoURL)
	if err := s.repo.Create(ctx, &user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			// Invited under this email before signing in; the invite record stays.
			log.Printf("User %s signed in with an email already in the directory", identity.ExternalID)
			return nil
		}
		return fmt.Errorf("failed to register user: %w", err)
	}

	s.invalidate(ctx, cache.ViewTeam)
	return nil
}

func (s *UserServiceImpl) UpdateUserProfile(ctx context.Context, userID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	if err := s.repo.UpdateProfile(ctx, userID, name, models.Initials(name)); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}

	s.invalidate(ctx, cache.SettingsView(userID), cache.ViewTeam)
	return nil
}

func newUser(id, name, email, avatarURL string) models.User {
	name = models.DisplayNameFor(name, email)
	if avatarURL == "" {
		avatarURL = models.PlaceholderAvatar(name)
	}
	return models.User{
		ID:        id,
		Name:      name,
		Email:     email,
		AvatarURL: avatarURL,
		Initials:  models.Initials(name),
	}
}
