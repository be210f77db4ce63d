package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dan9191/user-service/internal/models"
	"github.com/Dan9191/user-service/internal/repository"
	"github.com/sirupsen/logrus"
)

// ValidationError reports a malformed or incomplete user payload
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Service handles business logic
type Service struct {
	repo *repository.Repository
	log  *logrus.Logger
}

// NewService initializes a new service
func NewService(repo *repository.Repository, log *logrus.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Validate checks that both user fields are present and non-empty
func Validate(user models.User) error {
	if user.Name == "" {
		return &ValidationError{Field: "name", Reason: "field required"}
	}
	if user.Email == "" {
		return &ValidationError{Field: "email", Reason: "field required"}
	}
	return nil
}

// ListUsers returns all stored users
func (s *Service) ListUsers(ctx context.Context) ([]models.UserRecord, error) {
	return s.repo.ListAll(ctx)
}

// CreateUser validates and stores a new user
func (s *Service) CreateUser(ctx context.Context, user models.User) (*models.UserRecord, error) {
	if err := Validate(user); err != nil {
		return nil, err
	}

	rec, err := s.repo.Create(ctx, user)
	if err != nil {
		s.log.Errorf("Failed to create user: %v", err)
		return nil, err
	}

	s.log.Infof("User created: %d", rec.ID)
	return rec, nil
}

// UpdateUser replaces the name and email of user id
func (s *Service) UpdateUser(ctx context.Context, id int64, user models.User) (*models.UserRecord, error) {
	if err := Validate(user); err != nil {
		return nil, err
	}

	rec, err := s.repo.Update(ctx, id, user)
	if err != nil {
		s.logFailure("update", id, err)
		return nil, err
	}

	s.log.Infof("User updated: %d", rec.ID)
	return rec, nil
}

// DeleteUser removes user id
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logFailure("delete", id, err)
		return err
	}

	s.log.Infof("User deleted: %d", id)
	return nil
}

func (s *Service) logFailure(action string, id int64, err error) {
	entry := s.log.WithField("user_id", id)
	if errors.Is(err, repository.ErrNotFound) {
		entry.Infof("Cannot %s user: not found", action)
		return
	}
	entry.Errorf("Failed to %s user: %v", action, err)
}
