// Package service contains the application's business logic.
package service

import (
	"context"

	"photogram/internal/logging"
	"photogram/internal/models"
	"photogram/internal/observability"
	"photogram/internal/repository"
	"photogram/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration and credential verification.
type AuthService struct {
	userRepo repository.UserRepository
	audit    *logging.AuditLogger
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Username        string
	Password        string
	ConfirmPassword string
}

func NewAuthService(userRepo repository.UserRepository, audit *logging.AuditLogger) *AuthService {
	return &AuthService{userRepo: userRepo, audit: audit}
}

// Register creates a new account. On success the caller is expected to
// establish a session (auto-login after registration).
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Username == "" || in.Password == "" || in.ConfirmPassword == "" {
		return nil, models.NewValidationError("All fields are required")
	}
	if in.Password != in.ConfirmPassword {
		return nil, models.NewValidationError("Passwords do not match")
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.audit.SecurityEvent(ctx, "duplicate_registration",
			"Registration attempt with existing username", map[string]any{
				"username": in.Username,
			})
		return nil, models.NewValidationError("Username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:     in.Username,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Registration(ctx, user.ID, user.Username)
	observability.RegistrationsTotal.Inc()
	return user, nil
}

// Login verifies the supplied credentials against the stored bcrypt hash.
// The comparison is constant-time, and the failure message never says
// whether the username or the password was wrong.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		s.audit.LoginAttempt(ctx, username, 0, false, logging.ReasonMissingCredentials)
		observability.LoginFailures.WithLabelValues(logging.ReasonMissingCredentials).Inc()
		return nil, models.NewValidationError("Username and password required")
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.audit.LoginAttempt(ctx, username, 0, false, logging.ReasonInvalidCredentials)
		observability.LoginFailures.WithLabelValues(logging.ReasonInvalidCredentials).Inc()
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	s.audit.LoginAttempt(ctx, username, user.ID, true, "")
	return user, nil
}

// Logout records the session teardown for the audit trail. The session
// itself is destroyed by the caller.
func (s *AuthService) Logout(ctx context.Context, user *models.User) {
	if user != nil {
		s.audit.Logout(ctx, user.ID, user.Username)
	}
}
