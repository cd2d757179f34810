package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xrequests/xrequests/internal/model"
	"github.com/xrequests/xrequests/internal/repository"
	"github.com/xrequests/xrequests/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

// maxTokenAttempts bounds the session token collision retry loop. The
// storage-level unique index is the real guard; with 32 random bytes a
// second collision in a row means something is badly wrong.
const maxTokenAttempts = 5

type AuthService struct {
	userRepository  repository.UserRepository
	tokenRepository repository.TokenRepository
	emailService    *EmailService
	resetExpiry     time.Duration
}

func NewAuthService(
	userRepository repository.UserRepository,
	tokenRepository repository.TokenRepository,
	emailService *EmailService,
	resetExpiry time.Duration,
) *AuthService {
	return &AuthService{
		userRepository:  userRepository,
		tokenRepository: tokenRepository,
		emailService:    emailService,
		resetExpiry:     resetExpiry,
	}
}

// Register creates a new identified user and sends the welcome email.
func (s *AuthService) Register(username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))

	err := validation.ValidateUsername(username)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrMissingInput)
	}
	err = validation.ValidateEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrMissingInput)
	}
	err = validation.ValidatePassword(password)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrMissingInput)
	}

	_, err = s.userRepository.ByUsername(username)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	_, err = s.userRepository.ByEmail(email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        &email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	err = s.userRepository.Create(user)
	if err != nil {
		// Unique index backstop for a concurrent registration race
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrUsernameTaken
		}
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	err = s.emailService.SendWelcomeEmail(email, username)
	if err != nil {
		slog.Warn("failed to send welcome email", "error", err, "email", email)
	}

	slog.Info("user registered", "user_id", user.ID, "username", username)
	return user, nil
}

// Login verifies credentials and rotates the session token. Only the latest
// token is valid: a fresh login invalidates any previous session.
func (s *AuthService) Login(email, password string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	err = s.ComparePassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", ErrNotFound)
	}

	var token string
	for attempt := 0; ; attempt++ {
		token, err = s.GenerateToken()
		if err != nil {
			return nil, fmt.Errorf("failed to generate session token: %w", err)
		}

		err = s.userRepository.UpdateSessionToken(user.ID, token)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicateToken) && attempt < maxTokenAttempts {
			continue
		}
		return nil, fmt.Errorf("failed to store session token: %w", err)
	}

	user.SessionToken = &token
	slog.Info("user logged in", "user_id", user.ID)
	return user, nil
}

// ResolveActor maps an inbound token to the acting identity. An absent token
// resolves to the anonymous sentinel; a present token must match exactly one
// user.
func (s *AuthService) ResolveActor(token string) (*model.User, error) {
	if token == "" {
		return s.Anonymous()
	}

	user, err := s.userRepository.BySessionToken(token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("unknown session token: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to resolve actor: %w", err)
	}

	return user, nil
}

// RequireActor is ResolveActor for operations that an anonymous caller can
// never perform: an absent token is rejected outright.
func (s *AuthService) RequireActor(token string) (*model.User, error) {
	if token == "" {
		return nil, fmt.Errorf("missing session token: %w", ErrNotFound)
	}
	return s.ResolveActor(token)
}

// Anonymous returns the sentinel user seeded at migration time.
func (s *AuthService) Anonymous() (*model.User, error) {
	user, err := s.userRepository.Anonymous()
	if err != nil {
		return nil, fmt.Errorf("anonymous sentinel missing: %w", err)
	}
	return user, nil
}

// ForgotPassword mints a single-use reset token and mails the reset link.
// Unknown emails are a silent no-op so callers cannot probe for accounts.
func (s *AuthService) ForgotPassword(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			slog.Info("password reset requested for unknown email", "email", email)
			return nil
		}
		return fmt.Errorf("failed to check email: %w", err)
	}

	resetToken, err := s.GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	token := &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypePasswordReset,
		Token:     resetToken,
		ExpiresAt: time.Now().Add(s.resetExpiry),
	}
	err = s.tokenRepository.Create(token)
	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	err = s.emailService.SendResetPasswordEmail(email, user.Username, resetToken)
	if err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	slog.Info("password reset link sent", "user_id", user.ID)
	return nil
}

// ResetPassword consumes a reset token and stores the new password. The
// consume is a single atomic UPDATE, so a token can only ever be spent once.
func (s *AuthService) ResetPassword(newPassword, token string) error {
	err := validation.ValidatePassword(newPassword)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrMissingInput)
	}

	tokenModel, err := s.tokenRepository.ConsumeToken(token)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return fmt.Errorf("unknown or spent reset token: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to consume token: %w", err)
	}

	if tokenModel.Type != model.TokenTypePasswordReset {
		return fmt.Errorf("wrong token type: %w", ErrNotFound)
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.userRepository.UpdatePassword(tokenModel.UserID, hash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password reset", "user_id", tokenModel.UserID)
	return nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
