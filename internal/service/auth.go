// Package service contains the business logic layer: the auth workflow
// (signup, login, refresh, password reset) and the upload workflow.
//
// Handlers parse HTTP and translate errors; services enforce the rules
// and orchestrate repositories, the token service, and the media store.
// Services accept primitives and return domain errors — they have zero
// knowledge of HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/gallery-api/internal/apperror"
	"github.com/sakif/gallery-api/internal/auth"
	"github.com/sakif/gallery-api/internal/model"
	"github.com/sakif/gallery-api/internal/repository"
)

// invalidCredentials is the one message every credential failure maps
// to. Revealing whether the identifier or the password was wrong would
// let an attacker enumerate accounts.
const invalidCredentials = "invalid credentials"

// AuthService orchestrates the authentication workflows.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
	}
}

// SignupInput carries the signup form. All fields are required.
type SignupInput struct {
	Name            string
	Phone           string
	Email           string
	Password        string
	ConfirmPassword string
}

// Signup registers a new account.
//
// Signup deliberately does NOT issue tokens: the client is redirected to
// the login page and authenticates there. Keeping token minting in one
// place (login/refresh) means signup has no cookie side effects.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)

	if in.Name == "" || in.Phone == "" || in.Email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return nil, apperror.ValidationFailed("", "all fields are required")
	}
	if in.Password != in.ConfirmPassword {
		return nil, apperror.ValidationFailed("confirmPassword", "passwords do not match")
	}
	if err := auth.CheckPasswordPolicy(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         in.Name,
		Phone:        in.Phone,
		Email:        in.Email,
		PasswordHash: hash,
	}
	// The repository reports duplicate email/phone as ErrConflict off the
	// UNIQUE constraints — no racy pre-check needed here.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user",
			slog.String("email", in.Email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID))
	return user, nil
}

// Login authenticates by email or phone plus password and mints a token
// pair. Every failure after input validation is the same generic
// unauthorized error.
func (s *AuthService) Login(ctx context.Context, email, phone, password string) (*model.User, auth.TokenPair, error) {
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)

	if password == "" || (email == "" && phone == "") {
		return nil, auth.TokenPair{}, apperror.ValidationFailed("", "password and email or phone are required")
	}

	user, err := s.users.FindByEmailOrPhone(ctx, email, phone)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, auth.TokenPair{}, apperror.Unauthorized(invalidCredentials)
		}
		s.logger.Error("login lookup failed", slog.String("error", err.Error()))
		return nil, auth.TokenPair{}, fmt.Errorf("looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, auth.TokenPair{}, apperror.Unauthorized(invalidCredentials)
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Email)
	if err != nil {
		s.logger.Error("token issuance failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, auth.TokenPair{}, fmt.Errorf("issuing tokens: %w", err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return user, pair, nil
}

// Refresh rotates the session: a valid refresh token yields a brand-new
// access/refresh pair. The old refresh token is not tracked server-side
// (stateless sessions), so rotation is the only invalidation that
// happens — the new pair simply replaces the cookies.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.User, auth.TokenPair, error) {
	if refreshToken == "" {
		return nil, auth.TokenPair{}, apperror.Unauthorized(invalidCredentials)
	}

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, auth.TokenPair{}, apperror.Unauthorized(invalidCredentials)
	}

	// The account must still exist — a deleted user's refresh token is
	// cryptographically valid but useless.
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, auth.TokenPair{}, apperror.Unauthorized(invalidCredentials)
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Email)
	if err != nil {
		s.logger.Error("token issuance failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, auth.TokenPair{}, fmt.Errorf("issuing tokens: %w", err)
	}

	return user, pair, nil
}

// ResetPassword changes the caller's password after re-verifying the
// current one. Existing sessions stay valid until their tokens expire
// naturally — no re-issuance happens here.
func (s *AuthService) ResetPassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return apperror.ValidationFailed("", "current and new password are required")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.passwords.Verify(user.PasswordHash, currentPassword); err != nil {
		return apperror.Unauthorized(invalidCredentials)
	}

	if err := auth.CheckPasswordPolicy(newPassword); err != nil {
		return err
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		s.logger.Error("password update failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("updating password: %w", err)
	}

	s.logger.Info("password reset", slog.String("userID", userID))
	return nil
}
