package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-identity-api/internal/application/otp"
	"github.com/go-identity-api/internal/domain"
	"github.com/go-identity-api/internal/pkg/id"
	"github.com/go-identity-api/internal/pkg/password"
)

// Service coordinates account creation, email-OTP verification and the
// password-reset OTP flow. It owns the account state transitions; code
// issuance and verification are delegated to the OTP engine.
type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
	ConfirmEmailOTP(ctx context.Context, email, code string) error
	ResendEmailOTP(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordResetOTP(ctx context.Context, email, code string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type service struct {
	repo   userStore
	otpSvc otp.Service
	hasher password.Hasher
}

func NewService(repo userStore, otpSvc otp.Service, hasher password.Hasher) Service {
	return &service{repo: repo, otpSvc: otpSvc, hasher: hasher}
}

// Register creates a disabled account and sends the email-verification code.
// The account commit and the code issuance are deliberately not atomic: once
// the account is stored it stays stored, and an issuance failure only costs
// the user a resend.
func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	email := domain.NormalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	var phone *string
	if req.PhoneNumber != nil {
		if p := strings.TrimSpace(*req.PhoneNumber); p != "" {
			phone = &p
		}
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		PhoneNumber:  phone,
		Role:         domain.RoleUser,
		Enabled:      false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}

	if err := s.otpSvc.Issue(ctx, email, domain.PurposeEmailVerification); err != nil {
		slog.Error("failed to issue verification OTP after registration", "email", email, "err", err)
	}
	return u, nil
}

// ConfirmEmailOTP consumes the email-verification code and activates the
// account. An account missing after a successful verify is an integrity
// fault, not a retryable user error.
func (s *service) ConfirmEmailOTP(ctx context.Context, email, code string) error {
	ok, err := s.otpSvc.Verify(ctx, email, code, domain.PurposeEmailVerification)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("email verification failed: %w", domain.ErrInvalidOTP)
	}

	u, err := s.repo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("verified OTP for unknown account: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("load account: %w", err)
	}
	return s.repo.Update(ctx, u.UserID, map[string]interface{}{"enabled": true})
}

// ResendEmailOTP re-issues the verification code for an account that has not
// been activated yet. Already-enabled accounts are refused so a confirmed
// address cannot be spammed with codes.
func (s *service) ResendEmailOTP(ctx context.Context, email string) error {
	u, err := s.repo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no account for email: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("load account: %w", err)
	}
	if u.Enabled {
		return fmt.Errorf("account already verified: %w", domain.ErrAlreadyVerified)
	}
	return s.otpSvc.Issue(ctx, email, domain.PurposeEmailVerification)
}

// RequestPasswordReset is best-effort: the caller gets the same nil result
// whether or not the email maps to an active account, so responses never leak
// account existence. Only existing, enabled accounts get a code.
func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	normalized := domain.NormalizeEmail(email)
	u, err := s.repo.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.Debug("password reset requested for unknown email", "email", normalized)
			return nil
		}
		return err
	}
	if !u.Enabled {
		slog.Debug("password reset requested for unverified account", "email", normalized)
		return nil
	}
	return s.otpSvc.Issue(ctx, normalized, domain.PurposePasswordReset)
}

// ConfirmPasswordResetOTP consumes the reset code and leaves a verified
// marker so the subsequent set-new-password step can proceed without
// re-presenting the code.
func (s *service) ConfirmPasswordResetOTP(ctx context.Context, email, code string) error {
	ok, err := s.otpSvc.Verify(ctx, email, code, domain.PurposePasswordReset)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("password reset verification failed: %w", domain.ErrInvalidOTP)
	}
	return s.otpSvc.MarkVerified(ctx, email, domain.PurposePasswordReset)
}
