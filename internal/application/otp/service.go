package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/go-identity-api/internal/domain"
	"github.com/go-identity-api/internal/infrastructure/smtp"
)

// Service issues, verifies and invalidates purpose-scoped one-time codes.
//
// Codes live in the TTL store under otp:{purpose}:{email}; issuing overwrites
// any live code for the same pair, so at most one code per (email, purpose) is
// ever valid. Verification consumes the code atomically via the store's
// compare-and-delete, so a code can succeed at most once even under
// concurrent verify calls.
type Service interface {
	Issue(ctx context.Context, email string, purpose domain.OTPPurpose) error
	Verify(ctx context.Context, email, code string, purpose domain.OTPPurpose) (bool, error)
	MarkVerified(ctx context.Context, email string, purpose domain.OTPPurpose) error
	IsVerified(ctx context.Context, email string, purpose domain.OTPPurpose) (bool, error)
}

type ttlStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	CompareAndDelete(ctx context.Context, key, expected string) (bool, error)
}

type service struct {
	store  ttlStore
	mailer smtp.Mailer
	expiry time.Duration
}

func NewService(store ttlStore, mailer smtp.Mailer, expiry time.Duration) Service {
	return &service{store: store, mailer: mailer, expiry: expiry}
}

// Issue generates a fresh 6-digit code for (email, purpose), stores it with
// the configured TTL and emails it. Re-issuing is the same operation: the
// overwrite invalidates whatever code was live before. A mail delivery
// failure is logged and swallowed — the code is already stored, so the user
// can still be helped via a resend.
func (s *service) Issue(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	normalized := domain.NormalizeEmail(email)

	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	if err := s.store.Set(ctx, domain.OTPKey(purpose, normalized), code, s.expiry); err != nil {
		return err
	}

	body := fmt.Sprintf(
		"Hello,\n\nYour verification code is: %s\n\nThis code will expire in %d minutes.\n\nIf you did not request this, you can ignore this email.\n",
		code, int(s.expiry.Minutes()),
	)
	if err := s.mailer.SendEmail(normalized, "Your verification code", body); err != nil {
		slog.Error("failed to send OTP email", "email", normalized, "purpose", purpose, "err", err)
	}
	return nil
}

// Verify consumes the live code for (email, purpose). It returns false for a
// missing, expired or mismatched code — the three are indistinguishable to the
// caller. A mismatch leaves the stored code intact, so the user may retry
// until it expires; a match deletes it in the same store call.
func (s *service) Verify(ctx context.Context, email, code string, purpose domain.OTPPurpose) (bool, error) {
	normalized := domain.NormalizeEmail(email)
	return s.store.CompareAndDelete(ctx, domain.OTPKey(purpose, normalized), code)
}

// MarkVerified records that the OTP step for (email, purpose) completed, so a
// later flow step can check IsVerified instead of re-prompting for a code.
// The marker has its own TTL, independent of any code.
func (s *service) MarkVerified(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	normalized := domain.NormalizeEmail(email)
	return s.store.Set(ctx, domain.OTPVerifiedKey(purpose, normalized), "true", s.expiry)
}

func (s *service) IsVerified(ctx context.Context, email string, purpose domain.OTPPurpose) (bool, error) {
	normalized := domain.NormalizeEmail(email)
	v, err := s.store.Get(ctx, domain.OTPVerifiedKey(purpose, normalized))
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == "true", nil
}
