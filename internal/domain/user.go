package domain

import (
	"strings"
	"time"
)

const (
	RoleUser      = "USER"
	RoleModerator = "MODERATOR"
	RoleAdmin     = "ADMIN"
)

// User is an identity record. Email is stored normalized (trimmed, lowercased)
// and is unique across all users; Enabled stays false until the email OTP is
// confirmed.
type User struct {
	UserID       string     `json:"id" dynamodbav:"user_id"`
	Name         string     `json:"name" dynamodbav:"name"`
	Email        string     `json:"email" dynamodbav:"email"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	PhoneNumber  *string    `json:"phone_number,omitempty" dynamodbav:"phone_number"`
	Role         string     `json:"role" dynamodbav:"role"`
	Enabled      bool       `json:"enabled" dynamodbav:"enabled"`
	LastLogin    *time.Time `json:"last_login,omitempty" dynamodbav:"last_login"`
	CreatedAt    time.Time  `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" dynamodbav:"updated_at"`
}

type RegisterRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=8,max=72"`
	PhoneNumber *string `json:"phone_number"`
}

type VerifyOTPRequest struct {
	Email   string `json:"email" validate:"required,email"`
	OTPCode string `json:"otp_code" validate:"required,len=6"`
}

type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// NormalizeEmail applies the canonical form used everywhere an email is stored
// or used as a lookup/OTP key: trimmed and lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
