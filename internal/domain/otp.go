package domain

// OTPPurpose distinguishes which flow a code or verified marker belongs to.
// Codes are stored under purpose-scoped keys so a code issued for one flow can
// never satisfy a check in another.
type OTPPurpose string

const (
	PurposeEmailVerification OTPPurpose = "EMAIL_VERIFICATION"
	PurposePasswordReset     OTPPurpose = "PASSWORD_RESET"
)

// OTPKey builds the storage key for a live code. The key is derived from the
// purpose and the normalized email, never from the code value.
func OTPKey(purpose OTPPurpose, normalizedEmail string) string {
	return "otp:" + string(purpose) + ":" + normalizedEmail
}

// OTPVerifiedKey builds the storage key for the verified marker that records a
// completed OTP step, in its own namespace with its own TTL.
func OTPVerifiedKey(purpose OTPPurpose, normalizedEmail string) string {
	return "otp_verified:" + string(purpose) + ":" + normalizedEmail
}
