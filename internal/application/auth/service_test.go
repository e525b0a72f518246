package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/go-identity-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

type mockOTPService struct{ mock.Mock }

func (m *mockOTPService) Issue(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	return m.Called(ctx, email, purpose).Error(0)
}
func (m *mockOTPService) Verify(ctx context.Context, email, code string, purpose domain.OTPPurpose) (bool, error) {
	args := m.Called(ctx, email, code, purpose)
	return args.Bool(0), args.Error(1)
}
func (m *mockOTPService) MarkVerified(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	return m.Called(ctx, email, purpose).Error(0)
}
func (m *mockOTPService) IsVerified(ctx context.Context, email string, purpose domain.OTPPurpose) (bool, error) {
	args := m.Called(ctx, email, purpose)
	return args.Bool(0), args.Error(1)
}

type mockHasher struct{ mock.Mock }

func (m *mockHasher) Hash(plain string) (string, error) {
	args := m.Called(plain)
	return args.String(0), args.Error(1)
}
func (m *mockHasher) Compare(hash, plain string) error {
	return m.Called(hash, plain).Error(0)
}

// --- helpers ---

func baseReq() domain.RegisterRequest {
	return domain.RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "Secret123!",
	}
}

func happyHasher() *mockHasher {
	h := &mockHasher{}
	h.On("Hash", mock.Anything).Return("$2a$10$hash", nil)
	return h
}

// --- Register tests ---

func TestRegister_DuplicateEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{}, nil)

	svc := NewService(us, &mockOTPService{}, happyHasher())
	_, err := svc.Register(context.Background(), baseReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	us.AssertExpectations(t)
}

func TestRegister_DuplicateEmail_CaseAndSpaceInsensitive(t *testing.T) {
	us := &mockUserStore{}
	// " Alice@Example.COM " must hit the same normalized record.
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{}, nil)

	svc := NewService(us, &mockOTPService{}, happyHasher())
	req := baseReq()
	req.Email = " Alice@Example.COM "
	_, err := svc.Register(context.Background(), req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	us.AssertExpectations(t)
}

func TestRegister_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	os := &mockOTPService{}
	os.On("Issue", mock.Anything, "alice@example.com", domain.PurposeEmailVerification).Return(nil)

	svc := NewService(us, os, happyHasher())
	u, err := svc.Register(context.Background(), baseReq())

	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.False(t, u.Enabled)
	assert.Equal(t, "$2a$10$hash", u.PasswordHash)
	assert.NotEmpty(t, u.UserID)
	us.AssertExpectations(t)
	os.AssertExpectations(t)
}

func TestRegister_NormalizesFields(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	var saved *domain.User
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*domain.User)
	}).Return(nil)
	os := &mockOTPService{}
	os.On("Issue", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewService(us, os, happyHasher())
	phone := " +31 6 1234 5678 "
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Name:        "  Alice  ",
		Email:       " Alice@Example.COM ",
		Password:    "Secret123!",
		PhoneNumber: &phone,
	})

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "Alice", saved.Name)
	assert.Equal(t, "alice@example.com", saved.Email)
	require.NotNil(t, saved.PhoneNumber)
	assert.Equal(t, "+31 6 1234 5678", *saved.PhoneNumber)
}

func TestRegister_WhitespacePhone_StoredAsAbsent(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	var saved *domain.User
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*domain.User)
	}).Return(nil)
	os := &mockOTPService{}
	os.On("Issue", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewService(us, os, happyHasher())
	phone := "   "
	req := baseReq()
	req.PhoneNumber = &phone
	_, err := svc.Register(context.Background(), req)

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Nil(t, saved.PhoneNumber)
}

func TestRegister_OTPIssueFailure_DoesNotFailRegistration(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.Anything).Return(nil)
	os := &mockOTPService{}
	os.On("Issue", mock.Anything, "alice@example.com", domain.PurposeEmailVerification).
		Return(errors.New("store unavailable"))

	svc := NewService(us, os, happyHasher())
	u, err := svc.Register(context.Background(), baseReq())

	// The account is committed; the user recovers via resend.
	require.NoError(t, err)
	assert.False(t, u.Enabled)
	os.AssertExpectations(t)
}

// --- ConfirmEmailOTP tests ---

func TestConfirmEmailOTP_InvalidCode(t *testing.T) {
	os := &mockOTPService{}
	os.On("Verify", mock.Anything, "alice@example.com", "123456", domain.PurposeEmailVerification).
		Return(false, nil)

	svc := NewService(&mockUserStore{}, os, happyHasher())
	err := svc.ConfirmEmailOTP(context.Background(), "alice@example.com", "123456")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOTP))
}

func TestConfirmEmailOTP_EnablesAccount(t *testing.T) {
	os := &mockOTPService{}
	os.On("Verify", mock.Anything, "alice@example.com", "123456", domain.PurposeEmailVerification).
		Return(true, nil)
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{UserID: "u1"}, nil)
	us.On("Update", mock.Anything, "u1", map[string]interface{}{"enabled": true}).Return(nil)

	svc := NewService(us, os, happyHasher())
	err := svc.ConfirmEmailOTP(context.Background(), "alice@example.com", "123456")

	require.NoError(t, err)
	us.AssertExpectations(t)
}

func TestConfirmEmailOTP_StoreFailureIsNotNotFound(t *testing.T) {
	os := &mockOTPService{}
	os.On("Verify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	us := &mockUserStore{}
	storeErr := errors.New("dynamodb: connection reset")
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, storeErr)

	svc := NewService(us, os, happyHasher())
	err := svc.ConfirmEmailOTP(context.Background(), "alice@example.com", "123456")

	// An infrastructure failure must stay an internal error, not become a 404.
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(err, storeErr))
}

func TestConfirmEmailOTP_MissingAccountIsIntegrityFault(t *testing.T) {
	os := &mockOTPService{}
	os.On("Verify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)

	svc := NewService(us, os, happyHasher())
	err := svc.ConfirmEmailOTP(context.Background(), "alice@example.com", "123456")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// --- ResendEmailOTP tests ---

func TestResendEmailOTP_UnknownAccount(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)

	svc := NewService(us, &mockOTPService{}, happyHasher())
	err := svc.ResendEmailOTP(context.Background(), "alice@example.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestResendEmailOTP_StoreFailureIsNotNotFound(t *testing.T) {
	us := &mockUserStore{}
	storeErr := errors.New("dynamodb: connection reset")
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, storeErr)

	svc := NewService(us, &mockOTPService{}, happyHasher())
	err := svc.ResendEmailOTP(context.Background(), "alice@example.com")

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(err, storeErr))
}

func TestResendEmailOTP_AlreadyVerified(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{Enabled: true}, nil)

	svc := NewService(us, &mockOTPService{}, happyHasher())
	err := svc.ResendEmailOTP(context.Background(), "alice@example.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAlreadyVerified))
}

func TestResendEmailOTP_Reissues(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{Enabled: false}, nil)
	os := &mockOTPService{}
	os.On("Issue", mock.Anything, "alice@example.com", domain.PurposeEmailVerification).Return(nil)

	svc := NewService(us, os, happyHasher())
	err := svc.ResendEmailOTP(context.Background(), "alice@example.com")

	require.NoError(t, err)
	os.AssertExpectations(t)
}

// --- RequestPasswordReset tests ---

func TestRequestPasswordReset_UnknownEmail_NoLeak(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrNotFound)
	os := &mockOTPService{}

	svc := NewService(us, os, happyHasher())
	err := svc.RequestPasswordReset(context.Background(), "ghost@example.com")

	// Same nil result as the existing-account path; no code issued.
	require.NoError(t, err)
	os.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestPasswordReset_UnverifiedAccount_NoLeak(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{Enabled: false}, nil)
	os := &mockOTPService{}

	svc := NewService(us, os, happyHasher())
	err := svc.RequestPasswordReset(context.Background(), "alice@example.com")

	require.NoError(t, err)
	os.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestPasswordReset_EnabledAccount_IssuesResetCode(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{Enabled: true}, nil)
	os := &mockOTPService{}
	os.On("Issue", mock.Anything, "alice@example.com", domain.PurposePasswordReset).Return(nil)

	svc := NewService(us, os, happyHasher())
	err := svc.RequestPasswordReset(context.Background(), " Alice@Example.com ")

	require.NoError(t, err)
	os.AssertExpectations(t)
}

// --- ConfirmPasswordResetOTP tests ---

func TestConfirmPasswordResetOTP_InvalidCode(t *testing.T) {
	os := &mockOTPService{}
	os.On("Verify", mock.Anything, "alice@example.com", "123456", domain.PurposePasswordReset).
		Return(false, nil)

	svc := NewService(&mockUserStore{}, os, happyHasher())
	err := svc.ConfirmPasswordResetOTP(context.Background(), "alice@example.com", "123456")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOTP))
	os.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmPasswordResetOTP_MarksVerified(t *testing.T) {
	os := &mockOTPService{}
	os.On("Verify", mock.Anything, "alice@example.com", "123456", domain.PurposePasswordReset).
		Return(true, nil)
	os.On("MarkVerified", mock.Anything, "alice@example.com", domain.PurposePasswordReset).Return(nil)

	svc := NewService(&mockUserStore{}, os, happyHasher())
	err := svc.ConfirmPasswordResetOTP(context.Background(), "alice@example.com", "123456")

	require.NoError(t, err)
	os.AssertExpectations(t)
}
