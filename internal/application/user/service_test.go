package user

import (
	"context"
	"testing"

	"github.com/bitjob/backend/internal/application/verification"
	"github.com/bitjob/backend/internal/domain"
	jwtinfra "github.com/bitjob/backend/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
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
func (m *mockUserStore) TouchLastLogin(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) IsVerified(ctx context.Context, email string, p verification.Purpose) (bool, error) {
	args := m.Called(ctx, email, p)
	return args.Bool(0), args.Error(1)
}
func (m *mockVerifier) ConsumeKeys(ctx context.Context, email string, p verification.Purpose) error {
	return m.Called(ctx, email, p).Error(0)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) SignPair(userID, username, role string) (*jwtinfra.TokenPair, error) {
	args := m.Called(userID, username, role)
	if p, _ := args.Get(0).(*jwtinfra.TokenPair); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSigner) SignAccess(userID, username, role string) (string, error) {
	args := m.Called(userID, username, role)
	return args.String(0), args.Error(1)
}
func (m *mockSigner) VerifyRefresh(tokenStr string) (*jwtinfra.Claims, error) {
	args := m.Called(tokenStr)
	if c, _ := args.Get(0).(*jwtinfra.Claims); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func newService(repo *mockUserStore, v *mockVerifier, signer *mockSigner) Service {
	return NewService(ServiceDeps{UserRepo: repo, Verifier: v, Tokens: signer})
}

func hashOf(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

var registerReq = domain.RegisterUserRequest{
	Username:        "alice",
	Email:           "alice@test.com",
	Password:        "Strong_password1",
	ConfirmPassword: "Strong_password1",
}

// --- Register ---

func TestRegister_Success(t *testing.T) {
	repo := &mockUserStore{}
	v := &mockVerifier{}
	signer := &mockSigner{}
	repo.On("GetByEmail", mock.Anything, "alice@test.com").Return(nil, domain.ErrNotFound)
	repo.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	v.On("IsVerified", mock.Anything, "alice@test.com", verification.PurposeRegistration).Return(true, nil)
	repo.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	v.On("ConsumeKeys", mock.Anything, "alice@test.com", verification.PurposeRegistration).Return(nil)
	signer.On("SignPair", mock.Anything, "alice", domain.RoleUser).
		Return(&jwtinfra.TokenPair{Access: "a", Refresh: "r"}, nil)

	u, pair, err := newService(repo, v, signer).Register(context.Background(), registerReq)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.NotEmpty(t, u.UserID)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("Strong_password1")))
	assert.Equal(t, "a", pair.Access)
	v.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestRegister_PasswordMismatch(t *testing.T) {
	req := registerReq
	req.ConfirmPassword = "Different_password1"

	_, _, err := newService(&mockUserStore{}, &mockVerifier{}, &mockSigner{}).
		Register(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestRegister_WeakPasswordRejectedBeforeStoreLookups(t *testing.T) {
	req := registerReq
	req.Password = "Password"
	req.ConfirmPassword = "Password"

	// No store expectations: a weak password must short-circuit.
	_, _, err := newService(&mockUserStore{}, &mockVerifier{}, &mockSigner{}).
		Register(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestRegister_EmailTaken(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("GetByEmail", mock.Anything, "alice@test.com").
		Return(&domain.User{UserID: "u1", Email: "alice@test.com"}, nil)

	_, _, err := newService(repo, &mockVerifier{}, &mockSigner{}).
		Register(context.Background(), registerReq)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestRegister_UnverifiedEmail(t *testing.T) {
	repo := &mockUserStore{}
	v := &mockVerifier{}
	repo.On("GetByEmail", mock.Anything, "alice@test.com").Return(nil, domain.ErrNotFound)
	repo.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	v.On("IsVerified", mock.Anything, "alice@test.com", verification.PurposeRegistration).Return(false, nil)

	_, _, err := newService(repo, v, &mockSigner{}).Register(context.Background(), registerReq)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

// --- Login / Refresh ---

func TestLogin_Success(t *testing.T) {
	repo := &mockUserStore{}
	signer := &mockSigner{}
	stored := &domain.User{UserID: "u1", Username: "alice", Role: domain.RoleUser,
		Email: "alice@test.com", PasswordHash: hashOf(t, "Strong_password1")}
	repo.On("GetByEmail", mock.Anything, "alice@test.com").Return(stored, nil)
	repo.On("TouchLastLogin", mock.Anything, "u1").Return(nil)
	signer.On("SignPair", "u1", "alice", domain.RoleUser).
		Return(&jwtinfra.TokenPair{Access: "a", Refresh: "r"}, nil)

	u, pair, err := newService(repo, &mockVerifier{}, signer).
		Login(context.Background(), "alice@test.com", "Strong_password1")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
	assert.Equal(t, "r", pair.Refresh)
	repo.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("GetByEmail", mock.Anything, "alice@test.com").
		Return(&domain.User{UserID: "u1", PasswordHash: hashOf(t, "Strong_password1")}, nil)

	_, _, err := newService(repo, &mockVerifier{}, &mockSigner{}).
		Login(context.Background(), "alice@test.com", "Wrong_password1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	repo.AssertNotCalled(t, "TouchLastLogin", mock.Anything, mock.Anything)
}

func TestLogin_UnknownEmail(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("GetByEmail", mock.Anything, "ghost@test.com").Return(nil, domain.ErrNotFound)

	_, _, err := newService(repo, &mockVerifier{}, &mockSigner{}).
		Login(context.Background(), "ghost@test.com", "whatever")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRefresh_ReissuesAccessFromCurrentRecord(t *testing.T) {
	repo := &mockUserStore{}
	signer := &mockSigner{}
	signer.On("VerifyRefresh", "refresh-token").
		Return(&jwtinfra.Claims{UserID: "u1", Username: "alice", Role: domain.RoleUser}, nil)
	repo.On("Get", mock.Anything, "u1").
		Return(&domain.User{UserID: "u1", Username: "alice", Role: domain.RoleAdmin}, nil)
	signer.On("SignAccess", "u1", "alice", domain.RoleAdmin).Return("new-access", nil)

	access, err := newService(repo, &mockVerifier{}, signer).
		Refresh(context.Background(), "refresh-token")
	require.NoError(t, err)
	assert.Equal(t, "new-access", access)
}

func TestRefresh_BadToken(t *testing.T) {
	signer := &mockSigner{}
	signer.On("VerifyRefresh", "garbage").Return(nil, assert.AnError)

	_, err := newService(&mockUserStore{}, &mockVerifier{}, signer).
		Refresh(context.Background(), "garbage")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// --- ResetPassword / ChangePassword ---

func TestResetPassword_Success(t *testing.T) {
	repo := &mockUserStore{}
	v := &mockVerifier{}
	v.On("IsVerified", mock.Anything, "alice@test.com", verification.PurposeForgetPassword).Return(true, nil)
	repo.On("GetByEmail", mock.Anything, "alice@test.com").Return(&domain.User{UserID: "u1"}, nil)
	repo.On("Update", mock.Anything, "u1", mock.MatchedBy(func(m map[string]interface{}) bool {
		_, ok := m[fieldPasswordHash]
		return ok && len(m) == 1
	})).Return(nil)
	v.On("ConsumeKeys", mock.Anything, "alice@test.com", verification.PurposeForgetPassword).Return(nil)

	err := newService(repo, v, &mockSigner{}).ResetPassword(context.Background(), domain.ResetPasswordRequest{
		Email:           "alice@test.com",
		Password:        "Strong_password1",
		ConfirmPassword: "Strong_password1",
	})
	require.NoError(t, err)
	v.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestResetPassword_WithoutVerifiedMarker(t *testing.T) {
	v := &mockVerifier{}
	v.On("IsVerified", mock.Anything, "alice@test.com", verification.PurposeForgetPassword).Return(false, nil)

	err := newService(&mockUserStore{}, v, &mockSigner{}).
		ResetPassword(context.Background(), domain.ResetPasswordRequest{
			Email:           "alice@test.com",
			Password:        "Strong_password1",
			ConfirmPassword: "Strong_password1",
		})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Contains(t, err.Error(), "has not been verified")
}

func TestChangePassword_WrongPrevious(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("Get", mock.Anything, "u1").
		Return(&domain.User{UserID: "u1", PasswordHash: hashOf(t, "Old_password1")}, nil)

	err := newService(repo, &mockVerifier{}, &mockSigner{}).
		ChangePassword(context.Background(), "u1", domain.ChangePasswordRequest{
			PreviousPassword: "Not_the_old_one1",
			Password:         "Strong_password1",
			ConfirmPassword:  "Strong_password1",
		})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestChangePassword_Success(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("Get", mock.Anything, "u1").
		Return(&domain.User{UserID: "u1", PasswordHash: hashOf(t, "Old_password1")}, nil)
	repo.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)

	err := newService(repo, &mockVerifier{}, &mockSigner{}).
		ChangePassword(context.Background(), "u1", domain.ChangePasswordRequest{
			PreviousPassword: "Old_password1",
			Password:         "Strong_password1",
			ConfirmPassword:  "Strong_password1",
		})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

// --- profile ---

func TestUpdate_UsernameTakenByOther(t *testing.T) {
	repo := &mockUserStore{}
	taken := "bob"
	repo.On("GetByUsername", mock.Anything, "bob").
		Return(&domain.User{UserID: "other", Username: "bob"}, nil)

	_, err := newService(repo, &mockVerifier{}, &mockSigner{}).
		Update(context.Background(), "u1", domain.UpdateUserRequest{Username: &taken})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestUpdate_SameUsernameIsNoConflict(t *testing.T) {
	repo := &mockUserStore{}
	same := "alice"
	repo.On("GetByUsername", mock.Anything, "alice").
		Return(&domain.User{UserID: "u1", Username: "alice"}, nil)
	repo.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)
	repo.On("Get", mock.Anything, "u1").
		Return(&domain.User{UserID: "u1", Username: "alice"}, nil)

	_, err := newService(repo, &mockVerifier{}, &mockSigner{}).
		Update(context.Background(), "u1", domain.UpdateUserRequest{Username: &same})
	require.NoError(t, err)
}

func TestUpdate_EmptyRequestReturnsCurrent(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)

	u, err := newService(repo, &mockVerifier{}, &mockSigner{}).
		Update(context.Background(), "u1", domain.UpdateUserRequest{})
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestDelete_AlwaysRefused(t *testing.T) {
	err := newService(&mockUserStore{}, &mockVerifier{}, &mockSigner{}).
		Delete(context.Background(), "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}
