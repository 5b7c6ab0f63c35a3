package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitjob/backend/internal/application/verification"
	"github.com/bitjob/backend/internal/domain"
	jwtinfra "github.com/bitjob/backend/internal/infrastructure/jwt"
	"github.com/bitjob/backend/internal/pkg/id"
	"github.com/bitjob/backend/internal/pkg/password"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldUsername     = "username"
	fieldMobile       = "mobile"
	fieldFirstName    = "first_name"
	fieldLastName     = "last_name"
	fieldAvatar       = "avatar"
	fieldPasswordHash = "password_hash"
)

type Service interface {
	Register(ctx context.Context, req domain.RegisterUserRequest) (*domain.User, *jwtinfra.TokenPair, error)
	Login(ctx context.Context, email, pw string) (*domain.User, *jwtinfra.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error
	ChangePassword(ctx context.Context, userID string, req domain.ChangePasswordRequest) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, userID string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	TouchLastLogin(ctx context.Context, userID string) error
}

type verifier interface {
	IsVerified(ctx context.Context, email string, p verification.Purpose) (bool, error)
	ConsumeKeys(ctx context.Context, email string, p verification.Purpose) error
}

type tokenSigner interface {
	SignPair(userID, username, role string) (*jwtinfra.TokenPair, error)
	SignAccess(userID, username, role string) (string, error)
	VerifyRefresh(tokenStr string) (*jwtinfra.Claims, error)
}

type service struct {
	repo     userStore
	verifier verifier
	tokens   tokenSigner
}

type ServiceDeps struct {
	UserRepo userStore
	Verifier verifier
	Tokens   tokenSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:     deps.UserRepo,
		verifier: deps.Verifier,
		tokens:   deps.Tokens,
	}
}

// Register creates an account for an email that holds a live verified
// marker from the registration code flow. Validation order is fixed so
// callers get the same error for the same bad input every time.
func (s *service) Register(ctx context.Context, req domain.RegisterUserRequest) (*domain.User, *jwtinfra.TokenPair, error) {
	if req.Password != req.ConfirmPassword {
		return nil, nil, fmt.Errorf("passwords do not match: %w", domain.ErrBadRequest)
	}
	if err := password.Validate(req.Password); err != nil {
		return nil, nil, err
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, nil, fmt.Errorf("email already registered: %w", domain.ErrBadRequest)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, nil, fmt.Errorf("username already taken: %w", domain.ErrBadRequest)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}
	verified, err := s.verifier.IsVerified(ctx, req.Email, verification.PurposeRegistration)
	if err != nil {
		return nil, nil, err
	}
	if !verified {
		return nil, nil, fmt.Errorf("email has not been verified: %w", domain.ErrBadRequest)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, nil, err
	}
	if err := s.verifier.ConsumeKeys(ctx, req.Email, verification.PurposeRegistration); err != nil {
		return nil, nil, err
	}
	pair, err := s.tokens.SignPair(u.UserID, u.Username, u.Role)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

func (s *service) Login(ctx context.Context, email, pw string) (*domain.User, *jwtinfra.TokenPair, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return nil, nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pw)); err != nil {
		return nil, nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if err := s.repo.TouchLastLogin(ctx, u.UserID); err != nil {
		return nil, nil, err
	}
	pair, err := s.tokens.SignPair(u.UserID, u.Username, u.Role)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return "", fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
	}
	// Re-read the user so a token issued before a role change or deletion
	// does not mint fresh access for stale claims.
	u, err := s.repo.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
		}
		return "", err
	}
	return s.tokens.SignAccess(u.UserID, u.Username, u.Role)
}

// ResetPassword rotates the hash for an email that verified a
// forget-password code within the verified-marker window.
func (s *service) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	verified, err := s.verifier.IsVerified(ctx, req.Email, verification.PurposeForgetPassword)
	if err != nil {
		return err
	}
	if !verified {
		return fmt.Errorf("email has not been verified: %w", domain.ErrBadRequest)
	}
	if req.Password != req.ConfirmPassword {
		return fmt.Errorf("passwords do not match: %w", domain.ErrBadRequest)
	}
	if err := password.Validate(req.Password); err != nil {
		return err
	}
	u, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, u.UserID, map[string]interface{}{fieldPasswordHash: string(hash)}); err != nil {
		return err
	}
	return s.verifier.ConsumeKeys(ctx, req.Email, verification.PurposeForgetPassword)
}

func (s *service) ChangePassword(ctx context.Context, userID string, req domain.ChangePasswordRequest) error {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.PreviousPassword)); err != nil {
		return fmt.Errorf("previous password is incorrect: %w", domain.ErrBadRequest)
	}
	if req.Password != req.ConfirmPassword {
		return fmt.Errorf("passwords do not match: %w", domain.ErrBadRequest)
	}
	if err := password.Validate(req.Password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, userID, map[string]interface{}{fieldPasswordHash: string(hash)})
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	updates := map[string]interface{}{}
	if req.Username != nil {
		existing, err := s.repo.GetByUsername(ctx, *req.Username)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if existing != nil && existing.UserID != userID {
			return nil, fmt.Errorf("username already taken: %w", domain.ErrBadRequest)
		}
		updates[fieldUsername] = *req.Username
	}
	if req.Mobile != nil {
		updates[fieldMobile] = *req.Mobile
	}
	if req.FirstName != nil {
		updates[fieldFirstName] = *req.FirstName
	}
	if req.LastName != nil {
		updates[fieldLastName] = *req.LastName
	}
	if req.Avatar != nil {
		updates[fieldAvatar] = *req.Avatar
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, userID)
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

// Delete always refuses. Accounts are permanent once registered.
func (s *service) Delete(ctx context.Context, userID string) error {
	return fmt.Errorf("account deletion is not allowed: %w", domain.ErrBadRequest)
}
