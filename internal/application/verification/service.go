package verification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bitjob/backend/internal/domain"
	"github.com/bitjob/backend/internal/infrastructure/mailqueue"
	"github.com/bitjob/backend/internal/pkg/code"
)

// Purpose is the reason a verification code was issued. It namespaces the
// cache keys so registration and forget-password flows for the same email
// never collide.
type Purpose string

const (
	PurposeRegistration   Purpose = "registration"
	PurposeForgetPassword Purpose = "forget-password"
)

// Cache key postfixes per purpose.
const (
	registrationCodePostfix     = "_REGISTRATION"
	registrationVerifiedPostfix = "_VERIFIED"
	forgetCodePostfix           = "_FORGET_PASSWORD"
	forgetVerifiedPostfix       = "_VERIFIED_FORGET_PASSWORD"
)

func codeKey(email string, p Purpose) string {
	if p == PurposeForgetPassword {
		return email + forgetCodePostfix
	}
	return email + registrationCodePostfix
}

func verifiedKey(email string, p Purpose) string {
	if p == PurposeForgetPassword {
		return email + forgetVerifiedPostfix
	}
	return email + registrationVerifiedPostfix
}

// EmailStatus is the response of the check-email operation.
type EmailStatus struct {
	Exists                  bool `json:"exists"`
	RegistrationCodeTimeout int  `json:"registration_code_timeout"`
}

// CodeStore is the TTL cache holding one-time codes and verified markers.
type CodeStore interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type notifier interface {
	Enqueue(job mailqueue.Job)
}

// Config carries the flow's timing and code-shape knobs.
type Config struct {
	CodeLength     int
	CodeExpiry     time.Duration
	VerifiedExpiry time.Duration
}

// Service orchestrates the send-code / verify-code / mark-verified
// transitions for registration and password reset.
type Service interface {
	CheckEmail(ctx context.Context, email string) (*EmailStatus, error)
	SendRegistrationCode(ctx context.Context, email string) error
	VerifyRegistrationCode(ctx context.Context, email, submitted string) error
	SendForgetPasswordCode(ctx context.Context, email string) error
	VerifyForgetPasswordCode(ctx context.Context, email, submitted string) error
	IsVerified(ctx context.Context, email string, p Purpose) (bool, error)
	ConsumeKeys(ctx context.Context, email string, p Purpose) error
}

type service struct {
	store    CodeStore
	users    userStore
	notifier notifier
	cfg      Config
}

func NewService(store CodeStore, users userStore, n notifier, cfg Config) Service {
	return &service{store: store, users: users, notifier: n, cfg: cfg}
}

// CheckEmail reports whether the email belongs to an account. For unknown
// emails it also kicks off the registration code send; a still-live prior
// code makes that a silent no-op.
func (s *service) CheckEmail(ctx context.Context, email string) (*EmailStatus, error) {
	exists, err := s.emailRegistered(ctx, email)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := s.sendCode(ctx, email, PurposeRegistration); err != nil && !errors.Is(err, errCodePending) {
			return nil, err
		}
	}
	return &EmailStatus{
		Exists:                  exists,
		RegistrationCodeTimeout: int(s.cfg.CodeExpiry / time.Minute),
	}, nil
}

func (s *service) SendRegistrationCode(ctx context.Context, email string) error {
	exists, err := s.emailRegistered(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("email already exists: %w", domain.ErrBadRequest)
	}
	if err := s.sendCode(ctx, email, PurposeRegistration); err != nil {
		if errors.Is(err, errCodePending) {
			return fmt.Errorf("registration code has been sent already, please wait until it expires: %w", domain.ErrBadRequest)
		}
		return err
	}
	return nil
}

func (s *service) SendForgetPasswordCode(ctx context.Context, email string) error {
	exists, err := s.emailRegistered(ctx, email)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("email does not exist: %w", domain.ErrBadRequest)
	}
	if err := s.sendCode(ctx, email, PurposeForgetPassword); err != nil {
		if errors.Is(err, errCodePending) {
			return fmt.Errorf("forget password code has been sent already, please wait until it expires: %w", domain.ErrBadRequest)
		}
		return err
	}
	return nil
}

func (s *service) VerifyRegistrationCode(ctx context.Context, email, submitted string) error {
	exists, err := s.emailRegistered(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("email already exists: %w", domain.ErrBadRequest)
	}
	return s.verifyCode(ctx, email, submitted, PurposeRegistration)
}

func (s *service) VerifyForgetPasswordCode(ctx context.Context, email, submitted string) error {
	exists, err := s.emailRegistered(ctx, email)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("email does not exist: %w", domain.ErrBadRequest)
	}
	return s.verifyCode(ctx, email, submitted, PurposeForgetPassword)
}

// IsVerified reports whether a live verified marker exists for (email, p).
func (s *service) IsVerified(ctx context.Context, email string, p Purpose) (bool, error) {
	_, ok, err := s.store.Get(ctx, verifiedKey(email, p))
	if err != nil {
		return false, err
	}
	return ok, nil
}

// ConsumeKeys removes both the code and the verified marker for (email, p).
// Called by the gated action when it commits.
func (s *service) ConsumeKeys(ctx context.Context, email string, p Purpose) error {
	if err := s.store.Delete(ctx, codeKey(email, p)); err != nil {
		return err
	}
	return s.store.Delete(ctx, verifiedKey(email, p))
}

var errCodePending = errors.New("a code is already pending")

// sendCode generates, stores and enqueues a fresh code unless a prior one is
// still live. The check-then-set window means two concurrent identical
// requests can both send; the store's last write wins and both codes stay
// verifiable until the key is overwritten, which is an accepted tolerance.
func (s *service) sendCode(ctx context.Context, email string, p Purpose) error {
	key := codeKey(email, p)
	_, pending, err := s.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if pending {
		return errCodePending
	}

	c, err := code.Generate(s.cfg.CodeLength)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, key, c, s.cfg.CodeExpiry); err != nil {
		return err
	}

	subject, body := codeMessage(c, p)
	s.notifier.Enqueue(mailqueue.Job{To: []string{email}, Subject: subject, Body: body})
	return nil
}

func codeMessage(c string, p Purpose) (subject, body string) {
	if p == PurposeForgetPassword {
		return "Bitjob Forget Password Code", "Forget Password Code: " + c
	}
	return "Bitjob Registration Code", "Registration Code: " + c
}

// verifyCode compares the submitted code against the stored one after
// normalizing both to integers, then marks the email verified.
func (s *service) verifyCode(ctx context.Context, email, submitted string, p Purpose) error {
	stored, ok, err := s.store.Get(ctx, codeKey(email, p))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("you have no recent code or the sent code has expired: %w", domain.ErrBadRequest)
	}

	submittedInt, err := strconv.Atoi(submitted)
	if err != nil {
		return fmt.Errorf("code must be numeric: %w", domain.ErrBadRequest)
	}
	storedInt, err := strconv.Atoi(stored)
	if err != nil {
		return fmt.Errorf("stored code is malformed: %w", domain.ErrBadRequest)
	}
	if submittedInt != storedInt {
		return fmt.Errorf("no such code found: %w", domain.ErrBadRequest)
	}

	return s.store.Put(ctx, verifiedKey(email, p), "true", s.cfg.VerifiedExpiry)
}

func (s *service) emailRegistered(ctx context.Context, email string) (bool, error) {
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, err
}
