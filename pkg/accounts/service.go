// Package accounts implements signup with one-time codes, login sessions
// and the per-user device registry.
package accounts

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/accountdb"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/notify"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/session"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/types"
)

type Service struct {
	store      Store
	readings   ReadingPurger
	sessions   Sessions
	dispatcher notify.Dispatcher
	logger     *zap.Logger
	opts       Options

	now     func() time.Time
	newCode func() (string, error)

	// OnVerified runs after a user confirms their code, e.g. to seed demo devices.
	OnVerified func(ctx context.Context, user types.User) error
}

func NewService(store Store, readings ReadingPurger, sessions Sessions, dispatcher notify.Dispatcher, logger *zap.Logger, opts Options) *Service {
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 5 * time.Minute
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.DispatchTimeout <= 0 {
		opts.DispatchTimeout = 15 * time.Second
	}
	return &Service{
		store:      store,
		readings:   readings,
		sessions:   sessions,
		dispatcher: dispatcher,
		logger:     logger,
		opts:       opts,
		now:        func() time.Time { return time.Now().UTC() },
		newCode:    generateOTP,
	}
}

// generateOTP returns a uniformly random 6-digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (types.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return types.User{}, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return types.User{}, fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.opts.BcryptCost)
	if err != nil {
		return types.User{}, fmt.Errorf("hashing password: %w", err)
	}
	code, err := s.newCode()
	if err != nil {
		return types.User{}, fmt.Errorf("generating code: %w", err)
	}
	expires := s.now().Add(s.opts.OTPTTL)

	user := types.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: string(hash),
		OTP:          code,
		OTPExpiresAt: &expires,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, accountdb.ErrDuplicateEmail) {
			return types.User{}, ErrEmailTaken
		}
		return types.User{}, err
	}

	s.sendCode(user, code)
	s.logger.Info("User signed up", zap.String("user_id", user.ID))
	return user, nil
}

// sendCode prefers the phone number and falls back to the email address.
func (s *Service) sendCode(user types.User, code string) {
	destination := user.Phone
	if destination == "" {
		destination = user.Email
	}
	notify.Async(s.dispatcher, s.logger, s.opts.DispatchTimeout, destination, code)
}

// VerifyOTP confirms a pending signup. An expired code deletes the pending
// account so the user can sign up again.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: email and OTP are required", ErrInvalidInput)
	}
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Verified {
		return ErrAlreadyVerified
	}

	if user.OTPExpiresAt == nil || s.now().After(*user.OTPExpiresAt) {
		if err := s.store.DeleteUser(ctx, user.ID); err != nil && !errors.Is(err, accountdb.ErrNotFound) {
			return err
		}
		s.logger.Info("Deleted user with expired code", zap.String("user_id", user.ID))
		return ErrOTPExpired
	}
	if subtle.ConstantTimeCompare([]byte(user.OTP), []byte(strings.TrimSpace(code))) != 1 {
		return ErrInvalidOTP
	}

	if err := s.store.MarkVerified(ctx, user.ID); err != nil {
		return err
	}
	user.Verified = true

	if s.OnVerified != nil {
		if err := s.OnVerified(ctx, user); err != nil {
			s.logger.Warn("Post-verification hook failed", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *Service) ResendOTP(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Verified {
		return ErrAlreadyVerified
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generating code: %w", err)
	}
	if err := s.store.SetOTP(ctx, user.ID, code, s.now().Add(s.opts.OTPTTL)); err != nil {
		return err
	}
	s.sendCode(user, code)
	return nil
}

// Login checks the password of a verified user and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (string, types.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", types.User{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	user, err := s.store.UserByEmail(ctx, email)
	if errors.Is(err, accountdb.ErrNotFound) {
		return "", types.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", types.User{}, err
	}
	if !user.Verified {
		return "", types.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", types.User{}, ErrInvalidCredentials
	}

	token, err := s.sessions.Create(ctx, session.Session{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: s.now(),
	})
	if err != nil {
		return "", types.User{}, err
	}
	return token, user, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Authenticate resolves a session token to the caller.
func (s *Service) Authenticate(ctx context.Context, token string) (session.Session, error) {
	sess, err := s.sessions.Get(ctx, token)
	if errors.Is(err, session.ErrSessionNotFound) {
		return session.Session{}, ErrUnauthenticated
	}
	return sess, err
}

func (s *Service) Profile(ctx context.Context, userID string) (types.User, error) {
	user, err := s.store.UserByID(ctx, userID)
	if errors.Is(err, accountdb.ErrNotFound) {
		return types.User{}, ErrUserNotFound
	}
	return user, err
}

func (s *Service) userByEmail(ctx context.Context, email string) (types.User, error) {
	user, err := s.store.UserByEmail(ctx, email)
	if errors.Is(err, accountdb.ErrNotFound) {
		return types.User{}, ErrUserNotFound
	}
	return user, err
}
