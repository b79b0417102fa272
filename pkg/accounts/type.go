package accounts

import (
	"context"
	"errors"
	"time"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/session"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/types"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials or account not verified")
	ErrInvalidOTP         = errors.New("invalid OTP")
	ErrOTPExpired         = errors.New("OTP expired, please sign up again")
	ErrAlreadyVerified    = errors.New("account already verified")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrDeviceNotFound     = errors.New("device not found")
)

// Store is the account persistence the service needs (accountdb.DB).
type Store interface {
	CreateUser(ctx context.Context, u *types.User) error
	UserByEmail(ctx context.Context, email string) (types.User, error)
	UserByID(ctx context.Context, id string) (types.User, error)
	SetOTP(ctx context.Context, userID, otp string, expiresAt time.Time) error
	MarkVerified(ctx context.Context, userID string) error
	DeleteUser(ctx context.Context, userID string) error

	CreateDevice(ctx context.Context, d *types.Device) error
	Devices(ctx context.Context, userID string) ([]types.Device, error)
	DeviceByID(ctx context.Context, userID string, id types.DeviceID) (types.Device, error)
	UpdateDevice(ctx context.Context, d types.Device) error
	DeleteDevice(ctx context.Context, userID string, id types.DeviceID) error
}

// ReadingPurger removes a device's reading history (readingdb.DB).
type ReadingPurger interface {
	DeleteDeviceReadings(ctx context.Context, deviceID types.DeviceID) (int64, error)
}

// Sessions is the login session store (session.Store).
type Sessions interface {
	Create(ctx context.Context, s session.Session) (string, error)
	Get(ctx context.Context, token string) (session.Session, error)
	Delete(ctx context.Context, token string) error
}

type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type DeviceInput struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Wattage  float64 `json:"wattage"`
	Location string  `json:"location"`
	IsActive *bool   `json:"isActive,omitempty"`
}

type Options struct {
	OTPTTL     time.Duration
	BcryptCost int
	// Upper bound on a background code delivery.
	DispatchTimeout time.Duration
}
