// Package webapi exposes the dashboard over JSON HTTP under /api.
package webapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/accounts"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/gapfill"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/metrics"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/session"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/types"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/usage"
)

// UsageService is implemented by *usage.Service.
type UsageService interface {
	Stats(ctx context.Context) (usage.Stats, error)
	Hourly(ctx context.Context, date string) (time.Time, []gapfill.HourPoint, error)
	Daily(ctx context.Context, month, year string) ([]gapfill.Point, error)
	Devices(ctx context.Context, userID, date string) ([]usage.DeviceDay, error)
	DailyRange(ctx context.Context, start, end string) ([]gapfill.Point, error)
	DeviceRange(ctx context.Context, userID, start, end string) ([]usage.DeviceTotal, error)
	Rollup(ctx context.Context, resolution, start, end string) ([]gapfill.Point, error)
	Recommendations(ctx context.Context, userID string) ([]string, error)
	EnergyStats(ctx context.Context, userID, period string) (usage.EnergyStats, error)
	RecordUsage(ctx context.Context, userID string, in usage.RecordInput) (types.Reading, error)
}

// AccountService is implemented by *accounts.Service.
type AccountService interface {
	Signup(ctx context.Context, in accounts.SignupInput) (types.User, error)
	VerifyOTP(ctx context.Context, email, code string) error
	ResendOTP(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (string, types.User, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (session.Session, error)
	Profile(ctx context.Context, userID string) (types.User, error)

	ListDevices(ctx context.Context, userID string) ([]types.Device, error)
	CreateDevice(ctx context.Context, userID string, in accounts.DeviceInput) (types.Device, error)
	UpdateDevice(ctx context.Context, userID string, id types.DeviceID, in accounts.DeviceInput) (types.Device, error)
	DeleteDevice(ctx context.Context, userID string, id types.DeviceID) error
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	RequestTimeout time.Duration
	AllowedOrigins []string
	SecureCookies  bool
	SessionTTL     time.Duration
}

type Server struct {
	usage    UsageService
	accounts AccountService
	metrics  *metrics.Metrics
	logger   *zap.Logger
	opts     Options
	checks   map[string]Pinger
}

func NewServer(usageSvc UsageService, accountSvc AccountService, m *metrics.Metrics, logger *zap.Logger, opts Options, checks map[string]Pinger) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	return &Server{
		usage:    usageSvc,
		accounts: accountSvc,
		metrics:  m,
		logger:   logger,
		opts:     opts,
		checks:   checks,
	}
}

// Handler builds the full middleware chain around the router.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.logRequests)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.withTimeout)

	s.handle(api, "/health", s.health, false).Methods("GET")

	s.handle(api, "/auth/signup", s.signup, false).Methods("POST")
	s.handle(api, "/auth/verify-otp", s.verifyOTP, false).Methods("POST")
	s.handle(api, "/auth/resend-otp", s.resendOTP, false).Methods("POST")
	s.handle(api, "/auth/login", s.login, false).Methods("POST")
	s.handle(api, "/auth/logout", s.logout, true).Methods("POST")
	s.handle(api, "/auth/profile", s.profile, true).Methods("GET")

	s.handle(api, "/devices", s.listDevices, true).Methods("GET")
	s.handle(api, "/devices", s.createDevice, true).Methods("POST")
	s.handle(api, "/devices/{id}", s.updateDevice, true).Methods("PUT")
	s.handle(api, "/devices/{id}", s.deleteDevice, true).Methods("DELETE")

	s.handle(api, "/usage/stats", s.usageStats, true).Methods("GET")
	s.handle(api, "/usage/hourly", s.usageHourly, true).Methods("GET")
	s.handle(api, "/usage/daily", s.usageDaily, true).Methods("GET")
	s.handle(api, "/usage/devices", s.usageDevices, true).Methods("GET")
	s.handle(api, "/usage/rollup", s.usageRollup, true).Methods("GET")

	s.handle(api, "/analytics/daily-usage", s.analyticsDaily, true).Methods("GET")
	s.handle(api, "/analytics/device-usage", s.analyticsDevices, true).Methods("GET")
	s.handle(api, "/analytics/export", s.analyticsExport, true).Methods("GET")

	s.handle(api, "/recommendations", s.recommendations, true).Methods("GET")
	s.handle(api, "/energy/stats", s.energyStats, true).Methods("GET")
	s.handle(api, "/energy/usage", s.recordUsage, true).Methods("POST")

	if s.metrics != nil {
		router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "route not found"})
	})

	var h http.Handler = router
	if len(s.opts.AllowedOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(s.opts.AllowedOrigins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
			handlers.AllowCredentials(),
		)(h)
	}
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(s.logger)),
	)(h)
}

// handle registers path on the /api subrouter.
func (s *Server) handle(r *mux.Router, path string, fn http.HandlerFunc, authenticated bool) *mux.Route {
	var h http.Handler = fn
	if authenticated {
		h = s.requireSession(h)
	}
	if s.metrics != nil {
		h = s.metrics.WrapHandler("/api"+path, h)
	}
	return r.Handle(path, h)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{}
	healthy := true
	for name, p := range s.checks {
		if err := p.Ping(r.Context()); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"healthy": healthy, "checks": status})
}
