package webapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/accounts"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/timebucket"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/types"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/usage"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, timebucket.ErrInvalidDateFormat),
		errors.Is(err, timebucket.ErrInvalidRange),
		errors.Is(err, types.ErrInvalidReading),
		errors.Is(err, usage.ErrInvalidUsage),
		errors.Is(err, accounts.ErrInvalidInput),
		errors.Is(err, accounts.ErrEmailTaken),
		errors.Is(err, accounts.ErrInvalidOTP),
		errors.Is(err, accounts.ErrOTPExpired),
		errors.Is(err, accounts.ErrAlreadyVerified),
		errors.Is(err, errBadRequestBody):
		return http.StatusBadRequest
	case errors.Is(err, accounts.ErrUnauthenticated),
		errors.Is(err, accounts.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, usage.ErrDeviceNotFound),
		errors.Is(err, accounts.ErrDeviceNotFound),
		errors.Is(err, accounts.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, usage.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, usage.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends {error} with the mapped status. Internal failures are
// logged and hidden from the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		s.logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal server error"
	case http.StatusServiceUnavailable:
		msg = usage.ErrUpstreamUnavailable.Error()
	case http.StatusGatewayTimeout:
		msg = usage.ErrTimeout.Error()
	}
	writeJSON(w, status, errorBody{Error: msg})
}

var errBadRequestBody = errors.New("malformed request body")

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return errBadRequestBody
	}
	return nil
}
