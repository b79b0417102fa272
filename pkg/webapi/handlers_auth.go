package webapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/accounts"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/types"
)

type signupResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var in accounts.SignupInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.accounts.Signup(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, signupResponse{
		Message: "User created successfully. Please check your phone or email for the verification code.",
		UserID:  user.ID,
	})
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (s *Server) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var in otpRequest
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.accounts.VerifyOTP(r.Context(), in.Email, in.OTP); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Account verified successfully"})
}

func (s *Server) resendOTP(w http.ResponseWriter, r *http.Request) {
	var in otpRequest
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.accounts.ResendOTP(r.Context(), in.Email); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "OTP resent successfully"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    types.User `json:"user"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	token, user, err := s.accounts.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{Message: "Login successful", Token: token, User: user})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.Logout(r.Context(), currentToken(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	user, err := s.accounts.Profile(r.Context(), currentSession(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

func (s *Server) listDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.accounts.ListDevices(r.Context(), currentSession(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (s *Server) createDevice(w http.ResponseWriter, r *http.Request) {
	var in accounts.DeviceInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	device, err := s.accounts.CreateDevice(r.Context(), currentSession(r).UserID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, device)
}

func (s *Server) updateDevice(w http.ResponseWriter, r *http.Request) {
	var in accounts.DeviceInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	id := types.DeviceID(mux.Vars(r)["id"])
	device, err := s.accounts.UpdateDevice(r.Context(), currentSession(r).UserID, id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, device)
}

func (s *Server) deleteDevice(w http.ResponseWriter, r *http.Request) {
	id := types.DeviceID(mux.Vars(r)["id"])
	if err := s.accounts.DeleteDevice(r.Context(), currentSession(r).UserID, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Device deleted successfully"})
}
