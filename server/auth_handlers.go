package server

import (
	"context"
	"net/http"
	"time"

	"github.com/jrsteele09/go-control-plane/auth"
	"github.com/jrsteele09/go-control-plane/internal/errors"
	"github.com/jrsteele09/go-control-plane/users"
)

type loginRequest struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required"`
	TwoFactorCode string `json:"twoFactorCode" validate:"omitempty,len=6,numeric"`
}

type registerRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required"`
	FirstName      string `json:"firstName" validate:"required,max=100"`
	LastName       string `json:"lastName" validate:"required,max=100"`
	OrganizationID string `json:"organizationId"`
}

type twoFactorCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type userSummary struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Role             users.Role `json:"role"`
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
}

type sessionResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expiresAt"`
	User        userSummary `json:"user"`
}

type twoFactorRequiredResponse struct {
	RequiresTwoFactor bool   `json:"requiresTwoFactor"`
	Message           string `json:"message"`
}

func newSessionResponse(res *auth.Result) sessionResponse {
	return sessionResponse{
		AccessToken: res.AccessToken,
		ExpiresAt:   res.Session.ExpiresAt,
		User: userSummary{
			ID:               res.User.ID,
			Email:            res.User.Email,
			FirstName:        res.User.FirstName,
			LastName:         res.User.LastName,
			Role:             res.User.Role,
			TwoFactorEnabled: res.User.TwoFactorEnabled,
		},
	}
}

// Login handles POST /auth/login.
func (s *Server) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !s.decode(w, r, &req) {
			return
		}

		res, err := s.svc.Auth.Authenticate(r.Context(), req.Email, req.Password, req.TwoFactorCode)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if res.RequiresTwoFactor {
			writeJSON(w, http.StatusOK, twoFactorRequiredResponse{
				RequiresTwoFactor: true,
				Message:           "Two-factor authentication required",
			})
			return
		}
		writeJSON(w, http.StatusOK, newSessionResponse(res))
	}
}

// Register handles POST /auth/register. Self-registered accounts are always
// CLIENT; elevated accounts are created with the create-admin command.
func (s *Server) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if !s.decode(w, r, &req) {
			return
		}
		if err := users.ValidatePasswordStrength(req.Password); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		user, err := s.svc.Auth.Register(r.Context(), auth.Registration{
			Email:          req.Email,
			Password:       req.Password,
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			OrganizationID: req.OrganizationID,
			Role:           users.RoleClient,
		})
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, user)
	}
}

// Logout handles POST /auth/logout.
func (s *Server) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromContext(r.Context())
		if err := s.svc.Auth.Logout(r.Context(), p.Token); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
	}
}

// Refresh handles POST /auth/refresh.
func (s *Server) Refresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromContext(r.Context())
		res, err := s.svc.Auth.Refresh(r.Context(), p.Token)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newSessionResponse(res))
	}
}

// Me handles GET /auth/me.
func (s *Server) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromContext(r.Context())
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":             p.UserID,
			"email":          p.Email,
			"role":           p.Role,
			"organizationId": p.OrganizationID,
		})
	}
}

func (s *Server) SetupTwoFactor() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromContext(r.Context())
		setup, err := s.svc.Auth.SetupTwoFactor(r.Context(), p.UserID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, setup)
	}
}

func (s *Server) EnableTwoFactor() http.HandlerFunc {
	return s.twoFactorChange(s.svc.Auth.EnableTwoFactor, "Two-factor authentication enabled successfully")
}

func (s *Server) DisableTwoFactor() http.HandlerFunc {
	return s.twoFactorChange(s.svc.Auth.DisableTwoFactor, "Two-factor authentication disabled successfully")
}

// twoFactorChange confirms a code for an enrolment change. A wrong code here
// is a bad request from an authenticated user, not a failed login.
func (s *Server) twoFactorChange(change func(ctx context.Context, userID, code string) error, done string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req twoFactorCodeRequest
		if !s.decode(w, r, &req) {
			return
		}
		p := PrincipalFromContext(r.Context())
		if err := change(r.Context(), p.UserID, req.Code); err != nil {
			if errors.Is(err, errors.ErrInvalidTwoFactorCode) {
				writeError(w, http.StatusBadRequest, "invalid_code", "invalid verification code")
				return
			}
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: done})
	}
}
