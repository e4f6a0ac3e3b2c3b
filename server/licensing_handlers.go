package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-control-plane/internal/errors"
	"github.com/jrsteele09/go-control-plane/licensing"
)

type generateLicenseRequest struct {
	Tier           string `json:"tier" validate:"required"`
	OrganizationID string `json:"organizationId"`
	Days           *int   `json:"days" validate:"omitempty,min=1,max=36500"`
}

type generateLicenseResponse struct {
	LicenseKey string         `json:"licenseKey"`
	Tier       licensing.Tier `json:"tier"`
	ExpiresIn  int            `json:"expiresIn"`
}

type assignLicenseRequest struct {
	OrganizationID string `json:"organizationId" validate:"required"`
	LicenseKey     string `json:"licenseKey" validate:"required"`
}

type assignLicenseResponse struct {
	Message   string         `json:"message"`
	Tier      licensing.Tier `json:"tier"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

type checkFeatureRequest struct {
	Feature string `json:"feature" validate:"required"`
}

type organizationLicenseResponse struct {
	OrganizationID string         `json:"organizationId"`
	Valid          bool           `json:"valid"`
	Tier           licensing.Tier `json:"tier,omitempty"`
	Features       []string       `json:"features"`
	IssuedAt       *time.Time     `json:"issuedAt,omitempty"`
	ExpiresAt      *time.Time     `json:"expiresAt,omitempty"`
}

// GenerateLicense handles POST /licensing/generate.
func (s *Server) GenerateLicense() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateLicenseRequest
		if !s.decode(w, r, &req) {
			return
		}
		tier, err := licensing.ParseTier(req.Tier)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_tier", err.Error())
			return
		}
		days := s.config.GetDefaultLicenseDays()
		if req.Days != nil {
			days = *req.Days
			if err := licensing.CheckValidityDays(days); err != nil {
				s.writeServiceError(w, err)
				return
			}
		} else if err := licensing.CheckValidityDays(days); err != nil {
			s.writeServiceError(w, errors.Wrapf(errors.ErrConfiguration, "default license duration: %v", err))
			return
		}

		key, err := s.svc.Licenses.Issue(tier, req.OrganizationID, days)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, generateLicenseResponse{LicenseKey: key, Tier: tier, ExpiresIn: days})
	}
}

// AssignLicense handles POST /licensing/assign.
func (s *Server) AssignLicense() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assignLicenseRequest
		if !s.decode(w, r, &req) {
			return
		}
		payload, err := s.svc.Entitlements.Assign(r.Context(), req.OrganizationID, req.LicenseKey)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, assignLicenseResponse{
			Message:   "License assigned successfully",
			Tier:      payload.Tier,
			ExpiresAt: payload.ExpiresAt,
		})
	}
}

// CheckFeature handles POST /licensing/check-feature for the caller's own
// organization. Callers without an organization have no features.
func (s *Server) CheckFeature() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkFeatureRequest
		if !s.decode(w, r, &req) {
			return
		}
		p := PrincipalFromContext(r.Context())
		hasAccess := false
		if p.OrganizationID != "" {
			var err error
			hasAccess, err = s.svc.Entitlements.HasFeature(r.Context(), p.OrganizationID, req.Feature)
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]bool{"hasAccess": hasAccess})
	}
}

// ValidateLicense handles POST /licensing/validate.
func (s *Server) ValidateLicense() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromContext(r.Context())
		isValid := false
		if p.OrganizationID != "" {
			var err error
			isValid, err = s.svc.Entitlements.IsValid(r.Context(), p.OrganizationID)
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]bool{"isValid": isValid})
	}
}

// OrganizationLicense handles GET /licensing/organizations/{id}.
func (s *Server) OrganizationLicense() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		payload, err := s.svc.Entitlements.License(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		resp := organizationLicenseResponse{OrganizationID: id, Features: []string{}}
		if payload != nil {
			resp.Valid = true
			resp.Tier = payload.Tier
			resp.Features = payload.Features
			resp.IssuedAt = &payload.IssuedAt
			resp.ExpiresAt = &payload.ExpiresAt
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// LicenseJWKS publishes the license verification key.
func (s *Server) LicenseJWKS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwks, err := s.svc.Licenses.JWKS()
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		writeJSON(w, http.StatusOK, jwks)
	}
}
