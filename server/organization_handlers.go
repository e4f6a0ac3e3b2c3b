package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-control-plane/organizations"
	"github.com/jrsteele09/go-control-plane/users"
)

type createOrganizationRequest struct {
	Name   string `json:"name" validate:"required,max=255"`
	Slug   string `json:"slug" validate:"required,max=63"`
	Domain string `json:"domain" validate:"omitempty,fqdn"`
}

// CreateOrganization handles POST /organizations.
func (s *Server) CreateOrganization() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrganizationRequest
		if !s.decode(w, r, &req) {
			return
		}
		org, err := s.svc.Organizations.Create(r.Context(), req.Name, req.Slug, req.Domain)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, org)
	}
}

// GetOrganization handles GET /organizations/{id}.
func (s *Server) GetOrganization() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		org, err := s.svc.Organizations.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, org)
	}
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// pageParams reads the offset and limit query parameters.
func pageParams(r *http.Request) (offset, limit int, ok bool) {
	q := r.URL.Query()
	offset, limit = 0, defaultPageLimit
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		offset = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPageLimit {
			return 0, 0, false
		}
		limit = n
	}
	return offset, limit, true
}

// ListOrganizations handles GET /organizations?offset=&limit=.
func (s *Server) ListOrganizations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit, ok := pageParams(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "validation_error", "offset must be >= 0 and limit between 1 and "+strconv.Itoa(maxPageLimit))
			return
		}
		list, err := s.svc.Organizations.List(r.Context(), offset, limit)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if list == nil {
			list = []*organizations.Organization{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// ListUsers handles GET /users?organizationId=&offset=&limit=.
func (s *Server) ListUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit, ok := pageParams(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "validation_error", "offset must be >= 0 and limit between 1 and "+strconv.Itoa(maxPageLimit))
			return
		}
		list, err := s.svc.Auth.ListUsers(r.Context(), r.URL.Query().Get("organizationId"), offset, limit)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if list == nil {
			list = []*users.User{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// SetUserActive handles POST /users/{id}/activate and /users/{id}/deactivate.
// Deactivating your own account is refused.
func (s *Server) SetUserActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if p := PrincipalFromContext(r.Context()); !active && p.UserID == id {
			writeError(w, http.StatusBadRequest, "validation_error", "cannot deactivate your own account")
			return
		}
		user, err := s.svc.Auth.SetActive(r.Context(), id, active)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}
