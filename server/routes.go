package server

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jrsteele09/go-control-plane/users"
)

func (s *Server) initRoutes() {
	r := s.router
	r.Use(chimw.RequestID)
	r.Use(s.InstrumentMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(s.CorsMiddleware)
	r.Use(s.FrameSecurityMiddleware)

	r.Get(RouteHealth, s.Health())
	r.Method("GET", RouteMetrics, s.svc.Metrics.Handler())
	r.Get(RouteWellKnownLicenseJWKS, s.LicenseJWKS())

	r.Group(func(r chi.Router) {
		r.Use(s.svc.Limiter.Middleware(s.rateLimited))
		r.Post(RouteAuthLogin, s.Login())
		r.Post(RouteAuthRegister, s.Register())
	})

	r.Group(func(r chi.Router) {
		r.Use(s.RequireAuth)

		r.Post(RouteAuthLogout, s.Logout())
		r.Post(RouteAuthRefresh, s.Refresh())
		r.Get(RouteAuthMe, s.Me())
		r.Get(RouteTwoFactorSetup, s.SetupTwoFactor())
		r.Post(RouteTwoFactorEnable, s.EnableTwoFactor())
		r.Post(RouteTwoFactorDisable, s.DisableTwoFactor())

		r.Post(RouteLicenseCheckFeature, s.CheckFeature())
		r.Post(RouteLicenseValidate, s.ValidateLicense())

		r.With(s.RequireRoles(users.RoleOwner)).Post(RouteLicenseGenerate, s.GenerateLicense())
		r.With(s.RequireRoles(users.RoleOwner, users.RoleAdmin)).Post(RouteLicenseAssign, s.AssignLicense())
		r.With(s.RequireRoles(users.RoleAdmin)).Get(RouteOrganizationLicense, s.OrganizationLicense())

		r.With(s.RequireRoles(users.RoleOwner, users.RoleAdmin)).Post(RouteOrganizations, s.CreateOrganization())
		r.With(s.RequireRoles(users.RoleOwner, users.RoleAdmin)).Get(RouteOrganizations, s.ListOrganizations())
		r.With(s.RequireRoles(users.RoleAdmin)).Get(RouteOrganization, s.GetOrganization())

		r.With(s.RequireRoles(users.RoleOwner, users.RoleAdmin)).Get(RouteUsers, s.ListUsers())
		r.With(s.RequireRoles(users.RoleOwner, users.RoleAdmin)).Post(RouteUserActivate, s.SetUserActive(true))
		r.With(s.RequireRoles(users.RoleOwner, users.RoleAdmin)).Post(RouteUserDeactivate, s.SetUserActive(false))
	})
}
