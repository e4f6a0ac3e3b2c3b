package server

// Route path constants
const (
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"

	RouteWellKnownLicenseJWKS = "/.well-known/license-jwks.json"

	RouteAuthLogin    = "/auth/login"
	RouteAuthRegister = "/auth/register"
	RouteAuthLogout   = "/auth/logout"
	RouteAuthRefresh  = "/auth/refresh"
	RouteAuthMe       = "/auth/me"

	RouteTwoFactorSetup   = "/auth/2fa/setup"
	RouteTwoFactorEnable  = "/auth/2fa/enable"
	RouteTwoFactorDisable = "/auth/2fa/disable"

	RouteLicenseGenerate     = "/licensing/generate"
	RouteLicenseAssign       = "/licensing/assign"
	RouteLicenseCheckFeature = "/licensing/check-feature"
	RouteLicenseValidate     = "/licensing/validate"
	RouteOrganizationLicense = "/licensing/organizations/{id}"

	RouteOrganizations = "/organizations"
	RouteOrganization  = "/organizations/{id}"

	RouteUsers          = "/users"
	RouteUserActivate   = "/users/{id}/activate"
	RouteUserDeactivate = "/users/{id}/deactivate"
)
