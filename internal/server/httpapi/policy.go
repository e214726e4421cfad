package httpapi

import (
	"github.com/dmitrijs2005/gestcard/internal/server/auth"
	"github.com/dmitrijs2005/gestcard/internal/server/models"
)

// Route ids. Every route the router registers is looked up in a Policies
// map by one of these.
const (
	RouteHealth         = "health"
	RouteRegister       = "auth.register"
	RouteLogin          = "auth.login"
	RouteGoogle         = "auth.google"
	RouteRefresh        = "auth.refresh"
	RouteForgotPassword = "auth.forgot-password"
	RouteResetPassword  = "auth.reset-password"
	RouteProfile        = "auth.profile"
	RouteAdminList      = "admin.list"
	RouteAdminStatus    = "admin.status"
	RouteAdminPromote   = "admin.promote"
	RouteUploadCV       = "uploads.cv"
	RouteDownloadCV     = "uploads.cv-download"
)

// DefaultPolicies is the access table of the REST API.
func DefaultPolicies() auth.Policies {
	admin := auth.RequireRoles(models.RoleAdmin)
	return auth.Policies{
		RouteHealth:         auth.Public(),
		RouteRegister:       auth.Public(),
		RouteLogin:          auth.Public(),
		RouteGoogle:         auth.Public(),
		RouteRefresh:        auth.Public(),
		RouteForgotPassword: auth.Public(),
		RouteResetPassword:  auth.Public(),
		RouteProfile:        auth.Authenticated(),
		RouteAdminList:      admin,
		RouteAdminStatus:    admin,
		RouteAdminPromote:   admin,
		RouteUploadCV:       auth.Authenticated(),
		RouteDownloadCV:     auth.Authenticated(),
	}
}
