// Package httpapi is the public REST surface of gestcard.
package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gestcard/internal/logging"
	"github.com/dmitrijs2005/gestcard/internal/server/auth"
	"github.com/dmitrijs2005/gestcard/internal/server/ratelimit"
	"github.com/dmitrijs2005/gestcard/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the collaborators of the router. External and Limiter are
// optional: a nil External leaves /api/auth/google unregistered and a nil
// Limiter disables throttling.
type Deps struct {
	Auth     AuthAPI
	Admin    AdminAPI
	Uploads  UploadAPI
	External services.ExternalVerifier
	Guard    *auth.Guard
	Policies auth.Policies
	Limiter  *ratelimit.Limiter
	Logger   logging.Logger
	// TrustProxy rewrites RemoteAddr from X-Forwarded-For / X-Real-IP.
	TrustProxy bool
}

// NewRouter builds the chi router. It panics when a route id has no policy,
// which can only happen at startup.
func NewRouter(d Deps) http.Handler {
	l := d.Logger.With("module", "http")
	policies := d.Policies
	if policies == nil {
		policies = DefaultPolicies()
	}
	h := &handlers{auth: d.Auth, admin: d.Admin, uploads: d.Uploads, external: d.External, logger: l}

	r := chi.NewRouter()
	if d.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(requestLogger(l))
	r.Use(middleware.Recoverer)
	r.Use(defaultHeaders)

	route := func(r chi.Router, method, pattern, id string, fn http.HandlerFunc, extra ...func(http.Handler) http.Handler) {
		mw := append(extra, guarded(d.Guard, policies.MustResolve(id), l))
		r.With(mw...).Method(method, pattern, fn)
	}
	throttle := limited(d.Limiter)

	route(r, http.MethodGet, "/health", RouteHealth, h.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			route(r, http.MethodPost, "/register", RouteRegister, h.register)
			route(r, http.MethodPost, "/login", RouteLogin, h.login, throttle)
			if d.External != nil {
				route(r, http.MethodPost, "/google", RouteGoogle, h.google, throttle)
			}
			route(r, http.MethodPost, "/refresh", RouteRefresh, h.refresh)
			route(r, http.MethodPost, "/forgot-password", RouteForgotPassword, h.forgotPassword, throttle)
			route(r, http.MethodPost, "/reset-password", RouteResetPassword, h.resetPassword)
			route(r, http.MethodGet, "/profile", RouteProfile, h.profile)
		})

		r.Route("/admin", func(r chi.Router) {
			route(r, http.MethodGet, "/", RouteAdminList, h.listAdmins)
			route(r, http.MethodPut, "/{id}/status", RouteAdminStatus, h.updateAdminStatus)
			route(r, http.MethodPost, "/promote", RouteAdminPromote, h.promote)
		})

		r.Route("/uploads", func(r chi.Router) {
			route(r, http.MethodPost, "/cv", RouteUploadCV, h.uploadCV)
			route(r, http.MethodGet, "/cv", RouteDownloadCV, h.downloadCV)
		})
	})

	return r
}
