package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/gestcard/internal/common"
	"github.com/dmitrijs2005/gestcard/internal/logging"
	"github.com/dmitrijs2005/gestcard/internal/server/auth"
	"github.com/dmitrijs2005/gestcard/internal/server/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const msgTooManyRequests = "Too many requests"

// requestLogger writes one access log line per request and carries chi's
// request id into the logging context.
func requestLogger(l logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()
			if id := middleware.GetReqID(ctx); id != "" {
				ctx = logging.ContextWithRequestID(ctx, id)
				r = r.WithContext(ctx)
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			l.Info(ctx, "http request",
				"method", r.Method,
				"route", route,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}

func defaultHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		h.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Cache-Control", "no-store")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// guarded runs the access guard for policy before next. The resolved account
// is attached to the request context.
func guarded(g *auth.Guard, policy auth.RoutePolicy, l logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, err := g.Check(r.Context(), policy, r.Header.Get(common.AuthorizationHeaderName))
			if err != nil {
				writeError(w, r, l, err)
				return
			}
			if account != nil {
				r = r.WithContext(auth.ContextWithAccount(r.Context(), account))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// limited rejects callers that exhausted their bucket, keyed by client IP.
func limited(lim *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if lim == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lim.Allow(ratelimit.ClientIP(r)) {
				w.Header().Set("Retry-After", "60")
				writeErrorStatus(w, http.StatusTooManyRequests, msgTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
