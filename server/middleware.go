package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/randalmurphal/enrich/auth"
)

// logRequests logs one line per request and counts it when metrics are on.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			if s.requests != nil {
				s.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
			}
			s.logger.Info("request",
				"method", r.Method,
				"route", route,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
				"remote", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// authenticate admits requests carrying a valid API key or a bearer token
// with scope. With neither tokens nor keys configured every request passes.
func (s *Server) authenticate(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !s.authEnabled() {
				next.ServeHTTP(w, r)
				return
			}

			if key := r.Header.Get("X-API-Key"); key != "" && s.keys != nil {
				if err := s.keys.Verify(key); err != nil {
					s.logger.Warn("api key rejected", "key", auth.RedactAPIKey(key),
						"request_id", middleware.GetReqID(r.Context()))
					s.writeError(w, r, http.StatusUnauthorized, "invalid API key")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok || s.tokens == nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="enrich"`)
				s.writeError(w, r, http.StatusUnauthorized, "authentication required")
				return
			}
			claims, err := s.tokens.Validate(token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, auth.ErrTokenExpired) {
					msg = "token expired"
				}
				w.Header().Set("WWW-Authenticate", `Bearer realm="enrich", error="invalid_token"`)
				s.writeError(w, r, http.StatusUnauthorized, msg)
				return
			}
			if !claims.HasScope(scope) {
				s.writeError(w, r, http.StatusForbidden, "token lacks scope "+scope)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) authEnabled() bool {
	return s.tokens != nil || (s.keys != nil && s.keys.Len() > 0)
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
