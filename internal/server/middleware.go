package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"loan-dashboard/internal/common/auth"
	"loan-dashboard/internal/common/errors"
	"loan-dashboard/internal/common/logger"
	"loan-dashboard/internal/models"
)

// SessionResolver is satisfied by *auth.SessionStore.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*models.Principal, error)
}

type contextKey string

const sessionKey = contextKey("session")

type session struct {
	token     string
	principal *models.Principal
}

func sessionFrom(r *http.Request) (session, bool) {
	s, ok := r.Context().Value(sessionKey).(session)
	return s, ok
}

// sessionMiddleware resolves the bearer token to a principal. Requests
// without a usable session never reach a view.
func sessionMiddleware(resolver SessionResolver, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				writeError(w, http.StatusUnauthorized, errors.NewNotAuthenticatedError("missing bearer token"))
				return
			}

			principal, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				if errors.IsAuthError(err) {
					writeError(w, http.StatusUnauthorized, err)
					return
				}
				log.WithError(err).Error("Session resolution failed", map[string]interface{}{
					"path": r.URL.Path,
				})
				writeError(w, http.StatusServiceUnavailable, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, session{token: token, principal: principal})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestLogger logs one line per request through the structured logger.
func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			log.Info("HTTP request", map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"durationMs": time.Since(start).Milliseconds(),
				"requestId":  middleware.GetReqID(r.Context()),
			})
		})
	}
}
