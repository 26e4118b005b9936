package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tripmate/tripmate-api/internal/payments"
	"github.com/tripmate/tripmate-api/internal/service"
	"github.com/tripmate/tripmate-api/pkg/auth"
	"github.com/tripmate/tripmate-api/pkg/config"
	"github.com/tripmate/tripmate-api/pkg/logger"
)

type contextKey string

const claimsKey contextKey = "claims"

type Handlers struct {
	authService         service.AuthService
	tourService         service.TourService
	bookingService      service.BookingService
	socialService       service.SocialService
	notificationService service.NotificationService
	provider            payments.Provider
	pool                *pgxpool.Pool
	config              *config.Config
}

func New(
	authService service.AuthService,
	tourService service.TourService,
	bookingService service.BookingService,
	socialService service.SocialService,
	notificationService service.NotificationService,
	provider payments.Provider,
	pool *pgxpool.Pool,
	config *config.Config,
) *Handlers {
	return &Handlers{
		authService:         authService,
		tourService:         tourService,
		bookingService:      bookingService,
		socialService:       socialService,
		notificationService: notificationService,
		provider:            provider,
		pool:                pool,
		config:              config,
	}
}

// RequireJWT authenticates the request and, when roles are given, checks the
// caller holds one of them. ADMIN passes every role check.
func (h *Handlers) RequireJWT(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authorization header")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := auth.Parse(token, h.config.Auth.JWTSecret)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
				return
			}

			if len(roles) > 0 && claims.Role != "ADMIN" {
				allowed := false
				for _, role := range roles {
					if claims.Role == role {
						allowed = true
						break
					}
				}
				if !allowed {
					writeError(w, r, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
					return
				}
			}

			ctx := context.WithValue(r.Context(), logger.UserIDKey, claims.Sub)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalJWT attaches claims when a valid bearer token is present but lets
// anonymous requests through. Reads that personalize per viewer use this.
func (h *Handlers) OptionalJWT() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.Parse(strings.TrimPrefix(authHeader, "Bearer "), h.config.Auth.JWTSecret)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), logger.UserIDKey, claims.Sub)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func getClaims(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(claimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// viewerID is the authenticated caller's ID, or empty for anonymous reads.
func viewerID(r *http.Request) string {
	if claims := getClaims(r); claims != nil {
		return claims.Sub
	}
	return ""
}
