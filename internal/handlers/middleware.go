package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"speakcoach/internal/models"
	"speakcoach/internal/security"
	"speakcoach/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	UserContextKey      ContextKey = "user"
	CSRFTokenContextKey ContextKey = "csrf_token"
	APIUserIDContextKey ContextKey = "api_user_id"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	tokens      *security.TokenManager
	limiter     *security.RateLimiter
	csrf        *security.CSRFGenerator
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, tokens *security.TokenManager, limiter *security.RateLimiter, csrf *security.CSRFGenerator) *Middleware {
	return &Middleware{
		authService: authService,
		tokens:      tokens,
		limiter:     limiter,
		csrf:        csrf,
	}
}

// RequireAuth is middleware that requires a valid session
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("session_id")
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		user, err := m.authService.ValidateSession(cookie.Value)
		if err != nil {
			http.SetCookie(w, security.CreateDeleteCookie(r, "session_id"))
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		if token, err := m.csrf.GenerateToken(cookie.Value); err == nil {
			ctx = context.WithValue(ctx, CSRFTokenContextKey, token)
		}
		next(w, r.WithContext(ctx))
	}
}

// RequireAPIAuth is middleware that requires a valid bearer token. Used by
// the practice JSON API, which the browser calls with the token embedded in
// the practice page.
func (m *Middleware) RequireAPIAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			respondWithJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, err := m.tokens.Verify(tokenString)
		if err != nil {
			respondWithJSONError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), APIUserIDContextKey, userID)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit is middleware that limits request rate per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			respondWithError(w, http.StatusTooManyRequests, "Too many requests, please try again later", "", nil)
			return
		}
		next(w, r)
	}
}

// CSRFProtect is middleware that validates CSRF tokens on form submissions
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("session_id")
		if err != nil {
			respondWithError(w, http.StatusForbidden, "Invalid CSRF token", "", nil)
			return
		}

		if err := r.ParseForm(); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid form data", "", err)
			return
		}

		token := r.FormValue("csrf_token")
		if !m.csrf.ValidateToken(cookie.Value, token) {
			respondWithError(w, http.StatusForbidden, "Invalid CSRF token", "", nil)
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetCSRFTokenFromContext retrieves the CSRF token set by RequireAuth
func GetCSRFTokenFromContext(ctx context.Context) string {
	token, ok := ctx.Value(CSRFTokenContextKey).(string)
	if !ok {
		return ""
	}
	return token
}

// GetAPIUserIDFromContext retrieves the bearer token user ID from the
// request context
func GetAPIUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(APIUserIDContextKey).(int64)
	return userID, ok
}
