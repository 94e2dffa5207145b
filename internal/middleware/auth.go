package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"ilumina-bknd/internal/auth"
	"ilumina-bknd/internal/services"
)

type AuthMiddleware struct {
	jwt         *auth.JWTManager
	authService *services.AuthService
	logr        *zap.Logger
}

type contextKey string

const (
	ContextUserIDKey contextKey = "userID"
	ContextRolesKey  contextKey = "roles"
)

// NewAuthMiddleware creates a reusable JWT auth middleware instance
func NewAuthMiddleware(jwt *auth.JWTManager, authService *services.AuthService, logr *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwt:         jwt,
		authService: authService,
		logr:        logr,
	}
}

// JWTAuth validates the token and attaches user info to request context
func (m *AuthMiddleware) JWTAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			http.Error(w, "invalid token format", http.StatusUnauthorized)
			return
		}

		claims, err := m.jwt.VerifyToken(tokenString)
		if err != nil {
			m.logr.Warn("token parse error", zap.Error(err))
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		if claims["typ"] != string(auth.AccessToken) {
			http.Error(w, "not an access token", http.StatusUnauthorized)
			return
		}

		userID, _ := claims["sub"].(string)
		tokenVersionFloat, _ := claims["ver"].(float64)
		tokenVersion := int(tokenVersionFloat)

		// Validate token version from DB
		valid, err := m.authService.CheckTokenVersion(r.Context(), userID, tokenVersion)
		if err != nil {
			m.logr.Error("failed checking token version", zap.Error(err), zap.String("user_id", userID))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if !valid {
			m.logr.Warn("token version invalid", zap.String("user_id", userID))
			http.Error(w, "token revoked or invalid", http.StatusUnauthorized)
			return
		}

		var roles []string
		if raw, ok := claims["roles"].([]interface{}); ok {
			for _, r := range raw {
				if s, ok := r.(string); ok {
					roles = append(roles, s)
				}
			}
		}

		// Attach user info to request context
		ctx := context.WithValue(r.Context(), ContextUserIDKey, userID)
		ctx = context.WithValue(ctx, ContextRolesKey, roles)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
