package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"orkutbook/internal/httputil"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ViewerIDKey is the context key for the authenticated viewer's ID
	ViewerIDKey contextKey = "viewer_id"
)

// ViewerMiddleware validates the JWT and stashes the viewer's UUID (the
// "sub" claim) in the request context. It identifies the viewer only;
// issuing tokens is someone else's job.
// Checks Authorization header first (mobile), then falls back to cookie (web).
func ViewerMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenString string

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				// Expected format: "Bearer <token>"
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
					tokenString = parts[1]
				}
			}

			if tokenString == "" {
				cookie, err := r.Cookie("access_token")
				if err == nil && cookie.Value != "" {
					tokenString = cookie.Value
				}
			}

			if tokenString == "" {
				httputil.WriteUnauthorized(w, "Missing authentication token")
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				httputil.WriteUnauthorized(w, "Invalid authentication token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				httputil.WriteUnauthorized(w, "Invalid authentication token")
				return
			}

			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				httputil.WriteUnauthorized(w, "Invalid token claims")
				return
			}
			viewerID, err := uuid.Parse(sub)
			if err != nil {
				httputil.WriteUnauthorized(w, "Invalid token claims")
				return
			}

			ctx := context.WithValue(r.Context(), ViewerIDKey, viewerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetViewerIDFromContext extracts the viewer ID from the request context.
// Returns the ID and true if present, or the zero UUID and false if not.
func GetViewerIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	viewerID, ok := ctx.Value(ViewerIDKey).(uuid.UUID)
	return viewerID, ok
}
