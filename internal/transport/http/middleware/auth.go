package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"streamify/internal/httputil"
	"streamify/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserIDKey is the context key for the authenticated user's ID
	UserIDKey contextKey = "user_id"

	// AccessTokenCookie is the cookie the web client sends the access token in.
	AccessTokenCookie = "accessToken"
)

var (
	errMissingToken = errors.New("missing token")
	errTokenExpired = errors.New("token expired")
	errTokenInvalid = errors.New("token invalid")
)

// AuthMiddleware creates a middleware that validates JWT tokens
// Checks Authorization header first (API clients), then falls back to cookie (web)
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authenticate(r, jwtSecret)
			switch {
			case errors.Is(err, errMissingToken):
				httputil.WriteUnauthorized(w, "Unauthorized request")
				return
			case errors.Is(err, errTokenExpired):
				httputil.WriteUnauthorized(w, "Access token has expired", model.CodeTokenExpired)
				return
			case err != nil:
				httputil.WriteUnauthorized(w, "Invalid access token", model.CodeTokenInvalid)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the user id when a valid token is present and
// otherwise lets the request through anonymously. Public reads use it to
// compute viewer-relative flags such as isLiked.
func OptionalAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := authenticate(r, jwtSecret); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), UserIDKey, userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func authenticate(r *http.Request, jwtSecret string) (uuid.UUID, error) {
	tokenString := bearerToken(r)
	if tokenString == "" {
		if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
			tokenString = cookie.Value
		}
	}
	if tokenString == "" {
		return uuid.Nil, errMissingToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, errTokenExpired
		}
		return uuid.Nil, errTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, errTokenInvalid
	}

	raw, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, errTokenInvalid
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errTokenInvalid
	}
	return userID, nil
}

// Expected format: "Bearer <token>"
func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// GetUserIDFromContext extracts the user ID from the request context
// Returns the user ID and true if found, or uuid.Nil and false if not found
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}
