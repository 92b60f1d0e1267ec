package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const CallerKey contextKey = "caller"

const (
	ScopeBot   = "bot"
	ScopeAdmin = "admin"
)

// Caller identifies the service that signed the request token.
type Caller struct {
	Subject string
	Scope   string
}

// ServiceAuthMiddleware validates the HS256 service token the bot gateway
// sends. Membership and validator roles live on the platform side; this only
// proves the request came from the gateway.
func ServiceAuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := verifyToken(r, secret)
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), CallerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnlyMiddleware gates the administrative surface on the admin scope.
func AdminOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := GetCaller(r.Context())
		if !ok || caller.Scope != ScopeAdmin {
			respondWithError(w, http.StatusForbidden, "Admin scope required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func verifyToken(r *http.Request, secret string) (*Caller, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("authorization header required")
	}

	raw := strings.TrimPrefix(authHeader, "Bearer ")
	if raw == authHeader {
		return nil, fmt.Errorf("invalid authorization format, use 'Bearer <token>'")
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	subject, _ := claims.GetSubject()
	scope, _ := claims["scope"].(string)
	if scope == "" {
		scope = ScopeBot
	}

	return &Caller{Subject: subject, Scope: scope}, nil
}

// GetCaller extracts the authenticated caller from context.
func GetCaller(ctx context.Context) (*Caller, bool) {
	caller, ok := ctx.Value(CallerKey).(*Caller)
	return caller, ok
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write([]byte(fmt.Sprintf(`{"error": "%s"}`, message)))
}
