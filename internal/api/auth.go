package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const adminRole = "admin"

type contextKey string

const reviewerKey contextKey = "reviewer"

// AdminClaims are carried by reviewer bearer tokens
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueAdminToken signs an HS256 reviewer token for subject valid for ttl
func IssueAdminToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("admin jwt secret is not configured")
	}
	now := time.Now()
	claims := AdminClaims{
		Role: adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return signed, nil
}

// AdminAuth rejects requests without a valid admin bearer token.
// An empty secret disables the admin surface entirely.
func AdminAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				WriteError(w, http.StatusServiceUnavailable, "admin_disabled", "admin access is not configured")
				return
			}

			authHeader := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || tokenString == "" {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "bearer token required")
				return
			}

			var claims AdminClaims
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
			if err != nil || !token.Valid {
				zap.L().Warn("Rejected admin token", zap.Error(err))
				WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}
			if claims.Role != adminRole {
				WriteError(w, http.StatusForbidden, "forbidden", "admin role required")
				return
			}

			ctx := context.WithValue(r.Context(), reviewerKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ReviewerFromContext returns the authenticated reviewer subject
func ReviewerFromContext(ctx context.Context) string {
	v, _ := ctx.Value(reviewerKey).(string)
	return v
}
