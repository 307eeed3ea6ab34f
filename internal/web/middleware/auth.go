package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const tenantContextKey contextKey = "tenant"

// TenantHeader carries the tenant when bearer auth is disabled.
const TenantHeader = "X-Tenant-ID"

// Claims are the claims of a tenant bearer token.
type Claims struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for tenantID. A ttl of zero issues a token without expiry.
func IssueToken(key []byte, tenantID, role string, ttl time.Duration) (string, error) {
	if len(key) == 0 {
		return "", errors.New("signing key is required")
	}
	if tenantID == "" {
		return "", errors.New("tenant is required")
	}
	now := time.Now()
	claims := Claims{
		TenantID: tenantID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  tenantID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a token and returns its claims.
func ParseToken(key []byte, token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.TenantID == "" {
		return nil, errors.New("token has no tenant_id claim")
	}
	return claims, nil
}

// RequireTenant resolves the tenant of every request. With a key, the tenant
// comes from a bearer token (Authorization header, or the token query
// parameter for websocket clients). Without a key, it comes from TenantHeader.
func RequireTenant(key []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tenant string
			if len(key) == 0 {
				tenant = strings.TrimSpace(r.Header.Get(TenantHeader))
			} else {
				claims, err := ParseToken(key, bearerToken(r))
				if err == nil {
					tenant = claims.TenantID
				}
			}
			if tenant == "" {
				http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(SetTenantInContext(r.Context(), tenant)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// TenantFromContext retrieves the tenant from the request context
func TenantFromContext(ctx context.Context) string {
	tenant, _ := ctx.Value(tenantContextKey).(string)
	return tenant
}

// SetTenantInContext adds a tenant to the context.
// This is primarily for testing - use RequireTenant middleware in production.
func SetTenantInContext(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, tenantContextKey, tenant)
}
