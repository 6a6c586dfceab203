package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fkhayef/parkwise/pkg/response"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// UserIDKey is the context key for the authenticated account ID
	UserIDKey ContextKey = "user_id"
	// RoleKey is the context key for the authenticated role
	RoleKey ContextKey = "role"
)

// Platform roles
const (
	RoleAdmin         = "admin"
	RoleMunicipal     = "municipal"
	RoleEstablishment = "establishment"
	RoleDriver        = "driver"
	RoleScanner       = "scanner"
)

// Claims is the JWT payload issued by the session service
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator validates HS256 bearer tokens. With an empty secret it runs
// in development mode and trusts the X-Test-User-ID and X-Test-Role headers.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator for the given signing secret
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// DevMode reports whether tokens are bypassed
func (a *Authenticator) DevMode() bool {
	return len(a.secret) == 0
}

// Middleware authenticates the request and stores the account ID and role
// in the context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	if a.DevMode() {
		return TestUserMiddleware(next)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := a.validateToken(parts[1])
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		ctx := WithUser(r.Context(), claims.Subject, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) validateToken(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" || claims.Role == "" {
		return nil, errors.New("token missing subject or role")
	}
	return claims, nil
}

// IssueToken signs a token for the given account; used by tests and tooling
func (a *Authenticator) IssueToken(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// TestUserMiddleware allows setting the caller via X-Test-User-ID and
// X-Test-Role headers (DEV ONLY). Defaults to an admin caller.
func TestUserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get("X-Test-User-ID"))
		if userID == "" {
			userID = "dev-admin"
		}
		role := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Test-Role")))
		if role == "" {
			role = RoleAdmin
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID, role)))
	})
}

// RequireRole rejects callers whose role is not in roles
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetRole(r.Context())
			if !ok {
				response.Unauthorized(w, "Authentication required")
				return
			}
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.Forbidden(w, "Insufficient role for this operation")
		})
	}
}

// CanAccessOwner reports whether the caller may read data belonging to
// ownerID: admins always, slot owners only for their own account.
func CanAccessOwner(ctx context.Context, ownerID string) bool {
	role, _ := GetRole(ctx)
	if role == RoleAdmin {
		return true
	}
	userID, ok := GetUserID(ctx)
	return ok && userID == ownerID && (role == RoleMunicipal || role == RoleEstablishment)
}

// WithUser stores the caller in ctx
func WithUser(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, RoleKey, role)
}

// GetUserID extracts the account ID from the request context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetRole extracts the caller's role from the request context
func GetRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}
