package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/service"
	"clinic-management-api/pkg/jwt"
	"clinic-management-api/pkg/response"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const identityKey contextKey = "identity"

// ClinicHeader lets a superuser act inside one clinic.
const ClinicHeader = "X-Clinic-ID"

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID    uuid.UUID
	ClinicID  *uuid.UUID
	Role      string
	Username  string
	Email     string
	TokenID   string
	IP        string
	UserAgent string
}

func (i Identity) IsSuperuser() bool {
	return i.Role == entity.RoleSuperuser
}

// SystemIdentity is used by background jobs. Its UserID is uuid.Nil.
func SystemIdentity() Identity {
	return Identity{Role: entity.RoleSuperuser, Username: "system"}
}

// ContextWithIdentity stores the caller in ctx.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext extracts the caller set by Authenticate
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// GetUserIDFromContext extracts user ID from context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := IdentityFromContext(ctx)
	return id.UserID, ok
}

// GetTokenIDFromContext extracts token ID from context
func GetTokenIDFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	return id.TokenID, ok && id.TokenID != ""
}

type AuthMiddleware struct {
	jwtService *jwt.JWTService
	tokens     service.TokenStore
	log        *logrus.Logger
}

func NewAuthMiddleware(jwtService *jwt.JWTService, tokens service.TokenStore, log *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		tokens:     tokens,
		log:        log,
	}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		if claims.TokenType != jwt.AccessToken {
			response.Unauthorized(w, "Invalid token type")
			return
		}

		// Check if token exists in Redis (not revoked)
		valid, err := m.tokens.IsAccessValid(r.Context(), claims.UserID, claims.TokenID)
		if err != nil {
			m.log.Warnf("Failed to validate token: %+v", err)
			response.InternalServerError(w, "Failed to validate token", err)
			return
		}
		if !valid {
			response.Unauthorized(w, "Token has been revoked")
			return
		}

		identity := Identity{
			UserID:    claims.UserID,
			ClinicID:  claims.ClinicID,
			Role:      claims.Role,
			Username:  claims.Username,
			Email:     claims.Email,
			TokenID:   claims.TokenID,
			IP:        ClientIP(r),
			UserAgent: r.UserAgent(),
		}

		if header := r.Header.Get(ClinicHeader); header != "" && identity.IsSuperuser() {
			clinicID, err := uuid.Parse(header)
			if err != nil {
				response.BadRequest(w, "Invalid "+ClinicHeader+" header")
				return
			}
			identity.ClinicID = &clinicID
		}

		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	})
}

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the peer address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
