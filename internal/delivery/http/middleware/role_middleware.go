package middleware

import (
	"net/http"

	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/pkg/response"
)

// RequireRole creates a middleware that checks if the user has any of the required roles.
// Superusers pass every role check.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Role information not found")
				return
			}

			allowed := identity.IsSuperuser()
			for _, role := range roles {
				if identity.Role == role {
					allowed = true
					break
				}
			}

			if !allowed {
				response.Forbidden(w, "You don't have permission to access this resource")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireClinic refuses requests without a clinic in scope. Superusers
// select one with the X-Clinic-ID header.
func RequireClinic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "")
			return
		}
		if identity.ClinicID == nil {
			response.Forbidden(w, "Clinic context is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSuperuser is a convenience middleware for platform administration
func RequireSuperuser(next http.Handler) http.Handler {
	return RequireRole(entity.RoleSuperuser)(next)
}

// RequireAdmin is a convenience middleware for clinic administration
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(entity.RoleAdmin)(next)
}

// RequireClinician is a convenience middleware for clinical documentation
func RequireClinician(next http.Handler) http.Handler {
	return RequireRole(entity.RoleAdmin, entity.RoleDoctor)(next)
}
