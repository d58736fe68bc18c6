package middleware

import (
	"net/http"

	"github.com/gracepointe/serveteam-backend/api/responses"
	pkgerrors "github.com/gracepointe/serveteam-backend/pkg/errors"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
	"github.com/gracepointe/serveteam-backend/pkg/logger"
)

// RequireRole rejects callers whose role is not in the allowed set.
func RequireRole(logg *logger.Logger, roles ...enums.CallerRole) func(http.Handler) http.Handler {
	allowed := make(map[enums.CallerRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireScheduler admits admins and ministry leaders.
func RequireScheduler(logg *logger.Logger) func(http.Handler) http.Handler {
	return RequireRole(logg, enums.CallerRoleAdmin, enums.CallerRoleLeader)
}
