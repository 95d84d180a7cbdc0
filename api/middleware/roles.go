package middleware

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// RequireRole admits callers whose token role is one of allowed.
func RequireRole(logg *logger.Logger, allowed ...enums.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := enums.UserRole(RoleFromContext(r.Context()))
			for _, candidate := range allowed {
				if role == candidate {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithField(ctx, "required_roles", allowed)
				logg.Warn(ctx, "authz.denied")
			}
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required"))
		})
	}
}
