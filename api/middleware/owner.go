package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/aaryaclothing/commerce-core/api/responses"
	pkgerrors "github.com/aaryaclothing/commerce-core/pkg/errors"
	"github.com/aaryaclothing/commerce-core/pkg/logger"
)

const ownerIDHeader = "X-Owner-Id"

type ownerCtxKey struct{}

// RequireOwner pulls the caller's owner identity from the request header and
// puts it on the context. Requests without one are rejected before any
// handler runs.
func RequireOwner(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ownerID := strings.TrimSpace(r.Header.Get(ownerIDHeader))
			if ownerID == "" {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeUnauthorized, "owner identity required"))
				return
			}

			ctx := context.WithValue(r.Context(), ownerCtxKey{}, ownerID)
			if logg != nil {
				ctx = logg.WithOwnerID(ctx, ownerID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerIDFromContext returns the owner set by RequireOwner, or "".
func OwnerIDFromContext(ctx context.Context) string {
	if ownerID, ok := ctx.Value(ownerCtxKey{}).(string); ok {
		return ownerID
	}
	return ""
}
