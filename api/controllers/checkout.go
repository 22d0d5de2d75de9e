package controllers

import (
	"net/http"

	"github.com/aaryaclothing/commerce-core/api/middleware"
	"github.com/aaryaclothing/commerce-core/api/responses"
	checkoutsvc "github.com/aaryaclothing/commerce-core/internal/checkout"
	"github.com/aaryaclothing/commerce-core/pkg/logger"
)

// CheckoutSubmit converts the caller's cart into a pending-payment order.
func CheckoutSubmit(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := middleware.OwnerIDFromContext(r.Context())

		order, err := svc.Checkout(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderView(order))
	}
}
