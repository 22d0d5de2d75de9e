package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/aaryaclothing/commerce-core/api/responses"
	"github.com/aaryaclothing/commerce-core/api/validators"
	checkoutsvc "github.com/aaryaclothing/commerce-core/internal/checkout"
	"github.com/aaryaclothing/commerce-core/pkg/enums"
	pkgerrors "github.com/aaryaclothing/commerce-core/pkg/errors"
	"github.com/aaryaclothing/commerce-core/pkg/logger"
)

type paymentCallbackRequest struct {
	OrderID string `json:"orderId" validate:"required"`
	Outcome string `json:"outcome" validate:"required,oneof=succeeded failed cancelled timed_out"`
}

// PaymentWebhook settles a pending order from the provider's callback.
// Providers retry; a repeated callback for a settled order gets the settled
// order back with 200.
func PaymentWebhook(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload paymentCallbackRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuid.Parse(payload.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}
		outcome, err := enums.ParsePaymentOutcome(payload.Outcome)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment outcome"))
			return
		}

		order, err := svc.OnPaymentResult(r.Context(), orderID, outcome)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}
