package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aaryaclothing/commerce-core/api/middleware"
	"github.com/aaryaclothing/commerce-core/api/responses"
	ordersvc "github.com/aaryaclothing/commerce-core/internal/orders"
	"github.com/aaryaclothing/commerce-core/pkg/db/models"
	pkgerrors "github.com/aaryaclothing/commerce-core/pkg/errors"
	"github.com/aaryaclothing/commerce-core/pkg/logger"
)

type orderLineView struct {
	SKU       string `json:"sku"`
	Qty       int    `json:"qty"`
	UnitPrice string `json:"unitPrice"`
	LineTotal string `json:"lineTotal"`
}

type orderView struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	Subtotal      string          `json:"subtotal"`
	Currency      string          `json:"currency"`
	ReservationID *string         `json:"reservationId,omitempty"`
	FailureReason *string         `json:"failureReason,omitempty"`
	Lines         []orderLineView `json:"lines"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func newOrderView(order *models.Order) orderView {
	view := orderView{
		ID:            order.ID.String(),
		Status:        order.Status.String(),
		Subtotal:      order.Subtotal.StringFixed(2),
		Currency:      order.Currency.String(),
		FailureReason: order.FailureReason,
		Lines:         []orderLineView{},
		CreatedAt:     order.CreatedAt,
	}
	if order.ReservationID != nil {
		id := order.ReservationID.String()
		view.ReservationID = &id
	}
	for _, line := range order.Lines {
		view.Lines = append(view.Lines, orderLineView{
			SKU:       line.SKU,
			Qty:       line.Qty,
			UnitPrice: line.UnitPrice.StringFixed(2),
			LineTotal: line.LineTotal.StringFixed(2),
		})
	}
	return view
}

// OrderFetch returns one of the caller's orders.
func OrderFetch(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := middleware.OwnerIDFromContext(r.Context())

		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		order, err := svc.GetForOwner(r.Context(), orderID, ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

// OrderList returns the caller's most recent orders.
func OrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := middleware.OwnerIDFromContext(r.Context())

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid limit"))
				return
			}
			limit = parsed
		}

		list, err := svc.ListByOwner(r.Context(), ownerID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]orderView, 0, len(list))
		for i := range list {
			views = append(views, newOrderView(&list[i]))
		}
		responses.WriteSuccess(w, views)
	}
}
