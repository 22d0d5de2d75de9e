package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aaryaclothing/commerce-core/api/responses"
	"github.com/aaryaclothing/commerce-core/api/validators"
	inventorysvc "github.com/aaryaclothing/commerce-core/internal/inventory"
	pkgerrors "github.com/aaryaclothing/commerce-core/pkg/errors"
	"github.com/aaryaclothing/commerce-core/pkg/logger"
)

type restockRequest struct {
	SKU string `json:"sku" validate:"required"`
	Qty int    `json:"qty" validate:"required,min=1"`
}

type inventoryView struct {
	SKU          string `json:"sku"`
	AvailableQty int    `json:"availableQty"`
	ReservedQty  int    `json:"reservedQty"`
}

// InventoryRestock adds quantity to a SKU, creating the record on first stock.
func InventoryRestock(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload restockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Restock(r.Context(), payload.SKU, payload.Qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, inventoryView{
			SKU:          record.SKU,
			AvailableQty: record.AvailableQty,
			ReservedQty:  record.ReservedQty,
		})
	}
}

// InventoryAvailability reports how many units of a SKU can currently be held.
func InventoryAvailability(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sku := chi.URLParam(r, "sku")
		if sku == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "sku is required"))
			return
		}

		available, err := svc.GetAvailability(r.Context(), sku)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"sku": sku, "availableQty": available})
	}
}
