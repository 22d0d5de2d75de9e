package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aaryaclothing/commerce-core/api/middleware"
	"github.com/aaryaclothing/commerce-core/api/responses"
	"github.com/aaryaclothing/commerce-core/api/validators"
	cartsvc "github.com/aaryaclothing/commerce-core/internal/cart"
	pkgerrors "github.com/aaryaclothing/commerce-core/pkg/errors"
	"github.com/aaryaclothing/commerce-core/pkg/logger"
)

type cartLineView struct {
	SKU       string    `json:"sku"`
	Qty       int       `json:"qty"`
	UnitPrice string    `json:"unitPrice"`
	AddedAt   time.Time `json:"addedAt"`
}

type cartView struct {
	OwnerID      string                `json:"ownerId"`
	Lines        []cartLineView        `json:"lines"`
	Subtotal     string                `json:"subtotal"`
	Version      int64                 `json:"version"`
	StockWarning *cartsvc.StockWarning `json:"stockWarning,omitempty"`
}

func newCartView(doc *cartsvc.Cart, warning *cartsvc.StockWarning) cartView {
	view := cartView{
		OwnerID:      doc.OwnerID,
		Lines:        []cartLineView{},
		Subtotal:     doc.Subtotal().StringFixed(2),
		Version:      doc.Version,
		StockWarning: warning,
	}
	for _, line := range doc.Lines {
		view.Lines = append(view.Lines, cartLineView{
			SKU:       line.SKU,
			Qty:       line.Qty,
			UnitPrice: line.UnitPrice.StringFixed(2),
			AddedAt:   line.AddedAt,
		})
	}
	return view
}

type cartAddItemRequest struct {
	SKU string `json:"sku" validate:"required"`
	Qty int    `json:"qty" validate:"required,min=1"`
}

type cartUpdateItemRequest struct {
	Qty int `json:"qty" validate:"min=0"`
}

// CartFetch returns the caller's current cart.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := middleware.OwnerIDFromContext(r.Context())

		doc, err := svc.GetCart(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(doc, nil))
	}
}

// CartAddItem merges a quantity into the cart, returning an advisory stock
// warning when availability looks short.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := middleware.OwnerIDFromContext(r.Context())

		var payload cartAddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		doc, warning, err := svc.AddLine(r.Context(), ownerID, payload.SKU, payload.Qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(doc, warning))
	}
}

// CartUpdateItem sets an absolute quantity for an existing line; zero removes it.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := middleware.OwnerIDFromContext(r.Context())
		sku := chi.URLParam(r, "sku")
		if sku == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "sku is required"))
			return
		}

		var payload cartUpdateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		doc, err := svc.UpdateLineQuantity(r.Context(), ownerID, sku, payload.Qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(doc, nil))
	}
}

// CartRemoveItem deletes a line; removing an absent line succeeds.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := middleware.OwnerIDFromContext(r.Context())
		sku := chi.URLParam(r, "sku")
		if sku == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "sku is required"))
			return
		}

		doc, err := svc.RemoveLine(r.Context(), ownerID, sku)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(doc, nil))
	}
}

// CartClear drops the whole cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := middleware.OwnerIDFromContext(r.Context())

		if err := svc.ClearCart(r.Context(), ownerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}
