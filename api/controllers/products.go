package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/aaryaclothing/commerce-core/api/responses"
	"github.com/aaryaclothing/commerce-core/api/validators"
	catalogsvc "github.com/aaryaclothing/commerce-core/internal/catalog"
	pkgerrors "github.com/aaryaclothing/commerce-core/pkg/errors"
	"github.com/aaryaclothing/commerce-core/pkg/logger"
)

type productUpsertRequest struct {
	SKU    string `json:"sku" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Price  string `json:"price" validate:"required"`
	Active *bool  `json:"active"`
}

type productView struct {
	SKU    string `json:"sku"`
	Name   string `json:"name"`
	Price  string `json:"price"`
	Active bool   `json:"active"`
}

// ProductUpsert creates or replaces a catalog entry.
func ProductUpsert(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload productUpsertRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := decimal.NewFromString(payload.Price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price"))
			return
		}
		active := true
		if payload.Active != nil {
			active = *payload.Active
		}

		product, err := svc.UpsertProduct(r.Context(), catalogsvc.ProductInput{
			SKU:    payload.SKU,
			Name:   payload.Name,
			Price:  price,
			Active: active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, productView{
			SKU:    product.SKU,
			Name:   product.Name,
			Price:  product.Price.StringFixed(2),
			Active: product.Active,
		})
	}
}
