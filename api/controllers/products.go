package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/inventorypro/inventorypro-backend/api/middleware"
	"github.com/inventorypro/inventorypro-backend/api/responses"
	"github.com/inventorypro/inventorypro-backend/api/validators"
	product "github.com/inventorypro/inventorypro-backend/internal/products"
	"github.com/inventorypro/inventorypro-backend/pkg/errors"
	"github.com/inventorypro/inventorypro-backend/pkg/logger"
)

const productIDParam = "productId"

type createProductRequest struct {
	Name        string           `json:"name" validate:"required,max=255"`
	SKU         string           `json:"sku" validate:"required,max=64"`
	Category    string           `json:"category" validate:"max=64"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Stock       int              `json:"stock" validate:"gte=0"`
	MinStock    int              `json:"minStock" validate:"gte=0"`
	Supplier    *string          `json:"supplier" validate:"omitempty,max=255"`
	Location    *string          `json:"location" validate:"omitempty,max=255"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
}

type updateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	SKU         *string          `json:"sku" validate:"omitempty,min=1,max=64"`
	Category    *string          `json:"category" validate:"omitempty,max=64"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	MinStock    *int             `json:"minStock" validate:"omitempty,gte=0"`
	Supplier    *string          `json:"supplier" validate:"omitempty,max=255"`
	Location    *string          `json:"location" validate:"omitempty,max=255"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
}

func ProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "product service unavailable"))
			return
		}

		query := r.URL.Query()
		items, err := svc.List(r.Context(), middleware.UserIDFromContext(r.Context()), product.ListInput{
			Category: strings.TrimSpace(query.Get("category")),
			Status:   strings.TrimSpace(query.Get("status")),
			Search:   validators.SanitizeString(query.Get("search"), 255),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func ProductCreate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "product service unavailable"))
			return
		}

		var req createProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Create(r.Context(), middleware.UserIDFromContext(r.Context()), product.CreateInput{
			Name:        req.Name,
			SKU:         req.SKU,
			Category:    req.Category,
			Price:       *req.Price,
			Stock:       req.Stock,
			MinStock:    req.MinStock,
			Supplier:    req.Supplier,
			Location:    req.Location,
			Description: req.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func ProductDetail(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := validators.ParseUUID(chi.URLParam(r, productIDParam), productIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), middleware.UserIDFromContext(r.Context()), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func ProductUpdate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := validators.ParseUUID(chi.URLParam(r, productIDParam), productIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), middleware.UserIDFromContext(r.Context()), productID, product.UpdateInput{
			Name:        req.Name,
			SKU:         req.SKU,
			Category:    req.Category,
			Price:       req.Price,
			Stock:       req.Stock,
			MinStock:    req.MinStock,
			Supplier:    req.Supplier,
			Location:    req.Location,
			Description: req.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func ProductDelete(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := validators.ParseUUID(chi.URLParam(r, productIDParam), productIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), middleware.UserIDFromContext(r.Context()), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ProductExport downloads the caller's catalogue as CSV.
func ProductExport(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "product service unavailable"))
			return
		}

		file, err := svc.Export(r.Context(), middleware.UserIDFromContext(r.Context()), time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCSV(w, file)
	}
}
