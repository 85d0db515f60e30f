package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/inventorypro/inventorypro-backend/api/middleware"
	"github.com/inventorypro/inventorypro-backend/api/responses"
	"github.com/inventorypro/inventorypro-backend/api/validators"
	"github.com/inventorypro/inventorypro-backend/internal/adjustments"
	"github.com/inventorypro/inventorypro-backend/pkg/errors"
	"github.com/inventorypro/inventorypro-backend/pkg/logger"
)

type submitAdjustmentRequest struct {
	ProductID string  `json:"productId" validate:"required,uuid"`
	Type      string  `json:"type" validate:"required,oneof=incoming outgoing"`
	Units     int     `json:"units" validate:"gt=0,lte=2147483647"`
	Reason    *string `json:"reason" validate:"omitempty,max=500"`
}

func AdjustmentList(svc adjustments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "adjustment service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.OptionalUUID(r.URL.Query().Get("productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), middleware.UserIDFromContext(r.Context()), adjustments.ListInput{
			Type:      strings.TrimSpace(r.URL.Query().Get("type")),
			ProductID: productID,
			Page:      params.Page,
			Limit:     params.Limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// AdjustmentSubmit records a stock movement against one of the caller's
// products.
func AdjustmentSubmit(svc adjustments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "adjustment service unavailable"))
			return
		}

		var req submitAdjustmentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUID(req.ProductID, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithProductID(r.Context(), productID.String())
		dto, err := svc.Submit(ctx, middleware.UserIDFromContext(ctx), adjustments.SubmitInput{
			ProductID: productID,
			Type:      req.Type,
			Units:     req.Units,
			Reason:    req.Reason,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func AdjustmentExport(svc adjustments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "adjustment service unavailable"))
			return
		}

		adjustmentType := strings.TrimSpace(r.URL.Query().Get("type"))
		file, err := svc.Export(r.Context(), middleware.UserIDFromContext(r.Context()), adjustmentType, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCSV(w, file)
	}
}
