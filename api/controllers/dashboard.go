package controllers

import (
	"net/http"
	"time"

	"github.com/inventorypro/inventorypro-backend/api/middleware"
	"github.com/inventorypro/inventorypro-backend/api/responses"
	"github.com/inventorypro/inventorypro-backend/internal/dashboard"
	"github.com/inventorypro/inventorypro-backend/pkg/errors"
	"github.com/inventorypro/inventorypro-backend/pkg/logger"
)

func DashboardSummary(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "dashboard service unavailable"))
			return
		}
		summary, err := svc.Summary(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// DashboardChart returns twelve monthly incoming and outgoing totals ending
// with the current month.
func DashboardChart(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "dashboard service unavailable"))
			return
		}
		months, err := svc.Chart(r.Context(), middleware.UserIDFromContext(r.Context()), time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, months)
	}
}
