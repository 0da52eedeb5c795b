package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greencycle-tech/ewaste-backend/api/middleware"
	"github.com/greencycle-tech/ewaste-backend/api/responses"
	"github.com/greencycle-tech/ewaste-backend/api/validators"
	"github.com/greencycle-tech/ewaste-backend/internal/orders"
	"github.com/greencycle-tech/ewaste-backend/pkg/logger"
)

// ListAgentOrders returns the calling agent's assigned workload.
func ListAgentOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := parseOrderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListForAgent(r.Context(), middleware.UserUUIDFromContext(r.Context()), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// UpdateOrderStatus moves an order the agent holds through the pickup
// lifecycle.
func UpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req orders.UpdateStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.UpdateStatus(r.Context(), middleware.UserUUIDFromContext(r.Context()), orderID, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
