package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/greencycle-tech/ewaste-backend/api/middleware"
	"github.com/greencycle-tech/ewaste-backend/api/responses"
	"github.com/greencycle-tech/ewaste-backend/api/validators"
	"github.com/greencycle-tech/ewaste-backend/internal/assignment"
	"github.com/greencycle-tech/ewaste-backend/internal/orders"
	"github.com/greencycle-tech/ewaste-backend/pkg/logger"
)

// ListPendingOrders returns confirmed, unassigned orders for dispatchers.
func ListPendingOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
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
		list, err := svc.ListUnassigned(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AssignOrder(svc assignment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req assignment.AssignRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Assign(r.Context(), middleware.UserUUIDFromContext(r.Context()), orderID, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ReassignOrder(svc assignment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req assignment.ReassignRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Reassign(r.Context(), middleware.UserUUIDFromContext(r.Context()), orderID, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func BulkAssignOrders(svc assignment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assignment.BulkAssignRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.BulkAssign(r.Context(), middleware.UserUUIDFromContext(r.Context()), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AutoAssignOrders(svc assignment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assignment.AutoAssignRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID := middleware.UserUUIDFromContext(r.Context())
		req.TriggeredBy = &actorID
		result, err := svc.AutoAssign(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AssignmentStatistics(svc assignment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timeframe, err := parseTimeframe(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stats, err := svc.GetStatistics(r.Context(), timeframe)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func AgentAvailability(svc assignment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		list, err := svc.ListAvailability(r.Context(), query.Get("city"), query.Get("pincode"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AgentPerformance(svc assignment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentID, err := validators.ParsePathUUID(chi.URLParam(r, "agentId"), "agentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		timeframe, err := parseTimeframe(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		performance, err := svc.GetAgentPerformance(r.Context(), agentID, timeframe)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, performance)
	}
}

type notifyAgentRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

// NotifyAgent re-sends the assignment notification for an order the agent
// already holds.
func NotifyAgent(svc assignment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentID, err := validators.ParsePathUUID(chi.URLParam(r, "agentId"), "agentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req notifyAgentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.NotifyAgent(r.Context(), agentID, req.OrderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "notified"})
	}
}
