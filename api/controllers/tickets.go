package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/greencycle-tech/ewaste-backend/api/middleware"
	"github.com/greencycle-tech/ewaste-backend/api/responses"
	"github.com/greencycle-tech/ewaste-backend/api/validators"
	"github.com/greencycle-tech/ewaste-backend/internal/tickets"
	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
	pkgerrors "github.com/greencycle-tech/ewaste-backend/pkg/errors"
	"github.com/greencycle-tech/ewaste-backend/pkg/logger"
)

func ticketActorFromContext(r *http.Request) tickets.Actor {
	return tickets.Actor{
		UserID: middleware.UserUUIDFromContext(r.Context()),
		Role:   middleware.RoleFromContext(r.Context()),
	}
}

func CreateTicket(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tickets.CreateTicketRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticket, err := svc.Create(r.Context(), middleware.UserUUIDFromContext(r.Context()), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, ticket)
	}
}

func ListTickets(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var filters tickets.Filters
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseTicketStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "unknown ticket status").WithDetails(map[string]any{"field": "status"}))
				return
			}
			filters.Status = &status
		}
		list, err := svc.List(r.Context(), ticketActorFromContext(r), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetTicket(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticketID, err := validators.ParsePathUUID(chi.URLParam(r, "ticketId"), "ticketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticket, err := svc.Get(r.Context(), ticketActorFromContext(r), ticketID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticket)
	}
}

func AddTicketMessage(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticketID, err := validators.ParsePathUUID(chi.URLParam(r, "ticketId"), "ticketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req tickets.AddMessageRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticket, err := svc.AddMessage(r.Context(), ticketActorFromContext(r), ticketID, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, ticket)
	}
}

func UpdateTicketStatus(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticketID, err := validators.ParsePathUUID(chi.URLParam(r, "ticketId"), "ticketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req tickets.UpdateStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticket, err := svc.UpdateStatus(r.Context(), ticketActorFromContext(r), ticketID, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticket)
	}
}
