package controllers

import (
	"net/http"
	"strings"

	"github.com/greencycle-tech/ewaste-backend/api/validators"
	"github.com/greencycle-tech/ewaste-backend/internal/orders"
	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
	pkgerrors "github.com/greencycle-tech/ewaste-backend/pkg/errors"
	"github.com/greencycle-tech/ewaste-backend/pkg/pagination"
)

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func parsePageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

// parseOrderFilters reads the shared order listing filters: status, city,
// pincode, timeSlot and date.
func parseOrderFilters(r *http.Request) (orders.Filters, error) {
	var filters orders.Filters
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").WithDetails(map[string]any{"field": "status"})
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(query.Get("city")); raw != "" {
		filters.City = &raw
	}
	if raw := strings.TrimSpace(query.Get("pincode")); raw != "" {
		filters.Pincode = &raw
	}
	if raw := strings.TrimSpace(query.Get("timeSlot")); raw != "" {
		slot, err := enums.ParseTimeSlot(raw)
		if err != nil {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "unknown time slot").WithDetails(map[string]any{"field": "timeSlot"})
		}
		filters.TimeSlot = &slot
	}
	date, err := validators.ParseQueryDate(r, "date")
	if err != nil {
		return filters, err
	}
	filters.Date = date

	return filters, nil
}

func parseTimeframe(r *http.Request) (enums.StatsTimeframe, error) {
	timeframe, err := enums.ParseStatsTimeframe(r.URL.Query().Get("timeframe"))
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown timeframe").WithDetails(map[string]any{"field": "timeframe"})
	}
	return timeframe, nil
}
