package assignment

import (
	pkgerrors "github.com/greencycle-tech/ewaste-backend/pkg/errors"
)

// Failure reasons recorded on assignment events and surfaced to callers.
const (
	ReasonOrderNotFound        = "order_not_found"
	ReasonOrderAlreadyAssigned = "order_already_assigned"
	ReasonOrderNotAssignable   = "order_not_assignable"
	ReasonAgentNotFound        = "agent_not_found"
	ReasonAgentInactive        = "agent_inactive"
	ReasonAgentOutOfArea       = "agent_out_of_area"
	ReasonAgentAtCapacity      = "agent_at_capacity"
	ReasonNoEligibleAgent      = "no_eligible_agent"
	ReasonInfrastructure       = "infrastructure_error"
)

func errOrderNotFound() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").WithDetails(ReasonOrderNotFound)
}

func errOrderAlreadyAssigned() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already assigned").WithDetails(ReasonOrderAlreadyAssigned)
}

func errOrderNotAssignable() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not in an assignable state").WithDetails(ReasonOrderNotAssignable)
}

func errAgentNotFound() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "agent not found").WithDetails(ReasonAgentNotFound)
}

func errAgentInactive() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "agent is not active").WithDetails(ReasonAgentInactive)
}

func errAgentOutOfArea() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "agent does not serve the pickup area").WithDetails(ReasonAgentOutOfArea)
}

func errAgentAtCapacity() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "agent is at capacity").WithDetails(ReasonAgentAtCapacity)
}

// failReason maps a typed error back to the event-log reason string.
func failReason(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return ReasonInfrastructure
	}
	if reason, ok := typed.Details().(string); ok && reason != "" {
		return reason
	}
	if typed.Code() == pkgerrors.CodeDependency || typed.Code() == pkgerrors.CodeInternal {
		return ReasonInfrastructure
	}
	return string(typed.Code())
}
