package enums

import "fmt"

// AssignmentMode records how an order/agent binding was produced.
type AssignmentMode string

const (
	AssignmentModeManual   AssignmentMode = "manual"
	AssignmentModeBulk     AssignmentMode = "bulk"
	AssignmentModeAuto     AssignmentMode = "auto"
	AssignmentModeReassign AssignmentMode = "reassign"
)

var validAssignmentModes = []AssignmentMode{
	AssignmentModeManual,
	AssignmentModeBulk,
	AssignmentModeAuto,
	AssignmentModeReassign,
}

// String implements fmt.Stringer.
func (a AssignmentMode) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AssignmentMode.
func (a AssignmentMode) IsValid() bool {
	for _, candidate := range validAssignmentModes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAssignmentMode converts raw input into an AssignmentMode.
func ParseAssignmentMode(value string) (AssignmentMode, error) {
	for _, candidate := range validAssignmentModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment mode %q", value)
}

// AssignmentResult is the outcome recorded on an assignment event.
type AssignmentResult string

const (
	AssignmentResultSuccess AssignmentResult = "success"
	AssignmentResultFailure AssignmentResult = "failure"
)

// String implements fmt.Stringer.
func (a AssignmentResult) String() string {
	return string(a)
}
