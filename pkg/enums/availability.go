package enums

// AvailabilityStatus classifies an agent's current workload pressure.
type AvailabilityStatus string

const (
	AvailabilityAvailable  AvailabilityStatus = "available"
	AvailabilityBusy       AvailabilityStatus = "busy"
	AvailabilityOverloaded AvailabilityStatus = "overloaded"
)

// String implements fmt.Stringer.
func (a AvailabilityStatus) String() string {
	return string(a)
}

// AvailabilityFor derives the status from the load ratio. The thresholds are
// monotonic in load: a ratio at or below one half is available, anything
// short of full capacity is busy, and at or past capacity is overloaded.
func AvailabilityFor(activeOrders, maxCapacity int) AvailabilityStatus {
	if maxCapacity <= 0 {
		return AvailabilityOverloaded
	}
	ratio := float64(activeOrders) / float64(maxCapacity)
	switch {
	case ratio <= 0.5:
		return AvailabilityAvailable
	case ratio < 1.0:
		return AvailabilityBusy
	default:
		return AvailabilityOverloaded
	}
}
