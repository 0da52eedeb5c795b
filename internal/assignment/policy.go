package assignment

import (
	"strings"

	"github.com/google/uuid"

	"github.com/greencycle-tech/ewaste-backend/pkg/db/models"
)

// Policy holds the eligibility and selection rules of the assignment engine.
// Eligibility is re-checked inside the transaction by the conditional updates;
// the policy check exists to fail fast with a precise reason.
type Policy struct {
	// PincodePrefixLen narrows geographic matching from same-city to a
	// shared pincode prefix. Zero keeps city-only matching.
	PincodePrefixLen int
}

// PincodePrefix returns the portion of the pincode used for matching, or ""
// when pincode narrowing is disabled.
func (p Policy) PincodePrefix(pincode string) string {
	if p.PincodePrefixLen <= 0 {
		return ""
	}
	pincode = strings.TrimSpace(pincode)
	if len(pincode) <= p.PincodePrefixLen {
		return pincode
	}
	return pincode[:p.PincodePrefixLen]
}

// Eligible reports whether the agent may take the order. The returned error
// carries the specific disqualification reason.
func (p Policy) Eligible(profile *models.AgentProfile, order *models.PickupOrder) error {
	if !profile.IsActive {
		return errAgentInactive()
	}
	if !strings.EqualFold(strings.TrimSpace(profile.ServiceCity), strings.TrimSpace(order.Address.City)) {
		return errAgentOutOfArea()
	}
	if prefix := p.PincodePrefix(order.Address.Pincode); prefix != "" {
		if !strings.HasPrefix(strings.TrimSpace(profile.ServicePincode), prefix) {
			return errAgentOutOfArea()
		}
	}
	if profile.ActiveOrders >= profile.MaxCapacity {
		return errAgentAtCapacity()
	}
	return nil
}

// Selector picks one agent out of the eligible set. weeklyCompletions maps
// agent user id to completed orders over the trailing week. Implementations
// return nil when no candidate should be chosen.
type Selector interface {
	Select(order *models.PickupOrder, candidates []models.AgentProfile, weeklyCompletions map[uuid.UUID]int64) *models.AgentProfile
}

// leastLoadedSelector is the default policy: ascending active orders, then
// descending weekly completions, then ascending user id for determinism.
type leastLoadedSelector struct{}

// NewDefaultSelector returns the standard least-loaded selection policy.
func NewDefaultSelector() Selector {
	return leastLoadedSelector{}
}

func (leastLoadedSelector) Select(_ *models.PickupOrder, candidates []models.AgentProfile, weeklyCompletions map[uuid.UUID]int64) *models.AgentProfile {
	var best *models.AgentProfile
	for i := range candidates {
		c := &candidates[i]
		if best == nil || betterCandidate(c, best, weeklyCompletions) {
			best = c
		}
	}
	return best
}

func betterCandidate(c, best *models.AgentProfile, weekly map[uuid.UUID]int64) bool {
	if c.ActiveOrders != best.ActiveOrders {
		return c.ActiveOrders < best.ActiveOrders
	}
	if weekly[c.UserID] != weekly[best.UserID] {
		return weekly[c.UserID] > weekly[best.UserID]
	}
	return c.UserID.String() < best.UserID.String()
}
