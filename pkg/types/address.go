package types

import "strings"

// PickupAddress is the customer-facing location of a pickup order. It is
// embedded into the order row so eligibility queries can filter on city and
// pincode without joins.
type PickupAddress struct {
	Street   string `gorm:"column:street" json:"street"`
	City     string `gorm:"column:city" json:"city"`
	Pincode  string `gorm:"column:pincode" json:"pincode"`
	Landmark string `gorm:"column:landmark" json:"landmark,omitempty"`
}

// NormalizedCity returns the city lowered and trimmed for matching.
func (a PickupAddress) NormalizedCity() string {
	return strings.ToLower(strings.TrimSpace(a.City))
}

// PincodePrefix returns the first n characters of the pincode, or the whole
// pincode when it is shorter.
func (a PickupAddress) PincodePrefix(n int) string {
	p := strings.TrimSpace(a.Pincode)
	if n <= 0 || len(p) <= n {
		return p
	}
	return p[:n]
}
