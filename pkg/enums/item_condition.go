package enums

import "fmt"

// ItemCondition grades the physical state of an e-waste item.
type ItemCondition string

const (
	ItemConditionWorking ItemCondition = "working"
	ItemConditionPartial ItemCondition = "partially_working"
	ItemConditionDead    ItemCondition = "not_working"
	ItemConditionScrap   ItemCondition = "scrap"
)

var validItemConditions = []ItemCondition{
	ItemConditionWorking,
	ItemConditionPartial,
	ItemConditionDead,
	ItemConditionScrap,
}

// IsValid reports whether the value is a known ItemCondition.
func (i ItemCondition) IsValid() bool {
	for _, candidate := range validItemConditions {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseItemCondition converts raw input into an ItemCondition.
func ParseItemCondition(value string) (ItemCondition, error) {
	for _, candidate := range validItemConditions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item condition %q", value)
}
