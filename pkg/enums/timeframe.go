package enums

import "fmt"

// StatsTimeframe bounds the statistics aggregation window.
type StatsTimeframe string

const (
	TimeframeToday StatsTimeframe = "today"
	TimeframeWeek  StatsTimeframe = "week"
	TimeframeMonth StatsTimeframe = "month"
)

var validStatsTimeframes = []StatsTimeframe{
	TimeframeToday,
	TimeframeWeek,
	TimeframeMonth,
}

// IsValid reports whether the value is a known StatsTimeframe.
func (s StatsTimeframe) IsValid() bool {
	for _, candidate := range validStatsTimeframes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStatsTimeframe converts raw input into a StatsTimeframe, defaulting to today.
func ParseStatsTimeframe(value string) (StatsTimeframe, error) {
	if value == "" {
		return TimeframeToday, nil
	}
	for _, candidate := range validStatsTimeframes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid statistics timeframe %q", value)
}
