package model

// DateInterval represents the period a cost result covers.
type DateInterval struct {
	Start string
	End   string
}

// CostDimension is cost attributed to one (service, usage type) pair.
type CostDimension struct {
	Service   string
	UsageType string
	Amount    float64
	Unit      string
}

// DailyCost is one day of cost broken down by service and usage-type
// dimension, as returned by the cost-breakdown evidence source.
type DailyCost struct {
	DateInterval
	Total  float64
	Unit   string
	Groups []CostDimension
}
