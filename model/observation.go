package model

import "time"

// UsageObservation is one aggregated row of daily egress activity, produced
// by the external aggregation job. Rows are immutable once written and unique
// per Key; duplicate keys would double-count cost during scoring.
type UsageObservation struct {
	Date        time.Time `json:"usage_date"`
	ServiceCode string    `json:"service_code"`
	UsageType   string    `json:"usage_type"`
	Region      string    `json:"region"`
	ResourceID  string    `json:"resource_id,omitempty"`
	CostUSD     float64   `json:"daily_egress_cost_usd"`
	UsageAmount float64   `json:"daily_egress_usage_amount"`
}

// ObservationKey uniquely identifies an observation.
type ObservationKey struct {
	Date        string
	ServiceCode string
	UsageType   string
	Region      string
	ResourceID  string
}

func (o UsageObservation) Key() ObservationKey {
	return ObservationKey{
		Date:        o.Date.Format("2006-01-02"),
		ServiceCode: o.ServiceCode,
		UsageType:   o.UsageType,
		Region:      o.Region,
		ResourceID:  o.ResourceID,
	}
}

// Validate checks the observation against the data contract.
func (o UsageObservation) Validate() error {
	switch {
	case o.Date.IsZero():
		return &SchemaError{Field: "usage_date", Reason: "missing or unparseable"}
	case o.ServiceCode == "":
		return &SchemaError{Field: "service_code", Reason: "required"}
	case o.UsageType == "":
		return &SchemaError{Field: "usage_type", Reason: "required"}
	case o.Region == "":
		return &SchemaError{Field: "region", Reason: "required"}
	case o.CostUSD < 0:
		return &SchemaError{Field: "daily_egress_cost_usd", Reason: "must be non-negative"}
	case o.UsageAmount < 0:
		return &SchemaError{Field: "daily_egress_usage_amount", Reason: "must be non-negative"}
	}
	return nil
}
