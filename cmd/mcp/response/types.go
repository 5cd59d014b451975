package response

// AccountInfo represents cloud account identity
type AccountInfo struct {
	Provider    string `json:"provider"`
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
}

// CostDimension represents cost attributed to one service and usage type
type CostDimension struct {
	Service   string  `json:"service"`
	UsageType string  `json:"usage_type"`
	Amount    float64 `json:"amount"`
	Unit      string  `json:"unit"`
}

// DailyCost represents one day of cost broken down by dimension
type DailyCost struct {
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
	Total     float64         `json:"total"`
	Currency  string          `json:"currency"`
	Groups    []CostDimension `json:"groups"`
}

// AnomalySummary represents one flagged observation from a scoring run
type AnomalySummary struct {
	AnomalyType string  `json:"anomaly_type"`
	UsageDate   string  `json:"usage_date"`
	ServiceCode string  `json:"service_code"`
	UsageType   string  `json:"usage_type"`
	Region      string  `json:"region"`
	ResourceID  string  `json:"resource_id"`
	CostUSD     float64 `json:"cost_usd"`
	Score       float64 `json:"score"`
}

// ScoringResult summarizes a local scoring run over the latest feature batch
type ScoringResult struct {
	RowsScored int              `json:"rows_scored"`
	Anomalies  []AnomalySummary `json:"anomalies"`
}

// IngressRule represents one flattened security-group ingress rule
type IngressRule struct {
	Protocol string `json:"protocol"`
	FromPort int32  `json:"from_port"`
	ToPort   int32  `json:"to_port"`
	CidrIPv4 string `json:"cidr_ipv4"`
	Open     bool   `json:"open_to_internet"`
}

// RemediationResult represents the outcome of one remediation attempt
type RemediationResult struct {
	Action     string `json:"action"`
	ResourceID string `json:"resource_id"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// Classification represents an egress classification verdict for an address
type Classification struct {
	Address  string `json:"address"`
	IsEgress bool   `json:"is_egress"`
}
