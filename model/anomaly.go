package model

import "time"

// Scored is the result of scoring one feature vector. AnomalyScore follows
// the isolation-forest decision convention: lower means more anomalous.
type Scored struct {
	IsAnomaly    bool    `json:"is_anomaly"`
	AnomalyScore float64 `json:"anomaly_score"`
}

// AnomalyRecord is one flagged observation, created per detection cycle and
// consumed by the enricher and the remediation orchestrator. It is ephemeral:
// it never outlives the cycle's working set.
type AnomalyRecord struct {
	AnomalyType  string           `json:"anomaly_type"`
	Observation  UsageObservation `json:"observation"`
	AnomalyScore float64          `json:"anomaly_score"`
	DetectedAt   time.Time        `json:"detected_at"`
	CycleID      string           `json:"cycle_id"`
}

// ResourceID returns the implicated resource identifier, or "" when the
// aggregation row carried none.
func (a AnomalyRecord) ResourceID() string { return a.Observation.ResourceID }

// EnrichedAlert is the terminal informational artifact: the anomaly, the
// corroborating evidence gathered from independent sources, and the generated
// root-cause narrative.
type EnrichedAlert struct {
	Anomaly         AnomalyRecord `json:"anomaly"`
	AccountID       string        `json:"account_id,omitempty"`
	ContextSnippets []string      `json:"context_snippets"`
	Narrative       string        `json:"narrative"`
	GeneratedAt     time.Time     `json:"generated_at"`
}

// Subject renders the notification subject line for this alert.
func (e EnrichedAlert) Subject() string {
	return "Egress Anomaly Detected: " + e.Anomaly.AnomalyType + " on " + e.Anomaly.Observation.ServiceCode
}
