package model

// TaskOutcome pairs a remediation task with how it terminated.
type TaskOutcome struct {
	Task    RemediationTask
	Outcome RemediationOutcome
}

// CycleReport is the structured result of one full detection cycle, returned
// to the caller for programmatic chaining and rendered for humans.
type CycleReport struct {
	CycleID      string
	AccountID    string
	NoNewData    bool
	Failed       bool
	FailureStage string
	FailureCause string

	RowsScored   int
	AnomalyCount int

	Alerts   []EnrichedAlert
	Outcomes []TaskOutcome

	// DegradedAnomalies lists resource ids whose enrichment fell back to a
	// failure alert because narrative generation failed.
	DegradedAnomalies []string
}
