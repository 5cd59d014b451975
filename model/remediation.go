package model

// Action identifies a vetted remediation. The set is closed: anything outside
// it is skipped, never guessed at.
type Action string

const (
	ActionBlockS3PublicAccess   Action = "remediate_s3_public_access"
	ActionRestrictSecurityGroup Action = "remediate_security_group"
)

// RemediationStatus is the terminal state of one remediation attempt.
type RemediationStatus string

const (
	// StatusSuccess means the mutating call was applied and succeeded.
	StatusSuccess RemediationStatus = "success"
	// StatusNoAction means the check ran but found nothing to change. Distinct
	// from success on the audit trail: no state was mutated.
	StatusNoAction RemediationStatus = "no_action"
	// StatusSkipped means the action was not in the dispatch table.
	StatusSkipped RemediationStatus = "skipped"
	StatusFailed  RemediationStatus = "failed"
)

// RemediationTask asks for exactly one remediation against one resource.
// Tasks are idempotent: re-submitting the same task converges to the same
// success/no_action state without additional side effects.
type RemediationTask struct {
	TaskID         string         `json:"task_id,omitempty"`
	Action         Action         `json:"action"`
	ResourceID     string         `json:"resourceId"`
	AnomalyDetails map[string]any `json:"anomalyDetails,omitempty"`
}

// RemediationOutcome reports how a task terminated.
type RemediationOutcome struct {
	Status  RemediationStatus `json:"status"`
	Message string            `json:"message"`
}

// IngressRule is one flattened security-group ingress rule: a single protocol,
// port range and source CIDR. A permission entry with several source ranges
// flattens to several rules so a revoke can target exactly the offending one.
type IngressRule struct {
	Protocol string `json:"protocol"`
	FromPort int32  `json:"from_port"`
	ToPort   int32  `json:"to_port"`
	CidrIPv4 string `json:"cidr_ipv4"`
}
