package service

import (
	"context"
	"errors"

	"github.com/elC0mpa/egress-doctor/model"
)

// ErrNoBatch is returned by FeatureStore.LatestBatch when no feature batch has
// been produced yet. Absence of new data is an expected steady state, not a
// cycle failure.
var ErrNoBatch = errors.New("no feature batch available")

// FeatureStore reads feature batches and persists the fitted transform and
// trained model artifacts.
type FeatureStore interface {
	LatestBatch(ctx context.Context) (*model.FeatureBatch, error)
	Observations(ctx context.Context) ([]model.UsageObservation, error)

	PutTransform(ctx context.Context, blob []byte, meta model.ArtifactMetadata) error
	GetTransform(ctx context.Context) ([]byte, model.ArtifactMetadata, error)
	PutModel(ctx context.Context, blob []byte, meta model.ArtifactMetadata) error
	GetModel(ctx context.Context) ([]byte, model.ArtifactMetadata, error)
}

// ScoringEndpoint scores a batch of feature rows, preserving count and order.
type ScoringEndpoint interface {
	Score(ctx context.Context, batch *model.FeatureBatch) ([]model.Scored, error)
}

// AnomalyDispatcher accepts a flagged anomaly for downstream processing.
// Acceptance means enqueued or started, not completed.
type AnomalyDispatcher interface {
	Dispatch(ctx context.Context, rec model.AnomalyRecord) error
}

// TaskLauncher starts asynchronous execution of a remediation task without
// blocking on its completion.
type TaskLauncher interface {
	Launch(ctx context.Context, task model.RemediationTask) error
}

// Notifier delivers a human-readable message out-of-band. Fire-and-forget
// from the pipeline's perspective; delivery failures are logged, never
// silently swallowed.
type Notifier interface {
	Publish(ctx context.Context, subject, message string) error
}

// IdentityService provides cloud account identity information
type IdentityService interface {
	GetAccountInfo(ctx context.Context) (*model.AccountInfo, error)
}

// ConfigHistorySource looks up recent configuration changes for a resource.
// A resource with no recorded history yields an empty slice, not an error.
type ConfigHistorySource interface {
	RecentChanges(ctx context.Context, resourceID string, window model.TimeWindow) ([]model.ConfigChange, error)
}

// ActivitySource looks up recent management API activity for a resource.
type ActivitySource interface {
	RecentEvents(ctx context.Context, resourceID string, window model.TimeWindow) ([]model.APIEvent, error)
}

// CostBreakdownSource fetches a per-day cost breakdown grouped by service and
// usage-type dimension over a window.
type CostBreakdownSource interface {
	DailyBreakdown(ctx context.Context, window model.TimeWindow) ([]model.DailyCost, error)
}

// PromptStore fetches the externally versioned narrative prompt template.
type PromptStore interface {
	Template(ctx context.Context) (string, error)
}

// TextGenerator invokes a generative-text model synchronously.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, params model.GenerationParams) (string, error)
}

// PublicAccessBlocker applies a block-all-public-access configuration to an
// object storage bucket. Idempotent by construction.
type PublicAccessBlocker interface {
	BlockPublicAccess(ctx context.Context, bucket string) error
}

// SecurityGroupGateway reads and revokes ingress rules. Current rules must be
// re-read before every revoke so mutations never act on stale state.
type SecurityGroupGateway interface {
	IngressRules(ctx context.Context, groupID string) ([]model.IngressRule, error)
	RevokeIngress(ctx context.Context, groupID string, rules []model.IngressRule) error
}
