package enricher

import (
	"context"
	"log/slog"
	"time"

	"github.com/elC0mpa/egress-doctor/model"
	"github.com/elC0mpa/egress-doctor/service"
)

type enricherService struct {
	configHistory service.ConfigHistorySource
	activity      service.ActivitySource
	costs         service.CostBreakdownSource
	prompts       service.PromptStore
	generator     service.TextGenerator
	logger        *slog.Logger

	lookupTimeout   time.Duration
	generateTimeout time.Duration
	lookupRetries   uint64
}

type EnricherService interface {
	Enrich(ctx context.Context, anomaly model.AnomalyRecord) (*model.EnrichedAlert, error)
}

// Evidence windows around the anomaly timestamp.
const (
	configLookback   = 24 * time.Hour
	activityLookback = 24 * time.Hour
	costWindowBefore = 2 * 24 * time.Hour
	costWindowAfter  = 24 * time.Hour
)
