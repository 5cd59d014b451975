package orchestrator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/elC0mpa/egress-doctor/model"
	"github.com/elC0mpa/egress-doctor/service"
	"github.com/elC0mpa/egress-doctor/service/enricher"
	"github.com/elC0mpa/egress-doctor/service/metrics"
	"github.com/elC0mpa/egress-doctor/service/remediator"
	"github.com/elC0mpa/egress-doctor/service/trigger"
)

type orchestratorService struct {
	triggerService    trigger.TriggerService
	enricherService   enricher.EnricherService
	remediatorService remediator.RemediatorService
	launcher          service.TaskLauncher
	notifier          service.Notifier
	identityService   service.IdentityService
	metrics           *metrics.Metrics
	logger            *slog.Logger

	dryRun  bool
	workers int

	// pending collects anomalies accepted during the detection phase so the
	// fan-out phase can process them with bounded concurrency.
	mu      sync.Mutex
	pending []model.AnomalyRecord
}

type OrchestratorService interface {
	Orchestrate(ctx context.Context) *model.CycleReport
}
