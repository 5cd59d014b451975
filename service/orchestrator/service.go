package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/elC0mpa/egress-doctor/model"
	"github.com/elC0mpa/egress-doctor/service"
	"github.com/elC0mpa/egress-doctor/service/enricher"
	"github.com/elC0mpa/egress-doctor/service/metrics"
	"github.com/elC0mpa/egress-doctor/service/remediator"
	"github.com/elC0mpa/egress-doctor/service/trigger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 4

// NewService wires the full pipeline. The orchestrator registers itself as
// the detection trigger's anomaly dispatcher, so flagged anomalies land in
// its working set and are fanned out after the detection phase completes.
// A nil launcher runs remediations in-process; a non-nil launcher hands them
// off for asynchronous execution instead.
func NewService(store service.FeatureStore, endpoint service.ScoringEndpoint, enricherService enricher.EnricherService, remediatorService remediator.RemediatorService, launcher service.TaskLauncher, notifier service.Notifier, identityService service.IdentityService, m *metrics.Metrics, logger *slog.Logger, flags model.Flags) *orchestratorService {
	if logger == nil {
		logger = slog.Default()
	}
	workers := flags.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	s := &orchestratorService{
		enricherService:   enricherService,
		remediatorService: remediatorService,
		launcher:          launcher,
		notifier:          notifier,
		identityService:   identityService,
		metrics:           m,
		logger:            logger,
		dryRun:            flags.DryRun,
		workers:           workers,
	}
	s.triggerService = trigger.NewService(store, endpoint, s, notifier, logger)
	return s
}

// Dispatch accepts a flagged anomaly into the cycle's working set.
func (s *orchestratorService) Dispatch(ctx context.Context, rec model.AnomalyRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.pending = append(s.pending, rec)
	s.mu.Unlock()
	return nil
}

// Orchestrate runs one full cycle: detection, then per-anomaly enrichment and
// remediation with bounded concurrency. It always returns a report, never an
// error: every failure mode is captured in the report and on the audit trail.
func (s *orchestratorService) Orchestrate(ctx context.Context) *model.CycleReport {
	start := time.Now()

	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()

	report := &model.CycleReport{AccountID: s.lookupAccount(ctx)}

	result := s.triggerService.Run(ctx)
	report.CycleID = result.CycleID
	report.NoNewData = result.NoNewData
	report.RowsScored = result.RowsScored
	report.AnomalyCount = result.AnomalyCount

	defer func() {
		s.metrics.RecordCycleDuration(time.Since(start).Seconds())
	}()

	if result.State == trigger.StateFailed {
		report.Failed = true
		report.FailureStage = string(result.FailureStage)
		if result.Err != nil {
			report.FailureCause = result.Err.Error()
		}
		s.metrics.RecordCycle("failed")
		return report
	}
	if result.NoNewData {
		s.metrics.RecordCycle("no_data")
		return report
	}

	s.metrics.RecordScored(result.RowsScored)
	s.metrics.RecordAnomalies(result.AnomalyCount)

	s.mu.Lock()
	anomalies := s.pending
	s.pending = nil
	s.mu.Unlock()

	var reportMu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)
	for _, rec := range anomalies {
		group.Go(func() error {
			s.processAnomaly(groupCtx, rec, report, &reportMu)
			return nil
		})
	}
	group.Wait()

	s.metrics.RecordCycle("done")
	return report
}

// processAnomaly enriches one anomaly, publishes its alert and runs the
// mapped remediation, if any. Enrichment failure degrades the alert but does
// not stop remediation: containment must not wait on narrative generation.
func (s *orchestratorService) processAnomaly(ctx context.Context, rec model.AnomalyRecord, report *model.CycleReport, reportMu *sync.Mutex) {
	log := s.logger.With("cycle_id", rec.CycleID, "resource_id", rec.ResourceID())

	alert, err := s.enricherService.Enrich(ctx, rec)
	if err != nil {
		log.Error("context enrichment failed, publishing degraded alert", "error", err)
		s.metrics.RecordNarrativeFailure()
		s.publishDegradedAlert(ctx, log, rec, err)

		reportMu.Lock()
		report.DegradedAnomalies = append(report.DegradedAnomalies, rec.ResourceID())
		reportMu.Unlock()
	} else {
		alert.AccountID = report.AccountID
		s.publishAlert(ctx, log, alert)

		reportMu.Lock()
		report.Alerts = append(report.Alerts, *alert)
		reportMu.Unlock()
	}

	action, ok := actionForResource(rec.ResourceID())
	if !ok {
		log.Info("no automated remediation mapped for resource")
		return
	}

	task := model.RemediationTask{
		TaskID:         uuid.NewString(),
		Action:         action,
		ResourceID:     rec.ResourceID(),
		AnomalyDetails: anomalyDetails(rec),
	}
	outcome := s.executeTask(ctx, log, task)
	s.metrics.RecordRemediation(string(task.Action), string(outcome.Status))

	reportMu.Lock()
	report.Outcomes = append(report.Outcomes, model.TaskOutcome{Task: task, Outcome: outcome})
	reportMu.Unlock()
}

func (s *orchestratorService) executeTask(ctx context.Context, log *slog.Logger, task model.RemediationTask) model.RemediationOutcome {
	if s.dryRun {
		log.Info("dry run enabled, skipping remediation", "action", string(task.Action))
		return model.RemediationOutcome{
			Status:  model.StatusSkipped,
			Message: "Dry run enabled, no remediation attempted.",
		}
	}

	if s.launcher != nil {
		if err := s.launcher.Launch(ctx, task); err != nil {
			log.Error("failed to launch remediation execution", "error", err)
			return model.RemediationOutcome{
				Status:  model.StatusFailed,
				Message: fmt.Sprintf("Failed to launch remediation execution: %v", err),
			}
		}
		return model.RemediationOutcome{
			Status:  model.StatusSuccess,
			Message: "Launched asynchronous remediation execution.",
		}
	}

	return s.remediatorService.Remediate(ctx, task)
}

func (s *orchestratorService) publishAlert(ctx context.Context, log *slog.Logger, alert *model.EnrichedAlert) {
	details, err := json.MarshalIndent(alert.Anomaly, "", "  ")
	if err != nil {
		details = []byte("(unserializable)")
	}

	message := fmt.Sprintf("%s\n\n--- Anomaly Details ---\n%s\n\n--- Gathered Context ---\n%s",
		alert.Narrative, details, strings.Join(alert.ContextSnippets, "\n"))

	if err := s.notifier.Publish(context.WithoutCancel(ctx), alert.Subject(), message); err != nil {
		log.Error("failed to publish anomaly alert", "error", err)
	}
}

// publishDegradedAlert mirrors the raw anomaly when enrichment fails. A
// narrative outage must never leave an anomaly unreported.
func (s *orchestratorService) publishDegradedAlert(ctx context.Context, log *slog.Logger, rec model.AnomalyRecord, cause error) {
	details, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		details = []byte("(unserializable)")
	}

	subject := fmt.Sprintf("CRITICAL: Egress Anomaly Alerting Failed for %s", rec.ResourceID())
	message := fmt.Sprintf("Context enrichment failed: %v\n\nRaw anomaly record:\n%s", cause, details)

	if err := s.notifier.Publish(context.WithoutCancel(ctx), subject, message); err != nil {
		log.Error("failed to publish degraded alert", "error", err)
	}
}

func (s *orchestratorService) lookupAccount(ctx context.Context) string {
	if s.identityService == nil {
		return ""
	}

	callCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	info, err := s.identityService.GetAccountInfo(callCtx)
	if err != nil {
		s.logger.Warn("could not resolve account identity", "error", err)
		return ""
	}
	return info.AccountID
}

// actionForResource maps a flagged resource to its vetted remediation. The
// mapping is closed: resources outside it get an alert and nothing else.
func actionForResource(resourceID string) (model.Action, bool) {
	switch {
	case resourceID == "":
		return "", false
	case strings.Contains(resourceID, ":s3:::"):
		return model.ActionBlockS3PublicAccess, true
	case strings.Contains(resourceID, "security-group/"), strings.HasPrefix(resourceID, "sg-"):
		return model.ActionRestrictSecurityGroup, true
	}
	return "", false
}

func anomalyDetails(rec model.AnomalyRecord) map[string]any {
	return map[string]any{
		"anomaly_type":          rec.AnomalyType,
		"usage_date":            rec.Observation.Date.Format("2006-01-02"),
		"service_code":          rec.Observation.ServiceCode,
		"usage_type":            rec.Observation.UsageType,
		"region":                rec.Observation.Region,
		"daily_egress_cost_usd": rec.Observation.CostUSD,
		"anomaly_score":         rec.AnomalyScore,
		"cycle_id":              rec.CycleID,
	}
}
