package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/elC0mpa/egress-doctor/model"
	"github.com/elC0mpa/egress-doctor/service"
	"github.com/google/uuid"
)

// AnomalyType assigned to every flagged observation. The enricher refines the
// designation in its narrative; the pipeline itself stays generic.
const AnomalyType = "EgressCostSpike"

func NewService(store service.FeatureStore, endpoint service.ScoringEndpoint, dispatcher service.AnomalyDispatcher, notifier service.Notifier, logger *slog.Logger) *triggerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &triggerService{
		store:        store,
		endpoint:     endpoint,
		dispatcher:   dispatcher,
		notifier:     notifier,
		logger:       logger,
		loadTimeout:  10 * time.Second,
		scoreTimeout: 30 * time.Second,
		now:          time.Now,
	}
}

// Run executes one detection cycle through the state machine
// Idle → Loading → Scoring → Dispatching → Done/Failed. Every failure is
// captured in the result and mirrored to the operator; Run never panics and
// never returns an error to the scheduler.
func (s *triggerService) Run(ctx context.Context) CycleResult {
	result := CycleResult{CycleID: uuid.NewString(), State: StateIdle}
	log := s.logger.With("cycle_id", result.CycleID)

	// Idle → Loading
	if err := ctx.Err(); err != nil {
		return s.fail(ctx, log, result, StateIdle, err)
	}
	result.State = StateLoading
	log.Info("loading latest feature batch")

	loadCtx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	batch, err := s.store.LatestBatch(loadCtx)
	cancel()
	if errors.Is(err, service.ErrNoBatch) {
		// Expected steady state, not a failure.
		log.Info("no new data for inference")
		result.State = StateDone
		result.NoNewData = true
		return result
	}
	if err != nil {
		return s.fail(ctx, log, result, StateLoading, err)
	}

	// Loading → Scoring
	if err := ctx.Err(); err != nil {
		return s.fail(ctx, log, result, StateLoading, err)
	}
	result.State = StateScoring
	log.Info("scoring feature batch", "rows", len(batch.Rows))

	scoreCtx, cancel := context.WithTimeout(ctx, s.scoreTimeout)
	scored, err := s.endpoint.Score(scoreCtx, batch)
	cancel()
	if err != nil {
		return s.fail(ctx, log, result, StateScoring, err)
	}
	if len(scored) != len(batch.Rows) {
		err := fmt.Errorf("endpoint returned %d results for %d rows", len(scored), len(batch.Rows))
		return s.fail(ctx, log, result, StateScoring, err)
	}
	result.RowsScored = len(scored)

	// Scoring → Dispatching
	if err := ctx.Err(); err != nil {
		return s.fail(ctx, log, result, StateScoring, err)
	}
	result.State = StateDispatching
	detectedAt := s.now().UTC()

	for i, sc := range scored {
		if !sc.IsAnomaly {
			continue
		}
		result.AnomalyCount++

		rec := model.AnomalyRecord{
			AnomalyType:  AnomalyType,
			Observation:  batch.Rows[i].Observation,
			AnomalyScore: sc.AnomalyScore,
			DetectedAt:   detectedAt,
			CycleID:      result.CycleID,
		}
		if err := s.dispatcher.Dispatch(ctx, rec); err != nil {
			return s.fail(ctx, log, result, StateDispatching, err)
		}
		result.Dispatched++
	}

	log.Info("cycle complete", "anomalies", result.AnomalyCount)
	result.State = StateDone
	return result
}

// fail records the failure stage, alerts the operator and terminates the
// cycle cleanly.
func (s *triggerService) fail(ctx context.Context, log *slog.Logger, result CycleResult, stage State, cause error) CycleResult {
	result.State = StateFailed
	result.FailureStage = stage
	result.Err = cause
	log.Error("detection cycle failed", "stage", string(stage), "error", cause)

	subject := "CRITICAL: Egress Anomaly Detection Cycle Failed"
	message := fmt.Sprintf("Detection cycle %s failed during %s: %v", result.CycleID, stage, cause)
	if err := s.notifier.Publish(context.WithoutCancel(ctx), subject, message); err != nil {
		log.Error("failed to publish operator alert", "error", err)
	}

	return result
}
