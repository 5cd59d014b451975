package enricher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elC0mpa/egress-doctor/model"
	"github.com/elC0mpa/egress-doctor/service"
)

func NewService(configHistory service.ConfigHistorySource, activity service.ActivitySource, costs service.CostBreakdownSource, prompts service.PromptStore, generator service.TextGenerator, logger *slog.Logger) *enricherService {
	if logger == nil {
		logger = slog.Default()
	}
	return &enricherService{
		configHistory:   configHistory,
		activity:        activity,
		costs:           costs,
		prompts:         prompts,
		generator:       generator,
		logger:          logger,
		lookupTimeout:   5 * time.Second,
		generateTimeout: 30 * time.Second,
		lookupRetries:   2,
	}
}

// Enrich gathers corroborating evidence for an anomaly and synthesizes a
// root-cause narrative. Evidence lookups are best-effort: a source with
// nothing to say contributes nothing. The narrative step is not: its failure
// surfaces as a NarrativeGenerationError and the caller publishes a
// degraded-mode alert instead.
func (s *enricherService) Enrich(ctx context.Context, anomaly model.AnomalyRecord) (*model.EnrichedAlert, error) {
	log := s.logger.With("cycle_id", anomaly.CycleID, "resource_id", anomaly.ResourceID())

	ref := anomaly.Observation.Date
	snippets := make([]string, 0, 16)
	snippets = append(snippets, s.gatherConfigHistory(ctx, log, anomaly, ref)...)
	snippets = append(snippets, s.gatherActivity(ctx, log, anomaly, ref)...)
	snippets = append(snippets, s.gatherCosts(ctx, log, ref)...)

	if len(snippets) == 0 {
		log.Warn("no additional context found, proceeding with limited context")
	}

	narrative, err := s.generateNarrative(ctx, anomaly, snippets)
	if err != nil {
		return nil, &model.NarrativeGenerationError{Err: err}
	}

	return &model.EnrichedAlert{
		Anomaly:         anomaly,
		ContextSnippets: snippets,
		Narrative:       narrative,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

func (s *enricherService) gatherConfigHistory(ctx context.Context, log *slog.Logger, anomaly model.AnomalyRecord, ref time.Time) []string {
	if anomaly.ResourceID() == "" {
		return nil
	}

	window := model.LookbackWindow(ref, configLookback)
	changes, err := retryLookup(ctx, s.lookupTimeout, s.lookupRetries, func(callCtx context.Context) ([]model.ConfigChange, error) {
		return s.configHistory.RecentChanges(callCtx, anomaly.ResourceID(), window)
	})
	if err != nil {
		log.Warn("could not retrieve configuration history", "error", err)
		return nil
	}
	if len(changes) == 0 {
		return nil
	}

	lines := []string{"--- Configuration History (last 24h) ---"}
	for _, c := range changes {
		lines = append(lines, fmt.Sprintf("Timestamp: %s, ChangeType: %s, Status: %s",
			c.CapturedAt.Format(time.RFC3339), c.ChangeType, c.Status))
	}
	return lines
}

func (s *enricherService) gatherActivity(ctx context.Context, log *slog.Logger, anomaly model.AnomalyRecord, ref time.Time) []string {
	if anomaly.ResourceID() == "" {
		return nil
	}

	window := model.LookbackWindow(ref, activityLookback)
	events, err := retryLookup(ctx, s.lookupTimeout, s.lookupRetries, func(callCtx context.Context) ([]model.APIEvent, error) {
		return s.activity.RecentEvents(callCtx, anomaly.ResourceID(), window)
	})
	if err != nil {
		log.Warn("could not retrieve API activity", "error", err)
		return nil
	}
	if len(events) == 0 {
		return nil
	}

	lines := []string{"--- Recent API Activity (last 24h) ---"}
	for _, e := range events {
		lines = append(lines, fmt.Sprintf("EventTime: %s, EventName: %s, User: %s",
			e.EventTime.Format(time.RFC3339), e.EventName, e.Username))
	}
	return lines
}

func (s *enricherService) gatherCosts(ctx context.Context, log *slog.Logger, ref time.Time) []string {
	window := model.TimeWindow{Start: ref.Add(-costWindowBefore), End: ref.Add(costWindowAfter)}
	days, err := retryLookup(ctx, s.lookupTimeout, s.lookupRetries, func(callCtx context.Context) ([]model.DailyCost, error) {
		return s.costs.DailyBreakdown(callCtx, window)
	})
	if err != nil {
		log.Warn("could not retrieve cost breakdown", "error", err)
		return nil
	}
	if len(days) == 0 {
		return nil
	}

	lines := []string{"--- Cost Breakdown Snapshot ---"}
	for _, day := range days {
		lines = append(lines, fmt.Sprintf("Date: %s, Total Cost: %.4f %s", day.Start, day.Total, day.Unit))
		for _, g := range day.Groups {
			lines = append(lines, fmt.Sprintf("  %s / %s: %.4f %s", g.Service, g.UsageType, g.Amount, g.Unit))
		}
	}
	return lines
}

func (s *enricherService) generateNarrative(ctx context.Context, anomaly model.AnomalyRecord, snippets []string) (string, error) {
	tmplText, err := s.prompts.Template(ctx)
	if err != nil {
		return "", fmt.Errorf("loading prompt template: %w", err)
	}

	tmpl, err := template.New("root_cause").Parse(tmplText)
	if err != nil {
		return "", fmt.Errorf("parsing prompt template: %w", err)
	}

	details, err := json.MarshalIndent(anomaly, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing anomaly details: %w", err)
	}

	var prompt bytes.Buffer
	err = tmpl.Execute(&prompt, map[string]any{
		"AnomalyType":    anomaly.AnomalyType,
		"ResourceID":     anomaly.ResourceID(),
		"CostImpact":     anomaly.Observation.CostUSD,
		"AnomalyDetails": string(details),
		"ContextData":    strings.Join(snippets, "\n"),
	})
	if err != nil {
		return "", fmt.Errorf("rendering prompt template: %w", err)
	}

	genCtx, cancel := context.WithTimeout(ctx, s.generateTimeout)
	defer cancel()

	narrative, err := s.generator.Generate(genCtx, prompt.String(), model.DefaultGenerationParams())
	if err != nil {
		return "", err
	}
	return narrative, nil
}

// retryLookup runs a read-only lookup with a per-call timeout and bounded
// exponential backoff. Mutations never go through here.
func retryLookup[T any](ctx context.Context, timeout time.Duration, retries uint64, lookup func(context.Context) (T, error)) (T, error) {
	var result T
	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var err error
		result, err = lookup(callCtx)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries), ctx)
	err := backoff.Retry(operation, policy)
	return result, err
}
