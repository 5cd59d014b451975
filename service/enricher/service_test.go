package enricher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elC0mpa/egress-doctor/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfigHistory struct {
	changes []model.ConfigChange
	err     error
	calls   int
}

func (f *fakeConfigHistory) RecentChanges(ctx context.Context, resourceID string, window model.TimeWindow) ([]model.ConfigChange, error) {
	f.calls++
	return f.changes, f.err
}

type fakeActivity struct {
	events []model.APIEvent
	err    error
	calls  int
}

func (f *fakeActivity) RecentEvents(ctx context.Context, resourceID string, window model.TimeWindow) ([]model.APIEvent, error) {
	f.calls++
	return f.events, f.err
}

type fakeCosts struct {
	days []model.DailyCost
	err  error
}

func (f *fakeCosts) DailyBreakdown(ctx context.Context, window model.TimeWindow) ([]model.DailyCost, error) {
	return f.days, f.err
}

type fakePrompts struct {
	template string
	err      error
}

func (f *fakePrompts) Template(ctx context.Context) (string, error) {
	return f.template, f.err
}

type fakeGenerator struct {
	narrative  string
	err        error
	lastPrompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, params model.GenerationParams) (string, error) {
	f.lastPrompt = prompt
	return f.narrative, f.err
}

const testTemplate = "Analyze {{.AnomalyType}} on {{.ResourceID}} costing {{.CostImpact}}.\nContext:\n{{.ContextData}}"

func testAnomaly() model.AnomalyRecord {
	date, _ := time.Parse("2006-01-02", "2024-03-05")
	return model.AnomalyRecord{
		AnomalyType: "EgressCostSpike",
		Observation: model.UsageObservation{
			Date:        date,
			ServiceCode: "AmazonS3",
			UsageType:   "DataTransfer-Out-Bytes",
			Region:      "us-east-1",
			ResourceID:  "arn:aws:s3:::egress-demo",
			CostUSD:     412.5,
		},
		AnomalyScore: -0.81,
		DetectedAt:   date,
		CycleID:      "cycle-1",
	}
}

func TestEnrichGathersAllEvidence(t *testing.T) {
	when, _ := time.Parse(time.RFC3339, "2024-03-05T09:00:00Z")
	configHistory := &fakeConfigHistory{changes: []model.ConfigChange{
		{CapturedAt: when, ChangeType: "UPDATE", Status: "OK"},
	}}
	activity := &fakeActivity{events: []model.APIEvent{
		{EventTime: when, EventName: "PutBucketPolicy", Username: "admin"},
	}}
	costs := &fakeCosts{days: []model.DailyCost{
		{DateInterval: model.DateInterval{Start: "2024-03-04", End: "2024-03-05"}, Total: 99.5, Unit: "USD"},
	}}
	generator := &fakeGenerator{narrative: "Bucket policy change opened public reads."}

	svc := NewService(configHistory, activity, costs, &fakePrompts{template: testTemplate}, generator, nil)
	alert, err := svc.Enrich(context.Background(), testAnomaly())

	require.NoError(t, err)
	assert.Equal(t, "Bucket policy change opened public reads.", alert.Narrative)
	assert.Contains(t, alert.ContextSnippets, "--- Configuration History (last 24h) ---")
	assert.Contains(t, alert.ContextSnippets, "--- Recent API Activity (last 24h) ---")
	assert.Contains(t, alert.ContextSnippets, "--- Cost Breakdown Snapshot ---")

	assert.Contains(t, generator.lastPrompt, "EgressCostSpike")
	assert.Contains(t, generator.lastPrompt, "arn:aws:s3:::egress-demo")
	assert.Contains(t, generator.lastPrompt, "PutBucketPolicy")
}

func TestEnrichDegradesGracefullyWithoutEvidence(t *testing.T) {
	generator := &fakeGenerator{narrative: "No corroborating evidence found."}
	svc := NewService(
		&fakeConfigHistory{err: errors.New("config unavailable")},
		&fakeActivity{err: errors.New("trail unavailable")},
		&fakeCosts{err: errors.New("cost explorer unavailable")},
		&fakePrompts{template: testTemplate},
		generator,
		nil,
	)

	alert, err := svc.Enrich(context.Background(), testAnomaly())

	require.NoError(t, err, "evidence lookups are best-effort")
	assert.Empty(t, alert.ContextSnippets)
	assert.Equal(t, "No corroborating evidence found.", alert.Narrative)
}

func TestEnrichSkipsResourceLookupsWithoutResourceID(t *testing.T) {
	configHistory := &fakeConfigHistory{}
	activity := &fakeActivity{}
	svc := NewService(configHistory, activity, &fakeCosts{}, &fakePrompts{template: testTemplate}, &fakeGenerator{narrative: "ok"}, nil)

	anomaly := testAnomaly()
	anomaly.Observation.ResourceID = ""

	_, err := svc.Enrich(context.Background(), anomaly)

	require.NoError(t, err)
	assert.Zero(t, configHistory.calls)
	assert.Zero(t, activity.calls)
}

func TestEnrichNarrativeFailureEscalates(t *testing.T) {
	svc := NewService(
		&fakeConfigHistory{}, &fakeActivity{}, &fakeCosts{},
		&fakePrompts{template: testTemplate},
		&fakeGenerator{err: errors.New("model throttled")},
		nil,
	)

	alert, err := svc.Enrich(context.Background(), testAnomaly())

	assert.Nil(t, alert)
	var genErr *model.NarrativeGenerationError
	require.ErrorAs(t, err, &genErr)
}

func TestEnrichPromptStoreFailureEscalates(t *testing.T) {
	svc := NewService(
		&fakeConfigHistory{}, &fakeActivity{}, &fakeCosts{},
		&fakePrompts{err: errors.New("no such key")},
		&fakeGenerator{narrative: "unused"},
		nil,
	)

	_, err := svc.Enrich(context.Background(), testAnomaly())

	var genErr *model.NarrativeGenerationError
	require.ErrorAs(t, err, &genErr)
}

func TestEnrichRetriesTransientLookupFailures(t *testing.T) {
	// First calls fail, later ones succeed inside the retry budget.
	configHistory := &flakyConfigHistory{failures: 1}
	svc := NewService(configHistory, &fakeActivity{}, &fakeCosts{}, &fakePrompts{template: testTemplate}, &fakeGenerator{narrative: "ok"}, nil)

	alert, err := svc.Enrich(context.Background(), testAnomaly())

	require.NoError(t, err)
	assert.Contains(t, alert.ContextSnippets, "--- Configuration History (last 24h) ---")
	assert.Equal(t, 2, configHistory.calls)
}

type flakyConfigHistory struct {
	failures int
	calls    int
}

func (f *flakyConfigHistory) RecentChanges(ctx context.Context, resourceID string, window model.TimeWindow) ([]model.ConfigChange, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("transient")
	}
	return []model.ConfigChange{{CapturedAt: time.Now(), ChangeType: "UPDATE", Status: "OK"}}, nil
}
