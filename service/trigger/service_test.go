package trigger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elC0mpa/egress-doctor/model"
	"github.com/elC0mpa/egress-doctor/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	batch *model.FeatureBatch
	err   error
}

func (f *fakeStore) LatestBatch(ctx context.Context) (*model.FeatureBatch, error) {
	return f.batch, f.err
}

func (f *fakeStore) Observations(ctx context.Context) ([]model.UsageObservation, error) {
	return nil, nil
}

func (f *fakeStore) PutTransform(ctx context.Context, blob []byte, meta model.ArtifactMetadata) error {
	return nil
}

func (f *fakeStore) GetTransform(ctx context.Context) ([]byte, model.ArtifactMetadata, error) {
	return nil, model.ArtifactMetadata{}, nil
}

func (f *fakeStore) PutModel(ctx context.Context, blob []byte, meta model.ArtifactMetadata) error {
	return nil
}

func (f *fakeStore) GetModel(ctx context.Context) ([]byte, model.ArtifactMetadata, error) {
	return nil, model.ArtifactMetadata{}, nil
}

type fakeEndpoint struct {
	scored []model.Scored
	err    error
}

func (f *fakeEndpoint) Score(ctx context.Context, batch *model.FeatureBatch) ([]model.Scored, error) {
	return f.scored, f.err
}

type fakeDispatcher struct {
	records []model.AnomalyRecord
	err     error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, rec model.AnomalyRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

type fakeNotifier struct {
	subjects []string
}

func (f *fakeNotifier) Publish(ctx context.Context, subject, message string) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

func testBatch(rows int) *model.FeatureBatch {
	date, _ := time.Parse("2006-01-02", "2024-03-05")
	batch := &model.FeatureBatch{Columns: []string{"c0"}}
	for i := 0; i < rows; i++ {
		batch.Rows = append(batch.Rows, model.FeatureRow{
			Observation: model.UsageObservation{
				Date:        date,
				ServiceCode: "AmazonS3",
				UsageType:   "DataTransfer-Out-Bytes",
				Region:      "us-east-1",
				CostUSD:     float64(i),
			},
			Features: []float64{float64(i)},
		})
	}
	return batch
}

func TestRunNoNewData(t *testing.T) {
	store := &fakeStore{err: service.ErrNoBatch}
	notifier := &fakeNotifier{}
	svc := NewService(store, &fakeEndpoint{}, &fakeDispatcher{}, notifier, nil)

	result := svc.Run(context.Background())

	assert.Equal(t, StateDone, result.State)
	assert.True(t, result.NoNewData)
	assert.Empty(t, notifier.subjects, "steady state must not page the operator")
}

func TestRunDispatchesFlaggedRows(t *testing.T) {
	batch := testBatch(3)
	endpoint := &fakeEndpoint{scored: []model.Scored{
		{IsAnomaly: false, AnomalyScore: -0.4},
		{IsAnomaly: true, AnomalyScore: -0.8},
		{IsAnomaly: true, AnomalyScore: -0.7},
	}}
	dispatcher := &fakeDispatcher{}
	svc := NewService(&fakeStore{batch: batch}, endpoint, dispatcher, &fakeNotifier{}, nil)

	result := svc.Run(context.Background())

	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, 3, result.RowsScored)
	assert.Equal(t, 2, result.AnomalyCount)
	assert.Equal(t, 2, result.Dispatched)

	require.Len(t, dispatcher.records, 2)
	for _, rec := range dispatcher.records {
		assert.Equal(t, AnomalyType, rec.AnomalyType)
		assert.Equal(t, result.CycleID, rec.CycleID)
		assert.False(t, rec.DetectedAt.IsZero())
	}
	assert.Equal(t, -0.8, dispatcher.records[0].AnomalyScore)
}

func TestRunScoringFailureAlertsOperator(t *testing.T) {
	notifier := &fakeNotifier{}
	endpoint := &fakeEndpoint{err: errors.New("endpoint unavailable")}
	svc := NewService(&fakeStore{batch: testBatch(1)}, endpoint, &fakeDispatcher{}, notifier, nil)

	result := svc.Run(context.Background())

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, StateScoring, result.FailureStage)
	require.Len(t, notifier.subjects, 1)
	assert.Equal(t, "CRITICAL: Egress Anomaly Detection Cycle Failed", notifier.subjects[0])
}

func TestRunScoredCountMismatchFails(t *testing.T) {
	endpoint := &fakeEndpoint{scored: []model.Scored{{AnomalyScore: -0.4}}}
	svc := NewService(&fakeStore{batch: testBatch(2)}, endpoint, &fakeDispatcher{}, &fakeNotifier{}, nil)

	result := svc.Run(context.Background())

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, StateScoring, result.FailureStage)
	require.Error(t, result.Err)
}

func TestRunDispatchFailureFails(t *testing.T) {
	endpoint := &fakeEndpoint{scored: []model.Scored{{IsAnomaly: true, AnomalyScore: -0.9}}}
	dispatcher := &fakeDispatcher{err: errors.New("queue full")}
	notifier := &fakeNotifier{}
	svc := NewService(&fakeStore{batch: testBatch(1)}, endpoint, dispatcher, notifier, nil)

	result := svc.Run(context.Background())

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, StateDispatching, result.FailureStage)
	require.Len(t, notifier.subjects, 1)
}

func TestRunLoadFailureFails(t *testing.T) {
	store := &fakeStore{err: errors.New("store down")}
	svc := NewService(store, &fakeEndpoint{}, &fakeDispatcher{}, &fakeNotifier{}, nil)

	result := svc.Run(context.Background())

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, StateLoading, result.FailureStage)
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(&fakeStore{batch: testBatch(1)}, &fakeEndpoint{}, &fakeDispatcher{}, &fakeNotifier{}, nil)
	result := svc.Run(ctx)

	assert.Equal(t, StateFailed, result.State)
	assert.ErrorIs(t, result.Err, context.Canceled)
}
