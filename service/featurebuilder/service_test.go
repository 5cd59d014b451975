package featurebuilder

import (
	"testing"
	"time"

	"github.com/elC0mpa/egress-doctor/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func observation(date, serviceCode, region string, cost float64) model.UsageObservation {
	return model.UsageObservation{
		Date:        day(date),
		ServiceCode: serviceCode,
		UsageType:   "DataTransfer-Out-Bytes",
		Region:      region,
		CostUSD:     cost,
		UsageAmount: cost * 10,
	}
}

func TestFitEmptyInput(t *testing.T) {
	_, err := NewService().Fit(nil)

	var emptyErr *model.EmptyInputError
	require.ErrorAs(t, err, &emptyErr)
}

func TestTransformEmptyInput(t *testing.T) {
	transform, err := NewService().Fit([]model.UsageObservation{
		observation("2024-03-01", "AmazonS3", "us-east-1", 1.5),
	})
	require.NoError(t, err)

	_, err = NewService().Transform(nil, transform)

	var emptyErr *model.EmptyInputError
	require.ErrorAs(t, err, &emptyErr)
}

func TestFitRejectsInvalidObservation(t *testing.T) {
	obs := observation("2024-03-01", "AmazonS3", "us-east-1", 1.5)
	obs.Region = ""

	_, err := NewService().Fit([]model.UsageObservation{obs})

	var schemaErr *model.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "region", schemaErr.Field)
}

func TestFitFreezesSortedVocabulary(t *testing.T) {
	observations := []model.UsageObservation{
		observation("2024-03-01", "AmazonS3", "us-west-2", 1),
		observation("2024-03-02", "AmazonEC2", "us-east-1", 2),
		observation("2024-03-03", "AmazonS3", "us-east-1", 3),
	}

	transform, err := NewService().Fit(observations)
	require.NoError(t, err)

	assert.Equal(t, []string{"AmazonEC2", "AmazonS3"}, transform.Vocabulary["service_code"])
	assert.Equal(t, []string{"us-east-1", "us-west-2"}, transform.Vocabulary["region"])
	assert.Equal(t, transformSchemaVersion, transform.SchemaVersion)
}

func TestTransformWidthMatchesColumnNames(t *testing.T) {
	observations := []model.UsageObservation{
		observation("2024-03-01", "AmazonS3", "us-west-2", 1),
		observation("2024-03-02", "AmazonEC2", "us-east-1", 2),
	}

	svc := NewService()
	transform, err := svc.Fit(observations)
	require.NoError(t, err)

	vectors, err := svc.Transform(observations, transform)
	require.NoError(t, err)

	require.Len(t, vectors, len(observations))
	for _, v := range vectors {
		assert.Len(t, v.Values, transform.Width())
	}
	assert.Len(t, transform.ColumnNames(), transform.Width())
}

func TestTransformStandardizesNumericColumns(t *testing.T) {
	observations := []model.UsageObservation{
		observation("2024-03-01", "AmazonS3", "us-east-1", 10),
		observation("2024-03-02", "AmazonS3", "us-east-1", 20),
	}

	svc := NewService()
	transform, err := svc.Fit(observations)
	require.NoError(t, err)

	vectors, err := svc.Transform(observations, transform)
	require.NoError(t, err)

	// Mean 15, stddev 5: costs 10 and 20 standardize to -1 and +1.
	assert.InDelta(t, -1, vectors[0].Values[0], 1e-9)
	assert.InDelta(t, 1, vectors[1].Values[0], 1e-9)
}

func TestTransformZeroVarianceColumnStaysFinite(t *testing.T) {
	observations := []model.UsageObservation{
		observation("2024-03-01", "AmazonS3", "us-east-1", 5),
		observation("2024-03-02", "AmazonS3", "us-east-1", 5),
	}

	svc := NewService()
	transform, err := svc.Fit(observations)
	require.NoError(t, err)

	vectors, err := svc.Transform(observations, transform)
	require.NoError(t, err)

	assert.Zero(t, vectors[0].Values[0])
	assert.Zero(t, vectors[1].Values[0])
}

func TestTransformUnseenCategoryEncodesAllZero(t *testing.T) {
	training := []model.UsageObservation{
		observation("2024-03-01", "AmazonS3", "us-east-1", 1),
		observation("2024-03-02", "AmazonEC2", "us-east-1", 2),
	}

	svc := NewService()
	transform, err := svc.Fit(training)
	require.NoError(t, err)

	unseen := observation("2024-03-03", "AmazonCloudFront", "us-east-1", 3)
	vectors, err := svc.Transform([]model.UsageObservation{unseen}, transform)
	require.NoError(t, err)

	// The service_code block immediately follows the numeric and calendar
	// columns and must be all zeros for a service unseen at fit time.
	offset := len(transform.ScaledColumns) + len(transform.CalendarColumns)
	block := vectors[0].Values[offset : offset+len(transform.Vocabulary["service_code"])]
	for _, v := range block {
		assert.Zero(t, v)
	}
}

func TestCalendarFeatures(t *testing.T) {
	tests := []struct {
		name      string
		date      string
		dayOfWeek float64
		isWeekend float64
	}{
		{name: "monday", date: "2024-03-04", dayOfWeek: 0, isWeekend: 0},
		{name: "friday", date: "2024-03-08", dayOfWeek: 4, isWeekend: 0},
		{name: "saturday", date: "2024-03-09", dayOfWeek: 5, isWeekend: 1},
		{name: "sunday", date: "2024-03-10", dayOfWeek: 6, isWeekend: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			features := calendarFeatures(day(tt.date))
			require.Len(t, features, len(calendarColumns))
			assert.Equal(t, tt.dayOfWeek, features[0])
			assert.Equal(t, tt.isWeekend, features[4])
		})
	}
}

func TestTransformDeterministic(t *testing.T) {
	observations := []model.UsageObservation{
		observation("2024-03-01", "AmazonS3", "us-east-1", 1),
		observation("2024-03-02", "AmazonEC2", "eu-west-1", 2),
		observation("2024-03-03", "AmazonCloudFront", "us-west-2", 3),
	}

	svc := NewService()
	transform, err := svc.Fit(observations)
	require.NoError(t, err)

	first, err := svc.Transform(observations, transform)
	require.NoError(t, err)
	second, err := svc.Transform(observations, transform)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
