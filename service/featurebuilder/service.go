package featurebuilder

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/elC0mpa/egress-doctor/model"
)

func NewService() *service {
	return &service{}
}

// Fit computes scaling statistics and categorical vocabularies from the given
// observations and freezes them into a FittedTransform. The transform is owned
// by the caller; applying a different fit at inference time silently corrupts
// scores, so the returned artifact must be persisted and reused as-is.
func (s *service) Fit(observations []model.UsageObservation) (*model.FittedTransform, error) {
	if len(observations) == 0 {
		return nil, &model.EmptyInputError{Op: "featurebuilder.Fit"}
	}

	for _, obs := range observations {
		if err := obs.Validate(); err != nil {
			return nil, err
		}
	}

	stats := map[string]model.NumericStats{
		"cost_usd_scaled":     computeStats(observations, func(o model.UsageObservation) float64 { return o.CostUSD }),
		"usage_amount_scaled": computeStats(observations, func(o model.UsageObservation) float64 { return o.UsageAmount }),
	}

	vocab := make(map[string][]string, len(categoricalFields))
	for _, field := range categoricalFields {
		seen := make(map[string]struct{})
		for _, obs := range observations {
			seen[categoricalValue(obs, field)] = struct{}{}
		}
		values := make([]string, 0, len(seen))
		for v := range seen {
			values = append(values, v)
		}
		sort.Strings(values)
		vocab[field] = values
	}

	return &model.FittedTransform{
		SchemaVersion:     transformSchemaVersion,
		CreatedAt:         time.Now().UTC(),
		ScaledColumns:     scaledColumns,
		Stats:             stats,
		CalendarColumns:   calendarColumns,
		CategoricalFields: categoricalFields,
		Vocabulary:        vocab,
	}, nil
}

// Transform encodes observations with a previously fitted transform.
// Categories unseen at fit time map to an all-zero indicator block.
func (s *service) Transform(observations []model.UsageObservation, transform *model.FittedTransform) ([]model.FeatureVector, error) {
	if len(observations) == 0 {
		return nil, &model.EmptyInputError{Op: "featurebuilder.Transform"}
	}
	if transform == nil {
		return nil, &model.SchemaError{Field: "transform", Reason: "nil fitted transform"}
	}

	vectors := make([]model.FeatureVector, 0, len(observations))
	for _, obs := range observations {
		if err := obs.Validate(); err != nil {
			return nil, err
		}

		values := make([]float64, 0, transform.Width())
		values = append(values,
			standardize(obs.CostUSD, transform.Stats["cost_usd_scaled"]),
			standardize(obs.UsageAmount, transform.Stats["usage_amount_scaled"]),
		)
		values = append(values, calendarFeatures(obs.Date)...)

		for _, field := range transform.CategoricalFields {
			value := categoricalValue(obs, field)
			for _, category := range transform.Vocabulary[field] {
				if category == value {
					values = append(values, 1)
				} else {
					values = append(values, 0)
				}
			}
		}

		vectors = append(vectors, model.FeatureVector{Key: obs.Key(), Values: values})
	}

	return vectors, nil
}

// calendarFeatures derives the numeric calendar columns from a date. Order
// matches calendarColumns.
func calendarFeatures(date time.Time) []float64 {
	weekday := mondayIndexed(date.Weekday())
	_, week := date.ISOWeek()

	isWeekend := 0.0
	if weekday >= 5 {
		isWeekend = 1.0
	}

	return []float64{
		float64(weekday),
		float64(date.Day()),
		float64(int(date.Month())),
		float64(week),
		isWeekend,
	}
}

// mondayIndexed maps time.Weekday (Sunday=0) to Monday=0..Sunday=6.
func mondayIndexed(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func categoricalValue(obs model.UsageObservation, field string) string {
	switch field {
	case "service_code":
		return obs.ServiceCode
	case "region":
		return obs.Region
	case "usage_type":
		return obs.UsageType
	case "day_of_week":
		return strconv.Itoa(mondayIndexed(obs.Date.Weekday()))
	case "month":
		return strconv.Itoa(int(obs.Date.Month()))
	}
	return ""
}

func computeStats(observations []model.UsageObservation, pick func(model.UsageObservation) float64) model.NumericStats {
	sum := 0.0
	for _, obs := range observations {
		sum += pick(obs)
	}
	mean := sum / float64(len(observations))

	variance := 0.0
	for _, obs := range observations {
		diff := pick(obs) - mean
		variance += diff * diff
	}
	variance /= float64(len(observations))

	return model.NumericStats{Mean: mean, StdDev: math.Sqrt(variance)}
}

// standardize scales to zero mean and unit variance. A zero-variance column
// scales by 1 so constant inputs stay finite.
func standardize(v float64, stats model.NumericStats) float64 {
	if stats.StdDev == 0 {
		return v - stats.Mean
	}
	return (v - stats.Mean) / stats.StdDev
}
