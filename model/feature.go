package model

import "time"

// FeatureVector is the numeric representation of one observation, laid out as
// the transform's numeric columns followed by its one-hot blocks.
type FeatureVector struct {
	Key    ObservationKey
	Values []float64
}

// NumericStats holds the fitted mean/standard deviation for one scaled column.
type NumericStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// FittedTransform is the encoding artifact produced by Fit and reused
// unmodified at inference time. It is a value object: serialize it, pass it
// around, never mutate it after fitting.
type FittedTransform struct {
	SchemaVersion int       `json:"schema_version"`
	CreatedAt     time.Time `json:"created_at"`

	// ScaledColumns are the standardized numeric columns, in output order.
	ScaledColumns []string                `json:"scaled_columns"`
	Stats         map[string]NumericStats `json:"stats"`

	// CalendarColumns are unscaled numerics derived purely from the date.
	CalendarColumns []string `json:"calendar_columns"`

	// CategoricalFields lists the one-hot encoded fields in output order;
	// Vocabulary maps each field to its ordered category list. A value absent
	// from the vocabulary encodes as an all-zero block.
	CategoricalFields []string            `json:"categorical_fields"`
	Vocabulary        map[string][]string `json:"vocabulary"`
}

// Width returns the total feature width produced by this transform.
func (t *FittedTransform) Width() int {
	w := len(t.ScaledColumns) + len(t.CalendarColumns)
	for _, f := range t.CategoricalFields {
		w += len(t.Vocabulary[f])
	}
	return w
}

// ColumnNames returns every output column name in vector order.
func (t *FittedTransform) ColumnNames() []string {
	names := make([]string, 0, t.Width())
	names = append(names, t.ScaledColumns...)
	names = append(names, t.CalendarColumns...)
	for _, f := range t.CategoricalFields {
		for _, cat := range t.Vocabulary[f] {
			names = append(names, f+"_"+cat)
		}
	}
	return names
}

// FeatureRow is one row of a persisted feature batch: the originating
// observation plus its already-encoded feature values.
type FeatureRow struct {
	Observation UsageObservation
	Features    []float64
}

// FeatureBatch is the unit the detection trigger loads from the feature store.
type FeatureBatch struct {
	// Columns names the feature columns, in the same order as each row's
	// Features slice.
	Columns []string
	Rows    []FeatureRow
}

// Width returns the feature width of the batch.
func (b *FeatureBatch) Width() int { return len(b.Columns) }

// ArtifactMetadata describes a persisted transform or model artifact.
type ArtifactMetadata struct {
	SchemaVersion int       `json:"schema_version"`
	CreatedAt     time.Time `json:"created_at"`
	ContentSHA256 string    `json:"content_sha256"`
	FeatureWidth  int       `json:"feature_width"`
}
