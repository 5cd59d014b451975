package scorer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/elC0mpa/egress-doctor/model"
	"github.com/tidwall/gjson"
)

// Content types the scoring boundary accepts and produces.
const (
	ContentTypeJSON = "application/json"
	ContentTypeCSV  = "text/csv"
)

const dateLayout = "2006-01-02"

// identityColumns are the observation fields carried alongside the feature
// columns on the wire so downstream consumers keep full context.
var identityColumns = []string{
	"usage_date",
	"service_code",
	"usage_type",
	"region",
	"resource_id",
	"daily_egress_cost_usd",
	"daily_egress_usage_amount",
}

func recordFor(row model.FeatureRow, columns []string) map[string]any {
	obs := row.Observation
	rec := map[string]any{
		"usage_date":                obs.Date.Format(dateLayout),
		"service_code":              obs.ServiceCode,
		"usage_type":                obs.UsageType,
		"region":                    obs.Region,
		"resource_id":               obs.ResourceID,
		"daily_egress_cost_usd":     obs.CostUSD,
		"daily_egress_usage_amount": obs.UsageAmount,
	}
	for i, col := range columns {
		rec[col] = row.Features[i]
	}
	return rec
}

// EncodeBatchJSON serializes a feature batch as a JSON array of records.
func EncodeBatchJSON(batch *model.FeatureBatch) ([]byte, error) {
	records := make([]map[string]any, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		records = append(records, recordFor(row, batch.Columns))
	}
	return json.Marshal(records)
}

// DecodeBatchJSON parses a JSON array of records into a feature batch. The
// caller supplies the expected feature column order; records missing a column
// fail with a SchemaError rather than silently mis-scoring.
func DecodeBatchJSON(data []byte, columns []string) (*model.FeatureBatch, error) {
	var records []map[string]json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &model.SchemaError{Field: "payload", Reason: "not a JSON array of records"}
	}

	batch := &model.FeatureBatch{Columns: columns, Rows: make([]model.FeatureRow, 0, len(records))}
	for _, rec := range records {
		obs, err := observationFromJSON(rec)
		if err != nil {
			return nil, err
		}

		features := make([]float64, len(columns))
		for i, col := range columns {
			raw, ok := rec[col]
			if !ok {
				return nil, &model.SchemaError{Field: col, Reason: "feature column absent"}
			}
			if err := json.Unmarshal(raw, &features[i]); err != nil {
				return nil, &model.SchemaError{Field: col, Reason: "not numeric"}
			}
		}

		batch.Rows = append(batch.Rows, model.FeatureRow{Observation: obs, Features: features})
	}

	return batch, nil
}

func observationFromJSON(rec map[string]json.RawMessage) (model.UsageObservation, error) {
	var obs model.UsageObservation

	str := func(key string) string {
		raw, ok := rec[key]
		if !ok {
			return ""
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	num := func(key string) float64 {
		raw, ok := rec[key]
		if !ok {
			return 0
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return 0
		}
		return f
	}

	date, err := time.Parse(dateLayout, str("usage_date"))
	if err != nil {
		return obs, &model.SchemaError{Field: "usage_date", Reason: "missing or unparseable"}
	}

	obs = model.UsageObservation{
		Date:        date,
		ServiceCode: str("service_code"),
		UsageType:   str("usage_type"),
		Region:      str("region"),
		ResourceID:  str("resource_id"),
		CostUSD:     num("daily_egress_cost_usd"),
		UsageAmount: num("daily_egress_usage_amount"),
	}
	return obs, nil
}

// EncodeScoredJSON serializes the batch rows augmented with is_anomaly (0/1)
// and anomaly_score, preserving row order.
func EncodeScoredJSON(batch *model.FeatureBatch, scored []model.Scored) ([]byte, error) {
	if len(scored) != len(batch.Rows) {
		return nil, fmt.Errorf("scored count %d does not match batch rows %d", len(scored), len(batch.Rows))
	}

	records := make([]map[string]any, 0, len(batch.Rows))
	for i, row := range batch.Rows {
		rec := recordFor(row, batch.Columns)
		rec["is_anomaly"] = anomalyFlag(scored[i].IsAnomaly)
		rec["anomaly_score"] = scored[i].AnomalyScore
		records = append(records, rec)
	}
	return json.Marshal(records)
}

// DecodeScoredJSON extracts the per-row scoring results from an augmented
// JSON record array.
func DecodeScoredJSON(data []byte) ([]model.Scored, error) {
	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return nil, &model.SchemaError{Field: "payload", Reason: "not a JSON array of records"}
	}

	var results []model.Scored
	var badRecord error
	parsed.ForEach(func(_, rec gjson.Result) bool {
		score := rec.Get("anomaly_score")
		flag := rec.Get("is_anomaly")
		if !score.Exists() || !flag.Exists() {
			badRecord = &model.SchemaError{Field: "anomaly_score", Reason: "missing from scored record"}
			return false
		}
		results = append(results, model.Scored{
			IsAnomaly:    flag.Int() == 1,
			AnomalyScore: score.Float(),
		})
		return true
	})
	if badRecord != nil {
		return nil, badRecord
	}

	return results, nil
}

// EncodeBatchCSV serializes a feature batch as delimited text with a header
// row of identity columns followed by feature columns.
func EncodeBatchCSV(batch *model.FeatureBatch) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append(append([]string{}, identityColumns...), batch.Columns...)
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, row := range batch.Rows {
		if err := w.Write(csvFields(row, nil)); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

// EncodeScoredCSV is the delimited-text counterpart of EncodeScoredJSON.
func EncodeScoredCSV(batch *model.FeatureBatch, scored []model.Scored) ([]byte, error) {
	if len(scored) != len(batch.Rows) {
		return nil, fmt.Errorf("scored count %d does not match batch rows %d", len(scored), len(batch.Rows))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append(append([]string{}, identityColumns...), batch.Columns...)
	header = append(header, "is_anomaly", "anomaly_score")
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for i, row := range batch.Rows {
		if err := w.Write(csvFields(row, &scored[i])); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

func csvFields(row model.FeatureRow, scored *model.Scored) []string {
	obs := row.Observation
	fields := []string{
		obs.Date.Format(dateLayout),
		obs.ServiceCode,
		obs.UsageType,
		obs.Region,
		obs.ResourceID,
		formatFloat(obs.CostUSD),
		formatFloat(obs.UsageAmount),
	}
	for _, f := range row.Features {
		fields = append(fields, formatFloat(f))
	}
	if scored != nil {
		fields = append(fields, strconv.Itoa(anomalyFlag(scored.IsAnomaly)), formatFloat(scored.AnomalyScore))
	}
	return fields
}

// DecodeBatchCSV parses delimited text into a feature batch. The header row
// determines feature column order: every column that is not an identity
// column is a feature.
func DecodeBatchCSV(data []byte) (*model.FeatureBatch, error) {
	r := csv.NewReader(bytes.NewReader(data))
	rows, err := r.ReadAll()
	if err != nil {
		return nil, &model.SchemaError{Field: "payload", Reason: "malformed delimited text"}
	}
	if len(rows) < 1 {
		return nil, &model.EmptyInputError{Op: "scorer.DecodeBatchCSV"}
	}

	header := rows[0]
	identity := make(map[string]int)
	var featureCols []string
	var featureIdx []int
	for i, name := range header {
		if isIdentityColumn(name) {
			identity[name] = i
		} else {
			featureCols = append(featureCols, name)
			featureIdx = append(featureIdx, i)
		}
	}
	for _, required := range identityColumns {
		if _, ok := identity[required]; !ok {
			return nil, &model.SchemaError{Field: required, Reason: "identity column absent"}
		}
	}

	batch := &model.FeatureBatch{Columns: featureCols, Rows: make([]model.FeatureRow, 0, len(rows)-1)}
	for _, fields := range rows[1:] {
		date, err := time.Parse(dateLayout, fields[identity["usage_date"]])
		if err != nil {
			return nil, &model.SchemaError{Field: "usage_date", Reason: "missing or unparseable"}
		}

		obs := model.UsageObservation{
			Date:        date,
			ServiceCode: fields[identity["service_code"]],
			UsageType:   fields[identity["usage_type"]],
			Region:      fields[identity["region"]],
			ResourceID:  fields[identity["resource_id"]],
		}
		obs.CostUSD, _ = strconv.ParseFloat(fields[identity["daily_egress_cost_usd"]], 64)
		obs.UsageAmount, _ = strconv.ParseFloat(fields[identity["daily_egress_usage_amount"]], 64)

		features := make([]float64, len(featureIdx))
		for i, idx := range featureIdx {
			features[i], err = strconv.ParseFloat(fields[idx], 64)
			if err != nil {
				return nil, &model.SchemaError{Field: featureCols[i], Reason: "not numeric"}
			}
		}

		batch.Rows = append(batch.Rows, model.FeatureRow{Observation: obs, Features: features})
	}

	return batch, nil
}

// DecodeScoredCSV extracts per-row scoring results from augmented delimited
// text.
func DecodeScoredCSV(data []byte) ([]model.Scored, error) {
	r := csv.NewReader(bytes.NewReader(data))
	rows, err := r.ReadAll()
	if err != nil {
		return nil, &model.SchemaError{Field: "payload", Reason: "malformed delimited text"}
	}
	if len(rows) < 1 {
		return nil, &model.EmptyInputError{Op: "scorer.DecodeScoredCSV"}
	}

	flagIdx, scoreIdx := -1, -1
	for i, name := range rows[0] {
		switch name {
		case "is_anomaly":
			flagIdx = i
		case "anomaly_score":
			scoreIdx = i
		}
	}
	if flagIdx < 0 || scoreIdx < 0 {
		return nil, &model.SchemaError{Field: "anomaly_score", Reason: "missing from scored record"}
	}

	results := make([]model.Scored, 0, len(rows)-1)
	for _, fields := range rows[1:] {
		score, err := strconv.ParseFloat(fields[scoreIdx], 64)
		if err != nil {
			return nil, &model.SchemaError{Field: "anomaly_score", Reason: "not numeric"}
		}
		results = append(results, model.Scored{
			IsAnomaly:    fields[flagIdx] == "1",
			AnomalyScore: score,
		})
	}

	return results, nil
}

func isIdentityColumn(name string) bool {
	for _, col := range identityColumns {
		if col == name {
			return true
		}
	}
	return false
}

func anomalyFlag(isAnomaly bool) int {
	if isAnomaly {
		return 1
	}
	return 0
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
