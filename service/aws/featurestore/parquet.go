package awsfeaturestore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/apache/arrow/go/v15/parquet/file"
	"github.com/apache/arrow/go/v15/parquet/pqarrow"
	"github.com/elC0mpa/egress-doctor/model"
)

const dateLayout = "2006-01-02"

// identityColumnSet names the observation columns; every other column in a
// feature object is a feature value, in schema order.
var identityColumnSet = map[string]bool{
	"usage_date":                true,
	"service_code":              true,
	"usage_type":                true,
	"region":                    true,
	"resource_id":               true,
	"daily_egress_cost_usd":     true,
	"daily_egress_usage_amount": true,
}

// decodeParquetBatch reads a parquet feature object into a batch. The
// upstream job writes identity columns as strings and doubles and every
// feature column as a double; anything else is a schema violation.
func decodeParquetBatch(ctx context.Context, blob []byte) (*model.FeatureBatch, error) {
	reader, err := file.NewParquetReader(bytes.NewReader(blob))
	if err != nil {
		return nil, &model.SchemaError{Field: "parquet", Reason: err.Error()}
	}
	defer reader.Close()

	arrowReader, err := pqarrow.NewFileReader(reader, pqarrow.ArrowReadProperties{BatchSize: 1024}, memory.DefaultAllocator)
	if err != nil {
		return nil, &model.SchemaError{Field: "parquet", Reason: err.Error()}
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, &model.SchemaError{Field: "parquet", Reason: err.Error()}
	}
	defer table.Release()

	rows := int(table.NumRows())

	stringCols := make(map[string][]string)
	floatCols := make(map[string][]float64)
	dates := make([]time.Time, 0)
	var featureNames []string

	schema := table.Schema()
	for i := 0; i < int(table.NumCols()); i++ {
		name := schema.Field(i).Name
		column := table.Column(i)

		switch name {
		case "usage_date":
			dates, err = dateColumn(column)
		case "service_code", "usage_type", "region", "resource_id":
			stringCols[name], err = stringColumn(column)
		default:
			if !identityColumnSet[name] {
				featureNames = append(featureNames, name)
			}
			floatCols[name], err = floatColumn(column)
		}
		if err != nil {
			return nil, &model.SchemaError{Field: name, Reason: err.Error()}
		}
	}

	for _, required := range []string{"usage_date", "service_code", "usage_type", "region", "daily_egress_cost_usd", "daily_egress_usage_amount"} {
		if required == "usage_date" {
			if len(dates) != rows {
				return nil, &model.SchemaError{Field: required, Reason: "column missing"}
			}
			continue
		}
		if _, ok := stringCols[required]; ok {
			continue
		}
		if _, ok := floatCols[required]; !ok {
			return nil, &model.SchemaError{Field: required, Reason: "column missing"}
		}
	}

	batch := &model.FeatureBatch{
		Columns: featureNames,
		Rows:    make([]model.FeatureRow, rows),
	}
	for i := 0; i < rows; i++ {
		row := model.FeatureRow{
			Observation: model.UsageObservation{
				Date:        dates[i],
				ServiceCode: columnValue(stringCols["service_code"], i),
				UsageType:   columnValue(stringCols["usage_type"], i),
				Region:      columnValue(stringCols["region"], i),
				ResourceID:  columnValue(stringCols["resource_id"], i),
				CostUSD:     floatCols["daily_egress_cost_usd"][i],
				UsageAmount: floatCols["daily_egress_usage_amount"][i],
			},
			Features: make([]float64, len(featureNames)),
		}
		for j, name := range featureNames {
			row.Features[j] = floatCols[name][i]
		}
		batch.Rows[i] = row
	}

	return batch, nil
}

func columnValue(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func stringColumn(column *arrow.Column) ([]string, error) {
	values := make([]string, 0, column.Len())
	for _, chunk := range column.Data().Chunks() {
		typed, ok := chunk.(*array.String)
		if !ok {
			return nil, fmt.Errorf("expected string column, got %s", chunk.DataType())
		}
		for i := 0; i < typed.Len(); i++ {
			values = append(values, typed.Value(i))
		}
	}
	return values, nil
}

func dateColumn(column *arrow.Column) ([]time.Time, error) {
	values := make([]time.Time, 0, column.Len())
	for _, chunk := range column.Data().Chunks() {
		switch typed := chunk.(type) {
		case *array.String:
			for i := 0; i < typed.Len(); i++ {
				ts, err := time.Parse(dateLayout, typed.Value(i))
				if err != nil {
					return nil, err
				}
				values = append(values, ts)
			}
		case *array.Date32:
			for i := 0; i < typed.Len(); i++ {
				values = append(values, typed.Value(i).ToTime())
			}
		default:
			return nil, fmt.Errorf("expected date column, got %s", chunk.DataType())
		}
	}
	return values, nil
}

func floatColumn(column *arrow.Column) ([]float64, error) {
	values := make([]float64, 0, column.Len())
	for _, chunk := range column.Data().Chunks() {
		switch typed := chunk.(type) {
		case *array.Float64:
			for i := 0; i < typed.Len(); i++ {
				values = append(values, typed.Value(i))
			}
		case *array.Float32:
			for i := 0; i < typed.Len(); i++ {
				values = append(values, float64(typed.Value(i)))
			}
		case *array.Int64:
			for i := 0; i < typed.Len(); i++ {
				values = append(values, float64(typed.Value(i)))
			}
		case *array.Int32:
			for i := 0; i < typed.Len(); i++ {
				values = append(values, float64(typed.Value(i)))
			}
		default:
			return nil, fmt.Errorf("expected numeric column, got %s", chunk.DataType())
		}
	}
	return values, nil
}
