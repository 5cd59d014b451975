package scorer

import (
	"context"
	"fmt"

	"github.com/elC0mpa/egress-doctor/model"
)

// LocalEndpoint serves scoring in-process against a loaded model. It
// implements the same boundary contract as the remote scoring endpoint,
// including both wire encodings, so the detection trigger does not care which
// one it talks to.
type LocalEndpoint struct {
	model  *Model
	scorer *service
}

func NewLocalEndpoint(m *Model) *LocalEndpoint {
	return &LocalEndpoint{model: m, scorer: NewService()}
}

// Score implements service.ScoringEndpoint.
func (e *LocalEndpoint) Score(ctx context.Context, batch *model.FeatureBatch) ([]model.Scored, error) {
	if len(batch.Rows) == 0 {
		return nil, &model.EmptyInputError{Op: "scorer.LocalEndpoint.Score"}
	}

	vectors := make([]model.FeatureVector, len(batch.Rows))
	for i, row := range batch.Rows {
		vectors[i] = model.FeatureVector{Key: row.Observation.Key(), Values: row.Features}
	}

	return e.scorer.Score(vectors, e.model)
}

// Invoke handles a raw scoring request the way the hosted endpoint would:
// decode the payload per its content type, score, and re-encode augmented
// rows per the accept type. Supported types are application/json and
// text/csv.
func (e *LocalEndpoint) Invoke(ctx context.Context, payload []byte, contentType, accept string) ([]byte, error) {
	var batch *model.FeatureBatch
	var err error

	switch contentType {
	case ContentTypeJSON:
		batch, err = DecodeBatchJSON(payload, e.model.columnHint())
	case ContentTypeCSV:
		batch, err = DecodeBatchCSV(payload)
	default:
		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}
	if err != nil {
		return nil, err
	}

	scored, err := e.Score(ctx, batch)
	if err != nil {
		return nil, err
	}

	switch accept {
	case ContentTypeJSON:
		return EncodeScoredJSON(batch, scored)
	case ContentTypeCSV:
		return EncodeScoredCSV(batch, scored)
	}
	return nil, fmt.Errorf("unsupported accept type %q", accept)
}

// columnHint names the feature columns a JSON record must carry. JSON objects
// have no column order, so the model's stored column names define it.
func (m *Model) columnHint() []string {
	return m.Columns
}
