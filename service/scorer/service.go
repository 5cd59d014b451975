package scorer

import (
	"math"
	"math/rand"
	"sort"

	"github.com/elC0mpa/egress-doctor/model"
)

func NewService() *service {
	return &service{}
}

// Train fits an isolation forest over the vectors and calibrates the decision
// threshold so that approximately the contamination fraction of the training
// population is flagged. The threshold is frozen into the returned Model.
func (s *service) Train(vectors []model.FeatureVector, hp Hyperparameters) (*Model, error) {
	if len(vectors) == 0 {
		return nil, &model.EmptyInputError{Op: "scorer.Train"}
	}

	width := len(vectors[0].Values)
	data := make([][]float64, len(vectors))
	for i, v := range vectors {
		if len(v.Values) != width {
			return nil, &model.DimensionMismatchError{Want: width, Got: len(v.Values)}
		}
		data[i] = v.Values
	}

	if hp.TreeCount <= 0 {
		hp.TreeCount = DefaultHyperparameters().TreeCount
	}
	if hp.Contamination <= 0 || hp.Contamination >= 1 {
		hp.Contamination = DefaultHyperparameters().Contamination
	}
	if hp.SubsampleSize <= 0 {
		hp.SubsampleSize = DefaultHyperparameters().SubsampleSize
	}

	subsample := hp.SubsampleSize
	if subsample > len(data) {
		subsample = len(data)
	}
	maxDepth := int(math.Ceil(math.Log2(float64(subsample) + 1)))

	rng := rand.New(rand.NewSource(hp.RandomSeed))

	m := &Model{
		SchemaVersion:   modelSchemaVersion,
		FeatureWidth:    width,
		SubsampleSize:   subsample,
		Hyperparameters: hp,
		Trees:           make([]Tree, 0, hp.TreeCount),
	}

	for i := 0; i < hp.TreeCount; i++ {
		sample := rng.Perm(len(data))[:subsample]
		m.Trees = append(m.Trees, buildTree(rng, data, sample, maxDepth))
	}

	trainScores := make([]float64, len(data))
	for i, row := range data {
		trainScores[i] = m.scoreRow(row)
	}
	m.Threshold = contaminationQuantile(trainScores, hp.Contamination)

	return m, nil
}

// Score applies a trained model, preserving one-to-one correspondence and
// input order between vectors and results.
func (s *service) Score(vectors []model.FeatureVector, m *Model) ([]model.Scored, error) {
	if len(vectors) == 0 {
		return nil, &model.EmptyInputError{Op: "scorer.Score"}
	}

	results := make([]model.Scored, len(vectors))
	for i, v := range vectors {
		if len(v.Values) != m.FeatureWidth {
			return nil, &model.DimensionMismatchError{Want: m.FeatureWidth, Got: len(v.Values)}
		}
		score := m.scoreRow(v.Values)
		results[i] = model.Scored{
			AnomalyScore: score,
			IsAnomaly:    score <= m.Threshold,
		}
	}

	return results, nil
}

// scoreRow returns the negated isolation score in [-1, 0): lower is more
// anomalous.
func (m *Model) scoreRow(row []float64) float64 {
	total := 0.0
	for _, t := range m.Trees {
		total += t.pathLength(row)
	}
	avg := total / float64(len(m.Trees))

	return -math.Exp2(-avg / unsuccessfulSearchLength(m.SubsampleSize))
}

// contaminationQuantile returns the value below or at which the contamination
// fraction of scores falls.
func contaminationQuantile(scores []float64, contamination float64) float64 {
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)

	k := int(math.Ceil(contamination * float64(len(sorted))))
	if k < 1 {
		k = 1
	}
	if k > len(sorted) {
		k = len(sorted)
	}
	return sorted[k-1]
}
