package scorer

import (
	"github.com/elC0mpa/egress-doctor/model"
)

type service struct{}

type ScorerService interface {
	Train(vectors []model.FeatureVector, hp Hyperparameters) (*Model, error)
	Score(vectors []model.FeatureVector, m *Model) ([]model.Scored, error)
}

// Hyperparameters tune the isolation forest. Identical seed and identical
// input order produce an identical model.
type Hyperparameters struct {
	TreeCount     int     `json:"tree_count"`
	Contamination float64 `json:"contamination"`
	RandomSeed    int64   `json:"random_seed"`
	SubsampleSize int     `json:"subsample_size"`
}

// DefaultHyperparameters returns the tuned defaults.
func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		TreeCount:     100,
		Contamination: 0.01,
		RandomSeed:    42,
		SubsampleSize: 256,
	}
}

const modelSchemaVersion = 1

// Model is the trained scoring artifact: the tree ensemble plus the decision
// threshold calibrated at train time. The threshold is frozen here so
// inference calls on different batches can never disagree about what counts
// as anomalous for the same severity.
type Model struct {
	SchemaVersion int `json:"schema_version"`
	FeatureWidth  int `json:"feature_width"`

	// Columns names the feature columns in vector order. Populated from the
	// fitted transform when the model is trained; required to decode JSON
	// record payloads, whose objects carry no column order.
	Columns []string `json:"columns,omitempty"`

	SubsampleSize   int             `json:"subsample_size"`
	Threshold       float64         `json:"threshold"`
	Hyperparameters Hyperparameters `json:"hyperparameters"`
	Trees           []Tree          `json:"trees"`
}

// Tree is one isolation tree, array-encoded: Nodes[0] is the root and child
// links are indices into Nodes. A node with Left < 0 is a leaf.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is a single split or leaf of an isolation tree.
type Node struct {
	SplitDim int     `json:"d"`
	SplitVal float64 `json:"v"`
	Left     int     `json:"l"`
	Right    int     `json:"r"`
	Size     int     `json:"n"`
}
