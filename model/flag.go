package model

type Flags struct {
	// AWS flags
	Region  string
	Profile string

	// Pipeline flags
	DryRun       bool
	LocalScoring bool
	Workers      int
}
