package flag

import (
	"flag"

	"github.com/elC0mpa/egress-doctor/model"
)

func NewService() *service {
	return &service{}
}

func (s *service) GetParsedFlags() (model.Flags, error) {
	region := flag.String("region", "us-east-1", "AWS region")
	profile := flag.String("profile", "", "AWS profile configuration")
	dryRun := flag.Bool("dry-run", false, "Report remediations without mutating any resource")
	localScoring := flag.Bool("local-scoring", false, "Score with the locally stored model instead of the hosted endpoint")
	workers := flag.Int("workers", 4, "Maximum concurrent anomaly workers")

	flag.Parse()

	return model.Flags{
		Region:       *region,
		Profile:      *profile,
		DryRun:       *dryRun,
		LocalScoring: *localScoring,
		Workers:      *workers,
	}, nil
}
