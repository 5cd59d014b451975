package awsconfig

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
)

type service struct{}

// ConfigService loads the AWS configuration every collaborator client is
// built from.
type ConfigService interface {
	GetAWSCfg(ctx context.Context, region, profile string) (aws.Config, error)
}
