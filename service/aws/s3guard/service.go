package awss3guard

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/elC0mpa/egress-doctor/model"
)

func NewService(awsconfig aws.Config) *service {
	client := s3.NewFromConfig(awsconfig)
	return &service{
		client: client,
	}
}

// BlockPublicAccess implements service.PublicAccessBlocker. It applies the
// full block-public-access configuration to the bucket. The call is
// idempotent on the provider side.
func (s *service) BlockPublicAccess(ctx context.Context, bucket string) error {
	input := &s3.PutPublicAccessBlockInput{
		Bucket: aws.String(bucket),
		PublicAccessBlockConfiguration: &types.PublicAccessBlockConfiguration{
			BlockPublicAcls:       aws.Bool(true),
			IgnorePublicAcls:      aws.Bool(true),
			BlockPublicPolicy:     aws.Bool(true),
			RestrictPublicBuckets: aws.Bool(true),
		},
	}

	if _, err := s.client.PutPublicAccessBlock(ctx, input); err != nil {
		return &model.ExternalCallError{Collaborator: "s3", Op: "PutPublicAccessBlock", Err: err}
	}
	return nil
}
