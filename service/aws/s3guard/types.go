package awss3guard

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type service struct {
	client *s3.Client
}

type S3GuardService interface {
	BlockPublicAccess(ctx context.Context, bucket string) error
}
