package awsfeaturestore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/elC0mpa/egress-doctor/model"
)

type featureStoreService struct {
	client *s3.Client
	bucket string
	prefix string
}

type FeatureStoreService interface {
	LatestBatch(ctx context.Context) (*model.FeatureBatch, error)
	Observations(ctx context.Context) ([]model.UsageObservation, error)
	PutTransform(ctx context.Context, blob []byte, meta model.ArtifactMetadata) error
	GetTransform(ctx context.Context) ([]byte, model.ArtifactMetadata, error)
	PutModel(ctx context.Context, blob []byte, meta model.ArtifactMetadata) error
	GetModel(ctx context.Context) ([]byte, model.ArtifactMetadata, error)
	Template(ctx context.Context) (string, error)
}
