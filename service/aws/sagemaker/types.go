package awssagemaker

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
	"github.com/elC0mpa/egress-doctor/model"
)

type sageMakerService struct {
	client       *sagemakerruntime.Client
	endpointName string
}

type SageMakerService interface {
	Score(ctx context.Context, batch *model.FeatureBatch) ([]model.Scored, error)
}
