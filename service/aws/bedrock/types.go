package awsbedrock

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/elC0mpa/egress-doctor/model"
)

type bedrockService struct {
	client  *bedrockruntime.Client
	modelID string
}

type BedrockService interface {
	Generate(ctx context.Context, prompt string, params model.GenerationParams) (string, error)
}
