package awssagemaker

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
	"github.com/elC0mpa/egress-doctor/model"
	"github.com/elC0mpa/egress-doctor/service/scorer"
)

func NewService(awsconfig aws.Config, endpointName string) *sageMakerService {
	client := sagemakerruntime.NewFromConfig(awsconfig)
	return &sageMakerService{
		client:       client,
		endpointName: endpointName,
	}
}

// Score implements service.ScoringEndpoint against a hosted inference
// endpoint. The batch travels as CSV, the self-describing wire format, and
// the response carries one scored record per input row in order.
func (s *sageMakerService) Score(ctx context.Context, batch *model.FeatureBatch) ([]model.Scored, error) {
	payload, err := scorer.EncodeBatchCSV(batch)
	if err != nil {
		return nil, err
	}

	input := &sagemakerruntime.InvokeEndpointInput{
		EndpointName: aws.String(s.endpointName),
		ContentType:  aws.String(scorer.ContentTypeCSV),
		Accept:       aws.String(scorer.ContentTypeCSV),
		Body:         payload,
	}

	output, err := s.client.InvokeEndpoint(ctx, input)
	if err != nil {
		return nil, &model.ExternalCallError{Collaborator: "sagemaker", Op: "InvokeEndpoint", Retryable: true, Err: err}
	}

	scored, err := scorer.DecodeScoredCSV(output.Body)
	if err != nil {
		return nil, err
	}
	return scored, nil
}
