package awsconfighistory

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/aws/aws-sdk-go-v2/service/configservice/types"
	"github.com/elC0mpa/egress-doctor/model"
)

func NewService(awsconfig aws.Config) *service {
	client := configservice.NewFromConfig(awsconfig)
	return &service{
		client: client,
	}
}

// RecentChanges implements service.ConfigHistorySource. A resource AWS Config
// has never recorded yields an empty slice, not an error.
func (s *service) RecentChanges(ctx context.Context, resourceID string, window model.TimeWindow) ([]model.ConfigChange, error) {
	input := &configservice.GetResourceConfigHistoryInput{
		ResourceId:   aws.String(resourceID),
		ResourceType: resourceType(resourceID),
		EarlierTime:  aws.Time(window.Start),
		LaterTime:    aws.Time(window.End),
	}

	output, err := s.client.GetResourceConfigHistory(ctx, input)
	if err != nil {
		var notFound *types.ResourceNotDiscoveredException
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, &model.ExternalCallError{Collaborator: "configservice", Op: "GetResourceConfigHistory", Retryable: true, Err: err}
	}

	changes := make([]model.ConfigChange, 0, len(output.ConfigurationItems))
	for _, item := range output.ConfigurationItems {
		change := model.ConfigChange{
			ChangeType: string(item.ConfigurationItemStatus),
			Status:     string(item.ConfigurationItemStatus),
		}
		if item.ConfigurationItemCaptureTime != nil {
			change.CapturedAt = *item.ConfigurationItemCaptureTime
		}
		changes = append(changes, change)
	}

	return changes, nil
}

// resourceType guesses the AWS Config resource type from the identifier
// shape. The pipeline only remediates buckets and security groups, so those
// two cover every id it asks about.
func resourceType(resourceID string) types.ResourceType {
	switch {
	case len(resourceID) > 3 && resourceID[:3] == "sg-":
		return types.ResourceTypeSecurityGroup
	default:
		return types.ResourceTypeBucket
	}
}
