package awscloudtrail

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail/types"
	"github.com/elC0mpa/egress-doctor/model"
)

// maxEvents caps the lookup so one noisy resource cannot flood the evidence.
const maxEvents = 5

func NewService(awsconfig aws.Config) *service {
	client := cloudtrail.NewFromConfig(awsconfig)
	return &service{
		client: client,
	}
}

// RecentEvents implements service.ActivitySource. It returns up to maxEvents
// management API calls touching the resource inside the window.
func (s *service) RecentEvents(ctx context.Context, resourceID string, window model.TimeWindow) ([]model.APIEvent, error) {
	input := &cloudtrail.LookupEventsInput{
		LookupAttributes: []types.LookupAttribute{
			{
				AttributeKey:   types.LookupAttributeKeyResourceName,
				AttributeValue: aws.String(resourceID),
			},
		},
		StartTime:  aws.Time(window.Start),
		EndTime:    aws.Time(window.End),
		MaxResults: aws.Int32(maxEvents),
	}

	output, err := s.client.LookupEvents(ctx, input)
	if err != nil {
		return nil, &model.ExternalCallError{Collaborator: "cloudtrail", Op: "LookupEvents", Retryable: true, Err: err}
	}

	events := make([]model.APIEvent, 0, len(output.Events))
	for _, e := range output.Events {
		event := model.APIEvent{
			EventName: aws.ToString(e.EventName),
			Username:  aws.ToString(e.Username),
		}
		if e.EventTime != nil {
			event.EventTime = *e.EventTime
		}
		events = append(events, event)
	}

	return events, nil
}
