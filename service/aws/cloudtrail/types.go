package awscloudtrail

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/elC0mpa/egress-doctor/model"
)

type service struct {
	client *cloudtrail.Client
}

type CloudTrailService interface {
	RecentEvents(ctx context.Context, resourceID string, window model.TimeWindow) ([]model.APIEvent, error)
}
