package awsconfighistory

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/elC0mpa/egress-doctor/model"
)

type service struct {
	client *configservice.Client
}

type ConfigHistoryService interface {
	RecentChanges(ctx context.Context, resourceID string, window model.TimeWindow) ([]model.ConfigChange, error)
}
