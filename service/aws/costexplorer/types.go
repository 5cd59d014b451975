package awscostexplorer

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/elC0mpa/egress-doctor/model"
)

type service struct {
	client *costexplorer.Client
}

type CostService interface {
	DailyBreakdown(ctx context.Context, window model.TimeWindow) ([]model.DailyCost, error)
}
