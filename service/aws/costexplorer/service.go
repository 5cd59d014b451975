package awscostexplorer

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/elC0mpa/egress-doctor/model"
)

const costsAggregation = "BlendedCost"

func NewService(awsconfig aws.Config) *service {
	client := costexplorer.NewFromConfig(awsconfig)
	return &service{
		client: client,
	}
}

// DailyBreakdown implements service.CostBreakdownSource. It returns one
// entry per day in the window, broken down by service and usage type.
func (s *service) DailyBreakdown(ctx context.Context, window model.TimeWindow) ([]model.DailyCost, error) {
	input := &costexplorer.GetCostAndUsageInput{
		Granularity: types.GranularityDaily,
		TimePeriod: &types.DateInterval{
			Start: aws.String(window.Start.Format("2006-01-02")),
			End:   aws.String(window.End.Format("2006-01-02")),
		},
		Metrics: []string{costsAggregation},
		GroupBy: []types.GroupDefinition{
			{
				Key:  aws.String("SERVICE"),
				Type: types.GroupDefinitionTypeDimension,
			},
			{
				Key:  aws.String("USAGE_TYPE"),
				Type: types.GroupDefinitionTypeDimension,
			},
		},
	}

	output, err := s.client.GetCostAndUsage(ctx, input)
	if err != nil {
		return nil, &model.ExternalCallError{Collaborator: "costexplorer", Op: "GetCostAndUsage", Retryable: true, Err: err}
	}

	days := make([]model.DailyCost, 0, len(output.ResultsByTime))
	for _, timeResult := range output.ResultsByTime {
		day := model.DailyCost{
			DateInterval: model.DateInterval{
				Start: aws.ToString(timeResult.TimePeriod.Start),
				End:   aws.ToString(timeResult.TimePeriod.End),
			},
			Groups: s.filterGroups(timeResult.Groups),
		}
		for _, g := range day.Groups {
			day.Total += g.Amount
			day.Unit = g.Unit
		}
		days = append(days, day)
	}

	return days, nil
}

// filterGroups drops zero-amount groups so the evidence only carries
// dimensions that actually moved money.
func (s *service) filterGroups(results []types.Group) []model.CostDimension {
	groups := make([]model.CostDimension, 0, len(results))

	for _, g := range results {
		metric, ok := g.Metrics[costsAggregation]
		if !ok || metric.Amount == nil {
			continue
		}
		amount, err := strconv.ParseFloat(*metric.Amount, 64)
		if err != nil || amount == 0 {
			continue
		}

		dim := model.CostDimension{Amount: amount, Unit: aws.ToString(metric.Unit)}
		if len(g.Keys) > 0 {
			dim.Service = g.Keys[0]
		}
		if len(g.Keys) > 1 {
			dim.UsageType = g.Keys[1]
		}
		groups = append(groups, dim)
	}

	return groups
}
