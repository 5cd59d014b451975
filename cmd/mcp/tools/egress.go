package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elC0mpa/egress-doctor/cmd/mcp/response"
	"github.com/elC0mpa/egress-doctor/model"
	awsconfig "github.com/elC0mpa/egress-doctor/service/aws/config"
	awscostexplorer "github.com/elC0mpa/egress-doctor/service/aws/costexplorer"
	awsec2 "github.com/elC0mpa/egress-doctor/service/aws/ec2"
	awsfeaturestore "github.com/elC0mpa/egress-doctor/service/aws/featurestore"
	awss3guard "github.com/elC0mpa/egress-doctor/service/aws/s3guard"
	awssns "github.com/elC0mpa/egress-doctor/service/aws/sns"
	awssts "github.com/elC0mpa/egress-doctor/service/aws/sts"
	"github.com/elC0mpa/egress-doctor/service/remediator"
	"github.com/elC0mpa/egress-doctor/service/scorer"
	"github.com/elC0mpa/egress-doctor/service/trigger"
	"github.com/elC0mpa/egress-doctor/utils"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterEgressTools registers all egress diagnostic tools with the MCP server
func RegisterEgressTools(s *server.MCPServer, region, profile, bucket, prefix, topicARN string) {
	// Account info
	s.AddTool(
		mcp.NewTool("egress_get_account_info",
			mcp.WithDescription("Get AWS account identity information including account ID and ARN"),
		),
		makeAccountInfoHandler(region, profile),
	)

	// Daily cost breakdown
	s.AddTool(
		mcp.NewTool("egress_get_daily_cost_breakdown",
			mcp.WithDescription("Get the daily cost breakdown by service and usage type for the last N days"),
			mcp.WithNumber("days",
				mcp.Description("Number of days to look back (default 7)"),
			),
		),
		makeDailyCostHandler(region, profile),
	)

	// Local scoring of the latest feature batch
	s.AddTool(
		mcp.NewTool("egress_score_latest_batch",
			mcp.WithDescription("Score the latest feature batch with the stored anomaly model and list flagged egress-cost anomalies"),
		),
		makeScoreLatestBatchHandler(region, profile, bucket, prefix),
	)

	// Security group inspection
	s.AddTool(
		mcp.NewTool("egress_get_security_group_rules",
			mcp.WithDescription("List the flattened ingress rules of a security group, marking rules open to the internet"),
			mcp.WithString("group_id",
				mcp.Required(),
				mcp.Description("Security group id, e.g. sg-0123456789abcdef0"),
			),
		),
		makeSecurityGroupRulesHandler(region, profile),
	)

	// Remediation
	s.AddTool(
		mcp.NewTool("egress_remediate",
			mcp.WithDescription("Run a vetted remediation against a resource: remediate_s3_public_access or remediate_security_group. Every outcome is published to the audit topic"),
			mcp.WithString("action",
				mcp.Required(),
				mcp.Description("Remediation action name"),
			),
			mcp.WithString("resource_id",
				mcp.Required(),
				mcp.Description("Bucket name/ARN or security group id/ARN"),
			),
		),
		makeRemediateHandler(region, profile, topicARN),
	)

	// Egress classification
	s.AddTool(
		mcp.NewTool("egress_classify_address",
			mcp.WithDescription("Classify whether traffic to an IP address is billable egress (outside RFC1918 and link-local ranges)"),
			mcp.WithString("address",
				mcp.Required(),
				mcp.Description("IPv4 or IPv6 address"),
			),
		),
		makeClassifyAddressHandler(),
	)
}

func makeAccountInfoHandler(region, profile string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		awsCfg, err := awsconfig.NewService().GetAWSCfg(ctx, region, profile)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to configure AWS: %v", err)), nil
		}

		info, err := awssts.NewService(awsCfg).GetAccountInfo(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get account info: %v", err)), nil
		}

		return jsonResult(response.ConvertAccountInfo(info))
	}
}

func makeDailyCostHandler(region, profile string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		days := request.GetInt("days", 7)
		if days < 1 {
			days = 1
		}

		awsCfg, err := awsconfig.NewService().GetAWSCfg(ctx, region, profile)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to configure AWS: %v", err)), nil
		}

		window := model.TimeWindow{
			Start: time.Now().AddDate(0, 0, -days),
			End:   time.Now(),
		}
		breakdown, err := awscostexplorer.NewService(awsCfg).DailyBreakdown(ctx, window)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get cost breakdown: %v", err)), nil
		}

		return jsonResult(response.ConvertDailyCosts(breakdown))
	}
}

func makeScoreLatestBatchHandler(region, profile, bucket, prefix string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if bucket == "" {
			return mcp.NewToolResultError("EGRESS_FEATURE_BUCKET is not configured"), nil
		}

		awsCfg, err := awsconfig.NewService().GetAWSCfg(ctx, region, profile)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to configure AWS: %v", err)), nil
		}
		store := awsfeaturestore.NewService(awsCfg, bucket, prefix)

		blob, _, err := store.GetModel(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to load model: %v", err)), nil
		}
		var m scorer.Model
		if err := json.Unmarshal(blob, &m); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to decode model: %v", err)), nil
		}

		batch, err := store.LatestBatch(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to load feature batch: %v", err)), nil
		}

		scored, err := scorer.NewLocalEndpoint(&m).Score(ctx, batch)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to score batch: %v", err)), nil
		}

		return jsonResult(response.ConvertScoringResult(batch, scored, trigger.AnomalyType))
	}
}

func makeSecurityGroupRulesHandler(region, profile string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		groupID, err := request.RequireString("group_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		awsCfg, err := awsconfig.NewService().GetAWSCfg(ctx, region, profile)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to configure AWS: %v", err)), nil
		}

		rules, err := awsec2.NewService(awsCfg).IngressRules(ctx, groupID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to describe security group: %v", err)), nil
		}

		return jsonResult(response.ConvertIngressRules(rules))
	}
}

func makeRemediateHandler(region, profile, topicARN string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if topicARN == "" {
			return mcp.NewToolResultError("EGRESS_SNS_TOPIC_ARN is not configured"), nil
		}

		action, err := request.RequireString("action")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		resourceID, err := request.RequireString("resource_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		awsCfg, err := awsconfig.NewService().GetAWSCfg(ctx, region, profile)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to configure AWS: %v", err)), nil
		}

		remediatorService := remediator.NewService(
			awss3guard.NewService(awsCfg),
			awsec2.NewService(awsCfg),
			awssns.NewService(awsCfg, topicARN),
			nil,
		)

		task := model.RemediationTask{
			Action:     model.Action(action),
			ResourceID: resourceID,
		}
		outcome := remediatorService.Remediate(ctx, task)

		return jsonResult(response.ConvertRemediationResult(task, outcome))
	}
}

func makeClassifyAddressHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		address, err := request.RequireString("address")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		classifier, err := utils.NewEgressClassifier()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		isEgress, err := classifier.ClassifyAddr(address)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return jsonResult(response.Classification{Address: address, IsEgress: isEgress})
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
