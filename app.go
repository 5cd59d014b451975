package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/elC0mpa/egress-doctor/service"
	awsbedrock "github.com/elC0mpa/egress-doctor/service/aws/bedrock"
	awscloudtrail "github.com/elC0mpa/egress-doctor/service/aws/cloudtrail"
	awsconfig "github.com/elC0mpa/egress-doctor/service/aws/config"
	awsconfighistory "github.com/elC0mpa/egress-doctor/service/aws/confighistory"
	awscostexplorer "github.com/elC0mpa/egress-doctor/service/aws/costexplorer"
	awsec2 "github.com/elC0mpa/egress-doctor/service/aws/ec2"
	awsfeaturestore "github.com/elC0mpa/egress-doctor/service/aws/featurestore"
	awss3guard "github.com/elC0mpa/egress-doctor/service/aws/s3guard"
	awssagemaker "github.com/elC0mpa/egress-doctor/service/aws/sagemaker"
	awssns "github.com/elC0mpa/egress-doctor/service/aws/sns"
	awsstepfunctions "github.com/elC0mpa/egress-doctor/service/aws/stepfunctions"
	awssts "github.com/elC0mpa/egress-doctor/service/aws/sts"
	"github.com/elC0mpa/egress-doctor/service/enricher"
	"github.com/elC0mpa/egress-doctor/service/flag"
	"github.com/elC0mpa/egress-doctor/service/metrics"
	"github.com/elC0mpa/egress-doctor/service/orchestrator"
	"github.com/elC0mpa/egress-doctor/service/remediator"
	"github.com/elC0mpa/egress-doctor/service/scorer"
	"github.com/elC0mpa/egress-doctor/utils"
	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()
	utils.DrawBanner()

	flagService := flag.NewService()
	flags, err := flagService.GetParsedFlags()
	if err != nil {
		fail(err)
	}

	cfg := LoadConfig()
	if err := cfg.Validate(flags.LocalScoring); err != nil {
		fail(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgService := awsconfig.NewService()
	awsCfg, err := cfgService.GetAWSCfg(ctx, flags.Region, flags.Profile)
	if err != nil {
		fail(err)
	}

	store := awsfeaturestore.NewService(awsCfg, cfg.FeatureBucket, cfg.FeaturePrefix)
	notifier := awssns.NewService(awsCfg, cfg.TopicARN)
	stsService := awssts.NewService(awsCfg)

	var endpoint service.ScoringEndpoint
	if flags.LocalScoring {
		blob, _, err := store.GetModel(ctx)
		if err != nil {
			fail(fmt.Errorf("load local model: %w", err))
		}
		var m scorer.Model
		if err := json.Unmarshal(blob, &m); err != nil {
			fail(fmt.Errorf("decode local model: %w", err))
		}
		endpoint = scorer.NewLocalEndpoint(&m)
	} else {
		endpoint = awssagemaker.NewService(awsCfg, cfg.SageMakerEndpoint)
	}

	enricherService := enricher.NewService(
		awsconfighistory.NewService(awsCfg),
		awscloudtrail.NewService(awsCfg),
		awscostexplorer.NewService(awsCfg),
		store,
		awsbedrock.NewService(awsCfg, cfg.BedrockModelID),
		logger,
	)

	remediatorService := remediator.NewService(
		awss3guard.NewService(awsCfg),
		awsec2.NewService(awsCfg),
		notifier,
		logger,
	)

	var launcher service.TaskLauncher
	if cfg.StateMachineARN != "" {
		launcher = awsstepfunctions.NewService(awsCfg, cfg.StateMachineARN)
	}

	orchestratorService := orchestrator.NewService(
		store, endpoint, enricherService, remediatorService,
		launcher, notifier, stsService,
		metrics.New(nil), logger, flags,
	)

	utils.StartSpinner()
	report := orchestratorService.Orchestrate(ctx)
	utils.StopSpinner()

	utils.DrawCycleReport(report)
	utils.DrawScoreChart(report.Alerts)

	if report.Failed {
		os.Exit(1)
	}
}

func fail(err error) {
	utils.StopSpinner()
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
