package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elC0mpa/egress-doctor/model"
	awsconfig "github.com/elC0mpa/egress-doctor/service/aws/config"
	awsfeaturestore "github.com/elC0mpa/egress-doctor/service/aws/featurestore"
	"github.com/elC0mpa/egress-doctor/service/featurebuilder"
	"github.com/elC0mpa/egress-doctor/service/scorer"
	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	region := flag.String("region", "us-east-1", "AWS region")
	profile := flag.String("profile", "", "AWS profile configuration")
	bucket := flag.String("bucket", os.Getenv("EGRESS_FEATURE_BUCKET"), "Feature store bucket")
	prefix := flag.String("prefix", envOrDefault("EGRESS_FEATURE_PREFIX", "egress-doctor/"), "Feature store key prefix")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *bucket == "" {
		fail(fmt.Errorf("feature store bucket is required (-bucket or EGRESS_FEATURE_BUCKET)"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgService := awsconfig.NewService()
	awsCfg, err := cfgService.GetAWSCfg(ctx, *region, *profile)
	if err != nil {
		fail(err)
	}
	store := awsfeaturestore.NewService(awsCfg, *bucket, *prefix)

	logger.Info("loading training observations", "bucket", *bucket, "prefix", *prefix)
	observations, err := store.Observations(ctx)
	if err != nil {
		fail(err)
	}
	logger.Info("loaded observations", "rows", len(observations))

	builder := featurebuilder.NewService()
	transform, err := builder.Fit(observations)
	if err != nil {
		fail(err)
	}
	vectors, err := builder.Transform(observations, transform)
	if err != nil {
		fail(err)
	}
	logger.Info("fitted transform", "feature_width", transform.Width())

	trained, err := scorer.NewService().Train(vectors, scorer.DefaultHyperparameters())
	if err != nil {
		fail(err)
	}
	trained.Columns = transform.ColumnNames()
	logger.Info("trained model",
		"trees", len(trained.Trees), "threshold", trained.Threshold)

	now := time.Now().UTC()

	transformBlob, err := json.Marshal(transform)
	if err != nil {
		fail(err)
	}
	if err := store.PutTransform(ctx, transformBlob, artifactMeta(transform.SchemaVersion, now, transformBlob, transform.Width())); err != nil {
		fail(err)
	}

	modelBlob, err := json.Marshal(trained)
	if err != nil {
		fail(err)
	}
	if err := store.PutModel(ctx, modelBlob, artifactMeta(trained.SchemaVersion, now, modelBlob, trained.FeatureWidth)); err != nil {
		fail(err)
	}

	logger.Info("published artifacts", "created_at", now.Format(time.RFC3339))
}

func artifactMeta(schemaVersion int, createdAt time.Time, blob []byte, width int) model.ArtifactMetadata {
	sum := sha256.Sum256(blob)
	return model.ArtifactMetadata{
		SchemaVersion: schemaVersion,
		CreatedAt:     createdAt,
		ContentSHA256: hex.EncodeToString(sum[:]),
		FeatureWidth:  width,
	}
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
