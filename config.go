package main

import (
	"os"

	"github.com/elC0mpa/egress-doctor/model"
)

// Config holds environment-based configuration for the pipeline
type Config struct {
	// Feature store
	FeatureBucket string
	FeaturePrefix string

	// Notification topic for alerts and the remediation audit trail
	TopicARN string

	// Hosted inference endpoint; unused with -local-scoring
	SageMakerEndpoint string

	// Generative model for narratives
	BedrockModelID string

	// Optional state machine for asynchronous remediation execution
	StateMachineARN string
}

// LoadConfig reads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		FeatureBucket:     os.Getenv("EGRESS_FEATURE_BUCKET"),
		FeaturePrefix:     getEnvOrDefault("EGRESS_FEATURE_PREFIX", "egress-doctor/"),
		TopicARN:          os.Getenv("EGRESS_SNS_TOPIC_ARN"),
		SageMakerEndpoint: os.Getenv("EGRESS_SAGEMAKER_ENDPOINT"),
		BedrockModelID:    os.Getenv("EGRESS_BEDROCK_MODEL_ID"),
		StateMachineARN:   os.Getenv("EGRESS_STATE_MACHINE_ARN"),
	}
}

// Validate reports every missing required setting at once, before any
// external call is made.
func (c *Config) Validate(localScoring bool) error {
	var missing []string
	if c.FeatureBucket == "" {
		missing = append(missing, "EGRESS_FEATURE_BUCKET")
	}
	if c.TopicARN == "" {
		missing = append(missing, "EGRESS_SNS_TOPIC_ARN")
	}
	if !localScoring && c.SageMakerEndpoint == "" {
		missing = append(missing, "EGRESS_SAGEMAKER_ENDPOINT")
	}
	if len(missing) > 0 {
		return &model.ConfigurationError{Missing: missing}
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
