package main

import "os"

// Config holds environment-based configuration for the MCP server
type Config struct {
	AWSRegion  string
	AWSProfile string

	// Feature store holding batches and model artifacts
	FeatureBucket string
	FeaturePrefix string

	// Audit topic for remediation outcomes
	TopicARN string
}

// LoadConfig reads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		AWSRegion:     getEnvOrDefault("AWS_REGION", "us-east-1"),
		AWSProfile:    os.Getenv("AWS_PROFILE"),
		FeatureBucket: os.Getenv("EGRESS_FEATURE_BUCKET"),
		FeaturePrefix: getEnvOrDefault("EGRESS_FEATURE_PREFIX", "egress-doctor/"),
		TopicARN:      os.Getenv("EGRESS_SNS_TOPIC_ARN"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
