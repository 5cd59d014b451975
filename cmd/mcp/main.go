package main

import (
	"fmt"
	"os"

	"github.com/elC0mpa/egress-doctor/cmd/mcp/tools"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	cfg := LoadConfig()

	s := server.NewMCPServer(
		"egress-doctor-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	tools.RegisterEgressTools(s, cfg.AWSRegion, cfg.AWSProfile, cfg.FeatureBucket, cfg.FeaturePrefix, cfg.TopicARN)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
