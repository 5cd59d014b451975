package model

// GenerationParams tune a generative-text invocation.
type GenerationParams struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// DefaultGenerationParams mirror the settings used for root-cause analysis.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{MaxTokens: 1000, Temperature: 0.1, TopP: 0.9}
}
