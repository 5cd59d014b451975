package awsbedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/elC0mpa/egress-doctor/model"
	"github.com/tidwall/gjson"
)

const defaultModelID = "anthropic.claude-v2"

func NewService(awsconfig aws.Config, modelID string) *bedrockService {
	if modelID == "" {
		modelID = defaultModelID
	}
	client := bedrockruntime.NewFromConfig(awsconfig)
	return &bedrockService{
		client:  client,
		modelID: modelID,
	}
}

type invokeBody struct {
	Prompt            string  `json:"prompt"`
	MaxTokensToSample int     `json:"max_tokens_to_sample"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
}

// Generate implements service.TextGenerator. The prompt is wrapped in the
// conversational frame the hosted model requires.
func (s *bedrockService) Generate(ctx context.Context, prompt string, params model.GenerationParams) (string, error) {
	body, err := json.Marshal(invokeBody{
		Prompt:            fmt.Sprintf("\n\nHuman: %s\n\nAssistant:", prompt),
		MaxTokensToSample: params.MaxTokens,
		Temperature:       params.Temperature,
		TopP:              params.TopP,
	})
	if err != nil {
		return "", err
	}

	input := &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(s.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	}

	output, err := s.client.InvokeModel(ctx, input)
	if err != nil {
		return "", &model.ExternalCallError{Collaborator: "bedrock", Op: "InvokeModel", Retryable: true, Err: err}
	}

	completion := gjson.GetBytes(output.Body, "completion").String()
	completion = strings.TrimSpace(completion)
	if completion == "" {
		return "", &model.ExternalCallError{Collaborator: "bedrock", Op: "InvokeModel", Err: fmt.Errorf("empty completion in response")}
	}
	return completion, nil
}
