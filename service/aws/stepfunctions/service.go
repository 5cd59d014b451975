package awsstepfunctions

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/elC0mpa/egress-doctor/model"
)

func NewService(awsconfig aws.Config, stateMachineARN string) *stepFunctionsService {
	client := sfn.NewFromConfig(awsconfig)
	return &stepFunctionsService{
		client:          client,
		stateMachineARN: stateMachineARN,
	}
}

// Launch implements service.TaskLauncher. It starts an asynchronous state
// machine execution carrying the task as input and returns as soon as the
// execution is accepted.
func (s *stepFunctionsService) Launch(ctx context.Context, task model.RemediationTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	input := &sfn.StartExecutionInput{
		StateMachineArn: aws.String(s.stateMachineARN),
		Input:           aws.String(string(payload)),
	}
	if task.TaskID != "" {
		// Execution names are unique per state machine, which deduplicates
		// accidental double launches of the same task.
		input.Name = aws.String(task.TaskID)
	}

	if _, err := s.client.StartExecution(ctx, input); err != nil {
		return &model.ExternalCallError{Collaborator: "stepfunctions", Op: "StartExecution", Err: err}
	}
	return nil
}
