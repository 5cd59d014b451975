package awsstepfunctions

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/elC0mpa/egress-doctor/model"
)

type stepFunctionsService struct {
	client          *sfn.Client
	stateMachineARN string
}

type StepFunctionsService interface {
	Launch(ctx context.Context, task model.RemediationTask) error
}
