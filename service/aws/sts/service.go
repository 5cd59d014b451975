package awssts

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/elC0mpa/egress-doctor/model"
)

func NewService(awsconfig aws.Config) *service {
	return &service{
		client: sts.NewFromConfig(awsconfig),
	}
}

// GetAccountInfo resolves the caller's account identity. The orchestrator
// stamps it on every alert and audit message so notifications stay
// attributable when one topic serves several accounts.
func (s *service) GetAccountInfo(ctx context.Context) (*model.AccountInfo, error) {
	output, err := s.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, &model.ExternalCallError{
			Collaborator: "sts",
			Op:           "GetCallerIdentity",
			Retryable:    true,
			Err:          err,
		}
	}

	return &model.AccountInfo{
		Provider:    "aws",
		AccountID:   aws.ToString(output.Account),
		AccountName: aws.ToString(output.Arn),
	}, nil
}
