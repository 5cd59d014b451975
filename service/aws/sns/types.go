package awssns

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type service struct {
	client   *sns.Client
	topicARN string
}

type SNSService interface {
	Publish(ctx context.Context, subject, message string) error
}
