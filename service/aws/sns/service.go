package awssns

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/elC0mpa/egress-doctor/model"
)

// SNS caps subject lines at 100 characters; longer ones fail the publish.
const maxSubjectLen = 100

func NewService(awsconfig aws.Config, topicARN string) *service {
	client := sns.NewFromConfig(awsconfig)
	return &service{
		client:   client,
		topicARN: topicARN,
	}
}

// Publish implements service.Notifier.
func (s *service) Publish(ctx context.Context, subject, message string) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Subject:  aws.String(truncateSubject(subject)),
		Message:  aws.String(message),
	}

	if _, err := s.client.Publish(ctx, input); err != nil {
		return &model.ExternalCallError{Collaborator: "sns", Op: "Publish", Retryable: true, Err: err}
	}
	return nil
}

// truncateSubject shortens a subject to the SNS limit, cutting on rune
// boundaries so a multibyte resource name never splits mid-character.
func truncateSubject(subject string) string {
	runes := []rune(subject)
	if len(runes) <= maxSubjectLen {
		return subject
	}
	return string(runes[:maxSubjectLen-3]) + "..."
}
