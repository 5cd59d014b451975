package awsec2

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/elC0mpa/egress-doctor/model"
)

type service struct {
	client *ec2.Client
}

type EC2Service interface {
	IngressRules(ctx context.Context, groupID string) ([]model.IngressRule, error)
	RevokeIngress(ctx context.Context, groupID string, rules []model.IngressRule) error
}
