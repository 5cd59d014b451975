package awsec2

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/elC0mpa/egress-doctor/model"
)

func NewService(awsconfig aws.Config) *service {
	client := ec2.NewFromConfig(awsconfig)
	return &service{
		client: client,
	}
}

// IngressRules implements service.SecurityGroupGateway. Each permission entry
// is flattened to one rule per IPv4 source range so callers can target a
// single offending range.
func (s *service) IngressRules(ctx context.Context, groupID string) ([]model.IngressRule, error) {
	input := &ec2.DescribeSecurityGroupsInput{
		GroupIds: []string{groupID},
	}

	output, err := s.client.DescribeSecurityGroups(ctx, input)
	if err != nil {
		return nil, &model.ExternalCallError{Collaborator: "ec2", Op: "DescribeSecurityGroups", Retryable: true, Err: err}
	}

	var rules []model.IngressRule
	for _, group := range output.SecurityGroups {
		for _, perm := range group.IpPermissions {
			for _, rng := range perm.IpRanges {
				rules = append(rules, model.IngressRule{
					Protocol: aws.ToString(perm.IpProtocol),
					FromPort: aws.ToInt32(perm.FromPort),
					ToPort:   aws.ToInt32(perm.ToPort),
					CidrIPv4: aws.ToString(rng.CidrIp),
				})
			}
		}
	}

	return rules, nil
}

// RevokeIngress removes exactly the given rules from the security group.
func (s *service) RevokeIngress(ctx context.Context, groupID string, rules []model.IngressRule) error {
	if len(rules) == 0 {
		return nil
	}

	permissions := make([]types.IpPermission, 0, len(rules))
	for _, rule := range rules {
		perm := types.IpPermission{
			IpProtocol: aws.String(rule.Protocol),
			IpRanges: []types.IpRange{
				{CidrIp: aws.String(rule.CidrIPv4)},
			},
		}
		// Protocol "-1" (all traffic) carries no port range.
		if rule.Protocol != "-1" {
			perm.FromPort = aws.Int32(rule.FromPort)
			perm.ToPort = aws.Int32(rule.ToPort)
		}
		permissions = append(permissions, perm)
	}

	input := &ec2.RevokeSecurityGroupIngressInput{
		GroupId:       aws.String(groupID),
		IpPermissions: permissions,
	}

	if _, err := s.client.RevokeSecurityGroupIngress(ctx, input); err != nil {
		return &model.ExternalCallError{Collaborator: "ec2", Op: "RevokeSecurityGroupIngress", Err: err}
	}
	return nil
}
