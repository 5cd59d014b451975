package remediator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/elC0mpa/egress-doctor/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlocker struct {
	mu    sync.Mutex
	err   error
	calls []string
}

func (f *fakeBlocker) BlockPublicAccess(ctx context.Context, bucket string) error {
	f.mu.Lock()
	f.calls = append(f.calls, bucket)
	f.mu.Unlock()
	return f.err
}

type fakeGroups struct {
	rules      []model.IngressRule
	rulesErr   error
	revokeErr  error
	revoked    [][]model.IngressRule
	ruleCalls  int
	revokedIDs []string
}

func (f *fakeGroups) IngressRules(ctx context.Context, groupID string) ([]model.IngressRule, error) {
	f.ruleCalls++
	return f.rules, f.rulesErr
}

func (f *fakeGroups) RevokeIngress(ctx context.Context, groupID string, rules []model.IngressRule) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked = append(f.revoked, rules)
	f.revokedIDs = append(f.revokedIDs, groupID)

	var remaining []model.IngressRule
	for _, have := range f.rules {
		keep := true
		for _, gone := range rules {
			if have == gone {
				keep = false
				break
			}
		}
		if keep {
			remaining = append(remaining, have)
		}
	}
	f.rules = remaining
	return nil
}

type fakeAuditor struct {
	mu       sync.Mutex
	subjects []string
	messages []string
}

func (f *fakeAuditor) Publish(ctx context.Context, subject, message string) error {
	f.mu.Lock()
	f.subjects = append(f.subjects, subject)
	f.messages = append(f.messages, message)
	f.mu.Unlock()
	return nil
}

func s3Task(resourceID string) model.RemediationTask {
	return model.RemediationTask{
		Action:     model.ActionBlockS3PublicAccess,
		ResourceID: resourceID,
		AnomalyDetails: map[string]any{
			"anomaly_type": "EgressCostSpike",
		},
	}
}

func TestRemediateBlocksS3PublicAccess(t *testing.T) {
	blocker := &fakeBlocker{}
	auditor := &fakeAuditor{}
	svc := NewService(blocker, &fakeGroups{}, auditor, nil)

	outcome := svc.Remediate(context.Background(), s3Task("arn:aws:s3:::egress-demo"))

	assert.Equal(t, model.StatusSuccess, outcome.Status)
	assert.Equal(t, "Blocked public access for S3 bucket egress-demo.", outcome.Message)
	assert.Equal(t, []string{"egress-demo"}, blocker.calls)
}

func TestRemediateAcceptsBareBucketName(t *testing.T) {
	blocker := &fakeBlocker{}
	svc := NewService(blocker, &fakeGroups{}, &fakeAuditor{}, nil)

	outcome := svc.Remediate(context.Background(), s3Task("egress-demo"))

	assert.Equal(t, model.StatusSuccess, outcome.Status)
	assert.Equal(t, []string{"egress-demo"}, blocker.calls)
}

func TestRemediateRejectsUnparsableBucketID(t *testing.T) {
	blocker := &fakeBlocker{}
	svc := NewService(blocker, &fakeGroups{}, &fakeAuditor{}, nil)

	outcome := svc.Remediate(context.Background(), s3Task("arn:aws:ec2:us-east-1:123:instance/i-abc"))

	assert.Equal(t, model.StatusFailed, outcome.Status)
	assert.Empty(t, blocker.calls)
}

func TestRemediateIsIdempotentForS3(t *testing.T) {
	blocker := &fakeBlocker{}
	svc := NewService(blocker, &fakeGroups{}, &fakeAuditor{}, nil)
	task := s3Task("arn:aws:s3:::egress-demo")

	first := svc.Remediate(context.Background(), task)
	second := svc.Remediate(context.Background(), task)

	assert.Equal(t, model.StatusSuccess, first.Status)
	assert.Equal(t, model.StatusSuccess, second.Status)
}

func TestRemediateRevokesOnlyUnrestrictedRules(t *testing.T) {
	open := model.IngressRule{Protocol: "tcp", FromPort: 22, ToPort: 22, CidrIPv4: "0.0.0.0/0"}
	scoped := model.IngressRule{Protocol: "tcp", FromPort: 443, ToPort: 443, CidrIPv4: "10.0.0.0/8"}
	groups := &fakeGroups{rules: []model.IngressRule{open, scoped}}
	svc := NewService(&fakeBlocker{}, groups, &fakeAuditor{}, nil)

	task := model.RemediationTask{
		Action:     model.ActionRestrictSecurityGroup,
		ResourceID: "arn:aws:ec2:us-east-1:123:security-group/sg-0abc",
	}
	outcome := svc.Remediate(context.Background(), task)

	require.Equal(t, model.StatusSuccess, outcome.Status)
	assert.Contains(t, outcome.Message, "Revoked 1 overly permissive ingress rule(s)")
	require.Len(t, groups.revoked, 1)
	assert.Equal(t, []model.IngressRule{open}, groups.revoked[0])
	assert.Equal(t, []string{"sg-0abc"}, groups.revokedIDs)
}

func TestRemediateSecurityGroupConvergesToNoAction(t *testing.T) {
	open := model.IngressRule{Protocol: "-1", CidrIPv4: "0.0.0.0/0"}
	groups := &fakeGroups{rules: []model.IngressRule{open}}
	svc := NewService(&fakeBlocker{}, groups, &fakeAuditor{}, nil)

	task := model.RemediationTask{Action: model.ActionRestrictSecurityGroup, ResourceID: "sg-0abc"}

	first := svc.Remediate(context.Background(), task)
	second := svc.Remediate(context.Background(), task)

	assert.Equal(t, model.StatusSuccess, first.Status)
	assert.Equal(t, model.StatusNoAction, second.Status)
	assert.Equal(t, "No overly permissive rules found for security group sg-0abc.", second.Message)
	assert.Len(t, groups.revoked, 1, "second run must not revoke again")
}

func TestRemediateUnknownActionSkipsWithoutMutation(t *testing.T) {
	blocker := &fakeBlocker{}
	groups := &fakeGroups{}
	svc := NewService(blocker, groups, &fakeAuditor{}, nil)

	task := model.RemediationTask{Action: model.Action("delete_everything"), ResourceID: "sg-0abc"}
	outcome := svc.Remediate(context.Background(), task)

	assert.Equal(t, model.StatusSkipped, outcome.Status)
	assert.Equal(t, `Unknown action "delete_everything".`, outcome.Message)
	assert.Empty(t, blocker.calls)
	assert.Zero(t, groups.ruleCalls)
}

func TestRemediateUnknownActionSkipsEvenWithoutResourceID(t *testing.T) {
	blocker := &fakeBlocker{}
	groups := &fakeGroups{}
	svc := NewService(blocker, groups, &fakeAuditor{}, nil)

	outcome := svc.Remediate(context.Background(), model.RemediationTask{Action: model.Action("bogus")})

	assert.Equal(t, model.StatusSkipped, outcome.Status)
	assert.Empty(t, blocker.calls)
	assert.Zero(t, groups.ruleCalls)
}

func TestRemediateMissingResourceIDFails(t *testing.T) {
	blocker := &fakeBlocker{}
	svc := NewService(blocker, &fakeGroups{}, &fakeAuditor{}, nil)

	outcome := svc.Remediate(context.Background(), model.RemediationTask{Action: model.ActionBlockS3PublicAccess})

	assert.Equal(t, model.StatusFailed, outcome.Status)
	assert.Empty(t, blocker.calls)
}

func TestRemediateHandlerErrorFails(t *testing.T) {
	blocker := &fakeBlocker{err: errors.New("access denied")}
	svc := NewService(blocker, &fakeGroups{}, &fakeAuditor{}, nil)

	outcome := svc.Remediate(context.Background(), s3Task("egress-demo"))

	assert.Equal(t, model.StatusFailed, outcome.Status)
	assert.Contains(t, outcome.Message, "access denied")
}

func TestRemediateEvictsResourceLocks(t *testing.T) {
	svc := NewService(&fakeBlocker{}, &fakeGroups{}, &fakeAuditor{}, nil)

	svc.Remediate(context.Background(), s3Task("arn:aws:s3:::egress-demo"))
	svc.Remediate(context.Background(), s3Task("arn:aws:s3:::another-bucket"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Remediate(context.Background(), s3Task("arn:aws:s3:::egress-demo"))
		}()
	}
	wg.Wait()

	svc.locks.mu.Lock()
	defer svc.locks.mu.Unlock()
	assert.Empty(t, svc.locks.held)
}

func TestRemediateAuditsEveryOutcome(t *testing.T) {
	auditor := &fakeAuditor{}
	svc := NewService(&fakeBlocker{}, &fakeGroups{}, auditor, nil)

	svc.Remediate(context.Background(), s3Task("egress-demo"))
	svc.Remediate(context.Background(), model.RemediationTask{Action: model.Action("bogus"), ResourceID: "x"})
	svc.Remediate(context.Background(), model.RemediationTask{Action: model.ActionBlockS3PublicAccess})

	require.Len(t, auditor.subjects, 3)
	for _, subject := range auditor.subjects {
		assert.True(t, strings.HasPrefix(subject, "Egress Remediation Status: "), subject)
	}
	assert.Contains(t, auditor.subjects[0], "SUCCESS")
	assert.Contains(t, auditor.subjects[1], "SKIPPED")
	assert.Contains(t, auditor.subjects[2], "FAILED")
	assert.Contains(t, auditor.messages[0], "EgressCostSpike")
}
