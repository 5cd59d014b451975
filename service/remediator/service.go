package remediator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/elC0mpa/egress-doctor/model"
	"github.com/elC0mpa/egress-doctor/service"
)

// UnrestrictedCIDR is the source range that makes an ingress rule overly
// permissive.
const UnrestrictedCIDR = "0.0.0.0/0"

func NewService(buckets service.PublicAccessBlocker, groups service.SecurityGroupGateway, notifier service.Notifier, logger *slog.Logger) *remediatorService {
	if logger == nil {
		logger = slog.Default()
	}

	s := &remediatorService{
		buckets:         buckets,
		groups:          groups,
		notifier:        notifier,
		logger:          logger,
		mutationTimeout: 10 * time.Second,
		locks:           newResourceLocks(),
	}
	s.handlers = map[model.Action]handlerFunc{
		model.ActionBlockS3PublicAccess:   s.blockPublicAccess,
		model.ActionRestrictSecurityGroup: s.restrictSecurityGroup,
	}
	return s
}

// Remediate executes at most one vetted remediation for the task and mirrors
// the outcome to the notification sink with full anomaly details. Executions
// for the same resource and action are serialized; re-submitting an identical
// task converges to the same success/no_action state without further side
// effects.
func (s *remediatorService) Remediate(ctx context.Context, task model.RemediationTask) model.RemediationOutcome {
	log := s.logger.With("action", string(task.Action), "resource_id", task.ResourceID)

	var outcome model.RemediationOutcome

	// An unknown action is skipped before anything else is inspected: the
	// dispatch table is closed and nothing outside it ever fails or mutates.
	handler, known := s.handlers[task.Action]
	switch {
	case !known:
		log.Warn("unknown remediation action, no action taken")
		outcome = model.RemediationOutcome{
			Status:  model.StatusSkipped,
			Message: fmt.Sprintf("Unknown action %q.", task.Action),
		}
	case task.ResourceID == "":
		outcome = model.RemediationOutcome{
			Status:  model.StatusFailed,
			Message: "missing resourceId in remediation task",
		}
	default:
		key := task.ResourceID + "|" + string(task.Action)
		s.locks.acquire(key)

		// Mutations run to completion or timeout; cancellation mid-mutation
		// would leave ambiguous partial state.
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.mutationTimeout)
		result, err := handler(callCtx, task.ResourceID)
		cancel()
		s.locks.release(key)

		if err != nil {
			log.Error("remediation failed", "error", err)
			outcome = model.RemediationOutcome{
				Status:  model.StatusFailed,
				Message: fmt.Sprintf("Remediation failed for action %q on %q: %v", task.Action, task.ResourceID, err),
			}
		} else {
			outcome = result
		}
	}

	s.publishAudit(ctx, log, task, outcome)
	return outcome
}

// blockPublicAccess applies the block-all-public-access configuration.
// Setting the same four flags again is a no-op on the provider side, so a
// repeat call reports success with no additional mutation.
func (s *remediatorService) blockPublicAccess(ctx context.Context, resourceID string) (model.RemediationOutcome, error) {
	bucket := bucketName(resourceID)
	if bucket == "" {
		return model.RemediationOutcome{}, fmt.Errorf("cannot derive bucket name from %q", resourceID)
	}

	if err := s.buckets.BlockPublicAccess(ctx, bucket); err != nil {
		return model.RemediationOutcome{}, err
	}

	return model.RemediationOutcome{
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("Blocked public access for S3 bucket %s.", bucket),
	}, nil
}

// restrictSecurityGroup re-reads the group's ingress rules and revokes
// exactly those open to the unrestricted range. Rules are always re-read
// inside the call so a retry never acts on stale state.
func (s *remediatorService) restrictSecurityGroup(ctx context.Context, resourceID string) (model.RemediationOutcome, error) {
	groupID := securityGroupID(resourceID)

	rules, err := s.groups.IngressRules(ctx, groupID)
	if err != nil {
		return model.RemediationOutcome{}, err
	}

	var offending []model.IngressRule
	for _, rule := range rules {
		if rule.CidrIPv4 == UnrestrictedCIDR {
			offending = append(offending, rule)
		}
	}

	if len(offending) == 0 {
		return model.RemediationOutcome{
			Status:  model.StatusNoAction,
			Message: fmt.Sprintf("No overly permissive rules found for security group %s.", groupID),
		}, nil
	}

	if err := s.groups.RevokeIngress(ctx, groupID, offending); err != nil {
		return model.RemediationOutcome{}, err
	}

	return model.RemediationOutcome{
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("Revoked %d overly permissive ingress rule(s) from security group %s.", len(offending), groupID),
	}, nil
}

// publishAudit mirrors every outcome, including failures, to the
// notification sink for the audit trail.
func (s *remediatorService) publishAudit(ctx context.Context, log *slog.Logger, task model.RemediationTask, outcome model.RemediationOutcome) {
	details, err := json.MarshalIndent(task.AnomalyDetails, "", "  ")
	if err != nil {
		details = []byte("(unserializable)")
	}

	subject := fmt.Sprintf("Egress Remediation Status: %s for %s on %s",
		strings.ToUpper(string(outcome.Status)), task.Action, task.ResourceID)
	message := fmt.Sprintf("Remediation Action: %s\nResource ID: %s\nStatus: %s\nMessage: %s\nAnomaly Details: %s",
		task.Action, task.ResourceID, outcome.Status, outcome.Message, details)

	if err := s.notifier.Publish(context.WithoutCancel(ctx), subject, message); err != nil {
		log.Error("failed to publish remediation audit message", "error", err)
	}
}

// bucketName extracts the bucket from an S3 ARN (arn:aws:s3:::bucket-name) or
// accepts a bare bucket name.
func bucketName(resourceID string) string {
	if idx := strings.LastIndex(resourceID, ":::"); idx >= 0 {
		return resourceID[idx+3:]
	}
	if strings.Contains(resourceID, ":") {
		return ""
	}
	return resourceID
}

// securityGroupID extracts the sg id from an EC2 ARN
// (arn:aws:ec2:region:account:security-group/sg-xxx) or accepts a bare id.
func securityGroupID(resourceID string) string {
	if idx := strings.LastIndex(resourceID, "/"); idx >= 0 {
		return resourceID[idx+1:]
	}
	return resourceID
}
