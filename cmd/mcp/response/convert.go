package response

import (
	"github.com/elC0mpa/egress-doctor/model"
)

// ConvertAccountInfo converts model.AccountInfo to response.AccountInfo
func ConvertAccountInfo(info *model.AccountInfo) *AccountInfo {
	if info == nil {
		return nil
	}
	return &AccountInfo{
		Provider:    info.Provider,
		AccountID:   info.AccountID,
		AccountName: info.AccountName,
	}
}

// ConvertDailyCosts converts model.DailyCost slices to response.DailyCost
func ConvertDailyCosts(days []model.DailyCost) []DailyCost {
	converted := make([]DailyCost, 0, len(days))
	for _, day := range days {
		out := DailyCost{
			StartDate: day.Start,
			EndDate:   day.End,
			Total:     day.Total,
			Currency:  day.Unit,
			Groups:    make([]CostDimension, 0, len(day.Groups)),
		}
		if out.Currency == "" {
			out.Currency = "USD"
		}
		for _, g := range day.Groups {
			out.Groups = append(out.Groups, CostDimension{
				Service:   g.Service,
				UsageType: g.UsageType,
				Amount:    g.Amount,
				Unit:      g.Unit,
			})
		}
		converted = append(converted, out)
	}
	return converted
}

// ConvertScoringResult builds a summary of flagged rows from a scored batch
func ConvertScoringResult(batch *model.FeatureBatch, scored []model.Scored, anomalyType string) *ScoringResult {
	result := &ScoringResult{RowsScored: len(scored)}
	for i, s := range scored {
		if !s.IsAnomaly || i >= len(batch.Rows) {
			continue
		}
		obs := batch.Rows[i].Observation
		result.Anomalies = append(result.Anomalies, AnomalySummary{
			AnomalyType: anomalyType,
			UsageDate:   obs.Date.Format("2006-01-02"),
			ServiceCode: obs.ServiceCode,
			UsageType:   obs.UsageType,
			Region:      obs.Region,
			ResourceID:  obs.ResourceID,
			CostUSD:     obs.CostUSD,
			Score:       s.AnomalyScore,
		})
	}
	return result
}

// ConvertIngressRules converts model.IngressRule slices to response.IngressRule
func ConvertIngressRules(rules []model.IngressRule) []IngressRule {
	converted := make([]IngressRule, 0, len(rules))
	for _, rule := range rules {
		converted = append(converted, IngressRule{
			Protocol: rule.Protocol,
			FromPort: rule.FromPort,
			ToPort:   rule.ToPort,
			CidrIPv4: rule.CidrIPv4,
			Open:     rule.CidrIPv4 == "0.0.0.0/0",
		})
	}
	return converted
}

// ConvertRemediationResult converts a task and its outcome to a response
func ConvertRemediationResult(task model.RemediationTask, outcome model.RemediationOutcome) *RemediationResult {
	return &RemediationResult{
		Action:     string(task.Action),
		ResourceID: task.ResourceID,
		Status:     string(outcome.Status),
		Message:    outcome.Message,
	}
}
