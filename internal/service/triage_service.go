package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// TriageService applies the ordered triage rules to freshly created
// complaints. First full match wins; the remaining rules are skipped.
type TriageService struct {
	rules  repository.TriageRuleRepository
	users  repository.UserRepository
	logger *zap.Logger
}

// NewTriageService constructs the service.
func NewTriageService(rules repository.TriageRuleRepository, users repository.UserRepository, logger *zap.Logger) *TriageService {
	return &TriageService{rules: rules, users: users, logger: logger}
}

// Apply mutates the complaint in memory according to the first matching
// active rule and returns that rule. Triage must never block complaint
// creation, so any internal error degrades to "no rule applied".
func (s *TriageService) Apply(ctx context.Context, complaint *domain.Complaint) *domain.TriageRule {
	rules, err := s.rules.ListActive(ctx)
	if err != nil {
		s.logger.Error("triage rule lookup failed", zap.Error(err))
		return nil
	}

	for i := range rules {
		rule := &rules[i]
		if !ruleMatches(rule, complaint) {
			continue
		}

		if rule.AutoAssignTo != nil {
			if s.assigneeUsable(ctx, *rule.AutoAssignTo) {
				complaint.Assign(*rule.AutoAssignTo)
			} else {
				s.logger.Warn("triage rule assignee unusable, skipping assignment",
					zap.String("rule_id", rule.ID),
					zap.String("agent_id", *rule.AutoAssignTo))
			}
		}
		if rule.Priority != nil {
			complaint.Priority = *rule.Priority
		}
		complaint.AutoTriaged = true
		return rule
	}
	return nil
}

func ruleMatches(rule *domain.TriageRule, complaint *domain.Complaint) bool {
	if rule.Category != nil && *rule.Category != complaint.Category {
		return false
	}
	if rule.Priority != nil && *rule.Priority != complaint.Priority {
		return false
	}
	if len(rule.KeywordPatterns) > 0 {
		titleLower := strings.ToLower(complaint.Title)
		descLower := strings.ToLower(complaint.Description)
		matched := false
		for _, keyword := range rule.KeywordPatterns {
			kw := strings.ToLower(keyword)
			if strings.Contains(titleLower, kw) || strings.Contains(descLower, kw) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func (s *TriageService) assigneeUsable(ctx context.Context, agentID string) bool {
	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		return false
	}
	return agent.Role == domain.RoleAgent
}
