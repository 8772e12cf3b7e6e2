package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// AdminService covers the admin-only surfaces: triage and escalation
// rule management and the agent directory.
type AdminService struct {
	users           repository.UserRepository
	complaints      repository.ComplaintRepository
	requests        repository.AssignmentRequestRepository
	triageRules     repository.TriageRuleRepository
	escalationRules repository.EscalationRuleRepository
}

// NewAdminService constructs the service.
func NewAdminService(
	users repository.UserRepository,
	complaints repository.ComplaintRepository,
	requests repository.AssignmentRequestRepository,
	triageRules repository.TriageRuleRepository,
	escalationRules repository.EscalationRuleRepository,
) *AdminService {
	return &AdminService{
		users:           users,
		complaints:      complaints,
		requests:        requests,
		triageRules:     triageRules,
		escalationRules: escalationRules,
	}
}

// TriageRuleInput describes a triage rule create/update payload.
type TriageRuleInput struct {
	Name            string
	Category        *domain.ComplaintCategory
	Priority        *domain.ComplaintPriority
	KeywordPatterns []string
	AutoAssignTo    *string
	IsActive        bool
	PriorityOrder   int
}

// EscalationRuleInput describes an escalation rule payload.
type EscalationRuleInput struct {
	Category            domain.ComplaintCategory
	Priority            domain.ComplaintPriority
	EscalationTimeHours int
	IsActive            bool
}

// AgentDetail is the admin's view of an agent: profile, workload
// counters, current caseload and pending offers.
type AgentDetail struct {
	Agent           *domain.User
	Complaints      []domain.Complaint
	PendingRequests []domain.AssignmentRequest
}

// CreateTriageRule validates and persists a new rule.
func (s *AdminService) CreateTriageRule(ctx context.Context, input TriageRuleInput) (*domain.TriageRule, error) {
	rule, err := s.buildTriageRule(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := s.triageRules.Create(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// UpdateTriageRule replaces a rule's fields.
func (s *AdminService) UpdateTriageRule(ctx context.Context, id string, input TriageRuleInput) (*domain.TriageRule, error) {
	if _, err := s.triageRules.GetByID(ctx, id); err != nil {
		return nil, err
	}
	rule, err := s.buildTriageRule(ctx, input)
	if err != nil {
		return nil, err
	}
	rule.ID = id
	if err := s.triageRules.Update(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// DeleteTriageRule removes a rule.
func (s *AdminService) DeleteTriageRule(ctx context.Context, id string) error {
	return s.triageRules.Delete(ctx, id)
}

// ListTriageRules returns all rules in evaluation order.
func (s *AdminService) ListTriageRules(ctx context.Context) ([]domain.TriageRule, error) {
	return s.triageRules.List(ctx, false)
}

// CreateEscalationRule validates and persists a new rule.
func (s *AdminService) CreateEscalationRule(ctx context.Context, input EscalationRuleInput) (*domain.EscalationRule, error) {
	rule, err := buildEscalationRule(input)
	if err != nil {
		return nil, err
	}
	if err := s.escalationRules.Create(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// UpdateEscalationRule replaces a rule's fields.
func (s *AdminService) UpdateEscalationRule(ctx context.Context, id string, input EscalationRuleInput) (*domain.EscalationRule, error) {
	rule, err := buildEscalationRule(input)
	if err != nil {
		return nil, err
	}
	rule.ID = id
	if err := s.escalationRules.Update(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// DeleteEscalationRule removes a rule.
func (s *AdminService) DeleteEscalationRule(ctx context.Context, id string) error {
	return s.escalationRules.Delete(ctx, id)
}

// ListEscalationRules returns all escalation rules.
func (s *AdminService) ListEscalationRules(ctx context.Context) ([]domain.EscalationRule, error) {
	return s.escalationRules.List(ctx, false)
}

// ListAgents returns the agent directory.
func (s *AdminService) ListAgents(ctx context.Context, filter repository.AgentFilter) ([]domain.User, error) {
	return s.users.ListAgents(ctx, filter)
}

// GetAgentDetail loads an agent with caseload and pending push offers.
func (s *AdminService) GetAgentDetail(ctx context.Context, agentID string) (*AgentDetail, error) {
	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent.Role != domain.RoleAgent {
		return nil, apperrors.NewNotFound("agent", map[string]any{"id": agentID})
	}

	caseload, err := s.complaints.ListWithFilter(ctx, repository.ComplaintFilter{
		AssignedTo: &agent.ID,
		Statuses:   domain.ActiveStatuses,
		Limit:      100,
	})
	if err != nil {
		return nil, err
	}

	direction := domain.DirectionAdminToAgent
	pending, err := s.requests.List(ctx, repository.RequestFilter{
		AgentID:     &agent.ID,
		Direction:   &direction,
		Statuses:    []domain.RequestStatus{domain.RequestStatusPending},
		PendingOnly: true,
		Now:         time.Now(),
	})
	if err != nil {
		return nil, err
	}

	return &AgentDetail{Agent: agent, Complaints: caseload, PendingRequests: pending}, nil
}

// SetAgentStatus updates an agent's availability.
func (s *AdminService) SetAgentStatus(ctx context.Context, agentID string, status domain.AgentStatus) error {
	switch status {
	case domain.AgentStatusAvailable, domain.AgentStatusBusy, domain.AgentStatusOffline:
	default:
		return apperrors.NewValidationError("invalid agent status", map[string]any{"status": status})
	}
	return s.users.SetAgentStatus(ctx, agentID, status)
}

func (s *AdminService) buildTriageRule(ctx context.Context, input TriageRuleInput) (*domain.TriageRule, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("rule name is required", nil)
	}
	if input.Category != nil && !domain.ValidCategory(*input.Category) {
		return nil, apperrors.NewValidationError("invalid category", map[string]any{"category": *input.Category})
	}
	if input.Priority != nil && !domain.ValidPriority(*input.Priority) {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
	}
	if input.AutoAssignTo != nil {
		agent, err := s.users.GetByID(ctx, *input.AutoAssignTo)
		if err != nil {
			return nil, err
		}
		if agent.Role != domain.RoleAgent {
			return nil, apperrors.NewValidationError("auto-assign target is not an agent", nil)
		}
	}
	return &domain.TriageRule{
		Name:            name,
		Category:        input.Category,
		Priority:        input.Priority,
		KeywordPatterns: input.KeywordPatterns,
		AutoAssignTo:    input.AutoAssignTo,
		IsActive:        input.IsActive,
		PriorityOrder:   input.PriorityOrder,
	}, nil
}

func buildEscalationRule(input EscalationRuleInput) (*domain.EscalationRule, error) {
	if !domain.ValidCategory(input.Category) {
		return nil, apperrors.NewValidationError("invalid category", map[string]any{"category": input.Category})
	}
	if !domain.ValidPriority(input.Priority) {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}
	if input.EscalationTimeHours <= 0 {
		return nil, apperrors.NewValidationError("escalation time must be positive", nil)
	}
	return &domain.EscalationRule{
		Category:            input.Category,
		Priority:            input.Priority,
		EscalationTimeHours: input.EscalationTimeHours,
		IsActive:            input.IsActive,
	}, nil
}
