package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// TriageRuleRequest payload.
type TriageRuleRequest struct {
	Name            string                    `json:"name"`
	Category        *domain.ComplaintCategory `json:"category"`
	Priority        *domain.ComplaintPriority `json:"priority"`
	KeywordPatterns []string                  `json:"keyword_patterns"`
	AutoAssignTo    *string                   `json:"auto_assign_to"`
	IsActive        bool                      `json:"is_active"`
	PriorityOrder   int                       `json:"priority_order"`
}

// TriageRuleResponse response.
type TriageRuleResponse struct {
	ID              string                    `json:"id"`
	Name            string                    `json:"name"`
	Category        *domain.ComplaintCategory `json:"category"`
	Priority        *domain.ComplaintPriority `json:"priority"`
	KeywordPatterns []string                  `json:"keyword_patterns"`
	AutoAssignTo    *string                   `json:"auto_assign_to"`
	IsActive        bool                      `json:"is_active"`
	PriorityOrder   int                       `json:"priority_order"`
	CreatedAt       time.Time                 `json:"created_at"`
}

// EscalationRuleRequest payload.
type EscalationRuleRequest struct {
	Category            domain.ComplaintCategory `json:"category"`
	Priority            domain.ComplaintPriority `json:"priority"`
	EscalationTimeHours int                      `json:"escalation_time_hours"`
	IsActive            bool                     `json:"is_active"`
}

// EscalationRuleResponse response.
type EscalationRuleResponse struct {
	ID                  string                   `json:"id"`
	Category            domain.ComplaintCategory `json:"category"`
	Priority            domain.ComplaintPriority `json:"priority"`
	EscalationTimeHours int                      `json:"escalation_time_hours"`
	IsActive            bool                     `json:"is_active"`
	CreatedAt           time.Time                `json:"created_at"`
}

// AgentDetailResponse is the admin view of one agent.
type AgentDetailResponse struct {
	Agent           AgentResponse               `json:"agent"`
	Complaints      []ComplaintSummary          `json:"complaints"`
	PendingRequests []AssignmentRequestResponse `json:"pending_requests"`
}

// AgentStatusRequest payload.
type AgentStatusRequest struct {
	Status domain.AgentStatus `json:"status"`
}
