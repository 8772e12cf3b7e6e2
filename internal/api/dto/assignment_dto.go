package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// AssignComplaintRequest payload for direct admin assignment.
type AssignComplaintRequest struct {
	AgentID string `json:"agent_id"`
}

// CreatePullRequestRequest payload for an agent requesting a complaint.
type CreatePullRequestRequest struct {
	Message string `json:"message"`
}

// CreatePushRequestRequest payload for an admin offering a complaint.
type CreatePushRequestRequest struct {
	ComplaintID string `json:"complaint_id"`
	AgentID     string `json:"agent_id"`
	Message     string `json:"message"`
}

// RespondRequest payload settling a pending assignment request.
type RespondRequest struct {
	Accept   bool   `json:"accept"`
	Response string `json:"response"`
}

// AssignmentRequestResponse response.
type AssignmentRequestResponse struct {
	ID            string                  `json:"id"`
	ComplaintID   string                  `json:"complaint_id"`
	AgentID       string                  `json:"agent_id"`
	AdminID       *string                 `json:"admin_id"`
	Direction     domain.RequestDirection `json:"direction"`
	Status        domain.RequestStatus    `json:"status"`
	Message       string                  `json:"message,omitempty"`
	AgentResponse string                  `json:"agent_response,omitempty"`
	ExpiresAt     *time.Time              `json:"expires_at"`
	RespondedAt   *time.Time              `json:"responded_at"`
	ReviewedBy    *string                 `json:"reviewed_by"`
	CreatedAt     time.Time               `json:"created_at"`
}

// RecommendationResponse response.
type RecommendationResponse struct {
	AgentID   string  `json:"agent_id"`
	AgentName string  `json:"agent_name"`
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}
