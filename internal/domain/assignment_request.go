package domain

import "time"

// RequestDirection tags who initiated an assignment request.
type RequestDirection string

const (
	// DirectionAgentToAdmin is an agent asking to take a complaint.
	DirectionAgentToAdmin RequestDirection = "AGENT_TO_ADMIN"
	// DirectionAdminToAgent is an admin offering a complaint to an agent.
	DirectionAdminToAgent RequestDirection = "ADMIN_TO_AGENT"
)

// RequestStatus enumerates assignment request states.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusAccepted  RequestStatus = "ACCEPTED"
	RequestStatusRejected  RequestStatus = "REJECTED"
	RequestStatusExpired   RequestStatus = "EXPIRED"
	RequestStatusCancelled RequestStatus = "CANCELLED"
)

// IsTerminal reports whether no further transitions are allowed.
func (s RequestStatus) IsTerminal() bool {
	return s != RequestStatusPending
}

// AssignmentRequest is a proposal to bind a complaint to an agent. Both the
// agent-initiated pull flow and the admin-initiated push flow share this one
// state machine, distinguished by Direction.
type AssignmentRequest struct {
	ID            string
	ComplaintID   string
	AgentID       string
	AdminID       *string
	Direction     RequestDirection
	Status        RequestStatus
	Message       string
	AgentResponse string
	ExpiresAt     *time.Time
	RespondedAt   *time.Time
	ReviewedBy    *string
	CreatedAt     time.Time
}

// Expired reports whether the request's TTL has elapsed at now. Requests
// without a TTL never expire.
func (r *AssignmentRequest) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}
