package events

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintCreated         EventType = "complaint_created"
	EventComplaintStatusChanged   EventType = "complaint_status_changed"
	EventComplaintPriorityChanged EventType = "complaint_priority_changed"
	EventComplaintAssigned        EventType = "complaint_assigned"
	EventComplaintUnassigned      EventType = "complaint_unassigned"
	EventAssignmentRequested      EventType = "assignment_requested"
	EventAssignmentResponded      EventType = "assignment_responded"
	EventComplaintResolved        EventType = "complaint_resolved"
	EventComplaintReopened        EventType = "complaint_reopened"
	EventSLABreached              EventType = "sla_breached"
	EventComplaintEscalated       EventType = "complaint_escalated"
	EventCommentAdded             EventType = "comment_added"
)

// Actor encapsulates actor metadata for an event. System-driven events
// (triage, sweeper) carry no user id.
type Actor struct {
	Role   domain.Role `json:"role,omitempty"`
	UserID *string     `json:"user_id,omitempty"`
	System bool        `json:"system,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	ComplaintID string      `json:"complaint_id"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// ComplaintCreatedPayload payload.
type ComplaintCreatedPayload struct {
	ComplaintNumber string                   `json:"complaint_number"`
	Category        domain.ComplaintCategory `json:"category"`
	Priority        domain.ComplaintPriority `json:"priority"`
	Title           string                   `json:"title"`
	SLADeadline     time.Time                `json:"sla_deadline"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.ComplaintStatus `json:"old_status"`
	NewStatus domain.ComplaintStatus `json:"new_status"`
	Comment   string                 `json:"comment,omitempty"`
}

// PriorityChangedPayload payload.
type PriorityChangedPayload struct {
	OldPriority domain.ComplaintPriority `json:"old_priority"`
	NewPriority domain.ComplaintPriority `json:"new_priority"`
	SLADeadline time.Time                `json:"sla_deadline"`
}

// AssignedPayload payload.
type AssignedPayload struct {
	AgentID   string `json:"agent_id"`
	Automatic bool   `json:"automatic,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
}

// AssignmentRequestPayload payload.
type AssignmentRequestPayload struct {
	RequestID string                  `json:"request_id"`
	AgentID   string                  `json:"agent_id"`
	Direction domain.RequestDirection `json:"direction"`
	Status    domain.RequestStatus    `json:"status"`
}

// SLABreachedPayload payload.
type SLABreachedPayload struct {
	ComplaintNumber string    `json:"complaint_number"`
	SLADeadline     time.Time `json:"sla_deadline"`
}

// EscalatedPayload payload.
type EscalatedPayload struct {
	RuleID    string                 `json:"rule_id"`
	OldStatus domain.ComplaintStatus `json:"old_status"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID  string `json:"comment_id"`
	AuthorID   string `json:"author_id"`
	IsInternal bool   `json:"is_internal"`
}
