package domain

import "time"

// TimelineAction identifies what happened in a timeline entry.
type TimelineAction string

const (
	ActionCreated             TimelineAction = "CREATED"
	ActionUpdated             TimelineAction = "UPDATED"
	ActionAssigned            TimelineAction = "ASSIGNED"
	ActionUnassigned          TimelineAction = "UNASSIGNED"
	ActionAssignmentRequested TimelineAction = "ASSIGNMENT_REQUESTED"
	ActionAssignmentRejected  TimelineAction = "ASSIGNMENT_REJECTED"
	ActionResolved            TimelineAction = "RESOLVED"
	ActionClosed              TimelineAction = "CLOSED"
	ActionReopened            TimelineAction = "REOPENED"
	ActionAutoTriaged         TimelineAction = "AUTO_TRIAGED"
	ActionAIAutoAssigned      TimelineAction = "AI_AUTO_ASSIGNED"
	ActionAIRecommendations   TimelineAction = "AI_RECOMMENDATIONS"
	ActionSLABreached         TimelineAction = "SLA_BREACHED"
	ActionAutoEscalated       TimelineAction = "AUTO_ESCALATED"
	ActionPriorityUpdated     TimelineAction = "PRIORITY_UPDATED"
	ActionCommented           TimelineAction = "COMMENTED"
	ActionFeedbackAdded       TimelineAction = "FEEDBACK_ADDED"
)

// TimelineEntry is an append-only record of a complaint transition.
// Entries are listed newest first.
type TimelineEntry struct {
	ID          string
	ComplaintID string
	Action      TimelineAction
	Description string
	PerformedBy *string
	Metadata    map[string]any
	CreatedAt   time.Time
}
