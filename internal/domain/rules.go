package domain

import "time"

// TriageRule is an ordered predicate applied once at complaint creation.
// Rules are evaluated by PriorityOrder descending, name ascending; the
// first full match wins and evaluation stops.
type TriageRule struct {
	ID              string
	Name            string
	Category        *ComplaintCategory
	Priority        *ComplaintPriority
	KeywordPatterns []string
	AutoAssignTo    *string
	IsActive        bool
	PriorityOrder   int
	CreatedAt       time.Time
}

// EscalationRule forces complaints of a (category, priority) shape to
// ESCALATED once they age past the configured threshold unresolved.
type EscalationRule struct {
	ID                  string
	Category            ComplaintCategory
	Priority            ComplaintPriority
	EscalationTimeHours int
	IsActive            bool
	CreatedAt           time.Time
}
