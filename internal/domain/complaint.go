package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	ComplaintStatusOpen       ComplaintStatus = "OPEN"
	ComplaintStatusInProgress ComplaintStatus = "IN_PROGRESS"
	ComplaintStatusResolved   ComplaintStatus = "RESOLVED"
	ComplaintStatusClosed     ComplaintStatus = "CLOSED"
	ComplaintStatusEscalated  ComplaintStatus = "ESCALATED"
	ComplaintStatusReopened   ComplaintStatus = "REOPENED"
)

// ActiveStatuses are the states that count toward an agent's active workload.
var ActiveStatuses = []ComplaintStatus{
	ComplaintStatusOpen,
	ComplaintStatusInProgress,
	ComplaintStatusEscalated,
	ComplaintStatusReopened,
}

// IsActive reports whether the status counts toward agent workload.
func (s ComplaintStatus) IsActive() bool {
	for _, candidate := range ActiveStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// ComplaintPriority enumerates SLA urgency.
type ComplaintPriority string

const (
	ComplaintPriorityLow      ComplaintPriority = "LOW"
	ComplaintPriorityMedium   ComplaintPriority = "MEDIUM"
	ComplaintPriorityHigh     ComplaintPriority = "HIGH"
	ComplaintPriorityCritical ComplaintPriority = "CRITICAL"
)

// ValidPriority reports whether p is a recognized priority value.
func ValidPriority(p ComplaintPriority) bool {
	switch p {
	case ComplaintPriorityLow, ComplaintPriorityMedium, ComplaintPriorityHigh, ComplaintPriorityCritical:
		return true
	}
	return false
}

// ComplaintCategory enumerates complaint subject areas.
type ComplaintCategory string

const (
	CategoryTechnical      ComplaintCategory = "TECHNICAL"
	CategoryProductQuality ComplaintCategory = "PRODUCT_QUALITY"
	CategoryService        ComplaintCategory = "SERVICE"
	CategoryElectronics    ComplaintCategory = "ELECTRONICS"
	CategoryAppliances     ComplaintCategory = "APPLIANCES"
	CategoryPlumbing       ComplaintCategory = "PLUMBING"
	CategoryElectrical     ComplaintCategory = "ELECTRICAL"
	CategoryBilling        ComplaintCategory = "BILLING"
	CategoryOther          ComplaintCategory = "OTHER"
)

// ValidCategory reports whether c is a recognized category value.
func ValidCategory(c ComplaintCategory) bool {
	switch c {
	case CategoryTechnical, CategoryProductQuality, CategoryService,
		CategoryElectronics, CategoryAppliances, CategoryPlumbing,
		CategoryElectrical, CategoryBilling, CategoryOther:
		return true
	}
	return false
}

// Complaint is the aggregate for customer complaints.
type Complaint struct {
	ID               string
	ComplaintNumber  string
	CustomerID       string
	AssignedTo       *string
	Title            string
	Description      string
	Category         ComplaintCategory
	Priority         ComplaintPriority
	Status           ComplaintStatus
	SLADeadline      time.Time
	SLABreached      bool
	ResolvedAt       *time.Time
	ClosedAt         *time.Time
	ResolutionNotes  string
	CanReopen        bool
	ReopenWindowDays int
	Location         string
	Pincode          string
	AutoTriaged      bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Assign binds the complaint to an agent. Whenever an OPEN complaint gains
// an assignee it moves to IN_PROGRESS; the status/assignment invariant is
// maintained here and nowhere else.
func (c *Complaint) Assign(agentID string) {
	c.AssignedTo = &agentID
	if c.Status == ComplaintStatusOpen {
		c.Status = ComplaintStatusInProgress
	}
}

// Unassign removes the agent binding. An IN_PROGRESS complaint with no
// assignee falls back to OPEN.
func (c *Complaint) Unassign() {
	c.AssignedTo = nil
	if c.Status == ComplaintStatusInProgress {
		c.Status = ComplaintStatusOpen
	}
}

// CanResolve reports whether a resolve transition is allowed from the
// current status.
func (c *Complaint) CanResolve() bool {
	return c.Status != ComplaintStatusResolved && c.Status != ComplaintStatusClosed
}

// WithinReopenWindow reports whether now is inside the reopen window.
// Complaints with no recorded resolution time are not window-bound.
func (c *Complaint) WithinReopenWindow(now time.Time) bool {
	if c.ResolvedAt == nil {
		return true
	}
	window := time.Duration(c.ReopenWindowDays) * 24 * time.Hour
	return !now.After(c.ResolvedAt.Add(window))
}
