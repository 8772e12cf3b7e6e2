// Package sla computes resolution deadlines for complaints.
package sla

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// DefaultHours applies when the priority is unrecognized.
const DefaultHours = 72

var hoursByPriority = map[domain.ComplaintPriority]int{
	domain.ComplaintPriorityCritical: 4,
	domain.ComplaintPriorityHigh:     24,
	domain.ComplaintPriorityMedium:   48,
	domain.ComplaintPriorityLow:      72,
}

// Deadline returns the SLA deadline for a complaint created at now.
// The deadline derives from priority alone; category is accepted for
// interface stability but does not participate in the lookup.
func Deadline(priority domain.ComplaintPriority, category domain.ComplaintCategory, now time.Time) time.Time {
	hours, ok := hoursByPriority[priority]
	if !ok {
		hours = DefaultHours
	}
	return now.Add(time.Duration(hours) * time.Hour)
}
