package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAssignCouplesStatus(t *testing.T) {
	complaint := &Complaint{Status: ComplaintStatusOpen}
	complaint.Assign("agent-1")

	assert.Equal(t, ComplaintStatusInProgress, complaint.Status)
	assert.Equal(t, "agent-1", *complaint.AssignedTo)
}

func TestAssignLeavesNonOpenStatus(t *testing.T) {
	complaint := &Complaint{Status: ComplaintStatusEscalated}
	complaint.Assign("agent-1")

	assert.Equal(t, ComplaintStatusEscalated, complaint.Status)
	assert.Equal(t, "agent-1", *complaint.AssignedTo)
}

func TestUnassignRevertsInProgress(t *testing.T) {
	complaint := &Complaint{Status: ComplaintStatusOpen}
	complaint.Assign("agent-1")
	complaint.Unassign()

	assert.Equal(t, ComplaintStatusOpen, complaint.Status)
	assert.Nil(t, complaint.AssignedTo)
}

func TestCanResolve(t *testing.T) {
	for _, status := range []ComplaintStatus{
		ComplaintStatusOpen, ComplaintStatusInProgress,
		ComplaintStatusEscalated, ComplaintStatusReopened,
	} {
		assert.True(t, (&Complaint{Status: status}).CanResolve(), string(status))
	}
	assert.False(t, (&Complaint{Status: ComplaintStatusResolved}).CanResolve())
	assert.False(t, (&Complaint{Status: ComplaintStatusClosed}).CanResolve())
}

func TestWithinReopenWindow(t *testing.T) {
	resolvedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	complaint := &Complaint{
		Status:           ComplaintStatusResolved,
		ResolvedAt:       &resolvedAt,
		ReopenWindowDays: 30,
	}

	assert.True(t, complaint.WithinReopenWindow(resolvedAt.AddDate(0, 0, 29)))
	assert.True(t, complaint.WithinReopenWindow(resolvedAt.AddDate(0, 0, 30)))
	assert.False(t, complaint.WithinReopenWindow(resolvedAt.AddDate(0, 0, 31)))
}

func TestWithinReopenWindowNoResolutionTime(t *testing.T) {
	complaint := &Complaint{Status: ComplaintStatusClosed, ReopenWindowDays: 30}
	assert.True(t, complaint.WithinReopenWindow(time.Now().AddDate(1, 0, 0)))
}

func TestStatusIsActive(t *testing.T) {
	assert.True(t, ComplaintStatusOpen.IsActive())
	assert.True(t, ComplaintStatusReopened.IsActive())
	assert.False(t, ComplaintStatusResolved.IsActive())
	assert.False(t, ComplaintStatusClosed.IsActive())
}

func TestComputeAgentRating(t *testing.T) {
	three, five := 3, 5
	feedback := &Feedback{Rating: 4, ProfessionalismRating: &three, SpeedRating: &five}
	feedback.ComputeAgentRating()

	assert.NotNil(t, feedback.AgentRating)
	assert.Equal(t, 4, *feedback.AgentRating)
}

func TestComputeAgentRatingRoundsHalvesUp(t *testing.T) {
	four, five := 4, 5
	feedback := &Feedback{Rating: 5, ProfessionalismRating: &four, SpeedRating: &five}
	feedback.ComputeAgentRating()

	assert.NotNil(t, feedback.AgentRating)
	assert.Equal(t, 5, *feedback.AgentRating)
}

func TestComputeAgentRatingWithoutSubRatings(t *testing.T) {
	feedback := &Feedback{Rating: 5}
	feedback.ComputeAgentRating()
	assert.Nil(t, feedback.AgentRating)
}

func TestRequestExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.True(t, (&AssignmentRequest{ExpiresAt: &past}).Expired(now))
	assert.False(t, (&AssignmentRequest{ExpiresAt: &future}).Expired(now))
	assert.False(t, (&AssignmentRequest{}).Expired(now))
}
