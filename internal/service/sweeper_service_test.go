package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
)

type sweeperFixture struct {
	svc        *SweeperService
	complaints *fakeComplaintRepo
	rules      *fakeEscalationRuleRepo
	requests   *fakeRequestRepo
	timeline   *fakeTimelineRepo
	dispatcher *recordingDispatcher
}

func newSweeperFixture() *sweeperFixture {
	fixture := &sweeperFixture{
		complaints: newFakeComplaintRepo(),
		rules:      &fakeEscalationRuleRepo{},
		requests:   newFakeRequestRepo(),
		timeline:   &fakeTimelineRepo{},
		dispatcher: &recordingDispatcher{},
	}
	fixture.svc = NewSweeperService(SweeperDependencies{
		ComplaintRepo: fixture.complaints,
		RuleRepo:      fixture.rules,
		RequestRepo:   fixture.requests,
		TimelineRepo:  fixture.timeline,
		Tx:            fakeTx{},
		Dispatcher:    fixture.dispatcher,
		Metrics:       observability.NewMetrics(),
		Logger:        zap.NewNop(),
	})
	return fixture
}

func TestSweepSLABreachesFlagsOverdueOnce(t *testing.T) {
	f := newSweeperFixture()
	now := time.Now()
	overdue := f.complaints.add(&domain.Complaint{
		ComplaintNumber: "TKT-400001",
		Status:          domain.ComplaintStatusInProgress,
		SLADeadline:     now.Add(-time.Hour),
	})
	f.complaints.add(&domain.Complaint{
		ComplaintNumber: "TKT-400002",
		Status:          domain.ComplaintStatusOpen,
		SLADeadline:     now.Add(time.Hour),
	})

	require.NoError(t, f.svc.SweepSLABreaches(context.Background(), now))
	assert.True(t, f.complaints.complaints[overdue.ID].SLABreached)
	assert.Equal(t, []domain.TimelineAction{domain.ActionSLABreached}, f.timeline.actions(overdue.ID))
	assert.Equal(t, []events.EventType{events.EventSLABreached}, f.dispatcher.types())

	// Second pass sees the flag already set and publishes nothing new.
	require.NoError(t, f.svc.SweepSLABreaches(context.Background(), now))
	assert.Len(t, f.timeline.actions(overdue.ID), 1)
	assert.Len(t, f.dispatcher.types(), 1)
}

func TestSweepSLABreachesSkipsSettledComplaints(t *testing.T) {
	f := newSweeperFixture()
	now := time.Now()
	resolved := f.complaints.add(&domain.Complaint{
		Status:      domain.ComplaintStatusResolved,
		SLADeadline: now.Add(-time.Hour),
	})

	require.NoError(t, f.svc.SweepSLABreaches(context.Background(), now))
	assert.False(t, f.complaints.complaints[resolved.ID].SLABreached)
	assert.Empty(t, f.dispatcher.types())
}

func TestSweepEscalationsAppliesMatchingRule(t *testing.T) {
	f := newSweeperFixture()
	now := time.Now()
	require.NoError(t, f.rules.Create(context.Background(), &domain.EscalationRule{
		Category:            domain.CategoryBilling,
		Priority:            domain.ComplaintPriorityHigh,
		EscalationTimeHours: 48,
		IsActive:            true,
	}))

	aged := f.complaints.add(&domain.Complaint{
		Category:  domain.CategoryBilling,
		Priority:  domain.ComplaintPriorityHigh,
		Status:    domain.ComplaintStatusOpen,
		CreatedAt: now.Add(-72 * time.Hour),
	})
	fresh := f.complaints.add(&domain.Complaint{
		Category:  domain.CategoryBilling,
		Priority:  domain.ComplaintPriorityHigh,
		Status:    domain.ComplaintStatusOpen,
		CreatedAt: now.Add(-time.Hour),
	})
	otherShape := f.complaints.add(&domain.Complaint{
		Category:  domain.CategoryBilling,
		Priority:  domain.ComplaintPriorityLow,
		Status:    domain.ComplaintStatusOpen,
		CreatedAt: now.Add(-72 * time.Hour),
	})

	require.NoError(t, f.svc.SweepEscalations(context.Background(), now))
	assert.Equal(t, domain.ComplaintStatusEscalated, f.complaints.complaints[aged.ID].Status)
	assert.Equal(t, domain.ComplaintStatusOpen, f.complaints.complaints[fresh.ID].Status)
	assert.Equal(t, domain.ComplaintStatusOpen, f.complaints.complaints[otherShape.ID].Status)
	assert.Equal(t, []domain.TimelineAction{domain.ActionAutoEscalated}, f.timeline.actions(aged.ID))
	assert.Equal(t, []events.EventType{events.EventComplaintEscalated}, f.dispatcher.types())
}

func TestSweepEscalationsIgnoresInactiveRules(t *testing.T) {
	f := newSweeperFixture()
	now := time.Now()
	require.NoError(t, f.rules.Create(context.Background(), &domain.EscalationRule{
		Category:            domain.CategoryElectrical,
		Priority:            domain.ComplaintPriorityCritical,
		EscalationTimeHours: 4,
		IsActive:            false,
	}))
	aged := f.complaints.add(&domain.Complaint{
		Category:  domain.CategoryElectrical,
		Priority:  domain.ComplaintPriorityCritical,
		Status:    domain.ComplaintStatusInProgress,
		CreatedAt: now.Add(-24 * time.Hour),
	})

	require.NoError(t, f.svc.SweepEscalations(context.Background(), now))
	assert.Equal(t, domain.ComplaintStatusInProgress, f.complaints.complaints[aged.ID].Status)
}

func TestSweepEscalationsIsIdempotent(t *testing.T) {
	f := newSweeperFixture()
	now := time.Now()
	require.NoError(t, f.rules.Create(context.Background(), &domain.EscalationRule{
		Category:            domain.CategoryBilling,
		Priority:            domain.ComplaintPriorityHigh,
		EscalationTimeHours: 1,
		IsActive:            true,
	}))
	aged := f.complaints.add(&domain.Complaint{
		Category:  domain.CategoryBilling,
		Priority:  domain.ComplaintPriorityHigh,
		Status:    domain.ComplaintStatusOpen,
		CreatedAt: now.Add(-48 * time.Hour),
	})

	require.NoError(t, f.svc.SweepEscalations(context.Background(), now))
	require.NoError(t, f.svc.SweepEscalations(context.Background(), now))
	assert.Equal(t, domain.ComplaintStatusEscalated, f.complaints.complaints[aged.ID].Status)
	assert.Len(t, f.timeline.actions(aged.ID), 1)
	assert.Len(t, f.dispatcher.types(), 1)
}

func TestSweepExpiredRequests(t *testing.T) {
	f := newSweeperFixture()
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	require.NoError(t, f.requests.Create(context.Background(), &domain.AssignmentRequest{
		ComplaintID: "complaint-1",
		AgentID:     "agent-1",
		Direction:   domain.DirectionAdminToAgent,
		Status:      domain.RequestStatusPending,
		ExpiresAt:   &past,
	}))
	require.NoError(t, f.requests.Create(context.Background(), &domain.AssignmentRequest{
		ComplaintID: "complaint-2",
		AgentID:     "agent-1",
		Direction:   domain.DirectionAdminToAgent,
		Status:      domain.RequestStatusPending,
		ExpiresAt:   &future,
	}))

	require.NoError(t, f.svc.SweepExpiredRequests(context.Background(), now))
	assert.Equal(t, domain.RequestStatusExpired, f.requests.requests["request-1"].Status)
	assert.Equal(t, domain.RequestStatusPending, f.requests.requests["request-2"].Status)
}

func TestRunToleratesSweepFailures(t *testing.T) {
	f := newSweeperFixture()
	// No data seeded: every sweep is a no-op and Run must not panic.
	f.svc.Run(context.Background())
	assert.Empty(t, f.dispatcher.types())
}
