package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

type assignmentFixture struct {
	svc        *AssignmentService
	complaints *fakeComplaintRepo
	users      *fakeUserRepo
	requests   *fakeRequestRepo
	timeline   *fakeTimelineRepo
	dispatcher *recordingDispatcher
	admin      *domain.User
	agent      *domain.User
}

func newAssignmentFixture() *assignmentFixture {
	admin := &domain.User{ID: "admin-1", Name: "Root", Role: domain.RoleAdmin}
	agent := &domain.User{ID: "agent-1", Name: "Asha", Role: domain.RoleAgent, AgentStatus: domain.AgentStatusAvailable}
	fixture := &assignmentFixture{
		complaints: newFakeComplaintRepo(),
		users:      newFakeUserRepo(admin, agent),
		requests:   newFakeRequestRepo(),
		timeline:   &fakeTimelineRepo{},
		dispatcher: &recordingDispatcher{},
		admin:      admin,
		agent:      agent,
	}
	fixture.svc = NewAssignmentService(AssignmentDependencies{
		ComplaintRepo: fixture.complaints,
		UserRepo:      fixture.users,
		RequestRepo:   fixture.requests,
		TimelineRepo:  fixture.timeline,
		Tx:            fakeTx{},
		Dispatcher:    fixture.dispatcher,
		Logger:        zap.NewNop(),
		Config:        config.AssignmentConfig{PushRequestTTLHours: 24},
	})
	return fixture
}

func (f *assignmentFixture) openComplaint() *domain.Complaint {
	return f.complaints.add(&domain.Complaint{
		CustomerID: "customer-1",
		Title:      "Broken heater",
		Status:     domain.ComplaintStatusOpen,
	})
}

func conflictCode(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestAssignRequiresAdmin(t *testing.T) {
	f := newAssignmentFixture()
	complaint := f.openComplaint()

	_, err := f.svc.Assign(context.Background(), f.agent, complaint.ID, f.agent.ID)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
}

func TestAssignBindsAgentAndCounters(t *testing.T) {
	f := newAssignmentFixture()
	complaint := f.openComplaint()

	assigned, err := f.svc.Assign(context.Background(), f.admin, complaint.ID, f.agent.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, f.agent.ID, *assigned.AssignedTo)
	assert.Equal(t, domain.ComplaintStatusInProgress, assigned.Status)
	assert.Equal(t, 1, f.agent.TotalAssigned)
	assert.Equal(t, 1, f.agent.CurrentActive)
	assert.Contains(t, f.timeline.actions(complaint.ID), domain.ActionAssigned)
}

func TestAssignRejectsAlreadyAssigned(t *testing.T) {
	f := newAssignmentFixture()
	complaint := f.openComplaint()

	_, err := f.svc.Assign(context.Background(), f.admin, complaint.ID, f.agent.ID)
	require.NoError(t, err)

	_, err = f.svc.Assign(context.Background(), f.admin, complaint.ID, f.agent.ID)
	conflictCode(t, err)
}

func TestAssignRejectsNonAgentTarget(t *testing.T) {
	f := newAssignmentFixture()
	complaint := f.openComplaint()

	_, err := f.svc.Assign(context.Background(), f.admin, complaint.ID, f.admin.ID)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestUnassignRevertsStatusAndCounter(t *testing.T) {
	f := newAssignmentFixture()
	complaint := f.openComplaint()

	_, err := f.svc.Assign(context.Background(), f.admin, complaint.ID, f.agent.ID)
	require.NoError(t, err)

	unassigned, err := f.svc.Unassign(context.Background(), f.admin, complaint.ID)
	require.NoError(t, err)
	assert.Nil(t, unassigned.AssignedTo)
	assert.Equal(t, domain.ComplaintStatusOpen, unassigned.Status)
	assert.Equal(t, 0, f.agent.CurrentActive)
	assert.Equal(t, 1, f.agent.TotalAssigned)
}

func TestUnassignUnassignedConflicts(t *testing.T) {
	f := newAssignmentFixture()
	complaint := f.openComplaint()

	_, err := f.svc.Unassign(context.Background(), f.admin, complaint.ID)
	conflictCode(t, err)
}

func TestPullRequestLifecycle(t *testing.T) {
	f := newAssignmentFixture()
	complaint := f.openComplaint()
	ctx := context.Background()

	request, err := f.svc.CreatePullRequest(ctx, f.agent, complaint.ID, "I know this model")
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionAgentToAdmin, request.Direction)
	assert.Equal(t, domain.RequestStatusPending, request.Status)
	assert.Nil(t, request.ExpiresAt, "pull requests carry no TTL")

	// A second pending request for the same pair is refused.
	_, err = f.svc.CreatePullRequest(ctx, f.agent, complaint.ID, "again")
	conflictCode(t, err)

	accepted, err := f.svc.Respond(ctx, f.admin, request.ID, true, "approved")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.ReviewedBy)
	assert.Equal(t, f.admin.ID, *accepted.ReviewedBy)

	stored, err := f.complaints.GetByID(ctx, complaint.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AssignedTo)
	assert.Equal(t, f.agent.ID, *stored.AssignedTo)
	assert.Equal(t, 1, f.agent.CurrentActive)
}

func TestPullRequestRequiresAgentRole(t *testing.T) {
	f := newAssignmentFixture()
	complaint := f.openComplaint()

	_, err := f.svc.CreatePullRequest(context.Background(), f.admin, complaint.ID, "")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
}

func TestPullRequestOnAssignedComplaintConflicts(t *testing.T) {
	f := newAssignmentFixture()
	complaint := f.openComplaint()
	ctx := context.Background()

	_, err := f.svc.Assign(ctx, f.admin, complaint.ID, f.agent.ID)
	require.NoError(t, err)

	_, err = f.svc.CreatePullRequest(ctx, f.agent, complaint.ID, "")
	conflictCode(t, err)
}

func TestPushRequestRequiresAvailableAgent(t *testing.T) {
	f := newAssignmentFixture()
	complaint := f.openComplaint()

	f.agent.AgentStatus = domain.AgentStatusOffline
	_, err := f.svc.CreatePushRequest(context.Background(), f.admin, complaint.ID, f.agent.ID, "")
	conflictCode(t, err)

	f.agent.AgentStatus = domain.AgentStatusAvailable
	f.agent.CurrentActive = domain.WorkloadThreshold
	_, err = f.svc.CreatePushRequest(context.Background(), f.admin, complaint.ID, f.agent.ID, "")
	conflictCode(t, err)

	f.agent.CurrentActive = 0
	request, err := f.svc.CreatePushRequest(context.Background(), f.admin, complaint.ID, f.agent.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, request.Status)
}

func TestPushRequestCarriesTTLAndSupersedes(t *testing.T) {
	f := newAssignmentFixture()
	complaint := f.openComplaint()
	ctx := context.Background()

	first, err := f.svc.CreatePushRequest(ctx, f.admin, complaint.ID, f.agent.ID, "please take this")
	require.NoError(t, err)
	require.NotNil(t, first.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *first.ExpiresAt, time.Minute)

	second, err := f.svc.CreatePushRequest(ctx, f.admin, complaint.ID, f.agent.ID, "updated offer")
	require.NoError(t, err)

	stored, err := f.requests.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusCancelled, stored.Status)

	current, err := f.requests.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, current.Status)
}

func TestPushRequestRespondedByTargetAgentOnly(t *testing.T) {
	f := newAssignmentFixture()
	complaint := f.openComplaint()
	ctx := context.Background()

	other := &domain.User{ID: "agent-2", Name: "Bo", Role: domain.RoleAgent}
	f.users.users[other.ID] = other

	request, err := f.svc.CreatePushRequest(ctx, f.admin, complaint.ID, f.agent.ID, "")
	require.NoError(t, err)

	_, err = f.svc.Respond(ctx, other, request.ID, true, "")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
}

func TestRespondRejectLeavesComplaintUnassigned(t *testing.T) {
	f := newAssignmentFixture()
	complaint := f.openComplaint()
	ctx := context.Background()

	request, err := f.svc.CreatePushRequest(ctx, f.admin, complaint.ID, f.agent.ID, "")
	require.NoError(t, err)

	rejected, err := f.svc.Respond(ctx, f.agent, request.ID, false, "on leave")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusRejected, rejected.Status)
	assert.Equal(t, "on leave", rejected.AgentResponse)

	stored, err := f.complaints.GetByID(ctx, complaint.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AssignedTo)
	assert.Contains(t, f.timeline.actions(complaint.ID), domain.ActionAssignmentRejected)
}

func TestRespondExpiredRequest(t *testing.T) {
	f := newAssignmentFixture()
	complaint := f.openComplaint()
	ctx := context.Background()

	request, err := f.svc.CreatePushRequest(ctx, f.admin, complaint.ID, f.agent.ID, "")
	require.NoError(t, err)

	// Back-date the TTL so the lazy expiry path runs at respond time.
	stored, err := f.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	stored.ExpiresAt = &past
	require.NoError(t, f.requests.Update(ctx, stored))

	_, err = f.svc.Respond(ctx, f.agent, request.ID, true, "")
	conflictCode(t, err)

	settled, err := f.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusExpired, settled.Status)

	complaintAfter, err := f.complaints.GetByID(ctx, complaint.ID)
	require.NoError(t, err)
	assert.Nil(t, complaintAfter.AssignedTo)
}

func TestRespondSettledRequestConflicts(t *testing.T) {
	f := newAssignmentFixture()
	complaint := f.openComplaint()
	ctx := context.Background()

	request, err := f.svc.CreatePushRequest(ctx, f.admin, complaint.ID, f.agent.ID, "")
	require.NoError(t, err)
	_, err = f.svc.Respond(ctx, f.agent, request.ID, false, "")
	require.NoError(t, err)

	_, err = f.svc.Respond(ctx, f.agent, request.ID, true, "")
	conflictCode(t, err)
}

func TestRespondAcceptLosesRace(t *testing.T) {
	f := newAssignmentFixture()
	complaint := f.openComplaint()
	ctx := context.Background()

	other := &domain.User{ID: "agent-2", Name: "Bo", Role: domain.RoleAgent}
	f.users.users[other.ID] = other

	request, err := f.svc.CreatePullRequest(ctx, f.agent, complaint.ID, "")
	require.NoError(t, err)

	// Another path assigns the complaint before the admin accepts.
	_, err = f.svc.Assign(ctx, f.admin, complaint.ID, other.ID)
	require.NoError(t, err)

	_, err = f.svc.Respond(ctx, f.admin, request.ID, true, "")
	conflictCode(t, err)

	beaten, err := f.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusCancelled, beaten.Status)

	stored, err := f.complaints.GetByID(ctx, complaint.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, *stored.AssignedTo)
	// The winner keeps the only counter credit.
	assert.Equal(t, 0, f.agent.CurrentActive)
	assert.Equal(t, 1, other.CurrentActive)
}

func TestListRequestsScopedByRole(t *testing.T) {
	f := newAssignmentFixture()
	ctx := context.Background()

	other := &domain.User{ID: "agent-2", Name: "Bo", Role: domain.RoleAgent}
	f.users.users[other.ID] = other

	first := f.openComplaint()
	second := f.openComplaint()
	_, err := f.svc.CreatePullRequest(ctx, f.agent, first.ID, "")
	require.NoError(t, err)
	_, err = f.svc.CreatePullRequest(ctx, other, second.ID, "")
	require.NoError(t, err)

	all, err := f.svc.ListRequests(ctx, f.admin, repository.RequestFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := f.svc.ListRequests(ctx, f.agent, repository.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, f.agent.ID, mine[0].AgentID)

	customer := &domain.User{ID: "customer-1", Role: domain.RoleCustomer}
	_, err = f.svc.ListRequests(ctx, customer, repository.RequestFilter{})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
}
