package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/scoring"
)

type recommendationFixture struct {
	svc        *RecommendationService
	complaints *fakeComplaintRepo
	users      *fakeUserRepo
	timeline   *fakeTimelineRepo
	dispatcher *recordingDispatcher
}

func newRecommendationFixture(agents ...*domain.User) *recommendationFixture {
	fixture := &recommendationFixture{
		complaints: newFakeComplaintRepo(),
		users:      newFakeUserRepo(agents...),
		timeline:   &fakeTimelineRepo{},
		dispatcher: &recordingDispatcher{},
	}
	fixture.svc = NewRecommendationService(
		fixture.complaints,
		fixture.users,
		fixture.timeline,
		scoring.NewWeightedScorer(),
		fakeTx{},
		fixture.dispatcher,
		zap.NewNop(),
		0,
	)
	return fixture
}

func specialistAgent(id string) *domain.User {
	return &domain.User{
		ID:          id,
		Name:        "Ravi",
		Role:        domain.RoleAgent,
		ServiceType: "Electronics",
		Pincode:     "400001",
		IsVerified:  true,
		AgentStatus: domain.AgentStatusAvailable,
	}
}

func generalistAgent(id string) *domain.User {
	return &domain.User{
		ID:            id,
		Name:          "Dev",
		Role:          domain.RoleAgent,
		ServiceType:   "Plumbing",
		Pincode:       "999999",
		IsVerified:    true,
		AgentStatus:   domain.AgentStatusAvailable,
		CurrentActive: domain.WorkloadThreshold,
	}
}

func unscoredComplaint(f *recommendationFixture) *domain.Complaint {
	return f.complaints.add(&domain.Complaint{
		Title:    "TV dead on arrival",
		Category: domain.CategoryElectronics,
		Pincode:  "400001",
		Status:   domain.ComplaintStatusOpen,
	})
}

func TestProcessNewComplaintAutoAssignsConfidentMatch(t *testing.T) {
	agent := specialistAgent("agent-1")
	f := newRecommendationFixture(agent)
	complaint := unscoredComplaint(f)

	f.svc.ProcessNewComplaint(context.Background(), complaint)

	require.NotNil(t, complaint.AssignedTo)
	assert.Equal(t, agent.ID, *complaint.AssignedTo)
	assert.Equal(t, domain.ComplaintStatusInProgress, complaint.Status)
	assert.Equal(t, 1, agent.CurrentActive)
	assert.Equal(t, []domain.TimelineAction{domain.ActionAIAutoAssigned}, f.timeline.actions(complaint.ID))
	assert.Equal(t, []events.EventType{events.EventComplaintAssigned}, f.dispatcher.types())
}

func TestProcessNewComplaintRecordsWeakCandidates(t *testing.T) {
	f := newRecommendationFixture(generalistAgent("agent-1"))
	complaint := unscoredComplaint(f)

	f.svc.ProcessNewComplaint(context.Background(), complaint)

	assert.Nil(t, complaint.AssignedTo)
	assert.Equal(t, []domain.TimelineAction{domain.ActionAIRecommendations}, f.timeline.actions(complaint.ID))
	assert.Empty(t, f.dispatcher.types())
}

func TestProcessNewComplaintFallsBackWhenRaceLost(t *testing.T) {
	agent := specialistAgent("agent-1")
	f := newRecommendationFixture(agent)
	complaint := unscoredComplaint(f)

	// Someone else grabbed the complaint between scoring and assignment.
	other := "agent-2"
	f.complaints.complaints[complaint.ID].AssignedTo = &other

	f.svc.ProcessNewComplaint(context.Background(), complaint)

	assert.Equal(t, 0, agent.CurrentActive)
	assert.Empty(t, f.dispatcher.types())
	assert.Equal(t, []domain.TimelineAction{domain.ActionAIRecommendations}, f.timeline.actions(complaint.ID))
}

func TestRecommendExcludesUnverifiedAndOffline(t *testing.T) {
	verified := specialistAgent("agent-1")
	unverified := specialistAgent("agent-2")
	unverified.IsVerified = false
	offline := specialistAgent("agent-3")
	offline.AgentStatus = domain.AgentStatusOffline

	f := newRecommendationFixture(verified, unverified, offline)
	complaint := unscoredComplaint(f)

	recs, err := f.svc.Recommend(context.Background(), complaint)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, verified.ID, recs[0].Agent.ID)
}

func TestProcessNewComplaintNoCandidatesIsQuiet(t *testing.T) {
	f := newRecommendationFixture()
	complaint := unscoredComplaint(f)

	f.svc.ProcessNewComplaint(context.Background(), complaint)

	assert.Nil(t, complaint.AssignedTo)
	assert.Empty(t, f.timeline.actions(complaint.ID))
	assert.Empty(t, f.dispatcher.types())
}
