package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/scoring"
)

// historyWindow bounds the category track record the scorer considers.
const historyWindow = 90 * 24 * time.Hour

// RecommendationService wraps the scorer with candidate loading and
// outcome persistence: auto-assign above the confidence threshold,
// otherwise record the top candidates for admin review.
type RecommendationService struct {
	complaints repository.ComplaintRepository
	users      repository.UserRepository
	timeline   repository.TimelineRepository
	scorer     *scoring.WeightedScorer
	tx         persistence.TxRunner
	dispatcher events.Dispatcher
	logger     *zap.Logger
	threshold  float64
}

// NewRecommendationService constructs the service.
func NewRecommendationService(
	complaints repository.ComplaintRepository,
	users repository.UserRepository,
	timeline repository.TimelineRepository,
	scorer *scoring.WeightedScorer,
	tx persistence.TxRunner,
	dispatcher events.Dispatcher,
	logger *zap.Logger,
	threshold float64,
) *RecommendationService {
	if threshold <= 0 {
		threshold = scoring.AutoAssignConfidence
	}
	return &RecommendationService{
		complaints: complaints,
		users:      users,
		timeline:   timeline,
		scorer:     scorer,
		tx:         tx,
		dispatcher: dispatcher,
		logger:     logger,
		threshold:  threshold,
	}
}

// Recommend scores all eligible agents for the complaint.
func (s *RecommendationService) Recommend(ctx context.Context, complaint *domain.Complaint) ([]scoring.Recommendation, error) {
	candidates, err := s.loadCandidates(ctx, complaint)
	if err != nil {
		return nil, err
	}
	return scoring.Recommend(s.scorer, complaint, candidates), nil
}

// ProcessNewComplaint runs the scored assignment path for a freshly
// created, still unassigned complaint. The engine is best-effort: any
// failure degrades to "no recommendations" and never surfaces.
func (s *RecommendationService) ProcessNewComplaint(ctx context.Context, complaint *domain.Complaint) {
	recs, err := s.Recommend(ctx, complaint)
	if err != nil {
		s.logger.Error("recommendation engine failed", zap.String("complaint_id", complaint.ID), zap.Error(err))
		return
	}
	if len(recs) == 0 {
		return
	}

	top := recs[0]
	if top.Score >= s.threshold {
		if s.autoAssign(ctx, complaint, top) {
			return
		}
		// Lost the assignment race or the write failed; fall through to
		// recording the recommendations so the admin still sees them.
	}

	s.recordRecommendations(ctx, complaint.ID, recs)
}

func (s *RecommendationService) autoAssign(ctx context.Context, complaint *domain.Complaint, top scoring.Recommendation) bool {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		updated, err := s.complaints.AssignIfUnassigned(ctx, complaint.ID, top.Agent.ID)
		if err != nil {
			return err
		}
		*complaint = *updated
		if err := s.users.ApplyAssignment(ctx, top.Agent.ID); err != nil {
			return err
		}
		return s.timeline.Create(ctx, &domain.TimelineEntry{
			ComplaintID: complaint.ID,
			Action:      domain.ActionAIAutoAssigned,
			Description: fmt.Sprintf("Auto-assigned to %s (confidence %.2f)", top.Agent.Name, top.Score),
			Metadata: map[string]any{
				"agent_id":  top.Agent.ID,
				"score":     top.Score,
				"reasoning": top.Reasoning,
			},
		})
	})
	if err != nil {
		if err != pgx.ErrNoRows {
			s.logger.Error("auto-assign failed", zap.String("complaint_id", complaint.ID), zap.Error(err))
		}
		return false
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:        events.EventComplaintAssigned,
		ComplaintID: complaint.ID,
		Actor:       events.Actor{System: true},
		Payload: events.AssignedPayload{
			AgentID:   top.Agent.ID,
			Automatic: true,
			Reasoning: top.Reasoning,
		},
	})
	return true
}

func (s *RecommendationService) recordRecommendations(ctx context.Context, complaintID string, recs []scoring.Recommendation) {
	suggestions := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		suggestions = append(suggestions, map[string]any{
			"agent_id":  rec.Agent.ID,
			"score":     rec.Score,
			"reasoning": rec.Reasoning,
		})
	}
	err := s.timeline.Create(ctx, &domain.TimelineEntry{
		ComplaintID: complaintID,
		Action:      domain.ActionAIRecommendations,
		Description: fmt.Sprintf("%d agent recommendations generated", len(recs)),
		Metadata:    map[string]any{"recommendations": suggestions},
	})
	if err != nil {
		s.logger.Error("failed to record recommendations", zap.String("complaint_id", complaintID), zap.Error(err))
	}
}

func (s *RecommendationService) loadCandidates(ctx context.Context, complaint *domain.Complaint) ([]scoring.Candidate, error) {
	agents, err := s.users.ListAgents(ctx, repository.AgentFilter{OnlyVerified: true})
	if err != nil {
		return nil, err
	}

	since := time.Now().Add(-historyWindow)
	candidates := make([]scoring.Candidate, 0, len(agents))
	for i := range agents {
		agent := &agents[i]
		if agent.AgentStatus == domain.AgentStatusOffline {
			continue
		}
		resolved, err := s.complaints.CountResolvedInCategorySince(ctx, agent.ID, complaint.Category, since)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, scoring.Candidate{
			Agent:              agent,
			ActiveCases:        agent.CurrentActive,
			ResolvedInCategory: resolved,
			HasHistory:         agent.TotalResolved > 0,
		})
	}
	return candidates, nil
}
