package service

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// AssignmentService owns direct assignment and the request handshake.
// Both the agent-initiated pull flow and the admin-initiated push flow
// run through one request state machine tagged by direction; once any
// path sets assigned_to, it is the authoritative guard that every
// competing request checks before applying its own effect.
type AssignmentService struct {
	complaints repository.ComplaintRepository
	users      repository.UserRepository
	requests   repository.AssignmentRequestRepository
	timeline   repository.TimelineRepository
	tx         persistence.TxRunner
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.AssignmentConfig
}

// AssignmentDependencies bundles collaborators for the assignment service.
type AssignmentDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	UserRepo      repository.UserRepository
	RequestRepo   repository.AssignmentRequestRepository
	TimelineRepo  repository.TimelineRepository
	Tx            persistence.TxRunner
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	Config        config.AssignmentConfig
}

// NewAssignmentService constructs the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		complaints: deps.ComplaintRepo,
		users:      deps.UserRepo,
		requests:   deps.RequestRepo,
		timeline:   deps.TimelineRepo,
		tx:         deps.Tx,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		cfg:        deps.Config,
	}
}

// Assign binds the complaint to the agent directly. Admin only; fails
// with ConflictError when the complaint already has an assignee.
func (s *AssignmentService) Assign(ctx context.Context, admin *domain.User, complaintID, agentID string) (*domain.Complaint, error) {
	if admin.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins may assign complaints")
	}
	agent, err := s.requireAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.complaints.GetByID(ctx, complaintID); err != nil {
		return nil, err
	}

	var complaint *domain.Complaint
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		updated, err := s.complaints.AssignIfUnassigned(ctx, complaintID, agent.ID)
		if err != nil {
			return err
		}
		complaint = updated
		if err := s.users.ApplyAssignment(ctx, agent.ID); err != nil {
			return err
		}
		return s.timeline.Create(ctx, &domain.TimelineEntry{
			ComplaintID: complaint.ID,
			Action:      domain.ActionAssigned,
			Description: "Assigned to " + agent.Name,
			PerformedBy: &admin.ID,
			Metadata:    map[string]any{"agent_id": agent.ID},
		})
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewConflict("complaint already assigned", nil)
		}
		return nil, err
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:        events.EventComplaintAssigned,
		ComplaintID: complaint.ID,
		Actor:       userActor(admin),
		Payload:     events.AssignedPayload{AgentID: agent.ID},
	})
	return complaint, nil
}

// Unassign removes the agent binding. An IN_PROGRESS complaint falls
// back to OPEN at the same mutation point.
func (s *AssignmentService) Unassign(ctx context.Context, admin *domain.User, complaintID string) (*domain.Complaint, error) {
	if admin.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins may unassign complaints")
	}
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if complaint.AssignedTo == nil {
		return nil, apperrors.NewConflict("complaint is not assigned", nil)
	}

	agentID := *complaint.AssignedTo
	wasActive := complaint.Status.IsActive()
	complaint.Unassign()

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.complaints.Update(ctx, complaint); err != nil {
			return err
		}
		if wasActive {
			if err := s.users.ApplyUnassignment(ctx, agentID); err != nil {
				return err
			}
		}
		return s.timeline.Create(ctx, &domain.TimelineEntry{
			ComplaintID: complaint.ID,
			Action:      domain.ActionUnassigned,
			Description: "Assignment removed",
			PerformedBy: &admin.ID,
			Metadata:    map[string]any{"agent_id": agentID},
		})
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:        events.EventComplaintUnassigned,
		ComplaintID: complaint.ID,
		Actor:       userActor(admin),
	})
	return complaint, nil
}

// CreatePullRequest files an agent's request to take an unassigned
// complaint. One pending request per (complaint, agent) pair.
func (s *AssignmentService) CreatePullRequest(ctx context.Context, agent *domain.User, complaintID, message string) (*domain.AssignmentRequest, error) {
	if agent.Role != domain.RoleAgent {
		return nil, apperrors.NewForbidden("only agents may request assignments")
	}
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if complaint.AssignedTo != nil {
		return nil, apperrors.NewConflict("complaint already assigned", nil)
	}

	now := time.Now()
	pending, err := s.requests.HasPending(ctx, complaintID, agent.ID, domain.DirectionAgentToAdmin, now)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, apperrors.NewConflict("a pending request already exists for this complaint", nil)
	}

	request := &domain.AssignmentRequest{
		ComplaintID: complaintID,
		AgentID:     agent.ID,
		Direction:   domain.DirectionAgentToAdmin,
		Status:      domain.RequestStatusPending,
		Message:     strings.TrimSpace(message),
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.requests.Create(ctx, request); err != nil {
			return err
		}
		return s.timeline.Create(ctx, &domain.TimelineEntry{
			ComplaintID: complaintID,
			Action:      domain.ActionAssignmentRequested,
			Description: agent.Name + " requested assignment",
			PerformedBy: &agent.ID,
			Metadata:    map[string]any{"request_id": request.ID},
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishRequestEvent(ctx, events.EventAssignmentRequested, request, userActor(agent))
	return request, nil
}

// CreatePushRequest offers a complaint to an agent with a TTL. A new
// push for the same (complaint, agent) supersedes the prior pending one.
func (s *AssignmentService) CreatePushRequest(ctx context.Context, admin *domain.User, complaintID, agentID, message string) (*domain.AssignmentRequest, error) {
	if admin.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins may push assignment requests")
	}
	agent, err := s.requireAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if !agent.IsAvailable() {
		return nil, apperrors.NewConflict("agent is not available", map[string]any{
			"agent_status": agent.AgentStatus,
			"active_cases": agent.CurrentActive,
		})
	}
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if complaint.AssignedTo != nil {
		return nil, apperrors.NewConflict("complaint already assigned", nil)
	}

	expiresAt := time.Now().Add(s.cfg.PushRequestTTL())
	adminID := admin.ID
	request := &domain.AssignmentRequest{
		ComplaintID: complaintID,
		AgentID:     agent.ID,
		AdminID:     &adminID,
		Direction:   domain.DirectionAdminToAgent,
		Status:      domain.RequestStatusPending,
		Message:     strings.TrimSpace(message),
		ExpiresAt:   &expiresAt,
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		superseded, err := s.requests.CancelPending(ctx, complaintID, agent.ID, domain.DirectionAdminToAgent)
		if err != nil {
			return err
		}
		if superseded > 0 {
			s.logger.Info("superseded pending push requests",
				zap.String("complaint_id", complaintID),
				zap.String("agent_id", agent.ID),
				zap.Int64("count", superseded))
		}
		if err := s.requests.Create(ctx, request); err != nil {
			return err
		}
		return s.timeline.Create(ctx, &domain.TimelineEntry{
			ComplaintID: complaintID,
			Action:      domain.ActionAssignmentRequested,
			Description: "Assignment offered to " + agent.Name,
			PerformedBy: &admin.ID,
			Metadata:    map[string]any{"request_id": request.ID, "agent_id": agent.ID},
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishRequestEvent(ctx, events.EventAssignmentRequested, request, userActor(admin))
	return request, nil
}

// Respond settles a pending request. Pull requests are reviewed by an
// admin; push requests are answered by the target agent. Acceptance
// re-checks that the complaint is still unassigned inside the assigning
// transaction; the loser of a concurrent accept gets ConflictError.
func (s *AssignmentService) Respond(ctx context.Context, actor *domain.User, requestID string, accept bool, response string) (*domain.AssignmentRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.checkResponder(actor, request); err != nil {
		return nil, err
	}
	if request.Status.IsTerminal() {
		return nil, apperrors.NewConflict("request already settled", map[string]any{"status": request.Status})
	}

	now := time.Now()
	if request.Expired(now) {
		request.Status = domain.RequestStatusExpired
		request.RespondedAt = &now
		if err := s.requests.Update(ctx, request); err != nil {
			return nil, err
		}
		return nil, apperrors.NewConflict("request has expired", nil)
	}

	request.RespondedAt = &now
	request.AgentResponse = strings.TrimSpace(response)
	if request.Direction == domain.DirectionAgentToAdmin {
		reviewerID := actor.ID
		request.ReviewedBy = &reviewerID
	}

	if !accept {
		request.Status = domain.RequestStatusRejected
		err = s.tx.InTx(ctx, func(ctx context.Context) error {
			if err := s.requests.Update(ctx, request); err != nil {
				return err
			}
			return s.timeline.Create(ctx, &domain.TimelineEntry{
				ComplaintID: request.ComplaintID,
				Action:      domain.ActionAssignmentRejected,
				Description: "Assignment request rejected",
				PerformedBy: &actor.ID,
				Metadata:    map[string]any{"request_id": request.ID},
			})
		})
		if err != nil {
			return nil, err
		}
		s.publishRequestEvent(ctx, events.EventAssignmentResponded, request, userActor(actor))
		return request, nil
	}

	request.Status = domain.RequestStatusAccepted
	agent, err := s.requireAgent(ctx, request.AgentID)
	if err != nil {
		return nil, err
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.complaints.AssignIfUnassigned(ctx, request.ComplaintID, request.AgentID); err != nil {
			return err
		}
		if err := s.users.ApplyAssignment(ctx, request.AgentID); err != nil {
			return err
		}
		if err := s.requests.Update(ctx, request); err != nil {
			return err
		}
		return s.timeline.Create(ctx, &domain.TimelineEntry{
			ComplaintID: request.ComplaintID,
			Action:      domain.ActionAssigned,
			Description: "Assigned to " + agent.Name + " via request",
			PerformedBy: &actor.ID,
			Metadata:    map[string]any{"request_id": request.ID, "agent_id": request.AgentID},
		})
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			// The complaint gained an assignee elsewhere; this request
			// can never be accepted anymore.
			request.Status = domain.RequestStatusCancelled
			if updateErr := s.requests.Update(ctx, request); updateErr != nil {
				s.logger.Error("failed to cancel beaten request", zap.String("request_id", request.ID), zap.Error(updateErr))
			}
			return nil, apperrors.NewConflict("complaint was assigned concurrently", nil)
		}
		return nil, err
	}

	s.publishRequestEvent(ctx, events.EventAssignmentResponded, request, userActor(actor))
	publish(ctx, s.dispatcher, events.Event{
		Type:        events.EventComplaintAssigned,
		ComplaintID: request.ComplaintID,
		Actor:       userActor(actor),
		Payload:     events.AssignedPayload{AgentID: request.AgentID},
	})
	return request, nil
}

// ListRequests returns requests visible to the viewer: admins see all,
// agents see their own.
func (s *AssignmentService) ListRequests(ctx context.Context, viewer *domain.User, filter repository.RequestFilter) ([]domain.AssignmentRequest, error) {
	switch viewer.Role {
	case domain.RoleAdmin:
	case domain.RoleAgent:
		filter.AgentID = &viewer.ID
	default:
		return nil, apperrors.NewForbidden("access denied")
	}
	if filter.PendingOnly && filter.Now.IsZero() {
		filter.Now = time.Now()
	}
	return s.requests.List(ctx, filter)
}

func (s *AssignmentService) checkResponder(actor *domain.User, request *domain.AssignmentRequest) error {
	switch request.Direction {
	case domain.DirectionAgentToAdmin:
		if actor.Role != domain.RoleAdmin {
			return apperrors.NewForbidden("only admins may review agent requests")
		}
	case domain.DirectionAdminToAgent:
		if actor.ID != request.AgentID {
			return apperrors.NewForbidden("only the offered agent may respond")
		}
	}
	return nil
}

func (s *AssignmentService) requireAgent(ctx context.Context, agentID string) (*domain.User, error) {
	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent.Role != domain.RoleAgent {
		return nil, apperrors.NewValidationError("target user is not an agent", map[string]any{"agent_id": agentID})
	}
	return agent, nil
}

func (s *AssignmentService) publishRequestEvent(ctx context.Context, eventType events.EventType, request *domain.AssignmentRequest, actor events.Actor) {
	publish(ctx, s.dispatcher, events.Event{
		Type:        eventType,
		ComplaintID: request.ComplaintID,
		Actor:       actor,
		Payload: events.AssignmentRequestPayload{
			RequestID: request.ID,
			AgentID:   request.AgentID,
			Direction: request.Direction,
			Status:    request.Status,
		},
	})
}
