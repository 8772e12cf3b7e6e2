package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/sla"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// ComplaintService coordinates the complaint lifecycle: creation with
// triage and scored assignment, role-gated updates, and the
// resolve/close/reopen transitions with their agent counter effects.
type ComplaintService struct {
	complaints      repository.ComplaintRepository
	users           repository.UserRepository
	timeline        repository.TimelineRepository
	comments        repository.CommentRepository
	attachments     repository.AttachmentRepository
	feedback        repository.FeedbackRepository
	triage          *TriageService
	recommendations *RecommendationService
	tx              persistence.TxRunner
	dispatcher      events.Dispatcher
	logger          *zap.Logger
	cfg             config.ComplaintConfig
}

// ComplaintDependencies bundles collaborators for the complaint service.
type ComplaintDependencies struct {
	ComplaintRepo   repository.ComplaintRepository
	UserRepo        repository.UserRepository
	TimelineRepo    repository.TimelineRepository
	CommentRepo     repository.CommentRepository
	AttachmentRepo  repository.AttachmentRepository
	FeedbackRepo    repository.FeedbackRepository
	Triage          *TriageService
	Recommendations *RecommendationService
	Tx              persistence.TxRunner
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
	Config          config.ComplaintConfig
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	return &ComplaintService{
		complaints:      deps.ComplaintRepo,
		users:           deps.UserRepo,
		timeline:        deps.TimelineRepo,
		comments:        deps.CommentRepo,
		attachments:     deps.AttachmentRepo,
		feedback:        deps.FeedbackRepo,
		triage:          deps.Triage,
		recommendations: deps.Recommendations,
		tx:              deps.Tx,
		dispatcher:      deps.Dispatcher,
		logger:          deps.Logger,
		cfg:             deps.Config,
	}
}

// ComplaintCreateInput describes complaint creation payload.
type ComplaintCreateInput struct {
	Title                  string
	Description            string
	Category               domain.ComplaintCategory
	Priority               domain.ComplaintPriority
	ExpectedResolutionDays *int
	Location               string
	Pincode                string
}

// ComplaintUpdateInput carries the role-gated mutable fields.
type ComplaintUpdateInput struct {
	Title       *string
	Description *string
	Category    *domain.ComplaintCategory
	Priority    *domain.ComplaintPriority
}

// ComplaintListInput describes listing filters before role scoping.
type ComplaintListInput struct {
	Statuses    []domain.ComplaintStatus
	Priorities  []domain.ComplaintPriority
	Categories  []domain.ComplaintCategory
	SLABreached *bool
	SearchTerm  *string
	Unassigned  bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// FeedbackInput describes customer feedback payload.
type FeedbackInput struct {
	Rating                int
	ProfessionalismRating *int
	SpeedRating           *int
	Comment               string
}

// AttachmentInput describes attachment metadata.
type AttachmentInput struct {
	StorageKey       string
	OriginalFilename string
	FileSize         int64
	MimeType         string
	Type             domain.AttachmentType
}

// Create files a new complaint for the customer: derive priority, stamp
// the SLA deadline, run triage, then hand the still unassigned result to
// the recommendation engine.
func (s *ComplaintService) Create(ctx context.Context, customer *domain.User, input ComplaintCreateInput) (*domain.Complaint, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}

	category := input.Category
	if category == "" {
		category = domain.CategoryOther
	}
	if !domain.ValidCategory(category) {
		return nil, apperrors.NewValidationError("invalid category", map[string]any{"category": category})
	}

	priority := input.Priority
	if priority == "" {
		priority = priorityFromExpectedDays(input.ExpectedResolutionDays)
	}
	if !domain.ValidPriority(priority) {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}

	now := time.Now()
	complaint := &domain.Complaint{
		CustomerID:       customer.ID,
		Title:            title,
		Description:      description,
		Category:         category,
		Priority:         priority,
		Status:           domain.ComplaintStatusOpen,
		SLADeadline:      sla.Deadline(priority, category, now),
		CanReopen:        true,
		ReopenWindowDays: s.cfg.ReopenWindowDays,
		Location:         strings.TrimSpace(input.Location),
		Pincode:          strings.TrimSpace(input.Pincode),
	}

	matched := s.triage.Apply(ctx, complaint)
	if matched != nil && complaint.Priority != priority {
		complaint.SLADeadline = sla.Deadline(complaint.Priority, complaint.Category, now)
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.complaints.Create(ctx, complaint); err != nil {
			return err
		}
		if err := s.timeline.Create(ctx, &domain.TimelineEntry{
			ComplaintID: complaint.ID,
			Action:      domain.ActionCreated,
			Description: "Complaint " + complaint.ComplaintNumber + " created",
			PerformedBy: &customer.ID,
		}); err != nil {
			return err
		}
		if matched != nil {
			if err := s.timeline.Create(ctx, &domain.TimelineEntry{
				ComplaintID: complaint.ID,
				Action:      domain.ActionAutoTriaged,
				Description: "Auto-triaged using rule: " + matched.Name,
				Metadata:    map[string]any{"rule_id": matched.ID, "rule_name": matched.Name},
			}); err != nil {
				return err
			}
		}
		if complaint.AssignedTo != nil {
			return s.users.ApplyAssignment(ctx, *complaint.AssignedTo)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:        events.EventComplaintCreated,
		ComplaintID: complaint.ID,
		Actor:       userActor(customer),
		Payload: events.ComplaintCreatedPayload{
			ComplaintNumber: complaint.ComplaintNumber,
			Category:        complaint.Category,
			Priority:        complaint.Priority,
			Title:           complaint.Title,
			SLADeadline:     complaint.SLADeadline,
		},
	})
	if complaint.AssignedTo != nil {
		publish(ctx, s.dispatcher, events.Event{
			Type:        events.EventComplaintAssigned,
			ComplaintID: complaint.ID,
			Actor:       events.Actor{System: true},
			Payload:     events.AssignedPayload{AgentID: *complaint.AssignedTo, Automatic: true},
		})
	} else if s.recommendations != nil {
		s.recommendations.ProcessNewComplaint(ctx, complaint)
	}
	return complaint, nil
}

// Get fetches a complaint enforcing viewer access.
func (s *ComplaintService) Get(ctx context.Context, viewer *domain.User, id string) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkViewAccess(viewer, complaint); err != nil {
		return nil, err
	}
	return complaint, nil
}

// List returns complaints visible to the viewer. Customers see their
// own, agents see their caseload, admins see everything.
func (s *ComplaintService) List(ctx context.Context, viewer *domain.User, input ComplaintListInput) ([]domain.Complaint, error) {
	filter := repository.ComplaintFilter{
		Statuses:    input.Statuses,
		Priorities:  input.Priorities,
		Categories:  input.Categories,
		SLABreached: input.SLABreached,
		SearchTerm:  input.SearchTerm,
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
		Limit:       input.Limit,
		Offset:      input.Offset,
	}
	switch viewer.Role {
	case domain.RoleCustomer:
		filter.CustomerID = &viewer.ID
	case domain.RoleAgent:
		filter.AssignedTo = &viewer.ID
	case domain.RoleAdmin:
		filter.Unassigned = input.Unassigned
	}
	return s.complaints.ListWithFilter(ctx, filter)
}

// Update applies role-gated field mutations. A priority change recomputes
// the SLA deadline and is recorded as its own lifecycle event.
func (s *ComplaintService) Update(ctx context.Context, viewer *domain.User, id string, input ComplaintUpdateInput) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkViewAccess(viewer, complaint); err != nil {
		return nil, err
	}

	if viewer.Role == domain.RoleCustomer {
		if complaint.Status != domain.ComplaintStatusOpen {
			return nil, apperrors.NewForbidden("customers may edit only open complaints")
		}
		if input.Priority != nil || input.Category != nil {
			return nil, apperrors.NewForbidden("customers may edit title and description only")
		}
	}
	if input.Priority != nil && viewer.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins may set priority")
	}

	var changes []string
	if input.Title != nil && strings.TrimSpace(*input.Title) != "" {
		complaint.Title = strings.TrimSpace(*input.Title)
		changes = append(changes, "title")
	}
	if input.Description != nil && strings.TrimSpace(*input.Description) != "" {
		complaint.Description = strings.TrimSpace(*input.Description)
		changes = append(changes, "description")
	}
	if input.Category != nil {
		if !domain.ValidCategory(*input.Category) {
			return nil, apperrors.NewValidationError("invalid category", map[string]any{"category": *input.Category})
		}
		complaint.Category = *input.Category
		changes = append(changes, "category")
	}

	var oldPriority domain.ComplaintPriority
	priorityChanged := false
	if input.Priority != nil && *input.Priority != complaint.Priority {
		if !domain.ValidPriority(*input.Priority) {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
		}
		oldPriority = complaint.Priority
		complaint.Priority = *input.Priority
		complaint.SLADeadline = sla.Deadline(complaint.Priority, complaint.Category, time.Now())
		priorityChanged = true
	}

	if len(changes) == 0 && !priorityChanged {
		return complaint, nil
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.complaints.Update(ctx, complaint); err != nil {
			return err
		}
		if len(changes) > 0 {
			if err := s.timeline.Create(ctx, &domain.TimelineEntry{
				ComplaintID: complaint.ID,
				Action:      domain.ActionUpdated,
				Description: "Updated: " + strings.Join(changes, ", "),
				PerformedBy: &viewer.ID,
			}); err != nil {
				return err
			}
		}
		if priorityChanged {
			return s.timeline.Create(ctx, &domain.TimelineEntry{
				ComplaintID: complaint.ID,
				Action:      domain.ActionPriorityUpdated,
				Description: fmt.Sprintf("Priority changed from %s to %s", oldPriority, complaint.Priority),
				PerformedBy: &viewer.ID,
				Metadata: map[string]any{
					"old_priority": oldPriority,
					"new_priority": complaint.Priority,
				},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if priorityChanged {
		publish(ctx, s.dispatcher, events.Event{
			Type:        events.EventComplaintPriorityChanged,
			ComplaintID: complaint.ID,
			Actor:       userActor(viewer),
			Payload: events.PriorityChangedPayload{
				OldPriority: oldPriority,
				NewPriority: complaint.Priority,
				SLADeadline: complaint.SLADeadline,
			},
		})
	}
	return complaint, nil
}

// Resolve transitions the complaint to RESOLVED and credits the assigned
// agent's resolved counter and running-mean resolution time.
func (s *ComplaintService) Resolve(ctx context.Context, actor *domain.User, id, notes string) (*domain.Complaint, error) {
	if actor.Role != domain.RoleAgent && actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only agents and admins may resolve complaints")
	}
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleAgent && (complaint.AssignedTo == nil || *complaint.AssignedTo != actor.ID) {
		return nil, apperrors.NewForbidden("agents may resolve only their assigned complaints")
	}
	if !complaint.CanResolve() {
		return nil, apperrors.NewConflict("complaint already resolved or closed", nil)
	}

	now := time.Now()
	oldStatus := complaint.Status
	wasActive := complaint.Status.IsActive()
	complaint.Status = domain.ComplaintStatusResolved
	complaint.ResolvedAt = &now
	complaint.ResolutionNotes = strings.TrimSpace(notes)

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.complaints.Update(ctx, complaint); err != nil {
			return err
		}
		if complaint.AssignedTo != nil && wasActive {
			hours := now.Sub(complaint.CreatedAt).Hours()
			if err := s.users.ApplyResolution(ctx, *complaint.AssignedTo, hours); err != nil {
				return err
			}
		}
		return s.timeline.Create(ctx, &domain.TimelineEntry{
			ComplaintID: complaint.ID,
			Action:      domain.ActionResolved,
			Description: "Complaint resolved",
			PerformedBy: &actor.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, complaint, actor, oldStatus, "")
	publish(ctx, s.dispatcher, events.Event{
		Type:        events.EventComplaintResolved,
		ComplaintID: complaint.ID,
		Actor:       userActor(actor),
	})
	return complaint, nil
}

// Close terminates the complaint. Permitted for admins, the owning
// customer, and the assigned agent.
func (s *ComplaintService) Close(ctx context.Context, actor *domain.User, id string) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTerminate(actor, complaint) {
		return nil, apperrors.NewForbidden("not allowed to close this complaint")
	}
	if complaint.Status == domain.ComplaintStatusClosed {
		return nil, apperrors.NewConflict("complaint already closed", nil)
	}

	now := time.Now()
	oldStatus := complaint.Status
	wasActive := complaint.Status.IsActive()
	complaint.Status = domain.ComplaintStatusClosed
	complaint.ClosedAt = &now

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.complaints.Update(ctx, complaint); err != nil {
			return err
		}
		if complaint.AssignedTo != nil && wasActive {
			if err := s.users.ApplyUnassignment(ctx, *complaint.AssignedTo); err != nil {
				return err
			}
		}
		return s.timeline.Create(ctx, &domain.TimelineEntry{
			ComplaintID: complaint.ID,
			Action:      domain.ActionClosed,
			Description: "Complaint closed",
			PerformedBy: &actor.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, complaint, actor, oldStatus, "")
	return complaint, nil
}

// Reopen moves a resolved or closed complaint back into the active
// lifecycle, subject to the reopen window.
func (s *ComplaintService) Reopen(ctx context.Context, actor *domain.User, id string) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin && complaint.CustomerID != actor.ID {
		return nil, apperrors.NewForbidden("not allowed to reopen this complaint")
	}
	if complaint.Status != domain.ComplaintStatusResolved && complaint.Status != domain.ComplaintStatusClosed {
		return nil, apperrors.NewConflict("only resolved or closed complaints can be reopened", nil)
	}
	if !complaint.CanReopen {
		return nil, apperrors.NewConflict("complaint cannot be reopened", nil)
	}
	now := time.Now()
	if !complaint.WithinReopenWindow(now) {
		return nil, apperrors.NewConflict("reopen window has elapsed", map[string]any{
			"reopen_window_days": complaint.ReopenWindowDays,
		})
	}

	oldStatus := complaint.Status
	wasResolved := complaint.ResolvedAt != nil
	complaint.Status = domain.ComplaintStatusReopened
	complaint.ResolvedAt = nil
	complaint.ClosedAt = nil
	complaint.ResolutionNotes = ""

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.complaints.Update(ctx, complaint); err != nil {
			return err
		}
		if complaint.AssignedTo != nil {
			if wasResolved {
				if err := s.users.ApplyReopen(ctx, *complaint.AssignedTo); err != nil {
					return err
				}
			} else if err := s.users.ApplyReactivation(ctx, *complaint.AssignedTo); err != nil {
				return err
			}
		}
		return s.timeline.Create(ctx, &domain.TimelineEntry{
			ComplaintID: complaint.ID,
			Action:      domain.ActionReopened,
			Description: "Complaint reopened",
			PerformedBy: &actor.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, complaint, actor, oldStatus, "")
	publish(ctx, s.dispatcher, events.Event{
		Type:        events.EventComplaintReopened,
		ComplaintID: complaint.ID,
		Actor:       userActor(actor),
	})
	return complaint, nil
}

// Delete hard-deletes a resolved complaint and its dependents. Admin only.
func (s *ComplaintService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("only admins may delete complaints")
	}
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if complaint.Status != domain.ComplaintStatusResolved {
		return apperrors.NewConflict("only resolved complaints can be deleted", nil)
	}
	return s.complaints.Delete(ctx, id)
}

// AddComment attaches a comment. Internal comments are staff only.
func (s *ComplaintService) AddComment(ctx context.Context, author *domain.User, complaintID, content string, isInternal bool) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("comment content is required", nil)
	}
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if err := s.checkViewAccess(author, complaint); err != nil {
		return nil, err
	}
	if isInternal && author.Role == domain.RoleCustomer {
		return nil, apperrors.NewForbidden("customers cannot post internal comments")
	}

	comment := &domain.Comment{
		ComplaintID: complaint.ID,
		UserID:      author.ID,
		Content:     content,
		IsInternal:  isInternal,
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.comments.Create(ctx, comment); err != nil {
			return err
		}
		return s.timeline.Create(ctx, &domain.TimelineEntry{
			ComplaintID: complaint.ID,
			Action:      domain.ActionCommented,
			Description: "Comment added",
			PerformedBy: &author.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:        events.EventCommentAdded,
		ComplaintID: complaint.ID,
		Actor:       userActor(author),
		Payload: events.CommentAddedPayload{
			CommentID:  comment.ID,
			AuthorID:   author.ID,
			IsInternal: comment.IsInternal,
		},
	})
	return comment, nil
}

// ListComments returns complaint comments visible to the viewer.
func (s *ComplaintService) ListComments(ctx context.Context, viewer *domain.User, complaintID string) ([]domain.Comment, error) {
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if err := s.checkViewAccess(viewer, complaint); err != nil {
		return nil, err
	}
	includeInternal := viewer.Role != domain.RoleCustomer
	return s.comments.ListByComplaint(ctx, complaintID, includeInternal)
}

// AddFeedback records the customer's one-time rating of the resolution.
func (s *ComplaintService) AddFeedback(ctx context.Context, actor *domain.User, complaintID string, input FeedbackInput) (*domain.Feedback, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", nil)
	}
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if complaint.CustomerID != actor.ID {
		return nil, apperrors.NewForbidden("only the complaint owner may leave feedback")
	}
	if complaint.Status != domain.ComplaintStatusResolved {
		return nil, apperrors.NewConflict("feedback requires a resolved complaint", nil)
	}
	if _, err := s.feedback.GetByComplaint(ctx, complaintID); err == nil {
		return nil, apperrors.NewConflict("feedback already submitted", nil)
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	feedback := &domain.Feedback{
		ComplaintID:           complaint.ID,
		Rating:                input.Rating,
		ProfessionalismRating: input.ProfessionalismRating,
		SpeedRating:           input.SpeedRating,
		Comment:               strings.TrimSpace(input.Comment),
	}
	feedback.ComputeAgentRating()

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.feedback.Create(ctx, feedback); err != nil {
			return err
		}
		if complaint.AssignedTo != nil {
			if err := s.users.RefreshPerformanceRating(ctx, *complaint.AssignedTo); err != nil {
				return err
			}
		}
		return s.timeline.Create(ctx, &domain.TimelineEntry{
			ComplaintID: complaint.ID,
			Action:      domain.ActionFeedbackAdded,
			Description: fmt.Sprintf("Feedback added with rating %d", feedback.Rating),
			PerformedBy: &actor.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return feedback, nil
}

// Timeline returns the complaint's history, newest first.
func (s *ComplaintService) Timeline(ctx context.Context, viewer *domain.User, complaintID string, limit int) ([]domain.TimelineEntry, error) {
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if err := s.checkViewAccess(viewer, complaint); err != nil {
		return nil, err
	}
	return s.timeline.ListByComplaint(ctx, complaintID, limit)
}

// AddAttachment records blob metadata for a complaint. Resolution proof
// is staff only and size-capped.
func (s *ComplaintService) AddAttachment(ctx context.Context, actor *domain.User, complaintID string, input AttachmentInput) (*domain.Attachment, error) {
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if err := s.checkViewAccess(actor, complaint); err != nil {
		return nil, err
	}
	if input.Type == domain.AttachmentTypeResolution {
		if actor.Role == domain.RoleCustomer {
			return nil, apperrors.NewForbidden("customers cannot upload resolution proof")
		}
		if input.FileSize > domain.MaxResolutionAttachmentBytes {
			return nil, apperrors.NewValidationError("resolution attachment exceeds size limit", map[string]any{
				"max_bytes": domain.MaxResolutionAttachmentBytes,
			})
		}
	}

	attachment := &domain.Attachment{
		ComplaintID:      complaint.ID,
		StorageKey:       input.StorageKey,
		OriginalFilename: input.OriginalFilename,
		FileSize:         input.FileSize,
		MimeType:         input.MimeType,
		Type:             input.Type,
		UploadedBy:       actor.ID,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		return nil, err
	}
	return attachment, nil
}

// ListAttachments returns attachment metadata for the complaint.
func (s *ComplaintService) ListAttachments(ctx context.Context, viewer *domain.User, complaintID string) ([]domain.Attachment, error) {
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if err := s.checkViewAccess(viewer, complaint); err != nil {
		return nil, err
	}
	return s.attachments.ListByComplaint(ctx, complaintID)
}

func (s *ComplaintService) checkViewAccess(viewer *domain.User, complaint *domain.Complaint) error {
	if viewer.Role == domain.RoleAdmin || viewer.Role == domain.RoleAgent {
		return nil
	}
	if complaint.CustomerID == viewer.ID {
		return nil
	}
	return apperrors.NewForbidden("access denied")
}

func (s *ComplaintService) publishStatusChange(ctx context.Context, complaint *domain.Complaint, actor *domain.User, oldStatus domain.ComplaintStatus, comment string) {
	publish(ctx, s.dispatcher, events.Event{
		Type:        events.EventComplaintStatusChanged,
		ComplaintID: complaint.ID,
		Actor:       userActor(actor),
		Payload: events.StatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: complaint.Status,
			Comment:   comment,
		},
	})
}

func canTerminate(actor *domain.User, complaint *domain.Complaint) bool {
	if actor.Role == domain.RoleAdmin {
		return true
	}
	if complaint.CustomerID == actor.ID {
		return true
	}
	return complaint.AssignedTo != nil && *complaint.AssignedTo == actor.ID
}

// priorityFromExpectedDays maps the customer's expected resolution time
// onto a priority when none was given.
func priorityFromExpectedDays(days *int) domain.ComplaintPriority {
	if days == nil {
		return domain.ComplaintPriorityMedium
	}
	switch {
	case *days <= 1:
		return domain.ComplaintPriorityCritical
	case *days <= 3:
		return domain.ComplaintPriorityHigh
	case *days <= 7:
		return domain.ComplaintPriorityMedium
	default:
		return domain.ComplaintPriorityLow
	}
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func userActor(user *domain.User) events.Actor {
	id := user.ID
	return events.Actor{Role: user.Role, UserID: &id}
}
