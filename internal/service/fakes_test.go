package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
)

type fakeTx struct{}

func (fakeTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, event := range d.events {
		out = append(out, event.Type)
	}
	return out
}

type fakeComplaintRepo struct {
	complaints map[string]*domain.Complaint
	nextNumber int
}

func newFakeComplaintRepo() *fakeComplaintRepo {
	return &fakeComplaintRepo{complaints: map[string]*domain.Complaint{}, nextNumber: 400001}
}

func (r *fakeComplaintRepo) add(complaint *domain.Complaint) *domain.Complaint {
	if complaint.ID == "" {
		complaint.ID = fmt.Sprintf("complaint-%d", len(r.complaints)+1)
	}
	if complaint.CreatedAt.IsZero() {
		complaint.CreatedAt = time.Now()
	}
	r.complaints[complaint.ID] = complaint
	return complaint
}

func (r *fakeComplaintRepo) Create(_ context.Context, complaint *domain.Complaint) error {
	complaint.ID = fmt.Sprintf("complaint-%d", len(r.complaints)+1)
	complaint.ComplaintNumber = fmt.Sprintf("TKT-%06d", r.nextNumber)
	r.nextNumber++
	complaint.CreatedAt = time.Now()
	complaint.UpdatedAt = complaint.CreatedAt
	copy := *complaint
	r.complaints[complaint.ID] = &copy
	return nil
}

func (r *fakeComplaintRepo) Update(_ context.Context, complaint *domain.Complaint) error {
	if _, ok := r.complaints[complaint.ID]; !ok {
		return pgx.ErrNoRows
	}
	copy := *complaint
	r.complaints[complaint.ID] = &copy
	return nil
}

func (r *fakeComplaintRepo) GetByID(_ context.Context, id string) (*domain.Complaint, error) {
	complaint, ok := r.complaints[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copy := *complaint
	return &copy, nil
}

func (r *fakeComplaintRepo) GetByNumber(_ context.Context, number string) (*domain.Complaint, error) {
	for _, complaint := range r.complaints {
		if complaint.ComplaintNumber == number {
			copy := *complaint
			return &copy, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeComplaintRepo) ListWithFilter(_ context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	var out []domain.Complaint
	for _, complaint := range r.complaints {
		if filter.CustomerID != nil && complaint.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.AssignedTo != nil && (complaint.AssignedTo == nil || *complaint.AssignedTo != *filter.AssignedTo) {
			continue
		}
		if filter.Unassigned && complaint.AssignedTo != nil {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, complaint.Status) {
			continue
		}
		out = append(out, *complaint)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeComplaintRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.complaints[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.complaints, id)
	return nil
}

func (r *fakeComplaintRepo) AssignIfUnassigned(_ context.Context, complaintID, agentID string) (*domain.Complaint, error) {
	complaint, ok := r.complaints[complaintID]
	if !ok || complaint.AssignedTo != nil {
		return nil, pgx.ErrNoRows
	}
	complaint.Assign(agentID)
	copy := *complaint
	return &copy, nil
}

func (r *fakeComplaintRepo) CountActiveByAgent(_ context.Context, agentID string) (int, error) {
	count := 0
	for _, complaint := range r.complaints {
		if complaint.AssignedTo != nil && *complaint.AssignedTo == agentID && complaint.Status.IsActive() {
			count++
		}
	}
	return count, nil
}

func (r *fakeComplaintRepo) CountResolvedInCategorySince(_ context.Context, agentID string, category domain.ComplaintCategory, since time.Time) (int, error) {
	count := 0
	for _, complaint := range r.complaints {
		if complaint.AssignedTo == nil || *complaint.AssignedTo != agentID {
			continue
		}
		if complaint.Category != category || complaint.Status != domain.ComplaintStatusResolved {
			continue
		}
		if complaint.ResolvedAt != nil && !complaint.ResolvedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeComplaintRepo) ListSLABreaches(_ context.Context, now time.Time) ([]domain.Complaint, error) {
	var out []domain.Complaint
	for _, complaint := range r.complaints {
		if complaint.SLABreached || !complaint.SLADeadline.Before(now) {
			continue
		}
		switch complaint.Status {
		case domain.ComplaintStatusOpen, domain.ComplaintStatusInProgress, domain.ComplaintStatusEscalated:
			out = append(out, *complaint)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SLADeadline.Before(out[j].SLADeadline) })
	return out, nil
}

func (r *fakeComplaintRepo) MarkSLABreached(_ context.Context, id string) (bool, error) {
	complaint, ok := r.complaints[id]
	if !ok {
		return false, pgx.ErrNoRows
	}
	if complaint.SLABreached {
		return false, nil
	}
	complaint.SLABreached = true
	return true, nil
}

func (r *fakeComplaintRepo) ListEscalatable(_ context.Context, category domain.ComplaintCategory, priority domain.ComplaintPriority, createdBefore time.Time) ([]domain.Complaint, error) {
	var out []domain.Complaint
	for _, complaint := range r.complaints {
		if complaint.Category != category || complaint.Priority != priority {
			continue
		}
		if !complaint.CreatedAt.Before(createdBefore) {
			continue
		}
		if complaint.Status == domain.ComplaintStatusOpen || complaint.Status == domain.ComplaintStatusInProgress {
			out = append(out, *complaint)
		}
	}
	return out, nil
}

func (r *fakeComplaintRepo) Escalate(_ context.Context, id string) (domain.ComplaintStatus, bool, error) {
	complaint, ok := r.complaints[id]
	if !ok {
		return "", false, pgx.ErrNoRows
	}
	old := complaint.Status
	if old != domain.ComplaintStatusOpen && old != domain.ComplaintStatusInProgress {
		return old, false, nil
	}
	complaint.Status = domain.ComplaintStatusEscalated
	return old, true, nil
}

func containsStatus(statuses []domain.ComplaintStatus, status domain.ComplaintStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]*domain.User{}}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(r.users)+1)
	}
	user.CreatedAt = time.Now()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ListAgents(_ context.Context, filter repository.AgentFilter) ([]domain.User, error) {
	var out []domain.User
	for _, user := range r.users {
		if user.Role != domain.RoleAgent {
			continue
		}
		if filter.OnlyVerified && !user.IsVerified {
			continue
		}
		if filter.OnlyAvailable && user.AgentStatus != domain.AgentStatusAvailable {
			continue
		}
		out = append(out, *user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) ApplyAssignment(_ context.Context, agentID string) error {
	agent, ok := r.users[agentID]
	if !ok {
		return pgx.ErrNoRows
	}
	agent.TotalAssigned++
	agent.CurrentActive++
	return nil
}

func (r *fakeUserRepo) ApplyUnassignment(_ context.Context, agentID string) error {
	agent, ok := r.users[agentID]
	if !ok {
		return pgx.ErrNoRows
	}
	if agent.CurrentActive > 0 {
		agent.CurrentActive--
	}
	return nil
}

func (r *fakeUserRepo) ApplyResolution(_ context.Context, agentID string, hours float64) error {
	agent, ok := r.users[agentID]
	if !ok {
		return pgx.ErrNoRows
	}
	if agent.CurrentActive > 0 {
		agent.CurrentActive--
	}
	agent.TotalResolved++
	agent.AvgResolutionHrs = (agent.AvgResolutionHrs*float64(agent.TotalResolved-1) + hours) / float64(agent.TotalResolved)
	return nil
}

func (r *fakeUserRepo) ApplyReopen(_ context.Context, agentID string) error {
	agent, ok := r.users[agentID]
	if !ok {
		return pgx.ErrNoRows
	}
	if agent.TotalResolved > 0 {
		agent.TotalResolved--
	}
	agent.CurrentActive++
	return nil
}

func (r *fakeUserRepo) ApplyReactivation(_ context.Context, agentID string) error {
	agent, ok := r.users[agentID]
	if !ok {
		return pgx.ErrNoRows
	}
	agent.CurrentActive++
	return nil
}

func (r *fakeUserRepo) RefreshPerformanceRating(_ context.Context, agentID string) error {
	if _, ok := r.users[agentID]; !ok {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *fakeUserRepo) SetAgentStatus(_ context.Context, agentID string, status domain.AgentStatus) error {
	agent, ok := r.users[agentID]
	if !ok {
		return pgx.ErrNoRows
	}
	agent.AgentStatus = status
	return nil
}

type fakeRequestRepo struct {
	requests map[string]*domain.AssignmentRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: map[string]*domain.AssignmentRequest{}}
}

func (r *fakeRequestRepo) Create(_ context.Context, request *domain.AssignmentRequest) error {
	request.ID = fmt.Sprintf("request-%d", len(r.requests)+1)
	request.CreatedAt = time.Now()
	copy := *request
	r.requests[request.ID] = &copy
	return nil
}

func (r *fakeRequestRepo) GetByID(_ context.Context, id string) (*domain.AssignmentRequest, error) {
	request, ok := r.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copy := *request
	return &copy, nil
}

func (r *fakeRequestRepo) Update(_ context.Context, request *domain.AssignmentRequest) error {
	if _, ok := r.requests[request.ID]; !ok {
		return pgx.ErrNoRows
	}
	copy := *request
	r.requests[request.ID] = &copy
	return nil
}

func (r *fakeRequestRepo) List(_ context.Context, filter repository.RequestFilter) ([]domain.AssignmentRequest, error) {
	var out []domain.AssignmentRequest
	for _, request := range r.requests {
		if filter.ComplaintID != nil && request.ComplaintID != *filter.ComplaintID {
			continue
		}
		if filter.AgentID != nil && request.AgentID != *filter.AgentID {
			continue
		}
		if filter.Direction != nil && request.Direction != *filter.Direction {
			continue
		}
		if len(filter.Statuses) > 0 {
			found := false
			for _, status := range filter.Statuses {
				if request.Status == status {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if filter.PendingOnly {
			if request.Status != domain.RequestStatusPending || request.Expired(filter.Now) {
				continue
			}
		}
		out = append(out, *request)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRequestRepo) HasPending(_ context.Context, complaintID, agentID string, direction domain.RequestDirection, now time.Time) (bool, error) {
	for _, request := range r.requests {
		if request.ComplaintID == complaintID && request.AgentID == agentID &&
			request.Direction == direction && request.Status == domain.RequestStatusPending &&
			!request.Expired(now) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRequestRepo) CancelPending(_ context.Context, complaintID, agentID string, direction domain.RequestDirection) (int64, error) {
	var cancelled int64
	for _, request := range r.requests {
		if request.ComplaintID == complaintID && request.AgentID == agentID &&
			request.Direction == direction && request.Status == domain.RequestStatusPending {
			request.Status = domain.RequestStatusCancelled
			cancelled++
		}
	}
	return cancelled, nil
}

func (r *fakeRequestRepo) ExpireOverdue(_ context.Context, now time.Time) (int64, error) {
	var expired int64
	for _, request := range r.requests {
		if request.Status == domain.RequestStatusPending && request.Expired(now) {
			request.Status = domain.RequestStatusExpired
			expired++
		}
	}
	return expired, nil
}

type fakeTimelineRepo struct {
	entries []domain.TimelineEntry
}

func (r *fakeTimelineRepo) Create(_ context.Context, entry *domain.TimelineEntry) error {
	entry.ID = fmt.Sprintf("timeline-%d", len(r.entries)+1)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeTimelineRepo) ListByComplaint(_ context.Context, complaintID string, _ int) ([]domain.TimelineEntry, error) {
	var out []domain.TimelineEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].ComplaintID == complaintID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

func (r *fakeTimelineRepo) actions(complaintID string) []domain.TimelineAction {
	var out []domain.TimelineAction
	for _, entry := range r.entries {
		if entry.ComplaintID == complaintID {
			out = append(out, entry.Action)
		}
	}
	return out
}

type fakeTriageRuleRepo struct {
	rules []domain.TriageRule
}

func (r *fakeTriageRuleRepo) Create(_ context.Context, rule *domain.TriageRule) error {
	rule.ID = fmt.Sprintf("rule-%d", len(r.rules)+1)
	rule.CreatedAt = time.Now()
	r.rules = append(r.rules, *rule)
	return nil
}

func (r *fakeTriageRuleRepo) GetByID(_ context.Context, id string) (*domain.TriageRule, error) {
	for i := range r.rules {
		if r.rules[i].ID == id {
			copy := r.rules[i]
			return &copy, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTriageRuleRepo) Update(_ context.Context, rule *domain.TriageRule) error {
	for i := range r.rules {
		if r.rules[i].ID == rule.ID {
			r.rules[i] = *rule
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeTriageRuleRepo) Delete(_ context.Context, id string) error {
	for i := range r.rules {
		if r.rules[i].ID == id {
			r.rules = append(r.rules[:i], r.rules[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeTriageRuleRepo) List(_ context.Context, activeOnly bool) ([]domain.TriageRule, error) {
	if !activeOnly {
		return append([]domain.TriageRule{}, r.rules...), nil
	}
	return r.ListActive(context.Background())
}

func (r *fakeTriageRuleRepo) ListActive(_ context.Context) ([]domain.TriageRule, error) {
	var out []domain.TriageRule
	for _, rule := range r.rules {
		if rule.IsActive {
			out = append(out, rule)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PriorityOrder != out[j].PriorityOrder {
			return out[i].PriorityOrder > out[j].PriorityOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

type failingTriageRuleRepo struct {
	fakeTriageRuleRepo
	err error
}

func (r *failingTriageRuleRepo) ListActive(context.Context) ([]domain.TriageRule, error) {
	return nil, r.err
}

type fakeEscalationRuleRepo struct {
	rules []domain.EscalationRule
}

func (r *fakeEscalationRuleRepo) Create(_ context.Context, rule *domain.EscalationRule) error {
	rule.ID = fmt.Sprintf("escalation-%d", len(r.rules)+1)
	rule.CreatedAt = time.Now()
	r.rules = append(r.rules, *rule)
	return nil
}

func (r *fakeEscalationRuleRepo) Update(_ context.Context, rule *domain.EscalationRule) error {
	for i := range r.rules {
		if r.rules[i].ID == rule.ID {
			r.rules[i] = *rule
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeEscalationRuleRepo) Delete(_ context.Context, id string) error {
	for i := range r.rules {
		if r.rules[i].ID == id {
			r.rules = append(r.rules[:i], r.rules[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeEscalationRuleRepo) List(_ context.Context, activeOnly bool) ([]domain.EscalationRule, error) {
	if !activeOnly {
		return append([]domain.EscalationRule{}, r.rules...), nil
	}
	return r.ListActive(context.Background())
}

func (r *fakeEscalationRuleRepo) ListActive(_ context.Context) ([]domain.EscalationRule, error) {
	var out []domain.EscalationRule
	for _, rule := range r.rules {
		if rule.IsActive {
			out = append(out, rule)
		}
	}
	return out, nil
}

type fakeCommentRepo struct {
	comments []domain.Comment
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	comment.ID = fmt.Sprintf("comment-%d", len(r.comments)+1)
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = comment.CreatedAt
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByComplaint(_ context.Context, complaintID string, includeInternal bool) ([]domain.Comment, error) {
	var out []domain.Comment
	for _, comment := range r.comments {
		if comment.ComplaintID != complaintID {
			continue
		}
		if comment.IsInternal && !includeInternal {
			continue
		}
		out = append(out, comment)
	}
	return out, nil
}

type fakeAttachmentRepo struct {
	attachments []domain.Attachment
}

func (r *fakeAttachmentRepo) Create(_ context.Context, attachment *domain.Attachment) error {
	attachment.ID = fmt.Sprintf("attachment-%d", len(r.attachments)+1)
	attachment.UploadedAt = time.Now()
	r.attachments = append(r.attachments, *attachment)
	return nil
}

func (r *fakeAttachmentRepo) GetByID(_ context.Context, id string) (*domain.Attachment, error) {
	for i := range r.attachments {
		if r.attachments[i].ID == id {
			copy := r.attachments[i]
			return &copy, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAttachmentRepo) ListByComplaint(_ context.Context, complaintID string) ([]domain.Attachment, error) {
	var out []domain.Attachment
	for _, attachment := range r.attachments {
		if attachment.ComplaintID == complaintID {
			out = append(out, attachment)
		}
	}
	return out, nil
}

func (r *fakeAttachmentRepo) Delete(_ context.Context, id string) error {
	for i := range r.attachments {
		if r.attachments[i].ID == id {
			r.attachments = append(r.attachments[:i], r.attachments[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeFeedbackRepo struct {
	feedback map[string]*domain.Feedback
}

func newFakeFeedbackRepo() *fakeFeedbackRepo {
	return &fakeFeedbackRepo{feedback: map[string]*domain.Feedback{}}
}

func (r *fakeFeedbackRepo) Create(_ context.Context, feedback *domain.Feedback) error {
	feedback.ID = fmt.Sprintf("feedback-%d", len(r.feedback)+1)
	feedback.CreatedAt = time.Now()
	copy := *feedback
	r.feedback[feedback.ComplaintID] = &copy
	return nil
}

func (r *fakeFeedbackRepo) GetByComplaint(_ context.Context, complaintID string) (*domain.Feedback, error) {
	feedback, ok := r.feedback[complaintID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copy := *feedback
	return &copy, nil
}
