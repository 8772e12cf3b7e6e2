package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// SweeperService runs the periodic maintenance sweeps: SLA breach
// flagging, rule-driven escalation, and assignment request expiry.
// Each sweep is idempotent; the per-row conditional updates make a
// second pass over the same data a no-op.
type SweeperService struct {
	complaints repository.ComplaintRepository
	rules      repository.EscalationRuleRepository
	requests   repository.AssignmentRequestRepository
	timeline   repository.TimelineRepository
	tx         persistence.TxRunner
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// SweeperDependencies bundles collaborators for the sweeper.
type SweeperDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	RuleRepo      repository.EscalationRuleRepository
	RequestRepo   repository.AssignmentRequestRepository
	TimelineRepo  repository.TimelineRepository
	Tx            persistence.TxRunner
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
}

// NewSweeperService constructs the service.
func NewSweeperService(deps SweeperDependencies) *SweeperService {
	return &SweeperService{
		complaints: deps.ComplaintRepo,
		rules:      deps.RuleRepo,
		requests:   deps.RequestRepo,
		timeline:   deps.TimelineRepo,
		tx:         deps.Tx,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// Run executes all sweeps once. Errors are logged per sweep so one
// failing sweep never starves the others.
func (s *SweeperService) Run(ctx context.Context) {
	now := time.Now()
	if err := s.SweepSLABreaches(ctx, now); err != nil {
		s.logger.Error("sla breach sweep failed", zap.Error(err))
	}
	if err := s.SweepEscalations(ctx, now); err != nil {
		s.logger.Error("escalation sweep failed", zap.Error(err))
	}
	if err := s.SweepExpiredRequests(ctx, now); err != nil {
		s.logger.Error("request expiry sweep failed", zap.Error(err))
	}
}

// SweepSLABreaches flips sla_breached on overdue unresolved complaints.
// The flag is one-way; the conditional update guarantees exactly one
// breach event per complaint no matter how often the sweep runs.
func (s *SweeperService) SweepSLABreaches(ctx context.Context, now time.Time) error {
	overdue, err := s.complaints.ListSLABreaches(ctx, now)
	if err != nil {
		return err
	}

	flagged := 0
	for i := range overdue {
		complaint := &overdue[i]
		err := s.tx.InTx(ctx, func(ctx context.Context) error {
			applied, err := s.complaints.MarkSLABreached(ctx, complaint.ID)
			if err != nil {
				return err
			}
			if !applied {
				return nil
			}
			flagged++
			return s.timeline.Create(ctx, &domain.TimelineEntry{
				ComplaintID: complaint.ID,
				Action:      domain.ActionSLABreached,
				Description: "SLA deadline missed",
				Metadata:    map[string]any{"sla_deadline": complaint.SLADeadline},
			})
		})
		if err != nil {
			s.logger.Error("failed to flag sla breach", zap.String("complaint_id", complaint.ID), zap.Error(err))
			continue
		}
		publish(ctx, s.dispatcher, events.Event{
			Type:        events.EventSLABreached,
			ComplaintID: complaint.ID,
			Actor:       events.Actor{System: true},
			Payload: events.SLABreachedPayload{
				ComplaintNumber: complaint.ComplaintNumber,
				SLADeadline:     complaint.SLADeadline,
			},
		})
	}

	s.metrics.RecordSweep("sla_breach", flagged)
	if flagged > 0 {
		s.logger.Info("sla breach sweep completed", zap.Int("flagged", flagged))
	}
	return nil
}

// SweepEscalations force-transitions aged complaints to ESCALATED per
// the active escalation rules.
func (s *SweeperService) SweepEscalations(ctx context.Context, now time.Time) error {
	rules, err := s.rules.ListActive(ctx)
	if err != nil {
		return err
	}

	escalated := 0
	for i := range rules {
		rule := &rules[i]
		cutoff := now.Add(-time.Duration(rule.EscalationTimeHours) * time.Hour)
		candidates, err := s.complaints.ListEscalatable(ctx, rule.Category, rule.Priority, cutoff)
		if err != nil {
			s.logger.Error("escalation candidate lookup failed", zap.String("rule_id", rule.ID), zap.Error(err))
			continue
		}
		for j := range candidates {
			complaint := &candidates[j]
			var oldStatus domain.ComplaintStatus
			applied := false
			err := s.tx.InTx(ctx, func(ctx context.Context) error {
				old, ok, err := s.complaints.Escalate(ctx, complaint.ID)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				oldStatus, applied = old, true
				escalated++
				return s.timeline.Create(ctx, &domain.TimelineEntry{
					ComplaintID: complaint.ID,
					Action:      domain.ActionAutoEscalated,
					Description: "Auto-escalated after exceeding time threshold",
					Metadata: map[string]any{
						"rule_id":               rule.ID,
						"escalation_time_hours": rule.EscalationTimeHours,
					},
				})
			})
			if err != nil {
				s.logger.Error("failed to escalate complaint", zap.String("complaint_id", complaint.ID), zap.Error(err))
				continue
			}
			if !applied {
				continue
			}
			publish(ctx, s.dispatcher, events.Event{
				Type:        events.EventComplaintEscalated,
				ComplaintID: complaint.ID,
				Actor:       events.Actor{System: true},
				Payload: events.EscalatedPayload{
					RuleID:    rule.ID,
					OldStatus: oldStatus,
				},
			})
		}
	}

	s.metrics.RecordSweep("escalation", escalated)
	if escalated > 0 {
		s.logger.Info("escalation sweep completed", zap.Int("escalated", escalated))
	}
	return nil
}

// SweepExpiredRequests marks pending requests whose TTL elapsed without
// a response as EXPIRED.
func (s *SweeperService) SweepExpiredRequests(ctx context.Context, now time.Time) error {
	expired, err := s.requests.ExpireOverdue(ctx, now)
	if err != nil {
		return err
	}
	s.metrics.RecordSweep("request_expiry", int(expired))
	if expired > 0 {
		s.logger.Info("request expiry sweep completed", zap.Int64("expired", expired))
	}
	return nil
}
