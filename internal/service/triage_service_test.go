package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
)

func strPtr(s string) *string { return &s }

func categoryPtr(c domain.ComplaintCategory) *domain.ComplaintCategory { return &c }

func priorityPtr(p domain.ComplaintPriority) *domain.ComplaintPriority { return &p }

func TestTriageFirstMatchWins(t *testing.T) {
	rules := &fakeTriageRuleRepo{}
	users := newFakeUserRepo()
	ctx := context.Background()

	require.NoError(t, rules.Create(ctx, &domain.TriageRule{
		Name:          "billing catch-all",
		Category:      categoryPtr(domain.CategoryBilling),
		Priority:      priorityPtr(domain.ComplaintPriorityLow),
		IsActive:      true,
		PriorityOrder: 1,
	}))
	require.NoError(t, rules.Create(ctx, &domain.TriageRule{
		Name:          "billing urgent",
		Category:      categoryPtr(domain.CategoryBilling),
		IsActive:      true,
		PriorityOrder: 10,
	}))

	svc := NewTriageService(rules, users, zap.NewNop())
	complaint := &domain.Complaint{
		Title:       "Wrong invoice amount",
		Description: "Charged twice",
		Category:    domain.CategoryBilling,
		Priority:    domain.ComplaintPriorityMedium,
		Status:      domain.ComplaintStatusOpen,
	}

	matched := svc.Apply(ctx, complaint)
	require.NotNil(t, matched)
	assert.Equal(t, "billing urgent", matched.Name)
	assert.True(t, complaint.AutoTriaged)
	// Priority untouched: the winning rule carries no priority override.
	assert.Equal(t, domain.ComplaintPriorityMedium, complaint.Priority)
}

func TestTriagePriorityFilterAndOverride(t *testing.T) {
	rules := &fakeTriageRuleRepo{}
	ctx := context.Background()

	require.NoError(t, rules.Create(ctx, &domain.TriageRule{
		Name:          "escalate critical electronics",
		Category:      categoryPtr(domain.CategoryElectronics),
		Priority:      priorityPtr(domain.ComplaintPriorityCritical),
		IsActive:      true,
		PriorityOrder: 5,
	}))

	svc := NewTriageService(rules, newFakeUserRepo(), zap.NewNop())

	mismatch := &domain.Complaint{
		Title:    "Broken TV",
		Category: domain.CategoryElectronics,
		Priority: domain.ComplaintPriorityLow,
	}
	assert.Nil(t, svc.Apply(ctx, mismatch))
	assert.False(t, mismatch.AutoTriaged)

	match := &domain.Complaint{
		Title:    "Broken TV",
		Category: domain.CategoryElectronics,
		Priority: domain.ComplaintPriorityCritical,
	}
	matched := svc.Apply(ctx, match)
	require.NotNil(t, matched)
	assert.Equal(t, domain.ComplaintPriorityCritical, match.Priority)
}

func TestTriageKeywordMatchingIsCaseInsensitive(t *testing.T) {
	rules := &fakeTriageRuleRepo{}
	ctx := context.Background()

	require.NoError(t, rules.Create(ctx, &domain.TriageRule{
		Name:            "leak detector",
		KeywordPatterns: []string{"LEAK", "flood"},
		Priority:        priorityPtr(domain.ComplaintPriorityHigh),
		IsActive:        true,
	}))

	svc := NewTriageService(rules, newFakeUserRepo(), zap.NewNop())

	complaint := &domain.Complaint{
		Title:       "Kitchen issue",
		Description: "Water is leaking under the sink",
		Category:    domain.CategoryPlumbing,
		Priority:    domain.ComplaintPriorityMedium,
	}
	matched := svc.Apply(ctx, complaint)
	require.NotNil(t, matched)
	assert.Equal(t, domain.ComplaintPriorityHigh, complaint.Priority)

	miss := &domain.Complaint{
		Title:       "Dripping tap",
		Description: "Slow drip in bathroom",
		Category:    domain.CategoryPlumbing,
		Priority:    domain.ComplaintPriorityMedium,
	}
	assert.Nil(t, svc.Apply(ctx, miss))
}

func TestTriageAutoAssignsToAgent(t *testing.T) {
	rules := &fakeTriageRuleRepo{}
	agent := &domain.User{ID: "agent-1", Name: "Asha", Role: domain.RoleAgent}
	users := newFakeUserRepo(agent)
	ctx := context.Background()

	require.NoError(t, rules.Create(ctx, &domain.TriageRule{
		Name:         "route electrical",
		Category:     categoryPtr(domain.CategoryElectrical),
		AutoAssignTo: strPtr("agent-1"),
		IsActive:     true,
	}))

	svc := NewTriageService(rules, users, zap.NewNop())
	complaint := &domain.Complaint{
		Title:    "Sparking socket",
		Category: domain.CategoryElectrical,
		Priority: domain.ComplaintPriorityHigh,
		Status:   domain.ComplaintStatusOpen,
	}

	matched := svc.Apply(ctx, complaint)
	require.NotNil(t, matched)
	require.NotNil(t, complaint.AssignedTo)
	assert.Equal(t, "agent-1", *complaint.AssignedTo)
	assert.Equal(t, domain.ComplaintStatusInProgress, complaint.Status)
}

func TestTriageSkipsUnusableAssignee(t *testing.T) {
	rules := &fakeTriageRuleRepo{}
	customer := &domain.User{ID: "customer-1", Role: domain.RoleCustomer}
	users := newFakeUserRepo(customer)
	ctx := context.Background()

	require.NoError(t, rules.Create(ctx, &domain.TriageRule{
		Name:         "bad target",
		Category:     categoryPtr(domain.CategoryService),
		AutoAssignTo: strPtr("customer-1"),
		IsActive:     true,
	}))

	svc := NewTriageService(rules, users, zap.NewNop())
	complaint := &domain.Complaint{
		Title:    "Rude support call",
		Category: domain.CategoryService,
		Priority: domain.ComplaintPriorityMedium,
		Status:   domain.ComplaintStatusOpen,
	}

	matched := svc.Apply(ctx, complaint)
	require.NotNil(t, matched)
	assert.Nil(t, complaint.AssignedTo)
	assert.Equal(t, domain.ComplaintStatusOpen, complaint.Status)
	assert.True(t, complaint.AutoTriaged)
}

func TestTriageIgnoresInactiveRules(t *testing.T) {
	rules := &fakeTriageRuleRepo{}
	ctx := context.Background()

	require.NoError(t, rules.Create(ctx, &domain.TriageRule{
		Name:     "disabled",
		Category: categoryPtr(domain.CategoryOther),
		IsActive: false,
	}))

	svc := NewTriageService(rules, newFakeUserRepo(), zap.NewNop())
	complaint := &domain.Complaint{Title: "x", Category: domain.CategoryOther, Priority: domain.ComplaintPriorityLow}
	assert.Nil(t, svc.Apply(ctx, complaint))
}

func TestTriageDegradesOnLookupFailure(t *testing.T) {
	rules := &failingTriageRuleRepo{err: errors.New("connection refused")}
	svc := NewTriageService(rules, newFakeUserRepo(), zap.NewNop())

	complaint := &domain.Complaint{
		Title:    "Anything",
		Category: domain.CategoryOther,
		Priority: domain.ComplaintPriorityMedium,
	}
	assert.Nil(t, svc.Apply(context.Background(), complaint))
	assert.False(t, complaint.AutoTriaged)
}
