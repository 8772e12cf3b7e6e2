package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/persistence"
)

// TriageRuleRepository manages triage rule persistence.
type TriageRuleRepository interface {
	Create(ctx context.Context, rule *domain.TriageRule) error
	GetByID(ctx context.Context, id string) (*domain.TriageRule, error)
	Update(ctx context.Context, rule *domain.TriageRule) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, activeOnly bool) ([]domain.TriageRule, error)
	// ListActive returns active rules in evaluation order: priority_order
	// descending, name ascending as the tiebreak.
	ListActive(ctx context.Context) ([]domain.TriageRule, error)
}

type triageRuleRepository struct {
	pool *pgxpool.Pool
}

// NewTriageRuleRepository instantiates repository.
func NewTriageRuleRepository(pool *pgxpool.Pool) TriageRuleRepository {
	return &triageRuleRepository{pool: pool}
}

func (r *triageRuleRepository) q(ctx context.Context) persistence.Querier {
	return persistence.QuerierFrom(ctx, r.pool)
}

const triageRuleColumns = `id, name, category, priority, keyword_patterns, auto_assign_to,
    is_active, priority_order, created_at`

func (r *triageRuleRepository) Create(ctx context.Context, rule *domain.TriageRule) error {
	const query = `
        INSERT INTO triage_rules (name, category, priority, keyword_patterns, auto_assign_to,
            is_active, priority_order)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.q(ctx).QueryRow(ctx, query,
		rule.Name,
		rule.Category,
		rule.Priority,
		rule.KeywordPatterns,
		rule.AutoAssignTo,
		rule.IsActive,
		rule.PriorityOrder,
	).Scan(&rule.ID, &rule.CreatedAt)
}

func (r *triageRuleRepository) GetByID(ctx context.Context, id string) (*domain.TriageRule, error) {
	var rule domain.TriageRule
	err := scanTriageRule(r.q(ctx).QueryRow(ctx, `SELECT `+triageRuleColumns+` FROM triage_rules WHERE id=$1`, id), &rule)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *triageRuleRepository) Update(ctx context.Context, rule *domain.TriageRule) error {
	const query = `
        UPDATE triage_rules SET name=$1, category=$2, priority=$3, keyword_patterns=$4,
            auto_assign_to=$5, is_active=$6, priority_order=$7
        WHERE id=$8`
	cmd, err := r.q(ctx).Exec(ctx, query,
		rule.Name,
		rule.Category,
		rule.Priority,
		rule.KeywordPatterns,
		rule.AutoAssignTo,
		rule.IsActive,
		rule.PriorityOrder,
		rule.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *triageRuleRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.q(ctx).Exec(ctx, `DELETE FROM triage_rules WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *triageRuleRepository) List(ctx context.Context, activeOnly bool) ([]domain.TriageRule, error) {
	query := `SELECT ` + triageRuleColumns + ` FROM triage_rules`
	if activeOnly {
		query += ` WHERE is_active=TRUE`
	}
	query += ` ORDER BY priority_order DESC, name ASC`
	rows, err := r.q(ctx).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rules []domain.TriageRule
	for rows.Next() {
		var rule domain.TriageRule
		if err := scanTriageRule(rows, &rule); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *triageRuleRepository) ListActive(ctx context.Context) ([]domain.TriageRule, error) {
	return r.List(ctx, true)
}

func scanTriageRule(row pgx.Row, rule *domain.TriageRule) error {
	return row.Scan(
		&rule.ID,
		&rule.Name,
		&rule.Category,
		&rule.Priority,
		&rule.KeywordPatterns,
		&rule.AutoAssignTo,
		&rule.IsActive,
		&rule.PriorityOrder,
		&rule.CreatedAt,
	)
}

// EscalationRuleRepository manages escalation rule persistence.
type EscalationRuleRepository interface {
	Create(ctx context.Context, rule *domain.EscalationRule) error
	Update(ctx context.Context, rule *domain.EscalationRule) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, activeOnly bool) ([]domain.EscalationRule, error)
	ListActive(ctx context.Context) ([]domain.EscalationRule, error)
}

type escalationRuleRepository struct {
	pool *pgxpool.Pool
}

// NewEscalationRuleRepository instantiates repository.
func NewEscalationRuleRepository(pool *pgxpool.Pool) EscalationRuleRepository {
	return &escalationRuleRepository{pool: pool}
}

func (r *escalationRuleRepository) q(ctx context.Context) persistence.Querier {
	return persistence.QuerierFrom(ctx, r.pool)
}

const escalationRuleColumns = `id, category, priority, escalation_time_hours, is_active, created_at`

func (r *escalationRuleRepository) Create(ctx context.Context, rule *domain.EscalationRule) error {
	const query = `
        INSERT INTO escalation_rules (category, priority, escalation_time_hours, is_active)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.q(ctx).QueryRow(ctx, query,
		rule.Category,
		rule.Priority,
		rule.EscalationTimeHours,
		rule.IsActive,
	).Scan(&rule.ID, &rule.CreatedAt)
}

func (r *escalationRuleRepository) Update(ctx context.Context, rule *domain.EscalationRule) error {
	const query = `
        UPDATE escalation_rules SET category=$1, priority=$2, escalation_time_hours=$3, is_active=$4
        WHERE id=$5`
	cmd, err := r.q(ctx).Exec(ctx, query,
		rule.Category,
		rule.Priority,
		rule.EscalationTimeHours,
		rule.IsActive,
		rule.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *escalationRuleRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.q(ctx).Exec(ctx, `DELETE FROM escalation_rules WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *escalationRuleRepository) List(ctx context.Context, activeOnly bool) ([]domain.EscalationRule, error) {
	query := `SELECT ` + escalationRuleColumns + ` FROM escalation_rules`
	if activeOnly {
		query += ` WHERE is_active=TRUE`
	}
	query += ` ORDER BY created_at ASC`
	rows, err := r.q(ctx).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rules []domain.EscalationRule
	for rows.Next() {
		var rule domain.EscalationRule
		if err := rows.Scan(
			&rule.ID,
			&rule.Category,
			&rule.Priority,
			&rule.EscalationTimeHours,
			&rule.IsActive,
			&rule.CreatedAt,
		); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *escalationRuleRepository) ListActive(ctx context.Context) ([]domain.EscalationRule, error) {
	return r.List(ctx, true)
}
