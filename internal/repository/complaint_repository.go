package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/persistence"
)

// ComplaintFilter captures listing parameters.
type ComplaintFilter struct {
	CustomerID  *string
	AssignedTo  *string
	Unassigned  bool
	Statuses    []domain.ComplaintStatus
	Priorities  []domain.ComplaintPriority
	Categories  []domain.ComplaintCategory
	SLABreached *bool
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// ComplaintRepository encapsulates complaint persistence.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	Update(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	GetByNumber(ctx context.Context, number string) (*domain.Complaint, error)
	ListWithFilter(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
	Delete(ctx context.Context, id string) error

	// AssignIfUnassigned atomically binds the agent and couples status,
	// failing with pgx.ErrNoRows when another request won the race.
	AssignIfUnassigned(ctx context.Context, complaintID, agentID string) (*domain.Complaint, error)

	CountActiveByAgent(ctx context.Context, agentID string) (int, error)
	CountResolvedInCategorySince(ctx context.Context, agentID string, category domain.ComplaintCategory, since time.Time) (int, error)

	ListSLABreaches(ctx context.Context, now time.Time) ([]domain.Complaint, error)
	MarkSLABreached(ctx context.Context, id string) (bool, error)
	ListEscalatable(ctx context.Context, category domain.ComplaintCategory, priority domain.ComplaintPriority, createdBefore time.Time) ([]domain.Complaint, error)
	Escalate(ctx context.Context, id string) (domain.ComplaintStatus, bool, error)
}

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository instantiates repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

func (r *complaintRepository) q(ctx context.Context) persistence.Querier {
	return persistence.QuerierFrom(ctx, r.pool)
}

const complaintColumns = `id, complaint_number, customer_id, assigned_to, title, description,
    category, priority, status, sla_deadline, sla_breached, resolved_at, closed_at,
    resolution_notes, can_reopen, reopen_window_days, location, pincode, auto_triaged,
    created_at, updated_at`

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	// The number comes from a dedicated sequence, never from reading the
	// current maximum: concurrent creations each get a distinct value.
	const query = `
        INSERT INTO complaints (complaint_number, customer_id, assigned_to, title, description,
            category, priority, status, sla_deadline, sla_breached, resolution_notes,
            can_reopen, reopen_window_days, location, pincode, auto_triaged)
        VALUES ('TKT-' || LPAD(nextval('complaint_number_seq')::text, 6, '0'),
            $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        RETURNING id, complaint_number, created_at, updated_at`
	return r.q(ctx).QueryRow(ctx, query,
		complaint.CustomerID,
		complaint.AssignedTo,
		complaint.Title,
		complaint.Description,
		complaint.Category,
		complaint.Priority,
		complaint.Status,
		complaint.SLADeadline,
		complaint.SLABreached,
		complaint.ResolutionNotes,
		complaint.CanReopen,
		complaint.ReopenWindowDays,
		complaint.Location,
		complaint.Pincode,
		complaint.AutoTriaged,
	).Scan(&complaint.ID, &complaint.ComplaintNumber, &complaint.CreatedAt, &complaint.UpdatedAt)
}

func (r *complaintRepository) Update(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        UPDATE complaints SET assigned_to=$1, title=$2, description=$3, category=$4, priority=$5,
            status=$6, sla_deadline=$7, sla_breached=$8, resolved_at=$9, closed_at=$10,
            resolution_notes=$11, can_reopen=$12, reopen_window_days=$13, auto_triaged=$14,
            updated_at=NOW()
        WHERE id=$15`
	cmd, err := r.q(ctx).Exec(ctx, query,
		complaint.AssignedTo,
		complaint.Title,
		complaint.Description,
		complaint.Category,
		complaint.Priority,
		complaint.Status,
		complaint.SLADeadline,
		complaint.SLABreached,
		complaint.ResolvedAt,
		complaint.ClosedAt,
		complaint.ResolutionNotes,
		complaint.CanReopen,
		complaint.ReopenWindowDays,
		complaint.AutoTriaged,
		complaint.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE id=$1`, complaintColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *complaintRepository) GetByNumber(ctx context.Context, number string) (*domain.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE complaint_number=$1`, complaintColumns)
	return r.fetchSingle(ctx, query, number)
}

func (r *complaintRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Complaint, error) {
	var complaint domain.Complaint
	if err := scanComplaint(r.q(ctx).QueryRow(ctx, query, arg), &complaint); err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *complaintRepository) AssignIfUnassigned(ctx context.Context, complaintID, agentID string) (*domain.Complaint, error) {
	// Status coupling mirrors domain.Complaint.Assign; the IS NULL guard
	// serializes competing assignment paths on the row itself.
	query := fmt.Sprintf(`
        UPDATE complaints
        SET assigned_to=$1,
            status=CASE WHEN status='OPEN' THEN 'IN_PROGRESS' ELSE status END,
            updated_at=NOW()
        WHERE id=$2 AND assigned_to IS NULL
        RETURNING %s`, complaintColumns)
	var complaint domain.Complaint
	if err := scanComplaint(r.q(ctx).QueryRow(ctx, query, agentID, complaintID), &complaint); err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *complaintRepository) CountActiveByAgent(ctx context.Context, agentID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM complaints
        WHERE assigned_to=$1 AND status = ANY($2)`
	var count int
	err := r.q(ctx).QueryRow(ctx, query, agentID, statusStrings(domain.ActiveStatuses)).Scan(&count)
	return count, err
}

func (r *complaintRepository) CountResolvedInCategorySince(ctx context.Context, agentID string, category domain.ComplaintCategory, since time.Time) (int, error) {
	const query = `
        SELECT COUNT(*) FROM complaints
        WHERE assigned_to=$1 AND category=$2 AND status='RESOLVED' AND resolved_at >= $3`
	var count int
	err := r.q(ctx).QueryRow(ctx, query, agentID, category, since).Scan(&count)
	return count, err
}

func (r *complaintRepository) ListSLABreaches(ctx context.Context, now time.Time) ([]domain.Complaint, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM complaints
        WHERE sla_deadline < $1
          AND status IN ('OPEN','IN_PROGRESS','ESCALATED')
          AND sla_breached = FALSE
        ORDER BY sla_deadline ASC`, complaintColumns)
	rows, err := r.q(ctx).Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func (r *complaintRepository) MarkSLABreached(ctx context.Context, id string) (bool, error) {
	// The sla_breached guard makes the breach sweep idempotent.
	const query = `
        UPDATE complaints SET sla_breached=TRUE, updated_at=NOW()
        WHERE id=$1 AND sla_breached=FALSE`
	cmd, err := r.q(ctx).Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *complaintRepository) ListEscalatable(ctx context.Context, category domain.ComplaintCategory, priority domain.ComplaintPriority, createdBefore time.Time) ([]domain.Complaint, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM complaints
        WHERE category=$1 AND priority=$2 AND created_at < $3
          AND status IN ('OPEN','IN_PROGRESS')
        ORDER BY created_at ASC`, complaintColumns)
	rows, err := r.q(ctx).Query(ctx, query, category, priority, createdBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func (r *complaintRepository) Escalate(ctx context.Context, id string) (domain.ComplaintStatus, bool, error) {
	var old domain.ComplaintStatus
	if err := r.q(ctx).QueryRow(ctx, `SELECT status FROM complaints WHERE id=$1`, id).Scan(&old); err != nil {
		return "", false, err
	}
	// The status filter keeps an already-ESCALATED complaint from being
	// escalated twice when sweeps overlap a user transition.
	cmd, err := r.q(ctx).Exec(ctx, `
        UPDATE complaints SET status='ESCALATED', updated_at=NOW()
        WHERE id=$1 AND status IN ('OPEN','IN_PROGRESS')`, id)
	if err != nil {
		return old, false, err
	}
	return old, cmd.RowsAffected() > 0, nil
}

func (r *complaintRepository) Delete(ctx context.Context, id string) error {
	// Comments, attachments, timeline and feedback cascade via FKs.
	cmd, err := r.q(ctx).Exec(ctx, `DELETE FROM complaints WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *complaintRepository) ListWithFilter(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	base := fmt.Sprintf(`SELECT %s FROM complaints`, complaintColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.Unassigned {
		clauses = append(clauses, "assigned_to IS NULL")
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, cat := range filter.Categories {
			args = append(args, cat)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SLABreached != nil {
		args = append(args, *filter.SLABreached)
		clauses = append(clauses, fmt.Sprintf("sla_breached=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s OR LOWER(complaint_number) LIKE %s)", placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func scanComplaint(row pgx.Row, complaint *domain.Complaint) error {
	return row.Scan(
		&complaint.ID,
		&complaint.ComplaintNumber,
		&complaint.CustomerID,
		&complaint.AssignedTo,
		&complaint.Title,
		&complaint.Description,
		&complaint.Category,
		&complaint.Priority,
		&complaint.Status,
		&complaint.SLADeadline,
		&complaint.SLABreached,
		&complaint.ResolvedAt,
		&complaint.ClosedAt,
		&complaint.ResolutionNotes,
		&complaint.CanReopen,
		&complaint.ReopenWindowDays,
		&complaint.Location,
		&complaint.Pincode,
		&complaint.AutoTriaged,
		&complaint.CreatedAt,
		&complaint.UpdatedAt,
	)
}

func scanComplaints(rows pgx.Rows) ([]domain.Complaint, error) {
	var result []domain.Complaint
	for rows.Next() {
		var complaint domain.Complaint
		if err := scanComplaint(rows, &complaint); err != nil {
			return nil, err
		}
		result = append(result, complaint)
	}
	return result, rows.Err()
}

func statusStrings(statuses []domain.ComplaintStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
