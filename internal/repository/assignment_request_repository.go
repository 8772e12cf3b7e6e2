package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/persistence"
)

// RequestFilter narrows assignment request listings.
type RequestFilter struct {
	ComplaintID *string
	AgentID     *string
	Direction   *domain.RequestDirection
	Statuses    []domain.RequestStatus
	// PendingOnly additionally excludes pending requests whose TTL has
	// already elapsed and requests on complaints that gained an assignee.
	PendingOnly bool
	Now         time.Time
	Limit       int
	Offset      int
}

// AssignmentRequestRepository encapsulates assignment request persistence.
type AssignmentRequestRepository interface {
	Create(ctx context.Context, request *domain.AssignmentRequest) error
	GetByID(ctx context.Context, id string) (*domain.AssignmentRequest, error)
	Update(ctx context.Context, request *domain.AssignmentRequest) error
	List(ctx context.Context, filter RequestFilter) ([]domain.AssignmentRequest, error)
	HasPending(ctx context.Context, complaintID, agentID string, direction domain.RequestDirection, now time.Time) (bool, error)
	CancelPending(ctx context.Context, complaintID, agentID string, direction domain.RequestDirection) (int64, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

type assignmentRequestRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRequestRepository instantiates repository.
func NewAssignmentRequestRepository(pool *pgxpool.Pool) AssignmentRequestRepository {
	return &assignmentRequestRepository{pool: pool}
}

func (r *assignmentRequestRepository) q(ctx context.Context) persistence.Querier {
	return persistence.QuerierFrom(ctx, r.pool)
}

const requestColumns = `id, complaint_id, agent_id, admin_id, direction, status, message,
    agent_response, expires_at, responded_at, reviewed_by, created_at`

func (r *assignmentRequestRepository) Create(ctx context.Context, request *domain.AssignmentRequest) error {
	const query = `
        INSERT INTO assignment_requests (complaint_id, agent_id, admin_id, direction, status,
            message, agent_response, expires_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	return r.q(ctx).QueryRow(ctx, query,
		request.ComplaintID,
		request.AgentID,
		request.AdminID,
		request.Direction,
		request.Status,
		request.Message,
		request.AgentResponse,
		request.ExpiresAt,
	).Scan(&request.ID, &request.CreatedAt)
}

func (r *assignmentRequestRepository) GetByID(ctx context.Context, id string) (*domain.AssignmentRequest, error) {
	var request domain.AssignmentRequest
	err := scanRequest(r.q(ctx).QueryRow(ctx, `SELECT `+requestColumns+` FROM assignment_requests WHERE id=$1`, id), &request)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *assignmentRequestRepository) Update(ctx context.Context, request *domain.AssignmentRequest) error {
	const query = `
        UPDATE assignment_requests SET status=$1, agent_response=$2, responded_at=$3, reviewed_by=$4
        WHERE id=$5`
	cmd, err := r.q(ctx).Exec(ctx, query,
		request.Status,
		request.AgentResponse,
		request.RespondedAt,
		request.ReviewedBy,
		request.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assignmentRequestRepository) List(ctx context.Context, filter RequestFilter) ([]domain.AssignmentRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM assignment_requests WHERE 1=1`
	args := []any{}
	if filter.ComplaintID != nil {
		args = append(args, *filter.ComplaintID)
		query += fmt.Sprintf(` AND complaint_id=$%d`, len(args))
	}
	if filter.AgentID != nil {
		args = append(args, *filter.AgentID)
		query += fmt.Sprintf(` AND agent_id=$%d`, len(args))
	}
	if filter.Direction != nil {
		args = append(args, *filter.Direction)
		query += fmt.Sprintf(` AND direction=$%d`, len(args))
	}
	if len(filter.Statuses) > 0 {
		args = append(args, requestStatusStrings(filter.Statuses))
		query += fmt.Sprintf(` AND status = ANY($%d)`, len(args))
	}
	if filter.PendingOnly {
		args = append(args, filter.Now)
		query += fmt.Sprintf(` AND status='PENDING' AND (expires_at IS NULL OR expires_at > $%d)`, len(args))
		query += ` AND complaint_id IN (SELECT id FROM complaints WHERE assigned_to IS NULL)`
	}
	query += ` ORDER BY created_at DESC`
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(` LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []domain.AssignmentRequest
	for rows.Next() {
		var request domain.AssignmentRequest
		if err := scanRequest(rows, &request); err != nil {
			return nil, err
		}
		result = append(result, request)
	}
	return result, rows.Err()
}

func (r *assignmentRequestRepository) HasPending(ctx context.Context, complaintID, agentID string, direction domain.RequestDirection, now time.Time) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM assignment_requests
            WHERE complaint_id=$1 AND agent_id=$2 AND direction=$3 AND status='PENDING'
              AND (expires_at IS NULL OR expires_at > $4))`
	var exists bool
	err := r.q(ctx).QueryRow(ctx, query, complaintID, agentID, direction, now).Scan(&exists)
	return exists, err
}

func (r *assignmentRequestRepository) CancelPending(ctx context.Context, complaintID, agentID string, direction domain.RequestDirection) (int64, error) {
	const query = `
        UPDATE assignment_requests SET status='CANCELLED'
        WHERE complaint_id=$1 AND agent_id=$2 AND direction=$3 AND status='PENDING'`
	cmd, err := r.q(ctx).Exec(ctx, query, complaintID, agentID, direction)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *assignmentRequestRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	const query = `
        UPDATE assignment_requests SET status='EXPIRED'
        WHERE status='PENDING' AND expires_at IS NOT NULL AND expires_at < $1`
	cmd, err := r.q(ctx).Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanRequest(row pgx.Row, request *domain.AssignmentRequest) error {
	return row.Scan(
		&request.ID,
		&request.ComplaintID,
		&request.AgentID,
		&request.AdminID,
		&request.Direction,
		&request.Status,
		&request.Message,
		&request.AgentResponse,
		&request.ExpiresAt,
		&request.RespondedAt,
		&request.ReviewedBy,
		&request.CreatedAt,
	)
}

func requestStatusStrings(statuses []domain.RequestStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
