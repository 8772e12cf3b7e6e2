package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/persistence"
)

// AgentFilter narrows agent listings.
type AgentFilter struct {
	OnlyVerified  bool
	OnlyAvailable bool
	Pincode       *string
	ServiceType   *string
	Limit         int
}

// UserRepository encapsulates user persistence, including the agent
// workload counters.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListAgents(ctx context.Context, filter AgentFilter) ([]domain.User, error)

	// Counter mutations run against the current row values so they can
	// share a transaction with the complaint mutation that caused them.
	ApplyAssignment(ctx context.Context, agentID string) error
	ApplyUnassignment(ctx context.Context, agentID string) error
	ApplyResolution(ctx context.Context, agentID string, resolutionHours float64) error
	ApplyReopen(ctx context.Context, agentID string) error
	ApplyReactivation(ctx context.Context, agentID string) error
	RefreshPerformanceRating(ctx context.Context, agentID string) error
	SetAgentStatus(ctx context.Context, agentID string, status domain.AgentStatus) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates repository.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) q(ctx context.Context) persistence.Querier {
	return persistence.QuerierFrom(ctx, r.pool)
}

const userColumns = `id, name, email, password_hash, role, phone, pincode, service_type,
    is_verified, total_assigned_cases, total_resolved_cases, current_active_cases,
    average_resolution_time_hours, performance_rating, agent_status, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, role, phone, pincode, service_type,
            is_verified, agent_status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	if user.AgentStatus == "" {
		user.AgentStatus = domain.AgentStatusAvailable
	}
	return r.q(ctx).QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Phone,
		user.Pincode,
		user.ServiceType,
		user.IsVerified,
		user.AgentStatus,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := scanUser(r.q(ctx).QueryRow(ctx, query, arg), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListAgents(ctx context.Context, filter AgentFilter) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role='AGENT'`
	args := []any{}
	if filter.OnlyVerified {
		query += ` AND is_verified=TRUE`
	}
	if filter.OnlyAvailable {
		query += ` AND agent_status='AVAILABLE'`
	}
	if filter.Pincode != nil {
		args = append(args, *filter.Pincode)
		query += fmt.Sprintf(` AND pincode=$%d`, len(args))
	}
	if filter.ServiceType != nil {
		args = append(args, *filter.ServiceType)
		query += fmt.Sprintf(` AND service_type=$%d`, len(args))
	}
	query += ` ORDER BY created_at ASC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
	}
	rows, err := r.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := scanUser(rows, &user); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

func (r *userRepository) ApplyAssignment(ctx context.Context, agentID string) error {
	const query = `
        UPDATE users SET
            total_assigned_cases = total_assigned_cases + 1,
            current_active_cases = current_active_cases + 1,
            agent_status = CASE
                WHEN agent_status='OFFLINE' THEN agent_status
                WHEN current_active_cases + 1 >= $2 THEN 'BUSY'
                ELSE 'AVAILABLE' END,
            updated_at = NOW()
        WHERE id=$1`
	return r.execOne(ctx, query, agentID, domain.WorkloadThreshold)
}

func (r *userRepository) ApplyUnassignment(ctx context.Context, agentID string) error {
	const query = `
        UPDATE users SET
            current_active_cases = GREATEST(current_active_cases - 1, 0),
            agent_status = CASE
                WHEN agent_status='OFFLINE' THEN agent_status
                WHEN GREATEST(current_active_cases - 1, 0) >= $2 THEN 'BUSY'
                ELSE 'AVAILABLE' END,
            updated_at = NOW()
        WHERE id=$1`
	return r.execOne(ctx, query, agentID, domain.WorkloadThreshold)
}

func (r *userRepository) ApplyResolution(ctx context.Context, agentID string, resolutionHours float64) error {
	// Running mean: ((avg * (n-1)) + sample) / n with n counted after the
	// increment; the expressions read the pre-update row values.
	const query = `
        UPDATE users SET
            total_resolved_cases = total_resolved_cases + 1,
            current_active_cases = GREATEST(current_active_cases - 1, 0),
            average_resolution_time_hours =
                (average_resolution_time_hours * total_resolved_cases + $2)
                    / (total_resolved_cases + 1),
            agent_status = CASE
                WHEN agent_status='OFFLINE' THEN agent_status
                WHEN GREATEST(current_active_cases - 1, 0) >= $3 THEN 'BUSY'
                ELSE 'AVAILABLE' END,
            updated_at = NOW()
        WHERE id=$1`
	return r.execOne(ctx, query, agentID, resolutionHours, domain.WorkloadThreshold)
}

func (r *userRepository) ApplyReopen(ctx context.Context, agentID string) error {
	const query = `
        UPDATE users SET
            current_active_cases = current_active_cases + 1,
            total_resolved_cases = GREATEST(total_resolved_cases - 1, 0),
            agent_status = CASE
                WHEN agent_status='OFFLINE' THEN agent_status
                WHEN current_active_cases + 1 >= $2 THEN 'BUSY'
                ELSE 'AVAILABLE' END,
            updated_at = NOW()
        WHERE id=$1`
	return r.execOne(ctx, query, agentID, domain.WorkloadThreshold)
}

// ApplyReactivation restores a case to the agent's active count without
// touching the resolved counter. Used when a complaint closed straight
// from an active state is reopened.
func (r *userRepository) ApplyReactivation(ctx context.Context, agentID string) error {
	const query = `
        UPDATE users SET
            current_active_cases = current_active_cases + 1,
            agent_status = CASE
                WHEN agent_status='OFFLINE' THEN agent_status
                WHEN current_active_cases + 1 >= $2 THEN 'BUSY'
                ELSE 'AVAILABLE' END,
            updated_at = NOW()
        WHERE id=$1`
	return r.execOne(ctx, query, agentID, domain.WorkloadThreshold)
}

func (r *userRepository) RefreshPerformanceRating(ctx context.Context, agentID string) error {
	const query = `
        UPDATE users SET
            performance_rating = COALESCE((
                SELECT AVG(f.rating)::float8
                FROM complaint_feedback f
                JOIN complaints c ON c.id = f.complaint_id
                WHERE c.assigned_to = $1), 0),
            updated_at = NOW()
        WHERE id=$1`
	return r.execOne(ctx, query, agentID)
}

func (r *userRepository) SetAgentStatus(ctx context.Context, agentID string, status domain.AgentStatus) error {
	return r.execOne(ctx, `UPDATE users SET agent_status=$2, updated_at=NOW() WHERE id=$1`, agentID, status)
}

func (r *userRepository) execOne(ctx context.Context, query string, args ...any) error {
	cmd, err := r.q(ctx).Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanUser(row pgx.Row, user *domain.User) error {
	return row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Phone,
		&user.Pincode,
		&user.ServiceType,
		&user.IsVerified,
		&user.TotalAssigned,
		&user.TotalResolved,
		&user.CurrentActive,
		&user.AvgResolutionHrs,
		&user.PerformanceRating,
		&user.AgentStatus,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}
