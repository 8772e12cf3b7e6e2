package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/persistence"
)

// FeedbackRepository manages complaint feedback. One feedback row per
// complaint, enforced by a unique constraint.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *domain.Feedback) error
	GetByComplaint(ctx context.Context, complaintID string) (*domain.Feedback, error)
}

type feedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository instantiates repository.
func NewFeedbackRepository(pool *pgxpool.Pool) FeedbackRepository {
	return &feedbackRepository{pool: pool}
}

func (r *feedbackRepository) q(ctx context.Context) persistence.Querier {
	return persistence.QuerierFrom(ctx, r.pool)
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *domain.Feedback) error {
	const query = `
        INSERT INTO complaint_feedback (complaint_id, rating, professionalism_rating,
            speed_rating, agent_rating, comment)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.q(ctx).QueryRow(ctx, query,
		feedback.ComplaintID,
		feedback.Rating,
		feedback.ProfessionalismRating,
		feedback.SpeedRating,
		feedback.AgentRating,
		feedback.Comment,
	).Scan(&feedback.ID, &feedback.CreatedAt)
}

func (r *feedbackRepository) GetByComplaint(ctx context.Context, complaintID string) (*domain.Feedback, error) {
	const query = `
        SELECT id, complaint_id, rating, professionalism_rating, speed_rating,
            agent_rating, comment, created_at
        FROM complaint_feedback
        WHERE complaint_id=$1`
	var feedback domain.Feedback
	err := r.q(ctx).QueryRow(ctx, query, complaintID).Scan(
		&feedback.ID,
		&feedback.ComplaintID,
		&feedback.Rating,
		&feedback.ProfessionalismRating,
		&feedback.SpeedRating,
		&feedback.AgentRating,
		&feedback.Comment,
		&feedback.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &feedback, nil
}
