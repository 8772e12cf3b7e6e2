package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/persistence"
)

// TimelineRepository appends and reads complaint history entries.
type TimelineRepository interface {
	Create(ctx context.Context, entry *domain.TimelineEntry) error
	ListByComplaint(ctx context.Context, complaintID string, limit int) ([]domain.TimelineEntry, error)
}

type timelineRepository struct {
	pool *pgxpool.Pool
}

// NewTimelineRepository instantiates repository.
func NewTimelineRepository(pool *pgxpool.Pool) TimelineRepository {
	return &timelineRepository{pool: pool}
}

func (r *timelineRepository) q(ctx context.Context) persistence.Querier {
	return persistence.QuerierFrom(ctx, r.pool)
}

func (r *timelineRepository) Create(ctx context.Context, entry *domain.TimelineEntry) error {
	metadata := []byte("{}")
	if entry.Metadata != nil {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return err
		}
		metadata = encoded
	}
	const query = `
        INSERT INTO complaint_timeline (complaint_id, action, description, performed_by, metadata)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.q(ctx).QueryRow(ctx, query,
		entry.ComplaintID,
		entry.Action,
		entry.Description,
		entry.PerformedBy,
		metadata,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *timelineRepository) ListByComplaint(ctx context.Context, complaintID string, limit int) ([]domain.TimelineEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
        SELECT id, complaint_id, action, description, performed_by, metadata, created_at
        FROM complaint_timeline
        WHERE complaint_id=$1
        ORDER BY created_at DESC
        LIMIT $2`
	rows, err := r.q(ctx).Query(ctx, query, complaintID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []domain.TimelineEntry
	for rows.Next() {
		var entry domain.TimelineEntry
		var metadata []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.ComplaintID,
			&entry.Action,
			&entry.Description,
			&entry.PerformedBy,
			&metadata,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
