package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/persistence"
)

// AttachmentRepository manages attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	GetByID(ctx context.Context, id string) (*domain.Attachment, error)
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.Attachment, error)
	Delete(ctx context.Context, id string) error
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository instantiates repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) q(ctx context.Context) persistence.Querier {
	return persistence.QuerierFrom(ctx, r.pool)
}

const attachmentColumns = `id, complaint_id, storage_key, original_filename, file_size,
    mime_type, attachment_type, uploaded_by, uploaded_at`

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO complaint_attachments (complaint_id, storage_key, original_filename,
            file_size, mime_type, attachment_type, uploaded_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, uploaded_at`
	return r.q(ctx).QueryRow(ctx, query,
		attachment.ComplaintID,
		attachment.StorageKey,
		attachment.OriginalFilename,
		attachment.FileSize,
		attachment.MimeType,
		attachment.Type,
		attachment.UploadedBy,
	).Scan(&attachment.ID, &attachment.UploadedAt)
}

func (r *attachmentRepository) GetByID(ctx context.Context, id string) (*domain.Attachment, error) {
	var attachment domain.Attachment
	err := scanAttachment(r.q(ctx).QueryRow(ctx, `SELECT `+attachmentColumns+` FROM complaint_attachments WHERE id=$1`, id), &attachment)
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *attachmentRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.Attachment, error) {
	const query = `SELECT ` + attachmentColumns + ` FROM complaint_attachments
        WHERE complaint_id=$1 ORDER BY uploaded_at ASC`
	rows, err := r.q(ctx).Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var attachments []domain.Attachment
	for rows.Next() {
		var attachment domain.Attachment
		if err := scanAttachment(rows, &attachment); err != nil {
			return nil, err
		}
		attachments = append(attachments, attachment)
	}
	return attachments, rows.Err()
}

func (r *attachmentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.q(ctx).Exec(ctx, `DELETE FROM complaint_attachments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanAttachment(row pgx.Row, attachment *domain.Attachment) error {
	return row.Scan(
		&attachment.ID,
		&attachment.ComplaintID,
		&attachment.StorageKey,
		&attachment.OriginalFilename,
		&attachment.FileSize,
		&attachment.MimeType,
		&attachment.Type,
		&attachment.UploadedBy,
		&attachment.UploadedAt,
	)
}
