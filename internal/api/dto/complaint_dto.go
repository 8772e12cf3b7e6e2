package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// CreateComplaintRequest payload.
type CreateComplaintRequest struct {
	Title                  string                   `json:"title"`
	Description            string                   `json:"description"`
	Category               domain.ComplaintCategory `json:"category"`
	Priority               domain.ComplaintPriority `json:"priority"`
	ExpectedResolutionDays *int                     `json:"expected_resolution_days"`
	Location               string                   `json:"location"`
	Pincode                string                   `json:"pincode"`
}

// UpdateComplaintRequest payload; nil fields are untouched.
type UpdateComplaintRequest struct {
	Title       *string                   `json:"title"`
	Description *string                   `json:"description"`
	Category    *domain.ComplaintCategory `json:"category"`
	Priority    *domain.ComplaintPriority `json:"priority"`
}

// ResolveRequest payload.
type ResolveRequest struct {
	ResolutionNotes string `json:"resolution_notes"`
}

// ComplaintSummary response.
type ComplaintSummary struct {
	ID              string                   `json:"id"`
	ComplaintNumber string                   `json:"complaint_number"`
	Title           string                   `json:"title"`
	Category        domain.ComplaintCategory `json:"category"`
	Priority        domain.ComplaintPriority `json:"priority"`
	Status          domain.ComplaintStatus   `json:"status"`
	AssignedTo      *string                  `json:"assigned_to"`
	SLADeadline     time.Time                `json:"sla_deadline"`
	SLABreached     bool                     `json:"sla_breached"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// ComplaintDetailResponse provides full complaint info.
type ComplaintDetailResponse struct {
	ComplaintSummary
	CustomerID       string     `json:"customer_id"`
	Description      string     `json:"description"`
	ResolutionNotes  string     `json:"resolution_notes,omitempty"`
	ResolvedAt       *time.Time `json:"resolved_at"`
	ClosedAt         *time.Time `json:"closed_at"`
	CanReopen        bool       `json:"can_reopen"`
	ReopenWindowDays int        `json:"reopen_window_days"`
	Location         string     `json:"location,omitempty"`
	Pincode          string     `json:"pincode,omitempty"`
	AutoTriaged      bool       `json:"auto_triaged"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content    string `json:"content"`
	IsInternal bool   `json:"is_internal"`
}

// CommentResponse response.
type CommentResponse struct {
	ID          string    `json:"id"`
	ComplaintID string    `json:"complaint_id"`
	UserID      string    `json:"user_id"`
	Content     string    `json:"content"`
	IsInternal  bool      `json:"is_internal"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateFeedbackRequest payload.
type CreateFeedbackRequest struct {
	Rating                int    `json:"rating"`
	ProfessionalismRating *int   `json:"professionalism_rating"`
	SpeedRating           *int   `json:"speed_rating"`
	Comment               string `json:"comment"`
}

// FeedbackResponse response.
type FeedbackResponse struct {
	ID                    string    `json:"id"`
	ComplaintID           string    `json:"complaint_id"`
	Rating                int       `json:"rating"`
	ProfessionalismRating *int      `json:"professionalism_rating"`
	SpeedRating           *int      `json:"speed_rating"`
	AgentRating           *int      `json:"agent_rating"`
	Comment               string    `json:"comment,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

// TimelineEntryResponse response.
type TimelineEntryResponse struct {
	ID          string                `json:"id"`
	Action      domain.TimelineAction `json:"action"`
	Description string                `json:"description"`
	PerformedBy *string               `json:"performed_by"`
	Metadata    map[string]any        `json:"metadata,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// CreateAttachmentRequest payload carries blob metadata only; the blob
// itself lives in external storage.
type CreateAttachmentRequest struct {
	StorageKey       string                `json:"storage_key"`
	OriginalFilename string                `json:"original_filename"`
	FileSize         int64                 `json:"file_size"`
	MimeType         string                `json:"mime_type"`
	Type             domain.AttachmentType `json:"type"`
}

// AttachmentResponse response.
type AttachmentResponse struct {
	ID               string                `json:"id"`
	OriginalFilename string                `json:"original_filename"`
	FileSize         int64                 `json:"file_size"`
	MimeType         string                `json:"mime_type"`
	Type             domain.AttachmentType `json:"type"`
	UploadedBy       string                `json:"uploaded_by"`
	UploadedAt       time.Time             `json:"uploaded_at"`
}
