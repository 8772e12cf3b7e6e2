package domain

import "time"

// AttachmentType distinguishes complaint evidence from resolution proof.
type AttachmentType string

const (
	AttachmentTypeComplaint  AttachmentType = "COMPLAINT"
	AttachmentTypeResolution AttachmentType = "RESOLUTION"
)

// MaxResolutionAttachmentBytes caps resolution proof uploads at 10MB.
const MaxResolutionAttachmentBytes = 10 << 20

// Attachment records metadata for an externally stored blob.
type Attachment struct {
	ID               string
	ComplaintID      string
	StorageKey       string
	OriginalFilename string
	FileSize         int64
	MimeType         string
	Type             AttachmentType
	UploadedBy       string
	UploadedAt       time.Time
}
