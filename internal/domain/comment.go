package domain

import "time"

// Comment is a message attached to a complaint. Internal comments are
// visible to agents and admins only.
type Comment struct {
	ID          string
	ComplaintID string
	UserID      string
	Content     string
	IsInternal  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
