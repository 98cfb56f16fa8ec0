package models

import (
	"github.com/google/uuid"
)

// Feedback statuses
const (
	StatusNew      = "new"
	StatusArchived = "archived"
)

// FeedbackTypes is the closed set of categories a submission may use.
var FeedbackTypes = []string{
	"Suggestion",
	"Concern",
	"Safety Issue",
	"Process Improvement",
	"Other",
}

// IsValidFeedbackType reports whether t is one of the allowed categories.
func IsValidFeedbackType(t string) bool {
	for _, ft := range FeedbackTypes {
		if ft == t {
			return true
		}
	}
	return false
}

// Feedback is an employee submission. Records are never hard-deleted;
// admins only annotate and archive them. Timestamps are epoch milliseconds.
type Feedback struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   int64     `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt   int64     `gorm:"autoUpdateTime:milli" json:"updated_at"`
	Type        string    `gorm:"not null" json:"type"`
	Description string    `gorm:"type:text;not null" json:"description"`
	IsAnonymous bool      `gorm:"not null" json:"is_anonymous"`

	// Identity fields; null whenever IsAnonymous is true.
	Email    *string `json:"email,omitempty"`
	Name     *string `json:"name,omitempty"`
	Title    *string `json:"title,omitempty"`
	Location *string `json:"location,omitempty"`

	// Set together or not at all.
	AttachmentName *string `json:"attachment_name,omitempty"`
	AttachmentURL  *string `json:"attachment_url,omitempty"`

	Status     string `gorm:"default:'new'" json:"status"`
	AdminNotes string `gorm:"type:text" json:"admin_notes,omitempty"`

	// Non-null iff Status == StatusArchived.
	ArchivedAt *int64  `json:"archived_at,omitempty"`
	ArchivedBy *string `json:"archived_by,omitempty"`
}

// TableName returns the table name for the Feedback model
func (Feedback) TableName() string {
	return "feedback"
}

// ToPublicView projects a record for consumers. Identity fields are stripped
// whenever the record is anonymous, regardless of what is physically stored,
// so no call site can leak them. Every reader (list, detail, export) goes
// through this projection.
func (f *Feedback) ToPublicView() Feedback {
	out := *f
	if out.IsAnonymous {
		out.Email = nil
		out.Name = nil
		out.Title = nil
		out.Location = nil
	}
	return out
}

// FeedbackFilters narrows a record collection for the dashboard.
// Status and Type use "all" as a pass-everything value; Search is a
// case-insensitive substring match; date bounds are inclusive epoch millis.
type FeedbackFilters struct {
	Status   string `json:"status,omitempty"`
	Type     string `json:"type,omitempty"`
	Search   string `json:"search,omitempty"`
	DateFrom *int64 `json:"date_from,omitempty"`
	DateTo   *int64 `json:"date_to,omitempty"`
}

// FeedbackStats summarizes the full collection for the dashboard header.
type FeedbackStats struct {
	Total    int `json:"total"`
	New      int `json:"new"`
	Archived int `json:"archived"`
}
