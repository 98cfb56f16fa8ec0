package types

import (
	"github.com/google/uuid"
)

// Auth API types

type ValidatePassphraseRequest struct {
	Passphrase string `json:"passphrase" binding:"required"`
}

type ValidatePassphraseResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

type SendCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

type VerifyCodeResponse struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message,omitempty"`
	SessionToken string    `json:"session_token,omitempty"`
	User         *AdminRef `json:"user,omitempty"`
}

// AdminRef identifies the authenticated admin in responses.
type AdminRef struct {
	Email string `json:"email"`
}

// Feedback API types

// SubmitFeedbackRequest carries the multipart form fields of the intake
// form. The attachment travels separately as a file part.
type SubmitFeedbackRequest struct {
	Type         string `form:"type" binding:"required"`
	Description  string `form:"description" binding:"required"`
	IsAnonymous  bool   `form:"is_anonymous"`
	Email        string `form:"email"`
	Name         string `form:"name"`
	Title        string `form:"title"`
	Location     string `form:"location"`
	CaptchaToken string `form:"captcha_token"`
	// Honeypot must stay empty; bots that fill every field trip it.
	Honeypot string `form:"honeypot"`
}

type FeedbackResponse struct {
	ID             uuid.UUID `json:"id"`
	CreatedAt      int64     `json:"created_at"`
	UpdatedAt      int64     `json:"updated_at"`
	Type           string    `json:"type"`
	Description    string    `json:"description"`
	IsAnonymous    bool      `json:"is_anonymous"`
	Email          *string   `json:"email,omitempty"`
	Name           *string   `json:"name,omitempty"`
	Title          *string   `json:"title,omitempty"`
	Location       *string   `json:"location,omitempty"`
	AttachmentName *string   `json:"attachment_name,omitempty"`
	AttachmentURL  *string   `json:"attachment_url,omitempty"`
	Status         string    `json:"status"`
	AdminNotes     string    `json:"admin_notes,omitempty"`
	ArchivedAt     *int64    `json:"archived_at,omitempty"`
	ArchivedBy     *string   `json:"archived_by,omitempty"`
}

type UpdateNotesRequest struct {
	AdminNotes string `json:"admin_notes"`
}
