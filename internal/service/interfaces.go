package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/deroyal/feedback-portal/backend/internal/models"
	"github.com/deroyal/feedback-portal/backend/internal/types"
)

// IFeedbackService defines the interface for feedback record operations
type IFeedbackService interface {
	CreateFeedback(ctx context.Context, req *types.SubmitFeedbackRequest, attachment *Attachment) (*models.Feedback, error)
	GetFeedback(ctx context.Context, id uuid.UUID) (*models.Feedback, error)
	ListFeedback(ctx context.Context) ([]models.Feedback, error)
	UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error
	Archive(ctx context.Context, id uuid.UUID, adminEmail string) error
	Unarchive(ctx context.Context, id uuid.UUID) error
}

// IEmailService defines the interface for email operations
type IEmailService interface {
	SendLoginCode(email, code string) error
	SendFeedbackNotification(feedback *models.Feedback) error
	SendEmail(to, subject, body string) error
}

// ICaptchaService defines the interface for CAPTCHA verification
type ICaptchaService interface {
	Verify(ctx context.Context, token string) (bool, error)
}

// IAttachmentService defines the interface for attachment storage
type IAttachmentService interface {
	Upload(ctx context.Context, filename string, size int64, content []byte) (*Attachment, error)
}
