package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/deroyal/feedback-portal/backend/internal/models"
	"github.com/deroyal/feedback-portal/backend/internal/types"
)

// MaxDescriptionLength bounds the visible characters of a submission,
// measured after markup is stripped.
const MaxDescriptionLength = 5000

var (
	ErrFeedbackNotFound   = errors.New("feedback not found")
	ErrInvalidType        = errors.New("invalid feedback type")
	ErrDescriptionTooLong = fmt.Errorf("description exceeds %d characters", MaxDescriptionLength)
)

type FeedbackService struct {
	db           *gorm.DB
	emailService IEmailService
}

func NewFeedbackService(db *gorm.DB, emailService IEmailService) IFeedbackService {
	return &FeedbackService{
		db:           db,
		emailService: emailService,
	}
}

// Attachment is a stored upload, name and URL set together.
type Attachment struct {
	Name string
	URL  string
}

// CreateFeedback stores a new submission. Anonymous submissions have their
// identity fields nulled at write time, not merely hidden at render time.
func (s *FeedbackService) CreateFeedback(ctx context.Context, req *types.SubmitFeedbackRequest, attachment *Attachment) (*models.Feedback, error) {
	if !models.IsValidFeedbackType(req.Type) {
		return nil, ErrInvalidType
	}
	if utf8.RuneCountInString(StripMarkup(req.Description)) > MaxDescriptionLength {
		return nil, ErrDescriptionTooLong
	}

	feedback := &models.Feedback{
		ID:          uuid.New(),
		Type:        req.Type,
		Description: req.Description,
		IsAnonymous: req.IsAnonymous,
		Status:      models.StatusNew,
	}

	if !req.IsAnonymous {
		feedback.Email = optional(req.Email)
		feedback.Name = optional(req.Name)
		feedback.Title = optional(req.Title)
		feedback.Location = optional(req.Location)
	}

	if attachment != nil {
		feedback.AttachmentName = &attachment.Name
		feedback.AttachmentURL = &attachment.URL
	}

	if err := s.db.WithContext(ctx).Create(feedback).Error; err != nil {
		return nil, fmt.Errorf("failed to create feedback: %w", err)
	}

	go func() {
		if err := s.emailService.SendFeedbackNotification(feedback); err != nil {
			log.Printf("[FeedbackService] Error sending feedback notification: %v", err)
		}
	}()

	return feedback, nil
}

func (s *FeedbackService) GetFeedback(ctx context.Context, id uuid.UUID) (*models.Feedback, error) {
	var feedback models.Feedback
	if err := s.db.WithContext(ctx).First(&feedback, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeedbackNotFound
		}
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	return &feedback, nil
}

// ListFeedback returns the full record snapshot. Filtering and ordering are
// applied in memory by FilterAndSort so the dashboard and export share one
// deterministic pipeline.
func (s *FeedbackService) ListFeedback(ctx context.Context) ([]models.Feedback, error) {
	var feedback []models.Feedback
	if err := s.db.WithContext(ctx).Find(&feedback).Error; err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return feedback, nil
}

// UpdateNotes replaces the admin notes on a record.
func (s *FeedbackService) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error {
	return s.applyUpdates(ctx, id, map[string]interface{}{
		"admin_notes": notes,
	})
}

// Archive transitions a record to archived, stamping who archived it and
// when. archived_at and archived_by are always set together.
func (s *FeedbackService) Archive(ctx context.Context, id uuid.UUID, adminEmail string) error {
	return s.applyUpdates(ctx, id, map[string]interface{}{
		"status":      models.StatusArchived,
		"archived_at": time.Now().UnixMilli(),
		"archived_by": adminEmail,
	})
}

// Unarchive transitions a record back to new, clearing both archive fields.
func (s *FeedbackService) Unarchive(ctx context.Context, id uuid.UUID) error {
	return s.applyUpdates(ctx, id, map[string]interface{}{
		"status":      models.StatusNew,
		"archived_at": nil,
		"archived_by": nil,
	})
}

func (s *FeedbackService) applyUpdates(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UnixMilli()

	result := s.db.WithContext(ctx).Model(&models.Feedback{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update feedback: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrFeedbackNotFound
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
