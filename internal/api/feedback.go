package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/deroyal/feedback-portal/backend/internal/models"
	"github.com/deroyal/feedback-portal/backend/internal/service"
	"github.com/deroyal/feedback-portal/backend/internal/types"
)

type FeedbackHandler struct {
	feedbackSvc       service.IFeedbackService
	captchaService    service.ICaptchaService
	attachmentService service.IAttachmentService
}

func NewFeedbackHandler(feedbackService service.IFeedbackService, captchaService service.ICaptchaService, attachmentService service.IAttachmentService) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackSvc:       feedbackService,
		captchaService:    captchaService,
		attachmentService: attachmentService,
	}
}

// Submit accepts a new feedback submission from the intake form.
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req types.SubmitFeedbackRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// A filled honeypot means a bot walked the form.
	if req.Honeypot != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission"})
		return
	}

	if !req.IsAnonymous {
		if req.Email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required when not anonymous"})
			return
		}
		if _, err := mail.ParseAddress(req.Email); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Valid email is required"})
			return
		}
	}

	valid, err := h.captchaService.Verify(c.Request.Context(), req.CaptchaToken)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "CAPTCHA verification failed"})
		return
	}
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "CAPTCHA verification failed"})
		return
	}

	var attachment *service.Attachment
	if fileHeader, err := c.FormFile("attachment"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read attachment"})
			return
		}
		content, err := io.ReadAll(io.LimitReader(file, service.MaxAttachmentSize+1))
		_ = file.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read attachment"})
			return
		}

		attachment, err = h.attachmentService.Upload(c.Request.Context(), fileHeader.Filename, fileHeader.Size, content)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrAttachmentTooLarge):
				c.JSON(http.StatusBadRequest, gin.H{"error": "File size exceeds 5MB limit"})
			case errors.Is(err, service.ErrAttachmentType):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type. Please upload PDF, DOC, XLS, or image files."})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store attachment"})
			}
			return
		}
	}

	feedback, err := h.feedbackSvc.CreateFeedback(c.Request.Context(), &req, attachment)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidType), errors.Is(err, service.ErrDescriptionTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit feedback. Please try again."})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"message":     "Feedback submitted successfully",
		"feedback_id": feedback.ID,
	})
}

// List returns filtered, newest-first records plus collection stats.
func (h *FeedbackHandler) List(c *gin.Context) {
	records, err := h.feedbackSvc.ListFeedback(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list feedback"})
		return
	}

	filtered := service.FilterAndSort(records, parseFilters(c))

	responses := make([]types.FeedbackResponse, len(filtered))
	for i := range filtered {
		responses[i] = feedbackToResponse(&filtered[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"feedback": responses,
		"total":    len(responses),
		"stats":    service.ComputeStats(records),
	})
}

// Get returns a single record's detail view.
func (h *FeedbackHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	feedback, err := h.feedbackSvc.GetFeedback(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrFeedbackNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Feedback not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get feedback"})
		return
	}

	c.JSON(http.StatusOK, feedbackToResponse(feedback))
}

// UpdateNotes replaces the admin notes on a record.
func (h *FeedbackHandler) UpdateNotes(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req types.UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.feedbackSvc.UpdateNotes(c.Request.Context(), id, req.AdminNotes); err != nil {
		h.writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notes updated successfully"})
}

// Archive transitions a record to archived, stamped with the acting admin.
func (h *FeedbackHandler) Archive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	adminEmail := c.GetString("admin_email")
	if err := h.feedbackSvc.Archive(c.Request.Context(), id, adminEmail); err != nil {
		h.writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feedback archived"})
}

// Unarchive transitions a record back to new.
func (h *FeedbackHandler) Unarchive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.feedbackSvc.Unarchive(c.Request.Context(), id); err != nil {
		h.writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feedback unarchived"})
}

// Export streams the filtered collection as BOM-prefixed CSV.
func (h *FeedbackHandler) Export(c *gin.Context) {
	records, err := h.feedbackSvc.ListFeedback(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list feedback"})
		return
	}

	filtered := service.FilterAndSort(records, parseFilters(c))

	data, err := service.ExportCSV(filtered)
	if err != nil {
		if errors.Is(err, service.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No data to export"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export feedback"})
		return
	}

	filename := fmt.Sprintf("feedback-export_%s.csv", time.Now().Format("2006-01-02_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (h *FeedbackHandler) writeMutationError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrFeedbackNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feedback not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update feedback"})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid feedback ID"})
		return uuid.Nil, false
	}
	return id, true
}

// parseFilters reads the dashboard filters from query parameters.
// Missing status/type default to "all"; dates are epoch milliseconds.
func parseFilters(c *gin.Context) models.FeedbackFilters {
	filters := models.FeedbackFilters{
		Status: c.DefaultQuery("status", "all"),
		Type:   c.DefaultQuery("type", "all"),
		Search: c.Query("search"),
	}
	if v := c.Query("date_from"); v != "" {
		if millis, err := strconv.ParseInt(v, 10, 64); err == nil {
			filters.DateFrom = &millis
		}
	}
	if v := c.Query("date_to"); v != "" {
		if millis, err := strconv.ParseInt(v, 10, 64); err == nil {
			filters.DateTo = &millis
		}
	}
	return filters
}

// feedbackToResponse converts a record through its public projection, the
// single place anonymity is applied for API reads.
func feedbackToResponse(f *models.Feedback) types.FeedbackResponse {
	pv := f.ToPublicView()
	return types.FeedbackResponse{
		ID:             pv.ID,
		CreatedAt:      pv.CreatedAt,
		UpdatedAt:      pv.UpdatedAt,
		Type:           pv.Type,
		Description:    pv.Description,
		IsAnonymous:    pv.IsAnonymous,
		Email:          pv.Email,
		Name:           pv.Name,
		Title:          pv.Title,
		Location:       pv.Location,
		AttachmentName: pv.AttachmentName,
		AttachmentURL:  pv.AttachmentURL,
		Status:         pv.Status,
		AdminNotes:     pv.AdminNotes,
		ArchivedAt:     pv.ArchivedAt,
		ArchivedBy:     pv.ArchivedBy,
	}
}
