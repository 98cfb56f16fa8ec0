package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deroyal/feedback-portal/backend/internal/service"
	"github.com/deroyal/feedback-portal/backend/internal/types"
)

type AuthHandler struct {
	authService  *service.AuthService
	emailService service.IEmailService
}

func NewAuthHandler(authService *service.AuthService, emailService service.IEmailService) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		emailService: emailService,
	}
}

// ValidatePassphrase gates the intake form behind the shared passphrase.
func (h *AuthHandler) ValidatePassphrase(c *gin.Context) {
	var req types.ValidatePassphraseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Passphrase is required"})
		return
	}

	if !h.authService.VerifyPassphrase(req.Passphrase) {
		c.JSON(http.StatusUnauthorized, types.ValidatePassphraseResponse{
			Success: false,
			Message: "Invalid passphrase",
		})
		return
	}

	token, err := h.authService.IssueGateToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, types.ValidatePassphraseResponse{
		Success: true,
		Token:   token,
		Message: "Access granted",
	})
}

// SendCode issues a one-time login code and delivers it by email. The code
// is intentionally absent from the response.
func (h *AuthHandler) SendCode(c *gin.Context) {
	var req types.SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
		return
	}

	code, err := h.authService.IssueCode(req.Email)
	if err != nil {
		if errors.Is(err, service.ErrDomainNotAllowed) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email domain is not allowed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate code"})
		return
	}

	if err := h.emailService.SendLoginCode(req.Email, code); err != nil {
		log.Printf("[AuthHandler] Failed to send login code to %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Code sent successfully",
	})
}

// VerifyCode checks a submitted login code and mints the admin session token.
func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req types.VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and 6-digit code are required"})
		return
	}

	if !h.authService.VerifyCode(req.Email, req.Code) {
		c.JSON(http.StatusUnauthorized, types.VerifyCodeResponse{
			Success: false,
			Message: "Invalid or expired code",
		})
		return
	}

	token, err := h.authService.IssueSessionToken(req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue session token"})
		return
	}

	log.Printf("[AuthHandler] Admin authenticated: %s", req.Email)
	c.JSON(http.StatusOK, types.VerifyCodeResponse{
		Success:      true,
		Message:      "Authentication successful",
		SessionToken: token,
		User:         &types.AdminRef{Email: req.Email},
	})
}
