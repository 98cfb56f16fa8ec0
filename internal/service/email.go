package service

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/deroyal/feedback-portal/backend/config"
	"github.com/deroyal/feedback-portal/backend/internal/models"
)

type EmailService struct {
	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	fromEmail    string
	fromName     string
	adminEmail   string
}

func NewEmailService(cfg *config.Config) IEmailService {
	return &EmailService{
		smtpHost:     cfg.SMTPHost,
		smtpPort:     cfg.SMTPPort,
		smtpUsername: cfg.SMTPUsername,
		smtpPassword: cfg.SMTPPassword,
		fromEmail:    cfg.EmailFrom,
		fromName:     cfg.EmailFromName,
		adminEmail:   cfg.AdminEmail,
	}
}

// SendLoginCode delivers a one-time login code to an admin. This is the only
// channel the code travels on; it is never echoed in an API response.
func (s *EmailService) SendLoginCode(email, code string) error {
	subject := "Your Feedback Portal Login Code"
	body := s.buildLoginCodeBody(code)
	return s.SendEmail(email, subject, body)
}

// SendFeedbackNotification tells the admin inbox about a new submission.
func (s *EmailService) SendFeedbackNotification(feedback *models.Feedback) error {
	toEmail := s.adminEmail
	if toEmail == "" {
		toEmail = s.fromEmail
	}

	caser := cases.Title(language.English)
	subject := fmt.Sprintf("[Feedback Portal] New %s Submission", caser.String(feedback.Type))
	body := s.buildFeedbackNotificationBody(feedback)

	return s.SendEmail(toEmail, subject, body)
}

func (s *EmailService) SendEmail(to, subject, body string) error {
	// If SMTP is not configured, log the email instead
	if s.smtpHost == "" || s.smtpPort == "" {
		log.Printf("[EmailService] SMTP not configured, logging email:\nTo: %s\nSubject: %s\nBody:\n%s\n--- End Email ---", to, subject, body)
		return nil
	}

	auth := smtp.PlainAuth("", s.smtpUsername, s.smtpPassword, s.smtpHost)

	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	msg := []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n", to, from, subject, body))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	if err := smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *EmailService) buildLoginCodeBody(code string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h2 style="color: #1e3a8a;">Admin Login Code</h2>
	<p>Use this code to sign in to the feedback dashboard:</p>
	<div style="background-color: #f3f4f6; padding: 20px; text-align: center; border-radius: 8px; margin: 20px 0;">
		<span style="font-size: 32px; font-weight: bold; letter-spacing: 6px;">%s</span>
	</div>
	<p style="color: #666; font-size: 14px;">
		This code expires in 10 minutes and can be used once. If you didn't request it, you can safely ignore this email.
	</p>
</body>
</html>
	`, code)
}

func (s *EmailService) buildFeedbackNotificationBody(feedback *models.Feedback) string {
	pv := feedback.ToPublicView()

	var submitterInfo string
	if pv.IsAnonymous {
		submitterInfo = "<p><strong>Submitted by:</strong> Anonymous</p>"
	} else {
		fields := []struct{ label, value string }{
			{"Email", strVal(pv.Email)},
			{"Name", strVal(pv.Name)},
			{"Title", strVal(pv.Title)},
			{"Location", strVal(pv.Location)},
		}
		var items []string
		for _, f := range fields {
			if f.value != "" {
				items = append(items, fmt.Sprintf("<li>%s: %s</li>", f.label, f.value))
			}
		}
		submitterInfo = fmt.Sprintf("<p><strong>Submitted by:</strong></p><ul>%s</ul>", strings.Join(items, ""))
	}

	var attachmentInfo string
	if pv.AttachmentName != nil {
		attachmentInfo = fmt.Sprintf("<p><strong>Attachment:</strong> %s</p>", *pv.AttachmentName)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<h2>New %s</h2>

	<div style="background-color: #f9f9f9; padding: 15px; border-left: 4px solid #1e3a8a; margin: 20px 0;">
		%s
	</div>

	%s
	%s

	<div style="margin-top: 30px; padding: 15px; background-color: #e9ecef; border-radius: 5px;">
		<p><strong>Submission ID:</strong> %s</p>
		<p style="font-size: 12px; color: #666;">
			This is an automated notification from the employee feedback portal.
		</p>
	</div>
</body>
</html>
	`,
		pv.Type,
		strings.ReplaceAll(StripMarkup(pv.Description), "\n", "<br>"),
		submitterInfo,
		attachmentInfo,
		pv.ID,
	)
}
