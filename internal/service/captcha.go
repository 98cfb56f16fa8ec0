package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const recaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// CaptchaService verifies reCAPTCHA tokens server-side.
type CaptchaService struct {
	secret    string
	verifyURL string
	client    *http.Client
}

func NewCaptchaService(secret string) ICaptchaService {
	return &CaptchaService{
		secret:    secret,
		verifyURL: recaptchaVerifyURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type captchaVerifyResponse struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score,omitempty"`
	ErrorCodes []string `json:"error-codes,omitempty"`
}

// Verify checks a client CAPTCHA token against the verification API. With no
// secret configured (local development) every token passes.
func (s *CaptchaService) Verify(ctx context.Context, token string) (bool, error) {
	if s.secret == "" {
		log.Printf("[CaptchaService] No secret configured, skipping verification")
		return true, nil
	}
	if token == "" {
		return false, nil
	}

	form := url.Values{}
	form.Set("secret", s.secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to verify captcha: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read captcha response: %w", err)
	}

	var result captchaVerifyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return false, fmt.Errorf("failed to decode captcha response: %w", err)
	}

	if !result.Success {
		log.Printf("[CaptchaService] Verification failed: %v", result.ErrorCodes)
	}
	return result.Success, nil
}
