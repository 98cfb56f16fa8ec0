package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/deroyal/feedback-portal/backend/internal/api"
	"github.com/deroyal/feedback-portal/backend/internal/middleware"
	"github.com/deroyal/feedback-portal/backend/internal/models"
	"github.com/deroyal/feedback-portal/backend/internal/router"
	"github.com/deroyal/feedback-portal/backend/internal/service"
	"github.com/deroyal/feedback-portal/backend/internal/testhelpers"
	"github.com/deroyal/feedback-portal/backend/internal/types"
)

// captureEmailService records outgoing mail so tests can read the login code
// that is deliberately missing from HTTP responses.
type captureEmailService struct {
	mu        sync.Mutex
	lastCode  string
	lastEmail string
}

func (s *captureEmailService) SendLoginCode(email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastEmail = email
	s.lastCode = code
	return nil
}

func (s *captureEmailService) SendFeedbackNotification(feedback *models.Feedback) error { return nil }

func (s *captureEmailService) SendEmail(to, subject, body string) error { return nil }

func (s *captureEmailService) code() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCode
}

type stubCaptchaService struct {
	valid bool
}

func (s *stubCaptchaService) Verify(ctx context.Context, token string) (bool, error) {
	return s.valid, nil
}

type stubAttachmentService struct{}

func (s *stubAttachmentService) Upload(ctx context.Context, filename string, size int64, content []byte) (*service.Attachment, error) {
	return &service.Attachment{Name: filename, URL: "https://example.test/" + filename}, nil
}

type testApp struct {
	router *gin.Engine
	emails *captureEmailService
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupTestDatabase(t)
	emails := &captureEmailService{}

	hash, err := bcrypt.GenerateFromPassword([]byte("open sesame"), bcrypt.MinCost)
	require.NoError(t, err)

	authService := service.NewAuthService(service.NewCodeStore(), "test-secret", "deroyal.com", string(hash))
	feedbackService := service.NewFeedbackService(db, emails)

	authHandler := api.NewAuthHandler(authService, emails)
	feedbackHandler := api.NewFeedbackHandler(feedbackService, &stubCaptchaService{valid: true}, &stubAttachmentService{})

	// An unreachable redis makes the limiters fail open.
	dead := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	r := router.SetupRouter(
		authHandler,
		feedbackHandler,
		authService,
		middleware.NewCodeRequestRateLimiter(dead),
		middleware.NewSubmissionRateLimiter(dead),
	)

	return &testApp{router: r, emails: emails}
}

func (a *testApp) doJSON(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// login walks the full admin flow and returns a session token.
func (a *testApp) login(t *testing.T) string {
	t.Helper()

	w := a.doJSON(http.MethodPost, "/api/v1/auth/code", types.SendCodeRequest{Email: "admin@deroyal.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = a.doJSON(http.MethodPost, "/api/v1/auth/verify", types.VerifyCodeRequest{
		Email: "admin@deroyal.com",
		Code:  a.emails.code(),
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp types.VerifyCodeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionToken)
	return resp.SessionToken
}

func submitForm(t *testing.T, a *testApp, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp(t)

	w := app.doJSON(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPassphraseGate(t *testing.T) {
	app := setupTestApp(t)

	w := app.doJSON(http.MethodPost, "/api/v1/auth/passphrase", types.ValidatePassphraseRequest{Passphrase: "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.doJSON(http.MethodPost, "/api/v1/auth/passphrase", types.ValidatePassphraseRequest{Passphrase: "open sesame"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp types.ValidatePassphraseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Token)
}

func TestSendCodeRejectsForeignDomain(t *testing.T) {
	app := setupTestApp(t)

	w := app.doJSON(http.MethodPost, "/api/v1/auth/code", types.SendCodeRequest{Email: "intruder@example.com"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendCodeNeverEchoesCode(t *testing.T) {
	app := setupTestApp(t)

	w := app.doJSON(http.MethodPost, "/api/v1/auth/code", types.SendCodeRequest{Email: "admin@deroyal.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	code := app.emails.code()
	require.Len(t, code, 6)
	// Delivery happens over email only.
	assert.NotContains(t, w.Body.String(), code)
}

func TestVerifyCodeFlow(t *testing.T) {
	app := setupTestApp(t)

	w := app.doJSON(http.MethodPost, "/api/v1/auth/code", types.SendCodeRequest{Email: "admin@deroyal.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	code := app.emails.code()

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	w = app.doJSON(http.MethodPost, "/api/v1/auth/verify", types.VerifyCodeRequest{Email: "admin@deroyal.com", Code: wrong}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.doJSON(http.MethodPost, "/api/v1/auth/verify", types.VerifyCodeRequest{Email: "admin@deroyal.com", Code: code}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	// Single use: the same code is spent.
	w = app.doJSON(http.MethodPost, "/api/v1/auth/verify", types.VerifyCodeRequest{Email: "admin@deroyal.com", Code: code}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitFeedback(t *testing.T) {
	app := setupTestApp(t)

	w := submitForm(t, app, map[string]string{
		"type":        "Safety Issue",
		"description": "Spill near dock 4",
		"email":       "worker@deroyal.com",
		"name":        "A. Worker",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["feedback_id"])
}

func TestSubmitFeedbackHoneypot(t *testing.T) {
	app := setupTestApp(t)

	w := submitForm(t, app, map[string]string{
		"type":        "Other",
		"description": "bot submission",
		"email":       "bot@deroyal.com",
		"honeypot":    "http://spam.example",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitFeedbackRequiresEmailWhenNamed(t *testing.T) {
	app := setupTestApp(t)

	w := submitForm(t, app, map[string]string{
		"type":        "Suggestion",
		"description": "no email given",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = submitForm(t, app, map[string]string{
		"type":         "Suggestion",
		"description":  "anonymous is fine without email",
		"is_anonymous": "true",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestDashboardRequiresSession(t *testing.T) {
	app := setupTestApp(t)

	w := app.doJSON(http.MethodGet, "/api/v1/feedback", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.doJSON(http.MethodGet, "/api/v1/feedback", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListFeedbackMasksAnonymous(t *testing.T) {
	app := setupTestApp(t)
	token := app.login(t)

	w := submitForm(t, app, map[string]string{
		"type":         "Concern",
		"description":  "anonymous concern",
		"is_anonymous": "true",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w = submitForm(t, app, map[string]string{
		"type":        "Suggestion",
		"description": "named suggestion",
		"email":       "worker@deroyal.com",
		"name":        "A. Worker",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = app.doJSON(http.MethodGet, "/api/v1/feedback", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Feedback []types.FeedbackResponse `json:"feedback"`
		Total    int                      `json:"total"`
		Stats    models.FeedbackStats     `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, models.FeedbackStats{Total: 2, New: 2, Archived: 0}, resp.Stats)

	for _, f := range resp.Feedback {
		if f.IsAnonymous {
			assert.Nil(t, f.Email)
			assert.Nil(t, f.Name)
		}
	}
}

func TestListFeedbackFilterByStatus(t *testing.T) {
	app := setupTestApp(t)
	token := app.login(t)

	w := submitForm(t, app, map[string]string{
		"type":        "Other",
		"description": "stays new",
		"email":       "worker@deroyal.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w = submitForm(t, app, map[string]string{
		"type":        "Other",
		"description": "gets archived",
		"email":       "worker@deroyal.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		FeedbackID string `json:"feedback_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = app.doJSON(http.MethodPost, "/api/v1/feedback/"+created.FeedbackID+"/archive", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.doJSON(http.MethodGet, "/api/v1/feedback?status=archived", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Feedback []types.FeedbackResponse `json:"feedback"`
		Total    int                      `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, created.FeedbackID, resp.Feedback[0].ID.String())
	require.NotNil(t, resp.Feedback[0].ArchivedBy)
	assert.Equal(t, "admin@deroyal.com", *resp.Feedback[0].ArchivedBy)
}

func TestUpdateNotesAndUnarchive(t *testing.T) {
	app := setupTestApp(t)
	token := app.login(t)

	w := submitForm(t, app, map[string]string{
		"type":        "Process Improvement",
		"description": "rearrange the staging area",
		"email":       "worker@deroyal.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		FeedbackID string `json:"feedback_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = app.doJSON(http.MethodPut, "/api/v1/feedback/"+created.FeedbackID+"/notes",
		types.UpdateNotesRequest{AdminNotes: "scheduled for Q4"}, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.doJSON(http.MethodPost, "/api/v1/feedback/"+created.FeedbackID+"/archive", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	w = app.doJSON(http.MethodPost, "/api/v1/feedback/"+created.FeedbackID+"/unarchive", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.doJSON(http.MethodGet, "/api/v1/feedback/"+created.FeedbackID, nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var detail types.FeedbackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "scheduled for Q4", detail.AdminNotes)
	assert.Equal(t, models.StatusNew, detail.Status)
	assert.Nil(t, detail.ArchivedAt)
	assert.Nil(t, detail.ArchivedBy)
}

func TestMutationsOnUnknownID(t *testing.T) {
	app := setupTestApp(t)
	token := app.login(t)

	unknown := "9f4a1f6e-8a3f-4c7e-9f3a-0b1c2d3e4f5a"
	w := app.doJSON(http.MethodPost, "/api/v1/feedback/"+unknown+"/archive", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.doJSON(http.MethodPost, "/api/v1/feedback/not-a-uuid/archive", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportCSVEndpoint(t *testing.T) {
	app := setupTestApp(t)
	token := app.login(t)

	w := app.doJSON(http.MethodGet, "/api/v1/feedback/export", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	resp := submitForm(t, app, map[string]string{
		"type":        "Safety Issue",
		"description": "forklift needs service",
		"email":       "worker@deroyal.com",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	w = app.doJSON(http.MethodGet, "/api/v1/feedback/export", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "feedback-export_")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, w.Body.String(), "forklift needs service")
}
