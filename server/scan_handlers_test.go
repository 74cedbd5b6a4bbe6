package server

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Anomaly-E-E/Falco/internal/auth"
	"github.com/Anomaly-E-E/Falco/models"
	"github.com/Anomaly-E-E/Falco/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var sampleFindings = []models.Vulnerability{
	{
		Line:     3,
		Severity: models.SeverityHigh,
		Type:     "SQL Injection",
		Problem:  "Query built by string concatenation",
		Attack:   "Read arbitrary rows from the database",
		Fix:      "Use parameterized queries",
	},
}

// seedUser creates a verified user directly in the store and returns a
// bearer token for it.
func seedUser(t *testing.T, s *Server, db *gorm.DB, email string, credits int) (uint, string) {
	t.Helper()

	user := &models.User{
		Email:        email,
		PasswordHash: "hash",
		IsVerified:   true,
		Credits:      credits,
	}
	require.NoError(t, db.Create(user).Error)

	token, err := auth.GenerateToken(s.config.JWTSecret, user.ID, email, 0)
	require.NoError(t, err)
	return user.ID, token
}

func analyzeRequest(t *testing.T, app *fiber.App, token, code string) (int, map[string]any) {
	t.Helper()

	resp := doJSON(t, app, fiber.MethodPost, "/api/scans/analyze",
		map[string]string{"code": code}, token)
	return resp.StatusCode, decodeBody(t, resp)
}

func TestAnalyzeScan(t *testing.T) {
	analyzer := &stubAnalyzer{findings: sampleFindings}
	s, app, db := newTestServer(t, analyzer)

	userID, token := seedUser(t, s, db, "scanner@example.com", 10)

	status, body := analyzeRequest(t, app, token, "def get(user_id):\n  q = \"SELECT * FROM users WHERE id = \" + user_id")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Scan completed successfully", body["message"])
	assert.Equal(t, 1, analyzer.calls)

	scan := body["scan"].(map[string]any)
	assert.Equal(t, "python", scan["language"])
	assert.Equal(t, float64(1), scan["vulnerabilitiesCount"])
	assert.Equal(t, float64(9), scan["creditsRemaining"])
	assert.NotEmpty(t, scan["id"])
	assert.NotEmpty(t, scan["scannedAt"])

	findings := scan["vulnerabilities"].([]any)
	require.Len(t, findings, 1)
	first := findings[0].(map[string]any)
	assert.Equal(t, "HIGH", first["severity"])
	assert.Equal(t, "SQL Injection", first["type"])

	// The credit was spent and the scan persisted.
	var user models.User
	require.NoError(t, db.First(&user, userID).Error)
	assert.Equal(t, 9, user.Credits)

	var count int64
	require.NoError(t, db.Model(&models.Scan{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAnalyzeScanValidation(t *testing.T) {
	analyzer := &stubAnalyzer{findings: sampleFindings}
	s, app, db := newTestServer(t, analyzer)
	_, token := seedUser(t, s, db, "val@example.com", 10)

	tests := []struct {
		name    string
		code    string
		wantErr string
	}{
		{"Empty Code", "", "Code is required"},
		{"Too Long", "def f():" + strings.Repeat("#", 393), "Code too long. Maximum 400 characters allowed."},
		{"Whitespace Only", "   \n\t  ", "Code cannot be empty"},
		{"Unknown Language", "hello world", "Could not detect language. Supported languages: python, javascript, java, c/c++"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := analyzeRequest(t, app, token, tt.code)
			require.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, tt.wantErr, body["error"])
		})
	}

	// None of the rejected submissions reached the AI client.
	assert.Equal(t, 0, analyzer.calls)
}

func TestAnalyzeScanLengthBoundary(t *testing.T) {
	analyzer := &stubAnalyzer{}
	s, app, db := newTestServer(t, analyzer)
	_, token := seedUser(t, s, db, "boundary@example.com", 10)

	// Exactly 400 characters passes the length check.
	code := "def f():" + strings.Repeat("#", 392)
	require.Len(t, code, 400)

	status, _ := analyzeRequest(t, app, token, code)
	require.Equal(t, fiber.StatusOK, status)

	// One more character fails it.
	status, body := analyzeRequest(t, app, token, code+"#")
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Code too long. Maximum 400 characters allowed.", body["error"])
}

func TestAnalyzeScanInsufficientCredits(t *testing.T) {
	analyzer := &stubAnalyzer{findings: sampleFindings}
	s, app, db := newTestServer(t, analyzer)
	_, token := seedUser(t, s, db, "broke@example.com", 0)

	status, body := analyzeRequest(t, app, token, "def f(): pass")
	require.Equal(t, fiber.StatusPaymentRequired, status)
	assert.Contains(t, body["error"], "Insufficient credits")
	assert.Equal(t, float64(0), body["credits"])

	// The AI client is never invoked for a user without credits.
	assert.Equal(t, 0, analyzer.calls)
}

func TestAnalyzeScanSpendsLastCredit(t *testing.T) {
	analyzer := &stubAnalyzer{}
	s, app, db := newTestServer(t, analyzer)
	userID, token := seedUser(t, s, db, "last@example.com", 1)

	status, body := analyzeRequest(t, app, token, "def f(): pass")
	require.Equal(t, fiber.StatusOK, status)
	scan := body["scan"].(map[string]any)
	assert.Equal(t, float64(0), scan["creditsRemaining"])

	var user models.User
	require.NoError(t, db.First(&user, userID).Error)
	assert.Equal(t, 0, user.Credits)

	status, body = analyzeRequest(t, app, token, "def f(): pass")
	require.Equal(t, fiber.StatusPaymentRequired, status)
	assert.Equal(t, float64(0), body["credits"])
}

func TestAnalyzeScanAIFailure(t *testing.T) {
	analyzer := &stubAnalyzer{err: errors.New("provider exploded")}
	s, app, db := newTestServer(t, analyzer)
	userID, token := seedUser(t, s, db, "aifail@example.com", 5)

	status, body := analyzeRequest(t, app, token, "def f(): pass")
	require.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "An error occurred during scan", body["error"])
	// Provider detail stays server-side.
	assert.NotContains(t, body, "details")

	// No credit spent, no scan recorded.
	var user models.User
	require.NoError(t, db.First(&user, userID).Error)
	assert.Equal(t, 5, user.Credits)

	var count int64
	require.NoError(t, db.Model(&models.Scan{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

// failingScanRepo delegates to the wrapped repository but fails every
// Create, simulating a store outage at insert time.
type failingScanRepo struct {
	repository.ScanRepository
}

func (r *failingScanRepo) Create(ctx context.Context, scan *models.Scan) error {
	return errors.New("store unavailable")
}

// failingUserRepo delegates to the wrapped repository but fails every
// DeductCredit.
type failingUserRepo struct {
	repository.UserRepository
}

func (r *failingUserRepo) DeductCredit(ctx context.Context, id uint, expected int) error {
	return errors.New("store unavailable")
}

func TestAnalyzeScanInsertFailure(t *testing.T) {
	analyzer := &stubAnalyzer{findings: sampleFindings}
	s, app, db := newTestServer(t, analyzer)
	userID, token := seedUser(t, s, db, "insertfail@example.com", 5)

	s.scanRepo = &failingScanRepo{s.scanRepo}

	status, body := analyzeRequest(t, app, token, "def f(): pass")
	require.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Failed to save scan result", body["error"])

	// The credit was already spent and is not rolled back; the failure
	// is surfaced instead of being reported as a successful scan.
	var user models.User
	require.NoError(t, db.First(&user, userID).Error)
	assert.Equal(t, 4, user.Credits)

	var count int64
	require.NoError(t, db.Model(&models.Scan{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestAnalyzeScanDeductFailure(t *testing.T) {
	analyzer := &stubAnalyzer{findings: sampleFindings}
	s, app, db := newTestServer(t, analyzer)
	userID, token := seedUser(t, s, db, "deductfail@example.com", 5)

	s.userRepo = &failingUserRepo{s.userRepo}

	status, body := analyzeRequest(t, app, token, "def f(): pass")
	require.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Failed to deduct credit", body["error"])

	// Nothing recorded, balance untouched.
	var user models.User
	require.NoError(t, db.First(&user, userID).Error)
	assert.Equal(t, 5, user.Credits)

	var count int64
	require.NoError(t, db.Model(&models.Scan{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestAnalyzeScanCountsCharactersNotBytes(t *testing.T) {
	analyzer := &stubAnalyzer{}
	s, app, db := newTestServer(t, analyzer)
	userID, token := seedUser(t, s, db, "utf8@example.com", 10)

	// 8 ASCII + 392 two-byte runes: 400 characters, 792 bytes. The limit
	// is on characters, so this passes.
	code := "def f():" + strings.Repeat("é", 392)
	require.Equal(t, 400, len([]rune(code)))
	require.Greater(t, len(code), maxCodeLength)

	status, body := analyzeRequest(t, app, token, code)
	require.Equal(t, fiber.StatusOK, status)

	// The stored code length counts characters too.
	scan := body["scan"].(map[string]any)
	assert.Equal(t, float64(400), scan["codeLength"])

	var stored models.Scan
	require.NoError(t, db.Where("user_id = ?", userID).First(&stored).Error)
	assert.Equal(t, 400, stored.CodeLength)

	// One more character crosses the limit.
	status, body = analyzeRequest(t, app, token, code+"é")
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Code too long. Maximum 400 characters allowed.", body["error"])
}

func TestAnalyzeScanNoFindings(t *testing.T) {
	analyzer := &stubAnalyzer{findings: []models.Vulnerability{}}
	s, app, db := newTestServer(t, analyzer)
	_, token := seedUser(t, s, db, "clean@example.com", 10)

	status, body := analyzeRequest(t, app, token, "def f(): pass")
	require.Equal(t, fiber.StatusOK, status)

	scan := body["scan"].(map[string]any)
	assert.Equal(t, float64(0), scan["vulnerabilitiesCount"])
	assert.Empty(t, scan["vulnerabilities"])
}

func TestGetScanHistory(t *testing.T) {
	analyzer := &stubAnalyzer{findings: sampleFindings}
	s, app, db := newTestServer(t, analyzer)
	_, token := seedUser(t, s, db, "history@example.com", 10)

	// Empty history first.
	resp := doJSON(t, app, fiber.MethodGet, "/api/scans/history", nil, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(0), body["totalScans"])
	assert.Empty(t, body["scans"])

	// Two scans, then verify newest-first ordering and projection shape.
	status, _ := analyzeRequest(t, app, token, "def f(): pass")
	require.Equal(t, fiber.StatusOK, status)
	status, _ = analyzeRequest(t, app, token, "const x = 1;")
	require.Equal(t, fiber.StatusOK, status)

	resp = doJSON(t, app, fiber.MethodGet, "/api/scans/history", nil, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, float64(2), body["totalScans"])

	scans := body["scans"].([]any)
	require.Len(t, scans, 2)

	// Newest first: the javascript scan was submitted last.
	first := scans[0].(map[string]any)
	assert.Equal(t, "javascript", first["language"])
	assert.Equal(t, "completed", first["status"])
	assert.NotEmpty(t, first["scannedAt"])
	assert.Contains(t, first, "codeLength")
	assert.Contains(t, first, "vulnerabilitiesCount")
	// History omits the finding details.
	assert.NotContains(t, first, "vulnerabilities")
}

func TestGetScanHistoryScopedToUser(t *testing.T) {
	analyzer := &stubAnalyzer{}
	s, app, db := newTestServer(t, analyzer)
	_, tokenA := seedUser(t, s, db, "a@example.com", 10)
	_, tokenB := seedUser(t, s, db, "b@example.com", 10)

	status, _ := analyzeRequest(t, app, tokenA, "def f(): pass")
	require.Equal(t, fiber.StatusOK, status)

	resp := doJSON(t, app, fiber.MethodGet, "/api/scans/history", nil, tokenB)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(0), body["totalScans"])
}
