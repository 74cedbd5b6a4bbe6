package server

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Anomaly-E-E/Falco/internal/language"
	"github.com/Anomaly-E-E/Falco/middleware"
	"github.com/Anomaly-E-E/Falco/models"

	"github.com/gofiber/fiber/v2"
)

// maxCodeLength caps the size of a submitted snippet.
const maxCodeLength = 400

// AnalyzeScan handles POST /api/scans/analyze
func (s *Server) AnalyzeScan(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Code == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Code is required"))
	}
	// The limit is on characters, not bytes; multibyte snippets count
	// by rune.
	codeLength := utf8.RuneCountInString(req.Code)
	if codeLength > maxCodeLength {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(fmt.Sprintf("Code too long. Maximum %d characters allowed.", maxCodeLength)))
	}
	if strings.TrimSpace(req.Code) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Code cannot be empty"))
	}

	user, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			&models.AppError{Code: "USER_FETCH_FAILED", Message: "Failed to fetch user data"})
	}

	if user.Credits < 1 {
		// The 402 body echoes the balance so clients can display it
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error":   "Insufficient credits. Please purchase more credits to continue scanning.",
			"credits": user.Credits,
		})
	}

	lang := language.Detect(req.Code)
	if lang == language.Unknown {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(fmt.Sprintf("Could not detect language. Supported languages: %s",
				strings.Join(language.Supported, ", "))))
	}

	middleware.Logger.Info("scan requested",
		"email", user.Email,
		"language", lang,
		"code_length", codeLength,
	)

	findings, err := s.analyzer.AnalyzeCode(c.Context(), req.Code, lang)
	if err != nil {
		middleware.Logger.Error("AI analysis failed", "error", err.Error(), "user_id", userID)
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			&models.AppError{Code: "ANALYSIS_FAILED", Message: "An error occurred during scan"})
	}

	// Optimistic decrement guarded by the balance read above. A concurrent
	// scan spending the same credit makes this fail instead of double-spending.
	if err := s.userRepo.DeductCredit(c.Context(), userID, user.Credits); err != nil {
		middleware.Logger.Error("credit deduction failed", "error", err.Error(), "user_id", userID)
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			&models.AppError{Code: "CREDIT_DEDUCTION_FAILED", Message: "Failed to deduct credit"})
	}

	scan := &models.Scan{
		UserID:               userID,
		CodeLength:           codeLength,
		Language:             lang,
		Status:               models.ScanStatusCompleted,
		VulnerabilitiesCount: len(findings),
		Vulnerabilities:      findings,
	}
	if err := s.scanRepo.Create(c.Context(), scan); err != nil {
		// The credit is already spent and is not rolled back; surfacing
		// the failure beats pretending the scan was recorded.
		middleware.Logger.Error("failed to record scan", "error", err.Error(), "user_id", userID)
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			&models.AppError{Code: "SCAN_SAVE_FAILED", Message: "Failed to save scan result"})
	}

	return c.JSON(fiber.Map{
		"message": "Scan completed successfully",
		"scan": fiber.Map{
			"id":                   scan.ID,
			"language":             scan.Language,
			"codeLength":           scan.CodeLength,
			"vulnerabilitiesCount": scan.VulnerabilitiesCount,
			"vulnerabilities":      scan.Vulnerabilities,
			"creditsRemaining":     user.Credits - 1,
			"scannedAt":            scan.CreatedAt,
		},
	})
}

// GetScanHistory handles GET /api/scans/history
func (s *Server) GetScanHistory(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	scans, err := s.scanRepo.ListByUser(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	summaries := make([]models.ScanSummary, 0, len(scans))
	for i := range scans {
		summaries = append(summaries, scans[i].Summary())
	}

	return c.JSON(fiber.Map{
		"totalScans": len(summaries),
		"scans":      summaries,
	})
}
