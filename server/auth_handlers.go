package server

import (
	"github.com/Anomaly-E-E/Falco/internal/auth"
	"github.com/Anomaly-E-E/Falco/internal/validation"
	"github.com/Anomaly-E-E/Falco/middleware"
	"github.com/Anomaly-E-E/Falco/models"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email and password are required"))
	}

	email := validation.SanitizeEmail(req.Email)

	if !validation.IsValidEmail(email) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid email format"))
	}

	if valid, message := validation.ValidatePassword(req.Password); !valid {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(message))
	}

	// Check if the email is already taken
	existing, err := s.userRepo.GetByEmail(c.Context(), email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if existing != nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewConflictError("Email already registered"))
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	token := auth.NewVerificationToken()
	user := &models.User{
		Email:             email,
		PasswordHash:      hash,
		VerificationToken: &token,
		IsVerified:        false,
		Credits:           10, // free credits on signup
	}

	if err := s.userRepo.Create(c.Context(), user); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	// Fire-and-forget: an email provider outage must not block registration
	s.mailer.SendVerificationEmail(email, token)

	middleware.Logger.Info("user registered", "email", user.Email)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registration successful! Please check your email to verify your account.",
		"user":    user.Public(),
	})
}

// VerifyEmail handles POST /api/auth/verify-email
func (s *Server) VerifyEmail(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Token == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Verification token is required"))
	}

	user, err := s.userRepo.GetByVerificationToken(c.Context(), req.Token)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid or expired verification token"))
	}
	if user.IsVerified {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email is already verified"))
	}

	if err := s.userRepo.MarkVerified(c.Context(), user.ID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{
		"message": "Email verified successfully! You can now log in.",
		"email":   user.Email,
	})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email and password are required"))
	}

	email := validation.SanitizeEmail(req.Email)

	user, err := s.userRepo.GetByEmail(c.Context(), email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	// Same message for unknown email and wrong password, so responses
	// cannot be used to enumerate accounts.
	if user == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid email or password"))
	}

	if !user.IsVerified {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Please verify your email before logging in"))
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid email or password"))
	}

	token, err := auth.GenerateToken(s.config.JWTSecret, user.ID, user.Email, auth.DefaultTokenTTL)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user":    user.Public(),
	})
}
