package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// EmailService is the outbound mail collaborator. Fire-and-forget: the
// domain layer never assumes delivery.
type EmailService struct {
	client    *resend.Client
	fromEmail string
	appURL    string
	appName   string
	isDev     bool
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		appURL:    appURL,
		appName:   appName,
		isDev:     isDev,
	}
}

func (s *EmailService) SendWelcomeEmail(email, username string) error {
	subject, body := welcomeEmailTemplate(username, s.appName)
	return s.send("welcome", email, subject, body)
}

func (s *EmailService) SendResetPasswordEmail(email, username, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password/%s", s.appURL, token)
	subject, body := resetPasswordEmailTemplate(username, resetURL, s.appName)
	return s.send("reset_password", email, subject, body)
}

func (s *EmailService) SendNewResponseEmail(backofficeEmail, responseID, requestID string) error {
	subject, body := newResponseEmailTemplate(responseID, requestID, s.appName)
	return s.send("new_response", backofficeEmail, subject, body)
}

func (s *EmailService) send(kind, to, subject, body string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", kind, "to", to, "subject", subject)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(context.Background(), params)
	if err == nil {
		slog.Info("email sent", "type", kind, "to", to)
	}
	return err
}
