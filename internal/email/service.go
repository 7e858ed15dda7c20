package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/filesure/referral-rewards-api/internal/logging"
)

// Service sends transactional email over SMTP. Every send is best-effort:
// callers dispatch in goroutines and only log failures.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	logger       *logging.Logger
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword string, logger *logging.Logger) *Service {
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    smtpUser,
		logger:       logger,
	}
}

// configured reports whether SMTP credentials are present. Without them
// sends are skipped, which keeps local development quiet.
func (s *Service) configured() bool {
	return s.smtpHost != "" && s.smtpUser != ""
}

// SendWelcomeEmail greets a new user and hands them their referral link
func (s *Service) SendWelcomeEmail(ctx context.Context, toEmail, name, referralCode, referralLink string) error {
	body, err := render(welcomeTemplate, map[string]any{
		"Name":         name,
		"ReferralCode": referralCode,
		"ReferralLink": referralLink,
	})
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	return s.send(ctx, toEmail, "Welcome! Here is your referral link", body)
}

// SendReferralSignupEmail tells a referrer that someone signed up with
// their code
func (s *Service) SendReferralSignupEmail(ctx context.Context, toEmail, referrerID, newUserName, newUserEmail string) error {
	body, err := render(referralSignupTemplate, map[string]any{
		"ReferrerID":   referrerID,
		"NewUserName":  newUserName,
		"NewUserEmail": newUserEmail,
	})
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	return s.send(ctx, toEmail, "Someone joined with your referral link!", body)
}

// SendFirstPurchaseEmail confirms the buyer's first-purchase credits
func (s *Service) SendFirstPurchaseEmail(ctx context.Context, toEmail, userID string, creditsEarned, balance int) error {
	body, err := render(firstPurchaseTemplate, map[string]any{
		"UserID":        userID,
		"CreditsEarned": creditsEarned,
		"Balance":       balance,
	})
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	return s.send(ctx, toEmail, fmt.Sprintf("You earned %d credits!", creditsEarned), body)
}

// SendReferralConversionEmail tells a referrer that a referred user made
// their first purchase
func (s *Service) SendReferralConversionEmail(ctx context.Context, toEmail, referrerID, buyerEmail string, creditsEarned int) error {
	body, err := render(referralConversionTemplate, map[string]any{
		"ReferrerID":    referrerID,
		"BuyerEmail":    buyerEmail,
		"CreditsEarned": creditsEarned,
	})
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	return s.send(ctx, toEmail, "Your referral converted - credits earned!", body)
}

// SendPasswordResetEmail delivers a password reset link
func (s *Service) SendPasswordResetEmail(ctx context.Context, toEmail, resetLink string) error {
	body, err := render(passwordResetTemplate, map[string]any{
		"ResetLink": resetLink,
	})
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	return s.send(ctx, toEmail, "Reset your password", body)
}

func (s *Service) send(_ context.Context, to, subject, body string) error {
	if !s.configured() {
		s.logger.Warn("email not configured, skipping send", "to", to, "subject", subject)
		return nil
	}

	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	if err := smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("email sent", "to", to, "subject", subject)
	return nil
}

func render(tmpl *template.Template, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}
