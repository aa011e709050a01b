// Package email delivers transactional notifications through
// SendGrid. Delivery is best-effort; callers log failures and never
// fail the triggering operation.
package email

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/logger"
)

type Sender struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

func NewSender(apiKey, fromName, fromEmail string) *Sender {
	return &Sender{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *Sender) SendOrderDecision(ctx context.Context, to, eventName string, orderStatus domain.OrderStatus, reason string) error {
	subject := fmt.Sprintf("Your order for %s", eventName)
	body := fmt.Sprintf("Your order for %s is now %s.", eventName, orderStatus)
	if reason != "" {
		body += fmt.Sprintf(" Reason: %s.", reason)
	}
	return s.send(ctx, to, subject, body)
}

func (s *Sender) SendTicketsIssued(ctx context.Context, to, eventName string, count int) error {
	subject := fmt.Sprintf("Your tickets for %s", eventName)
	body := fmt.Sprintf("%d ticket(s) for %s have been issued. Show the QR code in the app at the door.", count, eventName)
	return s.send(ctx, to, subject, body)
}

func (s *Sender) SendMembershipDecision(ctx context.Context, to, clubName string, memberStatus domain.MembershipStatus) error {
	subject := fmt.Sprintf("Your membership request for %s", clubName)
	body := fmt.Sprintf("Your membership request for %s was %s.", clubName, memberStatus)
	return s.send(ctx, to, subject, body)
}

func (s *Sender) send(ctx context.Context, to, subject, body string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	message := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), body, body)

	resp, err := s.client.SendWithContext(ctx, message)
	logger.ExternalServiceResult("sendgrid", "send_email", err, "subject", subject)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}

// NoopSender drops every notification; used when no SendGrid key is
// configured (local development, tests).
type NoopSender struct{}

func (NoopSender) SendOrderDecision(ctx context.Context, to, eventName string, orderStatus domain.OrderStatus, reason string) error {
	logger.Debug("email disabled, dropping order decision notification", "to", to)
	return nil
}

func (NoopSender) SendTicketsIssued(ctx context.Context, to, eventName string, count int) error {
	logger.Debug("email disabled, dropping tickets issued notification", "to", to)
	return nil
}

func (NoopSender) SendMembershipDecision(ctx context.Context, to, clubName string, memberStatus domain.MembershipStatus) error {
	logger.Debug("email disabled, dropping membership decision notification", "to", to)
	return nil
}
