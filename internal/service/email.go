package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"

	"planettalk-agent-backend/internal/domain"
)

type emailService struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewEmailService(host string, port int, username, password, from string) EmailService {
	return &emailService{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (s *emailService) SendPayoutRequested(ctx context.Context, email, name string, amount decimal.Decimal, currency string, method domain.PayoutMethod) error {
	subject := "Payout request received"
	body := fmt.Sprintf("Hello %s,\n\nWe received your payout request of %s %s via %s. You will be notified once it has been reviewed.\n\nBest regards,\nThe PlanetTalk Agent Team",
		name, amount.StringFixed(2), currency, method)
	return s.send(email, subject, body)
}

func (s *emailService) SendPayoutApproved(ctx context.Context, email, name string, amount decimal.Decimal, currency string) error {
	subject := "Payout approved"
	body := fmt.Sprintf("Hello %s,\n\nYour payout of %s %s has been approved and will be processed shortly.\n\nBest regards,\nThe PlanetTalk Agent Team",
		name, amount.StringFixed(2), currency)
	return s.send(email, subject, body)
}

func (s *emailService) SendPayoutCompleted(ctx context.Context, email, name string, netAmount decimal.Decimal, currency string) error {
	subject := "Payout completed"
	body := fmt.Sprintf("Hello %s,\n\nYour payout has been completed. A net amount of %s %s is on its way to you.\n\nBest regards,\nThe PlanetTalk Agent Team",
		name, netAmount.StringFixed(2), currency)
	return s.send(email, subject, body)
}

func (s *emailService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.host, s.port, s.username, s.password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email via gomail: %w", err)
	}
	return nil
}
