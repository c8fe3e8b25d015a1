// Package notify delivers call-center notifications over SMTP.
package notify

import (
	"context"
	"fmt"
	"net"
	"time"

	"medicore_backend/internal/config"
	"medicore_backend/internal/leads/repository"

	gomail "github.com/wneessen/go-mail"
)

const notificationSubject = "New lead ready for follow-up"

// EmailNotifier sends the call center a heads-up when a novel lead survives
// the duplicate check.
type EmailNotifier struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
	toEmail   string
}

func NewEmailNotifier(cfg *config.Config) *EmailNotifier {
	return &EmailNotifier{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		username:  cfg.SMTPUser,
		password:  cfg.SMTPPassword,
		fromEmail: cfg.EmailFrom,
		toEmail:   cfg.CallCenterEmail,
	}
}

func (n *EmailNotifier) NotifyCallCenter(ctx context.Context, lead repository.Lead) error {
	msg := gomail.NewMsg()
	if err := msg.From(n.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(n.toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(notificationSubject)
	msg.SetBodyString(gomail.TypeTextPlain, fmt.Sprintf(
		"New lead '%s' (score %d, source %s) needs immediate follow-up.\nEmail: %s\nPhone: %s\n",
		lead.Name, lead.AIScore, lead.Source, lead.Email, lead.Phone,
	))

	client, err := gomail.NewClient(n.host,
		gomail.WithPort(n.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(n.username),
		gomail.WithPassword(n.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}
