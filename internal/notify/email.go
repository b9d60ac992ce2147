package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
)

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

// Email sends plain text e-mails over SMTP.
type Email struct {
	config  SmtpConfig
	subject string
}

func NewEmail(config SmtpConfig, subject string) Email {
	return Email{config: config, subject: subject}
}

func (e Email) message(to, text string) *email.Email {
	msg := email.NewEmail()
	msg.From = e.config.EmailAddress
	msg.To = []string{to}
	msg.Subject = e.subject
	msg.Text = []byte(text)
	return msg
}

// Send does not honor ctx cancellation once the SMTP exchange has started.
func (e Email) Send(ctx context.Context, to, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := e.message(to, text).Send(
		fmt.Sprintf("%s:%d", e.config.Server, e.config.Port),
		smtp.PlainAuth("", e.config.EmailAddress, e.config.Password, e.config.Server),
	)
	if err != nil {
		return fmt.Errorf("%w: smtp: %w", ErrDelivery, err)
	}
	return nil
}
