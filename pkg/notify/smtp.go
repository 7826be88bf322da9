package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"simplist/pkg/config"
)

// SMTP sends notifications as plain-text mail via net/smtp. The recipients
// value is handed to the MTA verbatim as a single address; splitting a
// delimited list is deliberately left to the capability's owner.
type SMTP struct {
	addr     string
	from     string
	username string
	password string
	host     string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTP builds the smtp backend from config.
func NewSMTP(cfg config.SMTPConfig) *SMTP {
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	return &SMTP{
		addr:     fmt.Sprintf("%s:%d", cfg.Host, port),
		from:     cfg.From,
		username: cfg.Username,
		password: cfg.Password,
		host:     cfg.Host,
		send:     smtp.SendMail,
	}
}

func (s *SMTP) Send(ctx context.Context, recipients string, payload []byte) error {
	if s.host == "" {
		return fmt.Errorf("smtp host not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}
	msg := []byte("From: " + s.from + "\r\n" +
		"To: " + recipients + "\r\n" +
		"Subject: New form submission\r\n" +
		"Content-Type: application/json\r\n" +
		"\r\n" + string(payload) + "\r\n")
	return s.send(s.addr, auth, s.from, []string{recipients}, msg)
}
