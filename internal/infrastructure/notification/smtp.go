package notification

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/billing"
)

// SMTPConfig holds mail submission settings
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type sendMailFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// SMTPSink delivers e-mail through an SMTP submission server
type SMTPSink struct {
	config   SMTPConfig
	sendMail sendMailFunc
	now      func() time.Time
}

// NewSMTPSink creates an e-mail sink
func NewSMTPSink(cfg SMTPConfig) (*SMTPSink, error) {
	if cfg.Host == "" {
		return nil, errors.New("notification: smtp host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("notification: smtp from address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPSink{config: cfg, sendMail: smtp.SendMail, now: time.Now}, nil
}

// Send implements billing.NotificationSink.
// net/smtp has no context support, so a cancelled context is only honored before dialing.
func (s *SMTPSink) Send(ctx context.Context, n billing.Notification) (string, error) {
	if n.Recipient == "" {
		return "", errors.New("notification: email recipient is empty")
	}
	if strings.ContainsAny(n.Recipient, "\r\n") {
		return "", fmt.Errorf("notification: invalid email recipient %q", n.Recipient)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.config.Host)
	msg := s.buildMessage(messageID, n)

	var auth smtp.Auth
	if s.config.User != "" {
		auth = smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	}

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	if err := s.sendMail(addr, auth, s.config.From, []string{n.Recipient}, msg); err != nil {
		return "", fmt.Errorf("notification: smtp send: %w", err)
	}
	return messageID, nil
}

func (s *SMTPSink) buildMessage(messageID string, n billing.Notification) []byte {
	var b strings.Builder
	b.WriteString("From: " + s.config.From + "\r\n")
	b.WriteString("To: " + n.Recipient + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", n.Subject) + "\r\n")
	b.WriteString("Date: " + s.now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("Message-ID: " + messageID + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(n.Body, "\n", "\r\n"))
	return []byte(b.String())
}

var _ billing.NotificationSink = (*SMTPSink)(nil)
