package mail

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/kumar-mithlesh/headless-api/internal/redact"
)

// Templates known to senders.
const (
	TemplateForgotPassword = "forgot_password"
)

// Message is one outbound mail.
type Message struct {
	// ID is assigned by the dispatcher.
	ID       string
	To       string
	Template string
	Subject  string
	Payload  map[string]string
}

// Sender delivers a message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them. Payload
// values are redacted so tokens never reach the log.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	keys := make([]string, 0, len(msg.Payload))
	for k := range msg.Payload {
		keys = append(keys, k)
	}
	log.Info("mail delivered",
		"message_id", msg.ID,
		"to", redact.Email(msg.To),
		"template", msg.Template,
		"subject", msg.Subject,
		"payload_keys", keys)
	return nil
}

// ForgotPassword builds the reset-password mail carrying a link with the
// reset token.
func ForgotPassword(resetURL, to, token string) Message {
	link := resetURL
	if u, err := url.Parse(resetURL); err == nil {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
		link = u.String()
	}
	return Message{
		To:       to,
		Template: TemplateForgotPassword,
		Subject:  "Reset password instructions",
		Payload: map[string]string{
			"reset_url": link,
			"token":     token,
		},
	}
}
