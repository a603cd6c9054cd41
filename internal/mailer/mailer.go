// Package mailer delivers fully personalized messages. The dispatcher treats a
// Transport as a black box: one call per recipient, no retry.
package mailer

import (
	"context"
	"fmt"

	"github.com/unclebandit/mailleopard-backend/internal/config"
	"github.com/unclebandit/mailleopard-backend/internal/logger"
)

// Transport is implemented by every delivery backend (SMTP, Gmail API, log).
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Message is one outgoing email.
type Message struct {
	From        string   // sender address; the transport default is used when empty
	To          string   // recipient address
	Subject     string
	TextBody    string   // plain-text body
	HTMLBody    string   // optional HTML alternative
	Attachments []string // file paths, attached as raw bytes
}

// New builds the transport selected by cfg.Provider.
func New(cfg config.MailConfig, log *logger.Logger) (Transport, error) {
	switch cfg.Provider {
	case "", "smtp":
		return NewSMTPTransport(cfg.SMTP, cfg.From)
	case "gmail":
		return NewGmailTransport(context.Background(), cfg.Gmail, cfg.From)
	case "log":
		return NewLogTransport(log, cfg.From), nil
	default:
		return nil, fmt.Errorf("mailer: unknown provider %q", cfg.Provider)
	}
}
