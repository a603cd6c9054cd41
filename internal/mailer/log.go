package mailer

import (
	"context"

	"github.com/unclebandit/mailleopard-backend/internal/logger"
)

// LogTransport records messages in the log instead of delivering them.
type LogTransport struct {
	log  *logger.Logger
	from string
}

func NewLogTransport(log *logger.Logger, from string) *LogTransport {
	if log == nil {
		log = logger.Nop()
	}
	return &LogTransport{log: log.WithComponent("mailer"), from: from}
}

func (t *LogTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.From == "" {
		msg.From = t.from
	}
	t.log.Info().
		Str("from", msg.From).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Bool("html", msg.HTMLBody != "").
		Int("attachments", len(msg.Attachments)).
		Msg("email not delivered: log transport")
	return nil
}

var _ Transport = (*LogTransport)(nil)
