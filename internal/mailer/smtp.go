package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"

	"github.com/unclebandit/mailleopard-backend/internal/config"
)

// SMTPTransport submits each message over its own SMTP session.
type SMTPTransport struct {
	cfg  config.SMTPConfig
	from string
	addr string
	// tlsConfig is used for STARTTLS; tests swap it out
	tlsConfig *tls.Config
	dialer    net.Dialer
}

// NewSMTPTransport validates cfg. When from is empty the username is used as the sender.
func NewSMTPTransport(cfg config.SMTPConfig, from string) (*SMTPTransport, error) {
	if cfg.Server == "" {
		return nil, fmt.Errorf("smtp: server is not configured")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if from == "" {
		from = cfg.Username
	}
	if from == "" {
		return nil, fmt.Errorf("smtp: sender address is not configured")
	}
	return &SMTPTransport{
		cfg:       cfg,
		from:      from,
		addr:      net.JoinHostPort(cfg.Server, strconv.Itoa(cfg.Port)),
		tlsConfig: &tls.Config{ServerName: cfg.Server},
		dialer:    net.Dialer{Timeout: 30 * time.Second},
	}, nil
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = t.from
	}
	raw, err := BuildMessage(msg)
	if err != nil {
		return err
	}

	conn, err := t.dialer.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return fmt.Errorf("smtp: dial %s: %w", t.addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, t.cfg.Server)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp: %w", err)
	}
	defer client.Close()

	// encryption is negotiated before credentials are sent
	if t.cfg.UseTLS {
		if err := client.StartTLS(t.tlsConfig); err != nil {
			return fmt.Errorf("smtp: starttls: %w", err)
		}
	}
	if t.cfg.Username != "" {
		auth := saslAuth{sasl.NewPlainClient("", t.cfg.Username, t.cfg.Password)}
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp: auth: %w", err)
		}
	}

	if err := client.Mail(envelopeAddress(msg.From)); err != nil {
		return fmt.Errorf("smtp: mail from: %w", err)
	}
	if err := client.Rcpt(envelopeAddress(msg.To)); err != nil {
		return fmt.Errorf("smtp: rcpt to: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp: data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("smtp: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	return client.Quit()
}

// saslAuth runs a SASL client over net/smtp. Unlike smtp.PlainAuth it also
// authenticates when use_tls is off and the server is not local.
type saslAuth struct {
	client sasl.Client
}

func (a saslAuth) Start(_ *smtp.ServerInfo) (string, []byte, error) {
	return a.client.Start()
}

func (a saslAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	return a.client.Next(fromServer)
}

var _ Transport = (*SMTPTransport)(nil)
