package mailer

import (
	"context"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/unclebandit/mailleopard-backend/internal/config"
)

// GmailTransport sends through the Gmail API using OAuth2 client credentials
// and a refresh token for the sender mailbox.
type GmailTransport struct {
	service *gmail.Service
	from    string
}

func NewGmailTransport(ctx context.Context, cfg config.GmailConfig, senderAddress string) (*GmailTransport, error) {
	if senderAddress == "" {
		return nil, fmt.Errorf("gmail: sender address is required")
	}
	if cfg.ClientID == "" || cfg.RefreshToken == "" {
		return nil, fmt.Errorf("gmail: client id and refresh token are required")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}
	client := oauthCfg.Client(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("gmail: failed to create service: %w", err)
	}

	from := senderAddress
	if cfg.SenderName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.SenderName, senderAddress)
	}
	return &GmailTransport{service: svc, from: from}, nil
}

func (g *GmailTransport) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = g.from
	}
	raw, err := BuildMessage(msg)
	if err != nil {
		return err
	}

	gmailMsg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}
	if _, err := g.service.Users.Messages.Send("me", gmailMsg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail: failed to send email: %w", err)
	}
	return nil
}

var _ Transport = (*GmailTransport)(nil)
