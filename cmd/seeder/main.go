//cmd/seeder/main.go
package main

import (
	"context"
	"errors"

	"github.com/unclebandit/mailleopard-backend/internal/app"
	"github.com/unclebandit/mailleopard-backend/internal/config"
	"github.com/unclebandit/mailleopard-backend/internal/db"
	appErrors "github.com/unclebandit/mailleopard-backend/internal/errors"
	"github.com/unclebandit/mailleopard-backend/internal/logger"
	"github.com/unclebandit/mailleopard-backend/internal/model"
)

const (
	sampleList     = "Newsletter Subscribers"
	sampleTemplate = "Welcome Email"
	sampleCampaign = "Welcome Campaign 2024"
)

var sampleContacts = []model.Contact{
	{
		Email:        "john.doe@example.com",
		FirstName:    "John",
		LastName:     "Doe",
		Company:      "Example Corp",
		CustomFields: map[string]string{"department": "Marketing", "city": "New York"},
	},
	{
		Email:        "jane.smith@example.com",
		FirstName:    "Jane",
		LastName:     "Smith",
		Company:      "Tech Solutions",
		CustomFields: map[string]string{"department": "Sales", "city": "Los Angeles"},
	},
}

const welcomeBody = `Hello {{first_name}} {{last_name}},

Welcome to our newsletter! We're excited to have you from {{company}}.

Your email: {{email}}
Department: {{custom.department}}
Location: {{custom.city}}

Best regards,
The Team
`

const welcomeHTML = `<html>
<body>
<h2>Hello {{first_name}} {{last_name}},</h2>
<p>Welcome to our newsletter! We're excited to have you from <strong>{{company}}</strong>.</p>
<p>Your details:</p>
<ul>
    <li>Email: {{email}}</li>
    <li>Department: {{custom.department}}</li>
    <li>Location: {{custom.city}}</li>
</ul>
<p>Best regards,<br>The Team</p>
</body>
</html>
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "text").Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.New(cfg.Log.Level, "text")

	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.Close()

	if err := db.MigrateUp(a.DB); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	if err := seed(context.Background(), a, log); err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}
	log.Info().Msg("database seeding completed successfully")
}

// seed loads the sample contacts, list, template and draft campaign.
// Records that already exist are left as they are.
func seed(ctx context.Context, a *app.App, log *logger.Logger) error {
	emails := make([]string, 0, len(sampleContacts))
	for _, c := range sampleContacts {
		if err := skipExisting(log, a.Contacts.AddContact(ctx, &c)); err != nil {
			return err
		}
		emails = append(emails, c.Email)
	}

	_, err := a.Lists.CreateContactList(ctx, sampleList, "Main newsletter list")
	if err := skipExisting(log, err); err != nil {
		return err
	}
	if _, err := a.Lists.AddContactsToList(ctx, sampleList, emails); err != nil {
		return err
	}

	err = a.Templates.SaveTemplate(ctx, &model.EmailTemplate{
		Name:     sampleTemplate,
		Subject:  "Welcome {{first_name}}! Thanks for subscribing",
		Body:     welcomeBody,
		HTMLBody: welcomeHTML,
	})
	if err := skipExisting(log, err); err != nil {
		return err
	}

	_, err = a.Campaigns.CreateCampaign(ctx, sampleCampaign, sampleTemplate, []string{sampleList})
	return skipExisting(log, err)
}

func skipExisting(log *logger.Logger, err error) error {
	if errors.Is(err, appErrors.ErrAlreadyExists) {
		log.Info().Err(err).Msg("already seeded")
		return nil
	}
	return err
}
