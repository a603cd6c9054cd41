package repository

import (
	"context"
	"database/sql"

	"github.com/unclebandit/mailleopard-backend/internal/model"
)

// Gateway bundles the repositories behind the lookups a dispatch run needs.
type Gateway struct {
	Contacts  ContactRepositoryInterface
	Templates TemplateRepositoryInterface
	Lists     ContactListRepositoryInterface
	Campaigns CampaignRepositoryInterface
	Logs      EmailLogRepositoryInterface
}

// NewGateway wires all PostgreSQL repositories on one connection pool.
func NewGateway(db *sql.DB) *Gateway {
	return &Gateway{
		Contacts:  &ContactRepository{DB: db},
		Templates: &TemplateRepository{DB: db},
		Lists:     &ContactListRepository{DB: db},
		Campaigns: &CampaignRepository{DB: db},
		Logs:      &EmailLogRepository{DB: db},
	}
}

func (g *Gateway) FindCampaign(ctx context.Context, name string) (*model.Campaign, error) {
	return g.Campaigns.GetByName(ctx, name)
}

func (g *Gateway) FindTemplate(ctx context.Context, id string) (*model.EmailTemplate, error) {
	return g.Templates.GetByID(ctx, id)
}

func (g *Gateway) FindContactList(ctx context.Context, id string) (*model.ContactList, error) {
	return g.Lists.GetByID(ctx, id)
}

func (g *Gateway) FindContact(ctx context.Context, id string) (*model.Contact, error) {
	return g.Contacts.GetByID(ctx, id)
}

func (g *Gateway) UpdateCampaignDelivery(ctx context.Context, name string, d model.CampaignDelivery) error {
	return g.Campaigns.UpdateDelivery(ctx, name, d)
}

func (g *Gateway) AppendLog(ctx context.Context, e *model.EmailLogEntry) error {
	return g.Logs.Append(ctx, e)
}
