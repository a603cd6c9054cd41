package service_test

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/mailleopard-backend/internal/errors"
	"github.com/unclebandit/mailleopard-backend/internal/model"
	"github.com/unclebandit/mailleopard-backend/internal/repository"
)

// Mock repositories backed by maps

type MockContactRepo struct {
	byID map[string]*model.Contact
}

func NewMockContactRepo() *MockContactRepo {
	return &MockContactRepo{byID: map[string]*model.Contact{}}
}

func (m *MockContactRepo) Create(_ context.Context, c *model.Contact) error {
	for _, existing := range m.byID {
		if existing.Email == c.Email {
			return appErrors.NewAlreadyExists("contact", c.Email)
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now()
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *MockContactRepo) GetByID(_ context.Context, id string) (*model.Contact, error) {
	if c, ok := m.byID[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, appErrors.NewNotFound("contact", id)
}

func (m *MockContactRepo) GetByEmail(_ context.Context, email string) (*model.Contact, error) {
	for _, c := range m.byID {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, appErrors.NewNotFound("contact", email)
}

func (m *MockContactRepo) Update(_ context.Context, c *model.Contact) error {
	if _, ok := m.byID[c.ID]; !ok {
		return appErrors.NewNotFound("contact", c.Email)
	}
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *MockContactRepo) DeleteByEmail(_ context.Context, email string) error {
	for id, c := range m.byID {
		if c.Email == email {
			delete(m.byID, id)
			return nil
		}
	}
	return appErrors.NewNotFound("contact", email)
}

func (m *MockContactRepo) ListAll(_ context.Context) ([]*model.Contact, error) {
	out := make([]*model.Contact, 0, len(m.byID))
	for _, c := range m.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

type MockListRepo struct {
	byName map[string]*model.ContactList
}

func NewMockListRepo() *MockListRepo {
	return &MockListRepo{byName: map[string]*model.ContactList{}}
}

func (m *MockListRepo) Create(_ context.Context, l *model.ContactList) error {
	if _, ok := m.byName[l.Name]; ok {
		return appErrors.NewAlreadyExists("contact list", l.Name)
	}
	l.ID = "list-" + l.Name
	m.byName[l.Name] = l
	return nil
}

func (m *MockListRepo) GetByID(_ context.Context, id string) (*model.ContactList, error) {
	for _, l := range m.byName {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, appErrors.NewNotFound("contact list", id)
}

func (m *MockListRepo) GetByName(_ context.Context, name string) (*model.ContactList, error) {
	if l, ok := m.byName[name]; ok {
		return l, nil
	}
	return nil, appErrors.NewNotFound("contact list", name)
}

func (m *MockListRepo) AddMembers(_ context.Context, listID string, contactIDs []string) (int, error) {
	for _, l := range m.byName {
		if l.ID != listID {
			continue
		}
		added := 0
		for _, id := range contactIDs {
			if !slices.Contains(l.ContactIDs, id) {
				l.ContactIDs = append(l.ContactIDs, id)
				added++
			}
		}
		return added, nil
	}
	return 0, appErrors.NewNotFound("contact list", listID)
}

type MockTemplateRepo struct {
	byName map[string]*model.EmailTemplate
}

func NewMockTemplateRepo() *MockTemplateRepo {
	return &MockTemplateRepo{byName: map[string]*model.EmailTemplate{}}
}

func (m *MockTemplateRepo) Create(_ context.Context, t *model.EmailTemplate) error {
	if _, ok := m.byName[t.Name]; ok {
		return appErrors.NewAlreadyExists("template", t.Name)
	}
	t.ID = "tmpl-" + t.Name
	m.byName[t.Name] = t
	return nil
}

func (m *MockTemplateRepo) GetByID(_ context.Context, id string) (*model.EmailTemplate, error) {
	for _, t := range m.byName {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, appErrors.NewNotFound("template", id)
}

func (m *MockTemplateRepo) GetByName(_ context.Context, name string) (*model.EmailTemplate, error) {
	if t, ok := m.byName[name]; ok {
		return t, nil
	}
	return nil, appErrors.NewNotFound("template", name)
}

func (m *MockTemplateRepo) ListNames(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(m.byName))
	for n := range m.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MockTemplateRepo) DeleteByName(_ context.Context, name string) error {
	if _, ok := m.byName[name]; !ok {
		return appErrors.NewNotFound("template", name)
	}
	delete(m.byName, name)
	return nil
}

type MockCampaignRepo struct {
	byName map[string]*model.Campaign
}

func NewMockCampaignRepo() *MockCampaignRepo {
	return &MockCampaignRepo{byName: map[string]*model.Campaign{}}
}

func (m *MockCampaignRepo) Create(_ context.Context, c *model.Campaign) error {
	if _, ok := m.byName[c.Name]; ok {
		return appErrors.NewAlreadyExists("campaign", c.Name)
	}
	c.ID = "camp-" + c.Name
	c.CreatedAt = time.Now()
	m.byName[c.Name] = c
	return nil
}

func (m *MockCampaignRepo) GetByName(_ context.Context, name string) (*model.Campaign, error) {
	if c, ok := m.byName[name]; ok {
		return c, nil
	}
	return nil, appErrors.NewCampaignNotFound(name)
}

func (m *MockCampaignRepo) ListCampaigns(_ context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	return nil, 0, nil
}

func (m *MockCampaignRepo) UpdateDelivery(_ context.Context, name string, d model.CampaignDelivery) error {
	c, ok := m.byName[name]
	if !ok {
		return appErrors.NewCampaignNotFound(name)
	}
	sentAt := d.SentAt
	c.Status = d.Status
	c.SentAt = &sentAt
	c.TotalRecipients = d.TotalRecipients
	c.SentCount = d.SentCount
	c.FailedCount = d.FailedCount
	return nil
}

type MockLogRepo struct {
	entries []*model.EmailLogEntry
	cutoff  time.Time
}

func (m *MockLogRepo) Append(_ context.Context, e *model.EmailLogEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *MockLogRepo) List(_ context.Context, limit int, status string) ([]*model.EmailLogEntry, error) {
	var out []*model.EmailLogEntry
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if status == "" || m.entries[i].Status == status {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

func (m *MockLogRepo) CountByStatus(_ context.Context, campaignID string) (map[string]int, error) {
	counts := map[string]int{}
	for _, e := range m.entries {
		if e.CampaignID == campaignID {
			counts[e.Status]++
		}
	}
	return counts, nil
}

func (m *MockLogRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.cutoff = cutoff
	var kept []*model.EmailLogEntry
	var deleted int64
	for _, e := range m.entries {
		if e.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return deleted, nil
}

var (
	_ repository.ContactRepositoryInterface     = (*MockContactRepo)(nil)
	_ repository.ContactListRepositoryInterface = (*MockListRepo)(nil)
	_ repository.TemplateRepositoryInterface    = (*MockTemplateRepo)(nil)
	_ repository.CampaignRepositoryInterface    = (*MockCampaignRepo)(nil)
	_ repository.EmailLogRepositoryInterface    = (*MockLogRepo)(nil)
)
