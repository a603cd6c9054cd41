package controller_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/mailleopard-backend/internal/controller"
	appErrors "github.com/unclebandit/mailleopard-backend/internal/errors"
	"github.com/unclebandit/mailleopard-backend/internal/mailer"
	"github.com/unclebandit/mailleopard-backend/internal/model"
	"github.com/unclebandit/mailleopard-backend/internal/queue"
	"github.com/unclebandit/mailleopard-backend/internal/repository"
	"github.com/unclebandit/mailleopard-backend/internal/service"
)

// --- In-memory storage ---

type memStore struct {
	mu        sync.Mutex
	campaigns map[string]*model.Campaign
	template  *model.EmailTemplate
	list      *model.ContactList
	contacts  map[string]*model.Contact
	logs      []*model.EmailLogEntry
}

func newMemStore() *memStore {
	return &memStore{
		campaigns: map[string]*model.Campaign{},
		template:  &model.EmailTemplate{ID: "t1", Name: "welcome", Subject: "Hello {{first_name}}", Body: "Hi {{first_name}}!"},
		list:      &model.ContactList{ID: "l1", Name: "Newsletter", ContactIDs: []string{"c1"}},
		contacts: map[string]*model.Contact{
			"c1": {ID: "c1", Email: "alice@example.com", FirstName: "Alice"},
		},
	}
}

// campaigns
func (s *memStore) Create(_ context.Context, c *model.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[c.Name]; ok {
		return appErrors.NewAlreadyExists("campaign", c.Name)
	}
	c.ID = "camp-" + c.Name
	s.campaigns[c.Name] = c
	return nil
}

func (s *memStore) GetByName(_ context.Context, name string) (*model.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.campaigns[name]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, appErrors.NewCampaignNotFound(name)
}

func (s *memStore) ListCampaigns(_ context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Campaign
	for _, c := range s.campaigns {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (s *memStore) UpdateDelivery(_ context.Context, name string, d model.CampaignDelivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.campaigns[name]
	c.Status = d.Status
	c.SentCount = d.SentCount
	c.FailedCount = d.FailedCount
	c.TotalRecipients = d.TotalRecipients
	return nil
}

// dispatcher Store
func (s *memStore) FindCampaign(ctx context.Context, name string) (*model.Campaign, error) {
	return s.GetByName(ctx, name)
}

func (s *memStore) FindTemplate(_ context.Context, id string) (*model.EmailTemplate, error) {
	if id == s.template.ID {
		return s.template, nil
	}
	return nil, appErrors.NewNotFound("template", id)
}

func (s *memStore) FindContactList(_ context.Context, id string) (*model.ContactList, error) {
	if id == s.list.ID {
		return s.list, nil
	}
	return nil, appErrors.NewNotFound("contact list", id)
}

func (s *memStore) FindContact(_ context.Context, id string) (*model.Contact, error) {
	if c, ok := s.contacts[id]; ok {
		return c, nil
	}
	return nil, appErrors.NewNotFound("contact", id)
}

func (s *memStore) UpdateCampaignDelivery(ctx context.Context, name string, d model.CampaignDelivery) error {
	return s.UpdateDelivery(ctx, name, d)
}

func (s *memStore) AppendLog(_ context.Context, e *model.EmailLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, e)
	return nil
}

type templateRepo struct{ s *memStore }

func (r templateRepo) Create(context.Context, *model.EmailTemplate) error { return nil }
func (r templateRepo) GetByID(ctx context.Context, id string) (*model.EmailTemplate, error) {
	return r.s.FindTemplate(ctx, id)
}
func (r templateRepo) GetByName(_ context.Context, name string) (*model.EmailTemplate, error) {
	if name == r.s.template.Name {
		return r.s.template, nil
	}
	return nil, appErrors.NewNotFound("template", name)
}
func (r templateRepo) ListNames(context.Context) ([]string, error) { return nil, nil }
func (r templateRepo) DeleteByName(context.Context, string) error { return nil }

type listRepo struct{ s *memStore }

func (r listRepo) Create(context.Context, *model.ContactList) error { return nil }
func (r listRepo) GetByID(ctx context.Context, id string) (*model.ContactList, error) {
	return r.s.FindContactList(ctx, id)
}
func (r listRepo) GetByName(_ context.Context, name string) (*model.ContactList, error) {
	if name == r.s.list.Name {
		return r.s.list, nil
	}
	return nil, appErrors.NewNotFound("contact list", name)
}
func (r listRepo) AddMembers(context.Context, string, []string) (int, error) { return 0, nil }

type contactRepo struct{ s *memStore }

func (r contactRepo) Create(context.Context, *model.Contact) error { return nil }
func (r contactRepo) GetByID(ctx context.Context, id string) (*model.Contact, error) {
	return r.s.FindContact(ctx, id)
}
func (r contactRepo) GetByEmail(_ context.Context, email string) (*model.Contact, error) {
	for _, c := range r.s.contacts {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, appErrors.NewNotFound("contact", email)
}
func (r contactRepo) Update(context.Context, *model.Contact) error { return nil }
func (r contactRepo) DeleteByEmail(context.Context, string) error { return nil }
func (r contactRepo) ListAll(context.Context) ([]*model.Contact, error) { return nil, nil }

var (
	_ repository.CampaignRepositoryInterface    = (*memStore)(nil)
	_ repository.TemplateRepositoryInterface    = templateRepo{}
	_ repository.ContactListRepositoryInterface = listRepo{}
	_ repository.ContactRepositoryInterface     = contactRepo{}
	_ service.Store                             = (*memStore)(nil)
)

type okTransport struct{}

func (okTransport) Send(context.Context, mailer.Message) error { return nil }

func newRouter(s *memStore, q queue.Queue) http.Handler {
	svc := &service.CampaignService{
		CampaignRepo: s,
		TemplateRepo: templateRepo{s},
		ListRepo:     listRepo{s},
		ContactRepo:  contactRepo{s},
		Dispatcher:   service.NewDispatcher(s, okTransport{}, nil, nil, nil),
		Queue:        q,
	}
	ctrl := &controller.CampaignController{CampaignService: svc}

	r := chi.NewRouter()
	r.Post("/campaigns", ctrl.CreateCampaign)
	r.Get("/campaigns", ctrl.ListCampaigns)
	r.Post("/campaigns/{name}/send", ctrl.SendCampaign)
	r.Post("/campaigns/{name}/preview", ctrl.PersonalizedPreview)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func TestCreateAndSendCampaign(t *testing.T) {
	s := newMemStore()
	h := newRouter(s, nil)

	w, body := do(t, h, http.MethodPost, "/campaigns", `{"name":"spring","template_name":"welcome","contact_lists":["Newsletter"]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "draft", body["status"])

	w, _ = do(t, h, http.MethodPost, "/campaigns", `{"name":"spring","template_name":"welcome"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, body = do(t, h, http.MethodPost, "/campaigns/spring/send", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["sent"])
	assert.Equal(t, float64(0), body["failed"])
	assert.Equal(t, float64(1), body["total"])
	require.Len(t, s.logs, 1)

	w, body = do(t, h, http.MethodPost, "/campaigns/spring/send", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, body["error"], "already sent")
}

func TestSendUnknownCampaign(t *testing.T) {
	h := newRouter(newMemStore(), nil)

	w, body := do(t, h, http.MethodPost, "/campaigns/ghost/send", `{"attachments":[]}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, body["error"], "ghost")

	w, _ = do(t, h, http.MethodPost, "/campaigns/ghost/send", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendCampaignAsync(t *testing.T) {
	s := newMemStore()
	q := queue.NewInMemoryQueue(nil)
	jobs := make(chan string, 1)
	require.NoError(t, q.Subscribe(queue.TopicCampaignSends, func(_ context.Context, b []byte) error {
		jobs <- string(b)
		return nil
	}))
	h := newRouter(s, q)

	w, _ := do(t, h, http.MethodPost, "/campaigns", `{"name":"spring","template_name":"welcome","contact_lists":["Newsletter"]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w, body := do(t, h, http.MethodPost, "/campaigns/spring/send?async=true", `{"attachments":["flyer.pdf"]}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "queued", body["status"])

	q.Wait()
	assert.JSONEq(t, `{"campaign_name":"spring","attachments":["flyer.pdf"]}`, <-jobs)
	assert.Empty(t, s.logs)
}

func TestPersonalizedPreviewHandler(t *testing.T) {
	h := newRouter(newMemStore(), nil)
	w, _ := do(t, h, http.MethodPost, "/campaigns", `{"name":"spring","template_name":"welcome","contact_lists":["Newsletter"]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w, body := do(t, h, http.MethodPost, "/campaigns/spring/preview", `{"contact_email":"alice@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hello Alice", body["subject"])
	assert.Equal(t, "Hi Alice!", body["body"])

	w, _ = do(t, h, http.MethodPost, "/campaigns/spring/preview", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, h, http.MethodPost, "/campaigns/spring/preview", `{"contact_email":"bob@example.com"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListCampaignsHandler(t *testing.T) {
	h := newRouter(newMemStore(), nil)
	do(t, h, http.MethodPost, "/campaigns", `{"name":"a","template_name":"welcome"}`)
	do(t, h, http.MethodPost, "/campaigns", `{"name":"b","template_name":"welcome"}`)

	w, body := do(t, h, http.MethodGet, "/campaigns?page=1&page_size=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["data"], 2)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["total_count"])
	assert.Equal(t, float64(10), pagination["page_size"])
}

func TestSendCampaignSurvivesClientDisconnect(t *testing.T) {
	s := newMemStore()
	h := newRouter(s, nil)

	w, _ := do(t, h, http.MethodPost, "/campaigns", `{"name":"spring","template_name":"welcome","contact_lists":["Newsletter"]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/campaigns/spring/send", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, s.logs, 1)
	c, err := s.GetByName(context.Background(), "spring")
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusSent, c.Status)
}
