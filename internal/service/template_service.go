// internal/service/template_service.go
package service

import (
	"context"
	"maps"
	"slices"
	"strings"

	appErrors "github.com/unclebandit/mailleopard-backend/internal/errors"
	"github.com/unclebandit/mailleopard-backend/internal/model"
	"github.com/unclebandit/mailleopard-backend/internal/repository"
)

type placeholder struct {
	token string
	value string
}

// Personalize substitutes the contact's fields into text. Recognized tokens are
// {{first_name}}, {{last_name}}, {{full_name}}, {{email}}, {{company}} and
// {{custom.<field>}} for every custom field the contact has. Anything else,
// including custom tokens for fields the contact lacks, is left verbatim.
func Personalize(text string, contact *model.Contact) string {
	if contact == nil || !strings.Contains(text, "{{") {
		return text
	}

	result := text
	for _, p := range placeholders(contact) {
		result = strings.ReplaceAll(result, p.token, p.value)
	}
	return result
}

// placeholders lists tokens in a fixed order so a value that happens to look
// like another token is always treated the same way.
func placeholders(c *model.Contact) []placeholder {
	values := []placeholder{
		{"{{first_name}}", c.FirstName},
		{"{{last_name}}", c.LastName},
		{"{{email}}", c.Email},
		{"{{company}}", c.Company},
		{"{{full_name}}", strings.TrimSpace(c.FirstName + " " + c.LastName)},
	}
	for _, field := range slices.Sorted(maps.Keys(c.CustomFields)) {
		values = append(values, placeholder{"{{custom." + field + "}}", c.CustomFields[field]})
	}
	return values
}

type TemplateService struct {
	TemplateRepo repository.TemplateRepositoryInterface
}

// SaveTemplate stores a new template. Name and subject are required.
func (s *TemplateService) SaveTemplate(ctx context.Context, t *model.EmailTemplate) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return appErrors.NewValidation("name", t.Name, "must not be empty")
	}
	if strings.TrimSpace(t.Subject) == "" {
		return appErrors.NewValidation("subject", t.Subject, "must not be empty")
	}
	return s.TemplateRepo.Create(ctx, t)
}

func (s *TemplateService) GetTemplate(ctx context.Context, name string) (*model.EmailTemplate, error) {
	return s.TemplateRepo.GetByName(ctx, name)
}

func (s *TemplateService) ListTemplates(ctx context.Context) ([]string, error) {
	return s.TemplateRepo.ListNames(ctx)
}

func (s *TemplateService) DeleteTemplate(ctx context.Context, name string) error {
	return s.TemplateRepo.DeleteByName(ctx, name)
}
