package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/unclebandit/mailleopard-backend/internal/errors"
	"github.com/unclebandit/mailleopard-backend/internal/logger"
	"github.com/unclebandit/mailleopard-backend/internal/model"
	"github.com/unclebandit/mailleopard-backend/internal/repository"
)

const customFieldPrefix = "custom."

type ContactService struct {
	ContactRepo repository.ContactRepositoryInterface
	ListRepo    repository.ContactListRepositoryInterface
	Logger      *logger.Logger

	validate *validator.Validate
}

func NewContactService(contacts repository.ContactRepositoryInterface, lists repository.ContactListRepositoryInterface, log *logger.Logger) *ContactService {
	if log == nil {
		log = logger.Nop()
	}
	return &ContactService{
		ContactRepo: contacts,
		ListRepo:    lists,
		Logger:      log.WithComponent("contacts"),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// AddContact validates and stores a new contact.
func (s *ContactService) AddContact(ctx context.Context, c *model.Contact) error {
	c.Email = strings.TrimSpace(c.Email)
	if err := s.validate.Struct(c); err != nil {
		return appErrors.NewValidation("email", c.Email, "must be a valid email address")
	}
	if c.CustomFields == nil {
		c.CustomFields = map[string]string{}
	}
	if err := s.ContactRepo.Create(ctx, c); err != nil {
		return err
	}
	s.Logger.Info().Str("email", c.Email).Msg("contact added")
	return nil
}

func (s *ContactService) GetContact(ctx context.Context, email string) (*model.Contact, error) {
	return s.ContactRepo.GetByEmail(ctx, email)
}

// UpdateContact applies the non-nil fields of patch. Custom fields are merged key by key.
func (s *ContactService) UpdateContact(ctx context.Context, email string, patch model.ContactPatch) (*model.Contact, error) {
	c, err := s.ContactRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if patch.FirstName != nil {
		c.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		c.LastName = *patch.LastName
	}
	if patch.Company != nil {
		c.Company = *patch.Company
	}
	if len(patch.CustomFields) > 0 {
		if c.CustomFields == nil {
			c.CustomFields = map[string]string{}
		}
		maps.Copy(c.CustomFields, patch.CustomFields)
	}
	if err := s.ContactRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ContactService) DeleteContact(ctx context.Context, email string) error {
	return s.ContactRepo.DeleteByEmail(ctx, email)
}

func (s *ContactService) ListContacts(ctx context.Context) ([]*model.Contact, error) {
	return s.ContactRepo.ListAll(ctx)
}

// ParseFieldMapping reads "CSV Column:field,Other:field" into a column→field map.
func ParseFieldMapping(raw string) (map[string]string, error) {
	mapping := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		col, field, ok := strings.Cut(pair, ":")
		col, field = strings.TrimSpace(col), strings.TrimSpace(field)
		if !ok || col == "" || !validField(field) {
			return nil, appErrors.NewValidation("mapping", pair, "expected Column:field with field one of email, first_name, last_name, company, custom.<key>")
		}
		mapping[col] = field
	}
	if !slices.Contains(slices.Collect(maps.Values(mapping)), "email") {
		return nil, appErrors.NewValidation("mapping", raw, "no column is mapped to email")
	}
	return mapping, nil
}

func validField(field string) bool {
	switch field {
	case "email", "first_name", "last_name", "company":
		return true
	}
	return strings.HasPrefix(field, customFieldPrefix) && len(field) > len(customFieldPrefix)
}

// ImportContacts reads a CSV with a header row and adds one contact per row.
// Rows without an email, with an invalid email, or for an existing contact are
// logged and skipped. It returns the number of contacts added.
func (s *ContactService) ImportContacts(ctx context.Context, r io.Reader, mapping map[string]string) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns := make(map[int]string)
	for i, name := range header {
		if field, ok := mapping[strings.TrimSpace(name)]; ok {
			columns[i] = field
		}
	}

	imported := 0
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			s.Logger.Warn().Err(err).Int("line", line).Msg("skipping unreadable CSV row")
			continue
		}

		c := contactFromRecord(record, columns)
		if c.Email == "" {
			continue
		}
		if err := s.AddContact(ctx, c); err != nil {
			s.Logger.Warn().Err(err).Int("line", line).Msg("failed to import contact")
			continue
		}
		imported++
	}

	s.Logger.Info().Int("imported", imported).Msg("contacts imported from CSV")
	return imported, nil
}

func contactFromRecord(record []string, columns map[int]string) *model.Contact {
	c := &model.Contact{CustomFields: map[string]string{}}
	for i, field := range columns {
		if i >= len(record) {
			continue
		}
		value := strings.TrimSpace(record[i])
		if value == "" {
			continue
		}
		switch field {
		case "email":
			c.Email = value
		case "first_name":
			c.FirstName = value
		case "last_name":
			c.LastName = value
		case "company":
			c.Company = value
		default:
			c.CustomFields[strings.TrimPrefix(field, customFieldPrefix)] = value
		}
	}
	return c
}

// ExportContacts writes contacts as CSV: all of them, or only the members of listName.
// Custom fields become custom.<key> columns, sorted by key.
func (s *ContactService) ExportContacts(ctx context.Context, w io.Writer, listName string) (int, error) {
	var contacts []*model.Contact
	var err error
	if listName != "" {
		contacts, err = listMembers(ctx, s.ListRepo, s.ContactRepo, listName)
	} else {
		contacts, err = s.ContactRepo.ListAll(ctx)
	}
	if err != nil {
		return 0, err
	}

	keySet := map[string]struct{}{}
	for _, c := range contacts {
		for k := range c.CustomFields {
			keySet[k] = struct{}{}
		}
	}
	customKeys := slices.Sorted(maps.Keys(keySet))

	header := []string{"email", "first_name", "last_name", "company"}
	for _, k := range customKeys {
		header = append(header, customFieldPrefix+k)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return 0, err
	}
	for _, c := range contacts {
		row := []string{c.Email, c.FirstName, c.LastName, c.Company}
		for _, k := range customKeys {
			row = append(row, c.CustomFields[k])
		}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}

	s.Logger.Info().Int("exported", len(contacts)).Str("list", listName).Msg("contacts exported")
	return len(contacts), nil
}

// listMembers loads a list by name and its contacts in membership order.
// Members whose contact has since been deleted are skipped.
func listMembers(ctx context.Context, lists repository.ContactListRepositoryInterface, contacts repository.ContactRepositoryInterface, listName string) ([]*model.Contact, error) {
	list, err := lists.GetByName(ctx, listName)
	if err != nil {
		return nil, err
	}
	members := make([]*model.Contact, 0, len(list.ContactIDs))
	for _, id := range list.ContactIDs {
		c, err := contacts.GetByID(ctx, id)
		if errors.Is(err, appErrors.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		members = append(members, c)
	}
	return members, nil
}
