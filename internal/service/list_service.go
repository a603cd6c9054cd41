package service

import (
	"context"
	"errors"
	"strings"

	appErrors "github.com/unclebandit/mailleopard-backend/internal/errors"
	"github.com/unclebandit/mailleopard-backend/internal/logger"
	"github.com/unclebandit/mailleopard-backend/internal/model"
	"github.com/unclebandit/mailleopard-backend/internal/repository"
)

type ListService struct {
	ListRepo    repository.ContactListRepositoryInterface
	ContactRepo repository.ContactRepositoryInterface
	Logger      *logger.Logger
}

func NewListService(lists repository.ContactListRepositoryInterface, contacts repository.ContactRepositoryInterface, log *logger.Logger) *ListService {
	if log == nil {
		log = logger.Nop()
	}
	return &ListService{ListRepo: lists, ContactRepo: contacts, Logger: log.WithComponent("lists")}
}

func (s *ListService) CreateContactList(ctx context.Context, name, description string) (*model.ContactList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.NewValidation("name", name, "must not be empty")
	}
	l := &model.ContactList{Name: name, Description: description}
	if err := s.ListRepo.Create(ctx, l); err != nil {
		return nil, err
	}
	s.Logger.Info().Str("list", name).Msg("contact list created")
	return l, nil
}

// AddContactsToList adds the contacts with the given emails to the list.
// Unknown emails are ignored; it returns how many emails resolved to a contact.
func (s *ListService) AddContactsToList(ctx context.Context, listName string, emails []string) (int, error) {
	list, err := s.ListRepo.GetByName(ctx, listName)
	if err != nil {
		return 0, err
	}

	var ids []string
	for _, email := range emails {
		c, err := s.ContactRepo.GetByEmail(ctx, strings.TrimSpace(email))
		if errors.Is(err, appErrors.ErrNotFound) {
			continue
		}
		if err != nil {
			return 0, err
		}
		ids = append(ids, c.ID)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	added, err := s.ListRepo.AddMembers(ctx, list.ID, ids)
	if err != nil {
		return 0, err
	}
	s.Logger.Info().Str("list", listName).Int("resolved", len(ids)).Int("new", added).Msg("contacts added to list")
	return len(ids), nil
}

func (s *ListService) GetContactListContacts(ctx context.Context, listName string) ([]*model.Contact, error) {
	return listMembers(ctx, s.ListRepo, s.ContactRepo, listName)
}
