package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/mailleopard-backend/internal/errors"
	"github.com/unclebandit/mailleopard-backend/internal/model"
)

type ContactListRepositoryInterface interface {
	Create(ctx context.Context, l *model.ContactList) error
	GetByID(ctx context.Context, id string) (*model.ContactList, error)
	GetByName(ctx context.Context, name string) (*model.ContactList, error)
	AddMembers(ctx context.Context, listID string, contactIDs []string) (int, error)
}

type ContactListRepository struct {
	DB *sql.DB
}

func (r *ContactListRepository) Create(ctx context.Context, l *model.ContactList) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.CreatedAt = time.Now()
	if l.ContactIDs == nil {
		l.ContactIDs = []string{}
	}
	query := `INSERT INTO contact_lists (id, name, description, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.DB.ExecContext(ctx, query, l.ID, l.Name, l.Description, l.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.NewAlreadyExists("contact list", l.Name)
		}
		return fmt.Errorf("failed to create contact list: %w", err)
	}
	return nil
}

// GetByID fetches a list together with its member contact IDs
func (r *ContactListRepository) GetByID(ctx context.Context, id string) (*model.ContactList, error) {
	query := `SELECT id, name, description, created_at FROM contact_lists WHERE id = $1`
	return r.get(ctx, query, id)
}

func (r *ContactListRepository) GetByName(ctx context.Context, name string) (*model.ContactList, error) {
	query := `SELECT id, name, description, created_at FROM contact_lists WHERE name = $1`
	return r.get(ctx, query, name)
}

func (r *ContactListRepository) get(ctx context.Context, query, key string) (*model.ContactList, error) {
	var l model.ContactList
	if err := r.DB.QueryRowContext(ctx, query, key).Scan(&l.ID, &l.Name, &l.Description, &l.CreatedAt); err != nil {
		return nil, lookupErr(err, "contact list", key)
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT contact_id FROM contact_list_members WHERE list_id = $1 ORDER BY added_at, contact_id`, l.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	l.ContactIDs = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		l.ContactIDs = append(l.ContactIDs, id)
	}
	return &l, rows.Err()
}

// AddMembers adds contacts to a list; members already present are left as is.
// It returns the number of rows actually inserted.
func (r *ContactListRepository) AddMembers(ctx context.Context, listID string, contactIDs []string) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	added := 0
	for _, id := range contactIDs {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO contact_list_members (list_id, contact_id, added_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (list_id, contact_id) DO NOTHING
		`, listID, id)
		if err != nil {
			return 0, fmt.Errorf("failed to add contact %s to list: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

var _ ContactListRepositoryInterface = (*ContactListRepository)(nil)
